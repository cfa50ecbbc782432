package api

import (
	"embed"
	"html/template"
)

//go:embed static/*.html
var pagesFS embed.FS

// pageTemplates holds the server-rendered pages, keyed by file name.
var pageTemplates = template.Must(template.ParseFS(pagesFS, "static/*.html"))
