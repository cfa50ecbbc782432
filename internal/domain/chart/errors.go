package chart

import "errors"

// Sentinel error kinds for chart rendering. Render never returns them; they
// are logged and counted so callers can match on them in log pipelines.
var (
	ErrSurfaceNotFound     = errors.New("surface not found")
	ErrRenderFailure       = errors.New("render failure")
	ErrInputLengthMismatch = errors.New("labels and values length mismatch")
)

// ErrSurfaceNotPainted is returned when encoding a surface that was never rendered.
var ErrSurfaceNotPainted = errors.New("surface not painted")
