// Package sheets loads class mark sheets as grids of cells from published
// spreadsheets, local workbooks, or a cache in front of either.
package sheets

import "context"

// Source yields the raw cell grid of a class sheet.
type Source interface {
	// Rows returns the sheet of class. Unknown classes return ErrUnknownClass.
	Rows(ctx context.Context, class string) ([][]string, error)

	// Classes lists the classes this source knows about in display order.
	Classes(ctx context.Context) []string
}
