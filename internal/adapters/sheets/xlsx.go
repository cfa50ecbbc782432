package sheets

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/okian/reportcard/internal/domain/report"
	"github.com/okian/reportcard/pkg/logger"
	"github.com/okian/reportcard/pkg/metrics"
	"github.com/xuri/excelize/v2"
)

const sourceXLSX = "xlsx"

// XLSXSource reads class sheets from a local workbook whose sheet names are
// class names. The file is reopened on every call so edits are picked up.
type XLSXSource struct {
	path   string
	logger logger.Logger
}

// NewXLSXSource creates a workbook-backed source.
func NewXLSXSource(path string, l logger.Logger) *XLSXSource {
	if l == nil {
		l = logger.Nop()
	}
	return &XLSXSource{path: path, logger: l}
}

// Classes implements Source.
func (s *XLSXSource) Classes(ctx context.Context) []string {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		s.logger.Error(ctx, "open workbook failed", logger.String("path", s.path), logger.Error(err))
		return []string{}
	}
	defer func() { _ = f.Close() }()
	return report.SortClasses(f.GetSheetList())
}

// Rows implements Source.
func (s *XLSXSource) Rows(ctx context.Context, class string) ([][]string, error) {
	start := time.Now()
	defer func() {
		metrics.RecordSheetFetchLatency(sourceXLSX, float64(time.Since(start).Milliseconds()))
	}()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		metrics.RecordSheetFetch(sourceXLSX, "error")
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer func() { _ = f.Close() }()

	if !slices.Contains(f.GetSheetList(), class) {
		metrics.RecordSheetFetch(sourceXLSX, "unknown_class")
		return nil, fmt.Errorf("class %s: %w", class, ErrUnknownClass)
	}
	rows, err := f.GetRows(class)
	if err != nil {
		metrics.RecordSheetFetch(sourceXLSX, "error")
		return nil, fmt.Errorf("%w: sheet %s: %w", ErrParse, class, err)
	}
	metrics.RecordSheetFetch(sourceXLSX, "ok")
	s.logger.Debug(ctx, "sheet read", logger.String("class", class), logger.Int("rows", len(rows)))
	return rows, nil
}
