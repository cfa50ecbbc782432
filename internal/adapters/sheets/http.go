package sheets

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/okian/reportcard/internal/domain/report"
	"github.com/okian/reportcard/pkg/logger"
	"github.com/okian/reportcard/pkg/metrics"
)

// Default HTTP source configuration constants.
const (
	DefaultTimeout   = 10 * time.Second
	defaultUserAgent = "reportcard/1.0"
	maxBodyBytes     = 16 << 20
	sourceHTTP       = "http"
)

// HTTPOption applies a configuration option to the HTTPSource.
type HTTPOption func(*HTTPSource)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		if d > 0 {
			s.client.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client. Its timeout is kept as is.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		if c != nil {
			s.client = c
		}
	}
}

// WithUserAgent sets the User-Agent header sent upstream.
func WithUserAgent(ua string) HTTPOption {
	return func(s *HTTPSource) {
		if ua != "" {
			s.userAgent = ua
		}
	}
}

// WithHTTPLogger sets the logger.
func WithHTTPLogger(l logger.Logger) HTTPOption {
	return func(s *HTTPSource) {
		if l != nil {
			s.logger = l
		}
	}
}

// HTTPSource fetches published spreadsheets, one URL per class. CSV exports
// and published HTML pages are both understood.
type HTTPSource struct {
	urls      map[string]string
	client    *http.Client
	userAgent string
	logger    logger.Logger
}

// NewHTTPSource creates a source for the given class to URL mapping.
func NewHTTPSource(urls map[string]string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		urls:      make(map[string]string, len(urls)),
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: defaultUserAgent,
		logger:    logger.Nop(),
	}
	for class, u := range urls {
		s.urls[class] = u
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classes implements Source.
func (s *HTTPSource) Classes(_ context.Context) []string {
	names := make([]string, 0, len(s.urls))
	for class := range s.urls {
		names = append(names, class)
	}
	return report.SortClasses(names)
}

// Rows implements Source.
func (s *HTTPSource) Rows(ctx context.Context, class string) ([][]string, error) {
	rawURL, ok := s.urls[class]
	if !ok {
		return nil, fmt.Errorf("class %s: %w", class, ErrUnknownClass)
	}

	start := time.Now()
	rows, err := s.fetch(ctx, rawURL)
	metrics.RecordSheetFetchLatency(sourceHTTP, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordSheetFetch(sourceHTTP, "error")
		s.logger.Error(ctx, "sheet fetch failed", logger.String("class", class), logger.Error(err))
		return nil, fmt.Errorf("class %s: %w", class, err)
	}
	metrics.RecordSheetFetch(sourceHTTP, "ok")
	s.logger.Debug(ctx, "sheet fetched", logger.String("class", class), logger.Int("rows", len(rows)))
	return rows, nil
}

func (s *HTTPSource) fetch(ctx context.Context, rawURL string) ([][]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if isHTML(resp.Header.Get("Content-Type"), rawURL) {
		return ParseHTML(bytes.NewReader(body))
	}
	return ParseCSV(bytes.NewReader(body))
}

// isHTML picks the parser: an explicit output=csv export is always CSV,
// otherwise the content type decides.
func isHTML(contentType, rawURL string) bool {
	if u, err := url.Parse(rawURL); err == nil && u.Query().Get("output") == "csv" {
		return false
	}
	return strings.Contains(strings.ToLower(contentType), "text/html")
}

// ParseCSV reads a CSV export. Rows may have different lengths and quotes
// are handled leniently.
func ParseCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	rows, err := cr.ReadAll()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, fmt.Errorf("%w: line %d: %w", ErrParse, pe.Line, pe.Err)
		}
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return rows, nil
}

// ParseHTML reads the first table of a published sheet page. Rows use their
// td cells; header-only rows fall back to th cells.
func ParseHTML(r io.Reader) ([][]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no table in page", ErrParse)
	}

	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		if cells.Length() == 0 {
			cells = tr.Find("th")
		}
		row := make([]string, 0, cells.Length())
		cells.Each(func(_ int, c *goquery.Selection) {
			row = append(row, strings.TrimSpace(c.Text()))
		})
		rows = append(rows, row)
	})
	return rows, nil
}
