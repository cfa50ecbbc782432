// Package chart renders single-series progress charts onto drawing surfaces.
//
// A render resizes the surface to its container, derives a Layout, and paints
// axes, gridlines, the target line, the filled area, the polyline, tiered
// markers, value and category labels, the title and the legend in that fixed
// back-to-front order. Render never returns an error: failures end up as an
// in-surface message and a log record.
package chart

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/reportcard/pkg/logger"
	"github.com/okian/reportcard/pkg/metrics"
)

// Default id conventions of the host page.
const (
	SurfaceSuffix = "ProgressChart"
	LoadingSuffix = "LoadingMessage"
)

// SurfaceIDFunc maps a series name to the id of the surface it is drawn on.
type SurfaceIDFunc func(seriesName string) string

// LoadingIDFunc maps a surface id to the id of its loading element.
type LoadingIDFunc func(surfaceID string) string

// DefaultSurfaceID lowercases the series name and appends "ProgressChart".
func DefaultSurfaceID(seriesName string) string {
	return strings.ToLower(seriesName) + SurfaceSuffix
}

// DefaultLoadingID replaces "ProgressChart" with "LoadingMessage".
func DefaultLoadingID(surfaceID string) string {
	return strings.Replace(surfaceID, SurfaceSuffix, LoadingSuffix, 1)
}

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used for render diagnostics.
func WithLogger(l logger.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSurfaceID overrides how InitializeAll names surfaces.
func WithSurfaceID(fn SurfaceIDFunc) Option {
	return func(r *Renderer) {
		if fn != nil {
			r.surfaceID = fn
		}
	}
}

// WithLoadingID overrides how Render finds the loading element to hide.
func WithLoadingID(fn LoadingIDFunc) Option {
	return func(r *Renderer) {
		if fn != nil {
			r.loadingID = fn
		}
	}
}

// Renderer paints progress charts. It holds no per-render state and may be
// shared; a single surface must not be rendered concurrently.
type Renderer struct {
	logger    logger.Logger
	surfaceID SurfaceIDFunc
	loadingID LoadingIDFunc
}

// NewRenderer constructs a Renderer with the default id conventions.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		logger:    logger.Nop(),
		surfaceID: DefaultSurfaceID,
		loadingID: DefaultLoadingID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Series is the data of one chart.
type Series struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// SeriesMap maps series names to their data.
type SeriesMap map[string]Series

// SurfaceID returns the surface id InitializeAll uses for a series.
func (r *Renderer) SurfaceID(seriesName string) string { return r.surfaceID(seriesName) }

// LoadingID returns the loading element id paired with a surface.
func (r *Renderer) LoadingID(surfaceID string) string { return r.loadingID(surfaceID) }

// Render fully repaints the surface identified by surfaceID. A missing
// surface is logged and left alone. When labels and values differ in length
// both are truncated to the shorter one.
func (r *Renderer) Render(ctx context.Context, doc Document, surfaceID string, labels []string, values []float64, seriesName string) {
	surface, ok := doc.Surface(surfaceID)
	if !ok {
		r.logger.Error(ctx, "surface not found", logger.String("surface", surfaceID), logger.Error(ErrSurfaceNotFound))
		metrics.RecordChartFailure("surface_not_found")
		return
	}

	if len(labels) != len(values) {
		r.logger.Warn(ctx, "truncating series to shorter input",
			logger.String("surface", surfaceID),
			logger.Int("labels", len(labels)),
			logger.Int("values", len(values)),
			logger.Error(ErrInputLengthMismatch))
		n := min(len(labels), len(values))
		labels, values = labels[:n], values[:n]
	}

	start := time.Now()
	width, height := surface.ContainerSize()
	dc := surface.resize()
	p := &painter{dc: dc}
	p.clear()

	l := ComputeLayout(dc.Width(), dc.Height(), labels, values, seriesName)
	if err := p.paint(&l); err != nil {
		r.logger.Error(ctx, "error drawing chart",
			logger.String("surface", surfaceID),
			logger.String("series", seriesName),
			logger.Error(err))
		p.drawError(&l)
		metrics.RecordChartFailure("render_failure")
		metrics.RecordChartRendered("error")
		return
	}
	metrics.RecordChartRendered("ok")
	metrics.RecordChartRenderLatency(float64(time.Since(start).Microseconds()) / 1000)

	r.logger.Debug(ctx, "chart created",
		logger.String("surface", surfaceID),
		logger.String("series", seriesName),
		logger.Int("points", len(l.Points)),
		logger.Int("width", width),
		logger.Int("height", height))

	if el, ok := doc.Element(r.loadingID(surfaceID)); ok {
		el.Hide()
	}
}

// InitializeAll renders every series onto the surface named by the
// configured SurfaceIDFunc. Series are processed one at a time in sorted
// name order.
func (r *Renderer) InitializeAll(ctx context.Context, doc Document, series SeriesMap) {
	r.logger.Debug(ctx, "initializing charts", logger.Int("series", len(series)))
	for _, name := range series.Names() {
		s := series[name]
		r.Render(ctx, doc, r.surfaceID(name), s.Labels, s.Values, name)
	}
}

// Names returns the series names in sorted order.
func (m SeriesMap) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// checkFinite reports a render failure for coordinates the backend cannot draw.
func checkFinite(what string, vals ...float64) error {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite %s coordinate", ErrRenderFailure, what)
		}
	}
	return nil
}
