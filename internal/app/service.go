// Package service wires sheet sources, the report domain and the chart
// renderer into the operations the HTTP API and CLI need.
package service

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/okian/reportcard/internal/adapters/cache"
	"github.com/okian/reportcard/internal/adapters/mq/queue"
	"github.com/okian/reportcard/internal/adapters/mq/worker"
	"github.com/okian/reportcard/internal/adapters/sheets"
	"github.com/okian/reportcard/internal/domain/chart"
	"github.com/okian/reportcard/internal/domain/report"
	"github.com/okian/reportcard/pkg/logger"
	"github.com/okian/reportcard/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultChartWidth   = 800
	defaultChartHeight  = 400
	defaultWorkerCount  = 2
	defaultQueueSize    = 256
	defaultCacheSize    = 64
	defaultCacheTTL     = 5 * time.Minute
	stopTimeout         = 5 * time.Second
	backgroundComponent = "refresh"
)

// Service implements the API dependencies for the report card system.
type Service struct {
	mu sync.RWMutex

	// Core components
	source   sheets.Source
	cached   *sheets.CachedSource
	renderer *chart.Renderer
	queue    *queue.InMemoryQueue
	pool     *worker.Pool

	// Configuration
	chartWidth      int
	chartHeight     int
	workerCount     int
	queueSize       int
	cacheSize       int
	cacheTTL        time.Duration
	refreshInterval time.Duration

	// State
	started bool
	stopCh  chan struct{}
	loopWG  sync.WaitGroup

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithSource sets where class sheets are loaded from.
func WithSource(src sheets.Source) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
		}
	}
}

// WithRenderer sets the chart renderer.
func WithRenderer(r *chart.Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithChartSize sets the default chart container size.
func WithChartSize(width, height int) Option {
	return func(s *Service) {
		if width > 0 && height > 0 {
			s.chartWidth, s.chartHeight = width, height
		}
	}
}

// WithWorkerCount sets the number of refresh workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the refresh queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithCache sets the sheet cache bound and entry lifetime.
func WithCache(size int, ttl time.Duration) Option {
	return func(s *Service) {
		s.cacheSize = size
		s.cacheTTL = ttl
	}
}

// WithRefreshInterval schedules a reload of every class; 0 disables it.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.refreshInterval = d
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service. Reads work before Start; Start only adds
// background refreshing.
func New(opts ...Option) *Service {
	s := &Service{
		chartWidth:  defaultChartWidth,
		chartHeight: defaultChartHeight,
		workerCount: defaultWorkerCount,
		queueSize:   defaultQueueSize,
		cacheSize:   defaultCacheSize,
		cacheTTL:    defaultCacheTTL,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.source == nil {
		s.source = sheets.NewHTTPSource(nil, sheets.WithHTTPLogger(s.logger.Named("sheets")))
	}
	if s.renderer == nil {
		s.renderer = chart.NewRenderer(chart.WithLogger(s.logger.Named("chart")))
	}
	s.cached = sheets.NewCachedSource(s.source, s.logger.Named("cache"),
		cache.WithMaxSize(s.cacheSize),
		cache.WithTTL(s.cacheTTL),
	)
	return s
}

// Start launches the refresh workers, queues a warm-up load of every class
// and, when configured, the periodic refresh loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting report card service...")

	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.queue, s.cached,
		worker.WithSize(s.workerCount),
		worker.WithLogger(s.logger.Named("worker-pool")),
	)
	// Workers outlive the Start call; Stop cancels them.
	s.pool.Start(context.WithoutCancel(ctx))
	s.stopCh = make(chan struct{})
	s.started = true

	s.enqueueAll(ctx)
	if s.refreshInterval > 0 {
		s.loopWG.Add(1)
		go s.refreshLoop(context.WithoutCancel(ctx), s.stopCh)
	}

	s.logger.Info(ctx, "report card service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Duration("refreshInterval", s.refreshInterval),
	)
	return nil
}

// Stop gracefully shuts down background work. Pending refreshes are
// drained for up to five seconds.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping report card service...")

	close(s.stopCh)
	s.loopWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	if err := s.pool.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "report card service stopped")
}

func (s *Service) refreshLoop(ctx context.Context, stop <-chan struct{}) {
	defer s.loopWG.Done()
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.enqueueAll(ctx)
		}
	}
}

// enqueueAll must be called with s.mu held or from the refresh loop.
func (s *Service) enqueueAll(ctx context.Context) {
	now := time.Now()
	for _, class := range s.source.Classes(ctx) {
		if !s.queue.Enqueue(ctx, queue.RefreshJob{Class: class, Requested: now}) {
			metrics.RecordErrorByComponent(backgroundComponent, "enqueue_rejected")
			s.logger.Warn(ctx, "refresh not queued", logger.String("class", class))
		}
	}
}

// RequestRefresh queues a reload of one class.
func (s *Service) RequestRefresh(ctx context.Context, class string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return fmt.Errorf("%w: service not started", ErrRefreshRejected)
	}
	if !slices.Contains(s.cached.Classes(ctx), class) {
		return fmt.Errorf("class %s: %w", class, sheets.ErrUnknownClass)
	}
	if !s.queue.Enqueue(ctx, queue.RefreshJob{Class: class, Requested: time.Now()}) {
		return fmt.Errorf("%w: queue full", ErrRefreshRejected)
	}
	return nil
}

// Classes lists the known classes in grade order.
func (s *Service) Classes(ctx context.Context) []string {
	return s.cached.Classes(ctx)
}

// Students returns the roster of a class.
func (s *Service) Students(ctx context.Context, class string) ([]report.Student, error) {
	rows, err := s.cached.Rows(ctx, class)
	if err != nil {
		return nil, err
	}
	return report.Students(rows), nil
}

// Report builds the progress report of one student.
func (s *Service) Report(ctx context.Context, class, roll string) (*report.Report, error) {
	rows, err := s.cached.Rows(ctx, class)
	if err != nil {
		return nil, err
	}
	return report.BuildReport(class, roll, rows)
}

// ChartSize returns the default chart container size.
func (s *Service) ChartSize() (int, int) {
	return s.chartWidth, s.chartHeight
}

// ChartPNG renders the progress chart of one subject as PNG. Non-positive
// sizes fall back to the configured default.
func (s *Service) ChartPNG(ctx context.Context, class, roll, subject string, width, height int) ([]byte, error) {
	rep, err := s.Report(ctx, class, roll)
	if err != nil {
		return nil, err
	}
	series, ok := rep.ProgressSeries()[subject]
	if !ok {
		return nil, fmt.Errorf("%s for %s/%s: %w", subject, class, roll, ErrSubjectNotFound)
	}

	width, height = s.size(width, height)
	page := chart.NewPage()
	id := s.renderer.SurfaceID(subject)
	surface := page.AddSurface(id, width, height)
	page.AddElement(s.renderer.LoadingID(id))
	s.renderer.Render(ctx, page, id, series.Labels, series.Values, subject)
	return encode(surface)
}

// ChartsPNG renders every subject of a student onto one page and returns
// the PNG of each surface keyed by subject.
func (s *Service) ChartsPNG(ctx context.Context, class, roll string, width, height int) (map[string][]byte, error) {
	rep, err := s.Report(ctx, class, roll)
	if err != nil {
		return nil, err
	}
	series := rep.ProgressSeries()

	width, height = s.size(width, height)
	page := chart.NewPage()
	surfaces := make(map[string]*chart.Surface, len(series))
	for _, name := range series.Names() {
		id := s.renderer.SurfaceID(name)
		surfaces[name] = page.AddSurface(id, width, height)
		page.AddElement(s.renderer.LoadingID(id))
	}
	s.renderer.InitializeAll(ctx, page, series)

	out := make(map[string][]byte, len(surfaces))
	for name, surface := range surfaces {
		png, err := encode(surface)
		if err != nil {
			return nil, err
		}
		out[name] = png
	}
	return out, nil
}

func (s *Service) size(width, height int) (int, int) {
	if width <= 0 {
		width = s.chartWidth
	}
	if height <= 0 {
		height = s.chartHeight
	}
	return width, height
}

func encode(surface *chart.Surface) ([]byte, error) {
	var buf bytes.Buffer
	if err := surface.EncodePNG(&buf); err != nil {
		return nil, err
	}
	metrics.RecordChartPNGBytes(buf.Len())
	return buf.Bytes(), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"cachedSheets": s.cached.Size(),
		"chartWidth":   s.chartWidth,
		"chartHeight":  s.chartHeight,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["workers"] = s.pool.Stats()
	}
	return stats
}
