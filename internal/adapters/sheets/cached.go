package sheets

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/reportcard/internal/adapters/cache"
	"github.com/okian/reportcard/pkg/logger"
	"github.com/okian/reportcard/pkg/metrics"
)

// CachedSource serves sheets from a TTL cache and falls through to the
// wrapped source on a miss.
type CachedSource struct {
	next   Source
	cache  *cache.Cache[[][]string]
	logger logger.Logger
}

// NewCachedSource wraps next. opts configure the underlying cache.
func NewCachedSource(next Source, l logger.Logger, opts ...cache.Option) *CachedSource {
	if l == nil {
		l = logger.Nop()
	}
	return &CachedSource{
		next:   next,
		cache:  cache.New[[][]string](opts...),
		logger: l,
	}
}

// Classes implements Source.
func (s *CachedSource) Classes(ctx context.Context) []string {
	return s.next.Classes(ctx)
}

// Rows implements Source.
func (s *CachedSource) Rows(ctx context.Context, class string) ([][]string, error) {
	if rows, ok := s.cache.Get(class); ok {
		metrics.RecordCacheHit()
		return rows, nil
	}
	metrics.RecordCacheMiss()
	return s.load(ctx, class)
}

// Refresh reloads class from the wrapped source and replaces the cached
// sheet. A failed reload leaves the previous entry in place.
func (s *CachedSource) Refresh(ctx context.Context, class string) error {
	start := time.Now()
	defer func() {
		metrics.RecordRefreshLatency(float64(time.Since(start).Milliseconds()))
	}()
	if _, err := s.load(ctx, class); err != nil {
		return fmt.Errorf("refresh %s: %w", class, err)
	}
	return nil
}

// Invalidate drops the cached sheet of class.
func (s *CachedSource) Invalidate(class string) {
	s.cache.Delete(class)
	metrics.UpdateCacheSize(int(s.cache.Size()))
}

// Size returns the number of cached sheets.
func (s *CachedSource) Size() int64 { return s.cache.Size() }

func (s *CachedSource) load(ctx context.Context, class string) ([][]string, error) {
	rows, err := s.next.Rows(ctx, class)
	if err != nil {
		return nil, err
	}
	s.cache.Set(class, rows)
	metrics.UpdateCacheSize(int(s.cache.Size()))
	s.logger.Debug(ctx, "sheet cached", logger.String("class", class), logger.Int("rows", len(rows)))
	return rows, nil
}
