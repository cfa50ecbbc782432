package cache

import "time"

// Option applies a configuration option to a Cache.
type Option func(*settings)

type settings struct {
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

// WithMaxSize sets the maximum number of entries.
// If maxSize > 0: bounded mode, the oldest inserted entry is evicted.
// If maxSize <= 0: unbounded mode (no eviction, no size limit).
func WithMaxSize(maxSize int) Option {
	return func(s *settings) {
		s.maxSize = maxSize
	}
}

// WithTTL sets how long an entry stays fresh. A non-positive ttl keeps
// entries until they are evicted or deleted.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		s.ttl = ttl
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}
