// Package cache provides a bounded in-memory cache with per-entry expiry.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// Default cache configuration constants.
const (
	defaultMaxSize = 64
	defaultTTL     = 5 * time.Minute
)

type entry[V any] struct {
	key     string
	value   V
	expires time.Time
}

// Cache maps keys to values that expire after the configured TTL. In bounded
// mode the oldest inserted entry is evicted when a new key would exceed the
// limit; overwriting a key moves it to the newest position.
type Cache[V any] struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List // front is the most recently inserted
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	size    atomic.Int64
}

// New creates a cache with configuration options.
func New[V any](opts ...Option) *Cache[V] {
	s := settings{
		maxSize: defaultMaxSize,
		ttl:     defaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &Cache[V]{
		items:   make(map[string]*list.Element),
		order:   list.New(),
		maxSize: s.maxSize,
		ttl:     s.ttl,
		now:     s.now,
	}
}

// Get returns the value stored under key if it has not expired. Expired
// entries are dropped on access.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[V])
	if c.ttl > 0 && !c.now().Before(e.expires) {
		c.remove(el)
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, replacing any previous value.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
	if c.maxSize > 0 {
		for len(c.items) >= c.maxSize {
			c.remove(c.order.Back())
		}
	}
	e := &entry[V]{key: key, value: value}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.items[key] = c.order.PushFront(e)
	c.size.Add(1)
}

// Delete removes key. Missing keys are ignored.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
}

// Size returns the number of stored entries, including expired ones not yet
// dropped.
func (c *Cache[V]) Size() int64 {
	return c.size.Load()
}

// remove must be called with c.mu held.
func (c *Cache[V]) remove(el *list.Element) {
	e := c.order.Remove(el).(*entry[V])
	delete(c.items, e.key)
	c.size.Add(-1)
}
