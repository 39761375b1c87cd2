// Package cache provides an in-process key/value store whose entries expire
// after a fixed time-to-live and can be dropped in bulk by key prefix.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Recorder receives cache events. It is satisfied by *metrics.Metrics.
type Recorder interface {
	CacheHit(cache string)
	CacheMiss(cache string)
	CacheInvalidated(cache string, count int)
	CacheExpired(cache string, count int)
}

type nopRecorder struct{}

func (nopRecorder) CacheHit(string)              {}
func (nopRecorder) CacheMiss(string)             {}
func (nopRecorder) CacheInvalidated(string, int) {}
func (nopRecorder) CacheExpired(string, int)     {}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

type options struct {
	name     string
	now      func() time.Time
	recorder Recorder
}

// Option configures a TTLCache.
type Option func(*options)

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithRecorder reports hits, misses and removals to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithName sets the label used when reporting to the Recorder.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// TTLCache is a concurrency-safe map whose entries expire lazily.
// An entry is treated as absent once its expiry time is not after now.
type TTLCache[V any] struct {
	mu       sync.RWMutex
	entries  map[string]entry[V]
	name     string
	now      func() time.Time
	recorder Recorder
}

// New creates an empty cache.
func New[V any](opts ...Option) *TTLCache[V] {
	o := options{
		name:     "default",
		now:      time.Now,
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &TTLCache[V]{
		entries:  make(map[string]entry[V]),
		name:     o.name,
		now:      o.now,
		recorder: o.recorder,
	}
}

// Get returns the value stored under key if it has not expired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.now().Before(e.expiresAt) {
		c.recorder.CacheHit(c.name)
		return e.value, true
	}

	if ok {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have replaced it.
		if cur, still := c.entries[key]; still && !c.now().Before(cur.expiresAt) {
			delete(c.entries, key)
			c.recorder.CacheExpired(c.name, 1)
		}
		c.mu.Unlock()
	}

	c.recorder.CacheMiss(c.name)
	var zero V
	return zero, false
}

// Set stores value under key for ttl. A non-positive ttl stores an entry that
// is already expired.
func (c *TTLCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry[V]{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
}

// Invalidate removes key. Missing keys are ignored.
func (c *TTLCache[V]) Invalidate(key string) {
	c.mu.Lock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()

	if ok {
		c.recorder.CacheInvalidated(c.name, 1)
	}
}

// InvalidateByPrefix removes every key that starts with prefix and returns
// how many were removed. The comparison is a literal string prefix.
func (c *TTLCache[V]) InvalidateByPrefix(prefix string) int {
	c.mu.Lock()
	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.recorder.CacheInvalidated(c.name, removed)
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *TTLCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes every expired entry and returns how many were removed.
func (c *TTLCache[V]) Sweep() int {
	now := c.now()

	c.mu.Lock()
	removed := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.recorder.CacheExpired(c.name, removed)
	}
	return removed
}

// RunJanitor sweeps expired entries every interval until ctx is done.
// It blocks, so callers normally start it in its own goroutine.
func (c *TTLCache[V]) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}
