package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// countingRecorder records cache events for assertions.
type countingRecorder struct {
	mu          sync.Mutex
	hits        int
	misses      int
	invalidated int
	expired     int
}

func (r *countingRecorder) CacheHit(string) {
	r.mu.Lock()
	r.hits++
	r.mu.Unlock()
}

func (r *countingRecorder) CacheMiss(string) {
	r.mu.Lock()
	r.misses++
	r.mu.Unlock()
}

func (r *countingRecorder) CacheInvalidated(_ string, n int) {
	r.mu.Lock()
	r.invalidated += n
	r.mu.Unlock()
}

func (r *countingRecorder) CacheExpired(_ string, n int) {
	r.mu.Lock()
	r.expired += n
	r.mu.Unlock()
}

func TestTTLCache_Expiry(t *testing.T) {
	clock := newFakeClock()
	c := New[string](WithClock(clock.Now))

	c.Set("k", "v", 60*time.Second)

	clock.Advance(59 * time.Second)
	value, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, "v", value)

	clock.Advance(2 * time.Second)
	value, found = c.Get("k")
	assert.False(t, found)
	assert.Empty(t, value)
	assert.Equal(t, 0, c.Len(), "expired entry should be dropped on read")
}

func TestTTLCache_ExpiresExactlyAtDeadline(t *testing.T) {
	clock := newFakeClock()
	c := New[int](WithClock(clock.Now))

	c.Set("k", 1, time.Minute)
	clock.Advance(time.Minute)

	_, found := c.Get("k")
	assert.False(t, found)
}

func TestTTLCache_NonPositiveTTL(t *testing.T) {
	tests := []struct {
		name string
		ttl  time.Duration
	}{
		{name: "Zero TTL", ttl: 0},
		{name: "Negative TTL", ttl: -time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New[int](WithClock(newFakeClock().Now))
			c.Set("k", 1, tt.ttl)

			_, found := c.Get("k")
			assert.False(t, found)
		})
	}
}

func TestTTLCache_SetOverwrites(t *testing.T) {
	clock := newFakeClock()
	c := New[string](WithClock(clock.Now))

	c.Set("k", "old", time.Second)
	c.Set("k", "new", time.Minute)
	clock.Advance(30 * time.Second)

	value, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, "new", value)
}

func TestTTLCache_Invalidate(t *testing.T) {
	c := New[string]()

	c.Set("k", "v", time.Minute)
	c.Invalidate("k")

	_, found := c.Get("k")
	assert.False(t, found)

	// Missing keys are a normal outcome
	assert.NotPanics(t, func() { c.Invalidate("missing") })
}

func TestTTLCache_SetAfterInvalidate(t *testing.T) {
	c := New[string]()

	c.Set("k", "first", time.Minute)
	c.Invalidate("k")
	c.Set("k", "second", time.Minute)

	value, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, "second", value)
}

func TestTTLCache_InvalidateByPrefix(t *testing.T) {
	c := New[string]()

	c.Set("shop:A:products", "x", time.Minute)
	c.Set("shop:A:products:cat:1", "y", time.Minute)
	c.Set("shop:B:products", "z", time.Minute)
	c.Set("shop:AB:products", "w", time.Minute)

	removed := c.InvalidateByPrefix("shop:A:")

	assert.Equal(t, 2, removed)

	_, found := c.Get("shop:A:products")
	assert.False(t, found)
	_, found = c.Get("shop:A:products:cat:1")
	assert.False(t, found)

	value, found := c.Get("shop:B:products")
	require.True(t, found)
	assert.Equal(t, "z", value)

	_, found = c.Get("shop:AB:products")
	assert.True(t, found, "prefix comparison must be literal")
}

func TestTTLCache_InvalidateByPrefix_LiteralMatch(t *testing.T) {
	tests := []struct {
		name     string
		keys     []string
		prefix   string
		expected int
	}{
		{
			name:     "No keys match",
			keys:     []string{"a", "b"},
			prefix:   "c",
			expected: 0,
		},
		{
			name:     "Glob characters are not patterns",
			keys:     []string{"shop:1:products", "shop:*:products"},
			prefix:   "shop:*",
			expected: 1,
		},
		{
			name:     "Empty prefix removes everything",
			keys:     []string{"a", "b", "c"},
			prefix:   "",
			expected: 3,
		},
		{
			name:     "Empty cache",
			keys:     nil,
			prefix:   "shop:",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New[int]()
			for i, key := range tt.keys {
				c.Set(key, i, time.Minute)
			}

			assert.Equal(t, tt.expected, c.InvalidateByPrefix(tt.prefix))
			assert.Equal(t, len(tt.keys)-tt.expected, c.Len())
		})
	}
}

func TestTTLCache_Sweep(t *testing.T) {
	clock := newFakeClock()
	c := New[int](WithClock(clock.Now))

	c.Set("short", 1, time.Second)
	c.Set("long", 2, time.Hour)

	clock.Advance(time.Minute)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())

	_, found := c.Get("long")
	assert.True(t, found)
}

func TestTTLCache_RunJanitor(t *testing.T) {
	c := New[int]()
	c.Set("k", 1, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.RunJanitor(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after context cancellation")
	}
}

func TestTTLCache_RunJanitor_DisabledInterval(t *testing.T) {
	c := New[int]()

	// Returns immediately instead of blocking forever
	c.RunJanitor(context.Background(), 0)
}

func TestTTLCache_Recorder(t *testing.T) {
	clock := newFakeClock()
	rec := &countingRecorder{}
	c := New[int](WithClock(clock.Now), WithRecorder(rec), WithName("test"))

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Second)
	c.Set("shop:1:x", 3, time.Minute)

	c.Get("a")
	c.Get("missing")
	clock.Advance(2 * time.Second)
	c.Get("b")
	c.InvalidateByPrefix("shop:1:")
	c.Invalidate("a")

	assert.Equal(t, 1, rec.hits)
	assert.Equal(t, 2, rec.misses)
	assert.Equal(t, 1, rec.expired)
	assert.Equal(t, 2, rec.invalidated)
}

func TestTTLCache_ConcurrentAccess(t *testing.T) {
	c := New[int]()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := fmt.Sprintf("shop:%d:products:%d", worker%2, i%10)
				c.Set(key, i, time.Minute)
				c.Get(key)
				if i%50 == 0 {
					c.InvalidateByPrefix(fmt.Sprintf("shop:%d:", worker%2))
				}
				if i%75 == 0 {
					c.Invalidate(key)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 20)
}
