// Package marketdata maintains the rolling window of price/volume samples
// that feeds the indicator calculator. Both the streaming trade feed and the
// REST poll fallback append into the same cache.
package marketdata

import (
	"sync"
	"time"

	"github.com/evdnx/gobx/types"
)

// Cache keeps samples in arrival order, bounded by a time-based lookback.
// Append is a single critical section so the two producers (stream push and
// REST poll) can never interleave a partial sample.
type Cache struct {
	mu       sync.Mutex
	lookback time.Duration
	samples  []types.MarketSample

	now func() time.Time // injectable for tests
}

func NewCache(lookback time.Duration) *Cache {
	return &Cache{
		lookback: lookback,
		now:      time.Now,
	}
}

// Append inserts one sample then evicts everything older than now-lookback.
// Samples older than the newest retained timestamp are dropped: the live
// feed is chronological and a late network delivery must not break ordering.
func (c *Cache) Append(s types.MarketSample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := len(c.samples); n > 0 && s.Timestamp.Before(c.samples[n-1].Timestamp) {
		return
	}
	c.samples = append(c.samples, s)

	cutoff := c.now().Add(-c.lookback)
	evict := 0
	for evict < len(c.samples) && c.samples[evict].Timestamp.Before(cutoff) {
		evict++
	}
	if evict > 0 {
		c.samples = append(c.samples[:0:0], c.samples[evict:]...)
	}
}

// Window returns the most recent n samples (or fewer if the cache holds
// less). The slice is a copy; callers must check its length themselves.
func (c *Cache) Window(n int) []types.MarketSample {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n > len(c.samples) {
		n = len(c.samples)
	}
	out := make([]types.MarketSample, n)
	copy(out, c.samples[len(c.samples)-n:])
	return out
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}

// Last returns the most recent sample, if any.
func (c *Cache) Last() (types.MarketSample, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.samples) == 0 {
		return types.MarketSample{}, false
	}
	return c.samples[len(c.samples)-1], true
}
