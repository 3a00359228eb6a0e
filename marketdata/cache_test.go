package marketdata

import (
	"sync"
	"testing"
	"time"

	"github.com/evdnx/gobx/types"
)

func sample(ts time.Time, price, vol float64) types.MarketSample {
	return types.MarketSample{Timestamp: ts, Price: price, VolumeUSD: vol}
}

func TestWindowReturnsMostRecent(t *testing.T) {
	c := NewCache(time.Hour)
	base := time.Now()
	for i := 0; i < 10; i++ {
		c.Append(sample(base.Add(time.Duration(i)*time.Second), float64(100+i), 1))
	}

	w := c.Window(3)
	if len(w) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(w))
	}
	if w[0].Price != 107 || w[2].Price != 109 {
		t.Fatalf("unexpected window contents: %+v", w)
	}
}

func TestWindowShorterThanRequested(t *testing.T) {
	c := NewCache(time.Hour)
	c.Append(sample(time.Now(), 100, 1))

	if got := len(c.Window(5)); got != 1 {
		t.Fatalf("expected 1 sample, got %d", got)
	}
	if got := len(c.Window(0)); got != 0 {
		t.Fatalf("expected empty window, got %d", got)
	}
}

func TestTimeEviction(t *testing.T) {
	c := NewCache(10 * time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.Append(sample(now.Add(-15*time.Minute), 100, 1))
	c.Append(sample(now.Add(-5*time.Minute), 101, 1))
	c.Append(sample(now, 102, 1))

	if c.Len() != 2 {
		t.Fatalf("expected stale sample evicted, len=%d", c.Len())
	}
	w := c.Window(2)
	if w[0].Price != 101 {
		t.Fatalf("oldest surviving sample should be 101, got %v", w[0].Price)
	}
}

func TestLateSampleDropped(t *testing.T) {
	c := NewCache(time.Hour)
	now := time.Now()
	c.Append(sample(now, 100, 1))
	c.Append(sample(now.Add(-time.Minute), 99, 1)) // late delivery

	if c.Len() != 1 {
		t.Fatalf("late sample should be dropped, len=%d", c.Len())
	}
	last, ok := c.Last()
	if !ok || last.Price != 100 {
		t.Fatalf("unexpected last sample: %+v", last)
	}
}

func TestConcurrentProducers(t *testing.T) {
	c := NewCache(time.Hour)
	base := time.Now()

	var wg sync.WaitGroup
	for p := 0; p < 2; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				c.Append(sample(base.Add(time.Duration(i)*time.Millisecond), 100, 1))
			}
		}()
	}
	wg.Wait()

	// Ordering must survive the race: timestamps never decrease.
	w := c.Window(c.Len())
	for i := 1; i < len(w); i++ {
		if w[i].Timestamp.Before(w[i-1].Timestamp) {
			t.Fatalf("out-of-order samples at %d", i)
		}
	}
}
