package indicator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/evdnx/gobx/types"
)

func series(prices, volumes []float64) []types.MarketSample {
	base := time.Now()
	out := make([]types.MarketSample, len(prices))
	for i := range prices {
		out[i] = types.MarketSample{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Price:     prices[i],
			VolumeUSD: volumes[i],
		}
	}
	return out
}

func flat(n int, price, volume float64) ([]float64, []float64) {
	p := make([]float64, n)
	v := make([]float64, n)
	for i := range p {
		p[i] = price
		v[i] = volume
	}
	return p, v
}

func TestComputeInsufficientData(t *testing.T) {
	prices, volumes := flat(5, 100, 10)
	_, err := Compute(series(prices, volumes), 10, 0)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}

	// A single sample can never form a volume baseline.
	_, err = Compute(series([]float64{100}, []float64{10}), 1, 0)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for len<2, got %v", err)
	}
}

func TestResistanceIsWindowMax(t *testing.T) {
	prices := []float64{100, 105, 103, 110, 102, 104}
	_, volumes := flat(len(prices), 0, 10)
	ind, err := Compute(series(prices, volumes), 4, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Window is the last 4 preceding prices: 105, 103, 110, 102.
	if ind.ResistanceLevel != 110 {
		t.Fatalf("expected resistance 110, got %v", ind.ResistanceLevel)
	}
	for _, p := range prices[1:5] {
		if ind.ResistanceLevel < p {
			t.Fatalf("resistance %v below window price %v", ind.ResistanceLevel, p)
		}
	}
	if ind.CurrentPrice != 104 {
		t.Fatalf("expected current price 104, got %v", ind.CurrentPrice)
	}
}

func TestAnomalyExcludesNewestSample(t *testing.T) {
	prices, volumes := flat(25, 2000, 100)
	volumes[24] = 400
	ind, err := Compute(series(prices, volumes), 24, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Baseline mean over the 24 preceding volumes is 100, not skewed by 400.
	if ind.AverageVolume != 100 {
		t.Fatalf("expected baseline 100, got %v", ind.AverageVolume)
	}
	if ind.VolumeAnomaly != 4.0 {
		t.Fatalf("expected anomaly 4.0, got %v", ind.VolumeAnomaly)
	}
}

func TestAnomalyMonotonicInNewestVolume(t *testing.T) {
	prices, volumes := flat(10, 100, 50)
	prev := 0.0
	for i, v := range []float64{10, 60, 200, 1000} {
		volumes[9] = v
		ind, err := Compute(series(prices, volumes), 5, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if i > 0 && ind.VolumeAnomaly <= prev {
			t.Fatalf("anomaly not strictly increasing: %v after %v", ind.VolumeAnomaly, prev)
		}
		prev = ind.VolumeAnomaly
	}
}

func TestZeroVolumeBaselineIsUndefined(t *testing.T) {
	prices, volumes := flat(10, 100, 0)
	volumes[9] = 500
	_, err := Compute(series(prices, volumes), 5, 0)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData for zero baseline, got %v", err)
	}
}

func TestVolumeLookbackCapsBaseline(t *testing.T) {
	prices, volumes := flat(10, 100, 10)
	// Old heavy volumes that a capped baseline must ignore.
	volumes[0], volumes[1] = 1000, 1000
	volumes[9] = 40
	ind, err := Compute(series(prices, volumes), 5, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Baseline = volumes[5:9] = 10 each.
	if math.Abs(ind.VolumeAnomaly-4.0) > 1e-9 {
		t.Fatalf("expected anomaly 4.0 with capped baseline, got %v", ind.VolumeAnomaly)
	}
}

func TestBestPriceFallbackChain(t *testing.T) {
	if got := BestPrice(0, 0, 1999.5, 2001); got != 1999.5 {
		t.Fatalf("expected order-book mid, got %v", got)
	}
	if got := BestPrice(2000, 1998, 1999.5, 2001); got != 2000 {
		t.Fatalf("expected oracle price, got %v", got)
	}
	if got := BestPrice(0, 0, 0, 0); got != 0 {
		t.Fatalf("expected 0 when nothing available, got %v", got)
	}
}
