// Package indicator turns a sample window into the derived values the
// breakout rule consumes: resistance level, average volume and the volume
// anomaly ratio.
package indicator

import (
	"errors"

	"github.com/evdnx/gobx/types"
)

// ErrInsufficientData signals that the window is too short (or the volume
// baseline degenerate) to produce indicators this cycle. Non-fatal: callers
// retry on the next cycle.
var ErrInsufficientData = errors.New("insufficient market data")

// Compute derives indicators from the most recent samples.
//
// Resistance is the max price over the last resistancePeriod samples that
// precede the newest one; the bar being evaluated must not be its own
// resistance, or a breakout above the prior high could never register. The
// anomaly ratio likewise divides the newest sample's volume by the mean of
// the preceding volumes; volumeLookback > 0 caps that baseline to the most
// recent N preceding samples.
func Compute(samples []types.MarketSample, resistancePeriod, volumeLookback int) (types.Indicators, error) {
	if len(samples) < resistancePeriod || len(samples) < 2 {
		return types.Indicators{}, ErrInsufficientData
	}

	preceding := samples[:len(samples)-1]
	window := preceding
	if len(window) > resistancePeriod {
		window = window[len(window)-resistancePeriod:]
	}
	resistance := window[0].Price
	for _, s := range window[1:] {
		if s.Price > resistance {
			resistance = s.Price
		}
	}

	baseline := preceding
	if volumeLookback > 0 && len(baseline) > volumeLookback {
		baseline = baseline[len(baseline)-volumeLookback:]
	}
	var sum float64
	for _, s := range baseline {
		sum += s.VolumeUSD
	}
	avg := sum / float64(len(baseline))
	if avg <= 0 {
		// Division by a zero baseline is undefined, not an anomaly of +Inf.
		return types.Indicators{}, ErrInsufficientData
	}

	last := samples[len(samples)-1]
	return types.Indicators{
		ResistanceLevel: resistance,
		AverageVolume:   avg,
		VolumeAnomaly:   last.VolumeUSD / avg,
		CurrentPrice:    last.Price,
	}, nil
}

// BestPrice picks the first positive price in priority order: oracle price,
// index price, order-book mid, last trade.
func BestPrice(oracle, index, mid, lastTrade float64) float64 {
	for _, p := range []float64{oracle, index, mid, lastTrade} {
		if p > 0 {
			return p
		}
	}
	return 0
}
