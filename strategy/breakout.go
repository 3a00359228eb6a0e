// Package strategy implements the breakout-with-volume-confirmation decision
// rule: price closing above the recent resistance high while volume runs a
// configurable multiple above its baseline.
package strategy

import (
	"errors"

	"github.com/evdnx/gobx/types"
)

// ErrZeroRisk means the stop loss sits at or above the entry price, so the
// per-trade risk is zero or negative. That is a caller bug, not a market
// condition, and it fails loudly.
var ErrZeroRisk = errors.New("stop loss at or above entry price")

// stopLossOffset places the stop 1% below the broken resistance. A fixed
// heuristic, not derived from volatility.
const stopLossOffset = 0.99

// Breakout is a stateless evaluator: same inputs, same verdict, no side
// effects. It is re-run fresh on every decision cycle.
type Breakout struct {
	VolumeFactor float64
	RiskReward   float64
}

func New(volumeFactor, riskReward float64) Breakout {
	return Breakout{VolumeFactor: volumeFactor, RiskReward: riskReward}
}

// Evaluate maps the indicator snapshot to a signal verdict. indErr carries
// the indicator calculator's data-insufficiency result through unchanged.
// Both comparisons are strict: price equal to resistance, or anomaly equal
// to the factor, stays NEUTRAL.
func (b Breakout) Evaluate(ind types.Indicators, indErr error) types.Signal {
	if indErr != nil {
		return types.Signal{Kind: types.SignalInsufficientData}
	}
	sig := types.Signal{
		Kind:            types.SignalNeutral,
		CurrentPrice:    ind.CurrentPrice,
		ResistanceLevel: ind.ResistanceLevel,
		VolumeAnomaly:   ind.VolumeAnomaly,
	}
	if ind.CurrentPrice > ind.ResistanceLevel && ind.VolumeAnomaly > b.VolumeFactor {
		sig.Kind = types.SignalBreakout
	}
	return sig
}

// Levels holds the computed entry/exit prices for a breakout entry.
type Levels struct {
	Entry      float64
	StopLoss   float64
	TakeProfit float64
	Risk       float64
	Reward     float64
}

// Levels derives stop loss and take profit from the broken resistance:
// SL = resistance × 0.99, TP = entry + risk × riskReward.
func (b Breakout) Levels(entry, resistance float64) (Levels, error) {
	sl := resistance * stopLossOffset
	risk := entry - sl
	if risk <= 0 {
		return Levels{}, ErrZeroRisk
	}
	return Levels{
		Entry:      entry,
		StopLoss:   sl,
		TakeProfit: entry + risk*b.RiskReward,
		Risk:       risk,
		Reward:     risk * b.RiskReward,
	}, nil
}
