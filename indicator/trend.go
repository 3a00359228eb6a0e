package indicator

import (
	"github.com/evdnx/goti"
)

// TrendFilter is an optional confirmation layer on top of the breakout rule:
// when enabled, an entry also needs a bullish HMA or ATSO crossover from the
// goti suite. Disabled by default so the plain breakout rule stands alone.
type TrendFilter struct {
	suite *goti.IndicatorSuite
}

func NewTrendFilter(atsEMAPeriod int) (*TrendFilter, error) {
	ic := goti.DefaultConfig()
	ic.ATSEMAperiod = atsEMAPeriod
	suite, err := goti.NewIndicatorSuiteWithConfig(ic)
	if err != nil {
		return nil, err
	}
	return &TrendFilter{suite: suite}, nil
}

// Update feeds one bar into the suite. Trade samples carry no separate
// high/low, so the close stands in for both.
func (f *TrendFilter) Update(high, low, close, volume float64) error {
	return f.suite.Add(high, low, close, volume)
}

// Bullish reports whether the suite currently confirms upward momentum.
// Indicator errors (warmup, not enough bars) count as no confirmation.
func (f *TrendFilter) Bullish() bool {
	if ok, err := f.suite.GetHMA().IsBullishCrossover(); err == nil && ok {
		return true
	}
	return f.suite.GetATSO().IsBullishCrossover()
}
