package risk

import (
	"time"

	"github.com/evdnx/gobx/logger"
)

// DayTracker anchors the trading day to local midnight in a configured
// timezone and drives the daily reset of the risk state.
type DayTracker struct {
	loc     *time.Location
	dayOpen time.Time
}

func NewDayTracker(tz string, now time.Time) *DayTracker {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return &DayTracker{loc: loc, dayOpen: dayOpen(loc, now)}
}

// dayOpen returns local midnight for now in loc.
func dayOpen(loc *time.Location, now time.Time) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// RolloverIfNeeded resets the manager's daily P&L and re-seeds the drawdown
// baseline when the trading-day boundary has been crossed. Call once per
// decision cycle; returns true when a new day started.
func (d *DayTracker) RolloverIfNeeded(now time.Time, m *Manager) bool {
	open := dayOpen(d.loc, now)
	if open.Equal(d.dayOpen) {
		return false
	}
	d.dayOpen = open

	m.ResetDailyPnL()
	if balance, err := m.balance.AvailableBalance(); err == nil {
		m.reseedBaseline(balance)
		m.log.Info("trading_day_started",
			logger.String("day_open", open.Format(time.RFC3339)),
			logger.Float64("equity_open", balance))
	} else {
		// Baseline stays stale until the next successful balance read.
		m.log.Warn("trading_day_started_without_balance",
			logger.String("day_open", open.Format(time.RFC3339)), logger.Err(err))
	}
	return true
}
