// Package risk gates every prospective trade against position-size, balance,
// daily-loss and drawdown limits, and tracks cumulative daily P&L.
package risk

import (
	"fmt"
	"math"
	"sync"

	"github.com/evdnx/gobx/logger"
	"github.com/evdnx/gobx/metrics"
)

// marginBuffer is the fixed policy multiple of balance required per position.
const marginBuffer = 2.0

// BalanceSource reports the account's available balance in USD. A failure
// means "unable to determine", never a crash: callers degrade to rejecting
// the trade.
type BalanceSource interface {
	AvailableBalance() (float64, error)
}

// Limits is the static risk configuration.
type Limits struct {
	MaxPositionSizeUSD float64
	MaxDailyLossUSD    float64
	MaxDrawdownPercent float64
}

// Manager owns the mutable risk state. All mutations are serialized; the
// balance source is only consulted outside the lock.
type Manager struct {
	limits  Limits
	balance BalanceSource
	log     logger.Logger

	mu             sync.Mutex
	dailyPnL       float64
	initialBalance float64
}

func NewManager(limits Limits, balance BalanceSource, log logger.Logger) *Manager {
	return &Manager{limits: limits, balance: balance, log: log}
}

// ValidatePositionSize checks the requested size against the hard cap and
// the 2x margin buffer.
func (m *Manager) ValidatePositionSize(sizeUSD float64) (bool, string) {
	if sizeUSD > m.limits.MaxPositionSizeUSD {
		metrics.RiskRejections.WithLabelValues("position_size").Inc()
		return false, fmt.Sprintf("position size $%.2f exceeds maximum $%.2f",
			sizeUSD, m.limits.MaxPositionSizeUSD)
	}

	balance, err := m.balance.AvailableBalance()
	if err != nil {
		metrics.RiskRejections.WithLabelValues("position_size").Inc()
		return false, "unable to retrieve account balance"
	}
	metrics.EquityGauge.Set(balance)

	required := sizeUSD * marginBuffer
	if balance < required {
		metrics.RiskRejections.WithLabelValues("position_size").Inc()
		return false, fmt.Sprintf("insufficient balance: required $%.2f, available $%.2f",
			required, balance)
	}
	return true, "position size validated"
}

// ValidateDailyLoss rejects a trade whose worst case would push the day's
// cumulative P&L past the daily limit.
func (m *Manager) ValidateDailyLoss(potentialLossUSD float64) (bool, string) {
	m.mu.Lock()
	projected := m.dailyPnL + potentialLossUSD
	m.mu.Unlock()

	if math.Abs(projected) > m.limits.MaxDailyLossUSD {
		metrics.RiskRejections.WithLabelValues("daily_loss").Inc()
		return false, fmt.Sprintf("daily loss limit would be exceeded: current $%.2f, projected $%.2f",
			m.DailyPnL(), projected)
	}
	return true, "daily loss within limits"
}

// ValidateDrawdown compares the current balance against the baseline captured
// on the first call. The baseline is never auto-refreshed afterwards (only a
// day rollover re-seeds it), so a deposit or withdrawal mid-day skews the
// percentage; see DESIGN.md.
func (m *Manager) ValidateDrawdown() (bool, string) {
	initial := m.initialBalanceLazy()
	current, err := m.balance.AvailableBalance()
	if err != nil || initial == 0 {
		return true, "unable to calculate drawdown"
	}
	metrics.EquityGauge.Set(current)

	drawdown := (initial - current) / initial * 100
	if drawdown > m.limits.MaxDrawdownPercent {
		metrics.RiskRejections.WithLabelValues("drawdown").Inc()
		return false, fmt.Sprintf("drawdown %.2f%% exceeds maximum %.2f%%",
			drawdown, m.limits.MaxDrawdownPercent)
	}
	return true, fmt.Sprintf("drawdown %.2f%% within limits", drawdown)
}

// CheckCircuitBreaker combines the daily-loss and drawdown limits into one
// go/no-go pre-flight check before any new position is opened.
func (m *Manager) CheckCircuitBreaker() (bool, string) {
	if pnl := m.DailyPnL(); math.Abs(pnl) > m.limits.MaxDailyLossUSD {
		metrics.CircuitBreaker.Set(1)
		return true, fmt.Sprintf("daily loss limit exceeded: $%.2f", pnl)
	}
	if ok, reason := m.ValidateDrawdown(); !ok {
		metrics.CircuitBreaker.Set(1)
		return true, "drawdown limit exceeded: " + reason
	}
	metrics.CircuitBreaker.Set(0)
	return false, "all risk checks passed"
}

// UpdateDailyPnL accumulates realized P&L into the daily counter.
func (m *Manager) UpdateDailyPnL(pnl float64) {
	m.mu.Lock()
	m.dailyPnL += pnl
	total := m.dailyPnL
	m.mu.Unlock()

	metrics.DailyPnL.Set(total)
	m.log.Info("daily_pnl_updated", logger.Float64("pnl", pnl), logger.Float64("daily_pnl", total))
}

// ResetDailyPnL zeroes the counter. Caller-driven, e.g. on day rollover.
func (m *Manager) ResetDailyPnL() {
	m.mu.Lock()
	m.dailyPnL = 0
	m.mu.Unlock()

	metrics.DailyPnL.Set(0)
	m.log.Info("daily_pnl_reset")
}

func (m *Manager) DailyPnL() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dailyPnL
}

// Summary is a point-in-time view of the risk state for logging.
type Summary struct {
	AvailableBalance float64
	BalanceKnown     bool
	DailyPnL         float64
	Limits           Limits
	DrawdownStatus   string
	BreakerActive    bool
}

func (m *Manager) Summary() Summary {
	balance, err := m.balance.AvailableBalance()
	_, ddReason := m.ValidateDrawdown()
	stop, _ := m.CheckCircuitBreaker()
	return Summary{
		AvailableBalance: balance,
		BalanceKnown:     err == nil,
		DailyPnL:         m.DailyPnL(),
		Limits:           m.limits,
		DrawdownStatus:   ddReason,
		BreakerActive:    stop,
	}
}

func (m *Manager) initialBalanceLazy() float64 {
	m.mu.Lock()
	captured := m.initialBalance
	m.mu.Unlock()
	if captured != 0 {
		return captured
	}

	balance, err := m.balance.AvailableBalance()
	if err != nil {
		return 0
	}
	m.mu.Lock()
	if m.initialBalance == 0 {
		m.initialBalance = balance
		captured = balance
	} else {
		captured = m.initialBalance
	}
	m.mu.Unlock()

	m.log.Warn("drawdown_baseline_captured", logger.Float64("initial_balance", captured))
	return captured
}

// reseedBaseline replaces the drawdown baseline. Used by the day rollover.
func (m *Manager) reseedBaseline(balance float64) {
	m.mu.Lock()
	m.initialBalance = balance
	m.mu.Unlock()
}

// SizeByRisk converts equity and per-trade risk appetite into a position
// size in base units, capped at the configured max notional. Rounded down to
// 4 decimal places, the market's size precision.
func SizeByRisk(equity, maxRiskPerTrade, entry, stopLoss, maxNotionalUSD float64) float64 {
	dist := entry - stopLoss
	if dist <= 0 || entry <= 0 {
		return 0
	}
	qty := equity * maxRiskPerTrade / dist
	if maxQty := maxNotionalUSD / entry; qty > maxQty {
		qty = maxQty
	}
	return math.Floor(qty*10000) / 10000
}
