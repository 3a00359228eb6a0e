// Package position owns the single active position slot and its lifecycle:
// NONE → OPEN → CLOSED → NONE. Open and Close are transactional with respect
// to the in-memory slot: a failed submission leaves it untouched.
package position

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/evdnx/gobx/executor"
	"github.com/evdnx/gobx/logger"
	"github.com/evdnx/gobx/metrics"
	"github.com/evdnx/gobx/types"
)

var (
	// ErrPositionOpen means a second open was attempted while a position is
	// live. This is a caller bug, not a market condition.
	ErrPositionOpen = errors.New("a position is already open")

	// ErrNoPosition means close was called with an empty slot.
	ErrNoPosition = errors.New("no active position to close")

	// ErrSubmissionInFlight rejects a reentrant open/close while an order
	// submission is still being awaited.
	ErrSubmissionInFlight = errors.New("an order submission is in flight")

	// ErrZeroRisk guards opening with a stop loss at or above entry.
	ErrZeroRisk = errors.New("stop loss at or above entry price")
)

// RejectionError carries the human-readable reason a risk gate refused the
// trade. Non-fatal: the position simply does not open.
type RejectionError struct {
	Gate   string
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("risk gate %s rejected trade: %s", e.Gate, e.Reason)
}

// RiskGate is the slice of the risk manager the lifecycle needs.
type RiskGate interface {
	CheckCircuitBreaker() (bool, string)
	ValidatePositionSize(sizeUSD float64) (bool, string)
	ValidateDailyLoss(potentialLossUSD float64) (bool, string)
	UpdateDailyPnL(pnl float64)
}

// Store receives completed trades and open-position snapshots. Failures are
// logged, never propagated: persistence must not roll back an in-memory
// state transition.
type Store interface {
	SaveTrade(p types.Position) error
	SavePosition(p types.Position) error
}

// Manager holds the one position slot.
type Manager struct {
	market  string
	sizeUSD float64
	exec    executor.Executor
	risk    RiskGate
	store   Store
	log     logger.Logger

	mu       sync.Mutex
	slot     *types.Position
	inFlight bool

	now func() time.Time
}

func NewManager(market string, sizeUSD float64, exec executor.Executor, risk RiskGate, store Store, log logger.Logger) *Manager {
	return &Manager{
		market:  market,
		sizeUSD: sizeUSD,
		exec:    exec,
		risk:    risk,
		store:   store,
		log:     log,
		now:     time.Now,
	}
}

// Active returns a copy of the open position, if any.
func (m *Manager) Active() (types.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slot == nil {
		return types.Position{}, false
	}
	return *m.slot, true
}

// Open runs the risk gates, submits a market BUY and, on fill, transitions
// the slot to OPEN. Any failure along the way leaves the slot at NONE.
func (m *Manager) Open(ctx context.Context, entryPrice, stopLoss, takeProfit float64) (types.Position, error) {
	if entryPrice <= 0 {
		return types.Position{}, fmt.Errorf("invalid entry price %v", entryPrice)
	}
	if entryPrice-stopLoss <= 0 {
		return types.Position{}, ErrZeroRisk
	}

	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return types.Position{}, ErrSubmissionInFlight
	}
	if m.slot != nil {
		m.mu.Unlock()
		return types.Position{}, ErrPositionOpen
	}
	m.inFlight = true
	m.mu.Unlock()
	defer m.clearInFlight()

	size := m.sizeUSD / entryPrice

	if stop, reason := m.risk.CheckCircuitBreaker(); stop {
		m.log.Warn("circuit_breaker_triggered", logger.String("reason", reason))
		return types.Position{}, &RejectionError{Gate: "circuit_breaker", Reason: reason}
	}
	if ok, reason := m.risk.ValidatePositionSize(m.sizeUSD); !ok {
		m.log.Warn("position_size_rejected", logger.String("reason", reason))
		return types.Position{}, &RejectionError{Gate: "position_size", Reason: reason}
	}
	potentialLoss := -(entryPrice - stopLoss) * size
	if ok, reason := m.risk.ValidateDailyLoss(potentialLoss); !ok {
		m.log.Warn("daily_loss_rejected", logger.String("reason", reason))
		return types.Position{}, &RejectionError{Gate: "daily_loss", Reason: reason}
	}

	order, err := types.NewOrder(m.market, types.Buy, size, types.Market, entryPrice, false)
	if err != nil {
		return types.Position{}, err
	}
	fill, err := m.exec.PlaceOrder(ctx, order)
	if err != nil {
		metrics.OrdersFailed.WithLabelValues("open_long").Inc()
		return types.Position{}, fmt.Errorf("open position: %w", err)
	}
	if !fill.Filled() {
		metrics.OrdersFailed.WithLabelValues("open_long").Inc()
		return types.Position{}, fmt.Errorf("open position: order status %q", fill.Status)
	}
	metrics.OrdersSubmitted.WithLabelValues("open_long").Inc()

	pos := types.Position{
		Market:     m.market,
		Side:       "LONG",
		EntryPrice: entryPrice,
		Size:       size,
		SizeUSD:    m.sizeUSD,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Status:     types.StatusOpen,
		OrderID:    fill.OrderID,
		OpenedAt:   m.now(),
	}

	m.mu.Lock()
	m.slot = &pos
	m.mu.Unlock()
	metrics.PositionOpen.Set(1)

	if err := m.store.SavePosition(pos); err != nil {
		m.log.Error("save_position_failed", logger.Err(err))
	}
	m.log.Info("position_opened",
		logger.String("market", pos.Market),
		logger.Float64("entry", pos.EntryPrice),
		logger.Float64("size", pos.Size),
		logger.Float64("stop_loss", pos.StopLoss),
		logger.Float64("take_profit", pos.TakeProfit),
		logger.String("order_id", pos.OrderID),
	)
	return pos, nil
}

// CheckExit reports whether the current price triggers an exit. Pure read.
// Stop loss is evaluated before take profit: when a price gap satisfies
// both, the stop wins (policy choice, see DESIGN.md).
func (m *Manager) CheckExit(currentPrice float64) (types.ExitReason, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slot == nil {
		return "", false
	}
	if currentPrice <= m.slot.StopLoss {
		return types.ExitStopLoss, true
	}
	if currentPrice >= m.slot.TakeProfit {
		return types.ExitTakeProfit, true
	}
	return "", false
}

// Close submits a reduce-only market SELL, realizes the P&L, notifies the
// risk manager and clears the slot. The CLOSED record is handed to the store
// rather than retained in the live slot.
func (m *Manager) Close(ctx context.Context, exitPrice float64, reason types.ExitReason) (types.Position, error) {
	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return types.Position{}, ErrSubmissionInFlight
	}
	if m.slot == nil {
		m.mu.Unlock()
		return types.Position{}, ErrNoPosition
	}
	open := *m.slot
	m.inFlight = true
	m.mu.Unlock()
	defer m.clearInFlight()

	order, err := types.NewOrder(m.market, types.Sell, open.Size, types.Market, exitPrice, true)
	if err != nil {
		return types.Position{}, err
	}
	fill, err := m.exec.PlaceOrder(ctx, order)
	if err != nil {
		metrics.OrdersFailed.WithLabelValues("close_long").Inc()
		return types.Position{}, fmt.Errorf("close position: %w", err)
	}
	if !fill.Filled() {
		metrics.OrdersFailed.WithLabelValues("close_long").Inc()
		return types.Position{}, fmt.Errorf("close position: order status %q", fill.Status)
	}
	metrics.OrdersSubmitted.WithLabelValues("close_long").Inc()

	pnl := (exitPrice - open.EntryPrice) * open.Size
	closed := open
	closed.Status = types.StatusClosed
	closed.ExitPrice = exitPrice
	closed.ExitReason = reason
	closed.PnL = pnl
	closed.PnLPercent = pnl / open.SizeUSD * 100
	closed.ClosedAt = m.now()

	m.mu.Lock()
	m.slot = nil
	m.mu.Unlock()
	metrics.PositionOpen.Set(0)

	if err := m.store.SaveTrade(closed); err != nil {
		m.log.Error("save_trade_failed", logger.Err(err))
	}
	m.risk.UpdateDailyPnL(pnl)

	m.log.Info("position_closed",
		logger.String("market", closed.Market),
		logger.String("reason", string(reason)),
		logger.Float64("exit", exitPrice),
		logger.Float64("pnl", closed.PnL),
		logger.Float64("pnl_percent", closed.PnLPercent),
	)
	return closed, nil
}

func (m *Manager) clearInFlight() {
	m.mu.Lock()
	m.inFlight = false
	m.mu.Unlock()
}
