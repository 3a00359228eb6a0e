// Package bot runs the trading loop: ingest market data, evaluate the
// breakout rule, gate through risk, and drive the position lifecycle.
package bot

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/evdnx/gobx/config"
	"github.com/evdnx/gobx/indicator"
	"github.com/evdnx/gobx/logger"
	"github.com/evdnx/gobx/marketdata"
	"github.com/evdnx/gobx/metrics"
	"github.com/evdnx/gobx/position"
	"github.com/evdnx/gobx/risk"
	"github.com/evdnx/gobx/strategy"
	"github.com/evdnx/gobx/types"
)

// shutdownGrace bounds how long a pending order submission is awaited when
// the bot stops, so no position is orphaned with an unknown outcome.
const shutdownGrace = 10 * time.Second

// CandleFeed is the REST warmup/poll slice of the exchange client.
type CandleFeed interface {
	GetCandles(ctx context.Context, market, resolution string, limit int) ([]types.MarketSample, error)
}

// Engine owns the cooperative loop. One goroutine mutates positions and
// risk; the trade stream only feeds the cache through its channel.
type Engine struct {
	cfg       *config.Config
	cache     *marketdata.Cache
	feed      CandleFeed
	samples   <-chan types.MarketSample
	strat     strategy.Breakout
	riskMgr   *risk.Manager
	day       *risk.DayTracker
	positions *position.Manager
	trend     *indicator.TrendFilter // nil unless trend confirmation is on
	log       logger.Logger

	cooldownUntil time.Time
}

func New(cfg *config.Config, cache *marketdata.Cache, feed CandleFeed,
	samples <-chan types.MarketSample, riskMgr *risk.Manager, day *risk.DayTracker,
	positions *position.Manager, trend *indicator.TrendFilter, log logger.Logger) *Engine {

	return &Engine{
		cfg:       cfg,
		cache:     cache,
		feed:      feed,
		samples:   samples,
		strat:     strategy.New(cfg.VolumeFactor, cfg.RiskRewardRatio),
		riskMgr:   riskMgr,
		day:       day,
		positions: positions,
		trend:     trend,
		log:       log,
	}
}

// Warmup seeds the cache with historical candles so the first decision
// cycles are not starved for data.
func (e *Engine) Warmup(ctx context.Context) error {
	samples, err := e.feed.GetCandles(ctx, e.cfg.Market, e.cfg.Timeframe, e.cfg.WarmupCandles)
	if err != nil {
		return err
	}
	for _, s := range samples {
		e.ingest(s)
	}
	e.log.Info("warmup_complete",
		logger.String("market", e.cfg.Market),
		logger.Int("samples", len(samples)))
	return nil
}

// Run executes the loop until ctx is cancelled, then shuts down cleanly.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.UpdateInterval)
	defer ticker.Stop()

	e.log.Info("bot_started",
		logger.String("market", e.cfg.Market),
		logger.String("timeframe", e.cfg.Timeframe),
		logger.Float64("volume_factor", e.cfg.VolumeFactor),
		logger.Int("resistance_period", e.cfg.ResistancePeriod),
		logger.Float64("risk_reward", e.cfg.RiskRewardRatio),
		logger.Float64("position_size_usd", e.cfg.PositionSizeUSD),
		logger.Bool("simulation", e.cfg.SimulationMode))

	for {
		select {
		case <-ctx.Done():
			e.shutdown()
			return nil

		case s, ok := <-e.samples:
			if !ok {
				// Stream gone for good; the REST poll keeps the cache alive.
				e.samples = nil
				continue
			}
			e.ingest(s)

		case now := <-ticker.C:
			e.cycle(ctx, now)
		}
	}
}

func (e *Engine) ingest(s types.MarketSample) {
	e.cache.Append(s)
	if e.trend != nil {
		// Trade samples carry no high/low; the close stands in.
		if err := e.trend.Update(s.Price, s.Price, s.Price, s.VolumeUSD); err != nil {
			e.log.Warn("trend_filter_update_failed", logger.Err(err))
		}
	}
}

// cycle is one decision pass: rollover, data refresh, exit monitoring, and
// (when flat) the breakout entry scan.
func (e *Engine) cycle(ctx context.Context, now time.Time) {
	e.day.RolloverIfNeeded(now, e.riskMgr)
	e.refresh(ctx)

	ind, indErr := indicator.Compute(
		e.cache.Window(e.cfg.ResistancePeriod+1),
		e.cfg.ResistancePeriod, e.cfg.VolumeLookback)

	price := ind.CurrentPrice
	if indErr != nil {
		last, ok := e.cache.Last()
		if !ok {
			return
		}
		price = last.Price
	}

	// Exit conditions are monitored before any new entry is considered.
	if _, active := e.positions.Active(); active {
		reason, hit := e.positions.CheckExit(price)
		if !hit {
			return
		}
		closed, err := e.positions.Close(ctx, price, reason)
		if err != nil {
			e.log.Error("close_failed", logger.String("reason", string(reason)), logger.Err(err))
			return
		}
		e.cooldownUntil = now.Add(e.cfg.CooldownAfterClose)
		e.log.Info("cooldown_started",
			logger.Float64("pnl", closed.PnL),
			logger.String("until", e.cooldownUntil.Format(time.RFC3339)))
		return
	}

	if now.Before(e.cooldownUntil) {
		return
	}

	sig := e.strat.Evaluate(ind, indErr)
	metrics.SignalsEvaluated.WithLabelValues(strings.ToLower(string(sig.Kind))).Inc()
	if sig.Kind != types.SignalBreakout {
		return
	}
	if e.trend != nil && !e.trend.Bullish() {
		e.log.Info("breakout_without_trend_confirmation",
			logger.Float64("price", sig.CurrentPrice),
			logger.Float64("resistance", sig.ResistanceLevel))
		return
	}

	e.log.Info("breakout_detected",
		logger.Float64("price", sig.CurrentPrice),
		logger.Float64("resistance", sig.ResistanceLevel),
		logger.Float64("volume_anomaly", sig.VolumeAnomaly))

	levels, err := e.strat.Levels(sig.CurrentPrice, sig.ResistanceLevel)
	if err != nil {
		e.log.Error("level_calculation_failed", logger.Err(err))
		return
	}
	pos, err := e.positions.Open(ctx, levels.Entry, levels.StopLoss, levels.TakeProfit)
	if err != nil {
		var rej *position.RejectionError
		if errors.As(err, &rej) {
			// Already logged by the lifecycle manager with the gate reason.
			return
		}
		e.log.Error("open_failed", logger.Err(err))
		return
	}
	e.log.Info("entry_levels",
		logger.Float64("entry", levels.Entry),
		logger.Float64("stop_loss", levels.StopLoss),
		logger.Float64("take_profit", levels.TakeProfit),
		logger.Float64("risk", levels.Risk),
		logger.Float64("reward", levels.Reward),
		logger.String("order_id", pos.OrderID))
}

// refresh polls recent candles as a fallback for the stream. Only samples
// newer than the cache head are appended; the cache drops the rest anyway.
func (e *Engine) refresh(ctx context.Context) {
	samples, err := e.feed.GetCandles(ctx, e.cfg.Market, e.cfg.Timeframe, 2)
	if err != nil {
		e.log.Warn("candle_refresh_failed", logger.Err(err))
		return
	}
	last, ok := e.cache.Last()
	for _, s := range samples {
		if !ok || s.Timestamp.After(last.Timestamp) {
			e.ingest(s)
		}
	}
}

// shutdown closes any open position at the last known price so the bot's
// own books never end the day with an unresolved slot.
func (e *Engine) shutdown() {
	if _, active := e.positions.Active(); !active {
		e.log.Info("bot_shutdown_complete")
		return
	}
	last, ok := e.cache.Last()
	if !ok {
		e.log.Error("shutdown_with_open_position_and_no_price")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	for {
		_, err := e.positions.Close(ctx, last.Price, types.ExitShutdown)
		if err == nil {
			break
		}
		// An in-flight submission is awaited rather than abandoned.
		if errors.Is(err, position.ErrSubmissionInFlight) && ctx.Err() == nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		e.log.Error("shutdown_close_failed", logger.Err(err))
		break
	}
	e.log.Info("bot_shutdown_complete")
}
