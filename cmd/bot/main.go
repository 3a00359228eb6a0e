package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evdnx/gobx/bot"
	"github.com/evdnx/gobx/config"
	"github.com/evdnx/gobx/exchange"
	"github.com/evdnx/gobx/executor"
	"github.com/evdnx/gobx/indicator"
	"github.com/evdnx/gobx/logger"
	"github.com/evdnx/gobx/marketdata"
	"github.com/evdnx/gobx/position"
	"github.com/evdnx/gobx/risk"
	"github.com/evdnx/gobx/store"
)

func main() {
	log, err := logger.NewZapLogger()
	if err != nil {
		os.Stderr.WriteString("logger init failed: " + err.Error() + "\n")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error("config_invalid", logger.Err(err))
		os.Exit(1)
	}

	client := exchange.NewClient(cfg.APIURL, log)

	var exec executor.Executor
	if cfg.SimulationMode {
		exec = executor.NewSimExecutor(log)
	} else {
		exec = executor.NewLiveExecutor(client, log)
	}

	st, err := store.NewFileStore(cfg.DataDir)
	if err != nil {
		log.Error("store_init_failed", logger.String("dir", cfg.DataDir), logger.Err(err))
		os.Exit(1)
	}

	riskMgr := risk.NewManager(risk.Limits{
		MaxPositionSizeUSD: cfg.MaxPositionSizeUSD,
		MaxDailyLossUSD:    cfg.MaxDailyLossUSD,
		MaxDrawdownPercent: cfg.MaxDrawdownPercent,
	}, client, log)
	day := risk.NewDayTracker(cfg.Timezone, time.Now())
	positions := position.NewManager(cfg.Market, cfg.PositionSizeUSD, exec, riskMgr, st, log)

	var trend *indicator.TrendFilter
	if cfg.TrendConfirmation {
		trend, err = indicator.NewTrendFilter(cfg.ATSEMAPeriod)
		if err != nil {
			log.Error("trend_filter_init_failed", logger.Err(err))
			os.Exit(1)
		}
	}

	cache := marketdata.NewCache(time.Duration(cfg.LookbackMinutes) * time.Minute)
	stream := exchange.NewTradeStream(cfg.WSURL, cfg.Market, 256, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go serveMetrics(ctx, cfg.MetricsAddr, log)
	go stream.Run(ctx)

	summary := riskMgr.Summary()
	log.Info("risk_summary",
		logger.Float64("available_balance", summary.AvailableBalance),
		logger.Bool("balance_known", summary.BalanceKnown),
		logger.Float64("daily_pnl", summary.DailyPnL),
		logger.Float64("max_position_size_usd", summary.Limits.MaxPositionSizeUSD),
		logger.Float64("max_daily_loss_usd", summary.Limits.MaxDailyLossUSD),
		logger.Float64("max_drawdown_percent", summary.Limits.MaxDrawdownPercent),
		logger.String("drawdown_status", summary.DrawdownStatus),
		logger.Bool("breaker_active", summary.BreakerActive),
	)

	engine := bot.New(cfg, cache, client, stream.Samples(), riskMgr, day, positions, trend, log)

	// A failed warmup is survivable: the REST poll refills the cache and the
	// evaluator stays on INSUFFICIENT_DATA until then.
	if err := engine.Warmup(ctx); err != nil {
		log.Warn("warmup_failed", logger.Err(err))
	}

	if err := engine.Run(ctx); err != nil {
		log.Error("engine_stopped", logger.Err(err))
		os.Exit(1)
	}
}

func serveMetrics(ctx context.Context, addr string, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics_listening", logger.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("metrics_server_failed", logger.Err(err))
	}
}
