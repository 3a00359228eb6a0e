package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	SignalsEvaluated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gobx_signals_evaluated_total",
			Help: "Signal evaluations by verdict (breakout/neutral/insufficient_data).",
		},
		[]string{"verdict"},
	)

	OrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gobx_orders_submitted_total",
			Help: "Orders handed to the executor (by context).",
		},
		[]string{"ctx"},
	)

	OrdersFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gobx_orders_failed_total",
			Help: "Order submissions that came back unfilled or errored.",
		},
		[]string{"ctx"},
	)

	RiskRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gobx_risk_rejections_total",
			Help: "Trades blocked by a risk gate (by gate name).",
		},
		[]string{"gate"},
	)

	PositionOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gobx_position_open",
			Help: "1 while a position is open, 0 otherwise.",
		},
	)

	DailyPnL = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gobx_daily_pnl_usd",
			Help: "Cumulative realized P&L for the current trading day.",
		},
	)

	EquityGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gobx_equity_usd",
			Help: "Last known account equity (paper or live).",
		},
	)

	CircuitBreaker = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "gobx_circuit_breaker",
			Help: "1 while the risk circuit breaker blocks new entries.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		SignalsEvaluated, OrdersSubmitted, OrdersFailed, RiskRejections,
		PositionOpen, DailyPnL, EquityGauge, CircuitBreaker,
	)
}
