package types

import (
	"fmt"
	"time"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type OrderType string

const (
	Market OrderType = "MARKET"
	Limit  OrderType = "LIMIT"
)

// Order is a validated order request. Build it with NewOrder so an invalid
// side or type is rejected before it ever reaches an executor.
type Order struct {
	Market     string
	Side       Side
	Size       float64
	Type       OrderType
	Price      float64 // limit price; 0 = market
	ReduceOnly bool
}

func NewOrder(market string, side Side, size float64, typ OrderType, price float64, reduceOnly bool) (Order, error) {
	if market == "" {
		return Order{}, fmt.Errorf("order: empty market")
	}
	if side != Buy && side != Sell {
		return Order{}, fmt.Errorf("order: invalid side %q", side)
	}
	if typ != Market && typ != Limit {
		return Order{}, fmt.Errorf("order: invalid type %q", typ)
	}
	if size <= 0 {
		return Order{}, fmt.Errorf("order: size must be positive, got %v", size)
	}
	if typ == Limit && price <= 0 {
		return Order{}, fmt.Errorf("order: limit order needs a positive price")
	}
	return Order{Market: market, Side: side, Size: size, Type: typ, Price: price, ReduceOnly: reduceOnly}, nil
}

// Fill is the executor's report for a submitted order.
type Fill struct {
	OrderID    string
	Status     string // "FILLED" or anything else = failure
	FilledSize float64
	Price      float64
	Simulated  bool
}

func (f Fill) Filled() bool { return f.Status == "FILLED" }

// MarketSample is one price/volume observation in arrival order.
type MarketSample struct {
	Timestamp time.Time
	Price     float64
	VolumeUSD float64
}

// Indicators is the per-cycle derived view of the sample window.
type Indicators struct {
	ResistanceLevel float64
	AverageVolume   float64
	VolumeAnomaly   float64
	CurrentPrice    float64
}

type SignalKind string

const (
	SignalNeutral          SignalKind = "NEUTRAL"
	SignalBreakout         SignalKind = "BREAKOUT"
	SignalInsufficientData SignalKind = "INSUFFICIENT_DATA"
)

// Signal is the evaluator's verdict for one cycle. Ephemeral, never stored.
type Signal struct {
	Kind            SignalKind
	CurrentPrice    float64
	ResistanceLevel float64
	VolumeAnomaly   float64
}

type PositionStatus string

const (
	StatusOpen   PositionStatus = "OPEN"
	StatusClosed PositionStatus = "CLOSED"
)

type ExitReason string

const (
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
	ExitShutdown   ExitReason = "bot_shutdown"
)

// Position holds the single active position's state. Side is always LONG;
// shorts are not implemented.
type Position struct {
	Market     string         `json:"market"`
	Side       string         `json:"side"`
	EntryPrice float64        `json:"entry_price"`
	Size       float64        `json:"size"`
	SizeUSD    float64        `json:"size_usd"`
	StopLoss   float64        `json:"stop_loss"`
	TakeProfit float64        `json:"take_profit"`
	Status     PositionStatus `json:"status"`
	OrderID    string         `json:"order_id"`
	OpenedAt   time.Time      `json:"opened_at"`

	// Populated on close.
	ExitPrice  float64    `json:"exit_price,omitempty"`
	ExitReason ExitReason `json:"exit_reason,omitempty"`
	PnL        float64    `json:"pnl,omitempty"`
	PnLPercent float64    `json:"pnl_percent,omitempty"`
	ClosedAt   time.Time  `json:"closed_at,omitempty"`
}
