// Package executor is the order-submission boundary. The core treats a
// submission as a single attempt that either fills or fails; retries belong
// to the transport layer, not here.
package executor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/evdnx/gobx/logger"
	"github.com/evdnx/gobx/types"
)

type Executor interface {
	PlaceOrder(ctx context.Context, o types.Order) (types.Fill, error)
}

// SimExecutor never touches the exchange: every order "fills" instantly at
// the requested price. This is the simulationMode=true path.
type SimExecutor struct {
	log logger.Logger
	seq atomic.Int64
}

func NewSimExecutor(log logger.Logger) *SimExecutor {
	return &SimExecutor{log: log}
}

func (s *SimExecutor) PlaceOrder(_ context.Context, o types.Order) (types.Fill, error) {
	id := fmt.Sprintf("sim_%d_%d", time.Now().Unix(), s.seq.Add(1))
	s.log.Info("simulated_order",
		logger.String("order_id", id),
		logger.String("market", o.Market),
		logger.String("side", string(o.Side)),
		logger.Float64("size", o.Size),
		logger.Float64("price", o.Price),
		logger.Bool("reduce_only", o.ReduceOnly),
	)
	return types.Fill{
		OrderID:    id,
		Status:     "FILLED",
		FilledSize: o.Size,
		Price:      o.Price,
		Simulated:  true,
	}, nil
}

// OrderPlacer is the slice of the exchange client the live executor needs.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, o types.Order) (types.Fill, error)
}

// LiveExecutor forwards orders to the exchange client and normalizes every
// transport error into a typed failure.
type LiveExecutor struct {
	client OrderPlacer
	log    logger.Logger
}

func NewLiveExecutor(client OrderPlacer, log logger.Logger) *LiveExecutor {
	return &LiveExecutor{client: client, log: log}
}

func (l *LiveExecutor) PlaceOrder(ctx context.Context, o types.Order) (types.Fill, error) {
	fill, err := l.client.PlaceOrder(ctx, o)
	if err != nil {
		l.log.Error("order_submit_failed",
			logger.String("market", o.Market),
			logger.String("side", string(o.Side)),
			logger.Float64("size", o.Size),
			logger.Err(err),
		)
		return types.Fill{Status: "FAILED"}, fmt.Errorf("place order: %w", err)
	}
	return fill, nil
}
