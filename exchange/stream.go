package exchange

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/evdnx/gobx/logger"
	"github.com/evdnx/gobx/types"
)

const reconnectDelay = 5 * time.Second

// TradeStream subscribes to the v4_trades channel and pushes samples into a
// bounded channel. When the consumer lags, the oldest buffered sample is
// dropped so ingestion never blocks on the decision loop.
type TradeStream struct {
	url    string
	market string
	log    logger.Logger
	out    chan types.MarketSample
}

func NewTradeStream(url, market string, buffer int, log logger.Logger) *TradeStream {
	if buffer <= 0 {
		buffer = 256
	}
	return &TradeStream{
		url:    url,
		market: market,
		log:    log,
		out:    make(chan types.MarketSample, buffer),
	}
}

// Samples is the consumer side of the stream.
func (s *TradeStream) Samples() <-chan types.MarketSample { return s.out }

// Run connects, subscribes and pumps trades until ctx is cancelled,
// reconnecting after transient failures. It closes the sample channel on
// return.
func (s *TradeStream) Run(ctx context.Context) {
	defer close(s.out)

	for {
		if err := s.connectAndPump(ctx); err != nil {
			s.log.Warn("trade_stream_disconnected", logger.Err(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

type wsMessage struct {
	Type     string `json:"type"`
	Channel  string `json:"channel"`
	Contents struct {
		Trades []wsTrade `json:"trades"`
	} `json:"contents"`
}

type wsTrade struct {
	Price     string    `json:"price"`
	Size      string    `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *TradeStream) connectAndPump(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	sub := map[string]string{"type": "subscribe", "channel": "v4_trades", "id": s.market}
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}
	s.log.Info("trade_stream_connected", logger.String("market", s.market))

	// Unblock ReadMessage when the context is cancelled.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.log.Warn("trade_stream_bad_message", logger.Err(err))
			continue
		}
		if msg.Type != "channel_data" {
			continue
		}
		for _, t := range msg.Contents.Trades {
			sample, ok := tradeToSample(t)
			if !ok {
				continue
			}
			select {
			case s.out <- sample:
			default:
				// Buffer full: drop the oldest to make room.
				select {
				case <-s.out:
				default:
				}
				select {
				case s.out <- sample:
				default:
				}
			}
		}
	}
}

func tradeToSample(t wsTrade) (types.MarketSample, bool) {
	price, err := strconv.ParseFloat(t.Price, 64)
	if err != nil || price <= 0 {
		return types.MarketSample{}, false
	}
	size, err := strconv.ParseFloat(t.Size, 64)
	if err != nil || size < 0 {
		return types.MarketSample{}, false
	}
	ts := t.CreatedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return types.MarketSample{Timestamp: ts, Price: price, VolumeUSD: price * size}, true
}
