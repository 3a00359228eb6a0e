// Package exchange talks to a dYdX-indexer-shaped API: REST for warmup
// candles, market info and account state, WebSocket for the live trade feed.
// The core treats this as a black box that yields samples and fills.
package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/evdnx/gobx/logger"
	"github.com/evdnx/gobx/types"
)

type Client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

func NewClient(baseURL string, log logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// candle mirrors the indexer payload; numeric fields arrive as strings.
type candle struct {
	StartedAt       time.Time `json:"startedAt"`
	Close           string    `json:"close"`
	High            string    `json:"high"`
	BaseTokenVolume string    `json:"baseTokenVolume"`
	UsdVolume       string    `json:"usdVolume"`
}

type candlesResponse struct {
	Candles []candle `json:"candles"`
}

// GetCandles fetches up to limit historical candles and returns them as
// chronologically sorted samples for cache warmup.
func (c *Client) GetCandles(ctx context.Context, market, resolution string, limit int) ([]types.MarketSample, error) {
	url := fmt.Sprintf("%s/candles/perpetualMarkets/%s?resolution=%s&limit=%d",
		c.baseURL, market, resolution, limit)

	var resp candlesResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}

	samples := make([]types.MarketSample, 0, len(resp.Candles))
	for _, cd := range resp.Candles {
		price, err := strconv.ParseFloat(cd.Close, 64)
		if err != nil {
			continue
		}
		volume, err := strconv.ParseFloat(cd.UsdVolume, 64)
		if err != nil {
			continue
		}
		samples = append(samples, types.MarketSample{
			Timestamp: cd.StartedAt,
			Price:     price,
			VolumeUSD: volume,
		})
	}
	// The indexer returns newest-first.
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})
	return samples, nil
}

// Market is the subset of perpetual-market info the bot reads.
type Market struct {
	Ticker      string `json:"ticker"`
	OraclePrice string `json:"oraclePrice"`
	IndexPrice  string `json:"indexPrice"`
}

type marketsResponse struct {
	Markets map[string]Market `json:"markets"`
}

func (c *Client) GetMarket(ctx context.Context, market string) (Market, error) {
	url := fmt.Sprintf("%s/perpetualMarkets?ticker=%s", c.baseURL, market)

	var resp marketsResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return Market{}, fmt.Errorf("fetch market %s: %w", market, err)
	}
	m, ok := resp.Markets[market]
	if !ok {
		return Market{}, fmt.Errorf("market %s not found", market)
	}
	return m, nil
}

// OraclePriceFloat parses the oracle price, 0 when absent or malformed so
// the indicator fallback chain can move on to the next source.
func (m Market) OraclePriceFloat() float64 {
	p, err := strconv.ParseFloat(m.OraclePrice, 64)
	if err != nil {
		return 0
	}
	return p
}

// Account is the subset of account info the risk manager reads.
type Account struct {
	Equity         string `json:"equity"`
	FreeCollateral string `json:"freeCollateral"`
}

type accountResponse struct {
	Subaccount Account `json:"subaccount"`
}

// AvailableBalance implements risk.BalanceSource: equity first, free
// collateral as fallback, error when neither is present.
func (c *Client) AvailableBalance() (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var resp accountResponse
	if err := c.getJSON(ctx, c.baseURL+"/account", &resp); err != nil {
		return 0, fmt.Errorf("fetch account: %w", err)
	}
	if v, err := strconv.ParseFloat(resp.Subaccount.Equity, 64); err == nil {
		return v, nil
	}
	if v, err := strconv.ParseFloat(resp.Subaccount.FreeCollateral, 64); err == nil {
		return v, nil
	}
	return 0, fmt.Errorf("account info carries no usable balance")
}

type orderRequest struct {
	Market     string  `json:"market"`
	Side       string  `json:"side"`
	Size       float64 `json:"size"`
	Type       string  `json:"type"`
	Price      float64 `json:"price,omitempty"`
	ReduceOnly bool    `json:"reduceOnly"`
}

type orderResponse struct {
	OrderID    string `json:"orderId"`
	Status     string `json:"status"`
	FilledSize string `json:"filledSize"`
}

// PlaceOrder submits one order. A single attempt: the transport does not
// retry, the caller treats any non-FILLED outcome as failure.
func (c *Client) PlaceOrder(ctx context.Context, o types.Order) (types.Fill, error) {
	body, err := json.Marshal(orderRequest{
		Market:     o.Market,
		Side:       string(o.Side),
		Size:       o.Size,
		Type:       string(o.Type),
		Price:      o.Price,
		ReduceOnly: o.ReduceOnly,
	})
	if err != nil {
		return types.Fill{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return types.Fill{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return types.Fill{}, fmt.Errorf("submit order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return types.Fill{}, fmt.Errorf("submit order: http %d: %s", resp.StatusCode, b)
	}

	var or orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return types.Fill{}, fmt.Errorf("decode order response: %w", err)
	}
	filled, _ := strconv.ParseFloat(or.FilledSize, 64)
	return types.Fill{OrderID: or.OrderID, Status: or.Status, FilledSize: filled, Price: o.Price}, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("http %d: %s", resp.StatusCode, b)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
