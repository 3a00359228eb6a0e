package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/evdnx/gobx/testutils"
	"github.com/evdnx/gobx/types"
)

func TestGetCandlesSortedChronologically(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Newest-first, as the indexer serves them.
		w.Write([]byte(`{"candles":[
			{"startedAt":"2024-03-01T10:02:00Z","close":"2010","usdVolume":"120"},
			{"startedAt":"2024-03-01T10:01:00Z","close":"2005","usdVolume":"110"},
			{"startedAt":"2024-03-01T10:00:00Z","close":"2000","usdVolume":"100"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testutils.NewMockLogger())
	samples, err := c.GetCandles(context.Background(), "ETH-USD", "1MIN", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if samples[0].Price != 2000 || samples[2].Price != 2010 {
		t.Fatalf("samples not sorted oldest-first: %+v", samples)
	}
	if samples[0].VolumeUSD != 100 {
		t.Fatalf("unexpected volume: %v", samples[0].VolumeUSD)
	}
}

func TestGetMarketOraclePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"markets":{"ETH-USD":{"ticker":"ETH-USD","oraclePrice":"2001.5"}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testutils.NewMockLogger())
	m, err := c.GetMarket(context.Background(), "ETH-USD")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.OraclePriceFloat(); got != 2001.5 {
		t.Fatalf("expected oracle price 2001.5, got %v", got)
	}
}

func TestAvailableBalanceFallsBackToFreeCollateral(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"subaccount":{"equity":"not-a-number","freeCollateral":"5000"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testutils.NewMockLogger())
	balance, err := c.AvailableBalance()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 5000 {
		t.Fatalf("expected 5000, got %v", balance)
	}
}

func TestAvailableBalanceUnusable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"subaccount":{}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testutils.NewMockLogger())
	if _, err := c.AvailableBalance(); err == nil {
		t.Fatal("expected an error when no balance field is usable")
	}
}

func TestPlaceOrderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "margin check failed", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testutils.NewMockLogger())
	o, _ := types.NewOrder("ETH-USD", types.Buy, 0.1, types.Market, 2000, false)
	if _, err := c.PlaceOrder(context.Background(), o); err == nil {
		t.Fatal("expected error on http 400")
	}
}

func TestPlaceOrderFilled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Write([]byte(`{"orderId":"o-1","status":"FILLED","filledSize":"0.1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testutils.NewMockLogger())
	o, _ := types.NewOrder("ETH-USD", types.Buy, 0.1, types.Market, 2000, false)
	fill, err := c.PlaceOrder(context.Background(), o)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fill.Filled() || fill.OrderID != "o-1" || fill.FilledSize != 0.1 {
		t.Fatalf("unexpected fill: %+v", fill)
	}
}

func TestTradeToSample(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s, ok := tradeToSample(wsTrade{Price: "2000", Size: "0.5", CreatedAt: ts})
	if !ok {
		t.Fatal("expected a valid sample")
	}
	if s.Price != 2000 || s.VolumeUSD != 1000 || !s.Timestamp.Equal(ts) {
		t.Fatalf("unexpected sample: %+v", s)
	}

	if _, ok := tradeToSample(wsTrade{Price: "garbage", Size: "1"}); ok {
		t.Fatal("malformed price must be skipped")
	}
	if _, ok := tradeToSample(wsTrade{Price: "-5", Size: "1"}); ok {
		t.Fatal("non-positive price must be skipped")
	}
}
