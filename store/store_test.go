package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evdnx/gobx/types"
)

func trade(orderID string, pnl float64) types.Position {
	return types.Position{
		Market:     "ETH-USD",
		Side:       "LONG",
		EntryPrice: 2000,
		Size:       0.05,
		SizeUSD:    100,
		Status:     types.StatusClosed,
		OrderID:    orderID,
		OpenedAt:   time.Now().Add(-time.Hour),
		ExitPrice:  2100,
		ExitReason: types.ExitTakeProfit,
		PnL:        pnl,
		ClosedAt:   time.Now(),
	}
}

func TestSaveAndLoadTrades(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	// Empty log before anything is written.
	trades, err := s.LoadTrades()
	require.NoError(t, err)
	assert.Empty(t, trades)

	require.NoError(t, s.SaveTrade(trade("a", 5)))
	require.NoError(t, s.SaveTrade(trade("b", -3)))

	trades, err = s.LoadTrades()
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "a", trades[0].OrderID)
	assert.InDelta(t, -3, trades[1].PnL, 1e-9)
}

func TestSavePositionUpserts(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	open := trade("a", 0)
	open.Status = types.StatusOpen
	require.NoError(t, s.SavePosition(open))

	open.StopLoss = 1900
	require.NoError(t, s.SavePosition(open))

	positions, err := s.LoadPositions()
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.InDelta(t, 1900, positions[0].StopLoss, 1e-9)
}

func TestRoundTripPreservesFields(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	in := trade("rt", 42.5)
	require.NoError(t, s.SaveTrade(in))

	out, err := s.LoadTrades()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, in.Market, out[0].Market)
	assert.Equal(t, in.ExitReason, out[0].ExitReason)
	assert.InDelta(t, in.PnL, out[0].PnL, 1e-9)
}
