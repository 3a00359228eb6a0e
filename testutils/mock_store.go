package testutils

import (
	"sync"

	"github.com/evdnx/gobx/types"
)

// MockStore records persisted trades/positions; Err makes every call fail to
// prove persistence is fire-and-forget.
type MockStore struct {
	mu        sync.Mutex
	Err       error
	trades    []types.Position
	positions []types.Position
}

func NewMockStore() *MockStore { return &MockStore{} }

func (s *MockStore) SaveTrade(p types.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.trades = append(s.trades, p)
	return nil
}

func (s *MockStore) SavePosition(p types.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.positions = append(s.positions, p)
	return nil
}

func (s *MockStore) Trades() []types.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Position, len(s.trades))
	copy(out, s.trades)
	return out
}

func (s *MockStore) Positions() []types.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Position, len(s.positions))
	copy(out, s.positions)
	return out
}
