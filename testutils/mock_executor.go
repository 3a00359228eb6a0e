package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/evdnx/gobx/types"
)

// MockExecutor implements the Executor interface in-memory, recording every
// order for assertions. FailNext makes the next submission fail so callers
// can exercise the no-partial-state-transition guarantees.
type MockExecutor struct {
	mu       sync.Mutex
	orders   []types.Order
	fills    []types.Fill
	seq      int
	failNext error
}

func NewMockExecutor() *MockExecutor { return &MockExecutor{} }

// FailNext arranges for the next PlaceOrder call to return err.
func (m *MockExecutor) FailNext(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

func (m *MockExecutor) PlaceOrder(_ context.Context, o types.Order) (types.Fill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failNext; err != nil {
		m.failNext = nil
		return types.Fill{Status: "FAILED"}, err
	}
	m.seq++
	fill := types.Fill{
		OrderID:    fmt.Sprintf("mock_%d", m.seq),
		Status:     "FILLED",
		FilledSize: o.Size,
		Price:      o.Price,
	}
	m.orders = append(m.orders, o)
	m.fills = append(m.fills, fill)
	return fill, nil
}

// Orders returns a copy of all submitted orders (useful for assertions).
func (m *MockExecutor) Orders() []types.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Order, len(m.orders))
	copy(out, m.orders)
	return out
}

// LastOrder returns the most recent order, or false when none was placed.
func (m *MockExecutor) LastOrder() (types.Order, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.orders) == 0 {
		return types.Order{}, false
	}
	return m.orders[len(m.orders)-1], true
}
