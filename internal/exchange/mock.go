package exchange

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockVenue returns scripted quotes and orders for development and testing.
type MockVenue struct {
	mu sync.Mutex

	Rate     float64 // settle per deposit unit; 1.0 when zero
	QuoteErr error   // returned by CreateQuote when set
	OrderErr error   // returned by CreateOrder when set
	Statuses map[string]string

	Quotes []QuoteRequest // every quote request seen
	Orders []string       // every quote id an order was placed for
}

func (m *MockVenue) Name() string { return "mock" }

func (m *MockVenue) CreateQuote(_ context.Context, req QuoteRequest) (*Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QuoteErr != nil {
		return nil, m.QuoteErr
	}
	rate := m.Rate
	if rate == 0 {
		rate = 1.0
	}
	m.Quotes = append(m.Quotes, req)
	return &Quote{
		ID:            uuid.NewString(),
		DepositCoin:   req.FromAsset,
		DepositAmount: req.Amount,
		SettleCoin:    req.ToAsset,
		SettleAmount:  req.Amount * rate,
		Rate:          rate,
	}, nil
}

func (m *MockVenue) CreateOrder(_ context.Context, quoteID, settleAddress, _ string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OrderErr != nil {
		return nil, m.OrderErr
	}
	if settleAddress == "" {
		return nil, errors.New("settle address required")
	}
	m.Orders = append(m.Orders, quoteID)
	return &Order{
		ID:             uuid.NewString(),
		DepositAddress: DepositAddress{Address: fmt.Sprintf("mock-deposit-%s", quoteID[:8])},
	}, nil
}

func (m *MockVenue) GetOrderStatus(_ context.Context, orderID string) (*OrderState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := "waiting"
	if s, ok := m.Statuses[orderID]; ok {
		status = s
	}
	return &OrderState{ID: orderID, Status: status}, nil
}
