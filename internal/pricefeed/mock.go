package pricefeed

import (
	"context"
	"strings"
)

// MockFeed returns controllable fixed data for development and testing.
type MockFeed struct {
	Prices  map[string]float64 // symbol -> price
	Changes map[string]float64 // symbol -> 24h change percent
}

func (m *MockFeed) Name() string { return "mock" }

func (m *MockFeed) GetPrices(_ context.Context, symbols []string) map[string]float64 {
	out := make(map[string]float64)
	for _, s := range symbols {
		s = strings.ToUpper(s)
		if p, ok := m.Prices[s]; ok {
			out[s] = p
		}
	}
	return out
}

func (m *MockFeed) GetPricesWithChange(_ context.Context, symbols []string) map[string]PriceChange {
	out := make(map[string]PriceChange)
	for _, s := range symbols {
		s = strings.ToUpper(s)
		p, ok := m.Prices[s]
		if !ok {
			continue
		}
		out[s] = PriceChange{Price: p, Change24h: m.Changes[s]}
	}
	return out
}
