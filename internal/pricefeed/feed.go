package pricefeed

import "context"

// PriceChange is a spot price with its 24-hour change in percent.
type PriceChange struct {
	Price     float64
	Change24h float64
}

// Feed fetches live prices for asset symbols. Implementations return a
// partial or empty map on any failure, never an error: a missing symbol in
// the result simply means no price was available this time.
type Feed interface {
	GetPrices(ctx context.Context, symbols []string) map[string]float64
	GetPricesWithChange(ctx context.Context, symbols []string) map[string]PriceChange
	Name() string
}
