package exchange

import "context"

// QuoteRequest asks the venue for a fixed-rate quote.
type QuoteRequest struct {
	FromAsset   string
	FromNetwork string
	ToAsset     string
	ToNetwork   string
	Amount      float64 // deposit amount, denominated in FromAsset
}

// Quote is a time-bounded exchange-rate commitment.
type Quote struct {
	ID            string  `json:"id"`
	DepositCoin   string  `json:"depositCoin"`
	DepositAmount float64 `json:"depositAmount,string"`
	SettleCoin    string  `json:"settleCoin"`
	SettleAmount  float64 `json:"settleAmount,string"`
	Rate          float64 `json:"rate,string"`
	Error         string  `json:"error,omitempty"`
}

// DepositAddress is where the user sends funds for a placed order.
type DepositAddress struct {
	Address string `json:"address"`
	Memo    string `json:"memo,omitempty"`
}

// Order is a placed shift on the venue.
type Order struct {
	ID             string         `json:"id"`
	DepositAddress DepositAddress `json:"depositAddress"`
}

// OrderState is the venue-side status of a placed order.
type OrderState struct {
	ID           string  `json:"id"`
	Status       string  `json:"status"` // waiting, processing, settled, refunded, expired
	SettleAmount float64 `json:"settleAmount,string"`
	SettleCoin   string  `json:"settleCoin"`
}

// Venue is the exchange collaborator: quote, place, poll.
type Venue interface {
	CreateQuote(ctx context.Context, req QuoteRequest) (*Quote, error)
	CreateOrder(ctx context.Context, quoteID, settleAddress, refundAddress string) (*Order, error)
	GetOrderStatus(ctx context.Context, orderID string) (*OrderState, error)
	Name() string
}
