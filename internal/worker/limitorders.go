package worker

import (
	"fmt"
	"log"

	"SwapSentinel/internal/exchange"
	"SwapSentinel/internal/model"
	"SwapSentinel/internal/notifier"
)

// limitOrderTick evaluates every pending limit order against a single batch
// of prices. One order's failure never aborts the rest of the batch.
func (s *Scheduler) limitOrderTick() {
	orders, err := s.Store.PendingLimitOrders()
	if err != nil {
		log.Printf("[ERROR] limit worker: load pending orders: %v", err)
		return
	}
	if len(orders) == 0 {
		return
	}

	prices := s.Feed.GetPrices(s.Ctx, conditionAssets(orders))

	for _, o := range orders {
		price, ok := prices[o.ConditionAsset]
		if !ok || price <= 0 {
			log.Printf("[WARN] limit worker: no price for %s, skipping order %s", o.ConditionAsset, o.ID)
			continue
		}
		if !o.Triggered(price) {
			continue
		}

		claimed, err := s.Store.ClaimLimitOrder(o.ID)
		if err != nil {
			log.Printf("[ERROR] limit worker: claim %s: %v", o.ID, err)
			continue
		}
		if !claimed {
			continue
		}
		s.executeLimitOrder(o, price)
	}
}

// conditionAssets dedupes the price symbols a batch of orders needs.
func conditionAssets(orders []*model.LimitOrder) []string {
	seen := make(map[string]bool)
	var symbols []string
	for _, o := range orders {
		if !seen[o.ConditionAsset] {
			seen[o.ConditionAsset] = true
			symbols = append(symbols, o.ConditionAsset)
		}
	}
	return symbols
}

// executeLimitOrder places a triggered order. The claim is already held;
// every exit path settles it into executed or failed.
func (s *Scheduler) executeLimitOrder(o *model.LimitOrder, price float64) {
	log.Printf("[INFO] limit worker: order %s triggered (%s %s $%g at $%g)",
		o.ID, o.ConditionAsset, o.ConditionType, o.TargetPrice, price)

	quote, err := s.Venue.CreateQuote(s.Ctx, exchange.QuoteRequest{
		FromAsset:   o.FromAsset,
		FromNetwork: o.FromNetwork,
		ToAsset:     o.ToAsset,
		ToNetwork:   o.ToNetwork,
		Amount:      o.Amount,
	})
	if err == nil && quote.Error != "" {
		err = fmt.Errorf("%s", quote.Error)
	}
	if err != nil {
		s.failLimitOrder(o, fmt.Sprintf("quote failed: %v", err))
		return
	}

	order, err := s.Venue.CreateOrder(s.Ctx, quote.ID, o.SettleAddress, "")
	if err != nil {
		s.failLimitOrder(o, fmt.Sprintf("order failed: %v", err))
		return
	}

	if err := s.Store.MarkLimitOrderExecuted(o.ID, order.ID); err != nil {
		// The venue order is already live, so releasing the claim would
		// place it a second time; it stays held and the venue id is logged
		// for reconciliation.
		log.Printf("[ERROR] limit worker: mark %s executed (venue order %s): %v", o.ID, order.ID, err)
	}
	if err := s.Store.WatchOrder(order.ID, o.UserID); err != nil {
		log.Printf("[WARN] limit worker: watch order %s: %v", order.ID, err)
	}
	s.notify(o.UserID, notifier.FormatTriggerExecuted(o, price, order))
}

func (s *Scheduler) failLimitOrder(o *model.LimitOrder, reason string) {
	log.Printf("[ERROR] limit worker: order %s: %s", o.ID, reason)
	if err := s.Store.MarkLimitOrderFailed(o.ID, reason); err != nil {
		// No venue order exists on this path, so the claim can be released
		// and the whole evaluation retried next tick.
		log.Printf("[ERROR] limit worker: mark %s failed: %v", o.ID, err)
		if relErr := s.Store.ReleaseLimitOrder(o.ID); relErr != nil {
			log.Printf("[ERROR] limit worker: release %s: %v", o.ID, relErr)
		}
		return
	}
	s.notify(o.UserID, notifier.FormatTriggerFailed(o, reason))
}
