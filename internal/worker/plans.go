package worker

import (
	"fmt"
	"log"

	"SwapSentinel/internal/exchange"
	"SwapSentinel/internal/model"
	"SwapSentinel/internal/notifier"
)

// Dip-buying thresholds: a 24h move past ±5% scales the scheduled amount.
const (
	dipThreshold    = -5.0
	spikeThreshold  = 5.0
	dipMultiplier   = 1.5
	spikeMultiplier = 0.5
)

// spendMultiplier flexes a plan's scheduled amount with the market: dips
// buy more, spikes buy less.
func spendMultiplier(change24h float64) float64 {
	switch {
	case change24h < dipThreshold:
		return dipMultiplier
	case change24h > spikeThreshold:
		return spikeMultiplier
	}
	return 1.0
}

// planTick executes every due accumulation plan. NextRun only advances on
// a successful buy, so a failed run is retried on the next tick.
func (s *Scheduler) planTick() {
	now := s.now()
	plans, err := s.Store.DuePlans(now)
	if err != nil {
		log.Printf("[ERROR] plan worker: load due plans: %v", err)
		return
	}
	if len(plans) == 0 {
		return
	}

	symbols := make(map[string]bool)
	var list []string
	for _, p := range plans {
		if !symbols[p.ToAsset] {
			symbols[p.ToAsset] = true
			list = append(list, p.ToAsset)
		}
	}
	changes := s.Feed.GetPricesWithChange(s.Ctx, list)

	for _, p := range plans {
		if p.SettleAddress == "" {
			log.Printf("[WARN] plan worker: plan %s has no settle address, skipping", p.ID)
			continue
		}

		claimed, err := s.Store.ClaimPlan(p.ID)
		if err != nil {
			log.Printf("[ERROR] plan worker: claim %s: %v", p.ID, err)
			continue
		}
		if !claimed {
			continue
		}

		change := 0.0
		if pc, ok := changes[p.ToAsset]; ok {
			change = pc.Change24h
		} else {
			log.Printf("[WARN] plan worker: no 24h change for %s, using base amount", p.ToAsset)
		}
		s.executePlan(p, change)
	}
}

// executePlan places one scheduled buy. The claim is already held; only a
// successful order advances NextRun.
func (s *Scheduler) executePlan(p *model.AccumulationPlan, change24h float64) {
	spend := p.Amount * spendMultiplier(change24h)
	log.Printf("[INFO] plan worker: plan %s buying %s with %g %s (24h %+.1f%%)",
		p.ID, p.ToAsset, spend, p.FromAsset, change24h)

	quote, err := s.Venue.CreateQuote(s.Ctx, exchange.QuoteRequest{
		FromAsset:   p.FromAsset,
		FromNetwork: model.DefaultNetwork(p.FromAsset),
		ToAsset:     p.ToAsset,
		ToNetwork:   model.DefaultNetwork(p.ToAsset),
		Amount:      spend,
	})
	if err == nil && quote.Error != "" {
		err = fmt.Errorf("%s", quote.Error)
	}
	if err != nil {
		s.releasePlan(p, fmt.Sprintf("quote failed: %v", err))
		return
	}

	order, err := s.Venue.CreateOrder(s.Ctx, quote.ID, p.SettleAddress, "")
	if err != nil {
		s.releasePlan(p, fmt.Sprintf("order failed: %v", err))
		return
	}

	ranAt := s.now()
	next := p.NextRun.AddDate(0, 0, p.FrequencyDays)
	for !next.After(ranAt) {
		next = next.AddDate(0, 0, p.FrequencyDays)
	}
	if err := s.Store.AdvancePlan(p.ID, ranAt, next); err != nil {
		log.Printf("[ERROR] plan worker: advance %s: %v", p.ID, err)
	}
	p.NextRun = next
	p.LastRun = ranAt

	if err := s.Store.WatchOrder(order.ID, p.UserID); err != nil {
		log.Printf("[WARN] plan worker: watch order %s: %v", order.ID, err)
	}
	s.notify(p.UserID, notifier.FormatPlanExecuted(p, spend, change24h, order))
}

func (s *Scheduler) releasePlan(p *model.AccumulationPlan, reason string) {
	log.Printf("[ERROR] plan worker: plan %s: %s", p.ID, reason)
	if err := s.Store.ReleasePlan(p.ID); err != nil {
		log.Printf("[ERROR] plan worker: release %s: %v", p.ID, err)
	}
	s.notify(p.UserID, fmt.Sprintf("⚠️ Scheduled buy for plan <code>%s</code> failed: %s\nI'll retry on the next cycle.", p.ID, reason))
}
