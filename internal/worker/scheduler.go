package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"SwapSentinel/internal/exchange"
	"SwapSentinel/internal/model"
	"SwapSentinel/internal/pricefeed"

	"github.com/robfig/cron/v3"
)

// Store is the persistence contract the workers need.
type Store interface {
	PendingLimitOrders() ([]*model.LimitOrder, error)
	ClaimLimitOrder(id string) (bool, error)
	ReleaseLimitOrder(id string) error
	MarkLimitOrderExecuted(id, venueOrderID string) error
	MarkLimitOrderFailed(id, errMsg string) error

	DuePlans(now time.Time) ([]*model.AccumulationPlan, error)
	ClaimPlan(id string) (bool, error)
	ReleasePlan(id string) error
	AdvancePlan(id string, ranAt, nextRun time.Time) error

	WatchOrder(orderID, userID string) error
	WatchedOrders() (map[string]string, error)
	UnwatchOrder(orderID string) error
}

// Notifier delivers worker notifications to a user's chat.
type Notifier interface {
	SendWithRetry(ctx context.Context, chatID string, reply model.Reply, maxRetries int) error
}

const notifyRetries = 3

// Scheduler runs the periodic evaluation tasks: limit-order triggers,
// accumulation plans, and order-status watching.
type Scheduler struct {
	Cron     *cron.Cron
	Store    Store
	Venue    exchange.Venue
	Feed     pricefeed.Feed
	Notifier Notifier
	Ctx      context.Context

	now func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, st Store, venue exchange.Venue, feed pricefeed.Feed, n Notifier) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Store:    st,
		Venue:    venue,
		Feed:     feed,
		Notifier: n,
		Ctx:      ctx,
		now:      time.Now,
	}
}

// RegisterAll registers the three periodic tasks.
func (s *Scheduler) RegisterAll(limitCron, planCron, watchCron string) error {
	if _, err := s.Cron.AddFunc(limitCron, s.limitOrderTick); err != nil {
		return fmt.Errorf("register limit-order task: %w", err)
	}
	if _, err := s.Cron.AddFunc(planCron, s.planTick); err != nil {
		return fmt.Errorf("register plan task: %w", err)
	}
	if _, err := s.Cron.AddFunc(watchCron, s.watchTick); err != nil {
		return fmt.Errorf("register watch task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] worker scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] worker scheduler stopped")
}

func (s *Scheduler) notify(userID string, text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, userID, model.Reply{Text: text}, notifyRetries); err != nil {
		log.Printf("[ERROR] notify %s: %v", userID, err)
	}
}
