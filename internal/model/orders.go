package model

import "time"

// OrderStatus is the lifecycle status of a standing limit order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderExecuted  OrderStatus = "executed"
	OrderFailed    OrderStatus = "failed"
	OrderCancelled OrderStatus = "cancelled"
)

// ConditionType is the direction of a limit-order price trigger.
type ConditionType string

const (
	ConditionAbove ConditionType = "above"
	ConditionBelow ConditionType = "below"
)

// LimitOrder is a standing conditional order. Created by the orchestrator,
// mutated only by the limit-order worker or an explicit cancellation.
type LimitOrder struct {
	ID          string
	UserID      string
	FromAsset   string
	FromNetwork string
	ToAsset     string
	ToNetwork   string
	Amount      float64

	ConditionAsset string
	ConditionType  ConditionType
	TargetPrice    float64

	Status           OrderStatus
	SideshiftOrderID string
	ErrorMessage     string
	SettleAddress    string

	CreatedAt time.Time
}

// Triggered reports whether the current price satisfies the order's condition.
func (o *LimitOrder) Triggered(currentPrice float64) bool {
	switch o.ConditionType {
	case ConditionAbove:
		return currentPrice > o.TargetPrice
	case ConditionBelow:
		return currentPrice < o.TargetPrice
	}
	return false
}

// PlanStatus is the lifecycle status of an accumulation plan.
type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanPaused    PlanStatus = "paused"
	PlanCancelled PlanStatus = "cancelled"
)

// AccumulationPlan is a recurring buy (DCA). NextRun advances by exactly
// FrequencyDays on each successful execution.
type AccumulationPlan struct {
	ID            string
	UserID        string
	FromAsset     string
	ToAsset       string
	Amount        float64
	FrequencyDays int
	NextRun       time.Time
	LastRun       time.Time
	Status        PlanStatus
	SettleAddress string
}

// Due reports whether the plan should run at the given time.
func (p *AccumulationPlan) Due(now time.Time) bool {
	return p.Status == PlanActive && !p.NextRun.After(now)
}
