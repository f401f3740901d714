package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"SwapSentinel/internal/exchange"
	"SwapSentinel/internal/model"
	"SwapSentinel/internal/pricefeed"
)

// fakeStore is an in-memory Store for exercising the tick logic.
type fakeStore struct {
	orders []*model.LimitOrder
	plans  []*model.AccumulationPlan

	orderClaims map[string]bool
	planClaims  map[string]bool
	executed    map[string]string // order id -> venue order id
	failed      map[string]string // order id -> error message
	advanced    map[string]time.Time
	released    map[string]bool
	watched     map[string]string

	markFailedErr error // returned by MarkLimitOrderFailed when set
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orderClaims: map[string]bool{},
		planClaims:  map[string]bool{},
		executed:    map[string]string{},
		failed:      map[string]string{},
		advanced:    map[string]time.Time{},
		released:    map[string]bool{},
		watched:     map[string]string{},
	}
}

func (f *fakeStore) PendingLimitOrders() ([]*model.LimitOrder, error) {
	var out []*model.LimitOrder
	for _, o := range f.orders {
		if o.Status == model.OrderPending {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) ClaimLimitOrder(id string) (bool, error) {
	if f.orderClaims[id] {
		return false, nil
	}
	f.orderClaims[id] = true
	return true, nil
}

func (f *fakeStore) ReleaseLimitOrder(id string) error {
	delete(f.orderClaims, id)
	return nil
}

func (f *fakeStore) MarkLimitOrderExecuted(id, venueOrderID string) error {
	f.executed[id] = venueOrderID
	for _, o := range f.orders {
		if o.ID == id {
			o.Status = model.OrderExecuted
		}
	}
	return nil
}

func (f *fakeStore) MarkLimitOrderFailed(id, errMsg string) error {
	if f.markFailedErr != nil {
		return f.markFailedErr
	}
	f.failed[id] = errMsg
	for _, o := range f.orders {
		if o.ID == id {
			o.Status = model.OrderFailed
		}
	}
	return nil
}

func (f *fakeStore) DuePlans(now time.Time) ([]*model.AccumulationPlan, error) {
	var out []*model.AccumulationPlan
	for _, p := range f.plans {
		if p.Due(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) ClaimPlan(id string) (bool, error) {
	if f.planClaims[id] {
		return false, nil
	}
	f.planClaims[id] = true
	return true, nil
}

func (f *fakeStore) ReleasePlan(id string) error {
	f.released[id] = true
	delete(f.planClaims, id)
	return nil
}

func (f *fakeStore) AdvancePlan(id string, ranAt, nextRun time.Time) error {
	f.advanced[id] = nextRun
	delete(f.planClaims, id)
	for _, p := range f.plans {
		if p.ID == id {
			p.LastRun = ranAt
			p.NextRun = nextRun
		}
	}
	return nil
}

func (f *fakeStore) WatchOrder(orderID, userID string) error {
	f.watched[orderID] = userID
	return nil
}

func (f *fakeStore) WatchedOrders() (map[string]string, error) {
	out := make(map[string]string, len(f.watched))
	for k, v := range f.watched {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) UnwatchOrder(orderID string) error {
	delete(f.watched, orderID)
	return nil
}

// fakeNotifier records every notification instead of sending.
type fakeNotifier struct {
	sent map[string][]string // user id -> messages
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, chatID string, reply model.Reply, _ int) error {
	if f.sent == nil {
		f.sent = map[string][]string{}
	}
	f.sent[chatID] = append(f.sent[chatID], reply.Text)
	return nil
}

func testScheduler(st Store, venue exchange.Venue, feed pricefeed.Feed) (*Scheduler, *fakeNotifier) {
	n := &fakeNotifier{}
	return NewScheduler(context.Background(), st, venue, feed, n), n
}

func pendingOrder(id string, condType model.ConditionType, target float64) *model.LimitOrder {
	return &model.LimitOrder{
		ID: id, UserID: "u1",
		FromAsset: "ETH", FromNetwork: "ethereum",
		ToAsset: "USDC", ToNetwork: "ethereum",
		Amount:         1,
		ConditionAsset: "ETH", ConditionType: condType, TargetPrice: target,
		Status:        model.OrderPending,
		SettleAddress: "0x1234567890abcdef1234567890abcdef12345678",
	}
}

func TestLimitOrderTick_TriggersOnlyPastThePrice(t *testing.T) {
	st := newFakeStore()
	st.orders = []*model.LimitOrder{
		pendingOrder("sell-high", model.ConditionAbove, 4000), // price 4100: fires
		pendingOrder("buy-dip", model.ConditionBelow, 3900),   // price 4100: waits
	}
	venue := &exchange.MockVenue{}
	feed := &pricefeed.MockFeed{Prices: map[string]float64{"ETH": 4100}}
	s, n := testScheduler(st, venue, feed)

	s.limitOrderTick()

	if _, ok := st.executed["sell-high"]; !ok {
		t.Error("above-condition order should have executed")
	}
	if _, ok := st.executed["buy-dip"]; ok {
		t.Error("below-condition order must wait")
	}
	if st.orderClaims["buy-dip"] {
		t.Error("untriggered order must not be claimed")
	}
	if len(n.sent["u1"]) != 1 {
		t.Errorf("expected one notification, got %d", len(n.sent["u1"]))
	}
	if len(st.watched) != 1 {
		t.Error("executed order should be watched for settlement")
	}
	for _, userID := range st.watched {
		if userID != "u1" {
			t.Errorf("watch entry owned by %s, want u1", userID)
		}
	}
}

func TestLimitOrderTick_ExactPriceDoesNotTrigger(t *testing.T) {
	st := newFakeStore()
	st.orders = []*model.LimitOrder{
		pendingOrder("above", model.ConditionAbove, 4000),
		pendingOrder("below", model.ConditionBelow, 4000),
	}
	venue := &exchange.MockVenue{}
	feed := &pricefeed.MockFeed{Prices: map[string]float64{"ETH": 4000}}
	s, _ := testScheduler(st, venue, feed)

	s.limitOrderTick()

	if len(st.executed) != 0 || len(st.failed) != 0 {
		t.Error("comparisons are strict; the exact target price must not trigger")
	}
}

func TestLimitOrderTick_MissingPriceSkips(t *testing.T) {
	st := newFakeStore()
	st.orders = []*model.LimitOrder{pendingOrder("o1", model.ConditionBelow, 5000)}
	venue := &exchange.MockVenue{}
	feed := &pricefeed.MockFeed{} // feed outage: no prices at all
	s, _ := testScheduler(st, venue, feed)

	s.limitOrderTick()

	if len(st.executed) != 0 || len(st.failed) != 0 {
		t.Error("an order without a price must be left untouched")
	}
	if st.orderClaims["o1"] {
		t.Error("skipped order must not hold a claim")
	}
}

func TestLimitOrderTick_OneFailureDoesNotAbortBatch(t *testing.T) {
	bad := pendingOrder("bad", model.ConditionAbove, 4000)
	bad.SettleAddress = "" // MockVenue rejects empty settle addresses
	good := pendingOrder("good", model.ConditionAbove, 4000)

	st := newFakeStore()
	st.orders = []*model.LimitOrder{bad, good}
	venue := &exchange.MockVenue{}
	feed := &pricefeed.MockFeed{Prices: map[string]float64{"ETH": 4100}}
	s, n := testScheduler(st, venue, feed)

	s.limitOrderTick()

	if _, ok := st.failed["bad"]; !ok {
		t.Error("bad order should be marked failed")
	}
	if _, ok := st.executed["good"]; !ok {
		t.Error("good order should still execute")
	}
	if len(n.sent["u1"]) != 2 {
		t.Errorf("both outcomes should notify, got %d", len(n.sent["u1"]))
	}
}

func TestLimitOrderTick_FailedBookkeepingReleasesClaim(t *testing.T) {
	o := pendingOrder("lo1", model.ConditionAbove, 4000)
	o.SettleAddress = "" // no venue order gets placed

	st := newFakeStore()
	st.orders = []*model.LimitOrder{o}
	st.markFailedErr = errors.New("db locked")
	venue := &exchange.MockVenue{}
	feed := &pricefeed.MockFeed{Prices: map[string]float64{"ETH": 4100}}
	s, n := testScheduler(st, venue, feed)

	s.limitOrderTick()

	if st.orderClaims["lo1"] {
		t.Error("claim should be released when the failure cannot be recorded")
	}
	if len(n.sent["u1"]) != 0 {
		t.Errorf("nothing should notify before the outcome is recorded, got %d", len(n.sent["u1"]))
	}

	// Next tick retries the whole evaluation once the store recovers.
	st.markFailedErr = nil
	s.limitOrderTick()
	if _, ok := st.failed["lo1"]; !ok {
		t.Error("retried tick should record the failure")
	}
}

func TestSpendMultiplier(t *testing.T) {
	tests := []struct {
		change float64
		want   float64
	}{
		{-10, 1.5},
		{-5.1, 1.5},
		{-5, 1.0}, // threshold itself is not a dip
		{0, 1.0},
		{5, 1.0},
		{5.1, 0.5},
		{12, 0.5},
	}
	for _, tt := range tests {
		if got := spendMultiplier(tt.change); got != tt.want {
			t.Errorf("spendMultiplier(%g) = %g, want %g", tt.change, got, tt.want)
		}
	}
}

func activePlan(id string, nextRun time.Time) *model.AccumulationPlan {
	return &model.AccumulationPlan{
		ID: id, UserID: "u1",
		FromAsset: "USDC", ToAsset: "BTC", Amount: 100,
		FrequencyDays: 7, NextRun: nextRun,
		Status:        model.PlanActive,
		SettleAddress: "bc1qtestaddress000000000000000000000000000",
	}
}

func TestPlanTick_DipBuysMore(t *testing.T) {
	now := time.Now()
	st := newFakeStore()
	st.plans = []*model.AccumulationPlan{activePlan("p1", now.Add(-time.Minute))}
	venue := &exchange.MockVenue{}
	feed := &pricefeed.MockFeed{
		Prices:  map[string]float64{"BTC": 40000},
		Changes: map[string]float64{"BTC": -6},
	}
	s, _ := testScheduler(st, venue, feed)
	s.now = func() time.Time { return now }

	s.planTick()

	if len(venue.Quotes) != 1 {
		t.Fatalf("expected 1 quote, got %d", len(venue.Quotes))
	}
	if venue.Quotes[0].Amount != 150 {
		t.Errorf("a 6%% dip should buy 1.5x: got %g", venue.Quotes[0].Amount)
	}
}

func TestPlanTick_AdvanceOnlyOnSuccess(t *testing.T) {
	now := time.Now()
	start := now.Add(-time.Minute)
	st := newFakeStore()
	st.plans = []*model.AccumulationPlan{activePlan("p1", start)}
	venue := &exchange.MockVenue{OrderErr: errors.New("venue down")}
	feed := &pricefeed.MockFeed{
		Prices:  map[string]float64{"BTC": 40000},
		Changes: map[string]float64{"BTC": 0},
	}
	s, n := testScheduler(st, venue, feed)
	s.now = func() time.Time { return now }

	s.planTick()

	if len(st.advanced) != 0 {
		t.Error("failed run must not advance the schedule")
	}
	if !st.released["p1"] {
		t.Error("failed run must release its claim for retry")
	}
	if len(n.sent["u1"]) != 1 {
		t.Errorf("failure should notify, got %d", len(n.sent["u1"]))
	}

	// The venue recovers; the same due plan runs and advances.
	venue.OrderErr = nil
	s.planTick()

	next, ok := st.advanced["p1"]
	if !ok {
		t.Fatal("successful run should advance the schedule")
	}
	want := start.AddDate(0, 0, 7)
	if !next.Equal(want) {
		t.Errorf("next run = %v, want %v", next, want)
	}
}

func TestPlanTick_MissingAddressSkips(t *testing.T) {
	now := time.Now()
	p := activePlan("p1", now.Add(-time.Minute))
	p.SettleAddress = ""
	st := newFakeStore()
	st.plans = []*model.AccumulationPlan{p}
	venue := &exchange.MockVenue{}
	feed := &pricefeed.MockFeed{Prices: map[string]float64{"BTC": 40000}}
	s, _ := testScheduler(st, venue, feed)
	s.now = func() time.Time { return now }

	s.planTick()

	if len(venue.Quotes) != 0 {
		t.Error("a plan without an address must not trade")
	}
	if st.planClaims["p1"] {
		t.Error("skipped plan must not hold a claim")
	}
}

func TestWatchTick_TerminalStatusNotifiesAndUnwatches(t *testing.T) {
	st := newFakeStore()
	st.watched["done"] = "u1"
	st.watched["pending"] = "u2"
	venue := &exchange.MockVenue{Statuses: map[string]string{
		"done":    "settled",
		"pending": "processing",
	}}
	s, n := testScheduler(st, venue, &pricefeed.MockFeed{})

	s.watchTick()

	if _, ok := st.watched["done"]; ok {
		t.Error("settled order should be unwatched")
	}
	if _, ok := st.watched["pending"]; !ok {
		t.Error("processing order should stay watched")
	}
	if len(n.sent["u1"]) != 1 {
		t.Errorf("settlement should notify, got %d", len(n.sent["u1"]))
	}
	if len(n.sent["u2"]) != 0 {
		t.Errorf("non-terminal status must not notify, got %d", len(n.sent["u2"]))
	}
}
