package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"SwapSentinel/internal/exchange"
	"SwapSentinel/internal/model"
	"SwapSentinel/internal/notifier"
	"SwapSentinel/internal/wallet"
)

// Button callback payloads.
const (
	ActionConfirm       = "confirm"
	ActionCancel        = "cancel"
	ActionPlaceOrder    = "place_order"
	ActionConfirmReview = "confirm_review"
)

// HandleAction processes a pressed button. Unknown or out-of-step actions
// get a gentle nudge rather than an error.
func (o *Orchestrator) HandleAction(ctx context.Context, userID, data string) (reply model.Reply) {
	mu := o.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] orchestrator: panic handling action %q from %s: %v", data, userID, r)
			reply = model.Reply{Text: "Something went wrong on my side. Your conversation is unchanged, try again."}
		}
	}()

	if data == ActionCancel {
		return o.cancel(userID)
	}

	st, err := o.store.GetConversationState(userID)
	if err != nil {
		log.Printf("[ERROR] orchestrator: read state for %s: %v", userID, err)
		return model.Reply{Text: "I couldn't read your conversation state. Try again."}
	}
	if st == nil {
		return model.Reply{Text: "Nothing in progress. Send me a swap request to get started."}
	}

	switch data {
	case ActionConfirm:
		if st.Step != model.StepAwaitingConfirm {
			return model.Reply{Text: "That step is done. Send a new request or /cancel."}
		}
		return o.confirm(ctx, st)
	case ActionConfirmReview:
		return o.confirmReview(st)
	case ActionPlaceOrder:
		if st.Step != model.StepQuoteReceived {
			return model.Reply{Text: "There's no quote to place yet."}
		}
		return o.placeOrder(ctx, st)
	default:
		return model.Reply{Text: "I don't know that action."}
	}
}

// cancel clears the conversation from any non-terminal step.
func (o *Orchestrator) cancel(userID string) model.Reply {
	if err := o.store.ClearConversationState(userID); err != nil {
		log.Printf("[ERROR] orchestrator: clear state for %s: %v", userID, err)
	}
	return model.Reply{Text: "Cancelled. Nothing was executed."}
}

// confirmationPrompt renders the pre-quote summary with confirm/cancel.
func (o *Orchestrator) confirmationPrompt(st *model.ConversationState) model.Reply {
	return model.Reply{
		Text: notifier.FormatCommandSummary(st.Command, st.SettleAddress),
		Actions: []model.Action{
			{Label: "✅ Confirm", Data: ActionConfirm},
			{Label: "❌ Cancel", Data: ActionCancel},
		},
	}
}

// confirm requests a quote from the venue. A quote failure is reported
// verbatim and the step stays AwaitingConfirmation so confirm is retryable.
func (o *Orchestrator) confirm(ctx context.Context, st *model.ConversationState) model.Reply {
	switch st.Intent {
	case model.IntentPortfolio:
		return o.confirmPortfolio(ctx, st)
	case model.IntentCheckout:
		return o.completeCheckout(st)
	}

	sw := st.Command.Swap
	amount, err := o.resolveDepositAmount(ctx, st.UserID, sw)
	if err != nil {
		return model.Reply{Text: "❌ " + err.Error(), Actions: retryActions()}
	}

	quote, err := o.venue.CreateQuote(ctx, exchange.QuoteRequest{
		FromAsset:   sw.FromAsset,
		FromNetwork: sw.FromChain,
		ToAsset:     sw.ToAsset,
		ToNetwork:   sw.ToChain,
		Amount:      amount,
	})
	if err != nil {
		return model.Reply{Text: "❌ Quote failed: " + err.Error(), Actions: retryActions()}
	}
	if quote.Error != "" {
		return model.Reply{Text: "❌ Quote failed: " + quote.Error, Actions: retryActions()}
	}

	st.QuoteID = quote.ID
	st.SettleAmount = quote.SettleAmount
	st.Step = model.StepQuoteReceived
	if err := o.store.SetConversationState(st); err != nil {
		log.Printf("[ERROR] orchestrator: save state for %s: %v", st.UserID, err)
		return model.Reply{Text: "I couldn't save the conversation. Try again."}
	}

	return model.Reply{
		Text: notifier.FormatQuote(quote),
		Actions: []model.Action{
			{Label: "🚀 Place order", Data: ActionPlaceOrder},
			{Label: "❌ Cancel", Data: ActionCancel},
		},
	}
}

func retryActions() []model.Action {
	return []model.Action{
		{Label: "🔁 Retry", Data: ActionConfirm},
		{Label: "❌ Cancel", Data: ActionCancel},
	}
}

// confirmPortfolio fans out one quote per allocation. A single leg's
// failure is reported inline and does not abort the remaining legs.
func (o *Orchestrator) confirmPortfolio(ctx context.Context, st *model.ConversationState) model.Reply {
	pd := st.Command.Portfolio
	total, err := o.resolveDepositAmount(ctx, st.UserID, &model.SwapDetails{
		FromAsset:  pd.FromAsset,
		FromChain:  pd.FromChain,
		Amount:     pd.Amount,
		AmountType: pd.AmountType,
	})
	if err != nil {
		return model.Reply{Text: "❌ " + err.Error(), Actions: retryActions()}
	}

	var legs []notifier.PortfolioLeg
	var quoteIDs []string
	for _, alloc := range pd.Allocations {
		legAmount := total * alloc.Percentage / 100
		quote, err := o.venue.CreateQuote(ctx, exchange.QuoteRequest{
			FromAsset:   pd.FromAsset,
			FromNetwork: pd.FromChain,
			ToAsset:     alloc.ToAsset,
			ToNetwork:   alloc.ToChain,
			Amount:      legAmount,
		})
		leg := notifier.PortfolioLeg{ToAsset: alloc.ToAsset, Percentage: alloc.Percentage, Amount: legAmount}
		switch {
		case err != nil:
			leg.Err = err.Error()
		case quote.Error != "":
			leg.Err = quote.Error
		default:
			leg.Quote = quote
			quoteIDs = append(quoteIDs, quote.ID)
		}
		legs = append(legs, leg)
	}

	if len(quoteIDs) == 0 {
		return model.Reply{Text: notifier.FormatPortfolioReview(pd, legs) + "\n\nNo leg could be quoted; nothing to place.", Actions: retryActions()}
	}

	st.QuoteID = strings.Join(quoteIDs, ",")
	st.Step = model.StepQuoteReceived
	st.ReviewConfirmed = false
	if err := o.store.SetConversationState(st); err != nil {
		log.Printf("[ERROR] orchestrator: save state for %s: %v", st.UserID, err)
		return model.Reply{Text: "I couldn't save the conversation. Try again."}
	}

	return model.Reply{
		Text: notifier.FormatPortfolioReview(pd, legs),
		Actions: []model.Action{
			{Label: "👍 Looks good", Data: ActionConfirmReview},
			{Label: "❌ Cancel", Data: ActionCancel},
		},
	}
}

// confirmReview records an explicit portfolio review confirmation; only
// then may portfolio orders be placed.
func (o *Orchestrator) confirmReview(st *model.ConversationState) model.Reply {
	if st.Intent != model.IntentPortfolio || st.Step != model.StepQuoteReceived {
		return model.Reply{Text: "There's no portfolio review pending."}
	}
	st.ReviewConfirmed = true
	if err := o.store.SetConversationState(st); err != nil {
		log.Printf("[ERROR] orchestrator: save state for %s: %v", st.UserID, err)
		return model.Reply{Text: "I couldn't save the conversation. Try again."}
	}
	return model.Reply{
		Text: "Review confirmed. Ready to place the orders?",
		Actions: []model.Action{
			{Label: "🚀 Place orders", Data: ActionPlaceOrder},
			{Label: "❌ Cancel", Data: ActionCancel},
		},
	}
}

// placeOrder submits the held quote(s). Failure leaves the step unchanged
// so placement can be retried; success is terminal.
func (o *Orchestrator) placeOrder(ctx context.Context, st *model.ConversationState) model.Reply {
	refund, err := o.store.LookupAddress(st.UserID, "refund")
	if err != nil {
		log.Printf("[WARN] orchestrator: refund lookup for %s: %v", st.UserID, err)
	}

	if st.Intent == model.IntentPortfolio {
		if !st.ReviewConfirmed {
			return model.Reply{
				Text: "Please confirm the portfolio review first.",
				Actions: []model.Action{
					{Label: "👍 Looks good", Data: ActionConfirmReview},
					{Label: "❌ Cancel", Data: ActionCancel},
				},
			}
		}
		return o.placePortfolioOrders(ctx, st, refund)
	}

	order, err := o.venue.CreateOrder(ctx, st.QuoteID, st.SettleAddress, refund)
	if err != nil {
		return model.Reply{
			Text: "❌ Order failed: " + err.Error(),
			Actions: []model.Action{
				{Label: "🔁 Retry", Data: ActionPlaceOrder},
				{Label: "❌ Cancel", Data: ActionCancel},
			},
		}
	}

	if err := o.store.WatchOrder(order.ID, st.UserID); err != nil {
		log.Printf("[WARN] orchestrator: watch order %s: %v", order.ID, err)
	}
	if err := o.store.ClearConversationState(st.UserID); err != nil {
		log.Printf("[WARN] orchestrator: clear state for %s: %v", st.UserID, err)
	}
	return model.Reply{Text: notifier.FormatOrderPlaced(order, st.SettleAmount, settleCoin(st.Command))}
}

func (o *Orchestrator) placePortfolioOrders(ctx context.Context, st *model.ConversationState, refund string) model.Reply {
	var b strings.Builder
	b.WriteString("📦 <b>Portfolio orders</b>\n\n")
	placed := 0
	for _, quoteID := range strings.Split(st.QuoteID, ",") {
		order, err := o.venue.CreateOrder(ctx, quoteID, st.SettleAddress, refund)
		if err != nil {
			b.WriteString(fmt.Sprintf("❌ quote %s: %v\n", quoteID, err))
			continue
		}
		placed++
		b.WriteString(fmt.Sprintf("✅ order %s — deposit to <code>%s</code>\n", order.ID, order.DepositAddress.Address))
		if err := o.store.WatchOrder(order.ID, st.UserID); err != nil {
			log.Printf("[WARN] orchestrator: watch order %s: %v", order.ID, err)
		}
	}
	if placed > 0 {
		if err := o.store.ClearConversationState(st.UserID); err != nil {
			log.Printf("[WARN] orchestrator: clear state for %s: %v", st.UserID, err)
		}
	}
	return model.Reply{Text: b.String()}
}

// completeCheckout renders the payment request. No venue call is needed:
// a checkout is an instruction to the payer, not a shift.
func (o *Orchestrator) completeCheckout(st *model.ConversationState) model.Reply {
	co := st.Command.Checkout
	if err := o.store.ClearConversationState(st.UserID); err != nil {
		log.Printf("[WARN] orchestrator: clear state for %s: %v", st.UserID, err)
	}
	return model.Reply{Text: notifier.FormatCheckout(co)}
}

// createLimitOrder persists the standing order directly after address
// collection, with no immediate quote. Percentage, "all" and quote amounts
// are resolved against the balance now, at creation time; the worker quotes
// the stored quantity as an absolute deposit when the trigger fires.
func (o *Orchestrator) createLimitOrder(ctx context.Context, st *model.ConversationState, via string) model.Reply {
	sw := st.Command.Swap
	cond := st.Command.Condition

	amount, err := o.resolveDepositAmount(ctx, st.UserID, sw)
	if err != nil {
		return model.Reply{Text: "❌ " + err.Error()}
	}

	condType := model.ConditionBelow
	if cond.Operator == model.CondAbove {
		condType = model.ConditionAbove
	}
	order := &model.LimitOrder{
		ID:             uuid.NewString(),
		UserID:         st.UserID,
		FromAsset:      sw.FromAsset,
		FromNetwork:    sw.FromChain,
		ToAsset:        sw.ToAsset,
		ToNetwork:      sw.ToChain,
		Amount:         amount,
		ConditionAsset: cond.Asset,
		ConditionType:  condType,
		TargetPrice:    cond.Value,
		Status:         model.OrderPending,
		SettleAddress:  st.SettleAddress,
	}
	if err := o.store.CreateLimitOrder(order); err != nil {
		log.Printf("[ERROR] orchestrator: create limit order for %s: %v", st.UserID, err)
		return model.Reply{Text: "❌ I couldn't save the limit order. Try again."}
	}
	if err := o.store.ClearConversationState(st.UserID); err != nil {
		log.Printf("[WARN] orchestrator: clear state for %s: %v", st.UserID, err)
	}
	return model.Reply{Text: fmt.Sprintf("✅ Address set (%s).\n\n%s", via, notifier.FormatLimitOrderCreated(order))}
}

// createPlan persists a recurring buy started by the /dca command.
func (o *Orchestrator) createPlan(st *model.ConversationState, via string) model.Reply {
	sw := st.Command.Swap
	plan := &model.AccumulationPlan{
		ID:            uuid.NewString(),
		UserID:        st.UserID,
		FromAsset:     sw.FromAsset,
		ToAsset:       sw.ToAsset,
		Amount:        sw.Amount,
		FrequencyDays: st.FrequencyDays,
		NextRun:       time.Now(),
		Status:        model.PlanActive,
		SettleAddress: st.SettleAddress,
	}
	if err := o.store.CreatePlan(plan); err != nil {
		log.Printf("[ERROR] orchestrator: create plan for %s: %v", st.UserID, err)
		return model.Reply{Text: "❌ I couldn't save the plan. Try again."}
	}
	if err := o.store.ClearConversationState(st.UserID); err != nil {
		log.Printf("[WARN] orchestrator: clear state for %s: %v", st.UserID, err)
	}
	return model.Reply{Text: fmt.Sprintf("✅ Address set (%s).\n\n%s", via, notifier.FormatPlanCreated(plan))}
}

// resolveDepositAmount turns the command's amount signal into an absolute
// deposit quantity: exact amounts pass through, percentages and "all" need
// the wallet balance, quote amounts need live prices.
func (o *Orchestrator) resolveDepositAmount(ctx context.Context, userID string, sw *model.SwapDetails) (float64, error) {
	switch sw.AmountType {
	case model.AmountExact:
		if sw.Amount > 0 {
			return sw.Amount, nil
		}
	case model.AmountPercentage:
		balance, err := o.wallet.Balance(ctx, userID, sw.FromAsset, sw.FromChain)
		if err != nil {
			return 0, balanceError(sw.FromAsset, err)
		}
		return balance * sw.Amount / 100, nil
	case model.AmountAll:
		balance, err := o.wallet.Balance(ctx, userID, sw.FromAsset, sw.FromChain)
		if err != nil {
			return 0, balanceError(sw.FromAsset, err)
		}
		if sw.ExcludeToken == "" || sw.ExcludeToken == sw.FromAsset {
			balance -= sw.ExcludeAmount
		}
		if balance <= 0 {
			return 0, fmt.Errorf("nothing left to swap after keeping %g %s", sw.ExcludeAmount, sw.ExcludeToken)
		}
		return balance, nil
	}

	if sw.QuoteAmount > 0 {
		return o.convertQuoteAmount(ctx, sw)
	}
	return 0, fmt.Errorf("no amount to swap was stated")
}

func balanceError(asset string, err error) error {
	if err == wallet.ErrUnavailable {
		return fmt.Errorf("I can't see your %s balance here; give me an exact amount instead", asset)
	}
	return fmt.Errorf("balance check failed: %v", err)
}

// convertQuoteAmount prices a value stated in another asset into the
// deposit asset's units.
func (o *Orchestrator) convertQuoteAmount(ctx context.Context, sw *model.SwapDetails) (float64, error) {
	symbols := []string{sw.FromAsset}
	if sw.QuoteAsset != "USD" {
		symbols = append(symbols, sw.QuoteAsset)
	}
	prices := o.feed.GetPrices(ctx, symbols)

	fromPrice, ok := prices[sw.FromAsset]
	if !ok || fromPrice <= 0 {
		return 0, fmt.Errorf("no live price for %s right now; try again shortly", sw.FromAsset)
	}
	if sw.QuoteAsset == "USD" {
		return sw.QuoteAmount / fromPrice, nil
	}
	quotePrice, ok := prices[sw.QuoteAsset]
	if !ok || quotePrice <= 0 {
		return 0, fmt.Errorf("no live price for %s right now; try again shortly", sw.QuoteAsset)
	}
	return sw.QuoteAmount * quotePrice / fromPrice, nil
}

func settleCoin(cmd *model.Command) string {
	if cmd != nil && cmd.Swap != nil {
		return cmd.Swap.ToAsset
	}
	return ""
}
