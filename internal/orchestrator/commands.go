package orchestrator

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"SwapSentinel/internal/model"
	"SwapSentinel/internal/notifier"
)

const helpText = `👋 <b>SwapSentinel</b> — tell me what you want in plain words.

Examples:
• <code>Swap 0.5 ETH to BTC</code>
• <code>Convert half my SOL into USDC on polygon</code>
• <code>Sell 1 ETH for USDC if price goes above $4k</code>
• <code>Split 2 ETH 50% BTC 30% SOL 20% USDC</code>

Commands:
/orders — list your standing orders and plans
/dca &lt;amount&gt; &lt;FROM&gt; to &lt;TO&gt; every &lt;N&gt; days — recurring buy
/pause &lt;id&gt; · /resume &lt;id&gt; — pause or resume a plan
/cancelorder &lt;id&gt; — cancel a pending limit order
/cancel — abandon the current conversation`

// dcaRe matches "/dca 100 USDC to BTC every 7 days".
var dcaRe = regexp.MustCompile(`(?i)^/dca\s+(\d+(?:\.\d+)?)\s+([a-z0-9]{2,6})\s+(?:to|into)\s+([a-z0-9]{2,6})\s+every\s+(\d+)\s+days?$`)

func (o *Orchestrator) handleSlashCommand(ctx context.Context, userID, text string) model.Reply {
	cmd := strings.ToLower(strings.Fields(text)[0])
	arg := strings.TrimSpace(strings.TrimPrefix(text, strings.Fields(text)[0]))

	switch cmd {
	case "/start", "/help":
		return model.Reply{Text: helpText}
	case "/cancel":
		return o.cancel(userID)
	case "/orders":
		return o.listStanding(userID)
	case "/dca":
		return o.startPlan(userID, text)
	case "/pause":
		return o.setPlanStatus(userID, arg, model.PlanPaused, "⏸ Plan paused.")
	case "/resume":
		return o.setPlanStatus(userID, arg, model.PlanActive, "▶️ Plan resumed.")
	case "/cancelorder":
		return o.cancelLimitOrder(userID, arg)
	default:
		return model.Reply{Text: "Unknown command. Try /help."}
	}
}

func (o *Orchestrator) listStanding(userID string) model.Reply {
	orders, err := o.store.UserLimitOrders(userID)
	if err != nil {
		log.Printf("[ERROR] orchestrator: list orders for %s: %v", userID, err)
		return model.Reply{Text: "I couldn't read your orders. Try again."}
	}
	plans, err := o.store.UserPlans(userID)
	if err != nil {
		log.Printf("[ERROR] orchestrator: list plans for %s: %v", userID, err)
		return model.Reply{Text: "I couldn't read your plans. Try again."}
	}
	return model.Reply{Text: notifier.FormatStandingOrders(orders, plans)}
}

// startPlan parses the /dca shorthand and opens an address-collection
// dialogue for the new plan.
func (o *Orchestrator) startPlan(userID, text string) model.Reply {
	m := dcaRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return model.Reply{Text: "Usage: <code>/dca 100 USDC to BTC every 7 days</code>"}
	}
	amount, _ := strconv.ParseFloat(m[1], 64)
	days, _ := strconv.Atoi(m[4])
	if amount <= 0 || days <= 0 {
		return model.Reply{Text: "Amount and frequency must both be positive."}
	}

	from := strings.ToUpper(m[2])
	to := strings.ToUpper(m[3])
	st := &model.ConversationState{
		UserID: userID,
		Intent: model.IntentAccumulation,
		Step:   model.StepAwaitingAddress,
		Command: &model.Command{
			Intent:     model.IntentAccumulation,
			Recognized: true,
			Actionable: true,
			Swap: &model.SwapDetails{
				FromAsset:  from,
				FromChain:  model.DefaultNetwork(from),
				ToAsset:    to,
				ToChain:    model.DefaultNetwork(to),
				Amount:     amount,
				AmountType: model.AmountExact,
			},
		},
		FrequencyDays: days,
	}
	if err := o.store.SetConversationState(st); err != nil {
		log.Printf("[ERROR] orchestrator: save state for %s: %v", userID, err)
		return model.Reply{Text: "I couldn't save the conversation. Try again."}
	}
	return model.Reply{Text: fmt.Sprintf(
		"Recurring buy: %g %s → %s every %d days.\n\n%s",
		amount, from, to, days, addressPrompt(st.Command))}
}

func (o *Orchestrator) setPlanStatus(userID, id string, status model.PlanStatus, done string) model.Reply {
	if id == "" {
		return model.Reply{Text: "Give me the plan id, see /orders."}
	}
	ok, err := o.store.SetPlanStatus(id, userID, status)
	if err != nil {
		log.Printf("[ERROR] orchestrator: set plan %s status for %s: %v", id, userID, err)
		return model.Reply{Text: "I couldn't update the plan. Try again."}
	}
	if !ok {
		return model.Reply{Text: "No such plan, see /orders for yours."}
	}
	return model.Reply{Text: done}
}

func (o *Orchestrator) cancelLimitOrder(userID, id string) model.Reply {
	if id == "" {
		return model.Reply{Text: "Give me the order id, see /orders."}
	}
	ok, err := o.store.CancelLimitOrder(id, userID)
	if err != nil {
		log.Printf("[ERROR] orchestrator: cancel order %s for %s: %v", id, userID, err)
		return model.Reply{Text: "I couldn't cancel the order. Try again."}
	}
	if !ok {
		return model.Reply{Text: "No such pending order, see /orders for yours."}
	}
	return model.Reply{Text: "🗑 Limit order cancelled."}
}
