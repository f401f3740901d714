package notifier

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"SwapSentinel/internal/exchange"
	"SwapSentinel/internal/model"
)

// PortfolioLeg is one allocation of a portfolio review: either a quote or
// the reason it could not be obtained.
type PortfolioLeg struct {
	ToAsset    string
	Percentage float64
	Amount     float64
	Quote      *exchange.Quote
	Err        string
}

func amt(v float64) string {
	return humanize.CommafWithDigits(v, 6)
}

// FormatCommandSummary renders the pre-quote confirmation for a command.
func FormatCommandSummary(cmd *model.Command, settleAddress string) string {
	var b strings.Builder
	switch cmd.Intent {
	case model.IntentSwap:
		sw := cmd.Swap
		b.WriteString("🔄 <b>Swap</b>\n\n")
		b.WriteString(fmt.Sprintf("From: %s %s (%s)\n", amountPhrase(sw), sw.FromAsset, sw.FromChain))
		b.WriteString(fmt.Sprintf("To: %s (%s)\n", sw.ToAsset, sw.ToChain))
	case model.IntentLimitOrder:
		sw, cond := cmd.Swap, cmd.Condition
		b.WriteString("⏰ <b>Limit order</b>\n\n")
		b.WriteString(fmt.Sprintf("Trade: %s %s → %s\n", amountPhrase(sw), sw.FromAsset, sw.ToAsset))
		b.WriteString(fmt.Sprintf("Trigger: %s price %s $%s\n", cond.Asset, operatorWord(cond.Operator), amt(cond.Value)))
	case model.IntentPortfolio:
		pd := cmd.Portfolio
		b.WriteString("📦 <b>Portfolio split</b>\n\n")
		b.WriteString(fmt.Sprintf("From: %s %s (%s)\n", portfolioAmountPhrase(pd), pd.FromAsset, pd.FromChain))
		for _, a := range pd.Allocations {
			b.WriteString(fmt.Sprintf("• %.0f%% → %s (%s)\n", a.Percentage, a.ToAsset, a.ToChain))
		}
	case model.IntentCheckout:
		co := cmd.Checkout
		b.WriteString("🧾 <b>Checkout</b>\n\n")
		b.WriteString(fmt.Sprintf("Receive: %s %s on %s\n", amt(co.SettleAmount), co.SettleAsset, co.SettleNetwork))
	}
	if settleAddress != "" {
		b.WriteString(fmt.Sprintf("Destination: <code>%s</code>\n", settleAddress))
	}
	b.WriteString("\nGo ahead?")
	return b.String()
}

func amountPhrase(sw *model.SwapDetails) string {
	switch sw.AmountType {
	case model.AmountAll:
		if sw.ExcludeAmount > 0 {
			return fmt.Sprintf("all (keeping %s %s)", amt(sw.ExcludeAmount), sw.ExcludeToken)
		}
		return "all"
	case model.AmountPercentage:
		return fmt.Sprintf("%.0f%% of", sw.Amount)
	}
	if sw.QuoteAmount > 0 {
		return fmt.Sprintf("%s %s worth of", amt(sw.QuoteAmount), sw.QuoteAsset)
	}
	return amt(sw.Amount)
}

func portfolioAmountPhrase(pd *model.PortfolioDetails) string {
	switch pd.AmountType {
	case model.AmountAll:
		return "all"
	case model.AmountPercentage:
		return fmt.Sprintf("%.0f%% of", pd.Amount)
	}
	return amt(pd.Amount)
}

func operatorWord(op model.ConditionOperator) string {
	if op == model.CondAbove {
		return "above"
	}
	return "below"
}

// FormatQuote renders a received quote with its rate.
func FormatQuote(q *exchange.Quote) string {
	var b strings.Builder
	b.WriteString("💱 <b>Quote</b>\n\n")
	b.WriteString(fmt.Sprintf("Send: %s %s\n", amt(q.DepositAmount), q.DepositCoin))
	b.WriteString(fmt.Sprintf("Receive: %s %s\n", amt(q.SettleAmount), q.SettleCoin))
	b.WriteString(fmt.Sprintf("Rate: 1 %s = %s %s\n", q.DepositCoin, amt(q.Rate), q.SettleCoin))
	b.WriteString("\nQuotes are fixed-rate and expire after a few minutes.")
	return b.String()
}

// FormatOrderPlaced renders the terminal message of a completed dialogue.
func FormatOrderPlaced(o *exchange.Order, settleAmount float64, settleCoin string) string {
	var b strings.Builder
	b.WriteString("🚀 <b>Order placed</b>\n\n")
	b.WriteString(fmt.Sprintf("Order: <code>%s</code>\n", o.ID))
	b.WriteString(fmt.Sprintf("Deposit to: <code>%s</code>\n", o.DepositAddress.Address))
	if o.DepositAddress.Memo != "" {
		b.WriteString(fmt.Sprintf("Memo: <code>%s</code>\n", o.DepositAddress.Memo))
	}
	if settleAmount > 0 && settleCoin != "" {
		b.WriteString(fmt.Sprintf("You'll receive: %s %s\n", amt(settleAmount), settleCoin))
	}
	b.WriteString("\nI'll let you know when it settles.")
	return b.String()
}

// FormatCheckout renders a payment request to show the payer.
func FormatCheckout(co *model.CheckoutDetails) string {
	var b strings.Builder
	b.WriteString("🧾 <b>Payment request</b>\n\n")
	b.WriteString(fmt.Sprintf("Amount: %s %s\n", amt(co.SettleAmount), co.SettleAsset))
	b.WriteString(fmt.Sprintf("Network: %s\n", co.SettleNetwork))
	b.WriteString(fmt.Sprintf("Address: <code>%s</code>\n", co.SettleAddress))
	b.WriteString("\nShare this with whoever is paying. They can pay in any asset the exchange supports.")
	return b.String()
}

// FormatLimitOrderCreated confirms a standing order.
func FormatLimitOrderCreated(o *model.LimitOrder) string {
	var b strings.Builder
	b.WriteString("⏰ <b>Limit order created</b>\n\n")
	b.WriteString(fmt.Sprintf("ID: <code>%s</code>\n", o.ID))
	b.WriteString(fmt.Sprintf("Trade: %s %s → %s\n", amt(o.Amount), o.FromAsset, o.ToAsset))
	b.WriteString(fmt.Sprintf("Trigger: %s price %s $%s\n", o.ConditionAsset, o.ConditionType, amt(o.TargetPrice)))
	b.WriteString("\nI check prices every minute and will execute once the trigger fires.")
	return b.String()
}

// FormatPlanCreated confirms a recurring buy.
func FormatPlanCreated(p *model.AccumulationPlan) string {
	var b strings.Builder
	b.WriteString("📈 <b>Recurring buy created</b>\n\n")
	b.WriteString(fmt.Sprintf("ID: <code>%s</code>\n", p.ID))
	b.WriteString(fmt.Sprintf("Buy: %s %s worth of %s every %d days\n", amt(p.Amount), p.FromAsset, p.ToAsset, p.FrequencyDays))
	b.WriteString("\nAmounts flex with the market: dips buy more, spikes buy less.")
	return b.String()
}

// FormatStandingOrders lists a user's limit orders and plans.
func FormatStandingOrders(orders []*model.LimitOrder, plans []*model.AccumulationPlan) string {
	if len(orders) == 0 && len(plans) == 0 {
		return "No standing orders or plans. Try <code>Sell 1 ETH for USDC if price goes above $4k</code> or /dca."
	}
	var b strings.Builder
	if len(orders) > 0 {
		b.WriteString("⏰ <b>Limit orders</b>\n")
		for _, o := range orders {
			b.WriteString(fmt.Sprintf("• <code>%s</code> — %s %s → %s when %s %s $%s [%s]\n",
				o.ID, amt(o.Amount), o.FromAsset, o.ToAsset,
				o.ConditionAsset, o.ConditionType, amt(o.TargetPrice), o.Status))
		}
	}
	if len(plans) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("📈 <b>Recurring buys</b>\n")
		for _, p := range plans {
			b.WriteString(fmt.Sprintf("• <code>%s</code> — %s %s → %s every %d days, next %s [%s]\n",
				p.ID, amt(p.Amount), p.FromAsset, p.ToAsset, p.FrequencyDays,
				p.NextRun.Format("2006-01-02"), p.Status))
		}
	}
	return b.String()
}

// FormatPortfolioReview renders the quoted legs of a split, including the
// ones that failed to quote.
func FormatPortfolioReview(pd *model.PortfolioDetails, legs []PortfolioLeg) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>Portfolio review</b> — splitting %s\n\n", pd.FromAsset))
	for _, leg := range legs {
		if leg.Err != "" {
			b.WriteString(fmt.Sprintf("❌ %.0f%% → %s: %s\n", leg.Percentage, leg.ToAsset, leg.Err))
			continue
		}
		b.WriteString(fmt.Sprintf("✅ %.0f%% → %s: send %s %s, receive %s %s\n",
			leg.Percentage, leg.ToAsset,
			amt(leg.Quote.DepositAmount), leg.Quote.DepositCoin,
			amt(leg.Quote.SettleAmount), leg.Quote.SettleCoin))
	}
	b.WriteString("\nReview the legs above before placing.")
	return b.String()
}

// FormatTriggerExecuted is sent by the limit-order worker when a standing
// order fires.
func FormatTriggerExecuted(o *model.LimitOrder, price float64, order *exchange.Order) string {
	var b strings.Builder
	b.WriteString("🔔 <b>Limit order triggered</b>\n\n")
	b.WriteString(fmt.Sprintf("%s hit $%s (%s $%s)\n", o.ConditionAsset, amt(price), o.ConditionType, amt(o.TargetPrice)))
	b.WriteString(fmt.Sprintf("Placed: %s %s → %s\n", amt(o.Amount), o.FromAsset, o.ToAsset))
	b.WriteString(fmt.Sprintf("Order: <code>%s</code>\n", order.ID))
	b.WriteString(fmt.Sprintf("Deposit to: <code>%s</code>\n", order.DepositAddress.Address))
	return b.String()
}

// FormatTriggerFailed is sent when a fired order could not be placed.
func FormatTriggerFailed(o *model.LimitOrder, reason string) string {
	return fmt.Sprintf("⚠️ Limit order <code>%s</code> (%s %s → %s) triggered but failed: %s",
		o.ID, amt(o.Amount), o.FromAsset, o.ToAsset, reason)
}

// FormatPlanExecuted is sent by the accumulation worker after a scheduled buy.
func FormatPlanExecuted(p *model.AccumulationPlan, spent float64, change24h float64, order *exchange.Order) string {
	var b strings.Builder
	b.WriteString("📈 <b>Recurring buy executed</b>\n\n")
	b.WriteString(fmt.Sprintf("Bought %s with %s %s (24h change %+.1f%%)\n", p.ToAsset, amt(spent), p.FromAsset, change24h))
	b.WriteString(fmt.Sprintf("Order: <code>%s</code>\n", order.ID))
	b.WriteString(fmt.Sprintf("Deposit to: <code>%s</code>\n", order.DepositAddress.Address))
	b.WriteString(fmt.Sprintf("Next run: %s\n", p.NextRun.Format("2006-01-02")))
	return b.String()
}

// FormatOrderSettled is sent by the status watcher when a placed order
// reaches a terminal venue status.
func FormatOrderSettled(state *exchange.OrderState) string {
	switch state.Status {
	case "settled":
		return fmt.Sprintf("✅ Order <code>%s</code> settled: %s %s delivered.", state.ID, amt(state.SettleAmount), state.SettleCoin)
	case "refunded":
		return fmt.Sprintf("↩️ Order <code>%s</code> was refunded.", state.ID)
	case "expired":
		return fmt.Sprintf("⌛ Order <code>%s</code> expired before a deposit arrived.", state.ID)
	}
	return ""
}
