package validator

import (
	"fmt"
	"math"

	"SwapSentinel/internal/model"
)

// Penalty is the confidence cost of each missing or invalid required field.
const Penalty = 15

// AllocationTolerance is how far a portfolio's percentages may drift from 100.
const AllocationTolerance = 1.0

// Validate normalizes a command from either interpretation path and enforces
// the per-intent required-field rules. Every violation appends a message and
// reduces confidence; Actionable is set only when no violation remains.
// Validate never fails: the command itself carries the outcome.
func Validate(cmd *model.Command) {
	normalize(cmd)

	switch cmd.Intent {
	case model.IntentSwap:
		checkSwap(cmd, cmd.Swap)
	case model.IntentLimitOrder:
		checkSwap(cmd, cmd.Swap)
		checkCondition(cmd)
	case model.IntentPortfolio:
		checkPortfolio(cmd)
	case model.IntentCheckout:
		checkCheckout(cmd)
	case model.IntentYieldQuery:
		// No required fields: an asset narrows the answer but is optional.
	default:
		cmd.AddError("unrecognized command", Penalty)
	}

	cmd.Actionable = cmd.Recognized && len(cmd.ValidationErrors) == 0
	cmd.ClampConfidence()
}

// normalize makes every optional field explicitly present: variant payloads
// are never nil for their intent, and chains default from the asset symbol.
func normalize(cmd *model.Command) {
	switch cmd.Intent {
	case model.IntentSwap, model.IntentLimitOrder, model.IntentYieldQuery:
		if cmd.Swap == nil {
			cmd.Swap = &model.SwapDetails{}
		}
		if cmd.Swap.FromChain == "" {
			cmd.Swap.FromChain = model.DefaultNetwork(cmd.Swap.FromAsset)
		}
		if cmd.Swap.ToChain == "" {
			cmd.Swap.ToChain = model.DefaultNetwork(cmd.Swap.ToAsset)
		}
	case model.IntentPortfolio:
		if cmd.Portfolio == nil {
			cmd.Portfolio = &model.PortfolioDetails{}
		}
		if cmd.Portfolio.FromChain == "" {
			cmd.Portfolio.FromChain = model.DefaultNetwork(cmd.Portfolio.FromAsset)
		}
		for i := range cmd.Portfolio.Allocations {
			if cmd.Portfolio.Allocations[i].ToChain == "" {
				cmd.Portfolio.Allocations[i].ToChain = model.DefaultNetwork(cmd.Portfolio.Allocations[i].ToAsset)
			}
		}
	case model.IntentCheckout:
		if cmd.Checkout == nil {
			cmd.Checkout = &model.CheckoutDetails{}
		}
		if cmd.Checkout.SettleNetwork == "" {
			cmd.Checkout.SettleNetwork = model.DefaultNetwork(cmd.Checkout.SettleAsset)
		}
	}
	if cmd.Intent == model.IntentLimitOrder && cmd.Condition == nil {
		cmd.Condition = &model.PriceCondition{}
	}
}

func checkSwap(cmd *model.Command, sw *model.SwapDetails) {
	if sw.FromAsset == "" {
		cmd.AddError("missing source asset", Penalty)
	}
	if sw.ToAsset == "" {
		cmd.AddError("missing destination asset", Penalty)
	}
	if !amountStated(sw) {
		cmd.AddError("missing amount", Penalty)
	}
}

// amountStated reports whether any usable amount signal is present: an
// explicit quantity, a percentage, an "all" marker, or a quote amount.
func amountStated(sw *model.SwapDetails) bool {
	switch sw.AmountType {
	case model.AmountAll:
		return true
	case model.AmountPercentage, model.AmountExact:
		return sw.Amount > 0
	}
	return sw.QuoteAmount > 0
}

func checkCondition(cmd *model.Command) {
	if cmd.Condition.Value <= 0 {
		cmd.AddError("missing trigger price", Penalty)
	}
	if cmd.Condition.Operator == "" {
		cmd.AddError("missing trigger direction (above or below)", Penalty)
	}
}

func checkPortfolio(cmd *model.Command) {
	pd := cmd.Portfolio
	if pd.FromAsset == "" {
		cmd.AddError("missing source asset", Penalty)
	}
	if pd.AmountType == model.AmountUnset || (pd.AmountType != model.AmountAll && pd.Amount <= 0) {
		cmd.AddError("missing amount", Penalty)
	}
	if len(pd.Allocations) == 0 {
		cmd.AddError("missing allocation list", Penalty)
		return
	}
	total := 0.0
	for _, a := range pd.Allocations {
		total += a.Percentage
	}
	if math.Abs(total-100) > AllocationTolerance {
		cmd.AddError(fmt.Sprintf("allocations must sum to 100%%, got %.1f%%", total), Penalty)
	}
}

func checkCheckout(cmd *model.Command) {
	co := cmd.Checkout
	if co.SettleAsset == "" {
		cmd.AddError("missing settle asset", Penalty)
	}
	if co.SettleNetwork == "" && co.SettleAddress == "" {
		cmd.AddError("missing settle network or address", Penalty)
	}
	if co.SettleAmount <= 0 {
		cmd.AddError("missing settle amount", Penalty)
	}
}
