package validator

import (
	"fmt"

	"SwapSentinel/internal/model"
)

// missingField identifies which required field the helper should ask about.
type missingField int

const (
	fieldNone missingField = iota
	fieldAmount
	fieldFromAsset
	fieldToAsset
	fieldAllocation
)

// highestPriorityMissing picks the single field to ask about. Priority:
// amount > source asset > destination asset > allocation. One question at a
// time, always.
func highestPriorityMissing(cmd *model.Command) missingField {
	switch cmd.Intent {
	case model.IntentSwap, model.IntentLimitOrder:
		sw := cmd.Swap
		if sw == nil {
			return fieldAmount
		}
		if !amountStated(sw) {
			return fieldAmount
		}
		if sw.FromAsset == "" {
			return fieldFromAsset
		}
		if sw.ToAsset == "" {
			return fieldToAsset
		}
	case model.IntentPortfolio:
		pd := cmd.Portfolio
		if pd == nil {
			return fieldAmount
		}
		if pd.AmountType == model.AmountUnset || (pd.AmountType != model.AmountAll && pd.Amount <= 0) {
			return fieldAmount
		}
		if pd.FromAsset == "" {
			return fieldFromAsset
		}
		if len(pd.Allocations) == 0 {
			return fieldAllocation
		}
	case model.IntentCheckout:
		co := cmd.Checkout
		if co == nil || co.SettleAmount <= 0 {
			return fieldAmount
		}
		if co.SettleAsset == "" {
			return fieldFromAsset
		}
	}
	return fieldNone
}

// ClarifyingQuestion produces the single highest-priority question plus a
// worked example. Voice input gets plain spoken text; otherwise the example
// is formatted as a command the user can copy. Returns false when nothing is
// missing.
func ClarifyingQuestion(cmd *model.Command, voice bool) (string, bool) {
	field := highestPriorityMissing(cmd)
	if field == fieldNone {
		return "", false
	}

	var question, example string
	switch field {
	case fieldAmount:
		question = "How much would you like to swap?"
		example = "swap 0.5 ETH to BTC"
		if cmd.Intent == model.IntentCheckout {
			question = "What amount should the checkout settle for?"
			example = "create a checkout for 100 USDC"
		}
	case fieldFromAsset:
		question = "Which asset are you swapping from?"
		example = "swap 50% of my ETH to BTC"
		if cmd.Intent == model.IntentCheckout {
			question = "Which asset should the checkout settle in?"
			example = "create a checkout for 100 USDC"
		}
	case fieldToAsset:
		question = "Which asset would you like to receive?"
		example = "swap 0.5 ETH to BTC"
	case fieldAllocation:
		question = "How should the amount be split?"
		example = "split 1000 USDC into 60% BTC and 40% ETH"
	}

	if voice {
		return fmt.Sprintf("%s For example, say: %s.", question, example), true
	}
	return fmt.Sprintf("%s\n\nExample: <code>%s</code>", question, example), true
}
