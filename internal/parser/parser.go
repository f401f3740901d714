package parser

import (
	"regexp"
	"strings"

	"SwapSentinel/internal/model"
)

// AcceptThreshold is the accumulated matcher weight at which a parse counts
// as recognized. Below it the caller falls back to the language model.
const AcceptThreshold = 60

// ErrMultipleSources is the validation message of an aborted parse. Naming
// two source assets is ambiguous, and the ambiguity is surfaced immediately
// rather than handed to the fallback interpreter.
const ErrMultipleSources = "multiple source assets named; specify a single asset to swap from"

// Ambiguous reports whether a command is the multi-source rejection result.
func Ambiguous(cmd *model.Command) bool {
	return !cmd.Recognized && len(cmd.ValidationErrors) > 0 &&
		cmd.ValidationErrors[0] == ErrMultipleSources
}

// matcher is one step of the cascade. It inspects the normalized text and
// writes into the working parse only fields that are not already set
// (first-match-wins). It returns the confidence weight it contributed,
// zero when it did not fire.
type matcher struct {
	name  string
	apply func(p *parse) int
}

// parse is the working state folded through the cascade.
type parse struct {
	text string // normalized input

	swap        model.SwapDetails
	allocations []model.Allocation
	condition   *model.PriceCondition
	intentHint  model.Intent

	abort    bool   // multi-source rejection fired
	abortMsg string
}

// cascade is the ordered, non-exhaustive matcher list. Order is load-bearing:
// the multi-source check invalidates everything after it, and amount-type
// matchers must run before the bare-amount fallback.
var cascade = []matcher{
	{"multi_source", rejectMultiSource},
	{"exclusion", matchExclusion},
	{"allocations", matchAllocations},
	{"percentage", matchPercentage},
	{"quote_amount", matchQuoteAmount},
	{"token_pair", matchTokenPair},
	{"bare_amount", matchBareAmount},
	{"conditional", matchConditional},
	{"intent_keyword", matchIntentKeyword},
}

var fillerRe = regexp.MustCompile(`(?i)\b(hey|please|kindly|like)\b`)
var spaceRe = regexp.MustCompile(`\s+`)

// normalize trims, lowercases and strips conversational filler.
func normalize(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = fillerRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// Parse runs the cascade over the input and returns a structured command.
// It is a pure function: identical input yields an identical command.
// Recognized is set only once the accumulated weight reaches AcceptThreshold;
// Actionable is always left false here, the validator adjudicates it.
func Parse(input string) *model.Command {
	p := &parse{text: normalize(input)}

	total := 0
	for _, m := range cascade {
		total += m.apply(p)
		if p.abort {
			cmd := &model.Command{
				Intent:        model.IntentUnknown,
				OriginalInput: input,
			}
			cmd.ValidationErrors = append(cmd.ValidationErrors, p.abortMsg)
			return cmd
		}
	}

	cmd := assemble(p, input)
	cmd.Confidence = total
	cmd.ClampConfidence()
	cmd.Recognized = total >= AcceptThreshold
	return cmd
}

// assemble picks the intent tag and moves the working fields into the
// matching variant payload.
func assemble(p *parse, input string) *model.Command {
	cmd := &model.Command{OriginalInput: input}

	// Condition asset defaults to the source asset when omitted.
	if p.condition != nil && p.condition.Asset == "" {
		p.condition.Asset = p.swap.FromAsset
	}

	switch {
	case p.condition != nil:
		cmd.Intent = model.IntentLimitOrder
		sw := p.swap
		cmd.Swap = &sw
		cmd.Condition = p.condition
	case len(p.allocations) >= 2 || p.intentHint == model.IntentPortfolio:
		cmd.Intent = model.IntentPortfolio
		cmd.Portfolio = &model.PortfolioDetails{
			FromAsset:   p.swap.FromAsset,
			FromChain:   p.swap.FromChain,
			Amount:      p.swap.Amount,
			AmountType:  p.swap.AmountType,
			Allocations: p.allocations,
		}
	case p.intentHint == model.IntentCheckout:
		cmd.Intent = model.IntentCheckout
		asset := p.swap.ToAsset
		if asset == "" {
			asset = p.swap.FromAsset
		}
		cmd.Checkout = &model.CheckoutDetails{
			SettleAsset:   asset,
			SettleNetwork: model.DefaultNetwork(asset),
			SettleAmount:  p.swap.Amount,
		}
	case p.intentHint == model.IntentYieldQuery:
		cmd.Intent = model.IntentYieldQuery
		sw := p.swap
		cmd.Swap = &sw
	default:
		cmd.Intent = model.IntentSwap
		sw := p.swap
		cmd.Swap = &sw
	}
	return cmd
}
