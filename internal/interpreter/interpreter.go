package interpreter

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"SwapSentinel/internal/model"
)

// FallbackMessage is the fixed error surfaced when the model path fails.
const FallbackMessage = "I couldn't work out what you meant. Try something like: swap 0.5 ETH to BTC"

// Interpreter is the probabilistic fallback invoked when the pattern cascade
// stays below its acceptance threshold. The chat client is injected, never
// ambient.
type Interpreter struct {
	client ChatClient
}

// New creates an Interpreter around the given chat client.
func New(client ChatClient) *Interpreter {
	return &Interpreter{client: client}
}

// llmCommand is the JSON shape the model is instructed to produce.
type llmCommand struct {
	Intent        string  `json:"intent"`
	FromAsset     string  `json:"fromAsset"`
	FromChain     string  `json:"fromChain"`
	ToAsset       string  `json:"toAsset"`
	ToChain       string  `json:"toChain"`
	Amount        float64 `json:"amount"`
	AmountType    string  `json:"amountType"`
	ExcludeAmount float64 `json:"excludeAmount"`
	ExcludeToken  string  `json:"excludeToken"`
	QuoteAmount   float64 `json:"quoteAmount"`
	QuoteAsset    string  `json:"quoteAsset"`
	Allocations   []struct {
		ToAsset    string  `json:"toAsset"`
		ToChain    string  `json:"toChain"`
		Percentage float64 `json:"percentage"`
	} `json:"allocations"`
	ConditionAsset    string  `json:"conditionAsset"`
	ConditionOperator string  `json:"conditionOperator"`
	ConditionValue    float64 `json:"conditionValue"`
	SettleAsset       string  `json:"settleAsset"`
	SettleNetwork     string  `json:"settleNetwork"`
	SettleAmount      float64 `json:"settleAmount"`
	Confidence        int     `json:"confidence"`
}

// Interpret submits the user text plus prior turns to the language model and
// normalizes the reply into a structured command. Failures never escape this
// boundary: any network, model or extraction error yields a canonical
// unrecognized command carrying FallbackMessage.
func (i *Interpreter) Interpret(ctx context.Context, input string, history []Turn, voice bool) *model.Command {
	prompt := systemPrompt
	if voice {
		prompt += voiceAddendum
	}

	reply, err := i.client.Complete(ctx, prompt, history, input)
	if err != nil {
		log.Printf("[WARN] fallback interpreter: model call failed: %v", err)
		return failedCommand(input)
	}

	raw, err := ExtractJSON(reply)
	if err != nil {
		log.Printf("[WARN] fallback interpreter: %v", err)
		return failedCommand(input)
	}

	var lc llmCommand
	if err := json.Unmarshal(raw, &lc); err != nil {
		log.Printf("[WARN] fallback interpreter: decode extracted object: %v", err)
		return failedCommand(input)
	}
	return toCommand(&lc, input)
}

func failedCommand(input string) *model.Command {
	return &model.Command{
		Intent:           model.IntentUnknown,
		Recognized:       false,
		Actionable:       false,
		OriginalInput:    input,
		ValidationErrors: []string{FallbackMessage},
	}
}

// toCommand maps the model's flat object into the tagged command shape used
// by the rest of the pipeline.
func toCommand(lc *llmCommand, input string) *model.Command {
	intent := model.Intent(strings.ToLower(lc.Intent))
	switch intent {
	case model.IntentSwap, model.IntentPortfolio, model.IntentCheckout,
		model.IntentLimitOrder, model.IntentYieldQuery:
	default:
		return failedCommand(input)
	}

	cmd := &model.Command{
		Intent:        intent,
		Confidence:    lc.Confidence,
		Recognized:    true,
		OriginalInput: input,
	}
	cmd.ClampConfidence()

	swap := &model.SwapDetails{
		FromAsset:     strings.ToUpper(lc.FromAsset),
		FromChain:     strings.ToLower(lc.FromChain),
		ToAsset:       strings.ToUpper(lc.ToAsset),
		ToChain:       strings.ToLower(lc.ToChain),
		Amount:        lc.Amount,
		AmountType:    model.AmountType(strings.ToLower(lc.AmountType)),
		ExcludeAmount: lc.ExcludeAmount,
		ExcludeToken:  strings.ToUpper(lc.ExcludeToken),
		QuoteAmount:   lc.QuoteAmount,
		QuoteAsset:    strings.ToUpper(lc.QuoteAsset),
	}
	if swap.FromChain == "" {
		swap.FromChain = model.DefaultNetwork(swap.FromAsset)
	}
	if swap.ToChain == "" {
		swap.ToChain = model.DefaultNetwork(swap.ToAsset)
	}

	switch intent {
	case model.IntentSwap, model.IntentYieldQuery:
		cmd.Swap = swap
	case model.IntentLimitOrder:
		cmd.Swap = swap
		op := model.CondAbove
		if lc.ConditionOperator == "lt" {
			op = model.CondBelow
		}
		asset := strings.ToUpper(lc.ConditionAsset)
		if asset == "" {
			asset = swap.FromAsset
		}
		cmd.Condition = &model.PriceCondition{
			Asset:    asset,
			Operator: op,
			Value:    lc.ConditionValue,
		}
	case model.IntentPortfolio:
		pd := &model.PortfolioDetails{
			FromAsset:  swap.FromAsset,
			FromChain:  swap.FromChain,
			Amount:     swap.Amount,
			AmountType: swap.AmountType,
		}
		for _, a := range lc.Allocations {
			asset := strings.ToUpper(a.ToAsset)
			chain := strings.ToLower(a.ToChain)
			if chain == "" {
				chain = model.DefaultNetwork(asset)
			}
			pd.Allocations = append(pd.Allocations, model.Allocation{
				ToAsset:    asset,
				ToChain:    chain,
				Percentage: a.Percentage,
			})
		}
		cmd.Portfolio = pd
	case model.IntentCheckout:
		network := strings.ToLower(lc.SettleNetwork)
		if network == "" {
			network = model.DefaultNetwork(lc.SettleAsset)
		}
		cmd.Checkout = &model.CheckoutDetails{
			SettleAsset:   strings.ToUpper(lc.SettleAsset),
			SettleNetwork: network,
			SettleAmount:  lc.SettleAmount,
		}
	}
	return cmd
}
