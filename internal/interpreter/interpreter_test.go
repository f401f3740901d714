package interpreter

import (
	"context"
	"errors"
	"testing"

	"SwapSentinel/internal/model"
)

type stubClient struct {
	reply string
	err   error
}

func (s *stubClient) Complete(ctx context.Context, system string, history []Turn, user string) (string, error) {
	return s.reply, s.err
}

func TestInterpret_SwapReply(t *testing.T) {
	i := New(&stubClient{reply: "```json\n" + `{
		"intent": "swap",
		"fromAsset": "eth",
		"toAsset": "btc",
		"amount": 0.5,
		"amountType": "exact",
		"confidence": 85
	}` + "\n```"})

	cmd := i.Interpret(context.Background(), "move half an eth into bitcoin please", nil, false)
	if cmd.Intent != model.IntentSwap || !cmd.Recognized {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	if cmd.Swap.FromAsset != "ETH" || cmd.Swap.ToAsset != "BTC" {
		t.Errorf("symbols not normalized: %s -> %s", cmd.Swap.FromAsset, cmd.Swap.ToAsset)
	}
	if cmd.Swap.FromChain != "ethereum" || cmd.Swap.ToChain != "bitcoin" {
		t.Errorf("chains not defaulted: %s -> %s", cmd.Swap.FromChain, cmd.Swap.ToChain)
	}
	if cmd.Confidence != 85 {
		t.Errorf("expected confidence 85, got %d", cmd.Confidence)
	}
}

func TestInterpret_LimitOrderConditionDefaults(t *testing.T) {
	i := New(&stubClient{reply: `{
		"intent": "limit_order",
		"fromAsset": "ETH",
		"toAsset": "USDC",
		"amount": 1,
		"amountType": "exact",
		"conditionOperator": "gt",
		"conditionValue": 4000,
		"confidence": 80
	}`})

	cmd := i.Interpret(context.Background(), "dump an eth when it hits 4 grand", nil, false)
	if cmd.Intent != model.IntentLimitOrder {
		t.Fatalf("expected limit_order, got %s", cmd.Intent)
	}
	if cmd.Condition.Asset != "ETH" {
		t.Errorf("condition asset should default to the source, got %s", cmd.Condition.Asset)
	}
	if cmd.Condition.Operator != model.CondAbove || cmd.Condition.Value != 4000 {
		t.Errorf("wrong condition: %s %g", cmd.Condition.Operator, cmd.Condition.Value)
	}
}

func TestInterpret_FailuresNeverEscape(t *testing.T) {
	tests := []struct {
		name   string
		client ChatClient
	}{
		{"network error", &stubClient{err: errors.New("connection refused")}},
		{"no json", &stubClient{reply: "I can't help with that."}},
		{"unknown intent", &stubClient{reply: `{"intent": "dance"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := New(tt.client).Interpret(context.Background(), "whatever", nil, false)
			if cmd.Recognized || cmd.Actionable {
				t.Errorf("failure must yield unrecognized command: %+v", cmd)
			}
			if cmd.Intent != model.IntentUnknown {
				t.Errorf("expected unknown intent, got %s", cmd.Intent)
			}
			if len(cmd.ValidationErrors) != 1 || cmd.ValidationErrors[0] != FallbackMessage {
				t.Errorf("expected canonical fallback message, got %v", cmd.ValidationErrors)
			}
		})
	}
}

func TestInterpret_ConfidenceClamped(t *testing.T) {
	i := New(&stubClient{reply: `{"intent": "swap", "fromAsset": "ETH", "toAsset": "BTC", "amount": 1, "amountType": "exact", "confidence": 140}`})
	cmd := i.Interpret(context.Background(), "swap", nil, false)
	if cmd.Confidence != 100 {
		t.Errorf("expected confidence clamped to 100, got %d", cmd.Confidence)
	}
}
