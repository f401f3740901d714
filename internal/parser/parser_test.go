package parser

import (
	"reflect"
	"testing"

	"SwapSentinel/internal/model"
)

func TestParse_SimpleSwap(t *testing.T) {
	cmd := Parse("Swap 0.5 ETH to BTC")
	if cmd.Intent != model.IntentSwap {
		t.Fatalf("expected swap intent, got %s", cmd.Intent)
	}
	if !cmd.Recognized {
		t.Fatalf("expected recognized, confidence %d", cmd.Confidence)
	}
	sw := cmd.Swap
	if sw.FromAsset != "ETH" || sw.ToAsset != "BTC" {
		t.Errorf("wrong pair: %s -> %s", sw.FromAsset, sw.ToAsset)
	}
	if sw.FromChain != "ethereum" || sw.ToChain != "bitcoin" {
		t.Errorf("wrong chains: %s -> %s", sw.FromChain, sw.ToChain)
	}
	if sw.AmountType != model.AmountExact || sw.Amount != 0.5 {
		t.Errorf("wrong amount: %s %g", sw.AmountType, sw.Amount)
	}
	// pair 40 + bare amount 20 + intent word 10
	if cmd.Confidence != 70 {
		t.Errorf("expected confidence 70, got %d", cmd.Confidence)
	}
}

func TestParse_PercentageAmount(t *testing.T) {
	cmd := Parse("Swap 50% of my ETH for BTC")
	if !cmd.Recognized {
		t.Fatalf("expected recognized, confidence %d", cmd.Confidence)
	}
	sw := cmd.Swap
	if sw.AmountType != model.AmountPercentage || sw.Amount != 50 {
		t.Errorf("wrong amount: %s %g", sw.AmountType, sw.Amount)
	}
	if sw.FromAsset != "ETH" || sw.ToAsset != "BTC" {
		t.Errorf("wrong pair: %s -> %s", sw.FromAsset, sw.ToAsset)
	}
	if cmd.Confidence != 80 {
		t.Errorf("expected confidence 80, got %d", cmd.Confidence)
	}
}

func TestParse_HalfAndQuarter(t *testing.T) {
	cmd := Parse("Convert half my SOL into USDC")
	if !cmd.Recognized {
		t.Fatalf("expected recognized, confidence %d", cmd.Confidence)
	}
	sw := cmd.Swap
	if sw.AmountType != model.AmountPercentage || sw.Amount != 50 {
		t.Errorf("half should mean 50%%, got %s %g", sw.AmountType, sw.Amount)
	}
	if sw.FromAsset != "SOL" || sw.ToAsset != "USDC" {
		t.Errorf("wrong pair: %s -> %s", sw.FromAsset, sw.ToAsset)
	}

	cmd = Parse("trade a quarter of my BTC for ETH")
	if cmd.Swap.Amount != 25 {
		t.Errorf("quarter should mean 25%%, got %g", cmd.Swap.Amount)
	}
}

func TestParse_ExclusionSeedsSource(t *testing.T) {
	cmd := Parse("Swap everything except 10 MATIC")
	if !cmd.Recognized {
		t.Fatalf("expected recognized, confidence %d", cmd.Confidence)
	}
	sw := cmd.Swap
	if sw.AmountType != model.AmountAll {
		t.Errorf("expected all amount type, got %s", sw.AmountType)
	}
	if sw.ExcludeAmount != 10 || sw.ExcludeToken != "MATIC" {
		t.Errorf("wrong exclusion: %g %s", sw.ExcludeAmount, sw.ExcludeToken)
	}
	// With no source stated the excluded token doubles as the source.
	if sw.FromAsset != "MATIC" {
		t.Errorf("expected MATIC source, got %s", sw.FromAsset)
	}
}

func TestParse_QuoteAmount(t *testing.T) {
	cmd := Parse("Swap $100 worth of ETH into BTC")
	if !cmd.Recognized {
		t.Fatalf("expected recognized, confidence %d", cmd.Confidence)
	}
	sw := cmd.Swap
	if sw.QuoteAmount != 100 || sw.QuoteAsset != "USD" {
		t.Errorf("wrong quote amount: %g %s", sw.QuoteAmount, sw.QuoteAsset)
	}
	if sw.FromAsset != "ETH" || sw.ToAsset != "BTC" {
		t.Errorf("wrong pair: %s -> %s", sw.FromAsset, sw.ToAsset)
	}
	if sw.AmountType != model.AmountUnset || sw.Amount != 0 {
		t.Errorf("quote amount must not set a direct amount, got %s %g", sw.AmountType, sw.Amount)
	}
}

func TestParse_ConditionalWithSuffix(t *testing.T) {
	cmd := Parse("Sell 1 ETH if price goes above $4k")
	if !cmd.Recognized {
		t.Fatalf("expected recognized, confidence %d", cmd.Confidence)
	}
	if cmd.Intent != model.IntentLimitOrder {
		t.Fatalf("expected limit_order intent, got %s", cmd.Intent)
	}
	cond := cmd.Condition
	if cond.Operator != model.CondAbove {
		t.Errorf("expected above, got %s", cond.Operator)
	}
	if cond.Value != 4000 {
		t.Errorf("k suffix should multiply by 1000, got %g", cond.Value)
	}
	// Condition asset defaults to the source asset.
	if cond.Asset != "ETH" {
		t.Errorf("expected ETH condition asset, got %s", cond.Asset)
	}
	if cmd.Swap.Amount != 1 || cmd.Swap.FromAsset != "ETH" {
		t.Errorf("wrong trade leg: %g %s", cmd.Swap.Amount, cmd.Swap.FromAsset)
	}
}

func TestParse_ConditionalBelow(t *testing.T) {
	cmd := Parse("sell 0.1 BTC when price is below 40000")
	if cmd.Intent != model.IntentLimitOrder {
		t.Fatalf("expected limit_order intent, got %s", cmd.Intent)
	}
	if cmd.Condition.Operator != model.CondBelow || cmd.Condition.Value != 40000 {
		t.Errorf("wrong condition: %s %g", cmd.Condition.Operator, cmd.Condition.Value)
	}
	if cmd.Condition.Asset != "BTC" {
		t.Errorf("expected BTC condition asset, got %s", cmd.Condition.Asset)
	}
}

func TestParse_PortfolioAllocations(t *testing.T) {
	cmd := Parse("Split 2 ETH 50% to BTC 30% to SOL 20% to USDC")
	if cmd.Intent != model.IntentPortfolio {
		t.Fatalf("expected portfolio intent, got %s", cmd.Intent)
	}
	if !cmd.Recognized {
		t.Fatalf("expected recognized, confidence %d", cmd.Confidence)
	}
	pd := cmd.Portfolio
	if pd.FromAsset != "ETH" || pd.Amount != 2 || pd.AmountType != model.AmountExact {
		t.Errorf("wrong source: %s %g %s", pd.FromAsset, pd.Amount, pd.AmountType)
	}
	want := []model.Allocation{
		{ToAsset: "BTC", ToChain: "bitcoin", Percentage: 50},
		{ToAsset: "SOL", ToChain: "solana", Percentage: 30},
		{ToAsset: "USDC", ToChain: "ethereum", Percentage: 20},
	}
	if !reflect.DeepEqual(pd.Allocations, want) {
		t.Errorf("wrong allocations: %+v", pd.Allocations)
	}
}

func TestParse_MultipleSourcesAborts(t *testing.T) {
	cmd := Parse("Swap my ETH and BTC to USDC")
	if cmd.Recognized {
		t.Fatal("multi-source input must not be recognized")
	}
	if cmd.Intent != model.IntentUnknown {
		t.Errorf("expected unknown intent, got %s", cmd.Intent)
	}
	if len(cmd.ValidationErrors) == 0 || cmd.ValidationErrors[0] != ErrMultipleSources {
		t.Errorf("expected multi-source error, got %v", cmd.ValidationErrors)
	}
	if !Ambiguous(cmd) {
		t.Error("Ambiguous should report the rejection")
	}
}

func TestParse_ExclusionClauseIsNotMultiSource(t *testing.T) {
	// The exclusion token and the quote asset are not second sources.
	for _, input := range []string{
		"swap all my ETH except 10 ETH to BTC",
		"swap $100 worth of ETH into BTC",
	} {
		cmd := Parse(input)
		if Ambiguous(cmd) {
			t.Errorf("%q: wrongly rejected as multi-source", input)
		}
	}
}

func TestParse_CheckoutHint(t *testing.T) {
	cmd := Parse("Create a checkout for 50 USDC")
	if cmd.Intent != model.IntentCheckout {
		t.Fatalf("expected checkout intent, got %s", cmd.Intent)
	}
	co := cmd.Checkout
	if co.SettleAsset != "USDC" || co.SettleAmount != 50 {
		t.Errorf("wrong checkout: %s %g", co.SettleAsset, co.SettleAmount)
	}
	if co.SettleNetwork != "ethereum" {
		t.Errorf("expected default network ethereum, got %s", co.SettleNetwork)
	}
}

func TestParse_UnrelatedInputScoresZero(t *testing.T) {
	cmd := Parse("how are you doing today")
	if cmd.Recognized {
		t.Error("small talk must not be recognized")
	}
	if cmd.Confidence != 0 {
		t.Errorf("expected zero confidence, got %d", cmd.Confidence)
	}
}

func TestParse_Deterministic(t *testing.T) {
	inputs := []string{
		"Swap 0.5 ETH to BTC",
		"Swap everything except 10 MATIC",
		"Split 2 ETH 50% to BTC 30% to SOL 20% to USDC",
		"Sell 1 ETH if price goes above $4k",
	}
	for _, input := range inputs {
		a := Parse(input)
		b := Parse(input)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("%q: repeated parse differs", input)
		}
	}
}

func TestParse_ConfidenceBounds(t *testing.T) {
	inputs := []string{
		"",
		"Swap 0.5 ETH to BTC",
		"swap all my ETH except 10 ETH to BTC right now",
		"Split 2 ETH 50% to BTC 30% to SOL 20% to USDC",
		"gibberish that matches nothing",
	}
	for _, input := range inputs {
		cmd := Parse(input)
		if cmd.Confidence < 0 || cmd.Confidence > 100 {
			t.Errorf("%q: confidence %d out of bounds", input, cmd.Confidence)
		}
	}
}

func TestParse_FillerIsStripped(t *testing.T) {
	plain := Parse("swap 0.5 ETH to BTC")
	chatty := Parse("hey please kindly swap 0.5 ETH to BTC")
	plain.OriginalInput, chatty.OriginalInput = "", ""
	if !reflect.DeepEqual(plain, chatty) {
		t.Error("conversational filler should not change the parse")
	}
}

func TestParse_ExplicitChains(t *testing.T) {
	cmd := Parse("bridge 100 USDC on polygon to USDC on arbitrum")
	if cmd.Swap.FromChain != "polygon" || cmd.Swap.ToChain != "arbitrum" {
		t.Errorf("explicit chains ignored: %s -> %s", cmd.Swap.FromChain, cmd.Swap.ToChain)
	}
}
