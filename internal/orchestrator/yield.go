package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"SwapSentinel/internal/model"
)

// Indicative staking/lending rates shown for yield questions. These are
// informational only, no position is ever opened.
var indicativeYields = map[string]float64{
	"ETH":   3.1,
	"SOL":   6.8,
	"ATOM":  14.2,
	"DOT":   11.5,
	"ADA":   2.9,
	"MATIC": 4.4,
	"USDC":  4.8,
	"USDT":  4.5,
}

func (o *Orchestrator) yieldReply(ctx context.Context, cmd *model.Command) model.Reply {
	asset := ""
	if cmd.Swap != nil {
		asset = cmd.Swap.FromAsset
	}

	if asset != "" {
		rate, ok := indicativeYields[asset]
		if !ok {
			return model.Reply{Text: fmt.Sprintf("I don't have an indicative yield for %s.", asset)}
		}
		text := fmt.Sprintf("💰 Indicative yield for <b>%s</b>: ~%.1f%% APR", asset, rate)
		if prices := o.feed.GetPrices(ctx, []string{asset}); prices[asset] > 0 {
			text += fmt.Sprintf(" (spot $%.2f)", prices[asset])
		}
		return model.Reply{Text: text + "\n\nRates are indicative only; nothing is staked from here."}
	}

	symbols := make([]string, 0, len(indicativeYields))
	for s := range indicativeYields {
		symbols = append(symbols, s)
	}
	sort.Slice(symbols, func(i, j int) bool { return indicativeYields[symbols[i]] > indicativeYields[symbols[j]] })

	var b strings.Builder
	b.WriteString("💰 <b>Indicative yields</b>\n\n")
	for _, s := range symbols {
		b.WriteString(fmt.Sprintf("• %s — ~%.1f%% APR\n", s, indicativeYields[s]))
	}
	b.WriteString("\nRates are indicative only; nothing is staked from here.")
	return model.Reply{Text: b.String()}
}
