package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"

	"SwapSentinel/internal/model"
	"SwapSentinel/internal/naming"
)

// handleAddressInput resolves the next user message into a settle address.
// Resolution order: saved nickname, naming-service handle, raw format check.
// Failure re-prompts with format guidance and does not transition.
func (o *Orchestrator) handleAddressInput(ctx context.Context, st *model.ConversationState, text string) model.Reply {
	input := strings.TrimSpace(text)

	// Optional trailing "save as <nick>" remembers the address.
	var saveNick string
	if idx := strings.LastIndex(strings.ToLower(input), " save as "); idx > 0 {
		saveNick = strings.TrimSpace(input[idx+len(" save as "):])
		input = strings.TrimSpace(input[:idx])
	}

	network := destinationNetwork(st.Command)
	address, via, err := o.resolveAddress(ctx, st.UserID, input, network)
	if err != nil {
		guidance := network
		if guidance == "" {
			guidance = "the destination network"
		}
		return model.Reply{Text: fmt.Sprintf(
			"❌ %v\n\nSend a saved nickname, a handle like <code>alice.eth</code>, or a raw address valid on %s.",
			err, guidance)}
	}

	if saveNick != "" {
		if err := o.store.SaveAddress(st.UserID, saveNick, network, address); err != nil {
			log.Printf("[WARN] orchestrator: save nickname %q for %s: %v", saveNick, st.UserID, err)
		}
	}

	st.SettleAddress = address
	setCommandAddress(st.Command, address)

	// Limit orders short-circuit: persisted directly, no immediate quote.
	if st.Intent == model.IntentLimitOrder {
		return o.createLimitOrder(ctx, st, via)
	}
	if st.Intent == model.IntentAccumulation {
		return o.createPlan(st, via)
	}

	st.Step = model.StepAwaitingConfirm
	if err := o.store.SetConversationState(st); err != nil {
		log.Printf("[ERROR] orchestrator: save state for %s: %v", st.UserID, err)
		return model.Reply{Text: "I couldn't save the conversation. Try again."}
	}

	reply := o.confirmationPrompt(st)
	reply.Text = fmt.Sprintf("✅ Address set (%s).\n\n%s", via, reply.Text)
	return reply
}

// resolveAddress walks the resolution ladder and reports which path
// succeeded: "saved nickname", "resolved handle", or "raw address".
func (o *Orchestrator) resolveAddress(ctx context.Context, userID, input, network string) (address, via string, err error) {
	if saved, lookupErr := o.store.LookupAddress(userID, input); lookupErr != nil {
		log.Printf("[WARN] orchestrator: nickname lookup for %s: %v", userID, lookupErr)
	} else if saved != "" {
		return saved, fmt.Sprintf("saved nickname “%s”", strings.ToLower(input)), nil
	}

	if naming.LooksLikeHandle(input) {
		resolved, resolveErr := o.resolver.Resolve(ctx, input, network)
		if resolveErr == nil {
			return resolved, fmt.Sprintf("resolved %s", strings.ToLower(input)), nil
		}
		log.Printf("[INFO] orchestrator: handle resolution failed for %q: %v", input, resolveErr)
	}

	if model.ValidAddress(network, input) {
		return input, "raw address", nil
	}
	return "", "", fmt.Errorf("that doesn't look like a nickname, handle or valid address")
}

// setCommandAddress writes the resolved address into the command variant so
// the snapshot stays self-contained.
func setCommandAddress(cmd *model.Command, address string) {
	if cmd == nil {
		return
	}
	if cmd.Swap != nil {
		cmd.Swap.SettleAddress = address
	}
	if cmd.Checkout != nil {
		cmd.Checkout.SettleAddress = address
	}
}
