package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"SwapSentinel/internal/exchange"
	"SwapSentinel/internal/interpreter"
	"SwapSentinel/internal/model"
	"SwapSentinel/internal/naming"
	"SwapSentinel/internal/parser"
	"SwapSentinel/internal/pricefeed"
	"SwapSentinel/internal/validator"
	"SwapSentinel/internal/wallet"
)

// Store is the persistence contract the orchestrator needs.
type Store interface {
	GetConversationState(userID string) (*model.ConversationState, error)
	SetConversationState(st *model.ConversationState) error
	ClearConversationState(userID string) error
	CreateLimitOrder(o *model.LimitOrder) error
	CreatePlan(p *model.AccumulationPlan) error
	UserLimitOrders(userID string) ([]*model.LimitOrder, error)
	UserPlans(userID string) ([]*model.AccumulationPlan, error)
	CancelLimitOrder(id, userID string) (bool, error)
	SetPlanStatus(id, userID string, status model.PlanStatus) (bool, error)
	LookupAddress(userID, nickname string) (string, error)
	SaveAddress(userID, nickname, network, address string) error
	WatchOrder(orderID, userID string) error
}

// Fallback is the probabilistic interpreter invoked below the cascade's
// acceptance threshold.
type Fallback interface {
	Interpret(ctx context.Context, input string, history []interpreter.Turn, voice bool) *model.Command
}

// Orchestrator drives the per-user conversation state machine. Each inbound
// action executes synchronously under a per-user lock, so two racing
// messages from the same user cannot clobber one state row.
type Orchestrator struct {
	store    Store
	venue    exchange.Venue
	resolver naming.Resolver
	fallback Fallback
	feed     pricefeed.Feed
	wallet   wallet.Wallet

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex

	histMu  sync.Mutex
	history map[string][]interpreter.Turn
}

// New wires the orchestrator's collaborators together.
func New(store Store, venue exchange.Venue, resolver naming.Resolver, fallback Fallback, feed pricefeed.Feed, w wallet.Wallet) *Orchestrator {
	return &Orchestrator{
		store:    store,
		venue:    venue,
		resolver: resolver,
		fallback: fallback,
		feed:     feed,
		wallet:   w,
		locks:    make(map[string]*sync.Mutex),
		history:  make(map[string][]interpreter.Turn),
	}
}

// userLock returns the single-flight mutex for a user id.
func (o *Orchestrator) userLock(userID string) *sync.Mutex {
	o.lockMu.Lock()
	defer o.lockMu.Unlock()
	mu, ok := o.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		o.locks[userID] = mu
	}
	return mu
}

const historyDepth = 6

func (o *Orchestrator) recordTurn(userID, userText, reply string) {
	o.histMu.Lock()
	defer o.histMu.Unlock()
	h := append(o.history[userID],
		interpreter.Turn{Role: "user", Content: userText},
		interpreter.Turn{Role: "assistant", Content: reply})
	if len(h) > historyDepth {
		h = h[len(h)-historyDepth:]
	}
	o.history[userID] = h
}

func (o *Orchestrator) turns(userID string) []interpreter.Turn {
	o.histMu.Lock()
	defer o.histMu.Unlock()
	return append([]interpreter.Turn(nil), o.history[userID]...)
}

// HandleMessage processes one inbound free-text message and returns the
// reply to render. It never panics outward: unexpected failures become a
// user-visible message.
func (o *Orchestrator) HandleMessage(ctx context.Context, userID, text string, voice bool) (reply model.Reply) {
	mu := o.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] orchestrator: panic handling message from %s: %v", userID, r)
			reply = model.Reply{Text: "Something went wrong on my side. Your conversation is unchanged, try again."}
		}
		if reply.Text != "" {
			o.recordTurn(userID, text, reply.Text)
		}
	}()

	text = strings.TrimSpace(text)
	if text == "" {
		return model.Reply{}
	}

	if strings.HasPrefix(text, "/") {
		return o.handleSlashCommand(ctx, userID, text)
	}

	st, err := o.store.GetConversationState(userID)
	if err != nil {
		log.Printf("[ERROR] orchestrator: read state for %s: %v", userID, err)
		return model.Reply{Text: "I couldn't read your conversation state. Try again."}
	}

	// A typed cancellation wins over everything, including a pending
	// address prompt.
	if st != nil && isNegation(text) {
		return o.cancel(userID)
	}

	// An in-progress dialogue waiting on an address consumes the next
	// message as the address.
	if st != nil && st.Step == model.StepAwaitingAddress {
		return o.handleAddressInput(ctx, st, text)
	}

	// Plain confirmations typed instead of pressed.
	if st != nil && isAffirmation(text) {
		switch st.Step {
		case model.StepAwaitingConfirm:
			return o.confirm(ctx, st)
		case model.StepQuoteReceived:
			return o.placeOrder(ctx, st)
		}
	}

	return o.interpret(ctx, userID, text, voice)
}

// interpret runs the hybrid pipeline: cascade first, language model below
// threshold, then validation, then dispatch.
func (o *Orchestrator) interpret(ctx context.Context, userID, text string, voice bool) model.Reply {
	cmd := parser.Parse(text)

	// Multi-source ambiguity is surfaced immediately; no fallback attempt.
	if parser.Ambiguous(cmd) {
		return model.Reply{Text: "⚠️ " + cmd.ValidationErrors[0]}
	}

	if !cmd.Recognized {
		cmd = o.fallback.Interpret(ctx, text, o.turns(userID), voice)
	}

	validator.Validate(cmd)

	if !cmd.Recognized {
		return model.Reply{Text: interpreter.FallbackMessage}
	}

	if !cmd.Actionable {
		if q, ok := validator.ClarifyingQuestion(cmd, voice); ok {
			return model.Reply{Text: q}
		}
		return model.Reply{Text: "I understood the request but some details look off:\n• " +
			strings.Join(cmd.ValidationErrors, "\n• ")}
	}

	return o.dispatch(ctx, userID, cmd)
}

// dispatch starts a new dialogue from an actionable command.
func (o *Orchestrator) dispatch(ctx context.Context, userID string, cmd *model.Command) model.Reply {
	switch cmd.Intent {
	case model.IntentYieldQuery:
		return o.yieldReply(ctx, cmd)
	case model.IntentSwap, model.IntentLimitOrder, model.IntentPortfolio, model.IntentCheckout:
		st := &model.ConversationState{
			UserID:  userID,
			Intent:  cmd.Intent,
			Command: cmd,
		}
		if addr := knownAddress(cmd); addr != "" {
			st.SettleAddress = addr
			st.Step = model.StepAwaitingConfirm
		} else {
			st.Step = model.StepAwaitingAddress
		}
		if err := o.store.SetConversationState(st); err != nil {
			log.Printf("[ERROR] orchestrator: save state for %s: %v", userID, err)
			return model.Reply{Text: "I couldn't save the conversation. Try again."}
		}
		if st.Step == model.StepAwaitingAddress {
			return model.Reply{Text: addressPrompt(cmd)}
		}
		return o.confirmationPrompt(st)
	default:
		return model.Reply{Text: interpreter.FallbackMessage}
	}
}

// knownAddress returns a destination address already embedded in the command.
func knownAddress(cmd *model.Command) string {
	switch cmd.Intent {
	case model.IntentCheckout:
		if cmd.Checkout != nil {
			return cmd.Checkout.SettleAddress
		}
	default:
		if cmd.Swap != nil {
			return cmd.Swap.SettleAddress
		}
	}
	return ""
}

func addressPrompt(cmd *model.Command) string {
	network := destinationNetwork(cmd)
	if network == "" {
		network = "the destination network"
	}
	return fmt.Sprintf("Where should the funds go?\n\nSend a saved nickname, a handle like <code>alice.eth</code>, or a raw %s address.", network)
}

// destinationNetwork is the network the settle address must belong to.
func destinationNetwork(cmd *model.Command) string {
	switch cmd.Intent {
	case model.IntentCheckout:
		if cmd.Checkout != nil {
			return cmd.Checkout.SettleNetwork
		}
	case model.IntentPortfolio:
		// One settle address serves all legs; checked against the first.
		if cmd.Portfolio != nil && len(cmd.Portfolio.Allocations) > 0 {
			return cmd.Portfolio.Allocations[0].ToChain
		}
	default:
		if cmd.Swap != nil {
			return cmd.Swap.ToChain
		}
	}
	return ""
}

func isAffirmation(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "y", "yes please", "confirm", "ok", "okay", "go ahead", "do it", "sure":
		return true
	}
	return false
}

func isNegation(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "no", "n", "cancel", "stop", "abort", "never mind", "nevermind":
		return true
	}
	return false
}
