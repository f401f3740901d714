package model

import "time"

// Step is where a multi-turn dialogue currently stands.
type Step string

// Terminal outcomes (order placed, cancelled, expired) delete the stored
// state instead of persisting a step.
const (
	StepAwaitingAddress Step = "awaiting_address"
	StepAwaitingConfirm Step = "awaiting_confirmation"
	StepQuoteReceived   Step = "quote_received"
)

// ConversationTTL is the inactivity window after which a conversation is
// treated as absent.
const ConversationTTL = 60 * time.Minute

// ConversationState is the per-user record of an in-progress dialogue.
// It is serialized only at the store boundary.
type ConversationState struct {
	UserID  string
	Intent  Intent
	Step    Step
	Command *Command

	QuoteID       string
	SettleAmount  float64
	SettleAddress string

	// Set once a portfolio review summary has been explicitly confirmed;
	// portfolio order placement requires it.
	ReviewConfirmed bool

	// Set for an accumulation-plan dialogue: how often the plan runs.
	FrequencyDays int

	LastUpdated time.Time
}

// Expired reports whether the state is older than the TTL at the given time.
func (s *ConversationState) Expired(now time.Time) bool {
	return now.Sub(s.LastUpdated) > ConversationTTL
}
