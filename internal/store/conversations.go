package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"SwapSentinel/internal/model"
)

// GetConversationState returns the user's conversation state, or nil when
// none exists. A state older than the TTL is logically absent: it is deleted
// and nil is returned, so an expired dialogue silently restarts.
func (s *Store) GetConversationState(userID string) (*model.ConversationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(`SELECT intent, step, command, quote_id, settle_amount,
		settle_address, review_confirmed, frequency_days, updated_at
		FROM conversation_states WHERE user_id = ?`, userID)

	var (
		st         model.ConversationState
		commandRaw string
		confirmed  int
		updatedAt  int64
	)
	err := row.Scan(&st.Intent, &st.Step, &commandRaw, &st.QuoteID,
		&st.SettleAmount, &st.SettleAddress, &confirmed, &st.FrequencyDays, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read conversation state: %w", err)
	}

	st.UserID = userID
	st.ReviewConfirmed = confirmed != 0
	st.LastUpdated = time.Unix(updatedAt, 0)

	if st.Expired(s.now()) {
		if _, err := s.db.Exec(`DELETE FROM conversation_states WHERE user_id = ?`, userID); err != nil {
			return nil, fmt.Errorf("delete expired conversation state: %w", err)
		}
		return nil, nil
	}

	if commandRaw != "" {
		var cmd model.Command
		if err := json.Unmarshal([]byte(commandRaw), &cmd); err != nil {
			return nil, fmt.Errorf("decode command snapshot: %w", err)
		}
		st.Command = &cmd
	}
	return &st, nil
}

// SetConversationState upserts the user's conversation state, stamping
// LastUpdated with the current time.
func (s *Store) SetConversationState(st *model.ConversationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var commandRaw []byte
	if st.Command != nil {
		var err error
		commandRaw, err = json.Marshal(st.Command)
		if err != nil {
			return fmt.Errorf("encode command snapshot: %w", err)
		}
	}

	confirmed := 0
	if st.ReviewConfirmed {
		confirmed = 1
	}
	st.LastUpdated = s.now()

	_, err := s.db.Exec(`INSERT INTO conversation_states
		(user_id, intent, step, command, quote_id, settle_amount, settle_address, review_confirmed, frequency_days, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(user_id) DO UPDATE SET
			intent = excluded.intent,
			step = excluded.step,
			command = excluded.command,
			quote_id = excluded.quote_id,
			settle_amount = excluded.settle_amount,
			settle_address = excluded.settle_address,
			review_confirmed = excluded.review_confirmed,
			frequency_days = excluded.frequency_days,
			updated_at = excluded.updated_at`,
		st.UserID, st.Intent, st.Step, string(commandRaw), st.QuoteID,
		st.SettleAmount, st.SettleAddress, confirmed, st.FrequencyDays, st.LastUpdated.Unix())
	if err != nil {
		return fmt.Errorf("write conversation state: %w", err)
	}
	return nil
}

// ClearConversationState removes the user's conversation state.
func (s *Store) ClearConversationState(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM conversation_states WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear conversation state: %w", err)
	}
	return nil
}
