package store

import (
	"fmt"
	"time"

	"SwapSentinel/internal/model"
)

// CreateLimitOrder persists a new standing order.
func (s *Store) CreateLimitOrder(o *model.LimitOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	_, err := s.db.Exec(`INSERT INTO limit_orders
		(id, user_id, from_asset, from_network, to_asset, to_network, amount,
		 condition_asset, condition_type, target_price, status,
		 sideshift_order_id, error_message, settle_address, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.ID, o.UserID, o.FromAsset, o.FromNetwork, o.ToAsset, o.ToNetwork,
		o.Amount, o.ConditionAsset, o.ConditionType, o.TargetPrice, o.Status,
		o.SideshiftOrderID, o.ErrorMessage, o.SettleAddress, o.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("create limit order: %w", err)
	}
	return nil
}

// PendingLimitOrders returns every order still waiting on its trigger.
func (s *Store) PendingLimitOrders() ([]*model.LimitOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryLimitOrders(`SELECT * FROM limit_orders WHERE status = ?`, model.OrderPending)
}

// UserLimitOrders returns a user's orders, newest first.
func (s *Store) UserLimitOrders(userID string) ([]*model.LimitOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryLimitOrders(`SELECT * FROM limit_orders WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

func (s *Store) queryLimitOrders(query string, args ...any) ([]*model.LimitOrder, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query limit orders: %w", err)
	}
	defer rows.Close()

	var orders []*model.LimitOrder
	for rows.Next() {
		var (
			o         model.LimitOrder
			inFlight  int
			createdAt int64
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.FromAsset, &o.FromNetwork,
			&o.ToAsset, &o.ToNetwork, &o.Amount, &o.ConditionAsset,
			&o.ConditionType, &o.TargetPrice, &o.Status, &o.SideshiftOrderID,
			&o.ErrorMessage, &o.SettleAddress, &inFlight, &createdAt); err != nil {
			return nil, fmt.Errorf("scan limit order: %w", err)
		}
		o.CreatedAt = time.Unix(createdAt, 0)
		orders = append(orders, &o)
	}
	return orders, rows.Err()
}

// ClaimLimitOrder atomically marks a pending order in-flight. Returns false
// when the order is already claimed, executed or cancelled, so overlapping
// worker ticks cannot double-execute the same trigger.
func (s *Store) ClaimLimitOrder(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE limit_orders SET in_flight = 1
		WHERE id = ? AND in_flight = 0 AND status = ?`, id, model.OrderPending)
	if err != nil {
		return false, fmt.Errorf("claim limit order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleaseLimitOrder clears the in-flight claim.
func (s *Store) ReleaseLimitOrder(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`UPDATE limit_orders SET in_flight = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("release limit order: %w", err)
	}
	return nil
}

// MarkLimitOrderExecuted records a successful execution.
func (s *Store) MarkLimitOrderExecuted(id, sideshiftOrderID string) error {
	return s.setLimitOrderOutcome(id, model.OrderExecuted, sideshiftOrderID, "")
}

// MarkLimitOrderFailed records a failed execution with the error message.
func (s *Store) MarkLimitOrderFailed(id, errMsg string) error {
	return s.setLimitOrderOutcome(id, model.OrderFailed, "", errMsg)
}

func (s *Store) setLimitOrderOutcome(id string, status model.OrderStatus, sideshiftOrderID, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`UPDATE limit_orders
		SET status = ?, sideshift_order_id = ?, error_message = ?, in_flight = 0
		WHERE id = ?`, status, sideshiftOrderID, errMsg, id)
	if err != nil {
		return fmt.Errorf("update limit order %s: %w", id, err)
	}
	return nil
}

// CancelLimitOrder cancels a user's pending order. Returns false when the
// order was not pending or not theirs.
func (s *Store) CancelLimitOrder(id, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE limit_orders SET status = ?
		WHERE id = ? AND user_id = ? AND status = ?`,
		model.OrderCancelled, id, userID, model.OrderPending)
	if err != nil {
		return false, fmt.Errorf("cancel limit order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
