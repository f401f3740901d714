package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// SaveAddress records a nickname for a destination address.
func (s *Store) SaveAddress(userID, nickname, network, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO address_book (user_id, nickname, network, address)
		VALUES (?,?,?,?)
		ON CONFLICT(user_id, nickname) DO UPDATE SET
			network = excluded.network, address = excluded.address`,
		userID, strings.ToLower(nickname), network, address)
	if err != nil {
		return fmt.Errorf("save address: %w", err)
	}
	return nil
}

// LookupAddress returns the saved address for a nickname, or "" when the
// user has none by that name.
func (s *Store) LookupAddress(userID, nickname string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var address string
	err := s.db.QueryRow(`SELECT address FROM address_book WHERE user_id = ? AND nickname = ?`,
		userID, strings.ToLower(nickname)).Scan(&address)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup address: %w", err)
	}
	return address, nil
}

// WatchOrder registers a placed order for status polling.
func (s *Store) WatchOrder(orderID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT OR IGNORE INTO watched_orders (order_id, user_id, created_at)
		VALUES (?,?,?)`, orderID, userID, s.now().Unix())
	if err != nil {
		return fmt.Errorf("watch order: %w", err)
	}
	return nil
}

// WatchedOrders lists order ids still being polled, with their owners.
func (s *Store) WatchedOrders() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT order_id, user_id FROM watched_orders`)
	if err != nil {
		return nil, fmt.Errorf("list watched orders: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var orderID, userID string
		if err := rows.Scan(&orderID, &userID); err != nil {
			return nil, fmt.Errorf("scan watched order: %w", err)
		}
		out[orderID] = userID
	}
	return out, rows.Err()
}

// UnwatchOrder stops polling an order.
func (s *Store) UnwatchOrder(orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM watched_orders WHERE order_id = ?`, orderID); err != nil {
		return fmt.Errorf("unwatch order: %w", err)
	}
	return nil
}
