package store

import (
	"fmt"
	"time"

	"SwapSentinel/internal/model"
)

// CreatePlan persists a new accumulation plan.
func (s *Store) CreatePlan(p *model.AccumulationPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`INSERT INTO dca_plans
		(id, user_id, from_asset, to_asset, amount, frequency_days,
		 next_run, last_run, status, settle_address)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.UserID, p.FromAsset, p.ToAsset, p.Amount, p.FrequencyDays,
		p.NextRun.Unix(), unixOrZero(p.LastRun), p.Status, p.SettleAddress)
	if err != nil {
		return fmt.Errorf("create plan: %w", err)
	}
	return nil
}

// DuePlans returns every active plan whose next run is at or before now.
func (s *Store) DuePlans(now time.Time) ([]*model.AccumulationPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryPlans(`SELECT * FROM dca_plans WHERE status = ? AND next_run <= ?`,
		model.PlanActive, now.Unix())
}

// UserPlans returns a user's plans.
func (s *Store) UserPlans(userID string) ([]*model.AccumulationPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryPlans(`SELECT * FROM dca_plans WHERE user_id = ? AND status != ?`,
		userID, model.PlanCancelled)
}

func (s *Store) queryPlans(query string, args ...any) ([]*model.AccumulationPlan, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	var plans []*model.AccumulationPlan
	for rows.Next() {
		var (
			p        model.AccumulationPlan
			nextRun  int64
			lastRun  int64
			inFlight int
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.FromAsset, &p.ToAsset,
			&p.Amount, &p.FrequencyDays, &nextRun, &lastRun, &p.Status,
			&p.SettleAddress, &inFlight); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		p.NextRun = time.Unix(nextRun, 0)
		if lastRun > 0 {
			p.LastRun = time.Unix(lastRun, 0)
		}
		plans = append(plans, &p)
	}
	return plans, rows.Err()
}

// ClaimPlan atomically marks an active plan in-flight for this tick.
func (s *Store) ClaimPlan(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE dca_plans SET in_flight = 1
		WHERE id = ? AND in_flight = 0 AND status = ?`, id, model.PlanActive)
	if err != nil {
		return false, fmt.Errorf("claim plan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ReleasePlan clears the in-flight claim without touching the schedule, so
// a failed run is retried on the next due tick.
func (s *Store) ReleasePlan(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`UPDATE dca_plans SET in_flight = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("release plan: %w", err)
	}
	return nil
}

// AdvancePlan records a successful run: last run set to ranAt, next run
// advanced by exactly the plan's frequency, claim released.
func (s *Store) AdvancePlan(id string, ranAt, nextRun time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`UPDATE dca_plans
		SET last_run = ?, next_run = ?, in_flight = 0 WHERE id = ?`,
		ranAt.Unix(), nextRun.Unix(), id)
	if err != nil {
		return fmt.Errorf("advance plan %s: %w", id, err)
	}
	return nil
}

// SetPlanStatus pauses, resumes or cancels a user's plan. Returns false when
// the plan does not belong to the user.
func (s *Store) SetPlanStatus(id, userID string, status model.PlanStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE dca_plans SET status = ? WHERE id = ? AND user_id = ?`,
		status, id, userID)
	if err != nil {
		return false, fmt.Errorf("set plan status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
