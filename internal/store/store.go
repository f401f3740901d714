package store

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists conversation state, standing orders, accumulation plans and
// the address book in a SQLite database.
type Store struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewStore opens (or creates) the SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode: workers read while the orchestrator writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] store opened: %s", dbPath)
	return s, nil
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversation_states (
			user_id          TEXT PRIMARY KEY,
			intent           TEXT,
			step             TEXT,
			command          TEXT,
			quote_id         TEXT,
			settle_amount    REAL,
			settle_address   TEXT,
			review_confirmed INTEGER NOT NULL DEFAULT 0,
			frequency_days   INTEGER NOT NULL DEFAULT 0,
			updated_at       INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS limit_orders (
			id                 TEXT PRIMARY KEY,
			user_id            TEXT NOT NULL,
			from_asset         TEXT,
			from_network       TEXT,
			to_asset           TEXT,
			to_network         TEXT,
			amount             REAL,
			condition_asset    TEXT,
			condition_type     TEXT,
			target_price       REAL,
			status             TEXT NOT NULL,
			sideshift_order_id TEXT,
			error_message      TEXT,
			settle_address     TEXT,
			in_flight          INTEGER NOT NULL DEFAULT 0,
			created_at         INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_limit_status ON limit_orders(status)`,
		`CREATE INDEX IF NOT EXISTS idx_limit_user ON limit_orders(user_id)`,

		`CREATE TABLE IF NOT EXISTS dca_plans (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL,
			from_asset     TEXT,
			to_asset       TEXT,
			amount         REAL,
			frequency_days INTEGER,
			next_run       INTEGER,
			last_run       INTEGER,
			status         TEXT NOT NULL,
			settle_address TEXT,
			in_flight      INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_plan_status ON dca_plans(status, next_run)`,
		`CREATE INDEX IF NOT EXISTS idx_plan_user ON dca_plans(user_id)`,

		`CREATE TABLE IF NOT EXISTS address_book (
			user_id  TEXT NOT NULL,
			nickname TEXT NOT NULL,
			network  TEXT,
			address  TEXT NOT NULL,
			PRIMARY KEY (user_id, nickname)
		)`,

		`CREATE TABLE IF NOT EXISTS watched_orders (
			order_id   TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	log.Println("[INFO] closing store")
	return s.db.Close()
}
