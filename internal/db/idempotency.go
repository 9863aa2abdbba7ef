package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// IdempotencyStore is the persistent idempotency set. Add relies on the
// primary key constraint, so the check-and-set is atomic across processes
// sharing the database file.
type IdempotencyStore struct {
	db *sql.DB
}

// NewIdempotencyStore creates a store backed by the given database handle.
func NewIdempotencyStore(db *sql.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

func (s *IdempotencyStore) Has(id string) (bool, error) {
	row := s.db.QueryRowContext(context.Background(), `SELECT 1 FROM idempotency_keys WHERE action_request_id=?`, id)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("read idempotency key: %w", err)
	}
	return true, nil
}

func (s *IdempotencyStore) Add(id string) error {
	createdAt := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(context.Background(), `INSERT INTO idempotency_keys(action_request_id, created_at) VALUES(?, ?)`, id, createdAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("idempotency key %q already present", id)
		}
		return fmt.Errorf("insert idempotency key: %w", err)
	}
	return nil
}
