package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Store persists gate executions and their plan transitions.
type Store struct {
	db *sql.DB
}

// NewStore creates a store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ExecutionRecord is one gate execution row.
type ExecutionRecord struct {
	RunID           string
	ActionRequestID string
	Repo            string
	PRNumber        int
	Action          string
	Status          string
	Reason          string
	DryRun          bool
	Confidence      float64
	Overall         int
	RiskLevel       string
	VerdictHash     string
	CreatedAt       string
}

// TransitionRecord is one plan state change belonging to an execution.
type TransitionRecord struct {
	RunID      string
	Seq        int
	FromStatus string
	ToStatus   string
	Reason     string
	Timestamp  string
}

// RecordExecution inserts the execution and its transitions in one
// transaction. Re-running a gate for the same run id replaces the previous
// row and its transitions.
func (s *Store) RecordExecution(ctx context.Context, rec ExecutionRecord, transitions []TransitionRecord) error {
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin record execution: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM executions WHERE run_id=?`, rec.RunID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("delete previous execution: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO executions(run_id, action_request_id, repo, pr_number, action, status, reason, dry_run, confidence, overall, risk_level, verdict_hash, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.ActionRequestID, rec.Repo, rec.PRNumber, rec.Action, rec.Status, rec.Reason,
		boolToInt(rec.DryRun), rec.Confidence, rec.Overall, rec.RiskLevel, rec.VerdictHash, rec.CreatedAt); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert execution: %w", err)
	}
	for i, tr := range transitions {
		if _, err := tx.ExecContext(ctx, `INSERT INTO transitions(run_id, seq, from_status, to_status, reason, ts) VALUES(?, ?, ?, ?, ?, ?)`,
			rec.RunID, i+1, tr.FromStatus, tr.ToStatus, tr.Reason, tr.Timestamp); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert transition: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record execution: %w", err)
	}
	return nil
}

// ListExecutions returns executions newest first, at most limit rows.
func (s *Store) ListExecutions(ctx context.Context, limit int) ([]ExecutionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, action_request_id, repo, pr_number, action, status, reason, dry_run, confidence, overall, risk_level, verdict_hash, created_at
		FROM executions ORDER BY created_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var records []ExecutionRecord
	for rows.Next() {
		var rec ExecutionRecord
		var dryRun int
		if err := rows.Scan(&rec.RunID, &rec.ActionRequestID, &rec.Repo, &rec.PRNumber, &rec.Action, &rec.Status, &rec.Reason,
			&dryRun, &rec.Confidence, &rec.Overall, &rec.RiskLevel, &rec.VerdictHash, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		rec.DryRun = dryRun != 0
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate executions: %w", err)
	}
	return records, nil
}

// GetExecution returns the execution for a run id, or nil if missing.
func (s *Store) GetExecution(ctx context.Context, runID string) (*ExecutionRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT run_id, action_request_id, repo, pr_number, action, status, reason, dry_run, confidence, overall, risk_level, verdict_hash, created_at
		FROM executions WHERE run_id=?`, runID)
	var rec ExecutionRecord
	var dryRun int
	if err := row.Scan(&rec.RunID, &rec.ActionRequestID, &rec.Repo, &rec.PRNumber, &rec.Action, &rec.Status, &rec.Reason,
		&dryRun, &rec.Confidence, &rec.Overall, &rec.RiskLevel, &rec.VerdictHash, &rec.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("read execution: %w", err)
	}
	rec.DryRun = dryRun != 0
	return &rec, nil
}

// ListTransitions returns the transitions for a run id in sequence order.
func (s *Store) ListTransitions(ctx context.Context, runID string) ([]TransitionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id, seq, from_status, to_status, reason, ts FROM transitions WHERE run_id=? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var records []TransitionRecord
	for rows.Next() {
		var tr TransitionRecord
		if err := rows.Scan(&tr.RunID, &tr.Seq, &tr.FromStatus, &tr.ToStatus, &tr.Reason, &tr.Timestamp); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		records = append(records, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}
	return records, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
