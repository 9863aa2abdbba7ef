package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/relgate/relgate/internal/audit"
	"github.com/relgate/relgate/internal/verdict"
)

// Adapter result statuses.
const (
	ResultSuccess = "SUCCESS"
	ResultSkipped = "SKIPPED"
	ResultFailed  = "FAILED"
)

// AdapterResult is the outcome of one adapter invocation.
type AdapterResult struct {
	Adapter   string `json:"adapter"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Context carries the execution state an adapter may inspect.
type Context struct {
	ActionRequestID string
	RunID           string
	Verdict         verdict.Document
	Plan            Plan
}

// Adapter performs one side effect of an approved action.
type Adapter interface {
	Name() string
	Execute(ctx context.Context, action string, ec Context) (AdapterResult, error)
}

// IdempotencyStore guards against duplicate side-effect execution. Add must
// be atomic against concurrent callers sharing the store.
type IdempotencyStore interface {
	Has(id string) (bool, error)
	Add(id string) error
}

// Options configures execution.
type Options struct {
	DryRun bool
	Clock  Clock
	Audit  *audit.Writer
	Store  IdempotencyStore
}

// Execute drives the plan to a terminal state. Adapters run strictly in
// order; the first failure stops the sequence. Every exit path appends
// exactly one audit record, and an audit write failure is a hard error.
// Adapter failures are not errors: they surface as a FAILED plan.
func Execute(ctx context.Context, doc verdict.Document, p Plan, adapters []Adapter, opts Options) (Plan, []AdapterResult, error) {
	if opts.Audit == nil {
		return Plan{}, nil, fmt.Errorf("audit writer is required")
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	store := opts.Store
	if store == nil {
		store = NewMemoryStore()
	}
	if err := doc.Validate(); err != nil {
		return Plan{}, nil, err
	}

	hash, err := audit.ContentHash(doc)
	if err != nil {
		return Plan{}, nil, err
	}
	results := []AdapterResult{}

	finish := func(to Status, reason string) (Plan, []AdapterResult, error) {
		p.transition(to, reason, now)
		if err := writeRecord(opts.Audit, p, results, hash, opts.DryRun, now); err != nil {
			return Plan{}, nil, err
		}
		log.Info().
			Str("run_id", p.RunID).
			Str("status", string(p.Status)).
			Str("reason", reason).
			Int("results", len(results)).
			Msg("execution finished")
		return p, results, nil
	}

	if !p.ApprovedForExecution || p.FinalAction == verdict.ActionHoldForHuman || opts.DryRun {
		reason := reasonNoAutoExec
		if opts.DryRun && p.ApprovedForExecution && p.FinalAction != verdict.ActionHoldForHuman {
			reason = reasonDryRun
		}
		return finish(StatusVerified, reason)
	}

	seen, err := store.Has(p.ActionRequestID)
	if err != nil {
		return Plan{}, nil, fmt.Errorf("check idempotency store: %w", err)
	}
	if seen {
		results = append(results, AdapterResult{
			Adapter:   "orchestrator",
			Status:    ResultSkipped,
			Message:   "action request already executed",
			Timestamp: now().UTC().Format(time.RFC3339),
		})
		return finish(StatusVerified, reasonDuplicate)
	}
	if err := store.Add(p.ActionRequestID); err != nil {
		return Plan{}, nil, fmt.Errorf("update idempotency store: %w", err)
	}

	p.transition(StatusExecuted, reasonAdaptersStarted, now)
	ec := Context{ActionRequestID: p.ActionRequestID, RunID: p.RunID, Verdict: doc, Plan: p}

	for _, a := range adapters {
		res, err := a.Execute(ctx, p.FinalAction, ec)
		if err != nil {
			res = AdapterResult{Adapter: a.Name(), Status: ResultFailed, Message: err.Error()}
		}
		if res.Adapter == "" {
			res.Adapter = a.Name()
		}
		if res.Timestamp == "" {
			res.Timestamp = now().UTC().Format(time.RFC3339)
		}
		results = append(results, res)
		if res.Status == ResultFailed {
			log.Warn().
				Str("run_id", p.RunID).
				Str("adapter", res.Adapter).
				Str("message", res.Message).
				Msg("adapter failed, stopping sequence")
			return finish(StatusFailed, res.Message)
		}
	}

	return finish(StatusVerified, reasonAllSucceeded)
}

func writeRecord(w *audit.Writer, p Plan, results []AdapterResult, hash string, dryRun bool, now Clock) error {
	transitions := make([]audit.Transition, 0, len(p.Transitions))
	for _, tr := range p.Transitions {
		transitions = append(transitions, audit.Transition{
			From:      string(tr.From),
			To:        string(tr.To),
			Reason:    tr.Reason,
			Timestamp: tr.Timestamp,
		})
	}
	recResults := make([]audit.AdapterResult, 0, len(results))
	for _, res := range results {
		recResults = append(recResults, audit.AdapterResult{
			Adapter:   res.Adapter,
			Status:    res.Status,
			Message:   res.Message,
			Timestamp: res.Timestamp,
		})
	}
	return w.Append(audit.Record{
		RunID:           p.RunID,
		ActionRequestID: p.ActionRequestID,
		Action:          p.FinalAction,
		Status:          string(p.Status),
		Reason:          p.Reason,
		DryRun:          dryRun,
		VerdictHash:     hash,
		Transitions:     transitions,
		Results:         recResults,
		Timestamp:       now().UTC().Format(time.RFC3339),
	})
}
