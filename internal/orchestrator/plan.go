// Package orchestrator turns a verdict into a tracked action plan and drives
// it through approval, execution, and verification. Side effects run through
// caller-supplied adapters, strictly in order, guarded by an idempotency
// store and recorded in the audit log.
package orchestrator

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/relgate/relgate/internal/verdict"
)

// Status is the lifecycle state of an action plan.
type Status string

const (
	StatusProposed Status = "PROPOSED"
	StatusApproved Status = "APPROVED"
	StatusExecuted Status = "EXECUTED"
	StatusVerified Status = "VERIFIED"
	StatusFailed   Status = "FAILED"
)

// Fixed transition reasons emitted by plan and execute.
const (
	reasonConfidenceMet   = "confidence above threshold"
	reasonConfidenceLow   = "confidence below threshold"
	reasonLearningMode    = "learning mode active"
	reasonHumanReview     = "human review required"
	reasonRollbackAuto    = "rollback approved automatically"
	reasonDryRun          = "dry-run"
	reasonNoAutoExec      = "no auto-exec"
	reasonDuplicate       = "duplicate action request"
	reasonAdaptersStarted = "adapters running"
	reasonAllSucceeded    = "all adapters succeeded"
)

// Transition records one state change with its timestamp.
type Transition struct {
	From      Status `json:"from"`
	To        Status `json:"to"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

// Plan tracks the approval and execution lifecycle of one proposed action.
type Plan struct {
	ActionRequestID      string       `json:"action_request_id"`
	RunID                string       `json:"run_id"`
	FinalAction          string       `json:"final_action"`
	Status               Status       `json:"status"`
	ApprovedForExecution bool         `json:"approved_for_execution"`
	Reason               string       `json:"reason"`
	Transitions          []Transition `json:"transitions"`
}

// Clock supplies timestamps; tests substitute a fixed one.
type Clock func() time.Time

// NewPlan derives the execution plan for a verdict. It is pure: for a fixed
// document, threshold, and clock the output is byte-identical across calls.
// The action request id is derived from the run id so replays of the same run
// share one idempotency key.
func NewPlan(doc verdict.Document, autoExecuteMinConfidence float64, now Clock) (Plan, error) {
	if now == nil {
		now = time.Now
	}
	if err := doc.Validate(); err != nil {
		return Plan{}, err
	}

	action := doc.Verdict.ProposedAction
	approved := false
	reason := reasonHumanReview

	switch action {
	case verdict.ActionKillAndRollback:
		if doc.Policy.LearningMode {
			reason = reasonLearningMode
		} else {
			approved = true
			reason = reasonRollbackAuto
		}
	case verdict.ActionApproveDeploy:
		switch {
		case doc.Policy.LearningMode:
			action = verdict.ActionHoldForHuman
			reason = reasonLearningMode
		case doc.Verdict.Confidence >= autoExecuteMinConfidence:
			approved = true
			reason = reasonConfidenceMet
		default:
			action = verdict.ActionHoldForHuman
			reason = reasonConfidenceLow
		}
	}

	p := Plan{
		ActionRequestID:      "act-" + doc.Run.RunID,
		RunID:                doc.Run.RunID,
		FinalAction:          action,
		Status:               StatusProposed,
		ApprovedForExecution: approved,
		Reason:               reason,
		Transitions:          []Transition{},
	}
	if approved {
		p.transition(StatusApproved, reason, now)
	} else {
		p.transition(StatusProposed, reason, now)
	}

	log.Debug().
		Str("run_id", p.RunID).
		Str("final_action", p.FinalAction).
		Bool("approved", approved).
		Str("reason", reason).
		Msg("plan created")
	return p, nil
}

func (p *Plan) transition(to Status, reason string, now Clock) {
	p.Transitions = append(p.Transitions, Transition{
		From:      p.Status,
		To:        to,
		Reason:    reason,
		Timestamp: now().UTC().Format(time.RFC3339),
	})
	p.Status = to
	p.Reason = reason
}
