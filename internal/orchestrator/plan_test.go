package orchestrator

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relgate/relgate/internal/signal"
	"github.com/relgate/relgate/internal/verdict"
)

func fixedClock() time.Time {
	return time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
}

// makeVerdict hand-builds a schema-valid document with exact control over
// the fields the planner reads.
func makeVerdict(action string, confidence float64, learning bool) verdict.Document {
	return verdict.Document{
		Run: verdict.RunInfo{
			RunID:     "run-1",
			Repo:      "acme/payments",
			PRNumber:  7,
			HeadSHA:   "deadbeef",
			Timestamp: "2026-08-28T12:00:00Z",
		},
		Signals: signal.Inputs{
			CI:       signal.CISignals{Status: signal.CIPassed},
			Security: signal.SecuritySignals{},
			Change:   signal.ChangeSignals{FilesChanged: 1},
		},
		Policy: verdict.PolicySnapshot{
			LearningMode:          learning,
			Matched:               []verdict.PolicyMatch{},
			HighestSeverity:       "NONE",
			ProposedAction:        "NONE",
			ProposedFactoryAction: "NONE",
		},
		Scorecard: verdict.Scorecard{
			Tests: 90, Security: 90, Risk: 100, Ops: 70, Policy: 75,
			Overall: 87, RiskLevel: verdict.RiskLow,
		},
		Verdict: verdict.Decision{
			ProposedAction:       action,
			Confidence:           confidence,
			RecommendedNextSteps: []string{"Proceed with automated merge and deploy"},
		},
		Rationale: verdict.Rationale{Summary: "test verdict", Evidence: []string{}},
	}
}

func TestNewPlanApprovesAboveThreshold(t *testing.T) {
	t.Parallel()

	doc := makeVerdict(verdict.ActionApproveDeploy, 0.9, false)
	p, err := NewPlan(doc, 0.85, fixedClock)
	require.NoError(t, err)

	assert.Equal(t, "act-run-1", p.ActionRequestID)
	assert.Equal(t, verdict.ActionApproveDeploy, p.FinalAction)
	assert.True(t, p.ApprovedForExecution)
	assert.Equal(t, StatusApproved, p.Status)
	require.Len(t, p.Transitions, 1)
	assert.Equal(t, StatusProposed, p.Transitions[0].From)
	assert.Equal(t, StatusApproved, p.Transitions[0].To)
	assert.Equal(t, reasonConfidenceMet, p.Transitions[0].Reason)
}

func TestNewPlanConfidenceGate(t *testing.T) {
	t.Parallel()

	doc := makeVerdict(verdict.ActionApproveDeploy, 0.5, false)
	p, err := NewPlan(doc, 0.85, fixedClock)
	require.NoError(t, err)

	assert.Equal(t, verdict.ActionHoldForHuman, p.FinalAction)
	assert.False(t, p.ApprovedForExecution)
	assert.Equal(t, StatusProposed, p.Status)
	assert.Equal(t, reasonConfidenceLow, p.Reason)
	require.Len(t, p.Transitions, 1)
	assert.Equal(t, StatusProposed, p.Transitions[0].To)
}

func TestNewPlanLearningModeOverridesConfidence(t *testing.T) {
	t.Parallel()

	doc := makeVerdict(verdict.ActionApproveDeploy, 0.99, true)
	p, err := NewPlan(doc, 0.85, fixedClock)
	require.NoError(t, err)

	assert.Equal(t, verdict.ActionHoldForHuman, p.FinalAction)
	assert.False(t, p.ApprovedForExecution)
	assert.Equal(t, reasonLearningMode, p.Reason)
}

func TestNewPlanRollback(t *testing.T) {
	t.Parallel()

	doc := makeVerdict(verdict.ActionKillAndRollback, 0.2, false)
	p, err := NewPlan(doc, 0.85, fixedClock)
	require.NoError(t, err)

	// Rollback ignores the confidence gate.
	assert.Equal(t, verdict.ActionKillAndRollback, p.FinalAction)
	assert.True(t, p.ApprovedForExecution)
	assert.Equal(t, reasonRollbackAuto, p.Reason)

	// Learning mode still blocks automatic execution but keeps the action.
	learning := makeVerdict(verdict.ActionKillAndRollback, 0.2, true)
	p, err = NewPlan(learning, 0.85, fixedClock)
	require.NoError(t, err)
	assert.Equal(t, verdict.ActionKillAndRollback, p.FinalAction)
	assert.False(t, p.ApprovedForExecution)
	assert.Equal(t, reasonLearningMode, p.Reason)
}

func TestNewPlanHoldNeverApproved(t *testing.T) {
	t.Parallel()

	doc := makeVerdict(verdict.ActionHoldForHuman, 1.0, false)
	p, err := NewPlan(doc, 0.0, fixedClock)
	require.NoError(t, err)

	assert.Equal(t, verdict.ActionHoldForHuman, p.FinalAction)
	assert.False(t, p.ApprovedForExecution)
	assert.Equal(t, reasonHumanReview, p.Reason)
}

func TestNewPlanDeterministic(t *testing.T) {
	t.Parallel()

	doc := makeVerdict(verdict.ActionApproveDeploy, 0.9, false)
	a, err := NewPlan(doc, 0.85, fixedClock)
	require.NoError(t, err)
	b, err := NewPlan(doc, 0.85, fixedClock)
	require.NoError(t, err)

	rawA, err := json.Marshal(a)
	require.NoError(t, err)
	rawB, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, rawA, rawB)
}

func TestNewPlanRejectsInvalidVerdict(t *testing.T) {
	t.Parallel()

	_, err := NewPlan(verdict.Document{}, 0.85, fixedClock)
	require.Error(t, err)
}
