// Package verdict turns signals and a policy evaluation snapshot into a
// scored, self-validating verdict document with a single proposed action.
package verdict

import (
	"time"

	"github.com/relgate/relgate/internal/signal"
)

// Factory actions a verdict can propose. These are plain strings so the
// document stays a serializable snapshot with no dependency on the policy
// package's types.
const (
	ActionKillAndRollback = "KILL_AND_ROLLBACK"
	ActionHoldForHuman    = "HOLD_FOR_HUMAN"
	ActionApproveDeploy   = "APPROVE_AUTOMERGE_DEPLOY"
	ActionNone            = "NONE"
)

// Risk levels derived from the overall score.
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// Scorecard weights. They are fixed and sum to exactly 1.0.
const (
	WeightTests    = 0.25
	WeightSecurity = 0.25
	WeightOps      = 0.20
	WeightRisk     = 0.15
	WeightPolicy   = 0.15
)

// RunMeta identifies the pipeline run a verdict is built for.
type RunMeta struct {
	RunID     string
	Repo      string
	PRNumber  int
	HeadSHA   string
	Timestamp time.Time
}

// RunInfo is the serialized run metadata inside a verdict document.
type RunInfo struct {
	RunID     string `json:"run_id"`
	Repo      string `json:"repo"`
	PRNumber  int    `json:"pr_number"`
	HeadSHA   string `json:"head_sha"`
	Timestamp string `json:"timestamp"`
}

// PolicyMatch mirrors one matched policy rule.
type PolicyMatch struct {
	RuleID   string `json:"rule_id"`
	Severity string `json:"severity"`
	Action   string `json:"action"`
	Reason   string `json:"reason"`
}

// PolicySnapshot is the plain-data view of a policy evaluation result. The
// engine depends on this shape only, not on the policy package.
type PolicySnapshot struct {
	LearningMode          bool          `json:"learning_mode"`
	Matched               []PolicyMatch `json:"matched"`
	HighestSeverity       string        `json:"highest_severity"`
	ProposedAction        string        `json:"proposed_action"`
	ProposedFactoryAction string        `json:"proposed_factory_action"`
}

// Scorecard holds the five dimension scores, the weighted overall score, and
// the derived risk level. All scores are integers clamped to [0,100].
type Scorecard struct {
	Tests     int    `json:"tests"`
	Security  int    `json:"security"`
	Risk      int    `json:"risk"`
	Ops       int    `json:"ops"`
	Policy    int    `json:"policy"`
	Overall   int    `json:"overall"`
	RiskLevel string `json:"risk_level"`
}

// Decision is the verdict section: the final proposed action with its
// confidence and recommended next steps.
type Decision struct {
	ProposedAction       string   `json:"proposed_action"`
	Confidence           float64  `json:"confidence"`
	RecommendedNextSteps []string `json:"recommended_next_steps"`
}

// Rationale explains the decision with a summary and evidence references.
type Rationale struct {
	Summary  string   `json:"summary"`
	Evidence []string `json:"evidence"`
}

// Document is the immutable verdict for one run. It is created once by Build,
// schema-validated before being returned, and treated as read-only by every
// downstream consumer.
type Document struct {
	Run       RunInfo        `json:"run"`
	Signals   signal.Inputs  `json:"signals"`
	Policy    PolicySnapshot `json:"policy"`
	Scorecard Scorecard      `json:"scorecard"`
	Verdict   Decision       `json:"verdict"`
	Rationale Rationale      `json:"rationale"`
}
