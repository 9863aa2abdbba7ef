package verdict

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/relgate/relgate/internal/signal"
)

// Build computes the verdict document for one run. It fails fast on any
// missing required input, applies the scorecard, the hard safety overrides,
// and the confidence model, and validates the finished document against its
// own schema before returning it. For fixed inputs the output is
// byte-identical across calls.
func Build(meta RunMeta, in signal.Inputs, pol PolicySnapshot) (Document, error) {
	if err := validateMeta(meta); err != nil {
		return Document{}, err
	}
	if err := in.Validate(); err != nil {
		return Document{}, err
	}
	if err := validateSnapshot(pol); err != nil {
		return Document{}, err
	}
	if pol.Matched == nil {
		pol.Matched = []PolicyMatch{}
	}

	sc := buildScorecard(in, pol)
	action := finalAction(in, pol, sc)
	conf := confidence(sc.Overall, sc.RiskLevel)
	rationale, steps := buildRationale(in, pol, sc, action, conf)

	doc := Document{
		Run: RunInfo{
			RunID:     meta.RunID,
			Repo:      meta.Repo,
			PRNumber:  meta.PRNumber,
			HeadSHA:   meta.HeadSHA,
			Timestamp: meta.Timestamp.UTC().Format(time.RFC3339),
		},
		Signals:   in,
		Policy:    pol,
		Scorecard: sc,
		Verdict: Decision{
			ProposedAction:       action,
			Confidence:           conf,
			RecommendedNextSteps: steps,
		},
		Rationale: rationale,
	}
	if err := doc.Validate(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func validateMeta(meta RunMeta) error {
	var missing []string
	if meta.RunID == "" {
		missing = append(missing, "run_id")
	}
	if meta.Repo == "" {
		missing = append(missing, "repo")
	}
	if meta.PRNumber <= 0 {
		missing = append(missing, "pr_number")
	}
	if meta.HeadSHA == "" {
		missing = append(missing, "head_sha")
	}
	if meta.Timestamp.IsZero() {
		missing = append(missing, "timestamp")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing run metadata: %s", strings.Join(missing, ", "))
	}
	return nil
}

func validateSnapshot(pol PolicySnapshot) error {
	var problems []string
	switch pol.HighestSeverity {
	case "BLOCK", "HIGH", "INFO", "NONE":
	default:
		problems = append(problems, fmt.Sprintf("highest_severity: unknown value %q", pol.HighestSeverity))
	}
	switch pol.ProposedFactoryAction {
	case ActionKillAndRollback, ActionHoldForHuman, ActionApproveDeploy, ActionNone:
	default:
		problems = append(problems, fmt.Sprintf("proposed_factory_action: unknown value %q", pol.ProposedFactoryAction))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid policy snapshot: %s", strings.Join(problems, "; "))
	}
	return nil
}

// finalAction starts from the policy-mapped factory action and applies the
// hard overrides in order. Overrides stack but a rollback is never softened:
// the later learning-mode and low-score overrides only touch an approval.
func finalAction(in signal.Inputs, pol PolicySnapshot, sc Scorecard) string {
	action := pol.ProposedFactoryAction
	if action == ActionNone || action == "" {
		action = ActionHoldForHuman
	}
	if in.CI.Status == signal.CIFailed {
		action = ActionKillAndRollback
	}
	if in.Canary != nil && in.Canary.Status == signal.CanaryFailed {
		action = ActionKillAndRollback
	}
	if in.Security.CriticalCount > 0 || in.Security.HighCount > 0 {
		action = ActionKillAndRollback
	}
	if pol.LearningMode && action == ActionApproveDeploy {
		action = ActionHoldForHuman
	}
	if sc.Overall < 40 && action == ActionApproveDeploy {
		action = ActionHoldForHuman
	}
	return action
}

// confidence derives a [0,1] confidence from the overall score, damped by
// risk level, rounded to two decimals.
func confidence(overall int, riskLevel string) float64 {
	base := float64(overall) / 100
	var c float64
	switch riskLevel {
	case RiskHigh:
		c = base * 0.5
	case RiskMedium:
		c = base * 0.75
	default:
		c = 0.5 + base*0.5
	}
	c = math.Round(c*100) / 100
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
