package verdict

import (
	"fmt"

	"github.com/relgate/relgate/internal/signal"
)

// Fixed next steps per blocker and risk flag.
const (
	stepFixCI          = "Fix the failing CI run and re-trigger the gate"
	stepRollbackCanary = "Roll back the canary and investigate the regression"
	stepFixFindings    = "Resolve all critical and high security findings"
	stepReviewInfra    = "Get an infrastructure owner review"
	stepVerifyRollback = "Verify the migration has a tested rollback path"
	stepReviewAuth     = "Request a security review of the auth changes"
	stepRotateSecrets  = "Rotate any exposed secrets and audit access"
	stepReviewDeps     = "Review the dependency diff for supply-chain risk"
	stepReviewPerms    = "Review permission changes with the platform team"
	stepHoldForHuman   = "Hold for human review"
	stepProceed        = "Proceed with automated merge and deploy"
)

// buildRationale deterministically lists blockers and active risk flags with
// their evidence, and collects the recommended next steps with duplicates
// removed in first-seen order.
func buildRationale(in signal.Inputs, pol PolicySnapshot, sc Scorecard, action string, conf float64) (Rationale, []string) {
	var blockers, evidence []string
	steps := newStepList()

	if in.CI.Status == signal.CIFailed {
		blockers = append(blockers, "CI failed")
		evidence = append(evidence, "ci.status=failed")
		steps.add(stepFixCI)
	}
	if in.Canary != nil && in.Canary.Status == signal.CanaryFailed {
		blockers = append(blockers, "canary failed")
		evidence = append(evidence, fmt.Sprintf("canary.status=failed error_rate=%.4f", in.Canary.ErrorRate))
		steps.add(stepRollbackCanary)
	}
	if in.Security.CriticalCount > 0 || in.Security.HighCount > 0 {
		blockers = append(blockers, "security findings present")
		evidence = append(evidence, fmt.Sprintf("security.critical_count=%d security.high_count=%d",
			in.Security.CriticalCount, in.Security.HighCount))
		steps.add(stepFixFindings)
	}
	for _, m := range pol.Matched {
		evidence = append(evidence, fmt.Sprintf("policy.rule=%s severity=%s", m.RuleID, m.Severity))
		if m.Severity == "BLOCK" {
			blockers = append(blockers, fmt.Sprintf("policy rule %s blocked the release", m.RuleID))
			steps.add(fmt.Sprintf("Address blocking policy rule %s: %s", m.RuleID, m.Reason))
		}
	}

	flagSteps := []struct {
		active bool
		label  string
		step   string
	}{
		{in.Change.Infra, "change.infra=true", stepReviewInfra},
		{in.Change.DBMigration, "change.db_migration=true", stepVerifyRollback},
		{in.Change.Auth, "change.auth=true", stepReviewAuth},
		{in.Change.Secrets, "change.secrets=true", stepRotateSecrets},
		{in.Change.Dependencies, "change.dependencies=true", stepReviewDeps},
		{in.Change.Permissions, "change.permissions=true", stepReviewPerms},
	}
	for _, f := range flagSteps {
		if f.active {
			evidence = append(evidence, f.label)
			steps.add(f.step)
		}
	}

	if steps.empty() {
		if action == ActionApproveDeploy {
			steps.add(stepProceed)
		} else {
			steps.add(stepHoldForHuman)
		}
	}

	summary := fmt.Sprintf("proposed %s: overall %d/100, risk %s, confidence %.2f, %d blocker(s), %d policy match(es)",
		action, sc.Overall, sc.RiskLevel, conf, len(blockers), len(pol.Matched))
	if evidence == nil {
		evidence = []string{}
	}
	return Rationale{Summary: summary, Evidence: evidence}, steps.items
}

type stepList struct {
	items []string
	seen  map[string]struct{}
}

func newStepList() *stepList {
	return &stepList{items: []string{}, seen: make(map[string]struct{})}
}

func (l *stepList) add(step string) {
	if _, dup := l.seen[step]; dup {
		return
	}
	l.seen[step] = struct{}{}
	l.items = append(l.items, step)
}

func (l *stepList) empty() bool { return len(l.items) == 0 }
