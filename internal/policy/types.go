// Package policy defines release policy documents and evaluates their rules
// against a signal vector.
package policy

// Action is the rule-level action named in a policy document.
type Action string

const (
	ActionKillAndRollback Action = "KILL_AND_ROLLBACK"
	ActionHoldForHuman    Action = "HOLD_FOR_HUMAN"
	ActionRequireApproval Action = "REQUIRE_APPROVAL"
	ActionAllow           Action = "ALLOW"
	ActionNone            Action = "NONE"
)

// FactoryAction is the pipeline-level action a policy action maps to.
type FactoryAction string

const (
	FactoryKillAndRollback FactoryAction = "KILL_AND_ROLLBACK"
	FactoryHoldForHuman    FactoryAction = "HOLD_FOR_HUMAN"
	FactoryApproveDeploy   FactoryAction = "APPROVE_AUTOMERGE_DEPLOY"
	FactoryNone            FactoryAction = "NONE"
)

// Severity ranks a matched rule. BLOCK outranks HIGH outranks INFO.
type Severity string

const (
	SeverityBlock Severity = "BLOCK"
	SeverityHigh  Severity = "HIGH"
	SeverityInfo  Severity = "INFO"
	SeverityNone  Severity = "NONE"
)

// rank orders severities for winner selection; lower is stronger.
func rank(s Severity) int {
	switch s {
	case SeverityBlock:
		return 0
	case SeverityHigh:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}

// Rule is one declarative gate: when its condition holds, the rule's action
// and severity enter the evaluation result.
type Rule struct {
	ID       string   `json:"id"        yaml:"id"`
	When     string   `json:"when"      yaml:"when"`
	Then     Action   `json:"then"      yaml:"then"`
	Severity Severity `json:"severity"  yaml:"severity"`
	Reason   string   `json:"reason"    yaml:"reason"`
}

// Defaults carries document-level evaluation defaults.
type Defaults struct {
	LearningMode bool `json:"learning_mode" yaml:"learning_mode"`
}

// Document is a parsed, validated release policy.
type Document struct {
	Version  string   `json:"version"            yaml:"version"`
	Defaults Defaults `json:"defaults,omitempty" yaml:"defaults"`
	Rules    []Rule   `json:"rules"              yaml:"rules"`
}

// Match records one rule that fired, in document order.
type Match struct {
	RuleID   string   `json:"rule_id"`
	Severity Severity `json:"severity"`
	Action   Action   `json:"action"`
	Reason   string   `json:"reason"`
}

// Result is the outcome of evaluating a policy against one signal vector.
// It is created fresh per evaluation and never mutated afterward.
type Result struct {
	Matched               []Match       `json:"matched"`
	HighestSeverity       Severity      `json:"highest_severity"`
	ProposedAction        Action        `json:"proposed_action"`
	ProposedFactoryAction FactoryAction `json:"proposed_factory_action"`
}
