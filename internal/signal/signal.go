// Package signal defines the signal vector evaluated by release policies
// and the richer input document consumed by the scorecard.
package signal

// CI status values reported by the pipeline.
const (
	CIPassed = "passed"
	CIFailed = "failed"
)

// Canary status values.
const (
	CanaryPassed = "passed"
	CanaryFailed = "failed"
)

// Vector is the flat, fully-populated signal record a policy condition is
// evaluated against. Field paths mirror AllowedPaths.
type Vector struct {
	CIStatus             string  `json:"ci_status"`
	SecurityCritical     int     `json:"security_critical_count"`
	SecurityHigh         int     `json:"security_high_count"`
	ChangeInfra          bool    `json:"change_infra"`
	ChangeDBMigration    bool    `json:"change_db_migration"`
	ChangeAuth           bool    `json:"change_auth"`
	ChangeSecrets        bool    `json:"change_secrets"`
	ChangeDependencies   bool    `json:"change_dependencies"`
	CanaryErrorRate      float64 `json:"canary_error_rate"`
	CanaryLatencyDeltaMS float64 `json:"canary_latency_delta_ms"`
}

// AllowedPaths returns the fixed identifier allowlist for policy conditions.
// Every identifier in every rule condition must resolve to one of these.
func AllowedPaths() []string {
	return []string{
		"ci.status",
		"security.critical_count",
		"security.high_count",
		"change.infra",
		"change.db_migration",
		"change.auth",
		"change.secrets",
		"change.dependencies",
		"canary.error_rate",
		"canary.latency_delta_ms",
	}
}

// Resolve returns the typed value for an allowlisted identifier path.
// Numeric signals resolve as float64 so comparisons share one numeric type.
func (v Vector) Resolve(path string) (any, bool) {
	switch path {
	case "ci.status":
		return v.CIStatus, true
	case "security.critical_count":
		return float64(v.SecurityCritical), true
	case "security.high_count":
		return float64(v.SecurityHigh), true
	case "change.infra":
		return v.ChangeInfra, true
	case "change.db_migration":
		return v.ChangeDBMigration, true
	case "change.auth":
		return v.ChangeAuth, true
	case "change.secrets":
		return v.ChangeSecrets, true
	case "change.dependencies":
		return v.ChangeDependencies, true
	case "canary.error_rate":
		return v.CanaryErrorRate, true
	case "canary.latency_delta_ms":
		return v.CanaryLatencyDeltaMS, true
	default:
		return nil, false
	}
}
