package signal

import (
	"fmt"
	"strings"
)

// Inputs is the full signal document for one evaluation: everything the
// policy vector carries plus the change summary and CI detail the scorecard
// needs. Canary is optional; every other section is required.
type Inputs struct {
	CI       CISignals       `json:"ci"`
	Security SecuritySignals `json:"security"`
	Change   ChangeSignals   `json:"change"`
	Canary   *CanarySignals  `json:"canary,omitempty"`
}

// CISignals carries the CI gate result for the head commit.
type CISignals struct {
	Status        string   `json:"status"`
	CoverageDelta *float64 `json:"coverage_delta,omitempty"`
}

// SecuritySignals carries finding counts from the security scan.
type SecuritySignals struct {
	CriticalCount int `json:"critical_count"`
	HighCount     int `json:"high_count"`
}

// ChangeSignals summarizes what the change touches.
type ChangeSignals struct {
	Infra        bool     `json:"infra"`
	DBMigration  bool     `json:"db_migration"`
	Auth         bool     `json:"auth"`
	Secrets      bool     `json:"secrets"`
	Dependencies bool     `json:"dependencies"`
	Permissions  bool     `json:"permissions"`
	FilesChanged int      `json:"files_changed"`
	TouchedPaths []string `json:"touched_paths,omitempty"`
}

// CanarySignals carries canary health for the deployed change.
type CanarySignals struct {
	Status         string  `json:"status"`
	ErrorRate      float64 `json:"error_rate"`
	LatencyDeltaMS float64 `json:"latency_delta_ms"`
}

// Validate checks every field for presence and sanity, collecting all
// violations instead of stopping at the first. Evaluation never proceeds on
// a partial signal set.
func (in Inputs) Validate() error {
	var problems []string
	if in.CI.Status == "" {
		problems = append(problems, "ci.status: missing")
	} else if in.CI.Status != CIPassed && in.CI.Status != CIFailed {
		problems = append(problems, fmt.Sprintf("ci.status: unknown value %q", in.CI.Status))
	}
	if in.Security.CriticalCount < 0 {
		problems = append(problems, "security.critical_count: must be >= 0")
	}
	if in.Security.HighCount < 0 {
		problems = append(problems, "security.high_count: must be >= 0")
	}
	if in.Change.FilesChanged < 0 {
		problems = append(problems, "change.files_changed: must be >= 0")
	}
	if c := in.Canary; c != nil {
		if c.Status == "" {
			problems = append(problems, "canary.status: missing")
		} else if c.Status != CanaryPassed && c.Status != CanaryFailed {
			problems = append(problems, fmt.Sprintf("canary.status: unknown value %q", c.Status))
		}
		if c.ErrorRate < 0 || c.ErrorRate > 1 {
			problems = append(problems, "canary.error_rate: must be in [0,1]")
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("incomplete signal inputs: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Vector flattens the inputs into the policy signal vector. An absent canary
// contributes zero rates; policies that care about canary health should also
// gate on ci/change signals.
func (in Inputs) Vector() Vector {
	v := Vector{
		CIStatus:           in.CI.Status,
		SecurityCritical:   in.Security.CriticalCount,
		SecurityHigh:       in.Security.HighCount,
		ChangeInfra:        in.Change.Infra,
		ChangeDBMigration:  in.Change.DBMigration,
		ChangeAuth:         in.Change.Auth,
		ChangeSecrets:      in.Change.Secrets,
		ChangeDependencies: in.Change.Dependencies,
	}
	if in.Canary != nil {
		v.CanaryErrorRate = in.Canary.ErrorRate
		v.CanaryLatencyDeltaMS = in.Canary.LatencyDeltaMS
	}
	return v
}

// Validate checks the flat vector before policy evaluation, enumerating every
// offending field by name.
func (v Vector) Validate() error {
	var problems []string
	if v.CIStatus == "" {
		problems = append(problems, "ci.status: missing")
	}
	if v.SecurityCritical < 0 {
		problems = append(problems, "security.critical_count: must be >= 0")
	}
	if v.SecurityHigh < 0 {
		problems = append(problems, "security.high_count: must be >= 0")
	}
	if v.CanaryErrorRate < 0 {
		problems = append(problems, "canary.error_rate: must be >= 0")
	}
	if len(problems) > 0 {
		return fmt.Errorf("incomplete signal vector: %s", strings.Join(problems, "; "))
	}
	return nil
}
