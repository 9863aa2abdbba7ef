package verdict

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relgate/relgate/internal/signal"
)

func floatPtr(v float64) *float64 { return &v }

func TestWeightsSumToOne(t *testing.T) {
	t.Parallel()

	sum := WeightTests + WeightSecurity + WeightOps + WeightRisk + WeightPolicy
	assert.InDelta(t, 1.0, sum, 1e-12)
}

func TestScoreTests(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		ci   signal.CISignals
		want int
	}{
		{"ci failed", signal.CISignals{Status: signal.CIFailed}, 0},
		{"ci failed ignores coverage", signal.CISignals{Status: signal.CIFailed, CoverageDelta: floatPtr(10)}, 0},
		{"base", signal.CISignals{Status: signal.CIPassed}, 90},
		{"coverage dropped hard", signal.CISignals{Status: signal.CIPassed, CoverageDelta: floatPtr(-5)}, 50},
		{"coverage dropped", signal.CISignals{Status: signal.CIPassed, CoverageDelta: floatPtr(-0.5)}, 75},
		{"coverage improved", signal.CISignals{Status: signal.CIPassed, CoverageDelta: floatPtr(1.2)}, 95},
		{"coverage flat", signal.CISignals{Status: signal.CIPassed, CoverageDelta: floatPtr(0)}, 90},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, scoreTests(tc.ci), tc.name)
	}
}

func TestScoreSecurity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 90, scoreSecurity(signal.SecuritySignals{}))
	assert.Equal(t, 0, scoreSecurity(signal.SecuritySignals{CriticalCount: 1}))
	assert.Equal(t, 0, scoreSecurity(signal.SecuritySignals{HighCount: 3}))
}

func TestScoreOps(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 70, scoreOps(nil))
	assert.Equal(t, 90, scoreOps(&signal.CanarySignals{Status: signal.CanaryPassed, ErrorRate: 0.01, LatencyDeltaMS: 20}))
	assert.Equal(t, 0, scoreOps(&signal.CanarySignals{Status: signal.CanaryFailed}))
	assert.Equal(t, 0, scoreOps(&signal.CanarySignals{Status: signal.CanaryPassed, ErrorRate: 0.05}))
	assert.Equal(t, 0, scoreOps(&signal.CanarySignals{Status: signal.CanaryPassed, LatencyDeltaMS: 150}))
}

func TestScoreRisk(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 100, scoreRisk(signal.ChangeSignals{FilesChanged: 3}))
	assert.Equal(t, 75, scoreRisk(signal.ChangeSignals{Infra: true, FilesChanged: 3}))
	assert.Equal(t, 50, scoreRisk(signal.ChangeSignals{Infra: true, DBMigration: true, FilesChanged: 3}))
	assert.Equal(t, 90, scoreRisk(signal.ChangeSignals{FilesChanged: 51}))
	assert.Equal(t, 80, scoreRisk(signal.ChangeSignals{FilesChanged: 201}))
	assert.Equal(t, 95, scoreRisk(signal.ChangeSignals{FilesChanged: 2, TouchedPaths: []string{"deploy/terraform/main.tf"}}))
	// Everything at once clamps at zero.
	assert.Equal(t, 0, scoreRisk(signal.ChangeSignals{
		Infra: true, DBMigration: true, Auth: true, Secrets: true,
		Dependencies: true, Permissions: true, FilesChanged: 300,
		TouchedPaths: []string{"secrets/.env"},
	}))
}

func TestScorePolicy(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 75, scorePolicy(PolicySnapshot{}))
	assert.Equal(t, 85, scorePolicy(PolicySnapshot{Matched: []PolicyMatch{{Severity: "INFO"}}}))
	assert.Equal(t, 60, scorePolicy(PolicySnapshot{Matched: []PolicyMatch{{Severity: "INFO"}, {Severity: "HIGH"}}}))
	assert.Equal(t, 0, scorePolicy(PolicySnapshot{Matched: []PolicyMatch{{Severity: "HIGH"}, {Severity: "BLOCK"}}}))
}

func TestRiskLevelOverrides(t *testing.T) {
	t.Parallel()

	// Threshold mapping without flags.
	assert.Equal(t, RiskLow, riskLevelFor(75, signal.ChangeSignals{}))
	assert.Equal(t, RiskMedium, riskLevelFor(74, signal.ChangeSignals{}))
	assert.Equal(t, RiskMedium, riskLevelFor(40, signal.ChangeSignals{}))
	assert.Equal(t, RiskHigh, riskLevelFor(39, signal.ChangeSignals{}))

	// infra + migration force HIGH regardless of score.
	assert.Equal(t, RiskHigh, riskLevelFor(95, signal.ChangeSignals{Infra: true, DBMigration: true}))

	// A single flag upgrades LOW to MEDIUM but never downgrades.
	assert.Equal(t, RiskMedium, riskLevelFor(95, signal.ChangeSignals{Infra: true}))
	assert.Equal(t, RiskMedium, riskLevelFor(60, signal.ChangeSignals{DBMigration: true}))
	assert.Equal(t, RiskHigh, riskLevelFor(20, signal.ChangeSignals{Infra: true}))
}

func TestOverallIsClampedInteger(t *testing.T) {
	t.Parallel()

	in := signal.Inputs{
		CI:       signal.CISignals{Status: signal.CIPassed},
		Security: signal.SecuritySignals{},
		Change:   signal.ChangeSignals{FilesChanged: 1},
	}
	sc := buildScorecard(in, PolicySnapshot{})
	assert.GreaterOrEqual(t, sc.Overall, 0)
	assert.LessOrEqual(t, sc.Overall, 100)

	want := int(math.Round(WeightTests*90 + WeightSecurity*90 + WeightOps*70 + WeightRisk*100 + WeightPolicy*75))
	assert.Equal(t, want, sc.Overall)
}
