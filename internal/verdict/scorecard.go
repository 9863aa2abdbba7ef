package verdict

import (
	"math"
	"strings"

	"github.com/relgate/relgate/internal/signal"
)

// Canary thresholds beyond which the ops dimension zeroes out.
const (
	canaryMaxErrorRate      = 0.02
	canaryMaxLatencyDeltaMS = 100
)

// Path fragments that mark a touched file as infra/db/secrets sensitive.
var riskyPathKeywords = []string{"terraform", "infra", "k8s", "migration", "db/", "secret", ".env"}

func buildScorecard(in signal.Inputs, pol PolicySnapshot) Scorecard {
	sc := Scorecard{
		Tests:    scoreTests(in.CI),
		Security: scoreSecurity(in.Security),
		Risk:     scoreRisk(in.Change),
		Ops:      scoreOps(in.Canary),
		Policy:   scorePolicy(pol),
	}
	weighted := WeightTests*float64(sc.Tests) +
		WeightSecurity*float64(sc.Security) +
		WeightOps*float64(sc.Ops) +
		WeightRisk*float64(sc.Risk) +
		WeightPolicy*float64(sc.Policy)
	sc.Overall = clampScore(int(math.Round(weighted)))
	sc.RiskLevel = riskLevelFor(sc.Overall, in.Change)
	return sc
}

func scoreTests(ci signal.CISignals) int {
	if ci.Status == signal.CIFailed {
		return 0
	}
	score := 90
	if cd := ci.CoverageDelta; cd != nil {
		switch {
		case *cd <= -5:
			score -= 40
		case *cd < 0:
			score -= 15
		case *cd > 0:
			score += 5
		}
	}
	return clampScore(score)
}

func scoreSecurity(sec signal.SecuritySignals) int {
	if sec.CriticalCount > 0 || sec.HighCount > 0 {
		return 0
	}
	return 90
}

func scoreOps(canary *signal.CanarySignals) int {
	if canary == nil {
		return 70
	}
	if canary.Status == signal.CanaryFailed ||
		canary.ErrorRate > canaryMaxErrorRate ||
		canary.LatencyDeltaMS > canaryMaxLatencyDeltaMS {
		return 0
	}
	return 90
}

func scoreRisk(change signal.ChangeSignals) int {
	score := 100
	if change.Infra {
		score -= 25
	}
	if change.DBMigration {
		score -= 25
	}
	if change.Auth {
		score -= 15
	}
	if change.Secrets {
		score -= 20
	}
	if change.Dependencies {
		score -= 10
	}
	if change.Permissions {
		score -= 20
	}
	switch {
	case change.FilesChanged > 200:
		score -= 20
	case change.FilesChanged > 50:
		score -= 10
	}
	if touchesRiskyPath(change.TouchedPaths) {
		score -= 5
	}
	return clampScore(score)
}

func touchesRiskyPath(paths []string) bool {
	for _, p := range paths {
		lower := strings.ToLower(p)
		for _, kw := range riskyPathKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

func scorePolicy(pol PolicySnapshot) int {
	if len(pol.Matched) == 0 {
		return 75
	}
	hasHigh := false
	for _, m := range pol.Matched {
		switch m.Severity {
		case "BLOCK":
			return 0
		case "HIGH":
			hasHigh = true
		}
	}
	if hasHigh {
		return 60
	}
	return 85
}

// riskLevelFor maps the overall score onto a risk level, then applies the
// hard overrides: infra+migration together force HIGH; either alone upgrades
// LOW to MEDIUM. Overrides never downgrade.
func riskLevelFor(overall int, change signal.ChangeSignals) string {
	level := RiskHigh
	switch {
	case overall >= 75:
		level = RiskLow
	case overall >= 40:
		level = RiskMedium
	}
	if change.Infra && change.DBMigration {
		return RiskHigh
	}
	if (change.Infra || change.DBMigration) && level == RiskLow {
		return RiskMedium
	}
	return level
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
