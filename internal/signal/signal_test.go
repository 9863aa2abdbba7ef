package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveCoversEveryAllowedPath(t *testing.T) {
	t.Parallel()

	v := Vector{
		CIStatus:             CIPassed,
		SecurityCritical:     1,
		SecurityHigh:         2,
		ChangeInfra:          true,
		CanaryErrorRate:      0.01,
		CanaryLatencyDeltaMS: 40,
	}
	for _, path := range AllowedPaths() {
		_, ok := v.Resolve(path)
		assert.True(t, ok, "path %q must resolve", path)
	}

	_, ok := v.Resolve("deploy.window")
	assert.False(t, ok)
}

func TestResolveNumericsAreFloat64(t *testing.T) {
	t.Parallel()

	v := Vector{SecurityCritical: 3, CanaryLatencyDeltaMS: 120}
	got, ok := v.Resolve("security.critical_count")
	require.True(t, ok)
	assert.Equal(t, float64(3), got)

	got, ok = v.Resolve("canary.latency_delta_ms")
	require.True(t, ok)
	assert.Equal(t, float64(120), got)
}

func TestInputsVectorWithoutCanary(t *testing.T) {
	t.Parallel()

	in := Inputs{
		CI:       CISignals{Status: CIPassed},
		Security: SecuritySignals{CriticalCount: 1},
		Change:   ChangeSignals{Infra: true, FilesChanged: 3},
	}
	v := in.Vector()
	assert.Equal(t, CIPassed, v.CIStatus)
	assert.Equal(t, 1, v.SecurityCritical)
	assert.True(t, v.ChangeInfra)
	assert.Zero(t, v.CanaryErrorRate)
	assert.Zero(t, v.CanaryLatencyDeltaMS)
}

func TestInputsValidateCollectsAllProblems(t *testing.T) {
	t.Parallel()

	in := Inputs{
		CI:       CISignals{Status: "flaky"},
		Security: SecuritySignals{CriticalCount: -1},
		Change:   ChangeSignals{FilesChanged: -2},
		Canary:   &CanarySignals{Status: CanaryPassed, ErrorRate: 1.5},
	}
	err := in.Validate()
	require.Error(t, err)
	for _, want := range []string{"ci.status", "security.critical_count", "change.files_changed", "canary.error_rate"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestParseInputs(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"ci": {"status": "passed", "coverage_delta": -1.5},
		"security": {"critical_count": 0, "high_count": 0},
		"change": {"infra": false, "db_migration": false, "auth": false, "secrets": false, "dependencies": true, "permissions": false, "files_changed": 12, "touched_paths": ["go.mod"]},
		"canary": {"status": "passed", "error_rate": 0.004, "latency_delta_ms": 12}
	}`)
	in, err := ParseInputs(raw)
	require.NoError(t, err)
	assert.Equal(t, CIPassed, in.CI.Status)
	require.NotNil(t, in.CI.CoverageDelta)
	assert.Equal(t, -1.5, *in.CI.CoverageDelta)
	require.NotNil(t, in.Canary)
	assert.Equal(t, 0.004, in.Canary.ErrorRate)
}

func TestParseInputsOptionalCanary(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"ci": {"status": "failed"},
		"security": {"critical_count": 2, "high_count": 1},
		"change": {"infra": true, "db_migration": false, "auth": false, "secrets": false, "dependencies": false, "permissions": false, "files_changed": 5}
	}`)
	in, err := ParseInputs(raw)
	require.NoError(t, err)
	assert.Nil(t, in.Canary)
}

func TestParseInputsRejections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
	}{
		{"unknown top-level field", `{"ci": {"status": "passed"}, "security": {"critical_count": 0, "high_count": 0}, "change": {"infra": false, "db_migration": false, "auth": false, "secrets": false, "dependencies": false, "permissions": false, "files_changed": 0}, "extra": true}`},
		{"missing security section", `{"ci": {"status": "passed"}, "change": {"infra": false, "db_migration": false, "auth": false, "secrets": false, "dependencies": false, "permissions": false, "files_changed": 0}}`},
		{"bad ci status", `{"ci": {"status": "maybe"}, "security": {"critical_count": 0, "high_count": 0}, "change": {"infra": false, "db_migration": false, "auth": false, "secrets": false, "dependencies": false, "permissions": false, "files_changed": 0}}`},
		{"negative count", `{"ci": {"status": "passed"}, "security": {"critical_count": -1, "high_count": 0}, "change": {"infra": false, "db_migration": false, "auth": false, "secrets": false, "dependencies": false, "permissions": false, "files_changed": 0}}`},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseInputs([]byte(tc.raw))
			require.Error(t, err)
		})
	}
}
