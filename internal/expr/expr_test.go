package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relgate/relgate/internal/signal"
)

func testVector() signal.Vector {
	return signal.Vector{
		CIStatus:             signal.CIFailed,
		SecurityCritical:     2,
		SecurityHigh:         0,
		ChangeInfra:          true,
		ChangeDBMigration:    false,
		ChangeAuth:           false,
		ChangeSecrets:        false,
		ChangeDependencies:   true,
		CanaryErrorRate:      0.05,
		CanaryLatencyDeltaMS: 150,
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		expr string
		want bool
	}{
		{"string equal", `ci.status == "failed"`, true},
		{"string not equal", `ci.status != "passed"`, true},
		{"numeric greater", `security.critical_count > 0`, true},
		{"numeric greater equal", `security.critical_count >= 2`, true},
		{"numeric less", `security.high_count < 1`, true},
		{"float compare", `canary.error_rate > 0.02`, true},
		{"negative literal", `canary.latency_delta_ms > -10`, true},
		{"bool equal", `change.infra == true`, true},
		{"bool not equal", `change.db_migration != true`, true},
		{"and both true", `change.infra == true && security.critical_count > 0`, true},
		{"and one false", `change.infra == true && security.high_count > 0`, false},
		{"or rescues", `security.high_count > 0 || canary.error_rate > 0.02`, true},
		{"precedence and binds tighter", `ci.status == "passed" && change.infra == true || change.dependencies == true`, true},
		{"cross-type relational is false", `ci.status > 5`, false},
		{"cross-type equality is false", `change.infra == "true"`, false},
		{"string ordering", `ci.status < "zzz"`, true},
		{"escaped quote in literal", `ci.status == "fail\"ed"`, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Evaluate(tc.expr, testVector())
			require.NoError(t, err)
			assert.Equal(t, tc.want, got, tc.expr)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		expr string
		want string
	}{
		{"bare word literal", `ci.status == success`, "bare word"},
		{"unknown identifier", `ci.branch == "main"`, "unknown identifier"},
		{"unknown identifier in unreached branch", `ci.status == "failed" || mystery.field == true`, "unknown identifier"},
		{"unexpected character", `ci.status @ "failed"`, "unexpected character"},
		{"unterminated string", `ci.status == "failed`, "unterminated string"},
		{"missing operator", `ci.status "failed"`, "expected comparison operator"},
		{"missing literal", `ci.status ==`, "unexpected end of expression"},
		{"leftover tokens", `ci.status == "failed" change.infra == true`, "unexpected token"},
		{"literal first", `"failed" == ci.status`, "expected identifier"},
		{"lone minus", `security.high_count > -`, "invalid numeric literal"},
		{"empty expression", ``, "unexpected end of expression"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Evaluate(tc.expr, testVector())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestEvaluateQuotedVsBare(t *testing.T) {
	t.Parallel()

	got, err := Evaluate(`ci.status == "failed"`, testVector())
	require.NoError(t, err)
	assert.True(t, got)

	_, err = Evaluate(`ci.status == failed`, testVector())
	require.Error(t, err)
}
