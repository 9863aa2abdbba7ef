package audit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord() Record {
	return Record{
		RunID:           "run-1",
		ActionRequestID: "act-run-1",
		Action:          "APPROVE_AUTOMERGE_DEPLOY",
		Status:          "VERIFIED",
		DryRun:          false,
		VerdictHash:     strings.Repeat("ab", 32),
		Transitions: []Transition{
			{From: "PROPOSED", To: "APPROVED", Reason: "confidence above threshold", Timestamp: "2026-08-28T12:00:00Z"},
		},
		Results: []AdapterResult{
			{Adapter: "merge", Status: "SUCCESS", Timestamp: "2026-08-28T12:00:01Z"},
		},
		Timestamp: "2026-08-28T12:00:02Z",
	}
}

func TestAppendAndReadBack(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "audit", "audit.jsonl")
	w := NewWriter(path)

	require.NoError(t, w.Append(testRecord()))

	second := testRecord()
	second.RunID = "run-2"
	second.ActionRequestID = "act-run-2"
	require.NoError(t, w.Append(second))

	records, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "run-1", records[0].RunID)
	assert.Equal(t, "run-2", records[1].RunID)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	assert.Len(t, lines, 2)
}

func TestAppendRejectsInvalidRecord(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "audit.jsonl")
	w := NewWriter(path)

	rec := testRecord()
	rec.Status = "DONE"
	err := w.Append(rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")

	// Nothing may reach the file when validation fails.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAppendRejectsBadHash(t *testing.T) {
	t.Parallel()

	w := NewWriter(filepath.Join(t.TempDir(), "audit.jsonl"))
	rec := testRecord()
	rec.VerdictHash = "not-a-digest"
	require.Error(t, w.Append(rec))
}

func TestAppendNormalizesNilSlices(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "audit.jsonl")
	w := NewWriter(path)

	rec := testRecord()
	rec.Transitions = nil
	rec.Results = nil
	require.NoError(t, w.Append(rec))

	records, err := ReadAll(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotNil(t, records[0].Transitions)
	assert.NotNil(t, records[0].Results)
}

func TestReadAllMissingFile(t *testing.T) {
	t.Parallel()

	records, err := ReadAll(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestReadAllRejectsCorruptLine(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "audit.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"run_id\":\"run-1\"}\nnot json\n"), 0o644))

	_, err := ReadAll(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestContentHashIsStable(t *testing.T) {
	t.Parallel()

	type doc struct {
		A string `json:"a"`
		B int    `json:"b"`
	}
	h1, err := ContentHash(doc{A: "x", B: 2})
	require.NoError(t, err)
	h2, err := ContentHash(doc{A: "x", B: 2})
	require.NoError(t, err)
	h3, err := ContentHash(doc{A: "x", B: 3})
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
	assert.Len(t, h1, 64)
}
