// Package audit persists one JSON record per orchestrated action to an
// append-only JSONL file. Records are schema-validated before they are
// written; a write failure is a hard error.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

// Transition mirrors one plan state change.
type Transition struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

// AdapterResult mirrors the outcome of one adapter invocation.
type AdapterResult struct {
	Adapter   string `json:"adapter"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Record is one audit line: the full outcome of a single execute call.
type Record struct {
	RunID           string          `json:"run_id"`
	ActionRequestID string          `json:"action_request_id"`
	Action          string          `json:"action"`
	Status          string          `json:"status"`
	Reason          string          `json:"reason,omitempty"`
	DryRun          bool            `json:"dry_run"`
	VerdictHash     string          `json:"verdict_hash"`
	Transitions     []Transition    `json:"transitions"`
	Results         []AdapterResult `json:"results"`
	Timestamp       string          `json:"timestamp"`
}

const recordSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "run_id": { "type": "string", "minLength": 1 },
    "action_request_id": { "type": "string", "minLength": 1 },
    "action": { "type": "string", "enum": ["KILL_AND_ROLLBACK", "HOLD_FOR_HUMAN", "APPROVE_AUTOMERGE_DEPLOY"] },
    "status": { "type": "string", "enum": ["PROPOSED", "APPROVED", "EXECUTED", "VERIFIED", "FAILED"] },
    "reason": { "type": "string" },
    "dry_run": { "type": "boolean" },
    "verdict_hash": { "type": "string", "pattern": "^[0-9a-f]{64}$" },
    "transitions": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "from": { "type": "string", "minLength": 1 },
          "to": { "type": "string", "minLength": 1 },
          "reason": { "type": "string" },
          "timestamp": { "type": "string", "minLength": 1 }
        },
        "required": ["from", "to", "reason", "timestamp"]
      }
    },
    "results": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "adapter": { "type": "string", "minLength": 1 },
          "status": { "type": "string", "enum": ["SUCCESS", "SKIPPED", "FAILED"] },
          "message": { "type": "string" },
          "timestamp": { "type": "string", "minLength": 1 }
        },
        "required": ["adapter", "status", "timestamp"]
      }
    },
    "timestamp": { "type": "string", "minLength": 1 }
  },
  "required": ["run_id", "action_request_id", "action", "status", "dry_run", "verdict_hash", "transitions", "results", "timestamp"]
}`

// ContentHash returns the sha256 hex digest of the JSON encoding of v.
func ContentHash(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal for content hash: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

// Writer appends schema-valid records to a JSONL file, creating it and its
// parent directory on first use.
type Writer struct {
	path string
}

// NewWriter returns a writer for the given file path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the file the writer appends to.
func (w *Writer) Path() string {
	return w.path
}

// Append validates the record and writes it as one JSON line.
func (w *Writer) Append(rec Record) error {
	if rec.Transitions == nil {
		rec.Transitions = []Transition{}
	}
	if rec.Results == nil {
		rec.Results = []AdapterResult{}
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal audit record: %w", err)
	}
	if err := validateRecord(raw); err != nil {
		return err
	}

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create audit directory: %w", err)
		}
	}
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	log.Debug().
		Str("run_id", rec.RunID).
		Str("action_request_id", rec.ActionRequestID).
		Str("status", rec.Status).
		Msg("audit record written")
	return nil
}

func validateRecord(raw []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(recordSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("validate audit record: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, schemaErr := range result.Errors() {
			errs = append(errs, schemaErr.String())
		}
		sort.Strings(errs)
		return fmt.Errorf("audit record schema validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ReadAll decodes every record in the file, newest last. A missing file
// yields an empty slice.
func ReadAll(path string) ([]Record, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	var records []Record
	for i, line := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("decode audit record on line %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}
