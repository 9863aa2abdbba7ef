package verdict

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "run": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "run_id": { "type": "string", "minLength": 1 },
        "repo": { "type": "string", "minLength": 1 },
        "pr_number": { "type": "integer", "minimum": 1 },
        "head_sha": { "type": "string", "minLength": 1 },
        "timestamp": { "type": "string", "minLength": 1 }
      },
      "required": ["run_id", "repo", "pr_number", "head_sha", "timestamp"]
    },
    "signals": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "ci": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "status": { "type": "string", "enum": ["passed", "failed"] },
            "coverage_delta": { "type": "number" }
          },
          "required": ["status"]
        },
        "security": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "critical_count": { "type": "integer", "minimum": 0 },
            "high_count": { "type": "integer", "minimum": 0 }
          },
          "required": ["critical_count", "high_count"]
        },
        "change": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "infra": { "type": "boolean" },
            "db_migration": { "type": "boolean" },
            "auth": { "type": "boolean" },
            "secrets": { "type": "boolean" },
            "dependencies": { "type": "boolean" },
            "permissions": { "type": "boolean" },
            "files_changed": { "type": "integer", "minimum": 0 },
            "touched_paths": { "type": "array", "items": { "type": "string" } }
          },
          "required": ["infra", "db_migration", "auth", "secrets", "dependencies", "permissions", "files_changed"]
        },
        "canary": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "status": { "type": "string", "enum": ["passed", "failed"] },
            "error_rate": { "type": "number", "minimum": 0, "maximum": 1 },
            "latency_delta_ms": { "type": "number" }
          },
          "required": ["status", "error_rate", "latency_delta_ms"]
        }
      },
      "required": ["ci", "security", "change"]
    },
    "policy": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "learning_mode": { "type": "boolean" },
        "matched": {
          "type": "array",
          "items": {
            "type": "object",
            "additionalProperties": false,
            "properties": {
              "rule_id": { "type": "string", "minLength": 1 },
              "severity": { "type": "string", "enum": ["BLOCK", "HIGH", "INFO"] },
              "action": { "type": "string", "enum": ["KILL_AND_ROLLBACK", "HOLD_FOR_HUMAN", "REQUIRE_APPROVAL", "ALLOW"] },
              "reason": { "type": "string" }
            },
            "required": ["rule_id", "severity", "action", "reason"]
          }
        },
        "highest_severity": { "type": "string", "enum": ["BLOCK", "HIGH", "INFO", "NONE"] },
        "proposed_action": { "type": "string", "enum": ["KILL_AND_ROLLBACK", "HOLD_FOR_HUMAN", "REQUIRE_APPROVAL", "ALLOW", "NONE"] },
        "proposed_factory_action": { "type": "string", "enum": ["KILL_AND_ROLLBACK", "HOLD_FOR_HUMAN", "APPROVE_AUTOMERGE_DEPLOY", "NONE"] }
      },
      "required": ["learning_mode", "matched", "highest_severity", "proposed_action", "proposed_factory_action"]
    },
    "scorecard": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "tests": { "type": "integer", "minimum": 0, "maximum": 100 },
        "security": { "type": "integer", "minimum": 0, "maximum": 100 },
        "risk": { "type": "integer", "minimum": 0, "maximum": 100 },
        "ops": { "type": "integer", "minimum": 0, "maximum": 100 },
        "policy": { "type": "integer", "minimum": 0, "maximum": 100 },
        "overall": { "type": "integer", "minimum": 0, "maximum": 100 },
        "risk_level": { "type": "string", "enum": ["LOW", "MEDIUM", "HIGH"] }
      },
      "required": ["tests", "security", "risk", "ops", "policy", "overall", "risk_level"]
    },
    "verdict": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "proposed_action": { "type": "string", "enum": ["KILL_AND_ROLLBACK", "HOLD_FOR_HUMAN", "APPROVE_AUTOMERGE_DEPLOY"] },
        "confidence": { "type": "number", "minimum": 0, "maximum": 1 },
        "recommended_next_steps": { "type": "array", "items": { "type": "string" } }
      },
      "required": ["proposed_action", "confidence", "recommended_next_steps"]
    },
    "rationale": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "summary": { "type": "string", "minLength": 1 },
        "evidence": { "type": "array", "items": { "type": "string" } }
      },
      "required": ["summary", "evidence"]
    }
  },
  "required": ["run", "signals", "policy", "scorecard", "verdict", "rationale"]
}`

// Validate checks the document against the verdict schema. A failure lists
// every violated path; it is surfaced, never repaired.
func (d Document) Validate() error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal verdict document: %w", err)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("validate verdict document: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, schemaErr := range result.Errors() {
			errs = append(errs, schemaErr.String())
		}
		sort.Strings(errs)
		return fmt.Errorf("verdict schema validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
