package signal

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const inputsSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
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
}`

// ParseInputs validates a raw signal document against the inputs schema and
// decodes it. Schema failures report every violated path, not just the first.
func ParseInputs(raw []byte) (Inputs, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(inputsSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return Inputs{}, fmt.Errorf("validate signal inputs: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, schemaErr := range result.Errors() {
			errs = append(errs, schemaErr.String())
		}
		sort.Strings(errs)
		return Inputs{}, fmt.Errorf("signal inputs schema validation failed: %s", strings.Join(errs, "; "))
	}

	var in Inputs
	if err := json.Unmarshal(raw, &in); err != nil {
		return Inputs{}, fmt.Errorf("decode signal inputs: %w", err)
	}
	if err := in.Validate(); err != nil {
		return Inputs{}, err
	}
	return in, nil
}
