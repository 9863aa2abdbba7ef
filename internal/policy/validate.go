package policy

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/relgate/relgate/internal/signal"
)

const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "version": { "type": "string", "minLength": 1 },
    "defaults": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "learning_mode": { "type": "boolean" }
      }
    },
    "rules": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "id": { "type": "string", "minLength": 1 },
          "when": { "type": "string", "minLength": 1 },
          "then": { "type": "string", "enum": ["KILL_AND_ROLLBACK", "HOLD_FOR_HUMAN", "REQUIRE_APPROVAL", "ALLOW"] },
          "severity": { "type": "string", "enum": ["BLOCK", "HIGH", "INFO"] },
          "reason": { "type": "string", "minLength": 1 }
        },
        "required": ["id", "when", "then", "severity", "reason"]
      }
    }
  },
  "required": ["version", "rules"]
}`

var (
	quotedSpanRe  = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)
	dottedTokenRe = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)+`)
)

// ValidateDocument checks the structural schema of a raw policy document and
// then verifies that every identifier referenced in every rule condition is
// on the signal allowlist. Documents failing either check are rejected before
// any rule runs.
func ValidateDocument(raw map[string]any) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("validate policy schema: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, schemaErr := range result.Errors() {
			errs = append(errs, schemaErr.String())
		}
		sort.Strings(errs)
		return fmt.Errorf("policy schema validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ValidateIdentifiers scans each rule's condition for dotted identifier
// tokens and rejects any outside the signal allowlist. Quoted spans are
// stripped first so string literals cannot shadow identifiers. This is a
// lexical approximation of the condition grammar; the evaluator re-checks
// identifiers authoritatively at evaluation time.
func ValidateIdentifiers(doc Document) error {
	allowed := signal.AllowedPaths()
	var problems []string
	for _, rule := range doc.Rules {
		stripped := quotedSpanRe.ReplaceAllString(rule.When, " ")
		for _, ident := range dottedTokenRe.FindAllString(stripped, -1) {
			if !slices.Contains(allowed, ident) {
				problems = append(problems, fmt.Sprintf("rule %q: unknown identifier %q", rule.ID, ident))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("policy identifier validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}
