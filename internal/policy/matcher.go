package policy

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/relgate/relgate/internal/expr"
	"github.com/relgate/relgate/internal/signal"
)

// Evaluate runs the policy's rules against the signal vector in document
// order. A BLOCK match stops iteration immediately; no later rule is
// evaluated. The winning match is the first rule in document order at the
// best observed severity. learningMode translates the winning action into
// its factory action.
func Evaluate(doc Document, vec signal.Vector, learningMode bool) (Result, error) {
	if err := vec.Validate(); err != nil {
		return Result{}, err
	}

	var matched []Match
	for _, rule := range doc.Rules {
		hit, err := expr.Evaluate(rule.When, vec)
		if err != nil {
			return Result{}, fmt.Errorf("rule %q: %w", rule.ID, err)
		}
		if !hit {
			continue
		}
		matched = append(matched, Match{
			RuleID:   rule.ID,
			Severity: rule.Severity,
			Action:   rule.Then,
			Reason:   rule.Reason,
		})
		if rule.Severity == SeverityBlock {
			log.Debug().Str("rule_id", rule.ID).Msg("BLOCK rule matched, stopping evaluation")
			break
		}
	}

	if len(matched) == 0 {
		factory, err := MapActionToFactory(ActionNone, learningMode)
		if err != nil {
			return Result{}, err
		}
		return Result{
			Matched:               []Match{},
			HighestSeverity:       SeverityNone,
			ProposedAction:        ActionNone,
			ProposedFactoryAction: factory,
		}, nil
	}

	winner := matched[0]
	for _, m := range matched[1:] {
		if rank(m.Severity) < rank(winner.Severity) {
			winner = m
		}
	}

	factory, err := MapActionToFactory(winner.Action, learningMode)
	if err != nil {
		return Result{}, fmt.Errorf("rule %q: %w", winner.RuleID, err)
	}
	return Result{
		Matched:               matched,
		HighestSeverity:       winner.Severity,
		ProposedAction:        winner.Action,
		ProposedFactoryAction: factory,
	}, nil
}

// MapActionToFactory translates a policy action into the factory action the
// orchestrator acts on. The mapping is total over the known actions; an
// unrecognized action is a defensive failure and should be unreachable for
// schema-validated documents.
func MapActionToFactory(a Action, learningMode bool) (FactoryAction, error) {
	switch a {
	case ActionKillAndRollback:
		return FactoryKillAndRollback, nil
	case ActionHoldForHuman, ActionRequireApproval:
		return FactoryHoldForHuman, nil
	case ActionAllow:
		if learningMode {
			return FactoryHoldForHuman, nil
		}
		return FactoryApproveDeploy, nil
	case ActionNone:
		return FactoryNone, nil
	default:
		return "", fmt.Errorf("unrecognized policy action %q", a)
	}
}
