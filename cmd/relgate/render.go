package main

import (
	"fmt"
	"io"

	"github.com/relgate/relgate/internal/orchestrator"
	"github.com/relgate/relgate/internal/verdict"
)

func renderVerdict(w io.Writer, doc verdict.Document) {
	fmt.Fprintf(w, "Run %s: %s #%d @ %s\n", doc.Run.RunID, doc.Run.Repo, doc.Run.PRNumber, doc.Run.HeadSHA)
	fmt.Fprintf(w, "Scorecard: tests=%d security=%d risk=%d ops=%d policy=%d overall=%d/100 (%s risk)\n",
		doc.Scorecard.Tests, doc.Scorecard.Security, doc.Scorecard.Risk, doc.Scorecard.Ops,
		doc.Scorecard.Policy, doc.Scorecard.Overall, doc.Scorecard.RiskLevel)
	if len(doc.Policy.Matched) > 0 {
		fmt.Fprintln(w, "Matched rules:")
		for _, m := range doc.Policy.Matched {
			fmt.Fprintf(w, "  [%s] %s -> %s: %s\n", m.Severity, m.RuleID, m.Action, m.Reason)
		}
	}
	fmt.Fprintf(w, "Proposed action: %s (confidence %.2f)\n", doc.Verdict.ProposedAction, doc.Verdict.Confidence)
	fmt.Fprintf(w, "Summary: %s\n", doc.Rationale.Summary)
	if len(doc.Verdict.RecommendedNextSteps) > 0 {
		fmt.Fprintln(w, "Next steps:")
		for _, step := range doc.Verdict.RecommendedNextSteps {
			fmt.Fprintf(w, "  - %s\n", step)
		}
	}
}

func renderPlan(w io.Writer, p orchestrator.Plan, results []orchestrator.AdapterResult) {
	fmt.Fprintf(w, "Plan %s: %s, status %s (%s)\n", p.ActionRequestID, p.FinalAction, p.Status, p.Reason)
	for _, tr := range p.Transitions {
		fmt.Fprintf(w, "  %s -> %s: %s\n", tr.From, tr.To, tr.Reason)
	}
	if len(results) > 0 {
		fmt.Fprintln(w, "Adapters:")
		for _, res := range results {
			line := fmt.Sprintf("  %s: %s", res.Adapter, res.Status)
			if res.Message != "" {
				line += " - " + res.Message
			}
			fmt.Fprintln(w, line)
		}
	}
}
