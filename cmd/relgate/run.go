package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/relgate/relgate/internal/audit"
	"github.com/relgate/relgate/internal/db"
	"github.com/relgate/relgate/internal/orchestrator"
)

func runCmd() *cobra.Command {
	var f gateFlags
	var dryRun bool
	cmd := &cobra.Command{
		Use:          "run",
		Short:        "Run the full gate: evaluate, plan, and execute the action",
		Long:         "Run the full gate: evaluate signals against the policy, build the verdict, plan the action, and execute it through the configured adapters.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			repoRoot, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(repoRoot)
			if err != nil {
				return err
			}

			relgateDir := filepath.Join(repoRoot, ".relgate")
			lock, ok, err := orchestrator.TryAcquireGateLock(relgateDir)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("another gate run is in progress")
			}
			defer lock.Release()

			doc, _, err := buildVerdict(repoRoot, cfg, f)
			if err != nil {
				return err
			}
			renderVerdict(cmd.OutOrStdout(), doc)

			plan, err := orchestrator.NewPlan(doc, cfg.AutoExecuteMinConfidence, nil)
			if err != nil {
				return err
			}

			adapters := make([]orchestrator.Adapter, 0)
			for _, ac := range cfg.AdaptersFor(plan.FinalAction) {
				a, err := orchestrator.NewCommandAdapter(ac.Name, ac.Cmd, nil)
				if err != nil {
					return err
				}
				adapters = append(adapters, a)
			}

			storeDB, closeFn, err := openDB(repoRoot, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			final, results, err := orchestrator.Execute(cmd.Context(), doc, plan, adapters, orchestrator.Options{
				DryRun: dryRun,
				Audit:  audit.NewWriter(resolvePath(repoRoot, cfg.AuditLogPath)),
				Store:  db.NewIdempotencyStore(storeDB),
			})
			if err != nil {
				return err
			}
			renderPlan(cmd.OutOrStdout(), final, results)

			hash, err := audit.ContentHash(doc)
			if err != nil {
				return err
			}
			transitions := make([]db.TransitionRecord, 0, len(final.Transitions))
			for _, tr := range final.Transitions {
				transitions = append(transitions, db.TransitionRecord{
					FromStatus: string(tr.From),
					ToStatus:   string(tr.To),
					Reason:     tr.Reason,
					Timestamp:  tr.Timestamp,
				})
			}
			store := db.NewStore(storeDB)
			if err := store.RecordExecution(cmd.Context(), db.ExecutionRecord{
				RunID:           final.RunID,
				ActionRequestID: final.ActionRequestID,
				Repo:            doc.Run.Repo,
				PRNumber:        doc.Run.PRNumber,
				Action:          final.FinalAction,
				Status:          string(final.Status),
				Reason:          final.Reason,
				DryRun:          dryRun,
				Confidence:      doc.Verdict.Confidence,
				Overall:         doc.Scorecard.Overall,
				RiskLevel:       doc.Scorecard.RiskLevel,
				VerdictHash:     hash,
			}, transitions); err != nil {
				return err
			}

			if final.Status == orchestrator.StatusFailed {
				return fmt.Errorf("execution failed: %s", final.Reason)
			}
			log.Info().
				Str("run_id", final.RunID).
				Str("action", final.FinalAction).
				Str("status", string(final.Status)).
				Msg("gate run complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&f.signalsPath, "signals", "", "path to the signals JSON file")
	cmd.Flags().StringVar(&f.policyPath, "policy", "", "policy file path (defaults to the configured policy)")
	cmd.Flags().StringVar(&f.repo, "repo", "", "repository in owner/name form")
	cmd.Flags().IntVar(&f.prNumber, "pr", 0, "pull request number")
	cmd.Flags().StringVar(&f.headSHA, "sha", "", "head commit sha")
	cmd.Flags().StringVar(&f.runID, "run-id", "", "run id (generated when omitted)")
	cmd.Flags().BoolVar(&f.learning, "learning", false, "force learning mode for this run")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "plan the action but invoke no adapters")
	_ = cmd.MarkFlagRequired("signals")
	_ = cmd.MarkFlagRequired("repo")
	_ = cmd.MarkFlagRequired("pr")
	_ = cmd.MarkFlagRequired("sha")
	return cmd
}
