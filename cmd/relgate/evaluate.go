package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func evaluateCmd() *cobra.Command {
	var f gateFlags
	var outPath string
	cmd := &cobra.Command{
		Use:          "evaluate",
		Short:        "Evaluate signals against the policy and print the verdict",
		Long:         "Evaluate signals against the policy and print the verdict. No plan is created and no adapter runs; use relgate run for that.",
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

			doc, _, err := buildVerdict(repoRoot, cfg, f)
			if err != nil {
				return err
			}

			renderVerdict(cmd.OutOrStdout(), doc)
			if outPath != "" {
				raw, err := json.MarshalIndent(doc, "", "  ")
				if err != nil {
					return fmt.Errorf("encode verdict: %w", err)
				}
				if err := os.WriteFile(resolvePath(repoRoot, outPath), append(raw, '\n'), 0o644); err != nil {
					return fmt.Errorf("write verdict: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.signalsPath, "signals", "", "path to the signals JSON file")
	cmd.Flags().StringVar(&f.policyPath, "policy", "", "policy file path (defaults to the configured policy)")
	cmd.Flags().StringVar(&f.repo, "repo", "", "repository in owner/name form")
	cmd.Flags().IntVar(&f.prNumber, "pr", 0, "pull request number")
	cmd.Flags().StringVar(&f.headSHA, "sha", "", "head commit sha")
	cmd.Flags().StringVar(&f.runID, "run-id", "", "run id (generated when omitted)")
	cmd.Flags().BoolVar(&f.learning, "learning", false, "force learning mode for this evaluation")
	cmd.Flags().StringVar(&outPath, "out", "", "write the verdict document JSON to this path")
	_ = cmd.MarkFlagRequired("signals")
	_ = cmd.MarkFlagRequired("repo")
	_ = cmd.MarkFlagRequired("pr")
	_ = cmd.MarkFlagRequired("sha")
	return cmd
}
