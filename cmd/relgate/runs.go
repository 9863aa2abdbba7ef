package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relgate/relgate/internal/db"
)

func runsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect past gate runs",
	}
	cmd.AddCommand(runsListCmd())
	return cmd
}

func runsListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:          "list",
		Short:        "List recorded gate runs, newest first",
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
			storeDB, closeFn, err := openDB(repoRoot, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			records, err := db.NewStore(storeDB).ListExecutions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "no gate runs recorded")
				return nil
			}
			for _, rec := range records {
				marker := ""
				if rec.DryRun {
					marker = " (dry-run)"
				}
				fmt.Fprintf(out, "%s  %s #%d  %s  %s%s  overall=%d risk=%s confidence=%.2f\n",
					rec.CreatedAt, rec.Repo, rec.PRNumber, rec.Action, rec.Status, marker,
					rec.Overall, rec.RiskLevel, rec.Confidence)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to show")
	return cmd
}
