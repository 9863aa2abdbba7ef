package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/relgate/relgate/internal/policy"
)

func policyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage gate policies",
	}
	cmd.AddCommand(policyValidateCmd())
	return cmd
}

func policyValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "validate [path]",
		Short:        "Validate a policy file against the schema and identifier allowlist",
		Args:         cobra.MaximumNArgs(1),
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
			path := cfg.PolicyPath
			if len(args) == 1 {
				path = args[0]
			}
			doc, err := policy.Load(resolvePath(repoRoot, path))
			if err != nil {
				return err
			}
			log.Info().
				Str("path", path).
				Str("version", doc.Version).
				Int("rules", len(doc.Rules)).
				Msg("policy is valid")
			return nil
		},
	}
	return cmd
}
