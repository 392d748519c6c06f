package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"sentinel-hq/ceres/pkg/config"
	"sentinel-hq/ceres/pkg/policy"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and policy rules",
	Long: `Validate the configuration file and the policy rules file it points to,
without starting the gateway.

Examples:
  # Validate the default config
  sentinel validate

  # Validate a specific config
  sentinel validate --config /etc/sentinel/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}
	fmt.Printf("✓ Configuration valid: %s\n", cfgFile)

	source := policy.NewFileSource(cfg.Policy.RulesPath)
	ruleSet, err := source.LoadRules(context.Background())
	if err != nil {
		return fmt.Errorf("rules file invalid: %w", err)
	}
	fmt.Printf("✓ Rules file valid: %s (%d rules)\n", cfg.Policy.RulesPath, len(ruleSet.Rules))

	return nil
}
