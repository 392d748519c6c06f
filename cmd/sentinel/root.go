package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Sentinel Ceres - speed-layer command validation gateway",
	Long: `Sentinel Ceres is a multi-agent command-validation gateway. Every action
an autonomous agent wants to perform is validated against a multi-tier
decision engine:

  - Tier 1: exact-match fingerprint cache (sub-millisecond replay)
  - Tier 2: policy rules (allow/deny lists, path and size constraints)
  - Tier 3: heuristic risk scoring with configurable watermarks
  - Gray-zone decisions escalate to expert review with a bounded wait

Each tier is isolated behind a circuit breaker; unavailability never
resolves to approval.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
