package main

import (
	"time"

	"github.com/spf13/cobra"

	"webqa-probe/internal/config"
)

var (
	apiChecks string
	apiPasses int
	apiDelay  time.Duration
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Run declarative API checks",
	Long:  "api executes a YAML checklist against the target, in order, and fails on any unmet assertion.",
	RunE: func(cmd *cobra.Command, args []string) error {
		retries := flagRetries
		return execAdhoc(cmd, config.Suite{
			Name:       "api",
			Kind:       config.KindAPI,
			Target:     flagURL,
			ChecksFile: apiChecks,
			Passes:     apiPasses,
			Delay:      config.Duration(apiDelay),
			Retries:    &retries,
			Seed:       flagSeed,
		})
	},
}

func init() {
	apiCmd.Flags().StringVar(&apiChecks, "checks", "config/checks.yaml", "Path to the YAML checklist")
	apiCmd.Flags().IntVar(&apiPasses, "passes", 1, "Rounds over the checklist")
	apiCmd.Flags().DurationVar(&apiDelay, "delay", 0, "Pause between checks")
	addRunFlags(apiCmd)
}
