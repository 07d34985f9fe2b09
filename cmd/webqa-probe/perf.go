package main

import (
	"time"

	"github.com/spf13/cobra"

	"webqa-probe/internal/config"
)

var (
	perfPath     string
	perfRequests int
	perfDelay    time.Duration
)

var perfCmd = &cobra.Command{
	Use:   "perf",
	Short: "Sample page-load latency",
	Long:  "perf fetches one endpoint a fixed number of times and reports latency statistics.",
	RunE: func(cmd *cobra.Command, args []string) error {
		retries := flagRetries
		return execAdhoc(cmd, config.Suite{
			Name:     "perf",
			Kind:     config.KindPerf,
			Target:   flagURL,
			Path:     perfPath,
			Requests: perfRequests,
			Delay:    config.Duration(perfDelay),
			Retries:  &retries,
			Seed:     flagSeed,
		})
	},
}

func init() {
	perfCmd.Flags().StringVar(&perfPath, "path", "/", "Endpoint to probe, joined against --url")
	perfCmd.Flags().IntVar(&perfRequests, "requests", config.DefaultRequests, "Number of requests")
	perfCmd.Flags().DurationVar(&perfDelay, "delay", config.DefaultDelay.Std(), "Pause between requests")
	addRunFlags(perfCmd)
}
