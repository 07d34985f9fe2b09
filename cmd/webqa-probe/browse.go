package main

import (
	"time"

	"github.com/spf13/cobra"

	"webqa-probe/internal/config"
	"webqa-probe/internal/probe"
)

var (
	browseDuration  time.Duration
	browseDelay     time.Duration
	browseFamilies  []string
	browseInterval  time.Duration
	browseDepleting []string
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the target for a duration",
	Long: "browse performs random user actions (reload, follow links, fetch assets) for a\n" +
		"fixed duration while sampling host resources in the background.",
	RunE: func(cmd *cobra.Command, args []string) error {
		retries := flagRetries
		return execAdhoc(cmd, config.Suite{
			Name:      "browse",
			Kind:      config.KindBrowse,
			Target:    flagURL,
			Duration:  config.Duration(browseDuration),
			Delay:     config.Duration(browseDelay),
			Retries:   &retries,
			Seed:      flagSeed,
			Depleting: browseDepleting,
			Monitor: config.Monitor{
				Families: browseFamilies,
				Interval: config.Duration(browseInterval),
			},
		})
	},
}

func init() {
	browseCmd.Flags().DurationVar(&browseDuration, "duration", 5*time.Minute, "How long to browse")
	browseCmd.Flags().DurationVar(&browseDelay, "delay", 0, "Fixed pause between actions (default jitters 1s-3s)")
	browseCmd.Flags().StringSliceVar(&browseFamilies, "monitor", append([]string(nil), probe.DefaultFamilies...), "Resource probe families to sample")
	browseCmd.Flags().DurationVar(&browseInterval, "interval", config.DefaultMonitorInterval.Std(), "Resource sampling interval")
	browseCmd.Flags().StringSliceVar(&browseDepleting, "depleting", []string{"battery_percent"}, "Fields summarized as draining resources")
	addRunFlags(browseCmd)
}
