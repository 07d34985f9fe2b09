package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"webqa-probe/internal/logging"
)

var flagLogLevel string

var rootCmd = &cobra.Command{
	Use:   "webqa-probe",
	Short: "Web QA sampling toolkit",
	Long: "webqa-probe samples web targets with timed and counted measurement loops:\n" +
		"page-load latency, declarative API checks, and long browsing sessions with\n" +
		"background resource monitoring.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		logger := logging.New(logging.ParseLevel(flagLogLevel))
		slog.SetDefault(logger)
		cmd.SetContext(logging.NewContext(cmd.Context(), logger))
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log verbosity (debug, info, warn, error)")
	rootCmd.AddCommand(perfCmd)
	rootCmd.AddCommand(apiCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(dashboardCmd)
}
