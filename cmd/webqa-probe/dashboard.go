package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"webqa-probe/internal/dashboard"
	"webqa-probe/internal/logging"
	"webqa-probe/internal/observe"
)

var (
	dashInput string
	dashOut   string
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render dashboards and HTML reports",
	Long: "dashboard renders the Grafana dashboard template and, given a stored run report,\n" +
		"a standalone HTML report page.",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.FromContext(cmd.Context())
		if err := os.MkdirAll(dashOut, 0o755); err != nil {
			return err
		}

		if dashInput != "" {
			data, err := os.ReadFile(dashInput)
			if err != nil {
				return err
			}
			var res observe.Result
			if err := json.Unmarshal(data, &res); err != nil {
				return fmt.Errorf("parse %s: %w", dashInput, err)
			}
			out := filepath.Join(dashOut, "report.html")
			if err := dashboard.WriteFile(out, &res); err != nil {
				return err
			}
			log.Info("report rendered", "path", out)
		}

		if os.Getenv("GREPTIMEDB_DATASOURCE_UID") == "" {
			log.Info("GREPTIMEDB_DATASOURCE_UID not set, skipping Grafana dashboard render")
			return nil
		}
		if err := dashboard.Render(dashOut); err != nil {
			return err
		}
		log.Info("Grafana dashboard rendered", "dir", dashOut)
		return nil
	},
}

func init() {
	dashboardCmd.Flags().StringVar(&dashInput, "input", "", "Path to a stored report JSON file")
	dashboardCmd.Flags().StringVar(&dashOut, "out", "build", "Output directory")
}
