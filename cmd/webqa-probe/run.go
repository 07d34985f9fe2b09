package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"webqa-probe/internal/config"
	"webqa-probe/internal/logging"
)

var (
	runPlan   string
	runSchema string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a plan of suites",
	Long:  "run loads a YAML plan, validates it against the CUE schema, and executes its suites in order.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		log := logging.FromContext(ctx)

		plan, err := config.Load(runPlan, runSchema)
		if err != nil {
			return err
		}
		log.Info("plan loaded", "suites", len(plan.Suites), "reports_dir", plan.ReportsDir)

		// Prepare every suite first so a broken one fails the plan before
		// any traffic starts.
		preps := make([]*prepared, len(plan.Suites))
		for i := range plan.Suites {
			p, err := prepareSuite(&plan.Suites[i])
			if err != nil {
				return err
			}
			preps[i] = p
		}

		tracker := startStatusServer(ctx)
		executed, failed := 0, 0
		for i, p := range preps {
			if ctx.Err() != nil {
				break
			}
			executed++
			res, err := executeSuite(ctx, p, plan.ReportsDir, tracker)
			if err != nil {
				failed++
				fmt.Printf("FAIL %s (%v)\n", plan.Suites[i].Name, err)
				continue
			}
			if res.OK() {
				fmt.Printf("PASS %s (%d ticks, %.1fs)\n", res.Suite, res.Attempts, res.Duration)
			} else {
				failed++
				fmt.Printf("FAIL %s (%d of %d ticks failed)\n", res.Suite, res.Failed, res.Attempts)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d suites failed", failed, executed)
		}
		if executed < len(plan.Suites) {
			return fmt.Errorf("plan interrupted after %d of %d suites", executed, len(plan.Suites))
		}
		fmt.Printf("All %d suites passed\n", executed)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runPlan, "plan", "config/plan.yaml", "Path to the YAML run plan")
	runCmd.Flags().StringVar(&runSchema, "schema", "schemas/plan.cue", "Path to the CUE schema file")
	addOutputFlags(runCmd)
}
