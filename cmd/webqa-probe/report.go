package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"webqa-probe/internal/harness"
	"webqa-probe/internal/observe"
	"webqa-probe/internal/report"
	"webqa-probe/internal/stats"
)

var (
	reportInput       string
	reportSpeed       float64
	reportDepleting   []string
	reportPercentiles []int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Recompute a report from an observation log",
	Long: "report reads a JSONL observation log, recomputes the summary, and renders the\n" +
		"report files. A stored run reproduces its statistics exactly.",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := rebuildResult(reportInput, reportDepleting, reportPercentiles)
		if err != nil {
			return err
		}

		cfg := &harness.RunConfig{Suite: res.Suite, Kind: res.Kind, Target: res.Target}
		stdout := report.NewStdoutSink(cfg, flagColor)
		if reportSpeed > 0 {
			if err := harness.ReplayFile(reportInput, stdout.WriteObservation, reportSpeed); err != nil {
				return err
			}
		}

		sinks := []report.Sink{stdout}
		if !flagPrintOnly {
			base, err := reportBase(flagReportsDir, res.Suite)
			if err != nil {
				return err
			}
			fs, err := report.NewFileSink(base+".json", "")
			if err != nil {
				return err
			}
			sinks = append(sinks, fs, report.NewCSVSink(base+".csv"), report.NewHTMLSink(base+".html"))
		}
		ms := report.NewMultiSink(sinks...)
		if err := ms.WriteReport(res); err != nil {
			return err
		}
		return ms.Close()
	},
}

// rebuildResult reconstructs a run result from its observation log. The
// summary comes out identical to the original run's because it is a pure
// function of the log and the aggregation settings. Dropped ticks left no
// observations, so the rebuilt attempt count excludes them.
func rebuildResult(path string, depleting []string, percentiles []int) (*observe.Result, error) {
	rows, err := harness.ReadLogFile(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: log is empty", path)
	}
	first := rows[0]
	res := &observe.Result{
		RunID:        first.RunID,
		Suite:        first.Suite,
		StartedAt:    first.Timestamp.Add(-time.Duration(first.Elapsed * float64(time.Second))).UTC(),
		Observations: rows,
	}
	for _, obs := range rows {
		if obs.Elapsed > res.Duration {
			res.Duration = obs.Elapsed
		}
		if _, isTick := obs.Fields["action"]; !isTick {
			continue
		}
		res.Attempts++
		if ok, present := obs.Fields.Bool("ok"); present && !ok {
			res.Failed++
		} else {
			res.Passed++
		}
	}
	summary, err := stats.Summarize(rows, depleting, percentiles)
	if err != nil {
		return nil, err
	}
	res.Summary = summary
	return res, nil
}

func init() {
	reportCmd.Flags().StringVar(&reportInput, "input", "", "Path to a JSONL observation log")
	reportCmd.Flags().Float64Var(&reportSpeed, "speed", 0, "Replay observations to STDOUT at this speed multiplier (0 = no replay)")
	reportCmd.Flags().StringSliceVar(&reportDepleting, "depleting", nil, "Fields summarized as draining resources")
	reportCmd.Flags().IntSliceVar(&reportPercentiles, "percentiles", nil, "Percentiles to report (default 90,95,99)")
	reportCmd.Flags().BoolVar(&flagPrintOnly, "print-only", false, "Print to STDOUT only, write no report files")
	reportCmd.Flags().BoolVar(&flagColor, "color", stdoutIsTerminal(), "Colorized human-readable output instead of JSON lines")
	reportCmd.Flags().StringVar(&flagReportsDir, "reports-dir", "reports", "Directory for report files")
	reportCmd.MarkFlagRequired("input")
}
