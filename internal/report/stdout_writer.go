package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"sync"
	"text/tabwriter"
	"time"

	"webqa-probe/internal/harness"
	"webqa-probe/internal/observe"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

var actionPalette = []string{colorGreen, colorYellow, colorBlue, colorMagenta, colorCyan}

// StdoutSink prints observations as they arrive and the summary once the
// run completes. With colorize off, every line is plain JSON.
type StdoutSink struct {
	cfg          *harness.RunConfig
	out          io.Writer
	colorize     bool
	once         sync.Once
	actionColors map[string]string
	colorIdx     int
}

// NewStdoutSink creates a StdoutSink writing to os.Stdout. cfg may be nil;
// the colorized overview is skipped then.
func NewStdoutSink(cfg *harness.RunConfig, colorize bool) *StdoutSink {
	return &StdoutSink{
		cfg:          cfg,
		out:          os.Stdout,
		colorize:     colorize,
		actionColors: make(map[string]string),
	}
}

func (w *StdoutSink) getActionColor(name string) string {
	if c, ok := w.actionColors[name]; ok {
		return c
	}
	c := actionPalette[w.colorIdx%len(actionPalette)]
	w.actionColors[name] = c
	w.colorIdx++
	return c
}

func (w *StdoutSink) printOverview() {
	if w.cfg == nil {
		return
	}
	fmt.Fprintln(w.out, "Run Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Suite:\t%s\n", w.cfg.Suite)
	fmt.Fprintf(tw, "Target:\t%s\n", w.cfg.Target)
	if w.cfg.DurationMode() {
		fmt.Fprintf(tw, "Duration:\t%s\n", w.cfg.TotalDuration)
	} else {
		fmt.Fprintf(tw, "Iterations:\t%d\n", w.cfg.Iterations)
	}
	if w.cfg.IntervalMax > 0 {
		fmt.Fprintf(tw, "Interval:\t%s..%s\n", w.cfg.IntervalMin, w.cfg.IntervalMax)
	} else {
		fmt.Fprintf(tw, "Interval:\t%s\n", w.cfg.Interval)
	}
	fmt.Fprintf(tw, "Max Retries:\t%d\n", w.cfg.MaxRetries)
	if w.cfg.MonitorInterval > 0 {
		fmt.Fprintf(tw, "Monitor Interval:\t%s\n", w.cfg.MonitorInterval)
	}
	tw.Flush()
	fmt.Fprintln(w.out)
}

// WriteObservation prints a single observation.
func (w *StdoutSink) WriteObservation(obs observe.Observation) error {
	if !w.colorize {
		data, _ := json.Marshal(obs)
		fmt.Fprintln(w.out, string(data))
		return nil
	}
	w.once.Do(w.printOverview)
	action, _ := obs.Fields.String("action")
	fmt.Fprintln(w.out, observationLine(obs, w.getActionColor(action)))
	return nil
}

// WriteObservations prints multiple observations.
func (w *StdoutSink) WriteObservations(rows []observe.Observation) error {
	for _, obs := range rows {
		_ = w.WriteObservation(obs)
	}
	return nil
}

// WriteReport prints the final summary.
func (w *StdoutSink) WriteReport(res *observe.Result) error {
	if !w.colorize {
		// the observation stream was already printed; drop it from the line
		cp := *res
		cp.Observations = nil
		data, _ := json.Marshal(&cp)
		fmt.Fprintln(w.out, string(data))
		return nil
	}
	w.once.Do(w.printOverview)

	verdict := fmt.Sprintf("%sPASS%s", colorGreen, colorReset)
	if !res.OK() {
		verdict = fmt.Sprintf("%sFAIL%s", colorRed, colorReset)
	}
	fmt.Fprintf(w.out, "\n%s suite=%s run=%s attempts=%d passed=%d failed=%d dropped=%d duration=%.1fs\n",
		verdict, res.Suite, res.RunID, res.Attempts, res.Passed, res.Failed, res.Dropped, res.Duration)

	if len(res.Summary) > 0 {
		fmt.Fprintln(w.out, "\nSummary:")
		tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
		for _, k := range sortedSummaryKeys(res.Summary) {
			fmt.Fprintf(tw, "%s:\t%s\n", k, formatMetric(res.Summary[k]))
		}
		tw.Flush()
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w.out, "%swarning: %s%s\n", colorYellow, warn, colorReset)
	}
	return nil
}

// observationLine renders one observation for human output, fields sorted
// by name.
func observationLine(obs observe.Observation, actionColor string) string {
	line := fmt.Sprintf("%s[%s]%s %ssuite=%s%s %selapsed=%.2f%s",
		colorGray, obs.Timestamp.Format(time.RFC3339), colorReset,
		colorBlue, obs.Suite, colorReset,
		colorGray, obs.Elapsed, colorReset)
	if action, ok := obs.Fields.String("action"); ok {
		line += fmt.Sprintf(" %saction=%s%s", actionColor, action, colorReset)
	}
	for _, k := range sortedFieldKeys(obs.Fields) {
		if k == "action" {
			continue
		}
		v := obs.Fields[k]
		color := colorCyan
		if k == "ok" {
			if b, _ := obs.Fields.Bool("ok"); b {
				color = colorGreen
			} else {
				color = colorRed
			}
		}
		line += fmt.Sprintf(" %s%s=%s%s", color, k, formatFieldValue(v), colorReset)
	}
	return line
}

func sortedFieldKeys(fields observe.Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedSummaryKeys(sum observe.Summary) []string {
	keys := make([]string, 0, len(sum))
	for k := range sum {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
