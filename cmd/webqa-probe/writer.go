package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"webqa-probe/internal/admin"
	"webqa-probe/internal/harness"
	"webqa-probe/internal/observe"
	"webqa-probe/internal/report"
)

type sinkOptions struct {
	cfg        *harness.RunConfig
	reportsDir string
	logFile    string
	printOnly  bool
	color      bool
	tui        bool
	tracker    *admin.Tracker
}

// newSinks assembles the output fan-out for one run. STDOUT (or the TUI)
// always streams; report files land under reportsDir unless printOnly is
// set; GreptimeDB joins in when GREPTIMEDB_ENDPOINT is configured.
func newSinks(opts sinkOptions) (*report.MultiSink, error) {
	var sinks []report.Sink

	if opts.tui {
		sinks = append(sinks, report.NewTUISink(opts.cfg))
	} else {
		sinks = append(sinks, report.NewStdoutSink(opts.cfg, opts.color))
	}

	if !opts.printOnly {
		base, err := reportBase(opts.reportsDir, opts.cfg.Suite)
		if err != nil {
			return nil, err
		}
		obsPath := opts.logFile
		if obsPath == "" {
			obsPath = base + ".jsonl"
		}
		fs, err := report.NewFileSink(base+".json", obsPath)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks,
			fs,
			report.NewCSVSink(base+".csv"),
			report.NewHTMLSink(base+".html"),
		)

		if endpoint := os.Getenv("GREPTIMEDB_ENDPOINT"); endpoint != "" {
			gs, err := report.NewGreptimeSink(endpoint, "public", observe.ObservationTableName, observe.SummaryTableName)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, gs)
		}
	}

	if opts.tracker != nil {
		sinks = append(sinks, opts.tracker)
	}
	return report.NewMultiSink(sinks...), nil
}

// reportBase creates the reports directory and returns the per-run file
// prefix <dir>/<suite>_<timestamp>.
func reportBase(dir, suite string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_%s", sanitizeName(suite), time.Now().Format("20060102_150405"))
	return filepath.Join(dir, name), nil
}

// sanitizeName keeps suite names filesystem-safe.
func sanitizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, s)
}
