package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"webqa-probe/internal/admin"
	"webqa-probe/internal/checks"
	"webqa-probe/internal/config"
	"webqa-probe/internal/harness"
	"webqa-probe/internal/logging"
	"webqa-probe/internal/observe"
	"webqa-probe/internal/probe"
	"webqa-probe/internal/target"
)

// Flags shared by the commands that execute suites.
var (
	flagURL        string
	flagRetries    int
	flagSeed       int64
	flagReportsDir string
	flagLogFile    string
	flagPrintOnly  bool
	flagColor      bool
	flagTUI        bool
	flagStatusAddr string
)

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagURL, "url", "http://localhost:8000", "Target base URL")
	cmd.Flags().IntVar(&flagRetries, "retries", config.DefaultRetries, "Retries per tick on transient failures")
	cmd.Flags().Int64Var(&flagSeed, "seed", 0, "Random seed, 0 picks a time-based seed")
	addOutputFlags(cmd)
}

// stdoutIsTerminal decides the --color default: colorized for humans,
// plain JSON lines when output is piped.
func stdoutIsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagReportsDir, "reports-dir", "reports", "Directory for report files")
	cmd.Flags().StringVar(&flagLogFile, "log-file", "", "Path for the JSONL observation log (default derived from the suite name)")
	cmd.Flags().BoolVar(&flagPrintOnly, "print-only", false, "Print to STDOUT only, write no report files")
	cmd.Flags().BoolVar(&flagColor, "color", stdoutIsTerminal(), "Colorized human-readable output instead of JSON lines")
	cmd.Flags().BoolVar(&flagTUI, "tui", false, "Live terminal dashboard instead of line output")
	cmd.Flags().StringVar(&flagStatusAddr, "status-addr", "", "Serve live run status on this address (e.g. :8080)")
}

// prepared bundles everything a suite needs to run: the mapped run
// configuration, the action set, and the optional resource monitor.
type prepared struct {
	cfg     harness.RunConfig
	actions []harness.Action
	sel     harness.Selector
	mon     *harness.Monitor
	missing []string
}

// prepareSuite validates the suite and builds its actions. No target
// traffic happens here, so a broken plan fails before any suite starts.
func prepareSuite(s *config.Suite) (*prepared, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	client, err := target.NewClient(s.Target, 0)
	if err != nil {
		return nil, err
	}

	p := &prepared{}
	checkCount := 0
	switch s.Kind {
	case config.KindPerf:
		pageURL, err := client.Resolve(s.Path)
		if err != nil {
			return nil, err
		}
		p.actions = []harness.Action{target.PageLoad(client, pageURL)}
	case config.KindAPI:
		list, err := checks.LoadFile(s.ChecksFile)
		if err != nil {
			return nil, err
		}
		if p.actions, err = checks.Actions(client, list); err != nil {
			return nil, err
		}
		p.sel = harness.NewSequentialSelector()
		checkCount = len(list)
	case config.KindBrowse:
		p.actions = target.NewBrowser(client, s.Seed).Actions()
	}
	p.cfg = buildRunConfig(s, checkCount)

	if len(s.Monitor.Families) > 0 {
		samplers, missing, err := probe.Resolve(s.Monitor.Families)
		if err != nil {
			return nil, err
		}
		p.missing = missing
		if len(samplers) > 0 {
			p.mon = harness.NewMonitor(samplers, s.Monitor.Interval.Std())
		}
	}
	return p, nil
}

// buildRunConfig maps a plan suite onto the harness run configuration.
// The kind picks the termination mode: browse runs against a deadline,
// perf and api count attempts (one pass of an api suite visits every
// check once, in order).
func buildRunConfig(s *config.Suite, checkCount int) harness.RunConfig {
	cfg := harness.RunConfig{
		Suite:           s.Name,
		Kind:            s.Kind,
		Target:          s.Target,
		Interval:        s.Delay.Std(),
		IntervalMin:     s.DelayLow.Std(),
		IntervalMax:     s.DelayHigh.Std(),
		MaxRetries:      s.RetryCount(),
		MonitorInterval: s.Monitor.Interval.Std(),
		Depleting:       s.Depleting,
		Percentiles:     s.Percentiles,
		Seed:            s.Seed,
	}
	switch s.Kind {
	case config.KindAPI:
		cfg.Iterations = s.Passes * checkCount
	case config.KindBrowse:
		cfg.TotalDuration = s.Duration.Std()
	default:
		cfg.Iterations = s.Requests
	}
	return cfg
}

// executeSuite runs one prepared suite end to end and persists its result.
func executeSuite(ctx context.Context, p *prepared, reportsDir string, tracker *admin.Tracker) (*observe.Result, error) {
	log := logging.FromContext(ctx)

	runner, err := harness.NewRunner(p.cfg, p.actions, p.sel, p.mon)
	if err != nil {
		return nil, err
	}
	for _, fam := range p.missing {
		log.Warn("probe family unavailable on this host, omitting", "family", fam)
		runner.AddWarning(fmt.Sprintf("probe family %s unavailable on this host", fam))
	}

	sinks, err := newSinks(sinkOptions{
		cfg:        &p.cfg,
		reportsDir: reportsDir,
		logFile:    flagLogFile,
		printOnly:  flagPrintOnly,
		color:      flagColor,
		tui:        flagTUI,
		tracker:    tracker,
	})
	if err != nil {
		return nil, err
	}
	if tracker != nil {
		tracker.RunStarted(&p.cfg)
	}
	runner.OnObservation(func(obs observe.Observation) {
		if err := sinks.WriteObservation(obs); err != nil {
			log.Warn("live sink write failed", "err", err)
		}
	})

	res, err := runner.Run(ctx)
	if err != nil {
		sinks.Close()
		return res, err
	}
	if err := sinks.WriteReport(res); err != nil {
		sinks.Close()
		return res, fmt.Errorf("persist result: %w", err)
	}
	if err := sinks.Close(); err != nil {
		return res, fmt.Errorf("close sinks: %w", err)
	}
	return res, nil
}

// startStatusServer launches the live status endpoint when --status-addr
// is set. The returned tracker is nil when no server was requested.
func startStatusServer(ctx context.Context) *admin.Tracker {
	if flagStatusAddr == "" {
		return nil
	}
	log := logging.FromContext(ctx)
	tracker := admin.NewTracker()
	srv := admin.NewServer(tracker)
	go func() {
		log.Info("status server listening", "addr", flagStatusAddr)
		if err := srv.Start(ctx, flagStatusAddr); err != nil && err != http.ErrServerClosed {
			log.Error("status server failed", "err", err)
		}
	}()
	return tracker
}

// execAdhoc runs one flag-built suite for the perf, api, and browse
// commands. A failed run comes back as an error so the process exits
// nonzero.
func execAdhoc(cmd *cobra.Command, s config.Suite) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p, err := prepareSuite(&s)
	if err != nil {
		return err
	}
	tracker := startStatusServer(ctx)
	res, err := executeSuite(ctx, p, flagReportsDir, tracker)
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("suite %s: %d of %d ticks failed", res.Suite, res.Failed, res.Attempts)
	}
	return nil
}
