package harness

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"webqa-probe/internal/logging"
	"webqa-probe/internal/observe"
	"webqa-probe/internal/stats"

	"github.com/google/uuid"
)

// Action is one executable measurement step. Execute blocks until the
// step finishes and returns the fields to record for this tick. An error
// marked Transient is retried; any other error drops the tick.
type Action interface {
	Name() string
	Execute(ctx context.Context) (observe.Fields, error)
}

// ActionFunc adapts a named function to the Action interface.
func ActionFunc(name string, fn func(ctx context.Context) (observe.Fields, error)) Action {
	return actionFunc{name: name, fn: fn}
}

type actionFunc struct {
	name string
	fn   func(ctx context.Context) (observe.Fields, error)
}

func (a actionFunc) Name() string { return a.name }
func (a actionFunc) Execute(ctx context.Context) (observe.Fields, error) {
	return a.fn(ctx)
}

// Runner drives one sampling run: pick an action, execute it, record an
// observation, sleep, repeat until the configured termination. It performs
// no I/O itself; persistence is the caller's concern once Run returns.
type Runner struct {
	cfg      RunConfig
	actions  []Action
	selector Selector
	monitor  *Monitor
	observer func(observe.Observation)

	rng      *rand.Rand
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) bool
	warnings []string
}

// NewRunner validates cfg and builds a runner over the given action set.
// A nil selector defaults to uniform random picks; mon may be nil when no
// background sampling is wanted.
func NewRunner(cfg RunConfig, actions []Action, sel Selector, mon *Monitor) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(actions) == 0 {
		return nil, &ConfigError{Field: "actions", Reason: "at least one action required"}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	if sel == nil {
		sel = NewUniformSelector(rng)
	}
	return &Runner{
		cfg:      cfg,
		actions:  actions,
		selector: sel,
		monitor:  mon,
		rng:      rng,
		now:      time.Now,
		sleep:    sleepContext,
	}, nil
}

// OnObservation registers a callback invoked for every recorded
// observation, foreground and background alike. Streaming writers hook in
// here.
func (r *Runner) OnObservation(fn func(observe.Observation)) {
	r.observer = fn
}

// AddWarning records a non-fatal degradation noticed during setup, e.g. an
// unavailable probe family. Warnings surface on the result.
func (r *Runner) AddWarning(msg string) {
	r.warnings = append(r.warnings, msg)
}

// Run executes the sampling loop and returns the completed result. Context
// cancellation stops the loop cleanly; whatever was observed up to that
// point is summarized and returned.
func (r *Runner) Run(ctx context.Context) (*observe.Result, error) {
	log := logging.FromContext(ctx)
	start := r.now()
	res := &observe.Result{
		RunID:     uuid.New().String(),
		Suite:     r.cfg.Suite,
		Kind:      r.cfg.Kind,
		Target:    r.cfg.Target,
		StartedAt: start.UTC(),
	}
	res.Warnings = append(res.Warnings, r.warnings...)
	runLog := observe.NewLog()

	log.Info("run starting",
		"run_id", res.RunID,
		"suite", r.cfg.Suite,
		"target", r.cfg.Target,
		"duration_mode", r.cfg.DurationMode())

	monitoring := r.monitor != nil && r.cfg.MonitorInterval > 0
	if monitoring {
		r.monitor.Start(ctx, runLog, res.RunID, r.cfg.Suite, start, r.observer)
	}

	if r.cfg.DurationMode() {
		r.runForDuration(ctx, runLog, res, start)
	} else {
		r.runForCount(ctx, runLog, res, start)
	}

	if monitoring {
		if !r.monitor.Stop(MonitorJoinTimeout) {
			log.Warn("resource monitor still sampling after join timeout, abandoning")
			res.Warnings = append(res.Warnings, "resource monitor abandoned after join timeout")
		}
	}

	res.Duration = r.now().Sub(start).Seconds()
	res.Observations = runLog.Snapshot()
	summary, err := stats.Summarize(res.Observations, r.cfg.Depleting, r.cfg.Percentiles)
	if err != nil {
		return res, err
	}
	res.Summary = summary

	log.Info("run complete",
		"run_id", res.RunID,
		"attempts", res.Attempts,
		"dropped", res.Dropped,
		"passed", res.Passed,
		"failed", res.Failed,
		"duration_s", res.Duration)
	return res, nil
}

// runForCount performs exactly Iterations outer attempts. Dropped ticks
// still consume an attempt; only cancellation cuts the run short. The
// pause runs between ticks, not after the last one.
func (r *Runner) runForCount(ctx context.Context, runLog *observe.Log, res *observe.Result, start time.Time) {
	for i := 0; i < r.cfg.Iterations; i++ {
		r.tick(ctx, runLog, res, start)
		if ctx.Err() != nil {
			return
		}
		if i < r.cfg.Iterations-1 && !r.pause(ctx) {
			return
		}
	}
}

// runForDuration ticks immediately, then keeps going until the deadline
// computed from the run start passes.
func (r *Runner) runForDuration(ctx context.Context, runLog *observe.Log, res *observe.Result, start time.Time) {
	deadline := start.Add(r.cfg.TotalDuration)
	for r.now().Before(deadline) {
		r.tick(ctx, runLog, res, start)
		if ctx.Err() != nil {
			return
		}
		if !r.pause(ctx) {
			return
		}
	}
}

// tick selects and executes one action. A completed action appends one
// observation; an exhausted or fatal failure drops the tick and the loop
// moves on.
func (r *Runner) tick(ctx context.Context, runLog *observe.Log, res *observe.Result, start time.Time) {
	log := logging.FromContext(ctx)
	act := r.actions[r.selector.Pick(len(r.actions))]
	res.Attempts++

	fields, err := r.executeWithRetry(ctx, act)
	if err != nil {
		res.Dropped++
		log.Warn("tick dropped", "action", act.Name(), "err", err)
		return
	}
	if fields == nil {
		fields = observe.Fields{}
	}
	if _, exists := fields["action"]; !exists {
		fields["action"] = act.Name()
	}

	obs := observe.Observation{
		RunID:     res.RunID,
		Suite:     r.cfg.Suite,
		Elapsed:   r.now().Sub(start).Seconds(),
		Fields:    fields,
		Timestamp: r.now().UTC(),
	}
	runLog.Append(obs)

	if ok, present := fields.Bool("ok"); present && !ok {
		res.Failed++
	} else {
		res.Passed++
	}
	if r.observer != nil {
		r.observer(obs)
	}
}

// executeWithRetry runs the action, retrying transient failures up to
// MaxRetries times with a fixed backoff. Non-transient errors and
// cancellation end the tick immediately.
func (r *Runner) executeWithRetry(ctx context.Context, act Action) (observe.Fields, error) {
	log := logging.FromContext(ctx)
	fields, err := act.Execute(ctx)
	for retry := 1; retry <= r.cfg.MaxRetries && IsTransient(err); retry++ {
		log.Warn("transient tick failure, retrying",
			"action", act.Name(),
			"retry", retry,
			"max_retries", r.cfg.MaxRetries,
			"err", err)
		if !r.sleep(ctx, r.cfg.RetryBackoff) {
			return nil, errors.Join(err, ctx.Err())
		}
		fields, err = act.Execute(ctx)
	}
	return fields, err
}

// pause sleeps the configured inter-tick interval, fixed or uniformly
// random in [IntervalMin, IntervalMax]. It returns false when the context
// was cancelled during the sleep.
func (r *Runner) pause(ctx context.Context) bool {
	d := r.cfg.Interval
	if r.cfg.IntervalMax > 0 {
		d = r.cfg.IntervalMin
		if span := r.cfg.IntervalMax - r.cfg.IntervalMin; span > 0 {
			d += time.Duration(r.rng.Int63n(int64(span) + 1))
		}
	}
	if d <= 0 {
		return ctx.Err() == nil
	}
	return r.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
