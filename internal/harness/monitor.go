package harness

import (
	"context"
	"time"

	"webqa-probe/internal/logging"
	"webqa-probe/internal/observe"
)

// MonitorJoinTimeout bounds how long Stop waits for the sampler goroutine
// to finish its current sample. A sampler that blocks past the timeout is
// abandoned (logged), never forcibly killed.
const MonitorJoinTimeout = 5 * time.Second

// Sampler supplies metric values for one background tick. The probe
// registry's resolved probes satisfy this.
type Sampler interface {
	Name() string
	Sample(ctx context.Context) (observe.Fields, error)
}

// Monitor runs the single background resource sampler a run may own. It
// appends to the run's log through the same guarded append point as the
// foreground loop; the summary step reads only after Stop has returned.
type Monitor struct {
	samplers []Sampler
	interval time.Duration

	log      *observe.Log
	observer func(observe.Observation)
	now      func() time.Time

	stop chan struct{}
	done chan struct{}
}

// NewMonitor returns a monitor polling the given samplers at interval.
func NewMonitor(samplers []Sampler, interval time.Duration) *Monitor {
	return &Monitor{
		samplers: samplers,
		interval: interval,
		now:      time.Now,
	}
}

// Start launches the sampler goroutine appending to target. The first
// sample is taken immediately, then one per interval until Stop or ctx
// cancellation.
func (m *Monitor) Start(ctx context.Context, target *observe.Log, runID, suite string, start time.Time, observer func(observe.Observation)) {
	m.log = target
	m.observer = observer
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.loop(ctx, runID, suite, start)
}

// Stop signals the sampler and waits up to timeout for it to finish. It
// returns false when the goroutine had to be abandoned.
func (m *Monitor) Stop(timeout time.Duration) bool {
	if m.stop == nil {
		return true
	}
	close(m.stop)
	select {
	case <-m.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (m *Monitor) loop(ctx context.Context, runID, suite string, start time.Time) {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.sample(ctx, runID, suite, start)
	for {
		select {
		case <-ticker.C:
			m.sample(ctx, runID, suite, start)
		case <-m.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// sample polls every sampler and appends one combined observation. A
// failing sampler is logged and skipped for this tick only.
func (m *Monitor) sample(ctx context.Context, runID, suite string, start time.Time) {
	log := logging.FromContext(ctx)
	fields := observe.Fields{}
	for _, s := range m.samplers {
		vals, err := s.Sample(ctx)
		if err != nil {
			log.Warn("resource sample failed", "probe", s.Name(), "err", err)
			continue
		}
		for k, v := range vals {
			fields[k] = v
		}
	}
	if len(fields) == 0 {
		return
	}
	obs := observe.Observation{
		RunID:     runID,
		Suite:     suite,
		Elapsed:   m.now().Sub(start).Seconds(),
		Fields:    fields,
		Timestamp: m.now().UTC(),
	}
	m.log.Append(obs)
	if m.observer != nil {
		m.observer(obs)
	}
}
