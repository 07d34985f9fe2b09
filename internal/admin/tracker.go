package admin

import (
	"sync"
	"time"

	"webqa-probe/internal/harness"
	"webqa-probe/internal/observe"
)

// maxTracked bounds the observation window kept for the live view.
const maxTracked = 1000

// Status is the live run state served by the status endpoints.
type Status struct {
	State     string    `json:"state"` // idle, running, done
	Suite     string    `json:"suite,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	Target    string    `json:"target,omitempty"`
	RunID     string    `json:"run_id,omitempty"`
	StartedAt time.Time `json:"started_at"`
	Elapsed   float64   `json:"elapsed_s"`
	Observed  int       `json:"observed"`
	Passed    int       `json:"passed"`
	Failed    int       `json:"failed"`
}

// Tracker accumulates live run state for the status server. It doubles as
// a streaming sink: wire it into the sink fan-out and every observation
// and the final report land here.
type Tracker struct {
	mu        sync.RWMutex
	state     string
	suite     string
	kind      string
	target    string
	runID     string
	startedAt time.Time
	rows      []observe.Observation
	observed  int
	passed    int
	failed    int
	result    *observe.Result

	now func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{state: "idle", now: time.Now}
}

// RunStarted resets the tracker for a new run.
func (t *Tracker) RunStarted(cfg *harness.RunConfig) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = "running"
	t.suite = cfg.Suite
	t.kind = cfg.Kind
	t.target = cfg.Target
	t.runID = ""
	t.startedAt = t.now()
	t.rows = nil
	t.observed = 0
	t.passed = 0
	t.failed = 0
	t.result = nil
}

// WriteObservation records one observation. Only foreground ticks (rows
// carrying an action field) count toward passed/failed; resource monitor
// rows are tracked but not judged.
func (t *Tracker) WriteObservation(obs observe.Observation) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.runID == "" {
		t.runID = obs.RunID
	}
	t.rows = append(t.rows, obs)
	if len(t.rows) > maxTracked {
		t.rows = t.rows[len(t.rows)-maxTracked:]
	}
	t.observed++
	if _, isTick := obs.Fields["action"]; isTick {
		if ok, present := obs.Fields.Bool("ok"); present && !ok {
			t.failed++
		} else {
			t.passed++
		}
	}
	return nil
}

// WriteReport stores the completed result and marks the run done.
func (t *Tracker) WriteReport(res *observe.Result) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.result = res
	t.runID = res.RunID
	t.state = "done"
	return nil
}

// Status returns a snapshot of the live state.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	st := Status{
		State:     t.state,
		Suite:     t.suite,
		Kind:      t.kind,
		Target:    t.target,
		RunID:     t.runID,
		StartedAt: t.startedAt,
		Observed:  t.observed,
		Passed:    t.passed,
		Failed:    t.failed,
	}
	switch t.state {
	case "running":
		st.Elapsed = t.now().Sub(t.startedAt).Seconds()
	case "done":
		if t.result != nil {
			st.Elapsed = t.result.Duration
		}
	}
	return st
}

// Recent returns up to n of the latest observations, oldest first.
func (t *Tracker) Recent(n int) []observe.Observation {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if n <= 0 || n > len(t.rows) {
		n = len(t.rows)
	}
	out := make([]observe.Observation, n)
	copy(out, t.rows[len(t.rows)-n:])
	return out
}

// Result returns the completed run result, or nil while running.
func (t *Tracker) Result() *observe.Result {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.result
}
