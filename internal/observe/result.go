package observe

import "time"

// Summary maps metric names to scalars derived from a closed log. A run with
// zero successful ticks yields an empty summary, which is reported rather
// than treated as an error.
type Summary map[string]float64

// Result is the envelope a completed run hands to report sinks: the frozen
// observation log, the summary computed over it, and run metadata.
type Result struct {
	RunID     string    `json:"run_id"`
	Suite     string    `json:"suite"`
	Kind      string    `json:"kind"`
	Target    string    `json:"target"`
	StartedAt time.Time `json:"started_at"`
	Duration  float64   `json:"duration_seconds"`

	Attempts int `json:"attempts"`
	Dropped  int `json:"dropped"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`

	Observations []Observation `json:"observations"`
	Summary      Summary       `json:"summary"`

	// Warnings collects non-fatal degradations, e.g. metric families whose
	// probe dependency was unavailable.
	Warnings []string `json:"warnings,omitempty"`
}

// OK reports whether the run's pass/fail judgment succeeded: no recorded
// check failures. Runs without judged ticks pass vacuously.
func (r *Result) OK() bool {
	return r.Failed == 0
}
