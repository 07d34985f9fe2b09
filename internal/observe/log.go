package observe

import "sync"

// Log is an append-only, insertion-ordered sequence of Observations owned by
// a single run. One mutex guards the append point: the foreground loop and
// the background resource monitor share it, and the summary step only reads
// after the monitor has been stopped and joined.
type Log struct {
	mu   sync.Mutex
	rows []Observation
}

// NewLog returns an empty observation log.
func NewLog() *Log {
	return &Log{}
}

// Append adds one observation to the log.
func (l *Log) Append(obs Observation) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, obs)
}

// Len returns the number of observations recorded so far.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rows)
}

// Snapshot returns a copy of all recorded observations in append order.
func (l *Log) Snapshot() []Observation {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows := make([]Observation, len(l.rows))
	copy(rows, l.rows)
	return rows
}
