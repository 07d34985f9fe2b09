package harness

import (
	"time"

	"webqa-probe/internal/stats"
)

// DefaultRetryBackoff is the fixed pause between retries of a transient
// tick failure.
const DefaultRetryBackoff = 500 * time.Millisecond

// RunConfig describes one sampling run. It is immutable once validated:
// exactly one termination mode, the sleep applied between ticks, and the
// aggregation rules for the summary.
type RunConfig struct {
	Suite  string
	Kind   string
	Target string

	// Termination. Exactly one of the two modes must be set: a wall-clock
	// deadline (TotalDuration) or a fixed attempt count (Iterations).
	TotalDuration time.Duration
	Iterations    int

	// Sleep between ticks: either a fixed Interval or a uniformly random
	// duration in [IntervalMin, IntervalMax]. Duration mode requires one of
	// the two; count mode may run back-to-back.
	Interval    time.Duration
	IntervalMin time.Duration
	IntervalMax time.Duration

	// MaxRetries bounds retries of a transient tick failure. The backoff
	// between retries is fixed (DefaultRetryBackoff unless overridden).
	MaxRetries   int
	RetryBackoff time.Duration

	// MonitorInterval is the background resource sampler period; zero
	// disables the sampler even when probes are attached.
	MonitorInterval time.Duration

	// Depleting names fields treated as monotonically draining resources
	// (battery charge): the summary adds start-to-end drain and a per-hour
	// rate for each.
	Depleting []string

	// Percentiles to report per numeric field; defaults to 90/95/99.
	Percentiles []int

	// Seed makes action selection and sleep jitter reproducible; zero means
	// time-seeded.
	Seed int64
}

// DurationMode reports whether the run terminates on a wall-clock deadline.
func (c *RunConfig) DurationMode() bool {
	return c.TotalDuration > 0
}

// Validate checks the config and fills defaults. It returns a *ConfigError
// describing the first problem found.
func (c *RunConfig) Validate() error {
	duration := c.TotalDuration > 0
	count := c.Iterations > 0
	if duration && count {
		return &ConfigError{Field: "termination", Reason: "both total duration and iteration count set"}
	}
	if !duration && !count {
		return &ConfigError{Field: "termination", Reason: "either total duration or iteration count required"}
	}
	if c.TotalDuration < 0 {
		return &ConfigError{Field: "total_duration", Reason: "must not be negative"}
	}
	if c.Iterations < 0 {
		return &ConfigError{Field: "iterations", Reason: "must not be negative"}
	}

	fixed := c.Interval > 0
	jitter := c.IntervalMin > 0 || c.IntervalMax > 0
	if fixed && jitter {
		return &ConfigError{Field: "interval", Reason: "fixed interval and jitter range are mutually exclusive"}
	}
	if jitter {
		if c.IntervalMax < c.IntervalMin {
			return &ConfigError{Field: "interval", Reason: "jitter range maximum below minimum"}
		}
		if c.IntervalMin < 0 {
			return &ConfigError{Field: "interval", Reason: "jitter range must not be negative"}
		}
	}
	if duration && !fixed && !jitter {
		return &ConfigError{Field: "interval", Reason: "duration mode requires a tick interval or jitter range"}
	}

	if c.MaxRetries < 0 {
		return &ConfigError{Field: "max_retries", Reason: "must not be negative"}
	}
	if c.RetryBackoff < 0 {
		return &ConfigError{Field: "retry_backoff", Reason: "must not be negative"}
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	if c.MonitorInterval < 0 {
		return &ConfigError{Field: "monitor_interval", Reason: "must not be negative"}
	}

	if len(c.Percentiles) == 0 {
		c.Percentiles = stats.DefaultPercentiles
	}
	for _, p := range c.Percentiles {
		if p < 0 || p > 100 {
			return &ConfigError{Field: "percentiles", Reason: "percentiles must lie in [0,100]"}
		}
	}
	return nil
}
