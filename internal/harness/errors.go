package harness

import (
	"errors"
	"fmt"
)

// ConfigError reports an invalid RunConfig. It is surfaced before the run
// starts; a run never begins with an ambiguous or incomplete config.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid run config: %s: %s", e.Field, e.Reason)
}

// transientError marks a tick-scoped failure eligible for bounded retry,
// e.g. a connection reset or a link target that went stale.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient wraps err so the runner retries the tick with a short backoff
// before dropping it. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err is marked transient.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
