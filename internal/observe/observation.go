// Observation records with greptime tags
package observe

import (
	"os"
	"time"
)

// Fields holds the values one tick produced. Values are JSON-compatible:
// float64, bool, or string. Numeric values always travel as float64 so a
// log written to disk and read back summarizes identically.
type Fields map[string]any

// Observation is one timestamped measurement. Immutable once appended.
type Observation struct {
	RunID     string    `json:"run_id"`       // TAG
	Suite     string    `json:"suite"`        // TAG
	Elapsed   float64   `json:"elapsed_time"` // seconds since run start, FIELD
	Fields    Fields    `json:"fields"`
	Timestamp time.Time `json:"ts"` // TIME INDEX
}

// ObservationTableName holds the table name used when writing observations
// to GreptimeDB. It defaults to "qa_observation" but can be overridden via
// the OBSERVATION_TABLE environment variable.
var ObservationTableName = func() string {
	if env := os.Getenv("OBSERVATION_TABLE"); env != "" {
		return env
	}
	return "qa_observation"
}()

// SummaryTableName is the GreptimeDB table for summary metrics, overridable
// via the SUMMARY_TABLE environment variable.
var SummaryTableName = func() string {
	if env := os.Getenv("SUMMARY_TABLE"); env != "" {
		return env
	}
	return "qa_summary"
}()

// Number reports v as a float64 if the field value is numeric. JSON decoding
// produces float64 for all numbers; the int cases cover values set in code.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Number returns the named field as a float64, or false if the field is
// absent or non-numeric.
func (f Fields) Number(name string) (float64, bool) {
	v, ok := f[name]
	if !ok {
		return 0, false
	}
	return Number(v)
}

// Bool returns the named field as a bool, or false if absent or not a bool.
func (f Fields) Bool(name string) (bool, bool) {
	v, ok := f[name]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// String returns the named field as a string, or false if absent or not a
// string.
func (f Fields) String(name string) (string, bool) {
	v, ok := f[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
