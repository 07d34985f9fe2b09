// Package report persists and renders completed sampling runs.
package report

import (
	"io"

	"webqa-probe/internal/observe"
)

// ObservationWriter receives observations as they are recorded, for live
// output surfaces and streamed logs.
type ObservationWriter interface {
	WriteObservation(observe.Observation) error
}

// Optional: observation writers may support batch mode.
type batchObservationWriter interface {
	WriteObservations([]observe.Observation) error
}

// Sink persists a completed run result.
type Sink interface {
	WriteReport(*observe.Result) error
}

// AdminStatusWriter allows sinks to receive status server state updates.
type AdminStatusWriter interface {
	SetAdminStatus(listening bool)
}

// MultiSink fans out observations and reports to multiple sinks.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a MultiSink.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// WriteReport sends the result to all sinks.
func (m *MultiSink) WriteReport(res *observe.Result) error {
	for _, s := range m.sinks {
		if err := s.WriteReport(res); err != nil {
			return err
		}
	}
	return nil
}

// WriteObservation forwards one observation to every streaming sink.
func (m *MultiSink) WriteObservation(obs observe.Observation) error {
	for _, s := range m.sinks {
		if ow, ok := s.(ObservationWriter); ok {
			if err := ow.WriteObservation(obs); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteObservations forwards multiple observations, using batch mode where
// supported.
func (m *MultiSink) WriteObservations(rows []observe.Observation) error {
	for _, s := range m.sinks {
		if bw, ok := s.(batchObservationWriter); ok {
			if err := bw.WriteObservations(rows); err != nil {
				return err
			}
			continue
		}
		ow, ok := s.(ObservationWriter)
		if !ok {
			continue
		}
		for _, obs := range rows {
			if err := ow.WriteObservation(obs); err != nil {
				return err
			}
		}
	}
	return nil
}

// SetAdminStatus forwards the status server indicator to interested sinks.
func (m *MultiSink) SetAdminStatus(listening bool) {
	for _, s := range m.sinks {
		if aw, ok := s.(AdminStatusWriter); ok {
			aw.SetAdminStatus(listening)
		}
	}
}

// Close closes any sinks holding OS resources.
func (m *MultiSink) Close() error {
	var err error
	for _, s := range m.sinks {
		if c, ok := s.(io.Closer); ok {
			if e := c.Close(); e != nil && err == nil {
				err = e
			}
		}
	}
	return err
}
