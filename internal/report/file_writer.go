package report

import (
	"encoding/json"
	"os"

	"webqa-probe/internal/observe"
)

// FileSink writes the final report as indented JSON and, optionally, a
// JSONL observation log next to it. The log is streamed per tick so a
// crashed run still leaves its observations behind.
type FileSink struct {
	reportPath string
	obsFile    *os.File
	obsEnc     *json.Encoder
}

// NewFileSink creates a FileSink. reportPath or obsPath may be empty to
// skip that output.
func NewFileSink(reportPath, obsPath string) (*FileSink, error) {
	s := &FileSink{reportPath: reportPath}
	if obsPath != "" {
		f, err := os.Create(obsPath)
		if err != nil {
			return nil, err
		}
		s.obsFile = f
		s.obsEnc = json.NewEncoder(f)
	}
	return s, nil
}

// WriteObservation appends one JSONL row, if the log is enabled.
func (s *FileSink) WriteObservation(obs observe.Observation) error {
	if s.obsEnc == nil {
		return nil
	}
	return s.obsEnc.Encode(obs)
}

// WriteObservations appends multiple rows.
func (s *FileSink) WriteObservations(rows []observe.Observation) error {
	for _, obs := range rows {
		if err := s.WriteObservation(obs); err != nil {
			return err
		}
	}
	return nil
}

// WriteReport writes the result as an indented JSON file.
func (s *FileSink) WriteReport(res *observe.Result) error {
	if s.reportPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.reportPath, append(data, '\n'), 0o644)
}

// Close closes the observation log.
func (s *FileSink) Close() error {
	if s.obsFile != nil {
		return s.obsFile.Close()
	}
	return nil
}
