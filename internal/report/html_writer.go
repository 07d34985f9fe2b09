package report

import (
	"webqa-probe/internal/dashboard"
	"webqa-probe/internal/observe"
)

// HTMLSink renders the final result as a self-contained HTML report.
type HTMLSink struct {
	path string
}

// NewHTMLSink returns a sink writing to the given file path.
func NewHTMLSink(path string) *HTMLSink {
	return &HTMLSink{path: path}
}

// WriteReport implements Sink.
func (s *HTMLSink) WriteReport(res *observe.Result) error {
	return dashboard.WriteFile(s.path, res)
}
