// Package dashboard renders completed runs for humans: a self-contained
// HTML report per run, and Grafana dashboard JSON generated from
// templates for the GreptimeDB-backed live view.
package dashboard

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"os"
	"sort"
	"strconv"
	"time"

	"webqa-probe/internal/observe"
)

//go:embed templates/report.html.tmpl
var content embed.FS

var reportTpl = template.Must(template.New("report.html.tmpl").ParseFS(content, "templates/report.html.tmpl"))

type metricRow struct {
	Name  string
	Value string
}

type obsRow struct {
	Timestamp string
	Elapsed   string
	Fields    string
	Failed    bool
}

type reportData struct {
	Suite        string
	RunID        string
	Kind         string
	Target       string
	StartedAt    string
	Duration     string
	Verdict      string
	VerdictClass string
	Attempts     int
	Passed       int
	Failed       int
	Dropped      int
	Metrics      []metricRow
	Observations []obsRow
	Warnings     []string
}

// RenderReport renders the result as a standalone HTML page.
func RenderReport(res *observe.Result) ([]byte, error) {
	data := buildReportData(res)
	var buf bytes.Buffer
	if err := reportTpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile renders the result and writes it to path.
func WriteFile(path string, res *observe.Result) error {
	b, err := RenderReport(res)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func buildReportData(res *observe.Result) reportData {
	data := reportData{
		Suite:        res.Suite,
		RunID:        res.RunID,
		Kind:         res.Kind,
		Target:       res.Target,
		StartedAt:    res.StartedAt.Format(time.RFC3339),
		Duration:     strconv.FormatFloat(res.Duration, 'f', 1, 64) + "s",
		Verdict:      "PASS",
		VerdictClass: "pass",
		Attempts:     res.Attempts,
		Passed:       res.Passed,
		Failed:       res.Failed,
		Dropped:      res.Dropped,
		Warnings:     res.Warnings,
	}
	if !res.OK() {
		data.Verdict = "FAIL"
		data.VerdictClass = "fail"
	}
	names := make([]string, 0, len(res.Summary))
	for k := range res.Summary {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		data.Metrics = append(data.Metrics, metricRow{
			Name:  k,
			Value: strconv.FormatFloat(res.Summary[k], 'f', 4, 64),
		})
	}
	for _, obs := range res.Observations {
		fields, err := json.Marshal(obs.Fields)
		if err != nil {
			fields = []byte("{}")
		}
		failed := false
		if ok, present := obs.Fields.Bool("ok"); present && !ok {
			failed = true
		}
		data.Observations = append(data.Observations, obsRow{
			Timestamp: obs.Timestamp.Format(time.RFC3339),
			Elapsed:   strconv.FormatFloat(obs.Elapsed, 'f', 3, 64),
			Fields:    string(fields),
			Failed:    failed,
		})
	}
	return data
}
