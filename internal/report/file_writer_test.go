package report

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"webqa-probe/internal/observe"
)

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.json")
	obsPath := filepath.Join(dir, "observations.jsonl")

	s, err := NewFileSink(reportPath, obsPath)
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}

	ts := time.Unix(0, 0).UTC()
	rows := []observe.Observation{
		{RunID: "r1", Suite: "s1", Elapsed: 0, Timestamp: ts,
			Fields: observe.Fields{"action": "reload", "response_time": 0.2, "ok": true}},
		{RunID: "r1", Suite: "s1", Elapsed: 1, Timestamp: ts.Add(time.Second),
			Fields: observe.Fields{"action": "reload", "response_time": 0.4, "ok": false}},
	}
	if err := s.WriteObservations(rows); err != nil {
		t.Fatalf("WriteObservations: %v", err)
	}
	res := &observe.Result{
		RunID: "r1", Suite: "s1", Attempts: 2, Passed: 1, Failed: 1,
		StartedAt: ts, Duration: 1, Observations: rows,
		Summary: map[string]float64{"response_time_mean": 0.3},
	}
	if err := s.WriteReport(res); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(obsPath)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	var got []observe.Observation
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var obs observe.Observation
		if err := json.Unmarshal(sc.Bytes(), &obs); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		got = append(got, obs)
	}
	if len(got) != 2 {
		t.Fatalf("log rows = %d, want 2", len(got))
	}
	if v, ok := got[1].Fields.Number("response_time"); !ok || v != 0.4 {
		t.Fatalf("response_time = %v, %v", v, ok)
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var back observe.Result
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if back.Attempts != 2 || back.Summary["response_time_mean"] != 0.3 {
		t.Fatalf("unexpected report: %#v", back)
	}
	if len(back.Observations) != 2 {
		t.Fatalf("report observations = %d, want 2", len(back.Observations))
	}
}

func TestFileSinkDisabledOutputs(t *testing.T) {
	s, err := NewFileSink("", "")
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	if err := s.WriteObservation(observe.Observation{RunID: "r1"}); err != nil {
		t.Fatalf("WriteObservation: %v", err)
	}
	if err := s.WriteReport(&observe.Result{RunID: "r1"}); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
