package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"webqa-probe/internal/harness"
	"webqa-probe/internal/observe"
)

func sinkTestConfig() *harness.RunConfig {
	return &harness.RunConfig{Suite: "checkout", Kind: "perf", Target: "http://localhost:8000", Iterations: 2}
}

func sinkTestResult() *observe.Result {
	return &observe.Result{
		RunID:     "run-1",
		Suite:     "checkout",
		Kind:      "perf",
		Target:    "http://localhost:8000",
		StartedAt: time.Now().UTC(),
		Duration:  1.0,
		Attempts:  2,
		Passed:    2,
		Observations: []observe.Observation{
			{RunID: "run-1", Suite: "checkout", Elapsed: 0.1, Timestamp: time.Now().UTC(),
				Fields: observe.Fields{"action": "page-load", "response_time": 0.25, "ok": true}},
		},
		Summary: observe.Summary{"response_time_mean": 0.25},
	}
}

func globOne(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(pattern)
	if err != nil {
		t.Fatalf("glob %s: %v", pattern, err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one match for %s, got %v", pattern, matches)
	}
	return matches[0]
}

func TestNewSinksWritesFiles(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	dir := t.TempDir()
	ms, err := newSinks(sinkOptions{cfg: sinkTestConfig(), reportsDir: dir})
	if err != nil {
		t.Fatalf("newSinks: %v", err)
	}

	res := sinkTestResult()
	for _, obs := range res.Observations {
		if err := ms.WriteObservation(obs); err != nil {
			t.Fatalf("write observation: %v", err)
		}
	}
	if err := ms.WriteReport(res); err != nil {
		t.Fatalf("write report: %v", err)
	}
	if err := ms.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reportPath := globOne(t, filepath.Join(dir, "checkout_*.json"))
	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var decoded observe.Result
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if decoded.RunID != "run-1" {
		t.Errorf("unexpected report content: %+v", decoded)
	}

	for _, ext := range []string{".jsonl", ".csv", ".html"} {
		path := globOne(t, filepath.Join(dir, "checkout_*"+ext))
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("stat %s: %v", path, err)
		}
		if info.Size() == 0 {
			t.Errorf("expected %s to be non-empty", path)
		}
	}
}

func TestNewSinksPrintOnly(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	dir := t.TempDir()
	ms, err := newSinks(sinkOptions{cfg: sinkTestConfig(), reportsDir: dir, printOnly: true})
	if err != nil {
		t.Fatalf("newSinks: %v", err)
	}
	if err := ms.WriteReport(sinkTestResult()); err != nil {
		t.Fatalf("write report: %v", err)
	}
	if err := ms.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("print-only mode must not write files, found %v", entries)
	}
}

func TestNewSinksLogFileOverride(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	dir := t.TempDir()
	logPath := filepath.Join(dir, "custom.jsonl")
	ms, err := newSinks(sinkOptions{cfg: sinkTestConfig(), reportsDir: dir, logFile: logPath})
	if err != nil {
		t.Fatalf("newSinks: %v", err)
	}
	res := sinkTestResult()
	for _, obs := range res.Observations {
		ms.WriteObservation(obs)
	}
	ms.WriteReport(res)
	ms.Close()

	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("expected observation log at %s: %v", logPath, err)
	}
	if info.Size() == 0 {
		t.Errorf("expected %s to be non-empty", logPath)
	}
}

func TestSanitizeName(t *testing.T) {
	if got := sanitizeName("checkout perf/v2"); got != "checkout-perf-v2" {
		t.Errorf("unexpected sanitized name %q", got)
	}
}
