package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"webqa-probe/internal/observe"
	"webqa-probe/internal/stats"
)

func encodeLog(t *testing.T, rows []observe.Observation) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	return &buf
}

func TestReadLog(t *testing.T) {
	rows := []observe.Observation{
		{RunID: "r1", Suite: "perf", Elapsed: 0, Fields: observe.Fields{"response_time": 0.5}, Timestamp: time.Unix(0, 0).UTC()},
		{RunID: "r1", Suite: "perf", Elapsed: 1, Fields: observe.Fields{"response_time": 0.7}, Timestamp: time.Unix(1, 0).UTC()},
	}
	got, err := ReadLog(encodeLog(t, rows))
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(got))
	}
	for i, r := range rows {
		if got[i].RunID != r.RunID || got[i].Elapsed != r.Elapsed {
			t.Fatalf("row %d mismatch: %+v vs %+v", i, got[i], r)
		}
		rt, ok := got[i].Fields.Number("response_time")
		if !ok || rt != r.Fields["response_time"] {
			t.Fatalf("row %d fields mismatch: %+v", i, got[i].Fields)
		}
	}
}

func TestReadLog_Corrupt(t *testing.T) {
	if _, err := ReadLog(strings.NewReader("not json\n")); err == nil {
		t.Fatal("expected decode error for corrupt log")
	}
}

func TestReadLogFile(t *testing.T) {
	rows := []observe.Observation{
		{RunID: "r1", Suite: "browse", Elapsed: 0, Fields: observe.Fields{"battery_percent": 100.0}, Timestamp: time.Unix(0, 0).UTC()},
	}
	path := filepath.Join(t.TempDir(), "observations.jsonl")
	if err := os.WriteFile(path, encodeLog(t, rows).Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ReadLogFile(path)
	if err != nil {
		t.Fatalf("ReadLogFile: %v", err)
	}
	if len(got) != 1 || got[0].Suite != "browse" {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestReplay(t *testing.T) {
	rows := []observe.Observation{
		{RunID: "r1", Suite: "perf", Elapsed: 0, Timestamp: time.Unix(0, 0).UTC()},
		{RunID: "r1", Suite: "perf", Elapsed: 1, Timestamp: time.Unix(1, 0).UTC()},
		{RunID: "r1", Suite: "perf", Elapsed: 2, Timestamp: time.Unix(2, 0).UTC()},
	}
	var replayed []observe.Observation
	err := Replay(encodeLog(t, rows), func(o observe.Observation) error {
		replayed = append(replayed, o)
		return nil
	}, 0)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if len(replayed) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(replayed))
	}
	for i := range rows {
		if replayed[i].Elapsed != rows[i].Elapsed {
			t.Fatalf("row %d out of order: %+v", i, replayed[i])
		}
	}
}

func TestReplay_EmitErrorStops(t *testing.T) {
	rows := []observe.Observation{
		{RunID: "r1", Timestamp: time.Unix(0, 0).UTC()},
		{RunID: "r1", Timestamp: time.Unix(1, 0).UTC()},
	}
	boom := errors.New("sink closed")
	calls := 0
	err := Replay(encodeLog(t, rows), func(o observe.Observation) error {
		calls++
		return boom
	}, 0)
	if !errors.Is(err, boom) {
		t.Fatalf("expected emit error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected replay to stop at the first emit failure, got %d calls", calls)
	}
}

func TestReplay_SummaryReproducible(t *testing.T) {
	cfg := RunConfig{Suite: "perf", Iterations: 5, Seed: 7}
	r, _ := instantRunner(t, cfg, []Action{okAction("reload")}, nil)
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	buf := encodeLog(t, res.Observations)
	rows, err := ReadLog(buf)
	if err != nil {
		t.Fatalf("ReadLog: %v", err)
	}
	recomputed, err := stats.Summarize(rows, nil, stats.DefaultPercentiles)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if len(recomputed) != len(res.Summary) {
		t.Fatalf("recomputed summary has %d keys, run summary %d", len(recomputed), len(res.Summary))
	}
	for k, v := range res.Summary {
		if recomputed[k] != v {
			t.Errorf("summary key %s differs after replay: %v vs %v", k, v, recomputed[k])
		}
	}
}
