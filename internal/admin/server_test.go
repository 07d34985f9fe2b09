package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"webqa-probe/internal/harness"
	"webqa-probe/internal/observe"
)

func testRunConfig() *harness.RunConfig {
	return &harness.RunConfig{Suite: "checkout", Kind: "browse", Target: "http://localhost:8000"}
}

func tickObs(runID string, elapsed float64, ok bool) observe.Observation {
	return observe.Observation{
		RunID:     runID,
		Suite:     "checkout",
		Elapsed:   elapsed,
		Fields:    observe.Fields{"action": "reload", "response_time": 0.2, "ok": ok},
		Timestamp: time.Now().UTC(),
	}
}

func monitorObs(runID string, elapsed float64) observe.Observation {
	return observe.Observation{
		RunID:     runID,
		Suite:     "checkout",
		Elapsed:   elapsed,
		Fields:    observe.Fields{"cpu_percent": 12.5},
		Timestamp: time.Now().UTC(),
	}
}

func TestTrackerCounts(t *testing.T) {
	tr := NewTracker()
	start := time.Now()
	tr.now = func() time.Time { return start }
	tr.RunStarted(testRunConfig())
	tr.now = func() time.Time { return start.Add(5 * time.Second) }

	if err := tr.WriteObservation(tickObs("run-1", 0.1, true)); err != nil {
		t.Fatalf("write observation: %v", err)
	}
	tr.WriteObservation(tickObs("run-1", 0.2, false))
	tr.WriteObservation(monitorObs("run-1", 0.3))

	st := tr.Status()
	if st.State != "running" {
		t.Errorf("expected state running, got %q", st.State)
	}
	if st.RunID != "run-1" {
		t.Errorf("expected run id from first observation, got %q", st.RunID)
	}
	if st.Observed != 3 || st.Passed != 1 || st.Failed != 1 {
		t.Errorf("unexpected counts: %+v", st)
	}
	if st.Elapsed != 5.0 {
		t.Errorf("expected elapsed 5.0, got %v", st.Elapsed)
	}
}

func TestTrackerWindow(t *testing.T) {
	tr := NewTracker()
	tr.RunStarted(testRunConfig())
	for i := 0; i < maxTracked+5; i++ {
		tr.WriteObservation(monitorObs("run-1", float64(i)))
	}
	if got := len(tr.Recent(0)); got != maxTracked {
		t.Fatalf("expected window of %d rows, got %d", maxTracked, got)
	}
	if st := tr.Status(); st.Observed != maxTracked+5 {
		t.Errorf("expected observed %d, got %d", maxTracked+5, st.Observed)
	}
	last := tr.Recent(2)
	if len(last) != 2 || last[1].Elapsed != float64(maxTracked+4) {
		t.Errorf("unexpected tail: %+v", last)
	}
}

func TestHandleStatus(t *testing.T) {
	tr := NewTracker()
	server := NewServer(tr)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	server.handleStatus(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status OK, got %v", resp.StatusCode)
	}
	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if st.State != "idle" {
		t.Errorf("expected idle state, got %q", st.State)
	}

	tr.RunStarted(testRunConfig())
	tr.WriteReport(&observe.Result{RunID: "run-9", Suite: "checkout", Duration: 12.0})

	w = httptest.NewRecorder()
	server.handleStatus(w, req)
	if err := json.NewDecoder(w.Result().Body).Decode(&st); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if st.State != "done" || st.RunID != "run-9" || st.Elapsed != 12.0 {
		t.Errorf("unexpected status after report: %+v", st)
	}
}

func TestHandleObservationsLimit(t *testing.T) {
	tr := NewTracker()
	tr.RunStarted(testRunConfig())
	for i := 1; i <= 5; i++ {
		tr.WriteObservation(tickObs("run-1", float64(i), true))
	}
	server := NewServer(tr)

	req := httptest.NewRequest(http.MethodGet, "/observations?limit=2", nil)
	w := httptest.NewRecorder()
	server.handleObservations(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status OK, got %v", resp.StatusCode)
	}
	var rows []observe.Observation
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Elapsed != 4 || rows[1].Elapsed != 5 {
		t.Errorf("expected the two latest rows, got %+v", rows)
	}
}

func TestHandleSummary(t *testing.T) {
	tr := NewTracker()
	server := NewServer(tr)

	req := httptest.NewRequest(http.MethodGet, "/summary", nil)
	w := httptest.NewRecorder()
	server.handleSummary(w, req)
	if w.Result().StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before a run completes, got %v", w.Result().StatusCode)
	}

	tr.RunStarted(testRunConfig())
	tr.WriteReport(&observe.Result{
		RunID:   "run-3",
		Suite:   "checkout",
		Passed:  4,
		Summary: observe.Summary{"response_time_mean": 0.25},
	})

	w = httptest.NewRecorder()
	server.handleSummary(w, req)
	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status OK, got %v", resp.StatusCode)
	}
	var res observe.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if res.RunID != "run-3" || res.Summary["response_time_mean"] != 0.25 {
		t.Errorf("unexpected summary payload: %+v", res)
	}
}

func TestHandleIndex(t *testing.T) {
	tr := NewTracker()
	tr.RunStarted(testRunConfig())
	for i := 0; i < 3; i++ {
		tr.WriteObservation(tickObs("run-1", float64(i), i%2 == 0))
	}
	server := NewServer(tr)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	server.handleIndex(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status OK, got %v", resp.StatusCode)
	}
	body := w.Body.String()
	for _, want := range []string{"checkout", "running", "reload"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
}
