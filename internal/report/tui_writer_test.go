package report

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"webqa-probe/internal/harness"
	"webqa-probe/internal/observe"
)

type fakeProgram struct{ msgs []tea.Msg }

func (f *fakeProgram) Send(msg tea.Msg) { f.msgs = append(f.msgs, msg) }

func TestTUISinkMessages(t *testing.T) {
	p := &fakeProgram{}
	w := &TUISink{program: p, actionColors: map[string]string{}}

	if err := w.WriteObservation(testObservation(1)); err != nil {
		t.Fatalf("write: %v", err)
	}
	om, ok := p.msgs[0].(obsMsg)
	if !ok {
		t.Fatalf("expected obsMsg, got %T", p.msgs[0])
	}
	if !strings.Contains(om.line, "action=reload") {
		t.Fatalf("line missing action: %q", om.line)
	}

	res := &observe.Result{RunID: "r1", Suite: "s1"}
	if err := w.WriteReport(res); err != nil {
		t.Fatalf("report: %v", err)
	}
	rm, ok := p.msgs[1].(reportMsg)
	if !ok {
		t.Fatalf("expected reportMsg, got %T", p.msgs[1])
	}
	if rm.res.RunID != "r1" {
		t.Fatalf("unexpected result: %#v", rm.res)
	}

	w.SetAdminStatus(true)
	if _, ok := p.msgs[2].(adminMsg); !ok {
		t.Fatalf("expected adminMsg, got %T", p.msgs[2])
	}
}

func tuiTestConfig() *harness.RunConfig {
	return &harness.RunConfig{
		Suite:      "s1",
		Target:     "https://example.com",
		Iterations: 4,
		Interval:   0,
		MaxRetries: 1,
	}
}

func TestRunModelAggregates(t *testing.T) {
	m := newRunModel(tuiTestConfig())
	mi, _ := m.Update(obsMsg{line: "l1", row: testObservation(1)})
	m = mi.(runModel)
	mi, _ = m.Update(obsMsg{line: "l2", row: testObservation(2)})
	m = mi.(runModel)

	if m.attempts != 2 {
		t.Fatalf("attempts = %d, want 2", m.attempts)
	}
	stats := m.renderStats()
	if !strings.Contains(stats, "response_time") {
		t.Fatalf("stats missing field: %q", stats)
	}
	agg := m.aggs["response_time"]
	if agg == nil || agg.count != 2 || agg.min != 0.2 || agg.max != 0.2 {
		t.Fatalf("unexpected aggregate: %#v", agg)
	}

	progress := m.renderProgress()
	if !strings.Contains(progress, "2/4 ticks") {
		t.Fatalf("progress = %q", progress)
	}
}

func TestRunModelFinalSummary(t *testing.T) {
	m := newRunModel(tuiTestConfig())
	res := &observe.Result{
		RunID: "r1", Suite: "s1", Attempts: 4, Passed: 3, Failed: 1,
		Summary: map[string]float64{"response_time_p90": 0.4},
	}
	mi, _ := m.Update(reportMsg{res: res})
	m = mi.(runModel)

	stats := m.renderStats()
	if !strings.Contains(stats, "FAIL") {
		t.Fatalf("verdict missing: %q", stats)
	}
	if !strings.Contains(stats, "response_time_p90") {
		t.Fatalf("summary metric missing: %q", stats)
	}
	bottom := m.renderBottom()
	if !strings.Contains(bottom, "done") {
		t.Fatalf("bottom bar should show done state: %q", bottom)
	}
}

func TestRunModelWrapToggle(t *testing.T) {
	m := newRunModel(tuiTestConfig())
	mi, _ := m.Update(tea.WindowSizeMsg{Width: 20, Height: 30})
	m = mi.(runModel)
	long := "one two three four five six"
	mi, _ = m.Update(obsMsg{line: long})
	m = mi.(runModel)
	lines := strings.Split(m.vp.View(), "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[1]) != "" {
		t.Fatalf("expected single line before wrap")
	}
	mi, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'w'}})
	m = mi.(runModel)
	if !m.wrap {
		t.Fatalf("wrap not toggled")
	}
	lines = strings.Split(m.vp.View(), "\n")
	if strings.TrimSpace(lines[1]) == "" {
		t.Fatalf("expected wrapped content on second line")
	}
}

func TestRunModelScrollToggle(t *testing.T) {
	m := newRunModel(tuiTestConfig())
	m.vp.Height = 1
	m.vp.Width = 20
	mi, _ := m.Update(obsMsg{line: "l1"})
	m = mi.(runModel)
	mi, _ = m.Update(obsMsg{line: "l2"})
	m = mi.(runModel)
	if m.vp.YOffset != 1 {
		t.Fatalf("expected YOffset 1, got %d", m.vp.YOffset)
	}
	mi, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	m = mi.(runModel)
	if m.autoscroll {
		t.Fatalf("autoscroll should be off")
	}
	mi, _ = m.Update(obsMsg{line: "l3"})
	m = mi.(runModel)
	if m.vp.YOffset != 1 {
		t.Fatalf("expected YOffset unchanged, got %d", m.vp.YOffset)
	}
	mi, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = mi.(runModel)
	if m.vp.YOffset != 0 {
		t.Fatalf("expected YOffset 0 after scrolling up, got %d", m.vp.YOffset)
	}
	mi, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	m = mi.(runModel)
	if !m.autoscroll {
		t.Fatalf("autoscroll should be on")
	}
	expected := len(m.logs) - m.vp.Height
	if m.vp.YOffset != expected {
		t.Fatalf("expected YOffset %d, got %d", expected, m.vp.YOffset)
	}
}
