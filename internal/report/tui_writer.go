package report

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"webqa-probe/internal/harness"
	"webqa-probe/internal/observe"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// obsMsg carries a rendered observation line and its row.
type obsMsg struct {
	line string
	row  observe.Observation
}

// reportMsg carries the final result.
type reportMsg struct{ res *observe.Result }

// adminMsg reports status server state.
type adminMsg struct{ active bool }

// TUISink renders the run live in the terminal: config header, progress,
// per-field aggregates, and a scrolling observation log. Never required
// for correctness; all data still flows through the other sinks.
type TUISink struct {
	program      teaProgram
	actionColors map[string]string
	colorIdx     int
	done         chan struct{}
	sendSignal   atomic.Bool
}

// NewTUISink starts a bubbletea program and returns the sink.
func NewTUISink(cfg *harness.RunConfig) *TUISink {
	w := &TUISink{actionColors: make(map[string]string), done: make(chan struct{})}
	w.sendSignal.Store(true)
	m := newRunModel(cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

func (w *TUISink) getActionColor(name string) string {
	if c, ok := w.actionColors[name]; ok {
		return c
	}
	c := actionPalette[w.colorIdx%len(actionPalette)]
	w.actionColors[name] = c
	w.colorIdx++
	return c
}

// WriteObservation implements ObservationWriter.
func (w *TUISink) WriteObservation(obs observe.Observation) error {
	action, _ := obs.Fields.String("action")
	w.program.Send(obsMsg{line: observationLine(obs, w.getActionColor(action)), row: obs})
	return nil
}

// WriteObservations sends multiple observations.
func (w *TUISink) WriteObservations(rows []observe.Observation) error {
	for _, obs := range rows {
		_ = w.WriteObservation(obs)
	}
	return nil
}

// WriteReport shows the final summary. The view stays open until quit.
func (w *TUISink) WriteReport(res *observe.Result) error {
	w.program.Send(reportMsg{res: res})
	return nil
}

// SetAdminStatus updates the status server indicator.
func (w *TUISink) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// Close shuts down the TUI program and waits for terminal restore.
func (w *TUISink) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

// fieldAgg keeps incremental aggregates for one numeric field.
type fieldAgg struct {
	count int
	min   float64
	max   float64
	sum   float64
	last  float64
}

type runModel struct {
	cfg          *harness.RunConfig
	table        table.Model
	vp           viewport.Model
	logs         []string
	aggs         map[string]*fieldAgg
	attempts     int
	elapsed      float64
	res          *observe.Result
	admin        bool
	wrap         bool
	autoscroll   bool
	header       string
	headerHeight int
	height       int
}

func newRunModel(cfg *harness.RunConfig) runModel {
	cols := []table.Column{
		{Title: "Config", Width: 14},
		{Title: "Value", Width: 28},
		{Title: "Config", Width: 14},
		{Title: "Value", Width: 28},
	}
	mode := "count"
	terminate := "-"
	interval := "-"
	if cfg != nil {
		if cfg.DurationMode() {
			mode = "duration"
			terminate = cfg.TotalDuration.String()
		} else {
			terminate = fmt.Sprintf("%d ticks", cfg.Iterations)
		}
		if cfg.IntervalMax > 0 {
			interval = fmt.Sprintf("%s..%s", cfg.IntervalMin, cfg.IntervalMax)
		} else {
			interval = cfg.Interval.String()
		}
	}
	var rows []table.Row
	if cfg != nil {
		rows = []table.Row{
			{"Suite", cfg.Suite, "Target", cfg.Target},
			{"Mode", mode, "Until", terminate},
			{"Interval", interval, "Max Retries", fmt.Sprintf("%d", cfg.MaxRetries)},
		}
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithHeight(len(rows)+1))
	vp := viewport.New(0, 0)
	return runModel{
		cfg:        cfg,
		table:      t,
		vp:         vp,
		aggs:       make(map[string]*fieldAgg),
		autoscroll: true,
	}
}

func (m runModel) Init() tea.Cmd { return nil }

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.height = msg.Height
		m.header = m.table.View()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
			return m, nil
		}
		if !m.autoscroll {
			switch msg.String() {
			case "j", "down":
				m.vp.LineDown(1)
			case "k", "up":
				m.vp.LineUp(1)
			case "pgdown", "ctrl+n":
				m.vp.LineDown(10)
			case "pgup", "ctrl+p":
				m.vp.LineUp(10)
			default:
				var cmd tea.Cmd
				m.vp, cmd = m.vp.Update(msg)
				return m, cmd
			}
			return m, nil
		}
		return m, nil
	case obsMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > 1000 {
			m.logs = m.logs[len(m.logs)-1000:]
		}
		if grew := m.recordRow(msg.row); grew && m.height > 0 {
			m.updateViewportHeight()
		}
		m.refreshViewport()
	case reportMsg:
		m.res = msg.res
		if m.height > 0 {
			m.updateViewportHeight()
		}
	case adminMsg:
		m.admin = msg.active
	}
	return m, nil
}

// recordRow folds the observation into the live aggregates. Reports
// whether a field was seen for the first time, which grows the stats
// section by a line.
func (m *runModel) recordRow(obs observe.Observation) bool {
	if _, ok := obs.Fields["action"]; ok {
		m.attempts++
	}
	if obs.Elapsed > m.elapsed {
		m.elapsed = obs.Elapsed
	}
	grew := false
	for k, v := range obs.Fields {
		n, ok := observe.Number(v)
		if !ok {
			continue
		}
		agg, ok := m.aggs[k]
		if !ok {
			agg = &fieldAgg{min: n, max: n}
			m.aggs[k] = agg
			grew = true
		}
		if n < agg.min {
			agg.min = n
		}
		if n > agg.max {
			agg.max = n
		}
		agg.count++
		agg.sum += n
		agg.last = n
	}
	return grew
}

func (m *runModel) updateViewportHeight() {
	statsHeight := lipgloss.Height(m.renderStats())
	bottomHeight := lipgloss.Height(m.renderBottom())
	h := m.height - m.headerHeight - statsHeight - bottomHeight - 6
	if h < 0 {
		h = 0
	}
	m.vp.Height = h
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *runModel) refreshViewport() {
	var lines []string
	for _, l := range m.logs {
		if m.wrap {
			lines = append(lines, wordwrap.String(l, m.vp.Width))
		} else {
			lines = append(lines, l)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m runModel) View() string {
	divider := strings.Repeat("─", m.vp.Width)
	sections := []string{
		m.header,
		divider,
		m.renderProgress(),
		divider,
		m.renderStats(),
		divider,
		m.vp.View(),
		divider,
		m.renderBottom(),
	}
	return strings.Join(sections, "\n")
}

func (m runModel) renderProgress() string {
	width := m.vp.Width - 20
	if width < 10 {
		width = 10
	}
	var done, total float64
	var label string
	if m.cfg != nil && m.cfg.DurationMode() {
		done, total = m.elapsed, m.cfg.TotalDuration.Seconds()
		label = fmt.Sprintf("%.0fs/%.0fs", done, total)
	} else {
		done = float64(m.attempts)
		if m.cfg != nil {
			total = float64(m.cfg.Iterations)
		}
		label = fmt.Sprintf("%d/%.0f ticks", m.attempts, total)
	}
	frac := 0.0
	if total > 0 {
		frac = done / total
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %3.0f%% %s", bar, frac*100, label)
}

func (m runModel) renderStats() string {
	if m.res != nil {
		return m.renderSummary()
	}
	if len(m.aggs) == 0 {
		return "Fields: none"
	}
	names := make([]string, 0, len(m.aggs))
	for k := range m.aggs {
		names = append(names, k)
	}
	sort.Strings(names)
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-24s %6s %12s %12s %12s %12s\n", "Field", "Count", "Min", "Mean", "Max", "Last"))
	for _, k := range names {
		a := m.aggs[k]
		mean := a.sum / float64(a.count)
		b.WriteString(fmt.Sprintf("%-24s %6d %12.4f %12.4f %12.4f %12.4f\n", k, a.count, a.min, mean, a.max, a.last))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m runModel) renderSummary() string {
	verdict := fmt.Sprintf("%sPASS%s", colorGreen, colorReset)
	if !m.res.OK() {
		verdict = fmt.Sprintf("%sFAIL%s", colorRed, colorReset)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s attempts=%d passed=%d failed=%d dropped=%d duration=%.1fs\n",
		verdict, m.res.Attempts, m.res.Passed, m.res.Failed, m.res.Dropped, m.res.Duration))
	for _, k := range sortedSummaryKeys(m.res.Summary) {
		b.WriteString(fmt.Sprintf("%-32s %s\n", k, formatMetric(m.res.Summary[k])))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m runModel) renderBottom() string {
	adminColor := lipgloss.Color("9")
	if m.admin {
		adminColor = lipgloss.Color("10")
	}
	wrapColor := lipgloss.Color("9")
	if m.wrap {
		wrapColor = lipgloss.Color("10")
	}
	scrollColor := lipgloss.Color("10")
	if !m.autoscroll {
		scrollColor = lipgloss.Color("9")
	}
	adminIndicator := lipgloss.NewStyle().Foreground(adminColor).Render("●")
	wrapIndicator := lipgloss.NewStyle().Foreground(wrapColor).Render("●")
	scrollIndicator := lipgloss.NewStyle().Foreground(scrollColor).Render("●")
	state := "running"
	if m.res != nil {
		state = "done, q to quit"
	}
	return fmt.Sprintf("%s | Status %s | Wrap %s | Scroll %s", state, adminIndicator, wrapIndicator, scrollIndicator)
}
