package report

import (
	"context"
	"testing"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"

	"webqa-probe/internal/observe"
)

type mockGreptimeClient struct {
	tables []*table.Table
}

func (m *mockGreptimeClient) Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error) {
	m.tables = append(m.tables, tables...)
	return &gpb.GreptimeResponse{}, nil
}

func greptimeTestResult() *observe.Result {
	ts := time.Unix(0, 0).UTC()
	return &observe.Result{
		RunID:     "r1",
		Suite:     "s1",
		StartedAt: ts,
		Duration:  2,
		Attempts:  2,
		Passed:    2,
		Observations: []observe.Observation{
			{RunID: "r1", Suite: "s1", Elapsed: 0, Timestamp: ts,
				Fields: observe.Fields{"action": "reload", "response_time": 0.25, "ok": true}},
			{RunID: "r1", Suite: "s1", Elapsed: 1, Timestamp: ts.Add(time.Second),
				Fields: observe.Fields{"response_time": 0.4}},
		},
		Summary: map[string]float64{"response_time_mean": 0.325},
	}
}

func TestGreptimeSinkNarrowRows(t *testing.T) {
	m := &mockGreptimeClient{}
	s := &GreptimeSink{client: m, obsTable: "qa_observation", sumTable: "qa_summary"}

	if err := s.WriteReport(greptimeTestResult()); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if len(m.tables) != 2 {
		t.Fatalf("expected observation and summary tables, got %d", len(m.tables))
	}

	obsTable := m.tables[0]
	schema := obsTable.GetRows().Schema
	if len(schema) != 6 {
		t.Fatalf("unexpected schema length: %d", len(schema))
	}
	if schema[0].Datatype != gpb.ColumnDataType_STRING {
		t.Fatalf("run_id column type = %v", schema[0].Datatype)
	}
	if schema[3].Datatype != gpb.ColumnDataType_FLOAT64 {
		t.Fatalf("value column type = %v", schema[3].Datatype)
	}

	// only numeric fields become narrow rows
	rows := obsTable.GetRows().Rows
	if len(rows) != 2 {
		t.Fatalf("narrow rows = %d, want 2", len(rows))
	}
	if got := rows[0].Values[2].GetStringValue(); got != "response_time" {
		t.Fatalf("field = %q, want response_time", got)
	}
	if got := rows[0].Values[3].GetF64Value(); got != 0.25 {
		t.Fatalf("value = %v, want 0.25", got)
	}
	if got := rows[1].Values[3].GetF64Value(); got != 0.4 {
		t.Fatalf("value = %v, want 0.4", got)
	}
}

func TestGreptimeSinkSummaryRows(t *testing.T) {
	m := &mockGreptimeClient{}
	s := &GreptimeSink{client: m, obsTable: "qa_observation", sumTable: "qa_summary"}

	if err := s.WriteReport(greptimeTestResult()); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	sumTable := m.tables[1]
	rows := sumTable.GetRows().Rows

	got := map[string]float64{}
	for _, row := range rows {
		got[row.Values[2].GetStringValue()] = row.Values[3].GetF64Value()
	}
	want := map[string]float64{
		"attempts":           2,
		"dropped":            0,
		"passed":             2,
		"failed":             0,
		"duration_s":         2,
		"response_time_mean": 0.325,
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("summary %s = %v, want %v", k, got[k], v)
		}
	}
	if len(rows) != len(want) {
		t.Fatalf("summary rows = %d, want %d", len(rows), len(want))
	}
}

func TestGreptimeSinkEmptyLog(t *testing.T) {
	m := &mockGreptimeClient{}
	s := &GreptimeSink{client: m, obsTable: "qa_observation", sumTable: "qa_summary"}

	res := &observe.Result{RunID: "r1", Suite: "s1", StartedAt: time.Unix(0, 0).UTC()}
	if err := s.WriteReport(res); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	// no observation write, only counters
	if len(m.tables) != 1 {
		t.Fatalf("expected summary table only, got %d", len(m.tables))
	}
}
