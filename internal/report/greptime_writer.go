package report

import (
	"context"
	"net"
	"sort"
	"strconv"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"webqa-probe/internal/observe"
)

// greptimeClient abstracts the ingester client for testing.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeSink writes a completed run to GreptimeDB. Observations are
// stored as narrow rows, one per numeric field, so runs with different
// field sets share one schema; summary metrics land in a second table.
// Tables are auto-created on first write.
type GreptimeSink struct {
	client   greptimeClient
	obsTable string
	sumTable string
}

// NewGreptimeSink connects to a GreptimeDB endpoint ("host:port"). Empty
// table names fall back to the defaults (env-overridable).
func NewGreptimeSink(endpoint, database, obsTable, sumTable string) (*GreptimeSink, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		host, portStr = endpoint, "4001"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if obsTable == "" {
		obsTable = observe.ObservationTableName
	}
	if sumTable == "" {
		sumTable = observe.SummaryTableName
	}
	return &GreptimeSink{client: client, obsTable: obsTable, sumTable: sumTable}, nil
}

// WriteReport inserts the run's observations and summary metrics.
func (s *GreptimeSink) WriteReport(res *observe.Result) error {
	if err := s.writeObservations(res.Observations); err != nil {
		return err
	}
	return s.writeSummary(res)
}

func (s *GreptimeSink) writeObservations(rows []observe.Observation) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := table.New(s.obsTable)
	if err != nil {
		return err
	}
	if err := s.addNarrowSchema(tbl); err != nil {
		return err
	}
	n := 0
	for _, obs := range rows {
		for _, name := range sortedFieldKeys(obs.Fields) {
			v, ok := observe.Number(obs.Fields[name])
			if !ok {
				continue
			}
			if err := tbl.AddRow(obs.RunID, obs.Suite, name, v, obs.Elapsed, obs.Timestamp); err != nil {
				return err
			}
			n++
		}
	}
	if n == 0 {
		return nil
	}
	_, err = s.client.Write(context.Background(), tbl)
	return err
}

func (s *GreptimeSink) writeSummary(res *observe.Result) error {
	tbl, err := table.New(s.sumTable)
	if err != nil {
		return err
	}
	if err := s.addNarrowSchema(tbl); err != nil {
		return err
	}
	metrics := map[string]float64{
		"attempts":   float64(res.Attempts),
		"dropped":    float64(res.Dropped),
		"passed":     float64(res.Passed),
		"failed":     float64(res.Failed),
		"duration_s": res.Duration,
	}
	for k, v := range res.Summary {
		metrics[k] = v
	}
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := tbl.AddRow(res.RunID, res.Suite, k, metrics[k], res.Duration, res.StartedAt); err != nil {
			return err
		}
	}
	_, err = s.client.Write(context.Background(), tbl)
	return err
}

func (s *GreptimeSink) addNarrowSchema(tbl *table.Table) error {
	if err := tbl.AddTagColumn("run_id", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("suite", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddTagColumn("field", types.STRING); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("value", types.FLOAT); err != nil {
		return err
	}
	if err := tbl.AddFieldColumn("elapsed_time", types.FLOAT); err != nil {
		return err
	}
	return tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
}
