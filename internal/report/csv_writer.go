package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"webqa-probe/internal/observe"
)

// CSVSink writes the observation table as CSV: one row per observation,
// one column per field seen anywhere in the run.
type CSVSink struct {
	path string
}

// NewCSVSink creates a CSVSink writing to path.
func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// WriteReport writes all observations of the run.
func (s *CSVSink) WriteReport(res *observe.Result) error {
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)

	cols := fieldColumns(res.Observations)
	header := append([]string{"run_id", "suite", "ts", "elapsed_time"}, cols...)
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	for _, obs := range res.Observations {
		rec := make([]string, 0, len(header))
		rec = append(rec,
			obs.RunID,
			obs.Suite,
			obs.Timestamp.Format(time.RFC3339Nano),
			strconv.FormatFloat(obs.Elapsed, 'f', -1, 64))
		for _, c := range cols {
			rec = append(rec, formatFieldValue(obs.Fields[c]))
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// fieldColumns returns the sorted union of field names across rows.
func fieldColumns(rows []observe.Observation) []string {
	set := map[string]struct{}{}
	for _, r := range rows {
		for k := range r.Fields {
			set[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(set))
	for k := range set {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func formatFieldValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
