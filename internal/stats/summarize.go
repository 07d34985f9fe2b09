package stats

import (
	"fmt"

	"webqa-probe/internal/observe"
)

// DefaultPercentiles are the upper-tail percentiles reported for every
// numeric field when a run does not request its own set.
var DefaultPercentiles = []int{90, 95, 99}

// series is the ordered list of values one field took across the log.
type series struct {
	values []float64
	first  float64
	last   float64
}

// Summarize computes the summary for a closed log. Numeric fields present in
// at least one observation get min/max/mean/median/stddev and the requested
// percentiles. Fields named in depleting are treated as monotonically
// draining resources and additionally get a start-to-end drain plus a
// per-hour rate normalized by the run's total elapsed time. An empty log
// yields an empty summary.
func Summarize(rows []observe.Observation, depleting []string, percentiles []int) (observe.Summary, error) {
	summary := observe.Summary{}
	if len(rows) == 0 {
		return summary, nil
	}
	if len(percentiles) == 0 {
		percentiles = DefaultPercentiles
	}
	for _, p := range percentiles {
		if p < 0 || p > 100 {
			return nil, fmt.Errorf("percentile out of range: %d", p)
		}
	}

	fields := map[string]*series{}
	for _, row := range rows {
		for name, v := range row.Fields {
			n, ok := observe.Number(v)
			if !ok {
				continue
			}
			s, ok := fields[name]
			if !ok {
				s = &series{first: n}
				fields[name] = s
			}
			s.values = append(s.values, n)
			s.last = n
		}
	}

	for name, s := range fields {
		summary[name+"_min"] = Min(s.values)
		summary[name+"_max"] = Max(s.values)
		summary[name+"_mean"] = Mean(s.values)
		summary[name+"_median"] = Median(s.values)
		summary[name+"_stddev"] = StdDev(s.values)
		for _, p := range percentiles {
			v, err := Percentile(s.values, float64(p))
			if err != nil {
				return nil, err
			}
			summary[fmt.Sprintf("%s_p%d", name, p)] = v
		}
	}

	elapsed := rows[len(rows)-1].Elapsed
	for _, name := range depleting {
		s, ok := fields[name]
		if !ok {
			continue
		}
		drain := s.first - s.last
		summary[name+"_drain"] = drain
		if elapsed > 0 {
			summary[name+"_drain_per_hour"] = drain * 3600 / elapsed
		}
	}

	return summary, nil
}
