package probe

import (
	"context"

	"github.com/shirou/gopsutil/v4/cpu"

	"webqa-probe/internal/observe"
)

// CPUProbe samples total CPU utilization.
type CPUProbe struct{}

func (p *CPUProbe) Name() string { return "cpu" }

func (p *CPUProbe) Available() bool { return true }

// Sample reports utilization since the previous call; the first sample of
// a run covers process start to that point.
func (p *CPUProbe) Sample(ctx context.Context) (observe.Fields, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return nil, err
	}
	if len(percents) == 0 {
		return observe.Fields{}, nil
	}
	return observe.Fields{"cpu_percent": percents[0]}, nil
}
