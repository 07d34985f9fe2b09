package probe

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v4/load"

	"webqa-probe/internal/observe"
)

// LoadProbe samples the one-minute load average. Not a default family;
// plans opt in on hosts where it means something.
type LoadProbe struct{}

func (p *LoadProbe) Name() string { return "load" }

// Windows has no load average.
func (p *LoadProbe) Available() bool { return runtime.GOOS != "windows" }

func (p *LoadProbe) Sample(ctx context.Context) (observe.Fields, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return observe.Fields{"load_1m": avg.Load1}, nil
}
