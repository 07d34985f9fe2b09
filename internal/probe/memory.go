package probe

import (
	"context"

	"github.com/shirou/gopsutil/v4/mem"

	"webqa-probe/internal/observe"
)

// MemoryProbe samples system memory usage.
type MemoryProbe struct{}

func (p *MemoryProbe) Name() string { return "memory" }

func (p *MemoryProbe) Available() bool { return true }

func (p *MemoryProbe) Sample(ctx context.Context) (observe.Fields, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}
	return observe.Fields{
		"memory_percent": vm.UsedPercent,
		"memory_used_mb": float64(vm.Used) / (1 << 20),
	}, nil
}
