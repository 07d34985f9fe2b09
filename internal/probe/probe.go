// Package probe provides host resource samplers for the background
// monitor: CPU, memory, load average, and battery charge.
package probe

import (
	"fmt"

	"webqa-probe/internal/harness"
)

// Probe is a harness.Sampler with an availability check. A family whose
// backing source is missing on this host reports unavailable and is
// omitted from the run instead of failing it.
type Probe interface {
	harness.Sampler
	Available() bool
}

// DefaultFamilies are monitored when a plan does not name any.
var DefaultFamilies = []string{"cpu", "memory", "battery"}

// Families returns all known probe families keyed by name.
func Families() map[string]Probe {
	return map[string]Probe{
		"cpu":     &CPUProbe{},
		"memory":  &MemoryProbe{},
		"load":    &LoadProbe{},
		"battery": &BatteryProbe{},
	}
}

// Resolve maps family names to available samplers. Unknown names are an
// error; known but unavailable families land in missing so the caller can
// warn once and move on.
func Resolve(names []string) (samplers []harness.Sampler, missing []string, err error) {
	all := Families()
	for _, name := range names {
		p, ok := all[name]
		if !ok {
			return nil, nil, fmt.Errorf("unknown probe family %q", name)
		}
		if !p.Available() {
			missing = append(missing, name)
			continue
		}
		samplers = append(samplers, p)
	}
	return samplers, missing, nil
}
