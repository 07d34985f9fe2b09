// YAML plan loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Suite kinds.
const (
	KindPerf   = "perf"
	KindAPI    = "api"
	KindBrowse = "browse"
)

// Defaults applied by Validate when a suite leaves the field unset.
const (
	DefaultRequests        = 10
	DefaultRetries         = 3
	DefaultDelay           = Duration(500 * time.Millisecond)
	DefaultDelayLow        = Duration(1 * time.Second)
	DefaultDelayHigh       = Duration(3 * time.Second)
	DefaultMonitorInterval = Duration(5 * time.Second)
)

// Duration parses YAML strings like "500ms" or "2m" into a time.Duration.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Monitor configures the background resource sampler of a suite.
type Monitor struct {
	Families []string `yaml:"families"`
	Interval Duration `yaml:"interval"`
}

// Suite describes one run within a plan. The kind fixes the termination
// mode: perf and api count attempts, browse runs against a deadline.
type Suite struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"`
	Target string `yaml:"target"`
	Path   string `yaml:"path"`

	Requests int      `yaml:"requests"`
	Passes   int      `yaml:"passes"`
	Duration Duration `yaml:"duration"`

	Delay     Duration `yaml:"delay"`
	DelayLow  Duration `yaml:"delay_low"`
	DelayHigh Duration `yaml:"delay_high"`

	// Retries bounds retries of a transient tick failure. Omitted picks
	// DefaultRetries; an explicit 0 disables retrying.
	Retries *int `yaml:"retries"`

	Seed        int64    `yaml:"seed"`
	ChecksFile  string   `yaml:"checks_file"`
	Depleting   []string `yaml:"depleting"`
	Percentiles []int    `yaml:"percentiles"`
	Monitor     Monitor  `yaml:"monitor"`
}

// RetryCount resolves the retry budget, applying the default when the plan
// left it unset.
func (s *Suite) RetryCount() int {
	if s.Retries != nil {
		return *s.Retries
	}
	return DefaultRetries
}

// Validate fills kind defaults and rejects structurally broken suites.
// Termination and interval semantics are checked again by the run setup.
func (s *Suite) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("suite without a name")
	}
	switch s.Kind {
	case KindPerf:
		if s.Path == "" {
			s.Path = "/"
		}
		if s.Requests <= 0 {
			s.Requests = DefaultRequests
		}
		if s.Delay == 0 && s.DelayLow == 0 && s.DelayHigh == 0 {
			s.Delay = DefaultDelay
		}
	case KindAPI:
		if s.ChecksFile == "" {
			return fmt.Errorf("suite %q: api suites need a checks_file", s.Name)
		}
		if s.Passes <= 0 {
			s.Passes = 1
		}
	case KindBrowse:
		if s.Duration <= 0 {
			return fmt.Errorf("suite %q: browse suites need a duration", s.Name)
		}
		if s.Delay == 0 && s.DelayLow == 0 && s.DelayHigh == 0 {
			s.DelayLow = DefaultDelayLow
			s.DelayHigh = DefaultDelayHigh
		}
	default:
		return fmt.Errorf("suite %q: unknown kind %q", s.Name, s.Kind)
	}
	if s.Target == "" {
		return fmt.Errorf("suite %q: target URL required", s.Name)
	}
	if s.Retries != nil && *s.Retries < 0 {
		return fmt.Errorf("suite %q: retries must not be negative", s.Name)
	}
	if len(s.Monitor.Families) > 0 && s.Monitor.Interval == 0 {
		s.Monitor.Interval = DefaultMonitorInterval
	}
	return nil
}

// Plan is the root configuration: output location plus the suites to run,
// in order.
type Plan struct {
	ReportsDir string  `yaml:"reports_dir"`
	Suites     []Suite `yaml:"suites"`
}

// Validate checks the plan and every suite in it.
func (p *Plan) Validate() error {
	if p.ReportsDir == "" {
		p.ReportsDir = "reports"
	}
	if len(p.Suites) == 0 {
		return fmt.Errorf("plan defines no suites")
	}
	seen := make(map[string]bool, len(p.Suites))
	for i := range p.Suites {
		if err := p.Suites[i].Validate(); err != nil {
			return err
		}
		name := p.Suites[i].Name
		if seen[name] {
			return fmt.Errorf("duplicate suite name %q", name)
		}
		seen[name] = true
	}
	return nil
}

// Load loads a YAML plan and validates it against a CUE schema.
func Load(planPath, cueSchemaPath string) (*Plan, error) {
	// Validate with CUE first
	if err := ValidateWithCue(planPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(planPath)
	if err != nil {
		return nil, err
	}
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}
