package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/swapstation/core/station"
)

// Expect lists the snapshot fields a step checks. Unset fields are ignored.
type Expect struct {
	ActivePct      *int    `yaml:"active_pct"`
	ActivePctRange []int   `yaml:"active_pct_range"`
	HubPct         *int    `yaml:"hub_pct"`
	Mode           *string `yaml:"mode"`
	SwapInProgress *bool   `yaml:"swap_in_progress"`
	Depleting      *bool   `yaml:"depleting"`
	Charging       *bool   `yaml:"charging"`
	Homing         *bool   `yaml:"homing"`
	Docked         *bool   `yaml:"docked"`
	HasError       *bool   `yaml:"has_error"`
	LastError      *string `yaml:"last_error"`
	TotalSwaps     *int    `yaml:"total_swaps"`
	Status         *string `yaml:"status"`
	BatteryStatus  *string `yaml:"battery_status"`
	Health         *string `yaml:"health"`
	Feedback       *string `yaml:"feedback"`
	// LogContains must match one line of the operator event log.
	LogContains string `yaml:"log_contains"`
}

// Step moves the clock, optionally triggers an action and checks the
// result. At is measured from the scenario start, After from the previous
// step; a step with neither runs at the current time.
type Step struct {
	At     *time.Duration `yaml:"at"`
	After  time.Duration  `yaml:"after"`
	Action string         `yaml:"action"`
	// Error is a substring the action error must contain. Empty means the
	// action must succeed.
	Error  string  `yaml:"error"`
	Expect *Expect `yaml:"expect"`
}

// Scenario is a scripted operator session.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Station     station.Config `yaml:"station"`
	// Coin fixes every fault draw to this value; below 0.5 is an alignment
	// fault. Nil uses a source seeded from station.seed.
	Coin  *float64 `yaml:"coin"`
	Steps []Step   `yaml:"steps"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &sc, nil
}

// Validate checks step ordering and action names.
func (s Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	var last time.Duration
	for i, st := range s.Steps {
		if st.At != nil && st.After != 0 {
			return fmt.Errorf("step %d: at and after are exclusive", i+1)
		}
		if st.At != nil {
			if *st.At < last {
				return fmt.Errorf("step %d: at %s is before the previous step", i+1, *st.At)
			}
			last = *st.At
		} else {
			if st.After < 0 {
				return fmt.Errorf("step %d: negative after", i+1)
			}
			last += st.After
		}
		if st.Action != "" {
			if _, err := station.ParseAction(st.Action); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		if st.Expect != nil && st.Expect.ActivePctRange != nil && len(st.Expect.ActivePctRange) != 2 {
			return fmt.Errorf("step %d: active_pct_range needs two bounds", i+1)
		}
	}
	return nil
}
