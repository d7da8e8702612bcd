package station

import (
	"fmt"
	"time"
)

// Config defines the simulation parameters of a station. Zero values are
// replaced by SetDefaults.
type Config struct {
	ID             string `json:"id" yaml:"id"`
	Seed           int64  `json:"seed" yaml:"seed"`
	BatteryType    string `json:"battery_type" yaml:"battery_type"`
	BatteryVoltage string `json:"battery_voltage" yaml:"battery_voltage"`

	InitialActivePct int `json:"initial_active_pct" yaml:"initial_active_pct"`
	ResetActivePct   int `json:"reset_active_pct" yaml:"reset_active_pct"`
	FirstSwapHubPct  int `json:"first_swap_hub_pct" yaml:"first_swap_hub_pct"`
	FloorPct         int `json:"floor_pct" yaml:"floor_pct"`
	LowBatteryPct    int `json:"low_battery_pct" yaml:"low_battery_pct"`
	HomingTargetPct  int `json:"homing_target_pct" yaml:"homing_target_pct"`
	ChargeStepPct    int `json:"charge_step_pct" yaml:"charge_step_pct"`
	HistorySize      int `json:"history_size" yaml:"history_size"`

	SlowDepletionMS  int `json:"slow_depletion_ms" yaml:"slow_depletion_ms"`
	FastDepletionMS  int `json:"fast_depletion_ms" yaml:"fast_depletion_ms"`
	HomingTickMS     int `json:"homing_tick_ms" yaml:"homing_tick_ms"`
	StandardChargeMS int `json:"standard_charge_ms" yaml:"standard_charge_ms"`
	ManualChargeMS   int `json:"manual_charge_ms" yaml:"manual_charge_ms"`
	StandbyDelayMS   int `json:"standby_delay_ms" yaml:"standby_delay_ms"`
}

// DefaultConfig returns the station parameters of the reference hub.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.ID == "" {
		c.ID = "bmh-1"
	}
	if c.BatteryType == "" {
		c.BatteryType = "18650 Li-ion 3S"
	}
	if c.BatteryVoltage == "" {
		c.BatteryVoltage = "12.4V"
	}
	setInt(&c.InitialActivePct, 35)
	setInt(&c.ResetActivePct, 30)
	setInt(&c.FirstSwapHubPct, 30)
	setInt(&c.FloorPct, 5)
	setInt(&c.LowBatteryPct, 20)
	setInt(&c.HomingTargetPct, 30)
	setInt(&c.ChargeStepPct, 2)
	setInt(&c.HistorySize, 40)
	setInt(&c.SlowDepletionMS, 2000)
	setInt(&c.FastDepletionMS, 1000)
	setInt(&c.HomingTickMS, 1000)
	setInt(&c.StandardChargeMS, 5000)
	setInt(&c.ManualChargeMS, 3000)
	setInt(&c.StandbyDelayMS, 3000)
}

func setInt(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	pcts := map[string]int{
		"initial_active_pct": c.InitialActivePct,
		"reset_active_pct":   c.ResetActivePct,
		"first_swap_hub_pct": c.FirstSwapHubPct,
		"floor_pct":          c.FloorPct,
		"low_battery_pct":    c.LowBatteryPct,
		"homing_target_pct":  c.HomingTargetPct,
	}
	for name, v := range pcts {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s must be within [0,100], got %d", name, v)
		}
	}
	if c.ChargeStepPct <= 0 {
		return fmt.Errorf("charge_step_pct must be positive")
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("history_size must be positive")
	}
	if c.HomingTargetPct < c.FloorPct {
		return fmt.Errorf("homing_target_pct %d below floor_pct %d", c.HomingTargetPct, c.FloorPct)
	}
	for name, v := range map[string]int{
		"slow_depletion_ms":  c.SlowDepletionMS,
		"fast_depletion_ms":  c.FastDepletionMS,
		"homing_tick_ms":     c.HomingTickMS,
		"standard_charge_ms": c.StandardChargeMS,
		"manual_charge_ms":   c.ManualChargeMS,
		"standby_delay_ms":   c.StandbyDelayMS,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// DepletionPeriod returns the tick period of the depletion ramp. The AGV
// draws twice the power once it carries a swapped battery.
func (c Config) DepletionPeriod(firstSwapCompleted bool) time.Duration {
	if firstSwapCompleted {
		return ms(c.FastDepletionMS)
	}
	return ms(c.SlowDepletionMS)
}
