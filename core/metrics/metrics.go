package metrics

import "time"

// StationSample is a point-in-time reading of a station.
type StationSample struct {
	StationID      string
	ActivePct      int
	HubPct         int
	Mode           string
	SwapInProgress bool
	Depleting      bool
	Charging       bool
	Homing         bool
	HasError       bool
	TotalSwaps     int
	Time           time.Time
}

// Sink records station samples.
type Sink interface {
	RecordStationSample(s StationSample) error
}

// SwapEvent describes a finished swap attempt. Outcome is "completed" or
// "fault".
type SwapEvent struct {
	StationID string
	SwapID    string
	Path      string
	Outcome   string
	Duration  time.Duration
	Time      time.Time
}

// SwapRecorder records swap outcomes.
type SwapRecorder interface {
	RecordSwap(ev SwapEvent) error
}

// FaultEvent is a latched simulated fault.
type FaultEvent struct {
	StationID string
	SwapID    string
	Kind      string
	Time      time.Time
}

// FaultRecorder records faults.
type FaultRecorder interface {
	RecordFault(ev FaultEvent) error
}

// ActionEvent is an operator trigger and whether the controller accepted it.
type ActionEvent struct {
	StationID string
	Action    string
	Source    string
	Accepted  bool
	Error     string
	Time      time.Time
}

// ActionRecorder records operator actions.
type ActionRecorder interface {
	RecordAction(ev ActionEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordStationSample(StationSample) error { return nil }
func (NopSink) RecordSwap(SwapEvent) error              { return nil }
func (NopSink) RecordFault(FaultEvent) error            { return nil }
func (NopSink) RecordAction(ActionEvent) error          { return nil }
