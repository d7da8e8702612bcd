package station

import (
	"fmt"
	"strings"
	"time"
)

// Mode is the operator-selected swap override.
type Mode int

const (
	ModeNormal Mode = iota
	ModeManual
	ModeAlignment
)

func (m Mode) String() string {
	switch m {
	case ModeManual:
		return "manual"
	case ModeAlignment:
		return "alignment"
	default:
		return "normal"
	}
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(b []byte) error {
	return decodeName(m, "mode", b, ModeNormal, ModeManual, ModeAlignment)
}

// FaultKind identifies a simulated swap fault.
type FaultKind int

const (
	FaultNone FaultKind = iota
	FaultAlignment
	FaultCharging
)

func (f FaultKind) String() string {
	switch f {
	case FaultAlignment:
		return "alignment"
	case FaultCharging:
		return "charging"
	default:
		return "none"
	}
}

func (f FaultKind) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *FaultKind) UnmarshalText(b []byte) error {
	return decodeName(f, "fault kind", b, FaultNone, FaultAlignment, FaultCharging)
}

// Severity grades the status indicator.
type Severity int

const (
	SeverityNeutral Severity = iota
	SeverityWarning
	SeverityDanger
	SeveritySuccess
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityDanger:
		return "danger"
	case SeveritySuccess:
		return "success"
	default:
		return "neutral"
	}
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Severity) UnmarshalText(b []byte) error {
	return decodeName(s, "severity", b, SeverityNeutral, SeverityWarning, SeverityDanger, SeveritySuccess)
}

// BatteryStatus is the readout shown next to the AGV battery gauge.
type BatteryStatus int

const (
	BatteryNotConnected BatteryStatus = iota
	BatteryFullyCharged
	BatteryInUse
	BatteryCritical
	BatteryDocked
	BatteryAlignmentError
	BatteryChargingError
)

func (b BatteryStatus) String() string {
	switch b {
	case BatteryFullyCharged:
		return "Fully Charged"
	case BatteryInUse:
		return "In Use"
	case BatteryCritical:
		return "Critical"
	case BatteryDocked:
		return "Docked"
	case BatteryAlignmentError:
		return "Alignment Error"
	case BatteryChargingError:
		return "Charging Error"
	default:
		return "Not Connected"
	}
}

func (b BatteryStatus) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *BatteryStatus) UnmarshalText(text []byte) error {
	return decodeName(b, "battery status", text,
		BatteryNotConnected, BatteryFullyCharged, BatteryInUse, BatteryCritical,
		BatteryDocked, BatteryAlignmentError, BatteryChargingError)
}

// Health is the battery health readout.
type Health int

const (
	HealthGood Health = iota
	HealthCheckRequired
)

func (h Health) String() string {
	if h == HealthCheckRequired {
		return "Check Required"
	}
	return "Good"
}

func (h Health) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Health) UnmarshalText(b []byte) error {
	return decodeName(h, "health", b, HealthGood, HealthCheckRequired)
}

// decodeName sets *dst to the value whose String matches text, ignoring
// case.
func decodeName[T fmt.Stringer](dst *T, kind string, text []byte, values ...T) error {
	for _, v := range values {
		if strings.EqualFold(v.String(), string(text)) {
			*dst = v
			return nil
		}
	}
	return fmt.Errorf("unknown %s %q", kind, text)
}

// state is the mutable aggregate owned by the Controller.
type state struct {
	activePct          int
	hubPct             int
	mode               Mode
	swapInProgress     bool
	depleting          bool
	charging           bool
	homing             bool
	docked             bool
	hasError           bool
	lastError          FaultKind
	firstSwapCompleted bool
	totalSwaps         int
	lastSwap           time.Time
	history            *History
	battery            BatteryStatus
	health             Health
	statusLabel        string
	statusSeverity     Severity
	feedback           string
}

// Snapshot is a read-only copy of the station state.
type Snapshot struct {
	StationID          string        `json:"station_id"`
	ActivePct          int           `json:"active_pct"`
	HubPct             int           `json:"hub_pct"`
	Mode               Mode          `json:"mode"`
	SwapInProgress     bool          `json:"swap_in_progress"`
	Depleting          bool          `json:"depleting"`
	Charging           bool          `json:"charging"`
	Homing             bool          `json:"homing"`
	Docked             bool          `json:"docked"`
	HasError           bool          `json:"has_error"`
	LastError          FaultKind     `json:"last_error"`
	FirstSwapCompleted bool          `json:"first_swap_completed"`
	TotalSwaps         int           `json:"total_swaps"`
	LastSwap           time.Time     `json:"last_swap,omitempty"`
	History            []int         `json:"history"`
	BatteryType        string        `json:"battery_type"`
	BatteryVoltage     string        `json:"battery_voltage"`
	BatteryStatus      BatteryStatus `json:"battery_status"`
	Health             Health        `json:"health"`
	StatusLabel        string        `json:"status_label"`
	StatusSeverity     Severity      `json:"status_severity"`
	Feedback           string        `json:"feedback"`
	Uptime             time.Duration `json:"uptime_ns"`
	Time               time.Time     `json:"time"`
}

// CanInitiateSwap reports whether a swap request would be accepted.
func (s Snapshot) CanInitiateSwap() bool {
	return !s.SwapInProgress && !s.HasError
}

// CanEmergencyStop reports whether an emergency stop would have any effect.
func (s Snapshot) CanEmergencyStop() bool {
	return s.HasError || s.Charging || s.SwapInProgress
}
