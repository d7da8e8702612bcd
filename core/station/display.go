package station

import (
	"fmt"
	"time"
)

// Display receives everything the controller wants shown to the operator.
// Implementations must not call back into the Controller: they run while
// the controller holds its lock.
type Display interface {
	RenderActiveBattery(pct int)
	RenderHubBattery(pct int)
	// AppendHistorySample pushes the newest active battery sample to the trend view.
	AppendHistorySample(pct int)
	// LogEvent appends a line to the operator event log.
	LogEvent(msg string)
	SetStatusText(label string, sev Severity)
	// PlayFaultAlert is best effort; an error never changes station state.
	PlayFaultAlert() error
}

// BatteryStatusRenderer is implemented by displays showing the battery
// status and health readouts.
type BatteryStatusRenderer interface {
	RenderBatteryStatus(status BatteryStatus, health Health)
}

// FeedbackRenderer is implemented by displays with an operator feedback line.
type FeedbackRenderer interface {
	SetFeedback(msg string)
}

// NopDisplay discards all output.
type NopDisplay struct{}

func (NopDisplay) RenderActiveBattery(int)                   {}
func (NopDisplay) RenderHubBattery(int)                      {}
func (NopDisplay) AppendHistorySample(int)                   {}
func (NopDisplay) LogEvent(string)                           {}
func (NopDisplay) SetStatusText(string, Severity)            {}
func (NopDisplay) PlayFaultAlert() error                     { return nil }
func (NopDisplay) RenderBatteryStatus(BatteryStatus, Health) {}
func (NopDisplay) SetFeedback(string)                        {}

// ClockTime formats t as HH:MM:SS on a 24-hour clock.
func ClockTime(t time.Time) string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}
