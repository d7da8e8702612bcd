package station

import (
	"fmt"
	"strings"
)

// Action is a named operator trigger.
type Action string

const (
	ActionInitiateSwap          Action = "initiate_swap"
	ActionEmergencyStop         Action = "emergency_stop"
	ActionReset                 Action = "reset"
	ActionActivateManualMode    Action = "activate_manual_mode"
	ActionActivateAlignmentMode Action = "activate_alignment_mode"
	ActionStartHoming           Action = "start_homing"
)

// Actions lists every operator trigger.
var Actions = []Action{
	ActionInitiateSwap,
	ActionEmergencyStop,
	ActionReset,
	ActionActivateManualMode,
	ActionActivateAlignmentMode,
	ActionStartHoming,
}

// ParseAction maps a name such as "initiate_swap" or "initiate-swap" to an
// Action.
func ParseAction(name string) (Action, error) {
	n := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for _, a := range Actions {
		if string(a) == n {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

// Apply runs the operator trigger a.
func (c *Controller) Apply(a Action) error {
	switch a {
	case ActionInitiateSwap:
		return c.InitiateSwap()
	case ActionEmergencyStop:
		return c.EmergencyStop()
	case ActionReset:
		c.Reset()
		return nil
	case ActionActivateManualMode:
		c.ActivateManualMode()
		return nil
	case ActionActivateAlignmentMode:
		c.ActivateAlignmentMode()
		return nil
	case ActionStartHoming:
		return c.StartHoming()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, string(a))
	}
}
