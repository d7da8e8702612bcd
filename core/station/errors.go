package station

import "errors"

var (
	// ErrSwapInProgress is returned when an operation needs the swap bay idle.
	ErrSwapInProgress = errors.New("swap already in progress")
	// ErrFaultActive is returned when a latched fault blocks swap initiation.
	// A fault only latches during a swap, so InitiateSwap reports
	// ErrSwapInProgress first; this check covers a fault left without one.
	ErrFaultActive = errors.New("fault active, recovery required")
	// ErrNothingToStop is returned by EmergencyStop when nothing is running.
	ErrNothingToStop = errors.New("nothing to stop")
	// ErrAlreadyHoming is returned when homing is requested twice.
	ErrAlreadyHoming = errors.New("homing already in progress")
	// ErrUnknownAction is returned for unrecognised operator action names.
	ErrUnknownAction = errors.New("unknown action")
)
