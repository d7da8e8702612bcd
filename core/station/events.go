package station

import (
	"time"

	"github.com/google/uuid"
)

// EventKind classifies controller events.
type EventKind string

const (
	EventState           EventKind = "state"
	EventSwapStarted     EventKind = "swap_started"
	EventSwapCompleted   EventKind = "swap_completed"
	EventFault           EventKind = "fault"
	EventRecovered       EventKind = "recovered"
	EventEmergencyStop   EventKind = "emergency_stop"
	EventReset           EventKind = "reset"
	EventHomingCompleted EventKind = "homing_completed"
	EventCritical        EventKind = "critical"
)

// Event is published after every state mutation.
type Event struct {
	ID       string    `json:"id"`
	Kind     EventKind `json:"kind"`
	Time     time.Time `json:"time"`
	SwapID   string    `json:"swap_id,omitempty"`
	Path     SwapPath  `json:"path,omitempty"`
	Fault    FaultKind `json:"fault,omitempty"`
	Message  string    `json:"message,omitempty"`
	Snapshot Snapshot  `json:"snapshot"`
}

// Publisher receives controller events. Publish must not block.
type Publisher interface {
	Publish(Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Event)

func (f PublisherFunc) Publish(e Event) { f(e) }

func newEventID() string { return uuid.NewString() }
