package chat

import "time"

// EventKind names a coordinator transition
type EventKind int

const (
	EventSubmitted EventKind = iota
	EventSettled
	EventRejected
)

func (k EventKind) String() string {
	switch k {
	case EventSubmitted:
		return "submitted"
	case EventSettled:
		return "settled"
	case EventRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Event describes one transition. Err is the rejection reason for
// EventRejected and the gateway failure (if any) for EventSettled.
type Event struct {
	Kind    EventKind
	Ticket  Ticket
	Query   string
	Err     error
	Elapsed time.Duration
}

// Observer receives coordinator events on the goroutine that caused them
type Observer func(Event)
