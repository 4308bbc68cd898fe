package reminders

import (
	"errors"
	"fmt"
)

// Status is the delivery state of a reminder.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// ErrInvalidTransition is returned when a status change does not follow a
// valid edge of the dispatch state machine.
var ErrInvalidTransition = errors.New("reminders: invalid status transition")

// ErrAlreadySubmitted is returned when a submission races another submitter
// or targets a reminder that already left pending.
var ErrAlreadySubmitted = errors.New("reminders: reminder already submitted")

// ErrNotFound is returned when no reminder matches the given identifier.
var ErrNotFound = errors.New("reminders: reminder not found")

// validEdges is the full dispatch state machine:
//
//	pending → sent | failed | cancelled
//	sent    → delivered | failed
//
// delivered, failed and cancelled are terminal.
var validEdges = map[Status][]Status{
	StatusPending: {StatusSent, StatusFailed, StatusCancelled},
	StatusSent:    {StatusDelivered, StatusFailed},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusDelivered, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s has no outgoing edges.
func (s Status) Terminal() bool {
	switch s {
	case StatusDelivered, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether from → to is a valid edge.
func CanTransition(from, to Status) bool {
	for _, next := range validEdges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns ErrInvalidTransition when from → to is not a valid
// edge, annotated with both states.
func CheckTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
	}
	return nil
}
