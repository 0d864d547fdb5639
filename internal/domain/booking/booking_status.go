package booking

import "fmt"

// Status represents the overall state of a booking in its lifecycle.
type Status string

const (
	StatusNone      Status = "NONE"
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// validTransitions defines the state machine for booking status transitions.
// APPROVED may still be cancelled; REJECTED and CANCELLED are closed.
var validTransitions = map[Status][]Status{
	StatusNone:      {StatusPending},
	StatusPending:   {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusCancelled},
	StatusRejected:  {},
	StatusCancelled: {},
}

// IsValid returns true if the status is a recognized booking status.
func (s Status) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s Status) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true once the approval outcome is settled.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// IsActive returns true if a booking in this status occupies the single booking slot.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusApproved
}

// CanBeCancelled returns true if the booking can be cancelled from this status.
func (s Status) CanBeCancelled() bool {
	return s.CanTransitionTo(StatusCancelled)
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a string to a Status, returning an error if invalid.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}
