package booking

import "fmt"

// Priority affects only how fast the simulated approvers respond.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid returns true if p is a recognized priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// IsUrgent reports whether the booking takes the fast approval track.
func (p Priority) IsUrgent() bool { return p == PriorityUrgent }

// ParsePriority converts a string to a Priority. Empty means normal.
func ParsePriority(s string) (Priority, error) {
	if s == "" {
		return PriorityNormal, nil
	}
	p := Priority(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid priority: %s", s)
	}
	return p, nil
}

// MeetingType is how attendees join the meeting.
type MeetingType string

const (
	MeetingPhysical MeetingType = "Physical"
	MeetingVirtual  MeetingType = "Virtual"
	MeetingHybrid   MeetingType = "Hybrid"
)

// IsValid returns true if m is a recognized meeting type.
func (m MeetingType) IsValid() bool {
	switch m {
	case MeetingPhysical, MeetingVirtual, MeetingHybrid:
		return true
	}
	return false
}
