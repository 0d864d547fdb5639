// Package scheduler drives approval stages for a booking. The timer
// implementation stands in for human approvers; Manual leaves every decision
// to callers arriving through the API or the approvals topic.
package scheduler

import (
	"time"

	"github.com/campus-venues/service-booking/internal/domain/booking"
	"github.com/google/uuid"
)

// ApplyFunc applies a decision to the booking identified by bookingID and
// returns the approvals after the change. When the stage was already decided
// it returns the current approvals together with booking.ErrStageResolved;
// any other error means the decision was discarded and the run should stop.
type ApplyFunc func(bookingID uuid.UUID, d booking.StageDecision) (booking.Approvals, error)

// Handle identifies a scheduled run.
type Handle interface {
	BookingID() uuid.UUID
}

// Scheduler starts and cancels approval runs.
type Scheduler interface {
	// Schedule arms the stages of b that are still open. Any run for a
	// different booking is cancelled first.
	Schedule(b *booking.Booking, apply ApplyFunc) Handle

	// Cancel stops all pending stages of the run. Cancelling a nil, finished
	// or already cancelled handle is a no-op.
	Cancel(h Handle)
}

// StageDelays are the simulated response times of each approver.
// Admin is measured from the moment gd and ds have both cleared.
type StageDelays struct {
	GD    time.Duration
	DS    time.Duration
	Admin time.Duration
}

// Timings selects stage delays by priority.
type Timings struct {
	Urgent   StageDelays
	Standard StageDelays
}

// DefaultTimings returns 1s/2s/1s for urgent bookings and 2s/4s/2s otherwise.
func DefaultTimings() Timings {
	return Timings{
		Urgent:   StageDelays{GD: 1 * time.Second, DS: 2 * time.Second, Admin: 1 * time.Second},
		Standard: StageDelays{GD: 2 * time.Second, DS: 4 * time.Second, Admin: 2 * time.Second},
	}
}

// For returns the delays used for priority p.
func (t Timings) For(p booking.Priority) StageDelays {
	if p.IsUrgent() {
		return t.Urgent
	}
	return t.Standard
}

// Of returns the delay for stage.
func (d StageDelays) Of(stage booking.Stage) time.Duration {
	switch stage {
	case booking.StageGroupDirector:
		return d.GD
	case booking.StageDirectorSecretary:
		return d.DS
	default:
		return d.Admin
	}
}

// approvalNotes are the notes the simulated approvers leave.
var approvalNotes = map[booking.Stage]string{
	booking.StageGroupDirector:     "Equipment setup confirmed by Group Director",
	booking.StageDirectorSecretary: "Meeting agenda distributed by Director Secretary",
	booking.StageAdministration:    "Final confirmation completed by Administration",
}

// Manual never decides anything on its own.
type Manual struct{}

type manualHandle uuid.UUID

func (h manualHandle) BookingID() uuid.UUID { return uuid.UUID(h) }

// Schedule implements Scheduler.
func (Manual) Schedule(b *booking.Booking, _ ApplyFunc) Handle { return manualHandle(b.ID()) }

// Cancel implements Scheduler.
func (Manual) Cancel(Handle) {}
