package scheduler

import (
	"errors"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/campus-venues/service-booking/internal/domain/booking"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TimerScheduler approves stages after priority-dependent delays.
// gd and ds are armed together; admin is armed once both have been approved.
type TimerScheduler struct {
	clock   clock.Clock
	timings Timings
	logger  *zap.Logger

	mu   sync.Mutex
	runs map[uuid.UUID]*run
}

// NewTimerScheduler creates a TimerScheduler.
func NewTimerScheduler(c clock.Clock, timings Timings, logger *zap.Logger) *TimerScheduler {
	return &TimerScheduler{
		clock:   c,
		timings: timings,
		logger:  logger,
		runs:    make(map[uuid.UUID]*run),
	}
}

type run struct {
	s         *TimerScheduler
	bookingID uuid.UUID
	delays    StageDelays
	apply     ApplyFunc

	mu      sync.Mutex
	stopped bool
	armed   map[booking.Stage]bool
	timers  map[booking.Stage]*clock.Timer
}

func (r *run) BookingID() uuid.UUID { return r.bookingID }

// Schedule implements Scheduler.
func (s *TimerScheduler) Schedule(b *booking.Booking, apply ApplyFunc) Handle {
	r := &run{
		s:         s,
		bookingID: b.ID(),
		delays:    s.timings.For(b.Priority()),
		apply:     apply,
		armed:     make(map[booking.Stage]bool),
		timers:    make(map[booking.Stage]*clock.Timer),
	}

	s.mu.Lock()
	for id, stale := range s.runs {
		stale.stop()
		delete(s.runs, id)
		s.logger.Debug("stale approval run cancelled", zap.String("booking_id", id.String()))
	}
	s.runs[r.bookingID] = r
	s.mu.Unlock()

	if b.Status() != booking.StatusPending {
		s.finish(r)
		return r
	}

	a := b.Approvals()
	if a.GD.Status == booking.StagePending {
		r.arm(booking.StageGroupDirector)
	}
	if a.DS.Status == booking.StagePending {
		r.arm(booking.StageDirectorSecretary)
	}
	if a.PrerequisitesApproved() && a.Admin.Status == booking.StagePending {
		r.arm(booking.StageAdministration)
	}

	s.logger.Info("approval run scheduled",
		zap.String("booking_id", r.bookingID.String()),
		zap.String("priority", string(b.Priority())),
	)
	return r
}

// Cancel implements Scheduler.
func (s *TimerScheduler) Cancel(h Handle) {
	r, ok := h.(*run)
	if !ok || r == nil {
		return
	}
	r.stop()
	s.finish(r)
}

// Active returns the number of runs that still have work to do.
func (s *TimerScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

// Armed returns the number of stage timers waiting to fire across all runs.
func (s *TimerScheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.runs {
		r.mu.Lock()
		n += len(r.timers)
		r.mu.Unlock()
	}
	return n
}

func (s *TimerScheduler) finish(r *run) {
	s.mu.Lock()
	if s.runs[r.bookingID] == r {
		delete(s.runs, r.bookingID)
	}
	s.mu.Unlock()
}

func (r *run) arm(stage booking.Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || r.armed[stage] {
		return
	}
	r.armed[stage] = true
	r.timers[stage] = r.s.clock.AfterFunc(r.delays.Of(stage), func() { r.fire(stage) })
}

func (r *run) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	for stage, t := range r.timers {
		t.Stop()
		delete(r.timers, stage)
	}
}

// fire runs without holding r.mu while calling apply, since apply takes the
// lifecycle lock and Cancel may hold that lock while stopping this run.
func (r *run) fire(stage booking.Stage) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	delete(r.timers, stage)
	r.mu.Unlock()

	approvals, err := r.apply(r.bookingID, booking.StageDecision{
		Stage:   stage,
		Outcome: booking.StageApproved,
		Note:    approvalNotes[stage],
	})
	if errors.Is(err, booking.ErrStageResolved) {
		// Decided by someone else first; keep driving the remaining stages.
		err = nil
	}
	if err != nil {
		r.s.logger.Debug("scheduled stage outcome discarded",
			zap.String("booking_id", r.bookingID.String()),
			zap.String("stage", string(stage)),
			zap.Error(err),
		)
		r.stop()
		r.s.finish(r)
		return
	}

	switch {
	case approvals.AnyRejected() || approvals.AllApproved():
		r.stop()
		r.s.finish(r)
	case approvals.PrerequisitesApproved() && approvals.Admin.Status == booking.StagePending:
		r.arm(booking.StageAdministration)
	}
}
