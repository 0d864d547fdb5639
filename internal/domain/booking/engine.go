package booking

import "time"

// DeriveStatus computes the overall status from the three stage statuses.
// Rejection takes precedence over approvals.
func DeriveStatus(a Approvals) Status {
	switch {
	case a.AnyRejected():
		return StatusRejected
	case a.AllApproved():
		return StatusApproved
	default:
		return StatusPending
	}
}

// ApplyStageOutcome records an approver decision and returns the resulting booking.
// The input booking is not modified.
//
// Admin can only be decided once gd and ds are both approved; when the second of
// them clears, admin moves from NOT_APPLICABLE to PENDING in the same step.
func ApplyStageOutcome(b *Booking, d StageDecision, at time.Time) (*Booking, error) {
	if b.status != StatusPending {
		return nil, ErrBookingClosed
	}
	if d.Outcome != StageApproved && d.Outcome != StageRejected {
		return nil, ErrInvalidOutcome
	}

	current, err := b.approvals.Get(d.Stage)
	if err != nil {
		return nil, err
	}
	switch {
	case current.Status == StageNotApplicable:
		return nil, ErrStageNotOpen
	case current.Status.IsResolved():
		return nil, ErrStageResolved
	}

	next := b.Clone()
	ts := at
	next.approvals = next.approvals.with(d.Stage, StageRecord{
		Status:    d.Outcome,
		Note:      d.Note,
		Timestamp: &ts,
	})

	next.status = DeriveStatus(next.approvals)
	switch next.status {
	case StatusRejected:
		reason := d.Note
		if reason == "" {
			reason = "Rejected by " + d.Stage.Role()
		}
		next.rejectionReason = &reason
	case StatusPending:
		if next.approvals.PrerequisitesApproved() && next.approvals.Admin.Status == StageNotApplicable {
			next.approvals.Admin.Status = StagePending
		}
	}

	next.version++
	next.updatedAt = at
	return next, nil
}
