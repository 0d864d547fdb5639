package booking

import "github.com/campus-venues/service-booking/pkg/domain"

var (
	// ErrActiveBookingExists is returned when a PENDING or APPROVED booking already occupies the slot.
	ErrActiveBookingExists = domain.NewConflictError("ACTIVE_BOOKING_EXISTS",
		"you already have an active booking; cancel it first")

	// ErrNoActiveBooking is returned when there is nothing to cancel.
	ErrNoActiveBooking = &domain.Error{
		Kind:    domain.KindNotFound,
		Code:    "NO_ACTIVE_BOOKING",
		Message: "there is no active booking",
	}

	// ErrUnknownStage is returned for a stage name other than gd, ds or admin.
	ErrUnknownStage = domain.NewValidationError("unknown approval stage")

	// ErrInvalidOutcome is returned when a decision is neither APPROVED nor REJECTED.
	ErrInvalidOutcome = domain.NewValidationError("outcome must be APPROVED or REJECTED")

	// ErrStageNotOpen is returned when admin is decided before gd and ds have cleared.
	ErrStageNotOpen = &domain.Error{
		Kind:    domain.KindInvalidState,
		Code:    "STAGE_NOT_OPEN",
		Message: "admin review starts only after gd and ds are approved",
	}

	// ErrStageResolved is returned when a stage already carries an outcome.
	ErrStageResolved = &domain.Error{
		Kind:    domain.KindInvalidState,
		Code:    "STAGE_RESOLVED",
		Message: "approval stage already resolved",
	}

	// ErrBookingClosed is returned when a decision targets a booking that is no longer pending.
	ErrBookingClosed = &domain.Error{
		Kind:    domain.KindInvalidState,
		Code:    "BOOKING_CLOSED",
		Message: "booking is no longer awaiting approval",
	}

	// ErrStaleBooking is returned when a decision names a booking that is not the current one.
	ErrStaleBooking = &domain.Error{
		Kind:    domain.KindNotFound,
		Code:    "STALE_BOOKING",
		Message: "booking is not the current booking",
	}
)

// NewPersistenceError wraps a durable store failure.
func NewPersistenceError(err error) error {
	return domain.NewInternalError("PERSISTENCE_ERROR", "failed to persist booking state", err)
}
