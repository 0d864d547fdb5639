package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/campus-venues/service-booking/pkg/domain"
	"github.com/google/uuid"
)

// Details are the descriptive attributes supplied when a booking is created.
// They never change afterwards.
type Details struct {
	VenueName       string      `json:"venueName"`
	MeetingType     MeetingType `json:"meetingType"`
	DateTime        time.Time   `json:"dateTime"`
	EndTime         time.Time   `json:"endTime"`
	Capacity        int         `json:"capacity"`
	Purpose         string      `json:"purpose"`
	Resources       string      `json:"resources"`
	Department      string      `json:"department"`
	ContactEmail    string      `json:"contactEmail"`
	SpecialRequests string      `json:"specialRequests"`
	Priority        Priority    `json:"priority"`
}

// Booking is the aggregate root for a venue booking and its approval stages.
type Booking struct {
	id              uuid.UUID
	bookingID       string
	details         Details
	status          Status
	approvals       Approvals
	rejectionReason *string

	version     int64
	createdAt   time.Time
	updatedAt   time.Time
	cancelledAt *time.Time
}

// generateBookingID creates a display identifier in the format "BK-<unix millis>-<nnn>".
func generateBookingID(now time.Time) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	if err != nil {
		return "", fmt.Errorf("failed to generate booking id: %w", err)
	}
	return fmt.Sprintf("BK-%d-%03d", now.UnixMilli(), n.Int64()), nil
}

// NewBooking creates a PENDING booking with gd and ds awaiting review and admin not applicable.
func NewBooking(details Details, now time.Time) (*Booking, error) {
	if details.VenueName == "" {
		return nil, domain.NewValidationError("venue is required")
	}
	if details.Priority == "" {
		details.Priority = PriorityNormal
	}
	if !details.Priority.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid priority: %s", details.Priority))
	}
	if !details.MeetingType.IsValid() {
		return nil, domain.NewValidationError(fmt.Sprintf("invalid meeting type: %s", details.MeetingType))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate booking uuid: %w", err)
	}
	bookingID, err := generateBookingID(now)
	if err != nil {
		return nil, err
	}

	return &Booking{
		id:        id,
		bookingID: bookingID,
		details:   details,
		status:    StatusPending,
		approvals: InitialApprovals(),
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingID string,
	details Details,
	status Status,
	approvals Approvals,
	rejectionReason *string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
	cancelledAt *time.Time,
) *Booking {
	return &Booking{
		id:              id,
		bookingID:       bookingID,
		details:         details,
		status:          status,
		approvals:       approvals,
		rejectionReason: rejectionReason,
		version:         version,
		createdAt:       createdAt,
		updatedAt:       updatedAt,
		cancelledAt:     cancelledAt,
	}
}

// --- Getters ---

// ID returns the internal identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingID returns the human-friendly display identifier.
func (b *Booking) BookingID() string { return b.bookingID }

// Details returns the descriptive attributes.
func (b *Booking) Details() Details { return b.details }

// VenueName returns the resolved venue name.
func (b *Booking) VenueName() string { return b.details.VenueName }

// Priority returns the booking priority.
func (b *Booking) Priority() Priority { return b.details.Priority }

// Status returns the overall booking status.
func (b *Booking) Status() Status { return b.status }

// Approvals returns the per-stage approval records.
func (b *Booking) Approvals() Approvals { return b.approvals }

// RejectionReason returns the rejection note, or nil unless the booking was rejected.
func (b *Booking) RejectionReason() *string { return b.rejectionReason }

// Version returns the number of committed mutations.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// CancelledAt returns the cancellation timestamp.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// IsActive reports whether the booking occupies the single booking slot.
func (b *Booking) IsActive() bool { return b.status.IsActive() }

// --- Behavior ---

// Cancel moves a PENDING or APPROVED booking to CANCELLED. Stage records are left untouched.
func (b *Booking) Cancel(now time.Time) error {
	if !b.status.CanBeCancelled() {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	b.status = StatusCancelled
	b.cancelledAt = &now
	b.updatedAt = now
	b.version++
	return nil
}

// Clone returns an independent copy of the booking.
func (b *Booking) Clone() *Booking {
	c := *b
	if b.rejectionReason != nil {
		r := *b.rejectionReason
		c.rejectionReason = &r
	}
	if b.cancelledAt != nil {
		t := *b.cancelledAt
		c.cancelledAt = &t
	}
	return &c
}
