package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bookingDomain "github.com/campus-venues/service-booking/internal/domain/booking"
	"github.com/google/uuid"
)

// Keys of the two logical records.
const (
	CurrentBookingKey = "currentBooking"
	BookingHistoryKey = "bookingHistory"
)

// emptySlot is stored under CurrentBookingKey when there is no booking.
var emptySlot = []byte(`{"status":"NONE"}`)

// bookingRecord is the persisted form of a booking.
type bookingRecord struct {
	ID              uuid.UUID                `json:"id"`
	BookingID       string                   `json:"bookingId,omitempty"`
	Details         *bookingDomain.Details   `json:"details,omitempty"`
	Status          string                   `json:"status"`
	Approvals       *bookingDomain.Approvals `json:"approvals,omitempty"`
	RejectionReason *string                  `json:"rejectionReason,omitempty"`
	Version         int64                    `json:"version,omitempty"`
	CreatedAt       time.Time                `json:"createdAt"`
	UpdatedAt       time.Time                `json:"updatedAt"`
	CancelledAt     *time.Time               `json:"cancelledAt,omitempty"`
}

// StateRepository stores the current booking and the booking history as two
// JSON documents in a KVStore.
type StateRepository struct {
	store KVStore
}

// NewStateRepository creates a new StateRepository.
func NewStateRepository(store KVStore) *StateRepository {
	return &StateRepository{store: store}
}

// LoadCurrent returns the booking in the slot, or nil when it is empty.
func (r *StateRepository) LoadCurrent(ctx context.Context) (*bookingDomain.Booking, error) {
	data, err := r.store.Load(ctx, CurrentBookingKey)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var rec bookingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode current booking: %w", err)
	}
	return toDomainBooking(&rec)
}

// SaveCurrent persists b as the current booking. A nil booking empties the slot.
func (r *StateRepository) SaveCurrent(ctx context.Context, b *bookingDomain.Booking) error {
	if b == nil {
		return r.store.Save(ctx, CurrentBookingKey, emptySlot)
	}
	data, err := json.Marshal(toBookingRecord(b))
	if err != nil {
		return fmt.Errorf("failed to encode current booking: %w", err)
	}
	return r.store.Save(ctx, CurrentBookingKey, data)
}

// LoadHistory returns the persisted history, most recent first.
func (r *StateRepository) LoadHistory(ctx context.Context) ([]bookingDomain.HistoryEntry, error) {
	data, err := r.store.Load(ctx, BookingHistoryKey)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var entries []bookingDomain.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode booking history: %w", err)
	}
	return entries, nil
}

// SaveHistory replaces the persisted history.
func (r *StateRepository) SaveHistory(ctx context.Context, entries []bookingDomain.HistoryEntry) error {
	if entries == nil {
		entries = []bookingDomain.HistoryEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode booking history: %w", err)
	}
	return r.store.Save(ctx, BookingHistoryKey, data)
}

// Ping reports whether the underlying store is reachable.
func (r *StateRepository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// --- Mapping helpers ---

func toBookingRecord(b *bookingDomain.Booking) bookingRecord {
	details := b.Details()
	approvals := b.Approvals()
	return bookingRecord{
		ID:              b.ID(),
		BookingID:       b.BookingID(),
		Details:         &details,
		Status:          string(b.Status()),
		Approvals:       &approvals,
		RejectionReason: b.RejectionReason(),
		Version:         b.Version(),
		CreatedAt:       b.CreatedAt(),
		UpdatedAt:       b.UpdatedAt(),
		CancelledAt:     b.CancelledAt(),
	}
}

func toDomainBooking(rec *bookingRecord) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseStatus(rec.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to decode current booking: %w", err)
	}
	if status == bookingDomain.StatusNone {
		return nil, nil
	}
	if rec.Details == nil || rec.Approvals == nil {
		return nil, fmt.Errorf("failed to decode current booking %s: missing details or approvals", rec.BookingID)
	}
	return bookingDomain.ReconstructBooking(
		rec.ID,
		rec.BookingID,
		*rec.Details,
		status,
		*rec.Approvals,
		rec.RejectionReason,
		rec.Version,
		rec.CreatedAt,
		rec.UpdatedAt,
		rec.CancelledAt,
	), nil
}
