package booking

import "context"

// Repository persists the current booking slot and the booking history
// as two independent records.
type Repository interface {
	// LoadCurrent returns the persisted current booking, or nil when the slot is empty.
	LoadCurrent(ctx context.Context) (*Booking, error)

	// SaveCurrent persists the current booking. A nil booking stores the empty marker.
	SaveCurrent(ctx context.Context, b *Booking) error

	// LoadHistory returns the persisted history entries, most recent first.
	LoadHistory(ctx context.Context) ([]HistoryEntry, error)

	// SaveHistory replaces the persisted history.
	SaveHistory(ctx context.Context, entries []HistoryEntry) error
}
