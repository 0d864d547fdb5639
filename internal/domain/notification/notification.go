package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type is the severity the UI renders a notification with.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// Lifecycle event names carried by notifications.
const (
	EventSubmitted     = "submitted"
	EventRefused       = "refused"
	EventStageApproved = "stage_approved"
	EventApproved      = "approved"
	EventRejected      = "rejected"
	EventCancelled     = "cancelled"
	EventPersistFailed = "persist_failed"
)

// DefaultDuration is how long a notification stays visible unless told otherwise.
const DefaultDuration = 5 * time.Second

// Notification is a transient, user-facing message tied to a lifecycle event.
type Notification struct {
	ID         string    `json:"id"`
	Event      string    `json:"event"`
	BookingID  string    `json:"bookingId,omitempty"`
	Message    string    `json:"message"`
	Type       Type      `json:"type"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// New builds a notification. A non-positive duration means DefaultDuration.
func New(event, bookingID, message string, typ Type, duration time.Duration, now time.Time) Notification {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return Notification{
		ID:         uuid.NewString(),
		Event:      event,
		BookingID:  bookingID,
		Message:    message,
		Type:       typ,
		DurationMs: duration.Milliseconds(),
		CreatedAt:  now,
	}
}

// ExpiresAt returns when the UI should dismiss the notification.
func (n Notification) ExpiresAt() time.Time {
	return n.CreatedAt.Add(time.Duration(n.DurationMs) * time.Millisecond)
}

// Sink receives lifecycle notifications. Delivery is best effort.
type Sink interface {
	Notify(ctx context.Context, n Notification)
}

// Fanout delivers each notification to every sink in order.
type Fanout []Sink

// Notify implements Sink.
func (f Fanout) Notify(ctx context.Context, n Notification) {
	for _, s := range f {
		s.Notify(ctx, n)
	}
}
