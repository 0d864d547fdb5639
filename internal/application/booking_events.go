package application

import (
	"context"
	"time"

	"github.com/campus-venues/service-booking/pkg/kafka"
	"github.com/google/uuid"
)

// Topics and CloudEvent types exchanged with other services.
const (
	DefaultBookingTopic  = "venue.booking.events"
	DefaultApprovalTopic = "venue.booking.approvals"

	EventBookingRequested    = "venue.booking.requested"
	EventBookingStageDecided = "venue.booking.stage_decided"
	EventBookingApproved     = "venue.booking.approved"
	EventBookingRejected     = "venue.booking.rejected"
	EventBookingCancelled    = "venue.booking.cancelled"

	// EventStageDecision is consumed from the approvals topic.
	EventStageDecision = "venue.booking.stage_decision"
)

// BookingRequestedEvent is published when a booking enters PENDING.
type BookingRequestedEvent struct {
	ID          uuid.UUID `json:"id"`
	BookingID   string    `json:"bookingId"`
	VenueName   string    `json:"venueName"`
	MeetingType string    `json:"meetingType"`
	Priority    string    `json:"priority"`
	Department  string    `json:"department"`
	DateTime    time.Time `json:"dateTime"`
	EndTime     time.Time `json:"endTime"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// StageDecidedEvent is published after every applied stage outcome.
type StageDecidedEvent struct {
	ID         uuid.UUID `json:"id"`
	BookingID  string    `json:"bookingId"`
	Stage      string    `json:"stage"`
	Outcome    string    `json:"outcome"`
	Note       string    `json:"note"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}

// BookingClosedEvent is published when a booking is approved, rejected or cancelled.
type BookingClosedEvent struct {
	ID              uuid.UUID `json:"id"`
	BookingID       string    `json:"bookingId"`
	VenueName       string    `json:"venueName"`
	Status          string    `json:"status"`
	RejectionReason *string   `json:"rejectionReason,omitempty"`
	OccurredAt      time.Time `json:"occurredAt"`
}

// StageDecisionEvent is an approver's decision arriving from outside.
type StageDecisionEvent struct {
	ID      uuid.UUID `json:"id"`
	Stage   string    `json:"stage"`
	Outcome string    `json:"outcome"`
	Note    string    `json:"note"`
}

// NopPublisher drops every event. It stands in for Kafka when publishing is disabled.
type NopPublisher struct{}

// PublishEvent implements EventPublisher.
func (NopPublisher) PublishEvent(context.Context, string, string, kafka.CloudEvent) error {
	return nil
}
