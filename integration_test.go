//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/campus-venues/service-booking/internal/application"
	bookingDomain "github.com/campus-venues/service-booking/internal/domain/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest() application.CreateBookingRequest {
	return application.CreateBookingRequest{
		MeetingType:  "Hybrid",
		Venue:        "Main Auditorium",
		DateTime:     time.Now().UTC().Add(72 * time.Hour),
		EndTime:      time.Now().UTC().Add(74 * time.Hour),
		Purpose:      "All-hands town hall meeting",
		Capacity:     120,
		Priority:     "normal",
		Department:   "People Ops",
		ContactEmail: "people@example.com",
	}
}

// TestStageDecisions_ApproveBooking verifies that approver decisions published
// to the approvals topic drive a booking to APPROVED and that the result is
// persisted and announced on the booking events topic.
func TestStageDecisions_ApproveBooking(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	created, err := stack.Service.CreateBooking(ctx, newRequest())
	require.NoError(t, err)
	waitForStoredStatus(t, infra.DB, created.ID, "PENDING", 5*time.Second)

	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	for _, stage := range []string{"ds", "gd", "admin"} {
		publishTestEvent(t, infra.KafkaBrokers, application.DefaultApprovalTopic, created.ID.String(),
			"service-approvals", application.EventStageDecision, application.StageDecisionEvent{
				ID:      created.ID,
				Stage:   stage,
				Outcome: "APPROVED",
			})
	}

	slot := waitForStoredStatus(t, infra.DB, created.ID, "APPROVED", 20*time.Second)
	assert.Equal(t, bookingDomain.StageApproved, slot.Approvals.GD.Status)
	assert.Equal(t, bookingDomain.StageApproved, slot.Approvals.DS.Status)
	assert.Equal(t, bookingDomain.StageApproved, slot.Approvals.Admin.Status)

	history, err := stack.Repo.LoadHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, created.BookingID, history[0].BookingID)
	assert.Equal(t, bookingDomain.StatusApproved, history[0].Status)

	ce := consumeOneEvent(t, infra.KafkaBrokers, application.DefaultBookingTopic,
		application.EventBookingApproved, 15*time.Second)

	var approved application.BookingClosedEvent
	require.NoError(t, ce.ParseData(&approved))
	assert.Equal(t, created.ID, approved.ID)
	assert.Equal(t, "Main Auditorium", approved.VenueName)
	assert.Equal(t, "APPROVED", approved.Status)
}

// TestStageDecisions_RejectSurvivesRestart verifies that a rejection arriving
// over Kafka is persisted and restored by a fresh service instance.
func TestStageDecisions_RejectSurvivesRestart(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	created, err := stack.Service.CreateBooking(ctx, newRequest())
	require.NoError(t, err)

	go func() { _ = stack.Consumer.Start(ctx) }()
	time.Sleep(3 * time.Second)

	publishTestEvent(t, infra.KafkaBrokers, application.DefaultApprovalTopic, created.ID.String(),
		"service-approvals", application.EventStageDecision, application.StageDecisionEvent{
			ID:      created.ID,
			Stage:   "gd",
			Outcome: "REJECTED",
			Note:    "Auditorium reserved for exams",
		})

	waitForStoredStatus(t, infra.DB, created.ID, "REJECTED", 20*time.Second)

	restarted := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer restarted.CleanupProducer()
	defer func() { _ = restarted.Consumer.Close() }()

	current := restarted.Service.GetCurrentBooking(ctx)
	require.NotNil(t, current)
	assert.Equal(t, "REJECTED", current.Status)
	require.NotNil(t, current.RejectionReason)
	assert.Equal(t, "Auditorium reserved for exams", *current.RejectionReason)

	history := restarted.Service.GetHistory(ctx)
	require.Len(t, history, 1)
	assert.Equal(t, bookingDomain.StatusRejected, history[0].Status)

	_, err = restarted.Service.CreateBooking(ctx, newRequest())
	assert.NoError(t, err, "a rejected booking does not block a new one")
}
