package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	bookingDomain "github.com/campus-venues/service-booking/internal/domain/booking"
	"github.com/campus-venues/service-booking/internal/domain/notification"
	"github.com/campus-venues/service-booking/internal/domain/venue"
	"github.com/campus-venues/service-booking/internal/scheduler"
	"github.com/campus-venues/service-booking/pkg/domain"
	"github.com/campus-venues/service-booking/pkg/kafka"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	serviceSource = "service-venue-booking"

	fullyApprovedDuration = 7 * time.Second
	publishTimeout        = 5 * time.Second
)

// CreateBookingRequest holds the data needed to create a new booking.
// Field constraints are enforced by the transport layer before the request
// reaches the service.
type CreateBookingRequest struct {
	MeetingType     string    `json:"meetingType" binding:"omitempty,oneof=Physical Virtual Hybrid"`
	Venue           string    `json:"venue" binding:"required"`
	CustomVenue     string    `json:"customVenue" binding:"max=200"`
	DateTime        time.Time `json:"dateTime"`
	EndTime         time.Time `json:"endTime" binding:"omitempty,gtfield=DateTime"`
	Purpose         string    `json:"purpose" binding:"required,min=10,max=500"`
	Capacity        int       `json:"capacity" binding:"required,min=1,max=500"`
	Resources       string    `json:"resources" binding:"max=200"`
	Priority        string    `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	Department      string    `json:"department" binding:"required"`
	ContactEmail    string    `json:"contactEmail" binding:"required,email"`
	SpecialRequests string    `json:"specialRequests" binding:"max=1000"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID               `json:"id"`
	BookingID       string                  `json:"bookingId"`
	VenueName       string                  `json:"venueName"`
	MeetingType     string                  `json:"meetingType"`
	DateTime        *time.Time              `json:"dateTime,omitempty"`
	EndTime         *time.Time              `json:"endTime,omitempty"`
	Capacity        int                     `json:"capacity"`
	Purpose         string                  `json:"purpose"`
	Resources       string                  `json:"resources"`
	Department      string                  `json:"department"`
	ContactEmail    string                  `json:"contactEmail"`
	SpecialRequests string                  `json:"specialRequests,omitempty"`
	Priority        string                  `json:"priority"`
	Status          string                  `json:"status"`
	Approvals       bookingDomain.Approvals `json:"approvals"`
	RejectionReason *string                 `json:"rejectionReason"`
	Version         int64                   `json:"version"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
	CancelledAt     *time.Time              `json:"cancelledAt,omitempty"`
}

// EventPublisher publishes lifecycle events to the message bus.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event kafka.CloudEvent) error
}

// Options tunes a BookingService.
type Options struct {
	HistoryLimit         int
	BookingTopic         string
	NotificationDuration time.Duration
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// BookingService owns the single booking slot and the booking history.
// Every mutation, whether from a caller or from the scheduler, goes through
// mu, and in-memory state changes only after the repository accepted them.
type BookingService struct {
	repo      bookingDomain.Repository
	catalog   *venue.Catalog
	scheduler scheduler.Scheduler
	notifier  notification.Sink
	publisher EventPublisher
	clock     clock.Clock
	logger    *zap.Logger
	tracer    trace.Tracer
	topic     string
	notice    time.Duration

	mu      sync.Mutex
	current *bookingDomain.Booking
	history *bookingDomain.History
	handle  scheduler.Handle
}

// NewBookingService creates a new BookingService with an empty slot and history.
// Call Restore to load persisted state.
func NewBookingService(
	repo bookingDomain.Repository,
	catalog *venue.Catalog,
	sched scheduler.Scheduler,
	notifier notification.Sink,
	publisher EventPublisher,
	clk clock.Clock,
	logger *zap.Logger,
	opts Options,
) *BookingService {
	if opts.BookingTopic == "" {
		opts.BookingTopic = DefaultBookingTopic
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}
	return &BookingService{
		repo:      repo,
		catalog:   catalog,
		scheduler: sched,
		notifier:  notifier,
		publisher: publisher,
		clock:     clk,
		logger:    logger,
		tracer:    opts.TracerProvider.Tracer("github.com/campus-venues/service-booking/internal/application"),
		topic:     opts.BookingTopic,
		notice:    opts.NotificationDuration,
		history:   bookingDomain.NewHistory(opts.HistoryLimit),
	}
}

// outbox collects side effects produced under the lock so they can be
// delivered after it is released.
type outbox struct {
	events        []outboundEvent
	notifications []notification.Notification
}

type outboundEvent struct {
	eventType string
	key       string
	data      interface{}
}

func (o *outbox) publish(eventType, key string, data interface{}) {
	o.events = append(o.events, outboundEvent{eventType: eventType, key: key, data: data})
}

func (o *outbox) notify(n notification.Notification) {
	o.notifications = append(o.notifications, n)
}

// Restore loads the persisted booking and history and resumes approval of a
// pending booking.
func (s *BookingService) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.repo.LoadHistory(ctx)
	if err != nil {
		return bookingDomain.NewPersistenceError(err)
	}
	current, err := s.repo.LoadCurrent(ctx)
	if err != nil {
		return bookingDomain.NewPersistenceError(err)
	}

	s.history = bookingDomain.RestoreHistory(entries, s.history.Limit())
	s.current = current

	if current != nil && current.Status() == bookingDomain.StatusPending {
		s.handle = s.scheduler.Schedule(current.Clone(), s.applyScheduled)
		s.logger.Info("resumed approval of pending booking",
			zap.String("booking_id", current.BookingID()),
		)
	}

	s.logger.Info("booking state restored",
		zap.Bool("has_current", current != nil),
		zap.Int("history_entries", s.history.Len()),
	)
	return nil
}

// CreateBooking creates a new booking if no other booking is active.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingDTO, error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.CreateBooking")
	defer span.End()

	venueName, err := s.resolveVenue(req)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	priority, err := bookingDomain.ParsePriority(req.Priority)
	if err != nil {
		verr := domain.NewValidationError(err.Error())
		recordSpanError(span, verr)
		return nil, verr
	}
	meetingType := bookingDomain.MeetingType(req.MeetingType)
	if meetingType == "" {
		meetingType = bookingDomain.MeetingPhysical
	}

	var ob outbox
	defer func() { s.flush(ctx, &ob) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now().UTC()
	if s.current != nil && s.current.IsActive() {
		ob.notify(notification.New(notification.EventRefused, s.current.BookingID(),
			"You already have an active booking. Please cancel it first.",
			notification.TypeError, s.notice, now))
		recordSpanError(span, bookingDomain.ErrActiveBookingExists)
		return nil, bookingDomain.ErrActiveBookingExists
	}

	bk, err := bookingDomain.NewBooking(bookingDomain.Details{
		VenueName:       venueName,
		MeetingType:     meetingType,
		DateTime:        req.DateTime,
		EndTime:         req.EndTime,
		Capacity:        req.Capacity,
		Purpose:         req.Purpose,
		Resources:       req.Resources,
		Department:      req.Department,
		ContactEmail:    req.ContactEmail,
		SpecialRequests: req.SpecialRequests,
		Priority:        priority,
	}, now)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	if err := s.repo.SaveCurrent(ctx, bk); err != nil {
		s.logger.Error("failed to persist new booking", zap.Error(err))
		recordSpanError(span, err)
		return nil, bookingDomain.NewPersistenceError(err)
	}

	// Leftover timers from an earlier booking must never touch the new one.
	if s.handle != nil {
		s.scheduler.Cancel(s.handle)
	}
	s.current = bk
	s.handle = s.scheduler.Schedule(bk.Clone(), s.applyScheduled)

	span.SetAttributes(
		attribute.String("booking.id", bk.BookingID()),
		attribute.String("booking.priority", string(bk.Priority())),
	)
	s.logger.Info("booking created",
		zap.String("booking_id", bk.BookingID()),
		zap.String("venue", bk.VenueName()),
		zap.String("priority", string(bk.Priority())),
	)

	d := bk.Details()
	ob.publish(EventBookingRequested, bk.ID().String(), BookingRequestedEvent{
		ID:          bk.ID(),
		BookingID:   bk.BookingID(),
		VenueName:   d.VenueName,
		MeetingType: string(d.MeetingType),
		Priority:    string(d.Priority),
		Department:  d.Department,
		DateTime:    d.DateTime,
		EndTime:     d.EndTime,
		OccurredAt:  now,
	})
	ob.notify(notification.New(notification.EventSubmitted, bk.BookingID(),
		"Booking submitted successfully! Processing approval...",
		notification.TypeSuccess, s.notice, now))

	result := toBookingDTO(bk)
	return &result, nil
}

// CancelBooking cancels the active booking, stops its approval run and
// records it in the history.
func (s *BookingService) CancelBooking(ctx context.Context) (*BookingDTO, error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.CancelBooking")
	defer span.End()

	var ob outbox
	defer func() { s.flush(ctx, &ob) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || !s.current.IsActive() {
		recordSpanError(span, bookingDomain.ErrNoActiveBooking)
		return nil, bookingDomain.ErrNoActiveBooking
	}

	now := s.clock.Now().UTC()
	cancelled := s.current.Clone()
	if err := cancelled.Cancel(now); err != nil {
		return nil, err
	}
	history := s.history.Append(bookingDomain.NewHistoryEntry(cancelled, now))

	if err := s.persistClosed(ctx, nil, history); err != nil {
		recordSpanError(span, err)
		return nil, err
	}

	s.scheduler.Cancel(s.handle)
	s.handle = nil
	s.current = nil
	s.history = history

	span.SetAttributes(attribute.String("booking.id", cancelled.BookingID()))
	s.logger.Info("booking cancelled", zap.String("booking_id", cancelled.BookingID()))

	ob.publish(EventBookingCancelled, cancelled.ID().String(), closedEvent(cancelled, now))
	ob.notify(notification.New(notification.EventCancelled, cancelled.BookingID(),
		"Booking cancelled successfully", notification.TypeInfo, s.notice, now))

	result := toBookingDTO(cancelled)
	return &result, nil
}

// DecideStage applies an approver decision to the current booking. It is the
// entry point for administrators and for approvers arriving over the bus.
func (s *BookingService) DecideStage(ctx context.Context, bookingID uuid.UUID, stage bookingDomain.Stage, outcome bookingDomain.Outcome, note string) (*BookingDTO, error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.DecideStage",
		trace.WithAttributes(
			attribute.String("booking.stage", string(stage)),
			attribute.String("booking.outcome", string(outcome)),
		),
	)
	defer span.End()

	bk, err := s.decide(ctx, bookingID, bookingDomain.StageDecision{Stage: stage, Outcome: outcome, Note: note})
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// applyScheduled is the scheduler's way back into the service.
func (s *BookingService) applyScheduled(bookingID uuid.UUID, d bookingDomain.StageDecision) (bookingDomain.Approvals, error) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	bk, err := s.decide(ctx, bookingID, d)
	if bk == nil {
		return bookingDomain.Approvals{}, err
	}
	return bk.Approvals(), err
}

// decide applies d to the current booking. When the stage was already decided
// it returns the unchanged booking together with ErrStageResolved.
func (s *BookingService) decide(ctx context.Context, bookingID uuid.UUID, d bookingDomain.StageDecision) (*bookingDomain.Booking, error) {
	var ob outbox
	defer func() { s.flush(ctx, &ob) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.ID() != bookingID {
		s.logger.Debug("decision for stale booking discarded",
			zap.String("booking_uuid", bookingID.String()),
			zap.String("stage", string(d.Stage)),
		)
		return nil, bookingDomain.ErrStaleBooking
	}

	now := s.clock.Now().UTC()
	next, err := bookingDomain.ApplyStageOutcome(s.current, d, now)
	if err != nil {
		if errors.Is(err, bookingDomain.ErrStageResolved) {
			return s.current.Clone(), err
		}
		return nil, err
	}

	history := s.history
	if next.Status().IsTerminal() {
		history = s.history.Append(bookingDomain.NewHistoryEntry(next, now))
		err = s.persistClosed(ctx, next, history)
	} else if saveErr := s.repo.SaveCurrent(ctx, next); saveErr != nil {
		s.logger.Error("failed to persist stage outcome",
			zap.String("booking_id", next.BookingID()),
			zap.String("stage", string(d.Stage)),
			zap.Error(saveErr),
		)
		err = bookingDomain.NewPersistenceError(saveErr)
	}
	if err != nil {
		ob.notify(notification.New(notification.EventPersistFailed, next.BookingID(),
			"Could not save the approval update for "+d.Stage.Role()+".", notification.TypeWarning, s.notice, now))
		return nil, err
	}

	s.current = next
	s.history = history

	s.logger.Info("stage outcome applied",
		zap.String("booking_id", next.BookingID()),
		zap.String("stage", string(d.Stage)),
		zap.String("outcome", string(d.Outcome)),
		zap.String("status", string(next.Status())),
	)

	ob.publish(EventBookingStageDecided, next.ID().String(), StageDecidedEvent{
		ID:         next.ID(),
		BookingID:  next.BookingID(),
		Stage:      string(d.Stage),
		Outcome:    string(d.Outcome),
		Note:       d.Note,
		Status:     string(next.Status()),
		OccurredAt: now,
	})

	switch next.Status() {
	case bookingDomain.StatusApproved:
		s.scheduler.Cancel(s.handle)
		s.handle = nil
		ob.publish(EventBookingApproved, next.ID().String(), closedEvent(next, now))
		ob.notify(notification.New(notification.EventApproved, next.BookingID(),
			"Booking fully approved! You're all set!", notification.TypeSuccess, fullyApprovedDuration, now))
	case bookingDomain.StatusRejected:
		s.scheduler.Cancel(s.handle)
		s.handle = nil
		ob.publish(EventBookingRejected, next.ID().String(), closedEvent(next, now))
		ob.notify(notification.New(notification.EventRejected, next.BookingID(),
			fmt.Sprintf("Booking rejected by %s: %s", d.Stage.Role(), *next.RejectionReason()),
			notification.TypeError, s.notice, now))
	default:
		ob.notify(notification.New(notification.EventStageApproved, next.BookingID(),
			d.Stage.Role()+" approved your booking!", notification.TypeSuccess, s.notice, now))
	}

	return next.Clone(), nil
}

// GetCurrentBooking returns the booking in the slot, or nil when there is none.
// A rejected booking stays visible here until a new booking replaces it.
func (s *BookingService) GetCurrentBooking(_ context.Context) *BookingDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	result := toBookingDTO(s.current)
	return &result
}

// GetHistory returns the booking history, most recent first.
func (s *BookingService) GetHistory(_ context.Context) []bookingDomain.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Entries()
}

// ListVenues returns the venue catalog.
func (s *BookingService) ListVenues(_ context.Context) []venue.Descriptor {
	return s.catalog.All()
}

// GetVenue returns a single venue by id.
func (s *BookingService) GetVenue(_ context.Context, id string) (*venue.Descriptor, error) {
	d, ok := s.catalog.FindByID(id)
	if !ok {
		return nil, domain.NewNotFoundError("Venue", id)
	}
	return &d, nil
}

// --- Helpers ---

// persistClosed saves history before the slot so a crash in between never
// loses the record of a booking that left the slot.
func (s *BookingService) persistClosed(ctx context.Context, current *bookingDomain.Booking, history *bookingDomain.History) error {
	if err := s.repo.SaveHistory(ctx, history.Entries()); err != nil {
		s.logger.Error("failed to persist booking history", zap.Error(err))
		return bookingDomain.NewPersistenceError(err)
	}
	if err := s.repo.SaveCurrent(ctx, current); err != nil {
		s.logger.Error("failed to persist current booking", zap.Error(err))
		if rbErr := s.repo.SaveHistory(ctx, s.history.Entries()); rbErr != nil {
			s.logger.Error("failed to roll back booking history", zap.Error(rbErr))
		}
		return bookingDomain.NewPersistenceError(err)
	}
	return nil
}

func (s *BookingService) resolveVenue(req CreateBookingRequest) (string, error) {
	if req.Venue == venue.OtherVenue {
		name := strings.TrimSpace(req.CustomVenue)
		if name == "" {
			return "", domain.NewValidationError(`custom venue name is required when "Other" is selected`)
		}
		return name, nil
	}
	d, ok := s.catalog.Resolve(req.Venue)
	if !ok {
		return "", domain.NewValidationError(fmt.Sprintf("unknown venue: %s", req.Venue))
	}
	return d.Name, nil
}

func (s *BookingService) flush(ctx context.Context, ob *outbox) {
	for _, n := range ob.notifications {
		s.notifier.Notify(ctx, n)
	}
	for _, e := range ob.events {
		s.publishEvent(ctx, e.eventType, e.key, e.data)
	}
}

func (s *BookingService) publishEvent(ctx context.Context, eventType, key string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(serviceSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.PublishEvent(ctx, s.topic, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", s.topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func closedEvent(bk *bookingDomain.Booking, now time.Time) BookingClosedEvent {
	return BookingClosedEvent{
		ID:              bk.ID(),
		BookingID:       bk.BookingID(),
		VenueName:       bk.VenueName(),
		Status:          string(bk.Status()),
		RejectionReason: bk.RejectionReason(),
		OccurredAt:      now,
	}
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	d := bk.Details()
	return BookingDTO{
		ID:              bk.ID(),
		BookingID:       bk.BookingID(),
		VenueName:       d.VenueName,
		MeetingType:     string(d.MeetingType),
		DateTime:        optionalTime(d.DateTime),
		EndTime:         optionalTime(d.EndTime),
		Capacity:        d.Capacity,
		Purpose:         d.Purpose,
		Resources:       d.Resources,
		Department:      d.Department,
		ContactEmail:    d.ContactEmail,
		SpecialRequests: d.SpecialRequests,
		Priority:        string(d.Priority),
		Status:          string(bk.Status()),
		Approvals:       bk.Approvals(),
		RejectionReason: bk.RejectionReason(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
		CancelledAt:     bk.CancelledAt(),
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
