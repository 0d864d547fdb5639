package events

import (
	"context"
	"errors"

	"github.com/campus-venues/service-booking/internal/application"
	bookingDomain "github.com/campus-venues/service-booking/internal/domain/booking"
	"github.com/campus-venues/service-booking/pkg/domain"
	"github.com/campus-venues/service-booking/pkg/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// StageDecider applies approver decisions to the current booking.
type StageDecider interface {
	DecideStage(ctx context.Context, bookingID uuid.UUID, stage bookingDomain.Stage, outcome bookingDomain.Outcome, note string) (*application.BookingDTO, error)
}

// ApprovalDecisionConsumer listens to the approvals topic and applies the
// decisions of external approvers.
type ApprovalDecisionConsumer struct {
	consumer *kafka.Consumer
	decider  StageDecider
	logger   *zap.Logger
}

// NewApprovalDecisionConsumer creates a new ApprovalDecisionConsumer.
func NewApprovalDecisionConsumer(
	brokers []string,
	groupID string,
	topic string,
	decider StageDecider,
	logger *zap.Logger,
) *ApprovalDecisionConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, topic, logger)
	return &ApprovalDecisionConsumer{
		consumer: consumer,
		decider:  decider,
		logger:   logger,
	}
}

// Start begins consuming approval decisions. This blocks until the context is cancelled.
func (c *ApprovalDecisionConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *ApprovalDecisionConsumer) Close() error {
	return c.consumer.Close()
}

func (c *ApprovalDecisionConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from approvals topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case application.EventStageDecision:
		return c.handleStageDecision(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled approval event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *ApprovalDecisionConsumer) handleStageDecision(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt application.StageDecisionEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse StageDecisionEvent data", zap.Error(err))
		return nil // Don't retry malformed data
	}

	stage, err := bookingDomain.ParseStage(evt.Stage)
	if err != nil {
		c.logger.Warn("approval decision for unknown stage dropped",
			zap.String("booking_uuid", evt.ID.String()),
			zap.String("stage", evt.Stage),
		)
		return nil
	}

	c.logger.Info("processing approval decision",
		zap.String("booking_uuid", evt.ID.String()),
		zap.String("stage", evt.Stage),
		zap.String("outcome", evt.Outcome),
	)

	_, err = c.decider.DecideStage(ctx, evt.ID, stage, bookingDomain.Outcome(evt.Outcome), evt.Note)
	if err != nil {
		var domErr *domain.Error
		if errors.As(err, &domErr) && domErr.Kind != domain.KindInternal {
			// Stale, duplicate or invalid decisions never succeed on redelivery.
			c.logger.Warn("approval decision rejected",
				zap.String("booking_uuid", evt.ID.String()),
				zap.String("stage", evt.Stage),
				zap.String("code", domErr.Code),
			)
			return nil
		}
		c.logger.Error("failed to apply approval decision",
			zap.String("booking_uuid", evt.ID.String()),
			zap.String("stage", evt.Stage),
			zap.Error(err),
		)
		return err
	}
	return nil
}
