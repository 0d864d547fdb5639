package events

import (
	"context"

	"github.com/campus-venues/service-booking/internal/domain/notification"
	"go.uber.org/zap"
)

// JSONPublisher publishes a JSON document under a routing key.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// AMQPNotificationSink forwards notifications to a RabbitMQ exchange with
// routing key "booking.notification.<event>".
type AMQPNotificationSink struct {
	publisher JSONPublisher
	logger    *zap.Logger
}

// NewAMQPNotificationSink creates a new AMQPNotificationSink.
func NewAMQPNotificationSink(publisher JSONPublisher, logger *zap.Logger) *AMQPNotificationSink {
	return &AMQPNotificationSink{publisher: publisher, logger: logger}
}

// Notify implements notification.Sink. Failures are logged and dropped.
func (s *AMQPNotificationSink) Notify(ctx context.Context, n notification.Notification) {
	key := "booking.notification." + n.Event
	if err := s.publisher.PublishJSON(ctx, key, n); err != nil {
		s.logger.Warn("failed to publish notification",
			zap.String("routing_key", key),
			zap.String("booking_id", n.BookingID),
			zap.Error(err),
		)
	}
}

// LogSink writes notifications to the service log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Notify implements notification.Sink.
func (s *LogSink) Notify(_ context.Context, n notification.Notification) {
	s.logger.Info("notification",
		zap.String("event", n.Event),
		zap.String("booking_id", n.BookingID),
		zap.String("type", string(n.Type)),
		zap.String("message", n.Message),
	)
}
