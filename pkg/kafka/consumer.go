package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler processes a single message. A non-nil error makes the
// consumer retry the same message; its offset is committed only once the
// handler succeeds.
type MessageHandler func(ctx context.Context, msg kafkago.Message) error

// messageReader is the part of *kafkago.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Consumer reads a topic as part of a consumer group.
type Consumer struct {
	reader     messageReader
	logger     *zap.Logger
	newBackOff func() backoff.BackOff
}

// NewConsumer creates a group consumer for topic.
func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  brokers,
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return newConsumer(reader, logger, retryBackOff)
}

func newConsumer(reader messageReader, logger *zap.Logger, newBackOff func() backoff.BackOff) *Consumer {
	return &Consumer{reader: reader, logger: logger, newBackOff: newBackOff}
}

// retryBackOff never gives up; only ctx ends a retry loop.
func retryBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Consume fetches messages until ctx is cancelled. Messages are handled one
// at a time, and a failing message is retried in place so no later offset
// is committed past it.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("failed to fetch message", zap.Error(err))
			return err
		}

		if err := c.handle(ctx, handler, msg); err != nil {
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("failed to commit message", zap.Error(err))
		}
	}
}

func (c *Consumer) handle(ctx context.Context, handler MessageHandler, msg kafkago.Message) error {
	err := backoff.RetryNotify(
		func() error { return handler(ctx, msg) },
		backoff.WithContext(c.newBackOff(), ctx),
		func(err error, wait time.Duration) {
			c.logger.Warn("message handler failed, retrying",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Duration("retry_in", wait),
				zap.Error(err),
			)
		},
	)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
