package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/cenkalti/backoff/v4"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeReader serves a fixed list of messages and cancels the consume loop
// once they run out.
type fakeReader struct {
	queue   []kafkago.Message
	cancel  context.CancelFunc
	commits []int64
	closed  bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(r.queue) == 0 {
		r.cancel()
		return kafkago.Message{}, ctx.Err()
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		r.commits = append(r.commits, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

func newFakeConsumer(offsets ...int64) (*Consumer, *fakeReader, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &fakeReader{cancel: cancel}
	for _, off := range offsets {
		reader.queue = append(reader.queue, kafkago.Message{Topic: "venue.booking.approvals", Offset: off})
	}
	c := newConsumer(reader, zap.NewNop(), func() backoff.BackOff { return &backoff.ZeroBackOff{} })
	return c, reader, ctx
}

func TestConsume_FailedMessageIsRetriedBeforeLaterOffsets(t *testing.T) {
	c, reader, ctx := newFakeConsumer(0, 1, 2)

	var handled []int64
	failures := 2
	err := c.Consume(ctx, func(_ context.Context, msg kafkago.Message) error {
		handled = append(handled, msg.Offset)
		if msg.Offset == 1 && failures > 0 {
			failures--
			return errors.New("db down")
		}
		// Nothing past the failing message may be committed while it is retried.
		for _, committed := range reader.commits {
			assert.Less(t, committed, msg.Offset)
		}
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int64{0, 1, 1, 1, 2}, handled)
	assert.Equal(t, []int64{0, 1, 2}, reader.commits)
}

func TestConsume_CancelDuringRetryCommitsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reader := &fakeReader{
		cancel: cancel,
		queue:  []kafkago.Message{{Offset: 7}, {Offset: 8}},
	}
	c := newConsumer(reader, zap.NewNop(), func() backoff.BackOff { return &backoff.ZeroBackOff{} })

	attempts := 0
	err := c.Consume(ctx, func(context.Context, kafkago.Message) error {
		attempts++
		if attempts == 3 {
			cancel()
		}
		return errors.New("db down")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, attempts)
	assert.Empty(t, reader.commits)
	require.Len(t, reader.queue, 1, "offset 8 is never fetched")
}

func TestRetryBackOff_NeverGivesUp(t *testing.T) {
	b, ok := retryBackOff().(*backoff.ExponentialBackOff)
	require.True(t, ok)

	assert.Zero(t, b.MaxElapsedTime)
	assert.NotEqual(t, backoff.Stop, b.NextBackOff())
}

func TestConsumer_Close(t *testing.T) {
	c, reader, _ := newFakeConsumer()

	require.NoError(t, c.Close())
	assert.True(t, reader.closed)
}
