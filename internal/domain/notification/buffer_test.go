package notification

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestNew_DefaultDuration(t *testing.T) {
	n := New(EventCancelled, "BK-1", "Booking cancelled successfully", TypeInfo, 0, start)

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, int64(5000), n.DurationMs)
	assert.Equal(t, start.Add(5*time.Second), n.ExpiresAt())
}

func TestBuffer_ExpiresAfterDuration(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(start)
	b := NewBuffer(clk, 10)

	b.Notify(context.Background(), New(EventSubmitted, "BK-1", "submitted", TypeSuccess, 0, clk.Now()))
	b.Notify(context.Background(), New(EventApproved, "BK-1", "approved", TypeSuccess, 7*time.Second, clk.Now()))
	require.Len(t, b.Active(), 2)

	clk.Add(5 * time.Second)
	active := b.Active()
	require.Len(t, active, 1)
	assert.Equal(t, EventApproved, active[0].Event)

	clk.Add(2 * time.Second)
	assert.Empty(t, b.Active())
}

func TestBuffer_CapsSize(t *testing.T) {
	clk := clock.NewMock()
	clk.Set(start)
	b := NewBuffer(clk, 2)

	for _, msg := range []string{"one", "two", "three"} {
		b.Notify(context.Background(), New(EventStageApproved, "BK-1", msg, TypeSuccess, 0, clk.Now()))
	}

	active := b.Active()
	require.Len(t, active, 2)
	assert.Equal(t, "two", active[0].Message)
	assert.Equal(t, "three", active[1].Message)
}

type recordingSink struct{ got []Notification }

func (r *recordingSink) Notify(_ context.Context, n Notification) { r.got = append(r.got, n) }

func TestFanout_DeliversToEverySink(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}

	Fanout{a, b}.Notify(context.Background(), New(EventRefused, "", "refused", TypeError, 0, start))

	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)
}
