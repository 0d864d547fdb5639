package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	bookingDomain "github.com/campus-venues/service-booking/internal/domain/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newBooking(t *testing.T) *bookingDomain.Booking {
	t.Helper()
	b, err := bookingDomain.NewBooking(bookingDomain.Details{
		VenueName:    "Conference Room B",
		MeetingType:  bookingDomain.MeetingHybrid,
		DateTime:     now.Add(48 * time.Hour),
		EndTime:      now.Add(50 * time.Hour),
		Capacity:     8,
		Purpose:      "Sprint review with stakeholders",
		Department:   "Engineering",
		ContactEmail: "eng@example.com",
		Priority:     bookingDomain.PriorityUrgent,
	}, now)
	require.NoError(t, err)
	return b
}

func TestStateRepository_EmptyStore(t *testing.T) {
	repo := NewStateRepository(NewMemoryKVStore())
	ctx := context.Background()

	current, err := repo.LoadCurrent(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	history, err := repo.LoadHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestStateRepository_CurrentRoundTrip(t *testing.T) {
	repo := NewStateRepository(NewMemoryKVStore())
	ctx := context.Background()

	b := newBooking(t)
	b, err := bookingDomain.ApplyStageOutcome(b, bookingDomain.StageDecision{
		Stage:   bookingDomain.StageGroupDirector,
		Outcome: bookingDomain.StageApproved,
		Note:    "Equipment setup confirmed by Group Director",
	}, now.Add(time.Second))
	require.NoError(t, err)

	require.NoError(t, repo.SaveCurrent(ctx, b))
	loaded, err := repo.LoadCurrent(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, b.ID(), loaded.ID())
	assert.Equal(t, b.BookingID(), loaded.BookingID())
	assert.Equal(t, b.Status(), loaded.Status())
	assert.Equal(t, b.Version(), loaded.Version())
	assert.Equal(t, b.Priority(), loaded.Priority())
	assert.True(t, b.Details().DateTime.Equal(loaded.Details().DateTime))
	assert.Equal(t, bookingDomain.StageApproved, loaded.Approvals().GD.Status)
	require.NotNil(t, loaded.Approvals().GD.Timestamp)
	assert.True(t, loaded.Approvals().GD.Timestamp.Equal(now.Add(time.Second)))
	assert.Equal(t, bookingDomain.StageNotApplicable, loaded.Approvals().Admin.Status)
}

func TestStateRepository_SaveNilStoresEmptyMarker(t *testing.T) {
	store := NewMemoryKVStore()
	repo := NewStateRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.SaveCurrent(ctx, newBooking(t)))
	require.NoError(t, repo.SaveCurrent(ctx, nil))

	raw, err := store.Load(ctx, CurrentBookingKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"NONE"}`, string(raw))

	current, err := repo.LoadCurrent(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)
}

func TestStateRepository_HistoryRoundTrip(t *testing.T) {
	repo := NewStateRepository(NewMemoryKVStore())
	ctx := context.Background()

	reason := "Room unavailable"
	entries := []bookingDomain.HistoryEntry{
		{BookingID: "BK-2", VenueName: "Training Room", Status: bookingDomain.StatusRejected, RejectionReason: &reason, RecordedAt: now},
		{BookingID: "BK-1", VenueName: "Main Auditorium", Status: bookingDomain.StatusApproved, RecordedAt: now.Add(-time.Hour)},
	}

	require.NoError(t, repo.SaveHistory(ctx, entries))
	loaded, err := repo.LoadHistory(ctx)
	require.NoError(t, err)

	require.Len(t, loaded, 2)
	assert.Equal(t, "BK-2", loaded[0].BookingID)
	require.NotNil(t, loaded[0].RejectionReason)
	assert.Equal(t, reason, *loaded[0].RejectionReason)
	assert.Equal(t, bookingDomain.StatusApproved, loaded[1].Status)
}

func TestStateRepository_CorruptRecords(t *testing.T) {
	store := NewMemoryKVStore()
	repo := NewStateRepository(store)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, CurrentBookingKey, []byte(`{"status":"SHIPPED"}`)))
	_, err := repo.LoadCurrent(ctx)
	assert.Error(t, err)

	require.NoError(t, store.Save(ctx, CurrentBookingKey, []byte(`{"status":"PENDING"}`)))
	_, err = repo.LoadCurrent(ctx)
	assert.Error(t, err, "a pending booking without approvals cannot be restored")

	require.NoError(t, store.Save(ctx, BookingHistoryKey, []byte(`{not json`)))
	_, err = repo.LoadHistory(ctx)
	assert.Error(t, err)
}

type failingStore struct{ MemoryKVStore }

func (*failingStore) Save(context.Context, string, []byte) error { return errors.New("disk full") }

func TestStateRepository_PropagatesStoreErrors(t *testing.T) {
	repo := NewStateRepository(&failingStore{})

	assert.Error(t, repo.SaveCurrent(context.Background(), newBooking(t)))
	assert.Error(t, repo.SaveHistory(context.Background(), nil))
}

func TestMemoryKVStore_CopiesValues(t *testing.T) {
	store := NewMemoryKVStore()
	ctx := context.Background()
	value := []byte(`{"a":1}`)

	require.NoError(t, store.Save(ctx, "k", value))
	value[0] = 'x'

	got, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
	assert.NoError(t, store.Ping(ctx))
}
