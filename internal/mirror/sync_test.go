package mirror

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/textcal/internal/calendar"
	"github.com/teemow/textcal/internal/executor"
	"github.com/teemow/textcal/internal/plan"
)

func strPtr(s string) *string { return &s }

func TestSynchronizer_CreateUsesRemoteValues(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	sync := NewSynchronizer(store)

	op := plan.NewCreate(plan.EventInput{
		Title:   strPtr("lunch"),
		StartAt: plan.MustParseTimestamp("2025-03-01T12:00:00"),
		EndAt:   plan.MustParseTimestamp("2025-03-01T13:00:00"),
	})
	out := executor.Outcome{
		Operation:  op,
		Status:     executor.StatusSuccess,
		RemoteID:   "evt-1",
		RemoteLink: "https://cal/evt-1",
		Event: &calendar.RemoteEvent{
			ID:          "evt-1",
			Summary:     "Lunch",
			Description: "with Sam",
			Start:       calendar.EventTime{DateTime: "2025-03-01T12:00:00+01:00"},
			End:         calendar.EventTime{DateTime: "2025-03-01T13:00:00+01:00"},
		},
	}
	require.NoError(t, sync.Sync(ctx, "primary", out))

	got, err := store.Get(ctx, "primary", "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "Lunch", got.Name)
	assert.Equal(t, "with Sam", got.Description)
	assert.Equal(t, "2025-03-01T12:00:00+01:00", got.StartTime)
	assert.Equal(t, "https://cal/evt-1", got.Link)
}

func TestSynchronizer_RepeatedSyncKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	sync := NewSynchronizer(store)

	out := executor.Outcome{
		Operation: plan.NewUpdate("evt-1", plan.PartialEventInput{Title: strPtr("Standup")}),
		Status:    executor.StatusSuccess,
		RemoteID:  "evt-1",
		Event:     &calendar.RemoteEvent{ID: "evt-1", Summary: "Standup", Start: calendar.EventTime{Date: "2025-03-03"}},
	}
	require.NoError(t, sync.Sync(ctx, "primary", out))
	require.NoError(t, sync.Sync(ctx, "primary", out))

	list, err := store.List(ctx, "primary")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2025-03-03", list[0].StartTime)
}

func TestSynchronizer_ResyncLeavesRowIdentical(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	sync := NewSynchronizer(store)

	out := executor.Outcome{
		Operation:  plan.NewUpdate("evt-1", plan.PartialEventInput{Title: strPtr("Standup")}),
		Status:     executor.StatusSuccess,
		RemoteID:   "evt-1",
		RemoteLink: "https://cal/evt-1",
		Event: &calendar.RemoteEvent{
			ID:         "evt-1",
			Summary:    "Standup",
			Start:      calendar.EventTime{DateTime: "2025-03-03T09:00:00Z"},
			End:        calendar.EventTime{DateTime: "2025-03-03T09:15:00Z"},
			Recurrence: []string{"RRULE:FREQ=DAILY"},
		},
	}

	require.NoError(t, sync.Sync(ctx, "primary", out))
	first, err := store.Get(ctx, "primary", "evt-1")
	require.NoError(t, err)

	require.NoError(t, sync.Sync(ctx, "primary", out))
	second, err := store.Get(ctx, "primary", "evt-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, ExportICS("primary", []Record{*first}), ExportICS("primary", []Record{*second}))

	// A real change moves the timestamp.
	out.Event.Summary = "Daily standup"
	require.NoError(t, sync.Sync(ctx, "primary", out))
	third, err := store.Get(ctx, "primary", "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "Daily standup", third.Name)
	assert.True(t, third.UpdatedAt.After(second.UpdatedAt))
}

func TestSynchronizer_UpdateWithoutBodyMergesFields(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	sync := NewSynchronizer(store)

	require.NoError(t, store.Upsert(ctx, &Record{
		CalendarID: "primary", RemoteEventID: "evt-1", Name: "Keep",
		StartTime: "2025-03-01T10:00:00Z", EndTime: "2025-03-01T11:00:00Z",
	}))

	out := executor.Outcome{
		Operation: plan.NewUpdate("evt-1", plan.PartialEventInput{Location: strPtr("Room 2")}),
		Status:    executor.StatusSuccess,
		RemoteID:  "evt-1",
	}
	require.NoError(t, sync.Sync(ctx, "primary", out))

	got, err := store.Get(ctx, "primary", "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "Keep", got.Name)
	assert.Equal(t, "2025-03-01T10:00:00Z", got.StartTime)
	assert.Equal(t, "2025-03-01T11:00:00Z", got.EndTime)
	assert.Equal(t, "Room 2", got.Location)

	// An event that was never mirrored gets a row with the fields that were set.
	newStart := plan.MustParseTimestamp("2025-03-05T08:00:00Z")
	out = executor.Outcome{
		Operation: plan.NewUpdate("evt-2", plan.PartialEventInput{Title: strPtr("Moved"), StartAt: &newStart}),
		Status:    executor.StatusSuccess,
		RemoteID:  "evt-2",
	}
	require.NoError(t, sync.Sync(ctx, "primary", out))

	got, err = store.Get(ctx, "primary", "evt-2")
	require.NoError(t, err)
	assert.Equal(t, "Moved", got.Name)
	assert.Equal(t, "2025-03-05T08:00:00Z", got.StartTime)
}

func TestSynchronizer_Delete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	sync := NewSynchronizer(store)

	require.NoError(t, store.Upsert(ctx, &Record{CalendarID: "primary", RemoteEventID: "evt-1"}))

	del := executor.Outcome{Operation: plan.NewDelete("evt-1"), Status: executor.StatusSuccess, RemoteID: "evt-1"}
	require.NoError(t, sync.Sync(ctx, "primary", del))
	// Deleting an event that was never mirrored is fine too.
	require.NoError(t, sync.Sync(ctx, "primary", del))

	_, err := store.Get(ctx, "primary", "evt-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSynchronizer_IgnoresFailures(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	sync := NewSynchronizer(store)

	require.NoError(t, store.Upsert(ctx, &Record{CalendarID: "primary", RemoteEventID: "evt-1", Name: "Keep"}))

	failed := executor.Outcome{Operation: plan.NewDelete("evt-1"), Status: executor.StatusFailure, RemoteID: "evt-1", Error: "Forbidden"}
	require.NoError(t, sync.Sync(ctx, "primary", failed))

	got, err := store.Get(ctx, "primary", "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "Keep", got.Name)
}

func TestSynchronizer_FallsBackToPlanValues(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	out := executor.Outcome{
		Operation: plan.NewCreate(plan.EventInput{
			Title:    strPtr("Dentist"),
			Location: strPtr("Main St"),
			StartAt:  plan.MustParseTimestamp("2025-03-04T15:00:00Z"),
			EndAt:    plan.MustParseTimestamp("2025-03-04T16:00:00Z"),
		}),
		Status:   executor.StatusSuccess,
		RemoteID: "evt-9",
	}
	require.NoError(t, NewSynchronizer(store).Sync(ctx, "primary", out))

	got, err := store.Get(ctx, "primary", "evt-9")
	require.NoError(t, err)
	assert.Equal(t, "Dentist", got.Name)
	assert.Equal(t, "Main St", got.Location)
	assert.Equal(t, "2025-03-04T15:00:00Z", got.StartTime)
}

// The executor accepts the Synchronizer as its mirror.
var _ executor.Mirror = (*Synchronizer)(nil)
