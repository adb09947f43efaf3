package eventstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_EmitAndReadBack(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	started, err := NewBuildStarted(testBuildID, "watch")
	require.NoError(t, err)
	hook, err := NewHookCompleted(testBuildID, "before", "favicons", 250*time.Millisecond, "")
	require.NoError(t, err)
	require.NoError(t, Emit(ctx, store, started))
	require.NoError(t, Emit(ctx, store, hook))

	events, err := store.GetByBuildID(ctx, testBuildID)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, TypeBuildStarted, events[0].Type())
	assert.Equal(t, TypeHookCompleted, events[1].Type())
	assert.JSONEq(t, string(started.Payload()), string(events[0].Payload()))
	assert.WithinDuration(t, time.Now(), events[0].Timestamp(), time.Minute)

	first, ok := events[0].(*Record)
	require.True(t, ok)
	second := events[1].(*Record)
	assert.Positive(t, first.Seq)
	assert.Greater(t, second.Seq, first.Seq)

	var payload struct {
		Step string `json:"step"`
	}
	require.True(t, decode(events[1], &payload))
	assert.Equal(t, "favicons", payload.Step)
}

func TestSQLiteStore_GetRange(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()
	before := time.Now().Add(-time.Second)

	for _, id := range []string{"build-1", "build-2", "build-3"} {
		e, err := NewBuildStarted(id, "schedule")
		require.NoError(t, err)
		require.NoError(t, Emit(ctx, store, e))
	}

	events, err := store.GetRange(ctx, before, time.Now().Add(time.Second))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "build-1", events[0].BuildID())
	assert.Equal(t, "build-3", events[2].BuildID())

	events, err = store.GetRange(ctx, before.Add(-time.Hour), before)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSQLiteStore_SeparatesBuilds(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, store.Append(ctx, "build-1", TypeBuildStarted, []byte(`{"trigger":"cli"}`)))
	require.NoError(t, store.Append(ctx, "build-2", TypeBuildStarted, []byte(`{"trigger":"watch"}`)))
	require.NoError(t, store.Append(ctx, "build-1", TypeBuildFailed, []byte(`{"stage":"load"}`)))

	events, err := store.GetByBuildID(ctx, "build-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, TypeBuildFailed, events[1].Type())

	events, err = store.GetByBuildID(ctx, "build-2")
	require.NoError(t, err)
	assert.Len(t, events, 1)

	events, err = store.GetByBuildID(ctx, "nope")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSQLiteStore_ClosedStoreFails(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Append(t.Context(), "b", TypeBuildStarted, []byte(`{}`))
	require.Error(t, err)
}
