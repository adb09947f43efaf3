package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(250 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}
	var zero T
	return zero
}

func TestBus_RequestsReachEverySubscriber(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	a, unsubA := bus.Requests.Subscribe(1)
	defer unsubA()
	b, unsubB := bus.Requests.Subscribe(1)
	defer unsubB()

	req := BuildRequested{Source: SourceWatch, Path: "src/posts/launch.md"}
	require.NoError(t, bus.Requests.Publish(t.Context(), req))

	assert.Equal(t, req, receive(t, a))
	assert.Equal(t, req, receive(t, b))
}

func TestBus_TopicsAreIndependent(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	builds, unsub := bus.Builds.Subscribe(1)
	defer unsub()

	require.NoError(t, bus.Requests.Publish(t.Context(), BuildRequested{Source: SourceSchedule}))
	require.NoError(t, bus.Builds.Publish(t.Context(), BuildNow{Trigger: SourceSchedule, Cause: CauseImmediate}))

	got := receive(t, builds)
	assert.Equal(t, SourceSchedule, got.Trigger)
	assert.Equal(t, CauseImmediate, got.Cause)
}

func TestTopic_PublishBlocksUntilCanceled(t *testing.T) {
	topic := NewTopic[BuildRequested]("requests")
	defer topic.Close()

	_, unsub := topic.Subscribe(0)
	defer unsub()

	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Millisecond)
	defer cancel()

	err := topic.Publish(ctx, BuildRequested{Source: SourceWatch, Path: "src/index.md"})
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRuntime))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTopic_UnsubscribeReleasesBlockedPublisher(t *testing.T) {
	topic := NewTopic[BuildNow]("builds")
	defer topic.Close()

	ch, unsub := topic.Subscribe(0)
	published := make(chan error, 1)
	go func() { published <- topic.Publish(context.Background(), BuildNow{Requests: 1}) }()

	time.Sleep(20 * time.Millisecond)
	unsub()

	require.NoError(t, receive(t, published))
	_, open := <-ch
	assert.False(t, open)
}

func TestTopic_Close(t *testing.T) {
	topic := NewTopic[BuildNow]("builds")
	ch, _ := topic.Subscribe(1)
	topic.Close()
	topic.Close()

	_, open := <-ch
	assert.False(t, open)
	assert.Error(t, topic.Publish(t.Context(), BuildNow{}))

	late, _ := topic.Subscribe(1)
	_, open = <-late
	assert.False(t, open)
}
