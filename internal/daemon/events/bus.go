package events

import (
	"context"
	"sync"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// Bus carries the daemon's control flow: the watcher and the scheduler publish
// Requests, the debouncer turns them into Builds for the rebuild loop. Nothing
// is persisted; build history lives in internal/eventstore.
type Bus struct {
	Requests *Topic[BuildRequested]
	Builds   *Topic[BuildNow]
}

func NewBus() *Bus {
	return &Bus{
		Requests: NewTopic[BuildRequested]("build_requested"),
		Builds:   NewTopic[BuildNow]("build_now"),
	}
}

// Close closes both topics and every subscription channel.
func (b *Bus) Close() {
	b.Requests.Close()
	b.Builds.Close()
}

// Topic fans out values of one event type. Publish blocks until every
// subscriber took the value, the subscriber left, ctx is done or the topic
// is closed.
type Topic[T any] struct {
	name string
	done chan struct{}

	mu     sync.RWMutex
	subs   map[int]*subscription[T]
	nextID int
	closed bool
	once   sync.Once
}

type subscription[T any] struct {
	ch   chan T
	gone chan struct{}
	once sync.Once
}

func NewTopic[T any](name string) *Topic[T] {
	return &Topic[T]{name: name, done: make(chan struct{}), subs: make(map[int]*subscription[T])}
}

// Subscribe returns a channel receiving every value published from now on and
// a function that ends the subscription and closes the channel.
func (t *Topic[T]) Subscribe(buffer int) (<-chan T, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &subscription[T]{ch: make(chan T, buffer), gone: make(chan struct{})}
	if t.closed {
		close(s.ch)
		return s.ch, func() {}
	}
	id := t.nextID
	t.nextID++
	t.subs[id] = s

	return s.ch, func() {
		// Release a publisher blocked on this subscriber before taking the lock.
		s.once.Do(func() { close(s.gone) })
		t.mu.Lock()
		defer t.mu.Unlock()
		if _, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(s.ch)
		}
	}
}

// Publish delivers v to every subscriber.
func (t *Topic[T]) Publish(ctx context.Context, v T) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return ferrors.RuntimeError("event topic is closed").WithContext("topic", t.name).Build()
	}
	for _, s := range t.subs {
		select {
		case s.ch <- v:
		case <-s.gone:
		case <-t.done:
			return ferrors.RuntimeError("event topic is closed").WithContext("topic", t.name).Build()
		case <-ctx.Done():
			return ferrors.WrapError(ctx.Err(), ferrors.CategoryRuntime, "event publish canceled").
				WithContext("topic", t.name).
				Build()
		}
	}
	return nil
}

// Close ends all subscriptions. Publishing afterwards fails.
func (t *Topic[T]) Close() {
	t.once.Do(func() {
		close(t.done)
		t.mu.Lock()
		defer t.mu.Unlock()
		t.closed = true
		for id, s := range t.subs {
			delete(t.subs, id)
			close(s.ch)
		}
	})
}
