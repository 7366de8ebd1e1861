package stream

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// DefaultSubscriberBuffer is used when the configured buffer size is missing
// or invalid.
const DefaultSubscriberBuffer = 64

// Publisher is the write side of the bus, the only part request handlers
// need.
type Publisher interface {
	Publish(event Event)
}

// Bus broadcasts session events to every subscriber watching the matching
// session. Each subscription owns its buffered channel, so concurrent
// watchers of the same session all receive every event independently.
//
// The system this replaces pulled all subscribers from one shared queue:
// an event went to whichever subscriber dequeued it first and was dropped
// outright on a session filter mismatch, which lost events as soon as a
// second watcher connected. The fan-out here is the intended behavior; the
// tests document the difference.
type Bus struct {
	mu      sync.Mutex
	nextID  int
	subs    map[int]*subscriber
	bufSize int
}

type subscriber struct {
	sessionID string
	ch        chan Event
}

// NewBus creates a bus whose subscriptions buffer up to bufSize events.
func NewBus(bufSize int) *Bus {
	if bufSize <= 0 {
		bufSize = DefaultSubscriberBuffer
	}
	return &Bus{
		subs:    make(map[int]*subscriber),
		bufSize: bufSize,
	}
}

// Publish delivers the event to every subscription filtered to its session.
// It never blocks: a subscriber whose buffer is full loses this event, and
// only this subscriber does.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, sub := range b.subs {
		if sub.sessionID != event.SessionID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			logrus.WithFields(logrus.Fields{
				"session_id": event.SessionID,
				"event":      event.Event,
				"subscriber": id,
			}).Warn("Subscriber buffer full, event dropped for this subscriber")
		}
	}
}

// Subscribe registers a watcher for one session. The caller must Close the
// subscription when done; events published before Subscribe are not
// replayed.
func (b *Bus) Subscribe(sessionID string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	sub := &subscriber{
		sessionID: sessionID,
		ch:        make(chan Event, b.bufSize),
	}
	b.subs[id] = sub

	logrus.WithFields(logrus.Fields{
		"session_id": sessionID,
		"subscriber": id,
	}).Debug("Stream subscriber registered")

	return &Subscription{bus: b, id: id, ch: sub.ch}
}

// SubscriberCount returns the number of open subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub, ok := b.subs[id]
	if !ok {
		return
	}
	delete(b.subs, id)
	// Publish sends only under the bus lock, so closing here cannot race a
	// concurrent send.
	close(sub.ch)

	logrus.WithField("subscriber", id).Debug("Stream subscriber removed")
}

// Subscription is one registered watcher. Close is idempotent.
type Subscription struct {
	bus  *Bus
	id   int
	ch   chan Event
	once sync.Once
}

// C returns the channel events are delivered on. It is closed by Close.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Close unregisters the subscription and releases its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.unsubscribe(s.id)
	})
}
