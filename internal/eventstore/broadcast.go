package eventstore

import (
	"sync"

	"github.com/google/uuid"

	"github.com/escplay/escplay/internal/display"
)

// subscriberCapacity bounds each subscriber's backlog of unconsumed
// live events. Once full, the oldest queued event is dropped to make
// room for the newest one, trading completeness for a bounded memory
// footprint when a subscriber's WebSocket write falls behind.
const subscriberCapacity = 10000

// Broadcaster fans every published event out to all currently
// registered subscribers.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[uuid.UUID]chan display.Event
}

// NewBroadcaster returns an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[uuid.UUID]chan display.Event)}
}

// Subscribe registers a new subscriber and returns its id, its event
// channel, and an unsubscribe func the caller must call exactly once
// when it stops reading (typically on WebSocket disconnect).
func (b *Broadcaster) Subscribe() (uuid.UUID, <-chan display.Event, func()) {
	id := uuid.New()
	ch := make(chan display.Event, subscriberCapacity)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
	}
	return id, ch, unsubscribe
}

// Publish delivers ev to every current subscriber, dropping the oldest
// queued event for any subscriber whose channel is currently full.
func (b *Broadcaster) Publish(ev display.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// SubscriberCount reports how many subscribers are currently registered.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
