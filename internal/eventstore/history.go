// Package eventstore holds the append-only record of every display
// event produced during a session and fans live events out to
// subscribers, decoupling the classifier (one producer) from however
// many WebSocket clients are currently connected.
package eventstore

import (
	"sync"

	"github.com/escplay/escplay/internal/display"
)

// History is the append-only record of every event published during
// the session, kept so a subscriber connecting after the session
// started can be replayed the full backlog before joining the live
// stream.
type History struct {
	mu     sync.RWMutex
	events []display.Event
}

// NewHistory returns an empty History.
func NewHistory() *History {
	return &History{}
}

// Append adds events to the end of the history. If coalesced is true,
// events must contain exactly one event that replaces (rather than
// follows) the previously appended event, mirroring the classifier's
// print-coalescing contract.
func (h *History) Append(events []display.Event, coalesced bool) {
	if len(events) == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if coalesced && len(h.events) > 0 {
		h.events[len(h.events)-1] = events[0]
		return
	}
	h.events = append(h.events, events...)
}

// Snapshot returns a copy of the full history split into chunks of at
// most size events each, for a freshly connected subscriber's Phase A
// replay.
func (h *History) Snapshot(size int) [][]display.Event {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.events) == 0 {
		return nil
	}
	chunks := make([][]display.Event, 0, (len(h.events)+size-1)/size)
	for i := 0; i < len(h.events); i += size {
		end := i + size
		if end > len(h.events) {
			end = len(h.events)
		}
		chunk := make([]display.Event, end-i)
		copy(chunk, h.events[i:end])
		chunks = append(chunks, chunk)
	}
	return chunks
}

// Len reports how many events are currently recorded.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.events)
}
