// Package fanout serves the /events WebSocket endpoint: each connected
// client is first replayed the full recorded history in chunks (Phase
// A), then switched to a throttled live stream of newly published
// events (Phase B), batched every 100ms to cut down on render churn in
// the browser.
package fanout

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/escplay/escplay/internal/display"
	"github.com/escplay/escplay/internal/eventstore"
)

// replayChunkSize bounds how many events are sent per WebSocket
// message during Phase A, so a long-running session's backlog doesn't
// arrive as a single enormous frame.
const replayChunkSize = 100

// throttleInterval is how often a connected client's live batch is
// flushed during Phase B.
const throttleInterval = 100 * time.Millisecond

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The web UI is always served from this same process, so there is
	// no cross-origin client to guard against.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades incoming requests to WebSocket connections and
// streams them history plus live events.
type Handler struct {
	logger      *slog.Logger
	history     *eventstore.History
	broadcaster *eventstore.Broadcaster
}

// New returns a Handler backed by history and broadcaster.
func New(logger *slog.Logger, history *eventstore.History, broadcaster *eventstore.Broadcaster) *Handler {
	return &Handler{logger: logger, history: history, broadcaster: broadcaster}
}

// ServeHTTP implements http.Handler, upgrading the request and running
// the subscriber's send loop until it disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	id, live, unsubscribe := h.broadcaster.Subscribe()
	defer unsubscribe()

	logger := h.logger.With("subscriber", id)
	logger.Info("subscriber connected")

	if err := h.replayHistory(conn); err != nil {
		logger.Info("subscriber disconnected during replay", "error", err)
		return
	}

	if err := h.streamLive(conn, live); err != nil {
		logger.Info("subscriber disconnected", "error", err)
	}
}

// replayHistory sends every already-recorded event to conn, in chunks,
// before the live stream begins.
func (h *Handler) replayHistory(conn *websocket.Conn) error {
	for _, chunk := range h.history.Snapshot(replayChunkSize) {
		if err := writeJSON(conn, chunk); err != nil {
			return err
		}
	}
	return nil
}

// streamLive batches events arriving on live and flushes the batch to
// conn every throttleInterval, re-coalescing consecutive prints within
// a batch the same way the classifier coalesces them as they occur.
// It returns once the connection's write side errors, which normally
// means the client disconnected.
func (h *Handler) streamLive(conn *websocket.Conn, live <-chan display.Event) error {
	ticker := time.NewTicker(throttleInterval)
	defer ticker.Stop()

	var batch []display.Event

	for {
		select {
		case ev, ok := <-live:
			if !ok {
				return nil
			}
			batch = appendCoalesced(batch, ev)

		case <-ticker.C:
			if len(batch) == 0 {
				continue
			}
			if err := writeJSON(conn, batch); err != nil {
				return err
			}
			batch = nil
		}
	}
}

// appendCoalesced appends ev to batch, merging it into the last
// element when both are Print events, matching the classifier's own
// print-coalescing so a burst of single-character prints that arrived
// as separate events still renders as one string client-side. Only the
// string grows; the existing entry's colours are left as they were,
// since a colour change always ends a coalescing run on the classifier
// side and would arrive as its own event.
func appendCoalesced(batch []display.Event, ev display.Event) []display.Event {
	if ev.Kind == display.EventPrint && len(batch) > 0 {
		last := &batch[len(batch)-1]
		if last.Kind == display.EventPrint {
			last.String += ev.String
			return batch
		}
	}
	return append(batch, ev)
}

func writeJSON(conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
