package fanout

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/escplay/escplay/internal/display"
	"github.com/escplay/escplay/internal/eventstore"
)

func newTestServer(t *testing.T) (*httptest.Server, *eventstore.History, *eventstore.Broadcaster) {
	t.Helper()
	history := eventstore.NewHistory()
	broadcaster := eventstore.NewBroadcaster()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(logger, history, broadcaster)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, history, broadcaster
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// decodedEvent mirrors the "type"-tagged JSON shape Event.MarshalJSON
// produces, keeping only the fields these tests inspect.
type decodedEvent struct {
	Type   string `json:"type"`
	String string `json:"string"`
}

func readBatch(t *testing.T, conn *websocket.Conn) []decodedEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	var batch []decodedEvent
	if err := json.Unmarshal(data, &batch); err != nil {
		t.Fatalf("unmarshal batch: %v", err)
	}
	return batch
}

func TestHandlerReplaysHistoryBeforeLive(t *testing.T) {
	srv, history, _ := newTestServer(t)
	history.Append([]display.Event{{Kind: display.EventPrint, String: "backlog"}}, false)

	conn := dial(t, srv)
	batch := readBatch(t, conn)
	if len(batch) != 1 || batch[0].Type != "Print" {
		t.Fatalf("replay batch = %+v, want one Print event", batch)
	}
}

func TestHandlerStreamsLiveEventsAfterReplay(t *testing.T) {
	srv, _, broadcaster := newTestServer(t)
	conn := dial(t, srv)

	// Give the server a moment to register the subscriber before
	// publishing, since Subscribe happens inside ServeHTTP.
	time.Sleep(50 * time.Millisecond)
	broadcaster.Publish(display.Event{Kind: display.EventPrint, String: "live"})

	batch := readBatch(t, conn)
	if len(batch) != 1 || batch[0].Type != "Print" || batch[0].String != "live" {
		t.Fatalf("live batch = %+v, want one Print event with live", batch)
	}
}

func TestAppendCoalescedMergesConsecutivePrints(t *testing.T) {
	var batch []display.Event
	batch = appendCoalesced(batch, display.Event{Kind: display.EventPrint, String: "a"})
	batch = appendCoalesced(batch, display.Event{Kind: display.EventPrint, String: "b"})
	batch = appendCoalesced(batch, display.Event{Kind: display.EventLineBreak, LineTitle: "LF"})
	batch = appendCoalesced(batch, display.Event{Kind: display.EventPrint, String: "c"})

	if len(batch) != 3 {
		t.Fatalf("got %d events, want 3: %+v", len(batch), batch)
	}
	if batch[0].String != "ab" {
		t.Errorf("batch[0].String = %q, want ab", batch[0].String)
	}
	if batch[2].String != "c" {
		t.Errorf("batch[2].String = %q, want c", batch[2].String)
	}
}
