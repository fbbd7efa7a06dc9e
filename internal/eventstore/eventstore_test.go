package eventstore

import (
	"strconv"
	"testing"
	"time"

	"github.com/escplay/escplay/internal/display"
)

func TestHistoryAppendAndCoalesce(t *testing.T) {
	h := NewHistory()

	h.Append(nil, false) // no-op on empty input

	h.Append([]display.Event{{Kind: display.EventPrint, String: "h"}}, false)
	if h.Len() != 1 {
		t.Fatalf("len = %d, want 1", h.Len())
	}

	h.Append([]display.Event{{Kind: display.EventPrint, String: "hi"}}, true)
	if h.Len() != 1 {
		t.Fatalf("len = %d, want 1 (coalesced)", h.Len())
	}

	chunks := h.Snapshot(10)
	if len(chunks) != 1 || len(chunks[0]) != 1 || chunks[0][0].String != "hi" {
		t.Fatalf("snapshot = %+v, want single chunk with %q", chunks, "hi")
	}
}

func TestHistorySnapshotChunking(t *testing.T) {
	h := NewHistory()
	for i := 0; i < 250; i++ {
		h.Append([]display.Event{{Kind: display.EventPrint, String: "x"}}, false)
	}

	chunks := h.Snapshot(100)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if len(chunks[0]) != 100 || len(chunks[1]) != 100 || len(chunks[2]) != 50 {
		t.Fatalf("chunk sizes = %d/%d/%d, want 100/100/50", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}

func TestBroadcasterDeliversToAllSubscribers(t *testing.T) {
	b := NewBroadcaster()

	_, ch1, unsub1 := b.Subscribe()
	defer unsub1()
	_, ch2, unsub2 := b.Subscribe()
	defer unsub2()

	b.Publish(display.Event{Kind: display.EventPrint, String: "hello"})

	for _, ch := range []<-chan display.Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.String != "hello" {
				t.Errorf("got %+v, want String=hello", ev)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive published event")
		}
	}
}

func TestBroadcasterUnsubscribeRemoves(t *testing.T) {
	b := NewBroadcaster()
	_, _, unsub := b.Subscribe()
	if b.SubscriberCount() != 1 {
		t.Fatalf("count = %d, want 1", b.SubscriberCount())
	}
	unsub()
	if b.SubscriberCount() != 0 {
		t.Fatalf("count = %d, want 0 after unsubscribe", b.SubscriberCount())
	}
}

func TestBroadcasterDropsOldestWhenFull(t *testing.T) {
	b := NewBroadcaster()
	_, ch, unsub := b.Subscribe()
	defer unsub()

	for i := 0; i < subscriberCapacity+10; i++ {
		b.Publish(display.Event{Kind: display.EventPrint, String: strconv.Itoa(i)})
	}

	// Channel should be full but not blocked; draining it should not
	// panic or deadlock, should yield at most its capacity, and should
	// start at event 10, the first 10 having been dropped as oldest.
	count := 0
	for {
		select {
		case ev := <-ch:
			if count == 0 && ev.String != "10" {
				t.Fatalf("first queued event = %q, want %q (oldest dropped)", ev.String, "10")
			}
			count++
		default:
			if count > subscriberCapacity {
				t.Fatalf("drained %d events, want at most capacity %d", count, subscriberCapacity)
			}
			return
		}
	}
}
