package ws

import (
	"encoding/json"
	"testing"
	"time"
)

func testClient(h *Hub, roomID string, queue int) *Client {
	return &Client{
		hub:    h,
		send:   make(chan []byte, queue),
		RoomID: roomID,
	}
}

func TestHub_JoinIsIdempotent(t *testing.T) {
	h := NewHub()
	c := testClient(h, "general", 1)

	h.join(c)
	h.join(c)

	if got := h.RoomClientCount("general"); got != 1 {
		t.Errorf("RoomClientCount() = %d, want 1 after duplicate join", got)
	}
}

func TestHub_LeavePrunesEmptyRoom(t *testing.T) {
	h := NewHub()
	c1 := testClient(h, "general", 1)
	c2 := testClient(h, "general", 1)

	h.join(c1)
	h.join(c2)
	h.leave(c1)

	if got := h.RoomClientCount("general"); got != 1 {
		t.Fatalf("RoomClientCount() = %d, want 1", got)
	}

	h.leave(c2)
	h.mu.RLock()
	_, exists := h.rooms["general"]
	h.mu.RUnlock()
	if exists {
		t.Error("empty room entry should be pruned")
	}

	// Leaving again must not panic or double-close the send channel
	h.leave(c2)
}

func TestHub_FanOutEmptyRoomIsNoOp(t *testing.T) {
	h := NewHub()
	// Must not panic or block
	h.fanOut(&roomBroadcast{RoomID: "nobody-home", Payload: []byte("{}")})
}

func TestHub_FanOutDeliversToAllJoined(t *testing.T) {
	h := NewHub()
	clients := []*Client{
		testClient(h, "general", 4),
		testClient(h, "general", 4),
		testClient(h, "general", 4),
	}
	other := testClient(h, "elsewhere", 4)
	for _, c := range clients {
		h.join(c)
	}
	h.join(other)

	payload := []byte(`{"action":"create"}`)
	h.fanOut(&roomBroadcast{RoomID: "general", Payload: payload})

	for i, c := range clients {
		select {
		case got := <-c.send:
			if string(got) != string(payload) {
				t.Errorf("client %d got %s, want %s", i, got, payload)
			}
		default:
			t.Errorf("client %d received nothing", i)
		}
	}
	select {
	case <-other.send:
		t.Error("client in another room received the broadcast")
	default:
	}
}

func TestHub_FanOutSkipsExcluded(t *testing.T) {
	h := NewHub()
	sender := testClient(h, "general", 4)
	peer := testClient(h, "general", 4)
	h.join(sender)
	h.join(peer)

	h.fanOut(&roomBroadcast{RoomID: "general", Payload: []byte("{}"), Exclude: sender})

	select {
	case <-sender.send:
		t.Error("excluded sender received the broadcast")
	default:
	}
	select {
	case <-peer.send:
	default:
		t.Error("peer received nothing")
	}
}

func TestHub_SlowClientDoesNotStallOthers(t *testing.T) {
	h := NewHub()
	c1 := testClient(h, "general", 4)
	slow := testClient(h, "general", 1)
	c3 := testClient(h, "general", 4)
	h.join(c1)
	h.join(slow)
	h.join(c3)

	// Fill the slow client's outbound queue
	slow.send <- []byte("backlog")

	h.fanOut(&roomBroadcast{RoomID: "general", Payload: []byte(`{"n":1}`)})

	for i, c := range []*Client{c1, c3} {
		select {
		case <-c.send:
		default:
			t.Errorf("healthy client %d received nothing", i)
		}
	}

	// The slow client is evicted rather than awaited
	if got := h.RoomClientCount("general"); got != 2 {
		t.Errorf("RoomClientCount() = %d, want 2 after eviction", got)
	}
}

func TestHub_EvictedClientWritesAreDropped(t *testing.T) {
	h := NewHub()
	slow := testClient(h, "general", 1)
	peer := testClient(h, "general", 4)
	h.join(slow)
	h.join(peer)

	slow.send <- []byte("backlog")
	h.fanOut(&roomBroadcast{RoomID: "general", Payload: []byte("{}")})

	if got := h.RoomClientCount("general"); got != 1 {
		t.Fatalf("RoomClientCount() = %d, want 1 after eviction", got)
	}

	// The send channel is closed now; a late write from the read side must
	// be a silent drop, not a send on a closed channel
	slow.sendError("too slow")
	slow.sendFrame(&ErrorFrame{Error: "again"})

	// The normal disconnect path still runs after eviction without
	// double-closing
	h.leave(slow)
}

func TestHub_EvictionPrunesEmptyRoom(t *testing.T) {
	h := NewHub()
	slow := testClient(h, "general", 1)
	h.join(slow)

	slow.send <- []byte("backlog")
	h.fanOut(&roomBroadcast{RoomID: "general", Payload: []byte("{}")})

	h.mu.RLock()
	_, exists := h.rooms["general"]
	h.mu.RUnlock()
	if exists {
		t.Error("room entry should be pruned after its last client is evicted")
	}

	// A fresh join after the prune starts a new room set
	c := testClient(h, "general", 4)
	h.join(c)
	if got := h.RoomClientCount("general"); got != 1 {
		t.Errorf("RoomClientCount() = %d, want 1 after rejoin", got)
	}
}

func TestHub_RunLoopBroadcastEvent(t *testing.T) {
	h := NewHub()
	go h.Run()

	c := testClient(h, "general", 4)
	h.register <- c

	deadline := time.After(time.Second)
	for h.RoomClientCount("general") != 1 {
		select {
		case <-deadline:
			t.Fatal("client never registered")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	h.BroadcastEvent("general", Event{Action: ActionCreate, ID: "m1", Room: "general", Message: "hi"}, nil)

	select {
	case payload := <-c.send:
		var ev Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			t.Fatalf("broadcast payload is not a valid event: %v", err)
		}
		if ev.Action != ActionCreate || ev.ID != "m1" || ev.Message != "hi" {
			t.Errorf("got event %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast never delivered")
	}

	h.unregister <- c
	deadline = time.After(time.Second)
	for h.RoomClientCount("general") != 0 {
		select {
		case <-deadline:
			t.Fatal("client never unregistered")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}
