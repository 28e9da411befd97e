package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub is the process-wide room registry: it maps room IDs to the set of live
// client connections and fans broadcast events out to them. All state is
// owned by the Run loop; sessions and REST handlers interact with it only
// through channels, so no caller-side locking is needed.
type Hub struct {
	// rooms maps roomID to the set of clients joined to that room
	rooms map[string]map[*Client]bool

	// register requests from clients
	register chan *Client

	// unregister requests from clients
	unregister chan *Client

	// broadcast delivers an encoded event to a room
	broadcast chan *roomBroadcast

	// mutex guards rooms for reads outside the Run loop
	mu sync.RWMutex
}

// roomBroadcast is one fan-out request.
type roomBroadcast struct {
	RoomID  string
	Payload []byte
	Exclude *Client
}

// NewHub creates an empty registry.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomBroadcast),
	}
}

// Run starts the hub's main event loop.
// This should be called in a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.join(client)

		case client := <-h.unregister:
			h.leave(client)

		case b := <-h.broadcast:
			h.fanOut(b)
		}
	}
}

// BroadcastEvent encodes ev and delivers it to every client joined to roomID.
// A nil exclude delivers to all members, including the author's own
// connection. Broadcasting to an empty room is a silent no-op.
func (h *Hub) BroadcastEvent(roomID string, ev Event, exclude *Client) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[Hub] Failed to encode %s event for room %s: %v", ev.Action, roomID, err)
		return
	}
	h.broadcast <- &roomBroadcast{RoomID: roomID, Payload: payload, Exclude: exclude}
}

// RoomClientCount returns the number of connected clients in a room.
func (h *Hub) RoomClientCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// join adds a client to its room's set. Joining twice is a no-op: the set is
// keyed by client identity, so a duplicate register never doubles delivery.
func (h *Hub) join(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[client.RoomID] == nil {
		h.rooms[client.RoomID] = make(map[*Client]bool)
	}

	h.rooms[client.RoomID][client] = true
	log.Printf("[Hub] Client joined room %s (total: %d)", client.RoomID, len(h.rooms[client.RoomID]))
}

// leave removes a client and prunes the room entry once it empties, so room
// churn does not grow the table without bound.
func (h *Hub) leave(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[client.RoomID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}

	delete(clients, client)
	client.closeSend()
	log.Printf("[Hub] Client left room %s (remaining: %d)", client.RoomID, len(clients))

	if len(clients) == 0 {
		delete(h.rooms, client.RoomID)
	}
}

// fanOut delivers a payload to every joined client. Delivery is per-recipient
// fire-and-forget: a client whose outbound queue is full is evicted rather
// than awaited, so one slow consumer never stalls the rest of the room.
func (h *Hub) fanOut(b *roomBroadcast) {
	h.mu.RLock()
	clients := h.rooms[b.RoomID]
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	for client := range clients {
		if b.Exclude != nil && client == b.Exclude {
			continue
		}

		if !client.enqueue(b.Payload) {
			log.Printf("[Hub] Dropping slow client in room %s", b.RoomID)
			h.leave(client)
		}
	}
}
