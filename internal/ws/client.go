package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 16 * 1024

	// Outbound queue depth per connection; a client that falls this far
	// behind is evicted by the hub rather than awaited
	sendQueueSize = 256
)

// Client binds one WebSocket connection to its session and room.
type Client struct {
	hub *Hub

	// WebSocket connection
	conn *websocket.Conn

	// Buffered channel of outbound frames
	send chan []byte

	// Session drives the connection lifecycle and message validation
	session *Session

	// RoomID is the room this client is joined to
	RoomID string

	// mu guards closed so nothing writes to send after the hub closes it
	mu     sync.Mutex
	closed bool
}

// NewClient creates a client for an accepted connection whose session has
// already joined roomID.
func NewClient(hub *Hub, conn *websocket.Conn, session *Session, roomID string) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendQueueSize),
		session: session,
		RoomID:  roomID,
	}
}

// ReadPump pumps frames from the WebSocket connection through the session.
// It runs in its own goroutine per client; returning triggers the leave and
// close path.
func (c *Client) ReadPump() {
	defer func() {
		c.session.Disconnect()
		c.hub.unregister <- c
		c.conn.Close()
		c.session.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WebSocket] Read error in room %s: %v", c.RoomID, err)
			}
			break
		}
		c.handleFrame(raw)
	}
}

// handleFrame feeds one frame to the session. An unexpected fault becomes a
// one-off error frame to this connection; it never tears the room down.
func (c *Client) handleFrame(raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[WebSocket] Panic handling frame in room %s: %v", c.RoomID, r)
			c.sendError("internal error")
		}
	}()

	ev, errFrame := c.session.HandleInbound(raw)
	if errFrame != nil {
		c.sendFrame(errFrame)
		return
	}
	c.hub.BroadcastEvent(c.RoomID, *ev, nil)
}

func (c *Client) sendError(msg string) {
	c.sendFrame(&ErrorFrame{Error: msg})
}

// sendFrame queues a frame for this connection only. If the queue is full the
// frame is dropped; the hub will evict the connection on the next broadcast.
func (c *Client) sendFrame(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("[WebSocket] Failed to encode frame: %v", err)
		return
	}
	c.enqueue(payload)
}

// enqueue queues a payload without blocking. It reports false only when the
// queue is full; frames for an already-closed client are dropped silently.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound queue exactly once. Only the hub calls this,
// when it removes the client from its room.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// WritePump pumps frames from the hub to the WebSocket connection.
// This runs in its own goroutine per client.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Each frame goes out separately; concatenating would break
			// JSON parsing on the client
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
