package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// upgrader upgrades HTTP connections to WebSocket
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow connections from any origin (CORS handled by middleware)
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler accepts WebSocket connections and walks them through the session
// lifecycle before handing them to the hub.
type Handler struct {
	hub       *Hub
	resolver  TokenResolver
	messages  MessageStore
	directory Directory
}

// NewHandler creates a WebSocket handler.
func NewHandler(hub *Hub, resolver TokenResolver, messages MessageStore, directory Directory) *Handler {
	return &Handler{hub: hub, resolver: resolver, messages: messages, directory: directory}
}

// ServeWS handles WebSocket upgrade requests at /ws/{roomID}.
// The credential arrives as a 'token' query parameter; a bad token downgrades
// the connection to anonymous rather than failing the handshake, and the join
// policy then decides whether anonymous access is allowed for the room.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if roomID == "" {
		http.Error(w, "room ID required", http.StatusBadRequest)
		return
	}

	token := r.URL.Query().Get("token")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WebSocket] Upgrade failed: %v", err)
		return
	}

	session := NewSession(h.messages, h.directory)
	if err := session.Authenticate(h.resolver, token); err != nil {
		log.Printf("[WebSocket] Authenticate failed: %v", err)
		conn.Close()
		return
	}

	if closeErr := session.Join(roomID); closeErr != nil {
		log.Printf("[WebSocket] Join refused for room %s: %s", roomID, closeErr.Reason)
		conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(closeErr.Code, closeErr.Reason),
			time.Now().Add(writeWait),
		)
		conn.Close()
		session.Close()
		return
	}

	log.Printf("[WebSocket] New connection: room=%s anonymous=%t", roomID, session.Identity().Anonymous)

	client := NewClient(h.hub, conn, session, roomID)
	h.hub.register <- client

	// Start read/write pumps in separate goroutines
	go client.WritePump()
	go client.ReadPump()
}
