package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"github.com/talkspace/backend/internal/auth"
	"github.com/talkspace/backend/internal/models"
	"github.com/talkspace/backend/internal/store"
	"github.com/talkspace/backend/internal/ws"
)

// Broadcaster fans an event out to a room's live connections.
type Broadcaster interface {
	BroadcastEvent(roomID string, ev ws.Event, exclude *ws.Client)
}

// MessageHandler is the REST side channel of the message state machine:
// edits, deletes and file shares arrive here instead of over the socket, but
// they persist and rebroadcast exactly like socket messages. It also serves
// ordered history as a polling fallback.
type MessageHandler struct {
	store     *store.Store
	hub       Broadcaster
	sanitizer *bluemonday.Policy
}

// NewMessageHandler creates a new MessageHandler instance.
func NewMessageHandler(st *store.Store, hub Broadcaster) *MessageHandler {
	return &MessageHandler{
		store:     st,
		hub:       hub,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// EditMessage handles PUT /api/messages/{id}
// Only the original author may edit; the body is replaced in place and the
// room is notified with an edit event.
func (h *MessageHandler) EditMessage(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	messageID := chi.URLParam(r, "id")
	var req models.EditMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	body := strings.TrimSpace(h.sanitizer.Sanitize(req.Message))
	if body == "" {
		http.Error(w, "message cannot be empty", http.StatusBadRequest)
		return
	}

	msg, err := h.store.GetMessage(messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "message not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if msg.UserID != identity.UserID {
		http.Error(w, "only the author may edit a message", http.StatusForbidden)
		return
	}
	if msg.IsDeleted {
		http.Error(w, "message not found", http.StatusNotFound)
		return
	}

	updated, err := h.store.EditMessage(messageID, body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.hub.BroadcastEvent(updated.RoomID, ws.EditEvent(updated, identity), nil)
	writeJSON(w, http.StatusOK, updated)
}

// DeleteMessage handles DELETE /api/messages/{id}
// Soft delete only: the row stays for ordering and history. Deleting twice
// is a no-op.
func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	messageID := chi.URLParam(r, "id")
	msg, err := h.store.GetMessage(messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "message not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if msg.UserID != identity.UserID {
		http.Error(w, "only the author may delete a message", http.StatusForbidden)
		return
	}

	if msg.IsDeleted {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.store.SoftDeleteMessage(messageID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.hub.BroadcastEvent(msg.RoomID, ws.DeleteEvent(msg, identity), nil)
	w.WriteHeader(http.StatusNoContent)
}

// GetMessages handles GET /api/rooms/{id}/messages
// Returns the room's history in creation order. Polling fallback for clients
// whose WebSocket is unavailable.
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	roomID := chi.URLParam(r, "id")
	if !h.authorizeRoom(w, roomID, identity) {
		return
	}

	messages, err := h.store.ListMessages(roomID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, models.GetMessagesResponse{Messages: messages})
}

// ShareFiles handles POST /api/rooms/{id}/files
// Records a message with attached file metadata and broadcasts it. The bytes
// are uploaded to storage elsewhere; only locators pass through here.
func (h *MessageHandler) ShareFiles(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	roomID := chi.URLParam(r, "id")
	if !h.authorizeRoom(w, roomID, identity) {
		return
	}

	var req models.ShareFilesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Files) == 0 {
		http.Error(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	body := strings.TrimSpace(h.sanitizer.Sanitize(req.Message))

	msg, files, err := h.store.CreateMessageWithFiles(roomID, identity.UserID, body, req.Files)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Printf("[Message] Shared %d files in room %s", len(files), roomID)

	h.hub.BroadcastEvent(roomID, ws.CreateEvent(msg, identity), nil)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": msg,
		"files":   files,
	})
}

// authorizeRoom verifies the room exists, is not deleted, and that identity
// may read it. Writes the error response itself and reports the outcome.
func (h *MessageHandler) authorizeRoom(w http.ResponseWriter, roomID string, identity auth.Identity) bool {
	room, err := h.store.GetRoom(roomID)
	if err != nil || room.IsDeleted {
		http.Error(w, "room not found", http.StatusNotFound)
		return false
	}
	if room.IsOpen {
		return true
	}
	member, err := h.store.IsRoomMember(identity.UserID, roomID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return false
	}
	if !member {
		http.Error(w, "not a room member", http.StatusForbidden)
		return false
	}
	return true
}

// writeJSON is a helper function to write JSON responses.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
