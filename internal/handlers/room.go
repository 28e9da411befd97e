package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/talkspace/backend/internal/auth"
	"github.com/talkspace/backend/internal/models"
	"github.com/talkspace/backend/internal/store"
)

// RoomHandler is the writable surface of the room/membership directory:
// DM get-or-create, group creation, member adds and room soft delete.
type RoomHandler struct {
	store *store.Store
}

// NewRoomHandler creates a new RoomHandler instance.
func NewRoomHandler(st *store.Store) *RoomHandler {
	return &RoomHandler{store: st}
}

// GetOrCreateDirectRoom handles POST /api/rooms/direct
// Returns the two-party room for the caller and peer, creating it on first
// use. Both orders of the pair and repeated calls yield the same room.
func (h *RoomHandler) GetOrCreateDirectRoom(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	var req models.DirectRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PeerID == "" {
		http.Error(w, "peer_id is required", http.StatusBadRequest)
		return
	}
	if _, err := h.store.GetUser(req.PeerID); err != nil {
		http.Error(w, "peer not found", http.StatusNotFound)
		return
	}

	room, err := h.store.GetOrCreateDirectRoom(identity.UserID, req.PeerID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

// CreateRoom handles POST /api/rooms
// Creates a group room with the caller and the listed members.
func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	var req models.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	room, err := h.store.CreateGroupRoom(req.Name, identity.UserID, req.MemberIDs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, room)
}

// GetRoom handles GET /api/rooms/{id}
// Returns the room and its member list.
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	room, err := h.store.GetRoom(roomID)
	if err != nil || room.IsDeleted {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	members, err := h.store.RoomMembers(roomID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"room":    room,
		"members": members,
	})
}

// AddMember handles POST /api/rooms/{id}/members
// Only existing members may add users; adding an existing member is a no-op.
func (h *RoomHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	roomID := chi.URLParam(r, "id")
	var req models.AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	member, err := h.store.IsRoomMember(identity.UserID, roomID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !member {
		http.Error(w, "not a room member", http.StatusForbidden)
		return
	}

	if err := h.store.AddRoomMember(roomID, req.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteRoom handles DELETE /api/rooms/{id}
// Soft delete: history is preserved, new connections are refused.
func (h *RoomHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Error(w, "authorization required", http.StatusUnauthorized)
		return
	}

	roomID := chi.URLParam(r, "id")
	member, err := h.store.IsRoomMember(identity.UserID, roomID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !member {
		http.Error(w, "not a room member", http.StatusForbidden)
		return
	}

	if err := h.store.SoftDeleteRoom(roomID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
