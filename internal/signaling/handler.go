package signaling

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the rendezvous store over REST for browser peers.
type Handler struct {
	store *Store
}

// NewHandler creates a signaling handler backed by store.
func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

// Routes mounts the signaling endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/offer", h.CreateOffer)
	r.Get("/offer/{peerID}", h.GetOffer)
	r.Post("/answer", h.CreateAnswer)
	r.Get("/answer/{peerID}", h.GetAnswer)
	r.Post("/ice/{peerID}", h.AddIceCandidate)
	r.Get("/ice/{peerID}", h.GetIceCandidates)
}

type offerRequest struct {
	SDP      string `json:"sdp"`
	CallerID string `json:"caller_id"`
	TargetID string `json:"target_id"`
}

type answerRequest struct {
	SDP      string `json:"sdp"`
	CallerID string `json:"caller_id"`
}

type iceRequest struct {
	Candidate string `json:"candidate"`
}

// CreateOffer handles POST /api/signal/offer
// Stores an SDP offer for the target peer, replacing any prior negotiation.
func (h *Handler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var req offerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SDP == "" || req.CallerID == "" || req.TargetID == "" {
		writeError(w, http.StatusBadRequest, "sdp, caller_id and target_id are required")
		return
	}

	h.store.PutOffer(req.TargetID, req.SDP, req.CallerID)
	writeJSON(w, http.StatusCreated, map[string]string{"status": "offer stored"})
}

// GetOffer handles GET /api/signal/offer/{peerID}
// A 404 here just means the caller polled before the offer arrived.
func (h *Handler) GetOffer(w http.ResponseWriter, r *http.Request) {
	peerID := chi.URLParam(r, "peerID")
	offer, ok := h.store.GetOffer(peerID)
	if !ok {
		writeError(w, http.StatusNotFound, "no offer for peer")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"sdp":    offer.SDP,
		"caller": offer.Caller,
	})
}

// CreateAnswer handles POST /api/signal/answer
// Fails if the caller never placed an offer.
func (h *Handler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SDP == "" || req.CallerID == "" {
		writeError(w, http.StatusBadRequest, "sdp and caller_id are required")
		return
	}

	if !h.store.PutAnswer(req.CallerID, req.SDP) {
		writeError(w, http.StatusNotFound, "no offer for peer")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "answer stored"})
}

// GetAnswer handles GET /api/signal/answer/{peerID}
func (h *Handler) GetAnswer(w http.ResponseWriter, r *http.Request) {
	peerID := chi.URLParam(r, "peerID")
	answer, ok := h.store.GetAnswer(peerID)
	if !ok {
		writeError(w, http.StatusNotFound, "no answer for peer")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"sdp": answer})
}

// AddIceCandidate handles POST /api/signal/ice/{peerID}
func (h *Handler) AddIceCandidate(w http.ResponseWriter, r *http.Request) {
	peerID := chi.URLParam(r, "peerID")
	var req iceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Candidate == "" {
		writeError(w, http.StatusBadRequest, "candidate is required")
		return
	}

	h.store.AddIceCandidate(peerID, req.Candidate)
	writeJSON(w, http.StatusCreated, map[string]string{"status": "candidate stored"})
}

// GetIceCandidates handles GET /api/signal/ice/{peerID}
// Returns the full queue; candidates are never drained server-side.
func (h *Handler) GetIceCandidates(w http.ResponseWriter, r *http.Request) {
	peerID := chi.URLParam(r, "peerID")
	candidates := h.store.GetIceCandidates(peerID)
	if candidates == nil {
		candidates = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"candidates": candidates})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
