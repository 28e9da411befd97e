// Package signaling implements the in-memory rendezvous store two browser
// peers use to exchange WebRTC session descriptions and ICE candidates.
//
// Entries are keyed by caller-supplied peer identifiers with no binding to
// authenticated identity, so any client that knows (or guesses) a peer ID can
// overwrite that peer's pending offer. This matches the behavior of the
// deployed clients and is kept as-is; see DESIGN.md.
//
// The store is process-local and non-durable. Negotiation is short-lived, so
// entries are simply overwritten by the next offer and cleared by a restart.
package signaling

import "sync"

// Offer is a stored SDP offer together with the peer that placed it.
type Offer struct {
	SDP    string
	Caller string
}

type entry struct {
	offer  *Offer
	answer string
	ice    []string
}

// Store holds pending offers, answers and ICE candidate queues per peer.
// All methods are safe for concurrent use by independent request handlers.
type Store struct {
	mu    sync.RWMutex
	peers map[string]*entry
}

// NewStore creates an empty rendezvous store.
func NewStore() *Store {
	return &Store{peers: make(map[string]*entry)}
}

// PutOffer stores an offer for targetPeer, replacing any previous entry.
// A prior answer and any queued ICE candidates for targetPeer are discarded,
// so a renegotiation always starts from a clean slate.
func (s *Store) PutOffer(targetPeer, sdp, callerPeer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[targetPeer] = &entry{
		offer: &Offer{SDP: sdp, Caller: callerPeer},
	}
}

// GetOffer returns the pending offer for peerID. The second return value is
// false when no offer is waiting; polling before the offer arrives is normal.
func (s *Store) GetOffer(peerID string) (Offer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.peers[peerID]
	if !ok || e.offer == nil {
		return Offer{}, false
	}
	return *e.offer, true
}

// PutAnswer stores the answer for callerPeer. It reports false when no offer
// entry exists yet for callerPeer.
func (s *Store) PutAnswer(callerPeer, sdp string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.peers[callerPeer]
	if !ok {
		return false
	}
	e.answer = sdp
	return true
}

// GetAnswer returns the stored answer for peerID, or false if none is waiting.
func (s *Store) GetAnswer(peerID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.peers[peerID]
	if !ok || e.answer == "" {
		return "", false
	}
	return e.answer, true
}

// AddIceCandidate appends a candidate to peerID's queue, creating the queue
// if absent.
func (s *Store) AddIceCandidate(peerID, candidate string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.peers[peerID]
	if !ok {
		e = &entry{}
		s.peers[peerID] = e
	}
	e.ice = append(e.ice, candidate)
}

// GetIceCandidates returns every candidate queued for peerID. The queue is
// not drained; repeated polls return the growing list and callers dedupe
// client-side.
func (s *Store) GetIceCandidates(peerID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.peers[peerID]
	if !ok {
		return nil
	}
	out := make([]string, len(e.ice))
	copy(out, e.ice)
	return out
}
