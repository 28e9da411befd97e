package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/talkspace/backend/internal/auth"
	"github.com/talkspace/backend/internal/models"
	"github.com/talkspace/backend/internal/store"
)

// State is one step of the per-connection lifecycle.
type State int

const (
	StateConnecting State = iota
	StateAuthenticating
	StateJoining
	StateActive
	StateDisconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateJoining:
		return "joining"
	case StateActive:
		return "active"
	case StateDisconnecting:
		return "disconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Close codes for policy closures, in the WebSocket application range.
const (
	CloseForbidden    = 4403
	CloseRoomNotFound = 4404
)

// CloseError carries the close code and reason sent to the client when a
// connection attempt is refused.
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("close %d: %s", e.Code, e.Reason)
}

// TokenResolver maps a bearer token to an identity, downgrading every failure
// to anonymous.
type TokenResolver interface {
	Resolve(token string) auth.Identity
}

// MessageStore is the persistence boundary for the message loop.
type MessageStore interface {
	CreateMessage(roomID, userID, body string) (*models.Message, error)
}

// Directory is the authoritative room and membership lookup.
type Directory interface {
	GetRoom(id string) (*models.Room, error)
	IsRoomMember(userID, roomID string) (bool, error)
}

// inboundMessage is the wire format of a client chat frame.
type inboundMessage struct {
	Message *string `json:"message"`
}

// Session drives one connection through connect, authenticate, join, the
// message loop and disconnect. It is transport-free: the WebSocket client
// feeds it raw frames and delivers whatever it returns, so every transition
// is unit-testable without a live socket.
type Session struct {
	state     State
	identity  auth.Identity
	room      *models.Room
	messages  MessageStore
	directory Directory
	sanitizer *bluemonday.Policy
}

// NewSession creates a session in the connecting state.
func NewSession(messages MessageStore, directory Directory) *Session {
	return &Session{
		state:     StateConnecting,
		identity:  auth.Anonymous(),
		messages:  messages,
		directory: directory,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Identity returns the resolved identity. Valid after Authenticate.
func (s *Session) Identity() auth.Identity {
	return s.identity
}

// Room returns the joined room. Valid once the session is active.
func (s *Session) Room() *models.Room {
	return s.room
}

// transition moves to next if the current state allows it.
func (s *Session) transition(next State) error {
	allowed := false
	switch next {
	case StateAuthenticating:
		allowed = s.state == StateConnecting
	case StateJoining:
		allowed = s.state == StateAuthenticating
	case StateActive:
		allowed = s.state == StateJoining
	case StateDisconnecting:
		// A transport close can arrive in any live state
		allowed = s.state != StateClosed
	case StateClosed:
		allowed = s.state == StateDisconnecting
	}
	if !allowed {
		return fmt.Errorf("invalid transition %s -> %s", s.state, next)
	}
	s.state = next
	return nil
}

// Authenticate resolves the connection credential. A bad or absent token
// leaves the session anonymous; whether that is acceptable is decided at join.
func (s *Session) Authenticate(resolver TokenResolver, token string) error {
	if err := s.transition(StateAuthenticating); err != nil {
		return err
	}
	s.identity = resolver.Resolve(token)
	return nil
}

// Join validates the target room and the session's right to enter it.
// On success the session is active and ready for the message loop; on policy
// failure it returns a CloseError and moves to disconnecting.
func (s *Session) Join(roomID string) *CloseError {
	if err := s.transition(StateJoining); err != nil {
		return s.refuse(CloseForbidden, err.Error())
	}

	room, err := s.directory.GetRoom(roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return s.refuse(CloseRoomNotFound, "room not found")
		}
		log.Printf("[Session] Room lookup failed for %s: %v", roomID, err)
		return s.refuse(CloseRoomNotFound, "room not found")
	}
	if room.IsDeleted {
		return s.refuse(CloseRoomNotFound, "room not found")
	}

	// Open rooms admit anyone; anonymous sessions stay read-only.
	// Closed rooms require an authenticated member.
	if !room.IsOpen {
		if s.identity.Anonymous {
			return s.refuse(CloseForbidden, "authentication required")
		}
		member, err := s.directory.IsRoomMember(s.identity.UserID, room.ID)
		if err != nil {
			log.Printf("[Session] Membership check failed for %s in %s: %v", s.identity.UserID, room.ID, err)
			return s.refuse(CloseForbidden, "not a room member")
		}
		if !member {
			return s.refuse(CloseForbidden, "not a room member")
		}
	}

	s.room = room
	if err := s.transition(StateActive); err != nil {
		return s.refuse(CloseForbidden, err.Error())
	}
	return nil
}

func (s *Session) refuse(code int, reason string) *CloseError {
	s.state = StateDisconnecting
	return &CloseError{Code: code, Reason: reason}
}

// HandleInbound processes one raw chat frame while active. A validation or
// persistence problem yields an error frame for the sender only and leaves
// the session active; a valid message is sanitized, persisted exactly once
// and returned as a create event for broadcast.
func (s *Session) HandleInbound(raw []byte) (*Event, *ErrorFrame) {
	if s.state != StateActive {
		return nil, &ErrorFrame{Error: "session is not active"}
	}

	var in inboundMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, &ErrorFrame{Error: "invalid message format"}
	}
	if in.Message == nil {
		return nil, &ErrorFrame{Error: "message field is required"}
	}

	if s.identity.Anonymous {
		return nil, &ErrorFrame{Error: "authentication required to send messages"}
	}

	body := strings.TrimSpace(s.sanitizer.Sanitize(*in.Message))
	if body == "" {
		return nil, &ErrorFrame{Error: "message cannot be empty"}
	}

	msg, err := s.messages.CreateMessage(s.room.ID, s.identity.UserID, body)
	if err != nil {
		log.Printf("[Session] Failed to persist message in room %s: %v", s.room.ID, err)
		return nil, &ErrorFrame{Error: "failed to store message"}
	}

	ev := CreateEvent(msg, s.identity)
	return &ev, nil
}

// Disconnect records that the transport is going away. Safe to call from any
// live state.
func (s *Session) Disconnect() {
	if s.state != StateClosed {
		s.state = StateDisconnecting
	}
}

// Close releases the session after the registry leave has run.
func (s *Session) Close() {
	s.Disconnect()
	s.state = StateClosed
}
