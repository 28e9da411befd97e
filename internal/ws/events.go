package ws

import (
	"time"

	"github.com/talkspace/backend/internal/auth"
	"github.com/talkspace/backend/internal/models"
)

// Action tags the kind of broadcast event delivered to room members.
type Action string

const (
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Event is one outbound broadcast frame. Every variant is built through its
// constructor below; clients treat a missing action as "create" for backward
// compatibility, but we always tag it explicitly.
type Event struct {
	Action         Action    `json:"action"`
	ID             string    `json:"id"`
	Room           string    `json:"room"`
	User           string    `json:"user"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	ProfilePicture string    `json:"profile_picture"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
}

// ErrorFrame is sent to a single connection only, never broadcast.
type ErrorFrame struct {
	Error string `json:"error"`
}

func event(action Action, msg *models.Message, author auth.Identity) Event {
	return Event{
		Action:         action,
		ID:             msg.ID,
		Room:           msg.RoomID,
		User:           msg.UserID,
		FirstName:      author.FirstName,
		LastName:       author.LastName,
		ProfilePicture: author.ProfilePicture,
		Message:        msg.Body,
		Timestamp:      msg.CreatedAt,
	}
}

// CreateEvent announces a newly persisted message.
func CreateEvent(msg *models.Message, author auth.Identity) Event {
	return event(ActionCreate, msg, author)
}

// EditEvent announces an in-place body edit; id and timestamp are unchanged.
func EditEvent(msg *models.Message, author auth.Identity) Event {
	return event(ActionEdit, msg, author)
}

// DeleteEvent announces a soft delete. The body is cleared so removed text
// does not travel again.
func DeleteEvent(msg *models.Message, author auth.Identity) Event {
	ev := event(ActionDelete, msg, author)
	ev.Message = ""
	return ev
}
