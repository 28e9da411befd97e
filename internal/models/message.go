package models

import "time"

// Message is one persisted chat message. CreatedAt is non-decreasing within a
// room and is the display/sort order. Deletion is a soft flag so ids and
// ordering remain stable for broadcasts that were already delivered.
type Message struct {
	// ID is the unique message identifier
	ID string `gorm:"primaryKey" json:"id"`

	// RoomID is the room this message belongs to
	RoomID string `gorm:"index" json:"room_id"`

	// UserID is the author
	UserID string `json:"user_id"`

	// Body is the sanitized message text
	Body string `json:"message"`

	IsRead    bool `json:"is_read"`
	IsDeleted bool `json:"is_deleted"`

	CreatedAt time.Time `json:"timestamp"`
}

// AttachedFile records file metadata shared alongside a message. The bytes
// themselves live in external storage; rows are immutable after creation.
type AttachedFile struct {
	ID          string `gorm:"primaryKey" json:"id"`
	MessageID   string `gorm:"index" json:"message_id"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	StoragePath string `json:"storage_path"`
}

// SendMessageRequest is the request body for the REST send/polling fallback
type SendMessageRequest struct {
	Message string `json:"message"`
}

// EditMessageRequest is the request body for editing a message
type EditMessageRequest struct {
	Message string `json:"message"`
}

// ShareFilesRequest is the request body for sharing files in a room.
// Upload mechanics are handled by the file service; only metadata arrives here.
type ShareFilesRequest struct {
	Message string           `json:"message"`
	Files   []FileDescriptor `json:"files"`
}

// FileDescriptor is the metadata for one shared file
type FileDescriptor struct {
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	StoragePath string `json:"storage_path"`
}

// GetMessagesResponse is the response for fetching room history
type GetMessagesResponse struct {
	Messages []Message `json:"messages"`
}
