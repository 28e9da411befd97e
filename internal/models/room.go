package models

import "time"

// Room represents a chat channel with a fixed member set. Two-party direct
// rooms are uniquely keyed by their unordered member pair; group rooms are
// created explicitly with a display name. Rooms are soft-deleted so message
// history and ordering stay intact.
type Room struct {
	// ID is the opaque room key used in WebSocket URLs
	ID string `gorm:"primaryKey" json:"id"`

	// Name is the display name; synthesized for direct rooms
	Name string `json:"name"`

	// IsGroup distinguishes explicit group rooms from two-party DMs
	IsGroup bool `json:"is_group"`

	// DirectKey is the normalized member pair for direct rooms. The unique
	// index makes concurrent first-use creation collapse to one row; group
	// rooms leave it nil.
	DirectKey *string `gorm:"uniqueIndex" json:"-"`

	// IsOpen allows anonymous connections in read-only mode.
	// Closed rooms require an authenticated member.
	IsOpen bool `json:"is_open"`

	// IsDeleted marks the room logically removed while retaining history
	IsDeleted bool `json:"is_deleted"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// RoomMember is one row of the room membership table, the authoritative
// record of which users belong to which room.
type RoomMember struct {
	RoomID   string    `gorm:"primaryKey" json:"room_id"`
	UserID   string    `gorm:"primaryKey" json:"user_id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// CreateRoomRequest is the request body for creating a group room
type CreateRoomRequest struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"member_ids"`
}

// DirectRoomRequest is the request body for the idempotent DM get-or-create
type DirectRoomRequest struct {
	PeerID string `json:"peer_id"`
}

// AddMemberRequest is the request body for adding a member to a group room
type AddMemberRequest struct {
	UserID string `json:"user_id"`
}
