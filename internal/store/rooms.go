package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/talkspace/backend/internal/models"
	"gorm.io/gorm"
)

// GetRoom finds a room by ID. Soft-deleted rooms are returned with the flag
// set so callers can distinguish deleted from missing.
func (s *Store) GetRoom(id string) (*models.Room, error) {
	var room models.Room
	result := s.db.First(&room, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &room, nil
}

// IsRoomMember reports whether userID belongs to roomID.
func (s *Store) IsRoomMember(userID, roomID string) (bool, error) {
	var count int64
	result := s.db.Model(&models.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// GetOrCreateDirectRoom returns the two-party room for the given user pair,
// creating it on first use. The lookup is keyed by the unordered member set,
// so both argument orders and repeated calls yield the same room.
func (s *Store) GetOrCreateDirectRoom(userA, userB string) (*models.Room, error) {
	if userA == userB {
		return nil, fmt.Errorf("direct room requires two distinct users")
	}

	var room models.Room
	result := s.db.Raw(`
		SELECT r.* FROM rooms r
		JOIN room_members m1 ON m1.room_id = r.id AND m1.user_id = ?
		JOIN room_members m2 ON m2.room_id = r.id AND m2.user_id = ?
		WHERE r.is_group = ? AND r.is_deleted = ?
		LIMIT 1
	`, userA, userB, false, false).Scan(&room)
	if result.Error != nil {
		return nil, result.Error
	}
	if room.ID != "" {
		return &room, nil
	}

	// Synthesize a deterministic name and pair key from the sorted pair
	lo, hi := userA, userB
	if strings.Compare(lo, hi) > 0 {
		lo, hi = hi, lo
	}
	key := fmt.Sprintf("dm:%s:%s", lo, hi)
	room = models.Room{
		ID:        uuid.New().String(),
		Name:      fmt.Sprintf("dm-%s-%s", lo, hi),
		IsGroup:   false,
		DirectKey: &key,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		members := []models.RoomMember{
			{RoomID: room.ID, UserID: userA},
			{RoomID: room.ID, UserID: userB},
		}
		return tx.Create(&members).Error
	})
	if err != nil {
		// Lost a create race for this pair; the winner's row carries the
		// same key, so fall back to it.
		var existing models.Room
		if lerr := s.db.First(&existing, "direct_key = ?", key).Error; lerr == nil {
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to create direct room: %w", err)
	}
	return &room, nil
}

// CreateGroupRoom creates a named group room with the creator and the given
// members. Duplicate member IDs are collapsed.
func (s *Store) CreateGroupRoom(name, creatorID string, memberIDs []string) (*models.Room, error) {
	if name == "" {
		return nil, fmt.Errorf("room name is required")
	}

	room := models.Room{
		ID:      uuid.New().String(),
		Name:    name,
		IsGroup: true,
	}

	seen := map[string]bool{creatorID: true}
	members := []models.RoomMember{{RoomID: room.ID, UserID: creatorID}}
	for _, id := range memberIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, models.RoomMember{RoomID: room.ID, UserID: id})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return err
		}
		return tx.Create(&members).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create group room: %w", err)
	}
	return &room, nil
}

// AddRoomMember adds userID to roomID. Adding an existing member is a no-op.
func (s *Store) AddRoomMember(roomID, userID string) error {
	if _, err := s.GetRoom(roomID); err != nil {
		return err
	}
	member := models.RoomMember{RoomID: roomID, UserID: userID}
	result := s.db.Where("room_id = ? AND user_id = ?", roomID, userID).
		FirstOrCreate(&member)
	return result.Error
}

// RoomMembers returns the user IDs belonging to a room.
func (s *Store) RoomMembers(roomID string) ([]string, error) {
	var ids []string
	result := s.db.Model(&models.RoomMember{}).
		Where("room_id = ?", roomID).
		Order("joined_at").
		Pluck("user_id", &ids)
	if result.Error != nil {
		return nil, result.Error
	}
	return ids, nil
}

// SoftDeleteRoom marks a room deleted without removing its history.
func (s *Store) SoftDeleteRoom(roomID string) error {
	result := s.db.Model(&models.Room{}).
		Where("id = ?", roomID).
		Update("is_deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
