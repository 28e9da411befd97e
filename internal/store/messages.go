package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/talkspace/backend/internal/models"
	"gorm.io/gorm"
)

// CreateMessage appends a message to a room's log and returns the stored record.
func (s *Store) CreateMessage(roomID, userID, body string) (*models.Message, error) {
	msg := models.Message{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		UserID:    userID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}
	return &msg, nil
}

// GetMessage finds a message by ID. Soft-deleted messages are still returned
// so historical broadcasts stay resolvable.
func (s *Store) GetMessage(id string) (*models.Message, error) {
	var msg models.Message
	result := s.db.First(&msg, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &msg, nil
}

// EditMessage replaces the body of a message in place. ID and timestamp are
// preserved so room ordering does not change.
func (s *Store) EditMessage(id, newBody string) (*models.Message, error) {
	msg, err := s.GetMessage(id)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(msg).Update("body", newBody).Error; err != nil {
		return nil, fmt.Errorf("failed to edit message: %w", err)
	}
	msg.Body = newBody
	return msg, nil
}

// SoftDeleteMessage flags a message deleted. Deleting an already-deleted
// message is a no-op.
func (s *Store) SoftDeleteMessage(id string) error {
	msg, err := s.GetMessage(id)
	if err != nil {
		return err
	}
	if msg.IsDeleted {
		return nil
	}
	return s.db.Model(msg).Update("is_deleted", true).Error
}

// ListMessages returns a room's messages in creation order, excluding
// soft-deleted entries.
func (s *Store) ListMessages(roomID string) ([]models.Message, error) {
	var msgs []models.Message
	// rowid breaks ties between messages created within the same clock tick,
	// keeping insertion order stable
	result := s.db.Where("room_id = ? AND is_deleted = ?", roomID, false).
		Order("created_at, rowid").
		Find(&msgs)
	if result.Error != nil {
		return nil, result.Error
	}
	return msgs, nil
}

// CreateMessageWithFiles stores a message and its attached file metadata in a
// single transaction. File rows are immutable after creation.
func (s *Store) CreateMessageWithFiles(roomID, userID, body string, files []models.FileDescriptor) (*models.Message, []models.AttachedFile, error) {
	msg := models.Message{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		UserID:    userID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}

	attached := make([]models.AttachedFile, 0, len(files))
	for _, f := range files {
		attached = append(attached, models.AttachedFile{
			ID:          uuid.New().String(),
			MessageID:   msg.ID,
			Size:        f.Size,
			ContentType: f.ContentType,
			StoragePath: f.StoragePath,
		})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		if len(attached) == 0 {
			return nil
		}
		return tx.Create(&attached).Error
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to store file message: %w", err)
	}
	return &msg, attached, nil
}
