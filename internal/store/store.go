package store

import (
	"errors"
	"fmt"

	"github.com/talkspace/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("record not found")
)

// Store is the persistence layer for users, rooms, memberships and messages.
// It backs both the message log and the room/membership directory consumed by
// live chat sessions.
type Store struct {
	db *gorm.DB
}

// Open opens the SQLite database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return New(db)
}

// New wraps an existing gorm connection and runs migrations.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.RoomMember{},
		&models.Message{},
		&models.AttachedFile{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// GetUser finds a user by ID.
func (s *Store) GetUser(id string) (*models.User, error) {
	var user models.User
	result := s.db.First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// CreateUser inserts a user row. Account management lives elsewhere; this
// exists for provisioning and tests.
func (s *Store) CreateUser(user *models.User) error {
	return s.db.Create(user).Error
}
