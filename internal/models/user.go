package models

import "time"

// User is the account entity as seen by the chat core. Registration, password
// handling and the friend graph live in a separate service; the core only ever
// reads users to resolve tokens and to decorate broadcast events.
type User struct {
	// ID is the stable user identifier carried in token claims
	ID string `gorm:"primaryKey" json:"id"`

	// Email is unique per account
	Email string `gorm:"uniqueIndex" json:"email"`

	// Username is the unique handle shown in room listings
	Username string `gorm:"uniqueIndex" json:"username"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// ProfilePicture is a URL or storage locator for the avatar
	ProfilePicture string `json:"profile_picture"`

	// IsActive is cleared when an account is deactivated; tokens for
	// inactive accounts resolve to anonymous
	IsActive bool `json:"is_active"`

	DateJoined time.Time `gorm:"autoCreateTime" json:"date_joined"`
}
