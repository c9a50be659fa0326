package models

import "time"

// User represents a registered account. Username and email are unique across
// all users; the database constraints are the source of truth under
// concurrent registration.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:100" json:"name"`
	Username       string    `gorm:"size:50;uniqueIndex;not null" json:"username" validate:"required,max=50"`
	Email          string    `gorm:"size:100;uniqueIndex;not null" json:"email" validate:"required,email,max=100"`
	HashedPassword string    `gorm:"size:128;not null" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
