package models

import "time"

// Event is a calendar entry owned by exactly one user. Start and end are
// caller-supplied instants; the service does not require end to follow start.
type Event struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:100;index;not null" json:"title" validate:"required,max=100"`
	Description string    `gorm:"size:500" json:"description,omitempty"`
	StartTime   time.Time `gorm:"not null" json:"start_time" validate:"required"`
	EndTime     time.Time `gorm:"not null" json:"end_time" validate:"required"`
	Location    string    `gorm:"size:200" json:"location,omitempty"`
	OwnerID     uint      `gorm:"index;not null" json:"owner_id"`
	Owner       *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
