package models

import "time"

// CalendarShare is one directed edge of the sharing graph: the sharer has
// granted the shared-with user visibility into the sharer's calendar.
// (A shares with B) and (B shares with A) are independent rows. The composite
// unique index guarantees at most one row per ordered pair.
type CalendarShare struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SharerID     uint      `gorm:"not null;uniqueIndex:idx_calendar_shares_pair;index" json:"sharer_id"`
	SharedWithID uint      `gorm:"not null;uniqueIndex:idx_calendar_shares_pair;index" json:"shared_with_id"`
	Sharer       *User     `gorm:"foreignKey:SharerID;constraint:OnDelete:CASCADE" json:"-"`
	SharedWith   *User     `gorm:"foreignKey:SharedWithID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
