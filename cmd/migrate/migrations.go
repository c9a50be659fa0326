package main

import (
	"gorm.io/gorm"

	"github.com/whenworks/calendar-api/internal/models"
)

// registerModels returns all models that need migration
func registerModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Event{},
		&models.CalendarShare{},
	}
}

// runMigrations executes all database migrations
func runMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(registerModels()...); err != nil {
		return err
	}
	return runCustomMigrations(db)
}

// runCustomMigrations handles schema changes AutoMigrate can't handle
func runCustomMigrations(db *gorm.DB) error {
	migrations := []func(*gorm.DB) error{
		addShareIndexes,
	}

	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}
	return nil
}

// addShareIndexes backfills the composite share index for databases migrated
// before the uniqueIndex tag existed.
func addShareIndexes(db *gorm.DB) error {
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_calendar_shares_pair
		ON calendar_shares(sharer_id, shared_with_id)
	`).Error
}
