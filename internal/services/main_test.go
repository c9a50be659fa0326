package services

import (
	"fmt"
	"os"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/whenworks/calendar-api/internal/models"
	"github.com/whenworks/calendar-api/pkg/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests (required by services)
	_, err := logger.Init("error", "json")
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

// newTestDB opens a per-test in-memory database with the full schema. The
// shared cache keeps all pooled connections on the same database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Event{}, &models.CalendarShare{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
