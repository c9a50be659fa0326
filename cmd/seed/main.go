package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/whenworks/calendar-api/internal/models"
	"github.com/whenworks/calendar-api/pkg/config"
	"github.com/whenworks/calendar-api/pkg/database"
	"github.com/whenworks/calendar-api/pkg/logger"
)

// Development dataset: three accounts, a few events, and one share edge so
// the sharing endpoints have something to answer with out of the box.
func main() {
	app := &cli.App{
		Name:  "seed",
		Usage: "Populate the calendar database with development data.",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Insert seed users, events, and share edges (idempotent).",
				Action: func(c *cli.Context) error {
					cfg := config.MustLoad()
					if _, err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
						return err
					}
					defer logger.Sync()

					if cfg.AppEnv == "production" {
						return fmt.Errorf("refusing to seed a production database")
					}

					db, err := database.OpenPostgres(context.Background(), cfg.DatabaseURL, cfg.AppEnv)
					if err != nil {
						return fmt.Errorf("connect database: %w", err)
					}
					return seed(db)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
}

type seedUser struct {
	Username string
	Name     string
	Email    string
	Password string
}

func seed(db *gorm.DB) error {
	seedUsers := []seedUser{
		{Username: "admin", Name: "Admin User", Email: "admin@whenworks.dev", Password: "admin12345"},
		{Username: "testuser", Name: "Test User", Email: "test@whenworks.dev", Password: "test12345"},
		{Username: "developer", Name: "Developer User", Email: "dev@whenworks.dev", Password: "dev123456"},
	}

	users := make([]models.User, 0, len(seedUsers))
	for _, su := range seedUsers {
		var existing models.User
		err := db.Where("email = ? OR username = ?", su.Email, su.Username).First(&existing).Error
		if err == nil {
			logger.L().Info("seed user exists", zap.String("username", existing.Username))
			users = append(users, existing)
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("lookup seed user %s: %w", su.Username, err)
		}

		digest, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		u := models.User{
			Username:       su.Username,
			Name:           su.Name,
			Email:          su.Email,
			HashedPassword: string(digest),
		}
		if err := db.Create(&u).Error; err != nil {
			return fmt.Errorf("create seed user %s: %w", su.Username, err)
		}
		logger.L().Info("seed user created", zap.String("username", u.Username), zap.Uint("id", u.ID))
		users = append(users, u)
	}

	now := time.Now().UTC()
	seedEvents := []models.Event{
		{
			Title:       "Team Standup",
			Description: "Daily team standup meeting",
			StartTime:   now.Add(1 * time.Hour),
			EndTime:     now.Add(90 * time.Minute),
			Location:    "Conference Room A",
			OwnerID:     users[0].ID,
		},
		{
			Title:       "Project Planning",
			Description: "Sprint planning for Q4",
			StartTime:   now.Add(24 * time.Hour),
			EndTime:     now.Add(26 * time.Hour),
			Location:    "Virtual",
			OwnerID:     users[1].ID,
		},
		{
			Title:       "Code Review",
			Description: "Review new feature implementation",
			StartTime:   now.Add(48 * time.Hour),
			EndTime:     now.Add(49 * time.Hour),
			Location:    "Dev Room",
			OwnerID:     users[2].ID,
		},
	}
	for i := range seedEvents {
		e := &seedEvents[i]
		var n int64
		if err := db.Model(&models.Event{}).
			Where("title = ? AND owner_id = ?", e.Title, e.OwnerID).Count(&n).Error; err != nil {
			return fmt.Errorf("lookup seed event %q: %w", e.Title, err)
		}
		if n > 0 {
			continue
		}
		if err := db.Create(e).Error; err != nil {
			return fmt.Errorf("create seed event %q: %w", e.Title, err)
		}
		logger.L().Info("seed event created", zap.String("title", e.Title), zap.Uint("owner_id", e.OwnerID))
	}

	// admin shares with testuser so /shared endpoints answer immediately
	edge := models.CalendarShare{SharerID: users[0].ID, SharedWithID: users[1].ID}
	var n int64
	if err := db.Model(&models.CalendarShare{}).
		Where("sharer_id = ? AND shared_with_id = ?", edge.SharerID, edge.SharedWithID).Count(&n).Error; err != nil {
		return fmt.Errorf("lookup seed share edge: %w", err)
	}
	if n == 0 {
		if err := db.Create(&edge).Error; err != nil {
			return fmt.Errorf("create seed share edge: %w", err)
		}
		logger.L().Info("seed share edge created",
			zap.Uint("sharer_id", edge.SharerID), zap.Uint("shared_with_id", edge.SharedWithID))
	}

	fmt.Println("seeding completed")
	return nil
}
