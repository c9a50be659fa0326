package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/whenworks/calendar-api/internal/api"
	"github.com/whenworks/calendar-api/internal/api/handlers"
	"github.com/whenworks/calendar-api/internal/repository"
	"github.com/whenworks/calendar-api/internal/services"
	"github.com/whenworks/calendar-api/pkg/config"
	"github.com/whenworks/calendar-api/pkg/database"
	"github.com/whenworks/calendar-api/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	// Initialize logger
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("Starting calendar API",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
	)

	// Connect to database
	ctx := context.Background()
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL, cfg.AppEnv)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	shareRepo := repository.NewShareRepository(db)

	// Initialize services
	authSvc := services.NewAuthService(userRepo, []byte(cfg.JWTSecret), cfg.AccessTokenTTL)
	userSvc := services.NewUserService(db, userRepo, eventRepo, shareRepo, authSvc)
	eventSvc := services.NewEventService(eventRepo)
	sharingSvc := services.NewSharingService(userRepo, eventRepo, shareRepo)

	// Initialize handlers
	v := validator.New(validator.WithRequiredStructEnabled())
	deps := api.Dependencies{
		TokenResolver:  authSvc,
		AuthHandler:    handlers.NewAuthHandler(authSvc, userSvc, cfg.AccessTokenTTL, v),
		UsersHandler:   handlers.NewUsersHandler(userSvc),
		EventsHandler:  handlers.NewEventsHandler(eventSvc, userSvc, v),
		SharingHandler: handlers.NewSharingHandler(sharingSvc, userSvc, v),
		HealthHandler:  handlers.NewHealthHandler(db),
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}
