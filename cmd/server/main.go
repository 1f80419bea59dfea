package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/roomboard/internal/api"
	"github.com/eldtechnologies/roomboard/internal/api/middleware"
	"github.com/eldtechnologies/roomboard/internal/config"
	"github.com/eldtechnologies/roomboard/internal/directory"
	"github.com/eldtechnologies/roomboard/internal/gate"
	"github.com/eldtechnologies/roomboard/internal/handlers"
	"github.com/eldtechnologies/roomboard/internal/session"
	"github.com/eldtechnologies/roomboard/internal/store"
	"github.com/eldtechnologies/roomboard/internal/thread"
	"github.com/eldtechnologies/roomboard/internal/upload"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize the message database: PostgreSQL when configured, SQLite otherwise
	var db store.DataStore
	if cfg.DatabaseURL != "" {
		logger.Info().Msg("running database migrations...")
		if err := store.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
		logger.Info().Msg("migrations completed")

		pgStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		db = pgStore
		logger.Info().Msg("connected to PostgreSQL")
	} else {
		sqliteStore, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("sqlite open failed")
		}
		db = sqliteStore
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite")
	}
	defer db.Close()

	// Initialize the session store: Redis when configured, in-memory otherwise
	var sessions session.Store
	if cfg.RedisURL != "" {
		redisStore, err := store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		sessions = redisStore
		logger.Info().Msg("connected to Redis")
	} else {
		sessions = session.NewMemoryStore()
		logger.Warn().Msg("REDIS_URL not set, sessions are kept in memory")
	}

	ingestor, err := upload.NewIngestor(cfg.UploadDir, "/uploads/", logger)
	if err != nil {
		logger.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("upload directory unavailable")
	}

	if cfg.AdminID == "" || cfg.AdminPassword == "" {
		logger.Warn().Msg("ADMIN_ID or ADMIN_PASSWORD not set, admin login is disabled")
	}

	comparer := gate.NewComparer(cfg.PasswordMode)

	// Create router
	router := api.NewRouter(logger, api.Options{
		Handlers: handlers.Deps{
			Store:          db,
			Sessions:       sessions,
			Directory:      directory.New(db, comparer, logger),
			Gate:           gate.New(db, comparer, logger),
			Admin:          gate.NewAdmin(cfg.AdminID, cfg.AdminPassword, logger),
			Thread:         thread.New(db, logger),
			Uploads:        ingestor,
			MaxUploadBytes: cfg.MaxUploadBytes,
			UploadTimeout:  cfg.UploadTimeout,
			Logger:         logger,
		},
		Sessions: middleware.SessionOptions{
			Store:  sessions,
			Secret: cfg.SessionSecret,
			TTL:    cfg.SessionTTL,
			Secure: cfg.IsProduction(),
			Logger: logger,
		},
		CORSOrigins: cfg.CORSOrigins,
		UploadDir:   cfg.UploadDir,
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Str("password_mode", cfg.PasswordMode).
			Msg("starting roomboard server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
