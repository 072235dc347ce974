package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/userchat-be/internal/api"
	"github.com/isdelr/userchat-be/internal/auth"
	"github.com/isdelr/userchat-be/internal/config"
	"github.com/isdelr/userchat-be/internal/database"
	"github.com/isdelr/userchat-be/internal/logger"
	"github.com/isdelr/userchat-be/internal/monitoring"
	"github.com/isdelr/userchat-be/internal/services"
	"github.com/isdelr/userchat-be/internal/session"
	"github.com/isdelr/userchat-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", "console")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	// Set up database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run(ctx)

	// Set up services
	userService := services.NewUserService(db)
	authService := services.NewAuthService(userService)

	// Set up sessions
	store := session.NewSQLStore(db, []byte(cfg.SessionSecret))
	store.Options.Secure = cfg.IsProduction()
	sessions := auth.NewManager(store)

	// Set up and run the expired session reaper
	reaper, err := monitoring.NewSessionReaper(store, cfg.SessionPurgeSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create session reaper")
	}
	reaper.Start()

	// Set up router
	router := api.NewRouter(hub, authService, userService, sessions, db, api.Options{
		CORSOrigin:              cfg.CORSOrigin,
		DirectoryRequireSession: cfg.DirectoryRequireSession,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.Environment).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	reaper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	// Closes every chat connection.
	stop()

	log.Info().Msg("Server exiting")
}
