package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatsphere/internal/auth"
	"chatsphere/internal/broadcast"
	"chatsphere/internal/config"
	"chatsphere/internal/database"
	"chatsphere/internal/delivery"
	"chatsphere/internal/events"
	"chatsphere/internal/handlers"
	"chatsphere/internal/ingest"
	"chatsphere/internal/models"
	"chatsphere/internal/presence"
	"chatsphere/internal/services"
	"chatsphere/internal/session"
	"chatsphere/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if cfg.Server.LogLevel == "debug" {
		logger.SetLevel(slog.LevelDebug)
	}

	// Initialize collaborator stores
	db, err := openDatabase(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Realtime core wiring: registry tracks live sessions, the broadcaster
	// fans out through it, ingest and presence sit on top.
	accessService := services.NewAccessService(db)
	registry := session.NewRegistry(accessService)
	broadcaster := broadcast.New(registry, cfg.Realtime.SlowConsumerPolicy)
	pipeline := ingest.NewPipeline(registry, db, broadcaster, cfg.Realtime.MaxMessageLength)
	backfiller := delivery.NewBackfiller(db, broadcaster, cfg.Realtime.BackfillLimit)

	bus := events.NewBus()
	tracker := presence.NewTracker(registry, broadcaster, accessService.EntitledRooms,
		cfg.Realtime.TypingExpiry, cfg.Realtime.OfflineDebounce)
	tracker.Start(bus)
	defer tracker.Stop()

	verifier := auth.NewJWTVerifier(cfg.JWT.Secret)
	wsHandlers := handlers.NewWebSocketHandlers(verifier, registry, pipeline, backfiller, bus, cfg)

	// Setup routes
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Create server. Upgraded connections are hijacked, so the timeouts
	// only bound the handshake itself.
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	logger.Info("Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Port)
	if cfg.JWT.AllowAnonymous {
		logger.Info("Anonymous sessions are ENABLED - do not run this in production")
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error: %v", err)
	}
}

// openDatabase picks the store implementation: DATABASE_URL=memory runs a
// single-binary in-process store seeded with a general room, anything else
// is a postgres URL.
func openDatabase(cfg *config.Config) (database.Database, error) {
	if cfg.Database.URL == "memory" {
		db := database.NewMemoryDB()
		db.SeedRoom(&models.Room{
			ID:        "general",
			Name:      "General",
			IsPublic:  true,
			CreatedAt: time.Now(),
		})
		return db, nil
	}
	return database.NewPostgresDB(cfg.Database.URL)
}
