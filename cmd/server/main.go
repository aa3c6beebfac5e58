// HackFund - Hackathon Finance Management Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/hackfund/server/internal/api"
	"github.com/hackfund/server/internal/config"
	"github.com/hackfund/server/internal/identity"
	"github.com/hackfund/server/internal/ledger"
	"github.com/hackfund/server/internal/mentor"
	"github.com/hackfund/server/internal/middleware"
	"github.com/hackfund/server/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	// Per-team spending ledgers live in memory; the janitor evicts idle ones.
	ledgers := ledger.NewManager(cfg.LedgerIdleTTL)
	defer ledgers.Close()

	// Stage clients. Missing API keys keep the endpoints up and degrade
	// chat turns to fallback responses.
	researchClient := mentor.NewResearchClient(cfg.Mentor)
	mentorClient := mentor.NewGeminiClient(cfg.Mentor)
	if !cfg.MentorStagesEnabled() {
		slog.Info("Mentor stages disabled (RESEARCH_API_KEY or MENTOR_API_KEY not set), chat will use fallbacks")
	}

	// Initialize handlers.
	baseHandler := api.NewHandler(repo, ledgers, cfg)
	healthHandler := api.NewHealthHandler(repo, cfg)
	wsHandler := mentor.NewWebSocketHandler(repo, ledgers, researchClient, mentorClient, cfg)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(cfg.FrontendURL))
	r.Use(identity.Middleware(repo, cfg.IsDevelopment()))

	// Public routes.
	healthHandler.RegisterHealth(r)

	// API routes.
	baseHandler.RegisterRoutes(r)

	// WebSocket endpoint: one connection per open mentor panel.
	r.Get("/ws/mentor", wsHandler.ServeHTTP)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // chat turns can outlive any fixed write window
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}
