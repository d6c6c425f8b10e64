// AI customer support chat client.
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
	"github.com/joho/godotenv"

	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/api"
	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/backend"
	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/config"
	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/controller"
	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/credstore"
	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/gateway"
	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/middleware"
	"github.com/jaynikam2005/ai-customer-support-chatbot/internal/notify"
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

	slog.Info("Starting chat client", "port", cfg.Port, "backend", cfg.BackendURL, "dev", cfg.IsDevelopment())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize dependencies.
	creds, err := credstore.NewSQLiteWithSkew(cfg.DBPath, cfg.TokenSkew)
	if err != nil {
		slog.Error("Failed to initialize credential store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := creds.Close(); closeErr != nil {
			slog.Error("Failed to close credential store", "error", closeErr)
		}
	}()
	slog.Info("Credential store ready", "path", cfg.DBPath)

	bus := gateway.NewBus()
	gw := gateway.New(creds, bus, logger)

	feed := notify.NewFeed()
	authSvc := backend.NewAuthClient(cfg.BackendURL, gw.Client(cfg.AuthTimeout), logger)
	chatSvc := backend.NewChatClient(cfg.BackendURL, gw.Client(cfg.ChatTimeout), logger)

	ctrl := controller.New(ctx, creds, authSvc, chatSvc, feed, logger)
	ctrl.Start(ctx, bus)

	// Initialize handlers.
	baseHandler := api.NewHandler(ctrl, feed, cfg.FrontendURL)
	sessionHandler := api.NewSessionHandler(baseHandler)
	eventsHandler := api.NewEventsHandler(baseHandler, corsOrigin(cfg), cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{corsOrigin(cfg)}))

	sessionHandler.RegisterRoutes(r)

	// WebSocket endpoint for the notification feed.
	r.Get("/ws/events", eventsHandler.ServeHTTP)

	// Create server.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // notification stream stays open indefinitely
		IdleTimeout:  120 * time.Second,
	}

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

// corsOrigin resolves the origin allowed to call this API. Development runs
// without a fixed frontend URL, so everything is allowed there.
func corsOrigin(cfg *config.Config) string {
	if cfg.FrontendURL != "" {
		return cfg.FrontendURL
	}
	return "*"
}
