// Your Psychological Bot - prompt gateway and chat page server
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

	"github.com/haidizedan/your-psychological-bot/internal/api"
	"github.com/haidizedan/your-psychological-bot/internal/config"
	"github.com/haidizedan/your-psychological-bot/internal/gateway"
	"github.com/haidizedan/your-psychological-bot/internal/middleware"
	"github.com/haidizedan/your-psychological-bot/web"
)

var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	slog.Info("Starting server", "port", cfg.Port, "version", version, "upstream", cfg.Upstream.URL)

	// Initialize gateway.
	completer := gateway.NewOpenAIClient(gateway.OpenAIConfig{
		APIKey: cfg.Upstream.APIKey,
		URL:    cfg.Upstream.URL,
		Logger: logger,
	})
	svc := gateway.NewService(completer, logger)

	var handlerOpts []gateway.HandlerOption
	if cfg.RateLimitEnabled() {
		limiter := gateway.NewRateLimiter(cfg.RateLimit.RequestsPerMinute)
		defer limiter.Close()
		handlerOpts = append(handlerOpts, gateway.WithRateLimiter(limiter))
		slog.Info("Rate limiting enabled", "requests_per_minute", cfg.RateLimit.RequestsPerMinute)
	}
	analyzeHandler := gateway.NewHandler(svc, logger, handlerOpts...)
	healthHandler := api.NewHealthHandler(version)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Public routes.
	healthHandler.RegisterHealth(r)
	analyzeHandler.RegisterRoutes(r)

	// Serve embedded chat page (SPA catch-all).
	r.Handle("/*", web.SPAHandler())

	// No WriteTimeout: the upstream call is allowed to take as long as the
	// network layer permits.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0,
		IdleTimeout:       120 * time.Second,
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

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.DevMode {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
