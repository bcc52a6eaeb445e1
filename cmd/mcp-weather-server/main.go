package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/i474232898/mcp-weather-server/internal/api/http"
	"github.com/i474232898/mcp-weather-server/internal/config"
	"github.com/i474232898/mcp-weather-server/internal/dispatch"
	"github.com/i474232898/mcp-weather-server/internal/scheduler"
	"github.com/i474232898/mcp-weather-server/internal/session"
	"github.com/i474232898/mcp-weather-server/internal/stream"
	"github.com/i474232898/mcp-weather-server/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	// Shared HTTP client for outbound provider calls; the per-call deadline
	// is applied by the provider.
	httpClient := &http.Client{}

	provider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey,
		providers.WithBaseURL(cfg.OpenWeatherBaseURL),
		providers.WithTimeout(cfg.UpstreamTimeout),
		providers.WithBreakerThreshold(cfg.UpstreamBreakerThreshold),
	)

	sessions := session.NewRegistry(cfg.SessionTTL, cfg.SessionRetention)

	// Background sweep of expired and retained sessions.
	sched := scheduler.New(sessions, cfg.SessionSweepInterval)
	if err := sched.Start(); err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := httpapi.NewApp(
		dispatch.New(sessions, provider),
		stream.NewEmitter(sessions, provider),
	)

	go func() {
		slog.Info("mcp-weather-server listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("error during shutdown", "error", err)
	}
}
