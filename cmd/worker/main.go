package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parleyai/voice-assistant/internal/config"
	"github.com/parleyai/voice-assistant/internal/observability"
	"github.com/parleyai/voice-assistant/internal/room"
	"github.com/parleyai/voice-assistant/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("stt_model", cfg.DeepgramModel).
		Str("llm_model", cfg.OpenAIModel).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Voice assistant worker starting")

	// Prewarm the VAD model once; every session shares it
	vadModel, err := session.Prewarm(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load VAD model")
	}
	logger.Info().Str("model_path", vadModel.Path()).Msg("VAD model loaded")

	handler := session.NewHandler(cfg, vadModel)

	// Create HTTP server
	mux := http.NewServeMux()

	// Room WebSocket endpoint
	mux.HandleFunc("/rooms", room.Handler(handler.Entrypoint))

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness endpoint
	mux.HandleFunc("/ready", observability.ReadinessHandler(map[string]observability.HealthCheckFunc{
		"vad_model": func(ctx context.Context) (bool, error) {
			if _, err := os.Stat(vadModel.Path()); err != nil {
				return false, err
			}
			return true, nil
		},
		"weather": func(ctx context.Context) (bool, error) {
			// Config-level check only; no outbound request on every probe
			if cfg.WeatherBaseURL == "" {
				return false, fmt.Errorf("weather base URL is not configured")
			}
			return true, nil
		},
	}))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/rooms", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
