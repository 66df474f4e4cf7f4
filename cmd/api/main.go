package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"fixaphone-web/internal/config"
	"fixaphone-web/internal/http"
	"fixaphone-web/internal/llm"
	"fixaphone-web/internal/metrics"
	"fixaphone-web/internal/pricing"
	"fixaphone-web/internal/render"
	"fixaphone-web/internal/service"
	"fixaphone-web/web"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API backs the FixaPhone website: the support chat widget, the repair
// booking form and the published price list.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: FixaPhone Web API
//   description: |
//     Chat with the FixaPhone assistant, look up repair estimates and submit repair bookings.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	rates, err := loadRates(cfg.RatesFile)
	if err != nil {
		log.Fatalf("Failed to load rates: %v", err)
	}
	slog.Info("Rates loaded", "file", cfg.RatesFile, "services", len(rates.Services))

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.CompletionEndpoint, cfg.LLMAPIKey, cfg.LLMModelName)
	renderer := render.NewRenderer(render.WithLocation(cfg.Location))

	chatCfg := service.ChatConfig{
		SystemPrompt: cfg.SystemPrompt,
		Greeting:     cfg.ChatGreeting,
		Suggestions:  cfg.ChatSuggestions,
		Params: llm.ChatParams{
			Model:       cfg.LLMModelName,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
		},
		IdleTimeout: cfg.SessionIdleTimeout,
	}
	store := service.NewSessionStore(func(id string) *service.Session {
		return service.NewSession(id, chatCfg, llmClient, renderer, m)
	}, cfg.SessionIdleTimeout, m)

	deps := &http.Deps{
		ChatService:    service.NewChatService(store, chatCfg),
		BookingService: service.NewBookingService(rates, m, cfg.Location),
		Sessions:       store,
		Rates:          rates,
		Metrics:        m,
		Gatherer:       reg,
		IndexHTML:      web.IndexHTML(),
		Static:         web.Static(),
	}
	router := http.NewRouter(deps)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.SessionIdleTimeout > 0 {
		go sweepSessions(ctx, store, cfg.SessionIdleTimeout/2)
	}

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", server.Addr)
	slog.Debug("LLM configuration", "endpoint", cfg.CompletionEndpoint, "model", cfg.LLMModelName)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed: %v", err)
	}
}

func loadRates(path string) (*pricing.Rates, error) {
	if path == "" {
		return pricing.Default()
	}
	return pricing.LoadFile(path)
}

// sweepSessions evicts idle sessions until ctx is done.
func sweepSessions(ctx context.Context, store *service.SessionStore, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := store.Sweep(now); n > 0 {
				slog.Info("Evicted idle chat sessions", "count", n, "active", store.Len())
			}
		}
	}
}
