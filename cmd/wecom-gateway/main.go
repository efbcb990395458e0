package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/wecom-agent-go/internal/config"
	"github.com/boddenberg/wecom-agent-go/internal/handler"
	"github.com/boddenberg/wecom-agent-go/internal/infra/observability"
	"github.com/boddenberg/wecom-agent-go/internal/infra/resilience"
	"github.com/boddenberg/wecom-agent-go/internal/infra/wecom"
	"github.com/boddenberg/wecom-agent-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("base_url", cfg.BaseURL),
		zap.Int64("agent_id", cfg.AgentID),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.Int("lookup_workers", cfg.LookupWorkers),
		zap.Duration("token_cache_ttl", cfg.TokenCacheTTL),
		zap.Bool("auth_enabled", cfg.JWTSecret != ""),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "wecom-gateway")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Platform client ---
	initCtx, initCancel := context.WithTimeout(context.Background(), 2*cfg.HTTPTimeout)
	client, err := wecom.New(initCtx, cfg.Credentials(),
		wecom.WithBaseURL(cfg.BaseURL),
		wecom.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		wecom.WithBulkhead(resilience.NewBulkhead(cfg.MaxConcurrency)),
		wecom.WithTokenCache(cfg.TokenCacheTTL),
		wecom.WithTokenObserver(metrics),
		wecom.WithLogger(logger),
	)
	initCancel()
	if err != nil {
		logger.Fatal("failed to initialize wecom application", zap.Error(err))
	}
	defer client.Close()

	// --- Services ---
	notifier := service.NewNotifier(client, client.Chat(), client, metrics, logger)
	directory := service.NewDirectoryService(client, cfg.LookupWorkers, metrics, logger)

	auth := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if auth == nil {
		logger.Warn("GATEWAY_JWT_SECRET not set, /v1 routes are unauthenticated")
	}

	// --- Router ---
	router := handler.NewRouter(notifier, directory, auth, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
