// Package main is the entry point for the dashboard server.
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

	"go.uber.org/zap"

	"github.com/atendimento/crm-dashboard/internal/config"
	"github.com/atendimento/crm-dashboard/internal/handler"
	"github.com/atendimento/crm-dashboard/internal/model"
	natsclient "github.com/atendimento/crm-dashboard/internal/nats"
	"github.com/atendimento/crm-dashboard/internal/realtime"
	"github.com/atendimento/crm-dashboard/internal/relay"
	"github.com/atendimento/crm-dashboard/internal/repository"
	"github.com/atendimento/crm-dashboard/internal/repository/gormrepo"
	"github.com/atendimento/crm-dashboard/internal/repository/memory"
	"github.com/atendimento/crm-dashboard/internal/service"
	"github.com/atendimento/crm-dashboard/pkg/logger"
	"github.com/atendimento/crm-dashboard/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting dashboard server")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize tracing if enabled
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "crm-dashboard", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	// Storage
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open storage", zap.Error(err))
		os.Exit(1)
	}
	defer store.Close()
	log.Info("storage ready", zap.String("mode", store.Mode))

	// Realtime backplane
	backplane, err := openBackplane(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open backplane", zap.Error(err))
		os.Exit(1)
	}
	defer backplane.Close()

	// Initialize services. The hub needs the conversation store for its
	// init snapshot and the store publishes through the hub.
	var conversationSvc *service.ConversationService
	hub := realtime.NewHub(realtime.HubConfig{SessionBuffer: cfg.SessionBuffer}, backplane,
		func(ctx context.Context) []model.Conversation {
			convs, _ := conversationSvc.GetAll(ctx)
			return convs
		}, log)
	conversationSvc = service.NewConversationService(store.Conversations, hub, log)
	leadSvc := service.NewLeadService(store.Leads, hub, log)
	quickMessageSvc := service.NewQuickMessageService(store.QuickMessages, hub, log)

	relayClient := relay.New(relay.Config{
		URL:        cfg.AutomationURL,
		Timeout:    cfg.AutomationTimeout,
		MaxRetries: cfg.AutomationMaxRetries,
		RatePerSec: cfg.AutomationRatePerSec,
	}, log)
	go relayClient.Run(ctx)

	messageSvc := service.NewMessageService(conversationSvc, leadSvc, relayClient, log)
	metricsSvc := service.NewMetricsService(conversationSvc, leadSvc)

	go func() {
		if err := hub.Run(ctx); err != nil {
			log.Error("realtime hub stopped", zap.Error(err))
		}
	}()

	router := handler.NewRouter(handler.RouterConfig{
		FrontendOrigins:          cfg.FrontendOrigins,
		JWTSecret:                cfg.JWTSecret,
		WSPingInterval:           cfg.WSPingInterval,
		WebhookRateLimitRequests: cfg.WebhookRateLimitRequests,
		WebhookRateLimitWindow:   cfg.WebhookRateLimitWindow,
		APIRateLimitRequests:     cfg.APIRateLimitRequests,
		APIRateLimitWindow:       cfg.APIRateLimitWindow,
	}, handler.Services{
		Store:         store,
		Hub:           hub,
		Conversations: conversationSvc,
		Leads:         leadSvc,
		QuickMessages: quickMessageSvc,
		Messages:      messageSvc,
		Metrics:       metricsSvc,
	}, log)

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, dashboard API is unauthenticated")
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening",
			zap.String("port", cfg.ServerPort),
			zap.String("webhook", "/api/webhook/message"),
			zap.String("backplane", backplane.Name()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	hub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	if err := relayClient.Close(shutdownCtx); err != nil {
		log.Warn("relay did not drain", zap.Error(err))
	}
	stop()

	log.Info("server stopped")
}

// openStore picks the backend from DATABASE_URL. No URL keeps state in
// process memory for the lifetime of the process.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*repository.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, conversations and leads are kept in memory only")
		return memory.NewStore(), nil
	}

	openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return gormrepo.Open(openCtx, gormrepo.Config{
		DSN:          cfg.DatabaseURL,
		MaxOpenConns: cfg.DatabaseMaxOpenConns,
		LogQueries:   cfg.DatabaseLogQueries,
	})
}

func openBackplane(ctx context.Context, cfg *config.Config, log *logger.Logger) (realtime.Backplane, error) {
	switch cfg.ResolveBackplane() {
	case config.BackplaneNATS:
		client, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			Name:     cfg.NATSClientName,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			return nil, err
		}
		bp := natsclient.NewBackplane(client)
		if cfg.NATSJournal {
			if err := bp.EnsureStream(ctx); err != nil {
				// The journal is optional; fan-out works on core NATS.
				log.Warn("event journal unavailable", zap.Error(err))
			}
		}
		return bp, nil

	case config.BackplaneRedis:
		return realtime.NewRedisBackplane(ctx, cfg.RedisURL, log)
	}
	return realtime.NewLocalBackplane(), nil
}
