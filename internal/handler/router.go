package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atendimento/crm-dashboard/internal/middleware"
	"github.com/atendimento/crm-dashboard/internal/realtime"
	"github.com/atendimento/crm-dashboard/internal/repository"
	"github.com/atendimento/crm-dashboard/internal/service"
	"github.com/atendimento/crm-dashboard/pkg/logger"
)

// Services bundles what the router needs to serve requests.
type Services struct {
	Store         *repository.Store
	Hub           *realtime.Hub
	Conversations *service.ConversationService
	Leads         *service.LeadService
	QuickMessages *service.QuickMessageService
	Messages      *service.MessageService
	Metrics       *service.MetricsService
}

// RouterConfig holds the HTTP-facing settings.
type RouterConfig struct {
	FrontendOrigins []string
	JWTSecret       string
	WSPingInterval  time.Duration

	WebhookRateLimitRequests int
	WebhookRateLimitWindow   time.Duration
	APIRateLimitRequests     int
	APIRateLimitWindow       time.Duration
}

// NewRouter builds the HTTP surface of the dashboard.
func NewRouter(cfg RouterConfig, svc Services, log *logger.Logger) http.Handler {
	healthHandler := NewHealthHandler(svc.Store, svc.Hub)
	conversationHandler := NewConversationHandler(svc.Conversations, log)
	messageHandler := NewMessageHandler(svc.Messages, log)
	leadHandler := NewLeadHandler(svc.Leads, log)
	quickMessageHandler := NewQuickMessageHandler(svc.QuickMessages, log)
	metricsHandler := NewMetricsHandler(svc.Metrics)
	realtimeHandler := NewRealtimeHandler(svc.Hub, cfg.FrontendOrigins, cfg.WSPingInterval, log)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.FrontendOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Realtime
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Get("/ws", realtimeHandler.WebSocket)
		r.Get("/socket", realtimeHandler.WebSocket)
	})

	r.Route("/api", func(r chi.Router) {
		// Ingress from the messaging automation. It has no dashboard token.
		r.With(middleware.RateLimit(cfg.WebhookRateLimitRequests, cfg.WebhookRateLimitWindow)).
			Post("/webhook/message", messageHandler.Webhook)

		r.With(middleware.Auth(cfg.JWTSecret)).Get("/events", realtimeHandler.Events)

		// Dashboard API
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))
			r.Use(middleware.AgentRateLimit(cfg.APIRateLimitRequests, cfg.APIRateLimitWindow))
			registerDashboardRoutes(r, conversationHandler, messageHandler, leadHandler, quickMessageHandler, metricsHandler)
		})
	})

	return r
}

func registerDashboardRoutes(
	r chi.Router,
	conversationHandler *ConversationHandler,
	messageHandler *MessageHandler,
	leadHandler *LeadHandler,
	quickMessageHandler *QuickMessageHandler,
	metricsHandler *MetricsHandler,
) {
	r.Route("/conversations", func(r chi.Router) {
		r.Get("/", conversationHandler.List)
		r.Post("/new", conversationHandler.Create)
		r.Get("/{userId}", conversationHandler.Get)
		r.Post("/{userId}/send", messageHandler.Send)
	})

	r.Route("/leads", func(r chi.Router) {
		r.Get("/", leadHandler.List)
		r.Post("/", leadHandler.Create)

		r.Route("/{identifier}", func(r chi.Router) {
			r.Get("/", leadHandler.Get)
			r.Put("/", leadHandler.Update)
			r.Delete("/", leadHandler.Delete)
			r.Put("/status", leadHandler.UpdateStatus)
			r.Get("/trava", leadHandler.GetTrava)
			r.Post("/trava", leadHandler.SetTrava)
			r.Post("/toggle-trava", leadHandler.ToggleTrava)
		})
	})

	r.Route("/quick-messages", func(r chi.Router) {
		r.Get("/", quickMessageHandler.List)
		r.Post("/", quickMessageHandler.Create)
		r.Post("/reorder", quickMessageHandler.Reorder)
		r.Get("/{id}", quickMessageHandler.Get)
		r.Put("/{id}", quickMessageHandler.Update)
		r.Delete("/{id}", quickMessageHandler.Delete)
	})

	r.Get("/metrics", metricsHandler.Get)
}
