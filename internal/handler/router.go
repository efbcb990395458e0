package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/wecom-agent-go/internal/domain"
	"github.com/boddenberg/wecom-agent-go/internal/infra/observability"
	"github.com/boddenberg/wecom-agent-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// A nil auth disables bearer-token checks on /v1.
func NewRouter(notifier *service.Notifier, dir *service.DirectoryService, auth *service.TokenIssuer, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(dir, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		if auth != nil {
			r.Use(JWTAuthMiddleware(auth, logger))
		}

		// Messages
		r.Post("/messages", sendMessageHandler(notifier, logger))

		// Chats
		r.Post("/chats", createChatHandler(notifier, logger))
		r.Get("/chats/{chatId}", getChatHandler(notifier, logger))
		r.Patch("/chats/{chatId}", modifyChatHandler(notifier, logger))
		r.Post("/chats/{chatId}/messages", sendChatMessageHandler(notifier, logger))

		// Directory
		r.Get("/app", appInfoHandler(dir, logger))
		r.Get("/departments", listDepartmentsHandler(dir, logger))
		r.Get("/departments/{id}/users", departmentUsersHandler(dir, logger))
		r.Get("/tags/{tagId}/users", tagUsersHandler(dir, logger))
		r.Get("/users/{userId}", getUserHandler(dir, logger))
		r.Get("/users", batchUsersHandler(dir, logger))

		// Media
		r.Post("/media", uploadMediaHandler(notifier, logger))

		// Metrics
		r.Get("/metrics/messages", messageMetricsHandler(metrics))
	})

	return r
}

// ============================================================
// Health
// ============================================================

func healthzHandler(dir *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "wecom-gateway", Status: "healthy", LastChecked: now},
		}

		if dir != nil {
			status, detail := "healthy", ""
			if _, err := dir.GetAppInfo(r.Context()); err != nil {
				status, detail = "degraded", string(domain.KindOf(err))
				logger.Warn("health: platform check failed", zap.Error(err))
			}
			services = append(services, domain.ServiceHealth{
				Name: "wecom", Status: status, Detail: detail, LastChecked: now,
			})
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overall = s.Status
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func messageMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
