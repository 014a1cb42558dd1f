// Package httptransport is the thin HTTP layer. Handlers delegate to the
// audit and rate limit services and translate results into JSON envelopes;
// no business logic lives here.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"auditgate/internal/audit"
	"auditgate/internal/platform/middleware"
	ratelimitModel "auditgate/internal/ratelimit/models"
	"auditgate/pkg/platform/httputil"
)

// AuditService is the audit surface the handlers depend on.
type AuditService interface {
	Record(ctx context.Context, entry audit.Entry) (string, bool)
	LogsByCustomerID(ctx context.Context, customerID string, limit int) ([]audit.Entry, error)
	LogsByEmail(ctx context.Context, email string, limit int) ([]audit.Entry, error)
	List(ctx context.Context, opts audit.ListOptions) (*audit.Page, error)
	ExportForCustomer(ctx context.Context, customerID string) ([]audit.Entry, error)
	Anonymize(ctx context.Context, customerID string) error
}

// RateLimiter is the login-gating surface the handlers depend on.
type RateLimiter interface {
	CheckAttempt(ctx context.Context, ipAddress string) ratelimitModel.CheckResult
	Status(ctx context.Context, ipAddress string) (*ratelimitModel.Status, error)
}

// Pinger reports database connectivity for the health endpoint.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthChecker reports event-bus connectivity for the health endpoint.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type Handler struct {
	audit   AuditService
	limiter RateLimiter
	logger  *slog.Logger
}

func NewHandler(auditService AuditService, limiter RateLimiter, logger *slog.Logger) *Handler {
	return &Handler{
		audit:   auditService,
		limiter: limiter,
		logger:  logger,
	}
}

// NewRouter wires all endpoints with the shared middleware chain. Storefront
// self-service routes require a customer token; admin routes require the
// admin role.
func NewRouter(h *Handler, validator middleware.TokenValidator, db Pinger, bus HealthChecker) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(h.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(h.logger))

	r.Get("/healthz", h.handleHealth(db, bus))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/store", func(r chi.Router) {
		r.Post("/auth/login", h.handleLoginAudit)
		r.Post("/auth/check-rate-limit", h.handleCheckRateLimit)
		r.Get("/auth/check-rate-limit", h.handleRateLimitStatus)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(validator, h.logger))
			r.Get("/customers/me/audit", h.handleOwnAuditLogs)
			r.Delete("/customers/me", h.handleDeleteAccount)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin(validator, h.logger))
		r.Get("/audit", h.handleListAuditLogs)
		r.Get("/audit/{customer_id}", h.handleCustomerAuditLogs)
		r.Get("/audit/{customer_id}/export", h.handleExportCustomer)
		r.Post("/audit/{customer_id}/anonymize", h.handleAnonymizeCustomer)
	})

	return r
}

func (h *Handler) handleHealth(db Pinger, bus HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "postgres": "down"})
				return
			}
		}
		if bus != nil {
			if err := bus.Health(r.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "redis": "down"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
