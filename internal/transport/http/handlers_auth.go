package httptransport

import (
	"encoding/json"
	"net/http"
	"time"

	"auditgate/internal/audit"
	dErrors "auditgate/pkg/domain-errors"
	"auditgate/pkg/platform/httputil"
	"auditgate/pkg/requestcontext"
)

type loginAuditRequest struct {
	Email      string `json:"email"`
	Success    bool   `json:"success"`
	CustomerID string `json:"customer_id"`
}

// handleLoginAudit records the outcome of a login attempt performed by the
// commerce platform. The write is best-effort: a persistence failure is
// reported as logged=false, never as an HTTP error, so it can never block
// the login itself.
func (h *Handler) handleLoginAudit(w http.ResponseWriter, r *http.Request) {
	var req loginAuditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	ctx := r.Context()
	entry := audit.Entry{
		CustomerEmail: req.Email,
		IPAddress:     requestcontext.ClientIP(ctx),
		UserAgent:     requestcontext.UserAgent(ctx),
	}

	if req.Success && req.CustomerID != "" {
		entry.EventType = audit.EventLoginSuccess
		entry.CustomerID = req.CustomerID
		entry.Metadata = audit.Metadata{
			"timestamp": requestcontext.Now(ctx).Format(time.RFC3339),
		}
	} else {
		entry.EventType = audit.EventLoginFailed
		entry.Metadata = audit.Metadata{
			"timestamp": requestcontext.Now(ctx).Format(time.RFC3339),
			"reason":    "invalid_credentials",
		}
	}

	if _, ok := h.audit.Record(ctx, entry); !ok {
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"logged": false, "error": "audit_error"})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"logged": true})
}

// handleCheckRateLimit gates a login attempt by source IP.
func (h *Handler) handleCheckRateLimit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result := h.limiter.CheckAttempt(ctx, requestcontext.ClientIP(ctx))

	if !result.Allowed {
		httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
			"allowed":            false,
			"message":            result.Message,
			"locked_until":       result.LockedUntil.Format(time.RFC3339),
			"remaining_attempts": 0,
		})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"allowed":            true,
		"remaining_attempts": result.RemainingAttempts,
	})
}

// handleRateLimitStatus returns the raw limiter state for the caller's IP.
func (h *Handler) handleRateLimitStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status, err := h.limiter.Status(ctx, requestcontext.ClientIP(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load rate limit status"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, status)
}
