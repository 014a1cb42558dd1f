package httptransport

import (
	"net/http"
	"time"

	"auditgate/internal/audit"
	"auditgate/internal/device"
	dErrors "auditgate/pkg/domain-errors"
	"auditgate/pkg/platform/httputil"
	"auditgate/pkg/requestcontext"
)

// entryView decorates an audit entry with a friendly device label for
// customer-facing history.
type entryView struct {
	audit.Entry
	Device string `json:"device"`
}

func toEntryViews(entries []audit.Entry) []entryView {
	views := make([]entryView, len(entries))
	for i, e := range entries {
		views[i] = entryView{Entry: e, Device: device.DisplayName(e.UserAgent)}
	}
	return views
}

// handleOwnAuditLogs returns the authenticated customer's own history.
// Lookup is by customer id first; rows recorded before the account existed
// (failed logins) are only reachable by email, so fall back when empty.
func (h *Handler) handleOwnAuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := requestcontext.CustomerID(ctx)

	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.audit.LogsByCustomerID(ctx, customerID, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if len(entries) == 0 {
		if email := requestcontext.CustomerEmail(ctx); email != "" {
			entries, err = h.audit.LogsByEmail(ctx, email, limit)
			if err != nil {
				httputil.WriteError(w, err)
				return
			}
		}
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"logs":        toEntryViews(entries),
		"customer_id": customerID,
		"total":       len(entries),
	})
}

// handleDeleteAccount records the deletion and scrubs the customer's audit
// history. The account itself is deleted by the commerce platform; this
// endpoint owns only the compliance trail.
func (h *Handler) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := requestcontext.CustomerID(ctx)
	now := requestcontext.Now(ctx)

	h.audit.Record(ctx, audit.Entry{
		EventType:     audit.EventAccountDeleted,
		CustomerID:    customerID,
		CustomerEmail: requestcontext.CustomerEmail(ctx),
		IPAddress:     requestcontext.ClientIP(ctx),
		UserAgent:     requestcontext.UserAgent(ctx),
		Metadata: audit.Metadata{
			"deleted_at": now.Format(time.RFC3339),
		},
	})

	if err := h.audit.Anonymize(ctx, customerID); err != nil {
		h.audit.Record(ctx, audit.Entry{
			EventType:  audit.EventAccountDeleted,
			CustomerID: customerID,
			IPAddress:  requestcontext.ClientIP(ctx),
			UserAgent:  requestcontext.UserAgent(ctx),
			Metadata: audit.Metadata{
				"error":         true,
				"error_message": "anonymization failed",
			},
		})
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Your account data has been anonymized.",
	})
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := parseInt(raw)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, name+" must be a number")
	}
	return v, nil
}
