package httptransport

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"auditgate/internal/audit"
	dErrors "auditgate/pkg/domain-errors"
	"auditgate/pkg/platform/httputil"
	"auditgate/pkg/requestcontext"
)

// handleListAuditLogs is the admin browsing endpoint: paginated, filterable
// by type, customer and inclusive date range, with a total over the same
// filters.
func (h *Handler) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	opts := audit.ListOptions{CustomerID: r.URL.Query().Get("customer_id")}

	var err error
	if opts.Limit, err = queryInt(r, "limit", 50); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if opts.Offset, err = queryInt(r, "offset", 0); err != nil {
		httputil.WriteError(w, err)
		return
	}

	// Unknown event types filter nothing rather than erroring; the set is
	// closed and an unknown value can only match zero rows anyway.
	if raw := r.URL.Query().Get("event_type"); raw != "" {
		if t := audit.EventType(raw); t.IsValid() {
			opts.EventType = t
		}
	}

	if opts.StartDate, err = queryTime(r, "start_date"); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if opts.EndDate, err = queryTime(r, "end_date"); err != nil {
		httputil.WriteError(w, err)
		return
	}

	page, err := h.audit.List(r.Context(), opts)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"logs":   emptyIfNil(page.Entries),
		"total":  page.Total,
		"limit":  opts.Limit,
		"offset": opts.Offset,
	})
}

// handleCustomerAuditLogs lists one customer's entries for admin inspection.
func (h *Handler) handleCustomerAuditLogs(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customer_id")

	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	entries, err := h.audit.LogsByCustomerID(r.Context(), customerID, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"logs":        emptyIfNil(entries),
		"customer_id": customerID,
	})
}

// handleExportCustomer satisfies a data-portability request. The export
// itself is audited first, best-effort.
func (h *Handler) handleExportCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := chi.URLParam(r, "customer_id")
	now := requestcontext.Now(ctx)

	h.audit.Record(ctx, audit.Entry{
		EventType:  audit.EventDataExportRequest,
		CustomerID: customerID,
		Metadata: audit.Metadata{
			"requested_by": "admin",
			"timestamp":    now.Format(time.RFC3339),
		},
	})

	entries, err := h.audit.ExportForCustomer(ctx, customerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"customer_id":   customerID,
		"export_date":   now.Format(time.RFC3339),
		"total_entries": len(entries),
		"logs":          emptyIfNil(entries),
	})
}

// handleAnonymizeCustomer is the right-to-be-forgotten endpoint. A customer
// with no rows anonymizes to the same state as one pass over their rows, so
// the operation never reports not-found.
func (h *Handler) handleAnonymizeCustomer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID := chi.URLParam(r, "customer_id")
	now := requestcontext.Now(ctx)

	h.audit.Record(ctx, audit.Entry{
		EventType:  audit.EventDataDeleteRequest,
		CustomerID: customerID,
		Metadata: audit.Metadata{
			"requested_by": "admin",
			"timestamp":    now.Format(time.RFC3339),
			"action":       "anonymize",
		},
	})

	if err := h.audit.Anonymize(ctx, customerID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"customer_id":   customerID,
		"message":       "Customer audit data has been anonymized.",
		"anonymized_at": now.Format(time.RFC3339),
	})
}

func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, dErrors.New(dErrors.CodeInvalidInput, name+" must be an RFC 3339 timestamp or YYYY-MM-DD date")
}

func parseInt(raw string) (int, error) {
	return strconv.Atoi(raw)
}

func emptyIfNil(entries []audit.Entry) []audit.Entry {
	if entries == nil {
		return []audit.Entry{}
	}
	return entries
}
