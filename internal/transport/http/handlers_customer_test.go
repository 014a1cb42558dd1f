package httptransport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditgate/internal/audit"
	"auditgate/pkg/requestcontext"
)

func TestOwnAuditLogs(t *testing.T) {
	seed := func(t *testing.T, h *harness, e audit.Entry, at time.Time) {
		t.Helper()
		ctx := requestcontext.WithTime(context.Background(), at)
		_, err := h.store.Append(ctx, e)
		require.NoError(t, err)
	}

	t.Run("requires a token", func(t *testing.T) {
		h := newHarness(t)

		req := httptest.NewRequest(http.MethodGet, "/store/customers/me/audit", nil)
		w := h.do(t, req)
		require.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "unauthorized", decodeBody(t, w.Body)["error"])
	})

	t.Run("returns own entries with device labels", func(t *testing.T) {
		h := newHarness(t)
		now := time.Now()
		seed(t, h, audit.Entry{
			EventType:  audit.EventLoginSuccess,
			CustomerID: "cus_1",
			UserAgent:  "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		}, now.Add(-time.Minute))
		seed(t, h, audit.Entry{
			EventType:  audit.EventAccountUpdated,
			CustomerID: "cus_1",
		}, now)
		seed(t, h, audit.Entry{
			EventType:  audit.EventLoginSuccess,
			CustomerID: "cus_2",
		}, now)

		req := httptest.NewRequest(http.MethodGet, "/store/customers/me/audit", nil)
		req.Header.Set("Authorization", "Bearer "+h.customerToken(t, "cus_1", "jane@example.com"))

		w := h.do(t, req)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w.Body)
		assert.Equal(t, "cus_1", body["customer_id"])
		assert.Equal(t, float64(2), body["total"])

		logs := body["logs"].([]any)
		require.Len(t, logs, 2)
		first := logs[0].(map[string]any)
		assert.Equal(t, string(audit.EventAccountUpdated), first["event_type"])
		second := logs[1].(map[string]any)
		assert.Contains(t, second["device"], "Chrome")
	})

	t.Run("falls back to email when no rows carry the customer id", func(t *testing.T) {
		h := newHarness(t)
		seed(t, h, audit.Entry{
			EventType:     audit.EventLoginFailed,
			CustomerEmail: "jane@example.com",
		}, time.Now())

		req := httptest.NewRequest(http.MethodGet, "/store/customers/me/audit", nil)
		req.Header.Set("Authorization", "Bearer "+h.customerToken(t, "cus_1", "jane@example.com"))

		w := h.do(t, req)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w.Body)
		assert.Equal(t, float64(1), body["total"])
	})

	t.Run("rejects a non-numeric limit", func(t *testing.T) {
		h := newHarness(t)

		req := httptest.NewRequest(http.MethodGet, "/store/customers/me/audit?limit=abc", nil)
		req.Header.Set("Authorization", "Bearer "+h.customerToken(t, "cus_1", "jane@example.com"))

		w := h.do(t, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteAccount(t *testing.T) {
	t.Run("records the deletion and anonymizes history", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		_, err := h.store.Append(ctx, audit.Entry{
			EventType:     audit.EventLoginSuccess,
			CustomerID:    "cus_1",
			CustomerEmail: "jane@example.com",
			IPAddress:     "203.0.113.7",
			UserAgent:     "Mozilla/5.0",
		})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodDelete, "/store/customers/me", nil)
		req.Header.Set("Authorization", "Bearer "+h.customerToken(t, "cus_1", "jane@example.com"))

		w := h.do(t, req)
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w.Body)
		assert.Equal(t, true, body["success"])

		entries, err := h.store.ListByCustomerID(ctx, "cus_1", 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, audit.EventAccountDeleted, entries[0].EventType)
		for _, e := range entries {
			assert.Equal(t, audit.AnonymizedEmail, e.CustomerEmail)
			assert.Equal(t, audit.AnonymizedIP, e.IPAddress)
			assert.Equal(t, audit.AnonymizedUserAgent, e.UserAgent)
		}
	})

	t.Run("requires a token", func(t *testing.T) {
		h := newHarness(t)

		req := httptest.NewRequest(http.MethodDelete, "/store/customers/me", nil)
		w := h.do(t, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("surfaces anonymization failure", func(t *testing.T) {
		h := newHarness(t)
		h.store.FailWrites = true

		req := httptest.NewRequest(http.MethodDelete, "/store/customers/me", nil)
		req.Header.Set("Authorization", "Bearer "+h.customerToken(t, "cus_1", "jane@example.com"))

		w := h.do(t, req)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
