package httptransport_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"auditgate/internal/audit"
	"auditgate/internal/audit/store/memory"
	"auditgate/internal/jwtauth"
	ratelimit "auditgate/internal/ratelimit/service"
	httptransport "auditgate/internal/transport/http"
)

// harness wires the router against the in-memory store, mirroring the
// production wiring in cmd/server.
type harness struct {
	store  *memory.InMemoryStore
	audit  *audit.Service
	tokens *jwtauth.Service
	router http.Handler
}

func newHarness(t *testing.T) *harness {
	return newProbedHarness(t, nil, nil)
}

// newProbedHarness additionally wires backend probes for the health endpoint.
func newProbedHarness(t *testing.T, db httptransport.Pinger, bus httptransport.HealthChecker) *harness {
	t.Helper()

	store := memory.New()
	logger := slog.New(slog.DiscardHandler)

	auditService, err := audit.NewService(store, audit.WithLogger(logger))
	require.NoError(t, err)

	limiter, err := ratelimit.New(auditService, ratelimit.WithLogger(logger))
	require.NoError(t, err)

	tokens := jwtauth.NewService("test-signing-key", "auditgate")

	handler := httptransport.NewHandler(auditService, limiter, logger)
	router := httptransport.NewRouter(handler, tokens, db, bus)

	return &harness{
		store:  store,
		audit:  auditService,
		tokens: tokens,
		router: router,
	}
}

func (h *harness) customerToken(t *testing.T, customerID, email string) string {
	t.Helper()
	token, err := h.tokens.GenerateCustomerToken(customerID, email, time.Hour)
	require.NoError(t, err)
	return token
}

func (h *harness) adminToken(t *testing.T) string {
	t.Helper()
	token, err := h.tokens.GenerateAdminToken("ops@example.com", time.Hour)
	require.NoError(t, err)
	return token
}

func (h *harness) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}
