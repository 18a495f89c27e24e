package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/commesse/internal/auth"
	"github.com/odyssey-erp/commesse/internal/observability"
	"github.com/odyssey-erp/commesse/internal/records"
	"github.com/odyssey-erp/commesse/internal/shared"
	_ "github.com/odyssey-erp/commesse/testing"
)

type tokenAuth struct{ principal shared.Principal }

func (a tokenAuth) Authenticate(_ context.Context, token, _ string) (shared.Principal, error) {
	if token != "good" {
		return shared.Principal{}, shared.ErrUnauthorized
	}
	return a.principal, nil
}

func testRouter(checks map[string]Pinger) http.Handler {
	principal := shared.Principal{UserID: uuid.New(), TenantID: uuid.New(), Roles: []string{shared.RoleMember}}
	return NewRouter(RouterParams{
		Config:         &Config{AppEnv: "test"},
		Auth:           auth.Middleware{Auth: tokenAuth{principal: principal}},
		RecordsHandler: records.NewHandler(nil, records.NewService(nil, nil), nil),
		Metrics:        observability.NewMetrics(),
		ReadyChecks:    checks,
	})
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	h := testRouter(nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `commesse_http_requests_total{code="200",route="/healthz"} 1`)
}

func TestReadyReportsFailingDependency(t *testing.T) {
	h := testRouter(map[string]Pinger{
		"postgres": PingFunc(func(context.Context) error { return nil }),
		"redis":    PingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body readiness
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "unavailable", body.Status)
	require.Equal(t, "ok", body.Checks["postgres"])
	require.Equal(t, "connection refused", body.Checks["redis"])
}

func TestReadyWithHealthyDependencies(t *testing.T) {
	h := testRouter(map[string]Pinger{"postgres": PingFunc(func(context.Context) error { return nil })})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRoutesRequireToken(t *testing.T) {
	h := testRouter(nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	req := httptest.NewRequest(http.MethodGet, "/records/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRouteIsProblem(t *testing.T) {
	rec := httptest.NewRecorder()
	testRouter(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}
