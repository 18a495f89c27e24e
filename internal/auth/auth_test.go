package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/commesse/internal/auth"
	"github.com/odyssey-erp/commesse/internal/shared"
	_ "github.com/odyssey-erp/commesse/testing"
)

type stubMemberships struct {
	rows  []auth.Membership
	calls int
}

func (s *stubMemberships) TenantsForUser(_ context.Context, userID uuid.UUID) ([]auth.Membership, error) {
	s.calls++
	out := make([]auth.Membership, 0, len(s.rows))
	for _, m := range s.rows {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

var (
	userID  = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	tenantA = uuid.MustParse("bbbbbbbb-0000-0000-0000-00000000000a")
	tenantB = uuid.MustParse("bbbbbbbb-0000-0000-0000-00000000000b")
	now     = time.Now()
)

func newService(t *testing.T) (*auth.Service, *auth.Verifier, *stubMemberships) {
	t.Helper()
	verifier := auth.NewVerifier("test-secret", "commesse")
	repo := &stubMemberships{rows: []auth.Membership{
		{TenantID: tenantA, UserID: userID, Role: shared.RoleManager, CreatedAt: now.Add(-48 * time.Hour)},
		{TenantID: tenantB, UserID: userID, Role: shared.RoleMember, CreatedAt: now.Add(-time.Hour)},
	}}
	return auth.NewService(verifier, repo), verifier, repo
}

func issue(t *testing.T, v *auth.Verifier, id uuid.UUID) string {
	t.Helper()
	token, err := v.Issue(auth.User{ID: id, Email: "anna@example.it"}, time.Hour, time.Now())
	require.NoError(t, err)
	return token
}

func TestVerifierRoundTrip(t *testing.T) {
	_, v, _ := newService(t)
	user, err := v.Verify(issue(t, v, userID))
	require.NoError(t, err)
	require.Equal(t, userID, user.ID)
	require.Equal(t, "anna@example.it", user.Email)
}

func TestVerifierRejects(t *testing.T) {
	_, v, _ := newService(t)

	expired, err := v.Issue(auth.User{ID: userID}, -time.Minute, time.Now())
	require.NoError(t, err)

	otherSecret, err := auth.NewVerifier("another", "commesse").Issue(auth.User{ID: userID}, time.Hour, time.Now())
	require.NoError(t, err)

	wrongIssuer, err := auth.NewVerifier("test-secret", "elsewhere").Issue(auth.User{ID: userID}, time.Hour, time.Now())
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "42", Issuer: "commesse", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: userID.String()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"expired":      expired,
		"other secret": otherSecret,
		"wrong issuer": wrongIssuer,
		"bad subject":  badSubject,
		"alg none":     none,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(token)
			require.ErrorIs(t, err, shared.ErrUnauthorized)
		})
	}
}

func TestPickActiveTenant(t *testing.T) {
	memberships := []auth.Membership{
		{TenantID: tenantA, CreatedAt: now.Add(-48 * time.Hour)},
		{TenantID: tenantB, CreatedAt: now.Add(-time.Hour)},
	}
	m, err := auth.PickActiveTenant(memberships, "")
	require.NoError(t, err)
	require.Equal(t, tenantB, m.TenantID)

	m, err = auth.PickActiveTenant(memberships, tenantA.String())
	require.NoError(t, err)
	require.Equal(t, tenantA, m.TenantID)

	_, err = auth.PickActiveTenant(memberships, uuid.NewString())
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = auth.PickActiveTenant(memberships, "tenant-a")
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = auth.PickActiveTenant(nil, "")
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestGetCurrentUserAnonymous(t *testing.T) {
	user, err := auth.GetCurrentUser(context.Background())
	require.NoError(t, err)
	require.Nil(t, user)

	ctx := shared.ContextWithPrincipal(context.Background(), shared.Principal{UserID: userID, TenantID: tenantA})
	user, err = auth.GetCurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, userID, user.ID)
}

func newRouter(t *testing.T) (http.Handler, *auth.Verifier) {
	t.Helper()
	svc, v, _ := newService(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := auth.Middleware{Auth: svc, Logger: logger}

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate)
		r.Route("/auth", auth.NewHandler(logger, svc).MountRoutes)
		r.With(mw.RequireAny(shared.PermExpensesApprove)).Post("/approve", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})
	return r, v
}

func TestMiddlewareStatusCodes(t *testing.T) {
	router, v := newRouter(t)
	token := issue(t, v, userID)

	cases := []struct {
		name   string
		method string
		path   string
		auth   string
		tenant string
		want   int
	}{
		{"missing token", http.MethodGet, "/auth/me", "", "", http.StatusUnauthorized},
		{"invalid token", http.MethodGet, "/auth/me", "Bearer nope", "", http.StatusUnauthorized},
		{"no membership", http.MethodGet, "/auth/me", "Bearer " + issue(t, v, uuid.New()), "", http.StatusForbidden},
		{"foreign tenant", http.MethodGet, "/auth/me", "Bearer " + token, uuid.NewString(), http.StatusForbidden},
		{"member lacks permission", http.MethodPost, "/approve", "Bearer " + token, "", http.StatusForbidden},
		{"manager may approve", http.MethodPost, "/approve", "Bearer " + token, tenantA.String(), http.StatusNoContent},
		{"me", http.MethodGet, "/auth/me", "bearer " + token, "", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			if tc.tenant != "" {
				req.Header.Set(auth.TenantHeader, tc.tenant)
			}
			res := httptest.NewRecorder()
			router.ServeHTTP(res, req)
			require.Equal(t, tc.want, res.Code, res.Body.String())
		})
	}
}

func TestMeReportsActiveTenant(t *testing.T) {
	router, v := newRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+issue(t, v, userID))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		TenantID    string            `json:"tenant_id"`
		Roles       []string          `json:"roles"`
		Memberships []auth.Membership `json:"memberships"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Equal(t, tenantB.String(), body.TenantID)
	require.Equal(t, []string{shared.RoleMember}, body.Roles)
	require.Len(t, body.Memberships, 2)
}
