package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/commesse/internal/platform/httpx"
	"github.com/odyssey-erp/commesse/internal/shared"
)

// Authenticator resolves a bearer token into a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token, requestedTenant string) (shared.Principal, error)
}

// Middleware wires authentication and authorization helpers for HTTP handlers.
type Middleware struct {
	Auth   Authenticator
	Logger *slog.Logger
}

// Authenticate rejects requests without a valid token (401) or tenant
// membership (403) and stores the principal on the request context.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r.Header.Get("Authorization"))
		principal, err := m.Auth.Authenticate(r.Context(), token, r.Header.Get(TenantHeader))
		if err != nil {
			if m.Logger != nil && !errors.Is(err, shared.ErrUnauthorized) && !errors.Is(err, shared.ErrForbidden) {
				m.Logger.Error("authenticate request", slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}

// RequireAny ensures the principal holds at least one of perms.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.RespondError(w, shared.ErrUnauthorized)
				return
			}
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			for _, perm := range perms {
				if principal.HasPermission(perm) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.RespondError(w, shared.ErrForbidden)
		})
	}
}
