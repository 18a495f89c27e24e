package shared

import (
	"context"

	"github.com/google/uuid"
)

// Principal identifies the caller and the tenant it acts on.
type Principal struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Roles    []string
}

// HasPermission reports whether any of the principal's roles grants perm.
func (p Principal) HasPermission(perm string) bool {
	for _, role := range p.Roles {
		if RoleGrants(role, perm) {
			return true
		}
	}
	return false
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
