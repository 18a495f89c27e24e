package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/odyssey-erp/commesse/internal/shared"
)

// Service resolves tokens and memberships into a request principal.
type Service struct {
	verifier    *Verifier
	memberships MembershipRepository
}

// NewService constructs a new Service.
func NewService(verifier *Verifier, memberships MembershipRepository) *Service {
	return &Service{verifier: verifier, memberships: memberships}
}

// Authenticate verifies token and selects the active tenant. requested may be
// empty, in which case the most recent membership wins.
func (s *Service) Authenticate(ctx context.Context, token, requested string) (shared.Principal, error) {
	user, err := s.verifier.Verify(token)
	if err != nil {
		return shared.Principal{}, err
	}
	memberships, err := s.memberships.TenantsForUser(ctx, user.ID)
	if err != nil {
		return shared.Principal{}, err
	}
	active, err := PickActiveTenant(memberships, requested)
	if err != nil {
		return shared.Principal{}, err
	}
	return shared.Principal{
		UserID:   user.ID,
		TenantID: active.TenantID,
		Roles:    []string{active.Role},
	}, nil
}

// Memberships lists every tenant the user belongs to.
func (s *Service) Memberships(ctx context.Context, userID uuid.UUID) ([]Membership, error) {
	return s.memberships.TenantsForUser(ctx, userID)
}

// PickActiveTenant returns the membership matching requested, or the most
// recently created one when requested is empty.
func PickActiveTenant(memberships []Membership, requested string) (Membership, error) {
	if len(memberships) == 0 {
		return Membership{}, fmt.Errorf("auth: %w: user has no tenant membership", shared.ErrForbidden)
	}
	if requested != "" {
		id, err := uuid.Parse(requested)
		if err != nil {
			return Membership{}, fmt.Errorf("auth: %w: malformed tenant id", shared.ErrValidation)
		}
		for _, m := range memberships {
			if m.TenantID == id {
				return m, nil
			}
		}
		return Membership{}, fmt.Errorf("auth: %w: not a member of tenant %s", shared.ErrForbidden, id)
	}
	latest := memberships[0]
	for _, m := range memberships[1:] {
		if m.CreatedAt.After(latest.CreatedAt) {
			latest = m
		}
	}
	return latest, nil
}

// GetCurrentUser returns the caller stored on ctx. An anonymous request yields
// a nil user and no error.
func GetCurrentUser(ctx context.Context) (*User, error) {
	p, ok := shared.PrincipalFromContext(ctx)
	if !ok || p.UserID == uuid.Nil {
		return nil, nil
	}
	return &User{ID: p.UserID}, nil
}
