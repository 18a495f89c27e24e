package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MembershipRepository resolves the tenants a user belongs to.
type MembershipRepository interface {
	TenantsForUser(ctx context.Context, userID uuid.UUID) ([]Membership, error)
}

// PGRepository implements MembershipRepository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// TenantsForUser lists memberships, most recently created first.
func (r *PGRepository) TenantsForUser(ctx context.Context, userID uuid.UUID) ([]Membership, error) {
	rows, err := r.pool.Query(ctx, `SELECT tenant_id, user_id, role, created_at
FROM tenant_memberships WHERE user_id = $1 ORDER BY created_at DESC, tenant_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("auth: tenants for user: %w", err)
	}
	memberships, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Membership])
	if err != nil {
		return nil, fmt.Errorf("auth: tenants for user: %w", err)
	}
	return memberships, nil
}

var _ MembershipRepository = (*PGRepository)(nil)
