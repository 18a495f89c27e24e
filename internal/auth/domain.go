package auth

import (
	"time"

	"github.com/google/uuid"
)

// User is the authenticated caller as described by a verified token.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email,omitempty"`
}

// Membership links a user to a tenant with a role.
type Membership struct {
	TenantID  uuid.UUID `json:"tenant_id"`
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// TenantHeader lets a caller pick one of its memberships explicitly.
const TenantHeader = "X-Tenant-ID"
