package identity

import (
	"context"

	"github.com/google/uuid"
)

// PrincipalRepository stores principals in the control plane
type PrincipalRepository interface {
	// Create inserts p, returning shared.ErrAlreadyExists when the email is taken.
	Create(ctx context.Context, p *Principal) error
	FindByID(ctx context.Context, id uuid.UUID) (*Principal, error)
	FindByEmail(ctx context.Context, email string) (*Principal, error)
}

// TenantRepository stores the principal to schema mapping
type TenantRepository interface {
	// Ensure records t unless a tenant for the same schema already exists,
	// and returns the stored tenant either way.
	Ensure(ctx context.Context, t *Tenant) (*Tenant, error)
	FindByPrincipal(ctx context.Context, principalID uuid.UUID) (*Tenant, error)
}
