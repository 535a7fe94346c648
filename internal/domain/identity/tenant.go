package identity

import (
	"time"

	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Tenant is the physically isolated partition owned by exactly one principal.
// SchemaName is derived from the owner's email and is globally unique.
type Tenant struct {
	ID          uuid.UUID
	PrincipalID uuid.UUID
	SchemaName  string
	CreatedAt   time.Time
}

// NewTenant binds schema to principal
func NewTenant(principalID uuid.UUID, schema string) (*Tenant, error) {
	if principalID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRINCIPAL", "Principal is required")
	}
	if schema == "" {
		return nil, shared.NewDomainError("INVALID_SCHEMA", "Schema name is required")
	}
	return &Tenant{
		ID:          uuid.New(),
		PrincipalID: principalID,
		SchemaName:  schema,
		CreatedAt:   time.Now(),
	}, nil
}
