package models

import (
	"time"

	"github.com/expensetracker/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// PrincipalModel is the control-plane persistence model for principals
type PrincipalModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"type:varchar(200);not null"`
	Email        string    `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PrincipalModel) TableName() string { return "principals" }

// ToDomain converts the model to a domain entity
func (m *PrincipalModel) ToDomain() *identity.Principal {
	return &identity.Principal{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// PrincipalModelFromDomain converts a domain entity to the model
func PrincipalModelFromDomain(p *identity.Principal) *PrincipalModel {
	return &PrincipalModel{
		ID:           p.ID,
		Name:         p.Name,
		Email:        p.Email,
		PasswordHash: p.PasswordHash,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// TenantModel is the control-plane persistence model mapping principals to schemas
type TenantModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	PrincipalID uuid.UUID `gorm:"type:uuid;not null;index"`
	SchemaName  string    `gorm:"type:varchar(63);not null;uniqueIndex"`
	CreatedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string { return "tenants" }

// ToDomain converts the model to a domain entity
func (m *TenantModel) ToDomain() *identity.Tenant {
	return &identity.Tenant{
		ID:          m.ID,
		PrincipalID: m.PrincipalID,
		SchemaName:  m.SchemaName,
		CreatedAt:   m.CreatedAt,
	}
}

// TenantModelFromDomain converts a domain entity to the model
func TenantModelFromDomain(t *identity.Tenant) *TenantModel {
	return &TenantModel{
		ID:          t.ID,
		PrincipalID: t.PrincipalID,
		SchemaName:  t.SchemaName,
		CreatedAt:   t.CreatedAt,
	}
}
