package models

import (
	"time"

	"github.com/expensetracker/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OwnedModel provides the persistence fields every owned record shares.
// It maps to the domain's OwnedEntity and satisfies scoped.Owned.
type OwnedModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// GetID returns the primary key
func (m *OwnedModel) GetID() uuid.UUID { return m.ID }

// SetID assigns the primary key
func (m *OwnedModel) SetID(id uuid.UUID) { m.ID = id }

// SetOwner assigns the owning principal
func (m *OwnedModel) SetOwner(owner uuid.UUID) { m.OwnerID = owner }

// ToDomain converts OwnedModel to domain OwnedEntity
func (m *OwnedModel) ToDomain() shared.OwnedEntity {
	return shared.OwnedEntity{
		ID:        m.ID,
		OwnerID:   m.OwnerID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainOwnedEntity populates OwnedModel from domain OwnedEntity
func (m *OwnedModel) FromDomainOwnedEntity(e shared.OwnedEntity) {
	m.ID = e.ID
	m.OwnerID = e.OwnerID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}
