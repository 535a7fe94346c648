package shared

import (
	"time"

	"github.com/google/uuid"
)

// OwnedEntity carries the identity and ownership every domain record shares.
// A zero ID marks an entity that has not been persisted yet. OwnerID is
// assigned by persistence on first save and never changes afterwards.
type OwnedEntity struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetID returns the entity ID
func (e *OwnedEntity) GetID() uuid.UUID {
	return e.ID
}

// IsNew reports whether the entity has not been persisted.
func (e *OwnedEntity) IsNew() bool {
	return e.ID == uuid.Nil
}
