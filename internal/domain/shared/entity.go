package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity and audit timestamps every persisted
// domain object shares. IDs are generated here, never by the database.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity generates a fresh identity with both timestamps set to now
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch bumps the update timestamp at the point of a domain change
// or a save.
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}
