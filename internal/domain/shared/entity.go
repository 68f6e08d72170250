package shared

import (
	"time"

	"github.com/google/uuid"
)

// Entity is implemented by every aggregate root and child entity. Identity
// is a v4 UUID assigned at construction, never by the database.
type Entity interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	GetUpdatedAt() time.Time
}

// BaseEntity carries the identity and audit timestamps shared by products,
// movements, warehouses and sync jobs. Embed it by value.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity assigns a fresh UUID and stamps both timestamps with the
// same instant.
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (e *BaseEntity) GetID() uuid.UUID { return e.ID }

func (e *BaseEntity) GetCreatedAt() time.Time { return e.CreatedAt }

func (e *BaseEntity) GetUpdatedAt() time.Time { return e.UpdatedAt }

// Touch bumps UpdatedAt. State-changing entity methods call it so the audit
// column tracks the last mutation rather than the last save.
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}
