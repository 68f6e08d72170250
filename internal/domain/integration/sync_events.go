package integration

import (
	"github.com/google/uuid"

	"github.com/stockpilot/backend/internal/domain/shared"
)

// Event type constants for sync jobs
const (
	EventTypeSyncCompleted = "integration.sync_completed"
	EventTypeSyncFailed    = "integration.sync_failed"
)

const aggregateTypeSyncJob = "SyncJob"

// SyncCompletedEvent is emitted when a sync job completes successfully
type SyncCompletedEvent struct {
	shared.BaseDomainEvent
	Platform  PlatformCode `json:"platform"`
	ProductID uuid.UUID    `json:"product_id"`
	Attempts  int          `json:"attempts"`
}

// NewSyncCompletedEvent creates a new SyncCompletedEvent
func NewSyncCompletedEvent(j *SyncJob) *SyncCompletedEvent {
	return &SyncCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSyncCompleted, aggregateTypeSyncJob, j.ID),
		Platform:        j.Platform,
		ProductID:       j.ProductID,
		Attempts:        j.Attempts,
	}
}

// SyncFailedEvent is emitted when a sync job exhausts its retry budget
type SyncFailedEvent struct {
	shared.BaseDomainEvent
	Platform  PlatformCode `json:"platform"`
	ProductID uuid.UUID    `json:"product_id"`
	Attempts  int          `json:"attempts"`
	LastError string       `json:"last_error"`
}

// NewSyncFailedEvent creates a new SyncFailedEvent
func NewSyncFailedEvent(j *SyncJob) *SyncFailedEvent {
	return &SyncFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSyncFailed, aggregateTypeSyncJob, j.ID),
		Platform:        j.Platform,
		ProductID:       j.ProductID,
		Attempts:        j.Attempts,
		LastError:       j.LastError,
	}
}
