package integration

import (
	"context"

	"github.com/google/uuid"
)

// JobFilter narrows sync job queries
type JobFilter struct {
	Platform *PlatformCode
	Status   *JobStatus
	Page     int
	PageSize int
}

// SyncJobRepository defines persistence operations for sync jobs
type SyncJobRepository interface {
	// FindByID finds a job by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*SyncJob, error)

	// Find returns jobs matching the filter, newest first
	Find(ctx context.Context, filter JobFilter) ([]SyncJob, error)

	// Save creates or updates a job
	Save(ctx context.Context, job *SyncJob) error
}

// SyncJobLogRepository defines persistence operations for sync job log lines
type SyncJobLogRepository interface {
	// Append persists a log line
	Append(ctx context.Context, log *SyncJobLog) error

	// FindByJob returns all log lines of a job in insertion order
	FindByJob(ctx context.Context, jobID uuid.UUID) ([]SyncJobLog, error)
}
