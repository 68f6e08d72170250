package integration

import (
	"time"

	"github.com/google/uuid"

	"github.com/stockpilot/backend/internal/domain/shared"
)

// JobType represents the kind of work a sync job performs
type JobType string

const (
	// JobTypeStockPush pushes local authoritative stock to a platform
	JobTypeStockPush JobType = "stock_push"
)

// JobStatus represents the lifecycle state of a sync job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsValid returns true if the status is valid
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for completed and failed
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// LogLevel tags a sync job log line
type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// SyncJob tracks one outbound reconciliation unit against one platform.
// Jobs are created by the reconciler only; the order state machine never
// writes them directly. A job that exhausts its retry budget is marked
// failed and kept for manual or scheduled re-sync, never dropped.
type SyncJob struct {
	shared.BaseAggregateRoot
	JobType        JobType      `gorm:"type:varchar(30);not null"`
	Platform       PlatformCode `gorm:"type:varchar(30);not null;index"`
	ProductID      uuid.UUID    `gorm:"type:uuid;not null;index"`
	Status         JobStatus    `gorm:"type:varchar(20);not null;index"`
	TotalItems     int          `gorm:"not null;default:0"`
	ProcessedItems int          `gorm:"not null;default:0"`
	FailedItems    int          `gorm:"not null;default:0"`
	Attempts       int          `gorm:"not null;default:0"`
	LastError      string       `gorm:"type:varchar(500)"`
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// TableName returns the table name for GORM
func (SyncJob) TableName() string {
	return "sync_jobs"
}

// NewStockPushJob creates a pending stock push job for one product-platform pair
func NewStockPushJob(platform PlatformCode, productID uuid.UUID) (*SyncJob, error) {
	if !platform.IsValid() {
		return nil, shared.NewDomainError("INVALID_PLATFORM", "Invalid platform code")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	return &SyncJob{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		JobType:           JobTypeStockPush,
		Platform:          platform,
		ProductID:         productID,
		Status:            JobStatusPending,
		TotalItems:        1,
	}, nil
}

// Start marks the job as processing and counts the attempt
func (j *SyncJob) Start() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.Attempts++
	j.StartedAt = &now
	j.UpdatedAt = now
	j.IncrementVersion()
}

// Complete marks the job as completed
func (j *SyncJob) Complete() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.ProcessedItems = j.TotalItems
	j.FailedItems = 0
	j.LastError = ""
	j.CompletedAt = &now
	j.UpdatedAt = now
	j.IncrementVersion()
	j.AddDomainEvent(NewSyncCompletedEvent(j))
}

// Fail marks the job as failed with the final error
func (j *SyncJob) Fail(errMsg string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.FailedItems = j.TotalItems
	j.LastError = errMsg
	j.CompletedAt = &now
	j.UpdatedAt = now
	j.IncrementVersion()
	j.AddDomainEvent(NewSyncFailedEvent(j))
}

// Requeue puts a failed job back to pending for a manual retry
func (j *SyncJob) Requeue() error {
	if j.Status != JobStatusFailed {
		return shared.ErrInvalidState
	}
	j.Status = JobStatusPending
	j.FailedItems = 0
	j.LastError = ""
	j.StartedAt = nil
	j.CompletedAt = nil
	j.Touch()
	j.IncrementVersion()
	return nil
}

// SyncJobLog is a level-tagged free-text line keyed to a job
type SyncJobLog struct {
	shared.BaseEntity
	JobID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Level   LogLevel  `gorm:"type:varchar(10);not null"`
	Message string    `gorm:"type:varchar(1000);not null"`
}

// TableName returns the table name for GORM
func (SyncJobLog) TableName() string {
	return "sync_job_logs"
}

// NewSyncJobLog creates a log line for a job
func NewSyncJobLog(jobID uuid.UUID, level LogLevel, message string) *SyncJobLog {
	return &SyncJobLog{
		BaseEntity: shared.NewBaseEntity(),
		JobID:      jobID,
		Level:      level,
		Message:    message,
	}
}
