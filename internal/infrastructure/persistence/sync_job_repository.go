package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormSyncJobRepository implements integration.SyncJobRepository using GORM
type GormSyncJobRepository struct {
	db *gorm.DB
}

// NewGormSyncJobRepository creates a new GormSyncJobRepository
func NewGormSyncJobRepository(db *gorm.DB) *GormSyncJobRepository {
	return &GormSyncJobRepository{db: db}
}

// FindByID finds a job by its ID
func (r *GormSyncJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*integration.SyncJob, error) {
	var job integration.SyncJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// Find returns jobs matching the filter, newest first
func (r *GormSyncJobRepository) Find(ctx context.Context, filter integration.JobFilter) ([]integration.SyncJob, error) {
	var jobs []integration.SyncJob

	query := r.db.WithContext(ctx).
		Model(&integration.SyncJob{}).
		Order("created_at DESC")

	if filter.Platform != nil {
		query = query.Where("platform = ?", *filter.Platform)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	if err := query.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// Save creates or updates a job
func (r *GormSyncJobRepository) Save(ctx context.Context, job *integration.SyncJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// Ensure GormSyncJobRepository implements SyncJobRepository
var _ integration.SyncJobRepository = (*GormSyncJobRepository)(nil)

// GormSyncJobLogRepository implements integration.SyncJobLogRepository using GORM
type GormSyncJobLogRepository struct {
	db *gorm.DB
}

// NewGormSyncJobLogRepository creates a new GormSyncJobLogRepository
func NewGormSyncJobLogRepository(db *gorm.DB) *GormSyncJobLogRepository {
	return &GormSyncJobLogRepository{db: db}
}

// Append persists a log line
func (r *GormSyncJobLogRepository) Append(ctx context.Context, log *integration.SyncJobLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByJob returns all log lines of a job in insertion order
func (r *GormSyncJobLogRepository) FindByJob(ctx context.Context, jobID uuid.UUID) ([]integration.SyncJobLog, error) {
	var logs []integration.SyncJobLog
	if err := r.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("created_at ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// Ensure GormSyncJobLogRepository implements SyncJobLogRepository
var _ integration.SyncJobLogRepository = (*GormSyncJobLogRepository)(nil)
