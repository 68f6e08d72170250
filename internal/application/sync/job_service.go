package sync

import (
	"context"

	"github.com/google/uuid"

	"github.com/stockpilot/backend/internal/domain/integration"
)

// JobService is the read side of the reconciler: job listings and per-job logs
// for the admin surface.
type JobService struct {
	jobs    integration.SyncJobRepository
	jobLogs integration.SyncJobLogRepository
}

// NewJobService creates a new JobService
func NewJobService(jobs integration.SyncJobRepository, jobLogs integration.SyncJobLogRepository) *JobService {
	return &JobService{jobs: jobs, jobLogs: jobLogs}
}

// ListJobs returns jobs matching the filter, newest first
func (s *JobService) ListJobs(ctx context.Context, filter integration.JobFilter) ([]integration.SyncJob, error) {
	return s.jobs.Find(ctx, filter)
}

// GetJob returns a single job by ID
func (s *JobService) GetJob(ctx context.Context, id uuid.UUID) (*integration.SyncJob, error) {
	return s.jobs.FindByID(ctx, id)
}

// JobLogs returns the log lines of a job in insertion order
func (s *JobService) JobLogs(ctx context.Context, jobID uuid.UUID) ([]integration.SyncJobLog, error) {
	if _, err := s.jobs.FindByID(ctx, jobID); err != nil {
		return nil, err
	}
	return s.jobLogs.FindByJob(ctx, jobID)
}
