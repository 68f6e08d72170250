package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsync "github.com/stockpilot/backend/internal/application/sync"
	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/interfaces/http/dto"
)

// SyncHandler exposes sync job listings, per-job logs, and manual retry
type SyncHandler struct {
	BaseHandler
	jobs       *appsync.JobService
	reconciler *appsync.Reconciler
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(jobs *appsync.JobService, reconciler *appsync.Reconciler) *SyncHandler {
	return &SyncHandler{
		jobs:       jobs,
		reconciler: reconciler,
	}
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/sync/jobs")
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.GET("/:id/logs", h.Logs)
		group.POST("/:id/retry", h.Retry)
	}
}

// SyncJobResponse is one sync job in API responses
type SyncJobResponse struct {
	ID          string     `json:"id"`
	JobType     string     `json:"job_type"`
	Platform    string     `json:"platform"`
	ProductID   string     `json:"product_id"`
	Status      string     `json:"status"`
	Attempts    int        `json:"attempts"`
	LastError   string     `json:"last_error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toSyncJobResponse(j *integration.SyncJob) SyncJobResponse {
	return SyncJobResponse{
		ID:          j.ID.String(),
		JobType:     string(j.JobType),
		Platform:    j.Platform.String(),
		ProductID:   j.ProductID.String(),
		Status:      string(j.Status),
		Attempts:    j.Attempts,
		LastError:   j.LastError,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		CreatedAt:   j.CreatedAt,
	}
}

// List returns sync jobs, newest first, filterable by platform and status
func (h *SyncHandler) List(c *gin.Context) {
	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	list.Normalize()

	filter := integration.JobFilter{Page: list.Page, PageSize: list.PageSize}
	if raw := c.Query("platform"); raw != "" {
		platform := integration.PlatformCode(raw)
		if !platform.IsValid() {
			h.BadRequest(c, "Invalid platform code")
			return
		}
		filter.Platform = &platform
	}
	if raw := c.Query("status"); raw != "" {
		status := integration.JobStatus(raw)
		if !status.IsValid() {
			h.BadRequest(c, "Invalid job status")
			return
		}
		filter.Status = &status
	}

	jobs, err := h.jobs.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	rows := make([]SyncJobResponse, 0, len(jobs))
	for i := range jobs {
		rows = append(rows, toSyncJobResponse(&jobs[i]))
	}
	h.Success(c, rows)
}

// Get returns a single sync job
func (h *SyncHandler) Get(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID")
		return
	}

	job, err := h.jobs.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, toSyncJobResponse(job))
}

// SyncJobLogResponse is one log line in API responses
type SyncJobLogResponse struct {
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Logs returns the log lines of a job in insertion order
func (h *SyncHandler) Logs(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID")
		return
	}

	logs, err := h.jobs.JobLogs(c.Request.Context(), jobID)
	if err != nil {
		h.DomainError(c, err)
		return
	}

	rows := make([]SyncJobLogResponse, 0, len(logs))
	for _, log := range logs {
		rows = append(rows, SyncJobLogResponse{
			Level:     string(log.Level),
			Message:   log.Message,
			CreatedAt: log.CreatedAt,
		})
	}
	h.Success(c, rows)
}

// Retry requeues a failed job for another push
func (h *SyncHandler) Retry(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID")
		return
	}

	if err := h.reconciler.Retry(c.Request.Context(), jobID); err != nil {
		if errors.Is(err, integration.ErrPlatformNotConfigured) {
			h.respondError(c, http.StatusServiceUnavailable, "PLATFORM_NOT_CONFIGURED", "Platform has no running worker pool")
			return
		}
		h.DomainError(c, err)
		return
	}
	h.NoContent(c)
}
