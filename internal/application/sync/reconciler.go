package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockpilot/backend/internal/domain/catalog"
	"github.com/stockpilot/backend/internal/domain/integration"
	"github.com/stockpilot/backend/internal/domain/shared"
	"github.com/stockpilot/backend/internal/infrastructure/config"
)

// errProductInactive aborts a push without counting it as a failure.
var errProductInactive = errors.New("sync: product is inactive")

// Reconciler pushes authoritative local stock to external storefronts. Each
// enabled platform gets its own bounded queue and worker pool so one slow or
// failing platform cannot starve the others. Pushes always send the
// then-current absolute stock, never the delta that triggered them.
type Reconciler struct {
	cfg      config.SyncConfig
	registry integration.PlatformRegistry
	products catalog.ProductRepository
	jobs     integration.SyncJobRepository
	jobLogs  integration.SyncJobLogRepository
	events   shared.EventPublisher
	logger   *zap.Logger

	mu      sync.Mutex
	queues  map[integration.PlatformCode]chan uuid.UUID
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewReconciler creates a stopped reconciler. Call Start before enqueueing.
func NewReconciler(
	cfg config.SyncConfig,
	registry integration.PlatformRegistry,
	products catalog.ProductRepository,
	jobs integration.SyncJobRepository,
	jobLogs integration.SyncJobLogRepository,
	events shared.EventPublisher,
	logger *zap.Logger,
) *Reconciler {
	return &Reconciler{
		cfg:      cfg,
		registry: registry,
		products: products,
		jobs:     jobs,
		jobLogs:  jobLogs,
		events:   events,
		logger:   logger.Named("sync"),
		queues:   make(map[integration.PlatformCode]chan uuid.UUID),
	}
}

// Start spawns the per-platform worker pools for every enabled adapter
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	enabled := r.registry.ListEnabled()
	for _, adapter := range enabled {
		code := adapter.PlatformCode()
		queue := make(chan uuid.UUID, r.cfg.QueueSize)
		r.queues[code] = queue

		for i := 0; i < r.cfg.WorkersPerPlatform; i++ {
			r.wg.Add(1)
			go r.worker(workerCtx, code, queue)
		}
	}

	r.started = true
	r.logger.Info("reconciler started",
		zap.Int("platforms", len(enabled)),
		zap.Int("workers_per_platform", r.cfg.WorkersPerPlatform),
	)
	return nil
}

// Stop closes the queues and waits for in-flight pushes to drain, bounded by
// the configured shutdown timeout
func (r *Reconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = false
	for _, queue := range r.queues {
		close(queue)
	}
	r.queues = make(map[integration.PlatformCode]chan uuid.UUID)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		r.logger.Info("reconciler stopped")
		return nil
	case <-time.After(r.cfg.ShutdownTimeout):
		r.cancel()
		r.logger.Warn("reconciler shutdown timed out, abandoning in-flight pushes")
		return nil
	case <-ctx.Done():
		r.cancel()
		return ctx.Err()
	}
}

// EnqueueStockSync creates one pending stock push job per enabled platform and
// hands it to that platform's worker pool. A full queue leaves the job pending
// in the database; it can be requeued manually or by a scheduled re-sync.
func (r *Reconciler) EnqueueStockSync(ctx context.Context, productID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.started {
		return shared.NewDomainError("SYNC_NOT_RUNNING", "Reconciler is not running")
	}

	for code, queue := range r.queues {
		job, err := integration.NewStockPushJob(code, productID)
		if err != nil {
			return err
		}
		if err := r.jobs.Save(ctx, job); err != nil {
			return fmt.Errorf("save sync job: %w", err)
		}

		select {
		case queue <- job.ID:
		default:
			r.logger.Warn("sync queue full, job left pending",
				zap.String("platform", code.String()),
				zap.String("job_id", job.ID.String()),
			)
		}
	}
	return nil
}

// Retry requeues a failed job for another push
func (r *Reconciler) Retry(ctx context.Context, jobID uuid.UUID) error {
	job, err := r.jobs.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	if err := job.Requeue(); err != nil {
		return err
	}
	if err := r.jobs.Save(ctx, job); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	queue, ok := r.queues[job.Platform]
	if !ok {
		return integration.ErrPlatformNotConfigured
	}
	select {
	case queue <- job.ID:
		return nil
	default:
		r.logger.Warn("sync queue full on retry, job left pending",
			zap.String("job_id", job.ID.String()))
		return nil
	}
}

func (r *Reconciler) worker(ctx context.Context, code integration.PlatformCode, queue <-chan uuid.UUID) {
	defer r.wg.Done()
	for jobID := range queue {
		select {
		case <-ctx.Done():
			return
		default:
		}
		r.process(ctx, code, jobID)
	}
}

// process drives one job through its attempts. Transient platform errors are
// retried with doubling backoff up to the attempt budget; permanent errors
// fail the job immediately.
func (r *Reconciler) process(ctx context.Context, code integration.PlatformCode, jobID uuid.UUID) {
	job, err := r.jobs.FindByID(ctx, jobID)
	if err != nil {
		r.logger.Error("failed to load sync job",
			zap.String("job_id", jobID.String()), zap.Error(err))
		return
	}
	if job.Status.IsTerminal() {
		return
	}

	job.Start()
	if err := r.jobs.Save(ctx, job); err != nil {
		r.logger.Error("failed to mark sync job processing", zap.Error(err))
		return
	}

	for {
		err := r.push(ctx, job)
		if err == nil {
			job.Complete()
			r.appendJobLog(ctx, job.ID, integration.LogLevelInfo,
				fmt.Sprintf("stock pushed to %s after %d attempt(s)", code, job.Attempts))
			r.finishJob(ctx, job)
			return
		}
		if errors.Is(err, errProductInactive) {
			job.Complete()
			r.appendJobLog(ctx, job.ID, integration.LogLevelInfo, "product inactive, push skipped")
			r.finishJob(ctx, job)
			return
		}

		r.appendJobLog(ctx, job.ID, integration.LogLevelError,
			fmt.Sprintf("attempt %d failed: %v", job.Attempts, err))

		if !integration.IsTransient(err) || job.Attempts >= r.cfg.MaxAttempts {
			job.Fail(err.Error())
			r.finishJob(ctx, job)
			r.logger.Warn("sync job failed",
				zap.String("job_id", job.ID.String()),
				zap.String("platform", code.String()),
				zap.Int("attempts", job.Attempts),
				zap.Error(err),
			)
			return
		}

		delay := r.backoffDelay(job.Attempts)
		select {
		case <-ctx.Done():
			job.Fail("shutdown before retry")
			r.finishJob(ctx, job)
			return
		case <-time.After(delay):
		}

		job.Attempts++
		job.Touch()
		if err := r.jobs.Save(ctx, job); err != nil {
			r.logger.Error("failed to record sync attempt", zap.Error(err))
		}
	}
}

// push performs a single outbound platform call with the then-current stock
func (r *Reconciler) push(ctx context.Context, job *integration.SyncJob) error {
	adapter, err := r.registry.GetAdapter(job.Platform)
	if err != nil {
		return err
	}

	// Re-read on every attempt so retries push the latest value.
	product, err := r.products.FindByID(ctx, job.ProductID)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return errProductInactive
	}

	pushCtx, cancel := context.WithTimeout(ctx, r.cfg.PushTimeout)
	defer cancel()
	strategy, err := adapter.SetStock(pushCtx, product.SKU, product.CurrentStock)
	if err != nil {
		return err
	}
	if strategy == integration.MatchStrategyName {
		r.appendJobLog(ctx, job.ID, integration.LogLevelWarn,
			fmt.Sprintf("product %s matched by fuzzy name, verify the platform SKU", product.SKU))
		r.logger.Warn("stock pushed via fuzzy name match",
			zap.String("job_id", job.ID.String()),
			zap.String("platform", job.Platform.String()),
			zap.String("sku", product.SKU),
		)
	}
	return nil
}

func (r *Reconciler) backoffDelay(attempt int) time.Duration {
	delay := r.cfg.RetryBaseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= r.cfg.RetryMaxDelay {
			return r.cfg.RetryMaxDelay
		}
	}
	if delay > r.cfg.RetryMaxDelay {
		return r.cfg.RetryMaxDelay
	}
	return delay
}

func (r *Reconciler) appendJobLog(ctx context.Context, jobID uuid.UUID, level integration.LogLevel, message string) {
	if err := r.jobLogs.Append(ctx, integration.NewSyncJobLog(jobID, level, message)); err != nil {
		r.logger.Error("failed to append sync job log", zap.Error(err))
	}
}

func (r *Reconciler) finishJob(ctx context.Context, job *integration.SyncJob) {
	if err := r.jobs.Save(ctx, job); err != nil {
		r.logger.Error("failed to save sync job", zap.Error(err))
		return
	}
	if events := job.GetDomainEvents(); len(events) > 0 {
		if err := r.events.Publish(ctx, events...); err != nil {
			r.logger.Error("failed to publish sync events", zap.Error(err))
		}
		job.ClearDomainEvents()
	}
}
