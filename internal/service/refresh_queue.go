package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/repository"
	"go.uber.org/zap"
)

// Refresher runs a single profile refresh.
type Refresher interface {
	Refresh(ctx context.Context, userID string, profileID uint) (*models.RefreshResult, error)
}

type RefreshQueueConfig struct {
	Workers     int
	MaxAttempts int
	// BaseBackoff is the delay before the first retry; it doubles per attempt.
	BaseBackoff time.Duration
	// JobTimeout bounds a single attempt.
	JobTimeout time.Duration
}

// RefreshQueue runs profile refreshes in the background. Every job is stored as
// a RefreshJob row so its attempts survive a restart.
type RefreshQueue struct {
	jobRepo   *repository.RefreshJobRepository
	refresher Refresher
	cfg       RefreshQueueConfig
	logger    *zap.Logger
	now       func() time.Time

	jobs   chan string
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	timers sync.WaitGroup
}

func NewRefreshQueue(jobRepo *repository.RefreshJobRepository, refresher Refresher, cfg RefreshQueueConfig, logger *zap.Logger) *RefreshQueue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 30 * time.Second
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 2 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &RefreshQueue{
		jobRepo:   jobRepo,
		refresher: refresher,
		cfg:       cfg,
		logger:    logger.Named("refresh_queue"),
		now:       time.Now,
		jobs:      make(chan string, 256),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the workers and re-queues jobs left unfinished by a previous process.
func (q *RefreshQueue) Start() error {
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}

	unfinished, err := q.jobRepo.GetUnfinished()
	if err != nil {
		return err
	}
	for _, job := range unfinished {
		delay := time.Duration(0)
		if job.NextAttemptAt != nil {
			delay = job.NextAttemptAt.Sub(q.now())
		}
		q.schedule(job.ID, delay)
	}
	if len(unfinished) > 0 {
		q.logger.Info("re-queued unfinished refresh jobs", zap.Int("count", len(unfinished)))
	}
	return nil
}

// Stop cancels pending retries and waits for running jobs to return.
func (q *RefreshQueue) Stop() {
	q.cancel()
	q.wg.Wait()
	q.timers.Wait()
}

func (q *RefreshQueue) Enqueue(userID string, profileID uint) (*models.RefreshJob, error) {
	job := &models.RefreshJob{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProfileID:   profileID,
		Status:      models.RefreshJobPending,
		MaxAttempts: q.cfg.MaxAttempts,
	}
	if err := q.jobRepo.Create(job); err != nil {
		return nil, err
	}
	q.schedule(job.ID, 0)
	return job, nil
}

func (q *RefreshQueue) GetJob(userID, jobID string) (*models.RefreshJob, error) {
	job, err := q.jobRepo.GetByIDForUser(jobID, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return job, nil
}

// schedule hands the job to a worker after delay. Jobs scheduled after Stop
// stay pending in the database and are picked up by the next Start.
func (q *RefreshQueue) schedule(id string, delay time.Duration) {
	q.timers.Add(1)
	go func() {
		defer q.timers.Done()
		if delay > 0 {
			t := time.NewTimer(delay)
			defer t.Stop()
			select {
			case <-t.C:
			case <-q.ctx.Done():
				return
			}
		}
		select {
		case q.jobs <- id:
		case <-q.ctx.Done():
		}
	}()
}

func (q *RefreshQueue) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case id := <-q.jobs:
			q.process(id)
		}
	}
}

func (q *RefreshQueue) process(id string) {
	log := q.logger.With(zap.String("job_id", id))

	job, err := q.jobRepo.GetByID(id)
	if err != nil {
		log.Error("failed to load refresh job", zap.Error(err))
		return
	}
	if job.Status == models.RefreshJobSucceeded || job.Status == models.RefreshJobFailed {
		return
	}

	if err := q.jobRepo.MarkRunning(id); err != nil {
		log.Error("failed to mark job running", zap.Error(err))
		return
	}
	attempt := job.Attempts + 1

	ctx, cancel := context.WithTimeout(q.ctx, q.cfg.JobTimeout)
	result, err := q.refresher.Refresh(ctx, job.UserID, job.ProfileID)
	cancel()

	switch {
	case err != nil && (errors.Is(err, ErrFollowNotFound) || errors.Is(err, ErrProfileNotFound)):
		q.fail(log, id, err.Error())
	case err != nil:
		q.retryOrFail(log, job, attempt, err.Error())
	case !result.Success:
		q.retryOrFail(log, job, attempt, result.Message)
	default:
		if err := q.jobRepo.MarkSucceeded(id, result.NewPosts, q.now()); err != nil {
			log.Error("failed to mark job succeeded", zap.Error(err))
			return
		}
		log.Info("refresh job succeeded", zap.Int("attempt", attempt), zap.Int("new_posts", result.NewPosts))
	}
}

func (q *RefreshQueue) retryOrFail(log *zap.Logger, job *models.RefreshJob, attempt int, reason string) {
	maxAttempts := job.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = q.cfg.MaxAttempts
	}
	if attempt >= maxAttempts {
		q.fail(log, job.ID, reason)
		return
	}

	delay := q.backoff(attempt)
	if err := q.jobRepo.MarkRetry(job.ID, reason, q.now().Add(delay)); err != nil {
		log.Error("failed to mark job for retry", zap.Error(err))
		return
	}
	log.Warn("refresh attempt failed, retrying",
		zap.Int("attempt", attempt),
		zap.Duration("backoff", delay),
		zap.String("reason", reason),
	)
	q.schedule(job.ID, delay)
}

func (q *RefreshQueue) fail(log *zap.Logger, id, reason string) {
	if err := q.jobRepo.MarkFailed(id, reason, q.now()); err != nil {
		log.Error("failed to mark job failed", zap.Error(err))
		return
	}
	log.Warn("refresh job failed", zap.String("reason", reason))
}

func (q *RefreshQueue) backoff(attempt int) time.Duration {
	return q.cfg.BaseBackoff << (attempt - 1)
}
