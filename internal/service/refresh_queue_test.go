package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/repository"
	"go.uber.org/zap"
)

type scriptedRefresher struct {
	mu       sync.Mutex
	calls    int
	failures int
	err      error
}

func (r *scriptedRefresher) Refresh(_ context.Context, _ string, _ uint) (*models.RefreshResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	if r.calls <= r.failures {
		return &models.RefreshResult{Success: false, Message: "scraper unavailable"}, nil
	}
	return &models.RefreshResult{Success: true, NewPosts: 2}, nil
}

func (r *scriptedRefresher) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func newTestQueue(t *testing.T, jobs *repository.RefreshJobRepository, r Refresher, maxAttempts int) *RefreshQueue {
	q := NewRefreshQueue(jobs, r, RefreshQueueConfig{
		Workers:     2,
		MaxAttempts: maxAttempts,
		BaseBackoff: time.Millisecond,
		JobTimeout:  time.Second,
	}, zap.NewNop())
	if err := q.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(q.Stop)
	return q
}

func waitForStatus(t *testing.T, jobs *repository.RefreshJobRepository, id, status string) *models.RefreshJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := jobs.GetByID(id)
		if err == nil && job.Status == status {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	job, _ := jobs.GetByID(id)
	t.Fatalf("job %s did not reach %s, last state %+v", id, status, job)
	return nil
}

func TestRefreshQueueRetriesThenSucceeds(t *testing.T) {
	jobs := repository.NewRefreshJobRepository(newDB(t))
	r := &scriptedRefresher{failures: 2}
	q := newTestQueue(t, jobs, r, 3)

	job, err := q.Enqueue("user_1", 7)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if job.Status != models.RefreshJobPending {
		t.Fatalf("new job status = %q", job.Status)
	}

	done := waitForStatus(t, jobs, job.ID, models.RefreshJobSucceeded)
	if done.Attempts != 3 || done.NewPosts != 2 || done.CompletedAt == nil {
		t.Fatalf("job = %+v", done)
	}
}

func TestRefreshQueueGivesUpAfterMaxAttempts(t *testing.T) {
	jobs := repository.NewRefreshJobRepository(newDB(t))
	r := &scriptedRefresher{failures: 100}
	q := newTestQueue(t, jobs, r, 3)

	job, _ := q.Enqueue("user_1", 7)
	failed := waitForStatus(t, jobs, job.ID, models.RefreshJobFailed)
	if failed.Attempts != 3 || failed.LastError != "scraper unavailable" {
		t.Fatalf("job = %+v", failed)
	}
	if r.callCount() != 3 {
		t.Fatalf("refresher called %d times, want 3", r.callCount())
	}
}

func TestRefreshQueueDoesNotRetryMissingFollow(t *testing.T) {
	jobs := repository.NewRefreshJobRepository(newDB(t))
	r := &scriptedRefresher{err: ErrFollowNotFound}
	q := newTestQueue(t, jobs, r, 5)

	job, _ := q.Enqueue("user_1", 7)
	failed := waitForStatus(t, jobs, job.ID, models.RefreshJobFailed)
	if failed.Attempts != 1 {
		t.Fatalf("attempts = %d, want 1", failed.Attempts)
	}
}

func TestRefreshQueueResumesUnfinishedJobs(t *testing.T) {
	jobs := repository.NewRefreshJobRepository(newDB(t))
	left := &models.RefreshJob{ID: "job-left", UserID: "user_1", ProfileID: 3, Status: models.RefreshJobRunning, Attempts: 1, MaxAttempts: 3}
	if err := jobs.Create(left); err != nil {
		t.Fatal(err)
	}

	newTestQueue(t, jobs, &scriptedRefresher{}, 3)

	done := waitForStatus(t, jobs, "job-left", models.RefreshJobSucceeded)
	if done.Attempts != 2 {
		t.Fatalf("attempts = %d, want 2", done.Attempts)
	}
}

func TestGetJobIsScopedToUser(t *testing.T) {
	jobs := repository.NewRefreshJobRepository(newDB(t))
	q := newTestQueue(t, jobs, &scriptedRefresher{}, 3)

	job, _ := q.Enqueue("user_1", 7)
	if _, err := q.GetJob("user_2", job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
	if _, err := q.GetJob("user_1", job.ID); err != nil {
		t.Fatalf("GetJob: %v", err)
	}
}
