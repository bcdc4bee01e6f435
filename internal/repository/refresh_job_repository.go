package repository

import (
	"time"

	"github.com/usenarra/narra-backend/internal/models"
	"gorm.io/gorm"
)

type RefreshJobRepository struct {
	db *gorm.DB
}

func NewRefreshJobRepository(db *gorm.DB) *RefreshJobRepository {
	return &RefreshJobRepository{db: db}
}

func (r *RefreshJobRepository) Create(job *models.RefreshJob) error {
	return r.db.Create(job).Error
}

func (r *RefreshJobRepository) GetByID(id string) (*models.RefreshJob, error) {
	var job models.RefreshJob
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *RefreshJobRepository) GetByIDForUser(id, userID string) (*models.RefreshJob, error) {
	var job models.RefreshJob
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkRunning records the start of a new attempt.
func (r *RefreshJobRepository) MarkRunning(id string) error {
	return r.db.Model(&models.RefreshJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":   models.RefreshJobRunning,
		"attempts": gorm.Expr("attempts + 1"),
	}).Error
}

func (r *RefreshJobRepository) MarkSucceeded(id string, newPosts int, at time.Time) error {
	return r.db.Model(&models.RefreshJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":          models.RefreshJobSucceeded,
		"new_posts":       newPosts,
		"last_error":      "",
		"next_attempt_at": nil,
		"completed_at":    at,
	}).Error
}

func (r *RefreshJobRepository) MarkRetry(id, lastError string, next time.Time) error {
	return r.db.Model(&models.RefreshJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":          models.RefreshJobPending,
		"last_error":      lastError,
		"next_attempt_at": next,
	}).Error
}

func (r *RefreshJobRepository) MarkFailed(id, lastError string, at time.Time) error {
	return r.db.Model(&models.RefreshJob{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":          models.RefreshJobFailed,
		"last_error":      lastError,
		"next_attempt_at": nil,
		"completed_at":    at,
	}).Error
}

// GetUnfinished returns pending and running jobs, oldest first.
func (r *RefreshJobRepository) GetUnfinished() ([]models.RefreshJob, error) {
	var jobs []models.RefreshJob
	err := r.db.Where("status IN ?", []string{models.RefreshJobPending, models.RefreshJobRunning}).
		Order("created_at ASC").
		Find(&jobs).Error
	return jobs, err
}
