package repository

import (
	"time"

	"github.com/usenarra/narra-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FollowRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) *FollowRepository {
	return &FollowRepository{db: db}
}

// Create inserts the follow unless it already exists. It reports whether a
// new row was written; follow is reloaded either way.
func (r *FollowRepository) Create(follow *models.Follow) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(follow)
	if result.Error != nil {
		return false, result.Error
	}

	stored, err := r.GetByUserAndProfile(follow.UserID, follow.ProfileID)
	if err != nil {
		return false, err
	}
	*follow = *stored
	return result.RowsAffected == 1, nil
}

func (r *FollowRepository) GetByUserAndProfile(userID string, profileID uint) (*models.Follow, error) {
	var follow models.Follow
	err := r.db.Preload("Profile").
		Where("user_id = ? AND profile_id = ?", userID, profileID).
		First(&follow).Error
	if err != nil {
		return nil, err
	}
	return &follow, nil
}

func (r *FollowRepository) GetByIDForUser(id uint, userID string) (*models.Follow, error) {
	var follow models.Follow
	err := r.db.Preload("Profile").Where("id = ? AND user_id = ?", id, userID).First(&follow).Error
	if err != nil {
		return nil, err
	}
	return &follow, nil
}

func (r *FollowRepository) GetUserFollows(userID string) ([]models.Follow, error) {
	var follows []models.Follow
	err := r.db.Preload("Profile").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&follows).Error
	return follows, err
}

func (r *FollowRepository) GetAll() ([]models.Follow, error) {
	var follows []models.Follow
	err := r.db.Order("id ASC").Find(&follows).Error
	return follows, err
}

func (r *FollowRepository) TouchRefreshed(id uint, at time.Time) error {
	return r.db.Model(&models.Follow{}).Where("id = ?", id).Update("last_refreshed_at", at).Error
}

func (r *FollowRepository) Delete(id uint) error {
	return r.db.Delete(&models.Follow{}, id).Error
}

func (r *FollowRepository) CountByUser(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *FollowRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).Count(&count).Error
	return count, err
}
