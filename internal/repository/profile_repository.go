package repository

import (
	"time"

	"github.com/usenarra/narra-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Upsert creates the profile or refreshes its metadata, keyed by (platform, handle).
// profile is reloaded from the database on return.
func (r *ProfileRepository) Upsert(profile *models.Profile) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "platform"}, {Name: "handle"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"display_name", "bio", "avatar_url", "follower_count", "following_count",
			"post_count", "is_verified", "last_updated", "updated_at",
		}),
	}).Create(profile).Error
	if err != nil {
		return err
	}

	stored, err := r.GetByPlatformHandle(profile.Platform, profile.Handle)
	if err != nil {
		return err
	}
	*profile = *stored
	return nil
}

func (r *ProfileRepository) GetByID(id uint) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.First(&profile, id).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) GetByPlatformHandle(platform, handle string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.Where("platform = ? AND handle = ?", platform, handle).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) UpdateMetadata(profile *models.Profile, at time.Time) error {
	return r.db.Model(&models.Profile{}).Where("id = ?", profile.ID).Updates(map[string]interface{}{
		"display_name":    profile.DisplayName,
		"bio":             profile.Bio,
		"avatar_url":      profile.AvatarURL,
		"follower_count":  profile.FollowerCount,
		"following_count": profile.FollowingCount,
		"post_count":      profile.PostCount,
		"is_verified":     profile.IsVerified,
		"last_updated":    at,
	}).Error
}

func (r *ProfileRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Profile{}).Count(&count).Error
	return count, err
}
