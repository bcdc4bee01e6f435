package repository

import (
	"github.com/usenarra/narra-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Save inserts the post or refreshes the metrics of the user's existing copy,
// matching on (user_id, platform, external_id). post.ID is set on return.
func (r *PostRepository) Save(post *models.Post) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "platform"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"caption", "thumbnail_url", "media_urls", "likes", "comments", "views", "shares", "updated_at",
		}),
	}).Create(post).Error
	if err != nil {
		return err
	}

	var stored models.Post
	err = r.db.Where("user_id = ? AND platform = ? AND external_id = ?", post.UserID, post.Platform, post.ExternalID).
		First(&stored).Error
	if err != nil {
		return err
	}
	*post = stored
	return nil
}

func (r *PostRepository) GetByIDForUser(id uint, userID string) (*models.Post, error) {
	var post models.Post
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// GetExternalIDs returns the external ids already stored for a user's profile.
func (r *PostRepository) GetExternalIDs(userID string, profileID uint) ([]string, error) {
	var ids []string
	err := r.db.Model(&models.Post{}).
		Where("user_id = ? AND profile_id = ?", userID, profileID).
		Pluck("external_id", &ids).Error
	return ids, err
}

// CreateNew inserts posts, skipping any that already exist, and returns how
// many rows were written.
func (r *PostRepository) CreateNew(posts []models.Post) (int64, error) {
	if len(posts) == 0 {
		return 0, nil
	}
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&posts)
	return result.RowsAffected, result.Error
}

func (r *PostRepository) GetUserProfilePosts(userID string, profileID uint, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.Where("user_id = ? AND profile_id = ?", userID, profileID).
		Order("posted_at DESC, id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *PostRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Count(&count).Error
	return count, err
}
