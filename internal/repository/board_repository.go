package repository

import (
	"github.com/usenarra/narra-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BoardRepository struct {
	db *gorm.DB
}

func NewBoardRepository(db *gorm.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

func (r *BoardRepository) Create(board *models.Board) error {
	return r.db.Create(board).Error
}

func (r *BoardRepository) GetByIDForUser(id uint, userID string) (*models.Board, error) {
	var board models.Board
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&board).Error
	if err != nil {
		return nil, err
	}
	return &board, nil
}

func (r *BoardRepository) GetByPublicID(publicID string) (*models.Board, error) {
	var board models.Board
	err := r.db.Where("public_id = ?", publicID).First(&board).Error
	if err != nil {
		return nil, err
	}
	return &board, nil
}

func (r *BoardRepository) HasCopy(userID, sourcePublicID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Board{}).
		Where("user_id = ? AND copied_from_public_id = ?", userID, sourcePublicID).
		Count(&count).Error
	return count > 0, err
}

func (r *BoardRepository) Update(board *models.Board) error {
	return r.db.Model(board).Updates(map[string]interface{}{
		"name":        board.Name,
		"description": board.Description,
		"is_shared":   board.IsShared,
		"folder_id":   board.FolderID,
	}).Error
}

func (r *BoardRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("board_id = ?", id).Delete(&models.BoardPost{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Board{}, id).Error
	})
}

// CreateCopy inserts board and one membership per post id in a single transaction.
func (r *BoardRepository) CreateCopy(board *models.Board, postIDs []uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(board).Error; err != nil {
			return err
		}
		if len(postIDs) == 0 {
			return nil
		}

		memberships := make([]models.BoardPost, len(postIDs))
		for i, postID := range postIDs {
			memberships[i] = models.BoardPost{
				BoardID: board.ID,
				PostID:  postID,
				AddedAt: board.CreatedAt,
			}
		}
		return tx.CreateInBatches(memberships, 500).Error
	})
}

func (r *BoardRepository) GetPostIDs(boardID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.BoardPost{}).
		Where("board_id = ?", boardID).
		Order("added_at ASC, id ASC").
		Pluck("post_id", &ids).Error
	return ids, err
}

func (r *BoardRepository) GetBoardPosts(boardID uint) ([]models.BoardPost, error) {
	var posts []models.BoardPost
	err := r.db.Preload("Post").
		Where("board_id = ?", boardID).
		Order("added_at DESC, id DESC").
		Find(&posts).Error
	return posts, err
}

// AddPost links a post to a board. Adding the same post twice is a no-op.
func (r *BoardRepository) AddPost(boardPost *models.BoardPost) error {
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(boardPost).Error
}

func (r *BoardRepository) RemovePost(boardID, postID uint) (int64, error) {
	result := r.db.Where("board_id = ? AND post_id = ?", boardID, postID).Delete(&models.BoardPost{})
	return result.RowsAffected, result.Error
}

// CountPosts returns membership counts keyed by board id.
func (r *BoardRepository) CountPosts(boardIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(boardIDs))
	if len(boardIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		BoardID uint
		Count   int64
	}
	err := r.db.Model(&models.BoardPost{}).
		Select("board_id, COUNT(*) AS count").
		Where("board_id IN ?", boardIDs).
		Group("board_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.BoardID] = row.Count
	}
	return counts, nil
}

func (r *BoardRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Board{}).Count(&count).Error
	return count, err
}

func (r *BoardRepository) CountShared() (int64, error) {
	var count int64
	err := r.db.Model(&models.Board{}).Where("is_shared = ?", true).Count(&count).Error
	return count, err
}
