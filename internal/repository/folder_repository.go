package repository

import (
	"github.com/usenarra/narra-backend/internal/models"
	"gorm.io/gorm"
)

type FolderRepository struct {
	db *gorm.DB
}

func NewFolderRepository(db *gorm.DB) *FolderRepository {
	return &FolderRepository{db: db}
}

func (r *FolderRepository) Create(folder *models.Folder) error {
	return r.db.Create(folder).Error
}

func (r *FolderRepository) GetByIDForUser(id uint, userID string) (*models.Folder, error) {
	var folder models.Folder
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&folder).Error
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

// GetUserFolders returns the user's folders with their boards, oldest first.
func (r *FolderRepository) GetUserFolders(userID string) ([]models.Folder, error) {
	var folders []models.Folder
	err := r.db.Where("user_id = ?", userID).
		Preload("Boards", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Order("created_at ASC").
		Find(&folders).Error
	return folders, err
}

func (r *FolderRepository) Update(folder *models.Folder) error {
	return r.db.Model(folder).Updates(map[string]interface{}{
		"name":        folder.Name,
		"description": folder.Description,
	}).Error
}

// Delete removes the folder together with its boards and their memberships.
func (r *FolderRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		boardIDs := tx.Model(&models.Board{}).Select("id").Where("folder_id = ?", id)
		if err := tx.Where("board_id IN (?)", boardIDs).Delete(&models.BoardPost{}).Error; err != nil {
			return err
		}
		if err := tx.Where("folder_id = ?", id).Delete(&models.Board{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Folder{}, id).Error
	})
}

func (r *FolderRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Folder{}).Count(&count).Error
	return count, err
}
