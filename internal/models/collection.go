package models

import "time"

type Folder struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      string    `json:"user_id" gorm:"index;size:64;not null"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	Boards      []Board   `json:"boards,omitempty" gorm:"foreignKey:FolderID"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Board is a named collection of saved posts. CopiedFrom* fields are set when
// the board was created by copying another user's shared board.
type Board struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	FolderID           uint       `json:"folder_id" gorm:"index;not null"`
	UserID             string     `json:"user_id" gorm:"size:64;not null;index;uniqueIndex:idx_boards_user_copied_from"`
	Name               string     `json:"name" gorm:"not null"`
	Description        string     `json:"description"`
	IsShared           bool       `json:"is_shared" gorm:"default:false"`
	PublicID           string     `json:"public_id" gorm:"uniqueIndex;size:64;not null"`
	CopiedFromPublicID *string    `json:"copied_from_public_id,omitempty" gorm:"size:64;uniqueIndex:idx_boards_user_copied_from"`
	CopiedFromName     *string    `json:"copied_from_name,omitempty"`
	CopiedAt           *time.Time `json:"copied_at,omitempty"`
	PostCount          int64      `json:"post_count" gorm:"-"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type BoardPost struct {
	ID      uint      `json:"id" gorm:"primaryKey"`
	BoardID uint      `json:"board_id" gorm:"not null;uniqueIndex:idx_board_posts_board_post"`
	PostID  uint      `json:"post_id" gorm:"not null;index;uniqueIndex:idx_board_posts_board_post"`
	Post    *Post     `json:"post,omitempty" gorm:"foreignKey:PostID"`
	AddedAt time.Time `json:"added_at"`
}

type CreateFolderRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type CreateBoardRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

type UpdateBoardRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	IsShared    *bool   `json:"is_shared"`
	FolderID    *uint   `json:"folder_id"`
}

type CopyBoardRequest struct {
	PublicID string `json:"public_id" validate:"required"`
	FolderID uint   `json:"folder_id" validate:"required"`
}

type SavePostRequest struct {
	Platform     string   `json:"platform" validate:"required,platform"`
	ExternalID   string   `json:"external_id" validate:"required"`
	URL          string   `json:"url" validate:"omitempty,url"`
	Caption      string   `json:"caption"`
	ThumbnailURL string   `json:"thumbnail_url"`
	MediaURLs    []string `json:"media_urls"`
	Likes        int64    `json:"likes"`
	Comments     int64    `json:"comments"`
	Views        int64    `json:"views"`
	Shares       int64    `json:"shares"`
	ProfileID    *uint    `json:"profile_id"`
}

// SharedBoard is the public view of a shared board.
type SharedBoard struct {
	PublicID    string    `json:"public_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Posts       []Post    `json:"posts"`
	CreatedAt   time.Time `json:"created_at"`
}
