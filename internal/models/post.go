package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
)

type Post struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	UserID       string         `json:"user_id" gorm:"size:64;not null;uniqueIndex:idx_posts_user_external"`
	ProfileID    *uint          `json:"profile_id" gorm:"index"`
	Platform     string         `json:"platform" gorm:"size:20;not null;uniqueIndex:idx_posts_user_external"`
	ExternalID   string         `json:"external_id" gorm:"size:128;not null;uniqueIndex:idx_posts_user_external"`
	URL          string         `json:"url"`
	Caption      string         `json:"caption"`
	ThumbnailURL string         `json:"thumbnail_url"`
	MediaURLs    datatypes.JSON `json:"media_urls"`
	Likes        int64          `json:"likes"`
	Comments     int64          `json:"comments"`
	Views        int64          `json:"views"`
	Shares       int64          `json:"shares"`
	Transcript   string         `json:"transcript,omitempty"`
	PostedAt     *time.Time     `json:"posted_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func IsSupportedPlatform(p string) bool {
	return p == PlatformInstagram || p == PlatformTikTok
}
