package models

import "time"

// Profile is a tracked creator account, shared by every user that follows it.
type Profile struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Platform       string     `json:"platform" gorm:"size:20;not null;uniqueIndex:idx_profiles_platform_handle"`
	Handle         string     `json:"handle" gorm:"size:128;not null;uniqueIndex:idx_profiles_platform_handle"`
	DisplayName    string     `json:"display_name"`
	Bio            string     `json:"bio"`
	AvatarURL      string     `json:"avatar_url"`
	FollowerCount  int64      `json:"follower_count"`
	FollowingCount int64      `json:"following_count"`
	PostCount      int64      `json:"post_count"`
	IsVerified     bool       `json:"is_verified"`
	LastUpdated    *time.Time `json:"last_updated"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type Follow struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	UserID          string     `json:"user_id" gorm:"size:64;not null;uniqueIndex:idx_follows_user_profile"`
	ProfileID       uint       `json:"profile_id" gorm:"not null;index;uniqueIndex:idx_follows_user_profile"`
	Profile         *Profile   `json:"profile,omitempty" gorm:"foreignKey:ProfileID"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type FollowRequest struct {
	Platform string `json:"platform" validate:"required,platform"`
	Handle   string `json:"handle" validate:"required,max=128"`
}

const (
	RefreshJobPending   = "pending"
	RefreshJobRunning   = "running"
	RefreshJobSucceeded = "succeeded"
	RefreshJobFailed    = "failed"
)

// RefreshJob records an asynchronous profile refresh and its attempts.
type RefreshJob struct {
	ID            string     `json:"id" gorm:"primaryKey;size:36"`
	UserID        string     `json:"user_id" gorm:"size:64;not null;index"`
	ProfileID     uint       `json:"profile_id" gorm:"not null;index"`
	Status        string     `json:"status" gorm:"size:20;not null;default:'pending';index"`
	Attempts      int        `json:"attempts" gorm:"not null;default:0"`
	MaxAttempts   int        `json:"max_attempts" gorm:"not null;default:3"`
	LastError     string     `json:"last_error,omitempty"`
	NewPosts      int        `json:"new_posts"`
	NextAttemptAt *time.Time `json:"next_attempt_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// RefreshResult is the outcome of a profile refresh. Failures are reported here
// rather than as errors so callers can return them as-is.
type RefreshResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	NewPosts int    `json:"new_posts"`
}
