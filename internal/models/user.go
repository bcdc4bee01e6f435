package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	SubscriptionInactive = "inactive"
	SubscriptionActive   = "active"
	SubscriptionTrialing = "trialing"
	SubscriptionPastDue  = "past_due"
	SubscriptionCanceled = "canceled"
)

// User mirrors an identity provider account. ID is the provider's user id.
type User struct {
	ID                     string    `json:"id" gorm:"primaryKey;size:64"`
	Email                  string    `json:"email" gorm:"index;size:255"`
	FirstName              string    `json:"first_name"`
	LastName               string    `json:"last_name"`
	ImageURL               string    `json:"image_url"`
	Role                   string    `json:"role" gorm:"size:20;not null;default:'user'"`
	PlanID                 *uint     `json:"plan_id" gorm:"index"`
	Plan                   *Plan     `json:"plan,omitempty" gorm:"foreignKey:PlanID"`
	SubscriptionStatus     string    `json:"subscription_status" gorm:"size:30;not null;default:'inactive'"`
	StripeCustomerID       string    `json:"-" gorm:"index;size:255"`
	StripeSubscriptionID   string    `json:"-" gorm:"size:255"`
	ProfileDiscoveriesUsed int       `json:"profile_discoveries_used" gorm:"not null;default:0"`
	TranscriptViewsUsed    int       `json:"transcript_views_used" gorm:"not null;default:0"`
	UsageResetDate         time.Time `json:"usage_reset_date"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}
