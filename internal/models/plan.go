package models

import (
	"time"

	"gorm.io/datatypes"
)

type Plan struct {
	ID                    uint           `json:"id" gorm:"primaryKey"`
	Name                  string         `json:"name" gorm:"not null"`
	Slug                  string         `json:"slug" gorm:"uniqueIndex;size:64;not null"`
	Description           string         `json:"description"`
	PriceCents            int64          `json:"price_cents" gorm:"not null"`
	Currency              string         `json:"currency" gorm:"size:3;not null;default:'usd'"`
	Interval              string         `json:"interval" gorm:"size:10;not null;default:'month'"`
	StripePriceID         string         `json:"-" gorm:"index;size:255"`
	ProfileDiscoveryLimit int            `json:"profile_discovery_limit" gorm:"not null;default:0"`
	TranscriptLimit       int            `json:"transcript_limit" gorm:"not null;default:0"`
	FollowLimit           int            `json:"follow_limit" gorm:"not null;default:0"`
	Features              datatypes.JSON `json:"features"`
	IsActive              bool           `json:"is_active" gorm:"default:true"`
	SortOrder             int            `json:"sort_order" gorm:"default:0"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}
