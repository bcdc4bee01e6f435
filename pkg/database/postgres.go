package database

import (
	"fmt"
	"time"

	"github.com/usenarra/narra-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDatabase(databaseURL string) (*gorm.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

// AllModels lists every table owned by the service, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&models.Plan{},
		&models.User{},
		&models.Folder{},
		&models.Board{},
		&models.Profile{},
		&models.Post{},
		&models.BoardPost{},
		&models.Follow{},
		&models.RefreshJob{},
	}
}

func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return err
	}
	return SeedDefaultPlans(db)
}

// DefaultPlans are created on first boot. Stripe price ids are filled in from the
// dashboard afterwards.
func DefaultPlans() []models.Plan {
	return []models.Plan{
		{
			Name:                  "Starter",
			Slug:                  "starter",
			Description:           "For creators getting started with research",
			PriceCents:            1900,
			Currency:              "usd",
			Interval:              "month",
			ProfileDiscoveryLimit: 50,
			TranscriptLimit:       25,
			FollowLimit:           10,
			Features:              datatypes.JSON(`["50 profile discoveries","25 transcripts","10 followed creators"]`),
			IsActive:              true,
			SortOrder:             1,
		},
		{
			Name:                  "Pro",
			Slug:                  "pro",
			Description:           "For teams running content research every week",
			PriceCents:            4900,
			Currency:              "usd",
			Interval:              "month",
			ProfileDiscoveryLimit: 250,
			TranscriptLimit:       150,
			FollowLimit:           50,
			Features:              datatypes.JSON(`["250 profile discoveries","150 transcripts","50 followed creators","Board sharing"]`),
			IsActive:              true,
			SortOrder:             2,
		},
		{
			Name:                  "Agency",
			Slug:                  "agency",
			Description:           "Unlimited research for agencies",
			PriceCents:            14900,
			Currency:              "usd",
			Interval:              "month",
			ProfileDiscoveryLimit: 0,
			TranscriptLimit:       0,
			FollowLimit:           0,
			Features:              datatypes.JSON(`["Unlimited discoveries","Unlimited transcripts","Unlimited follows","Priority support"]`),
			IsActive:              true,
			SortOrder:             3,
		},
	}
}

// SeedDefaultPlans inserts any default plan whose slug is missing.
func SeedDefaultPlans(db *gorm.DB) error {
	for _, plan := range DefaultPlans() {
		var count int64
		if err := db.Model(&models.Plan{}).Where("slug = ?", plan.Slug).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			p := plan
			if err := db.Create(&p).Error; err != nil {
				return fmt.Errorf("failed to add plan %s: %w", plan.Slug, err)
			}
		}
	}
	return nil
}
