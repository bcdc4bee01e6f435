package service

import (
	"time"

	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/repository"
	"github.com/usenarra/narra-backend/pkg/utils"
	"go.uber.org/zap"
)

type UsageKind int

const (
	UsageProfileDiscovery UsageKind = iota
	UsageTranscriptView
)

const (
	usageWarningPercent = 80
	usageLimitPercent   = 100
)

type UsageService struct {
	userRepo *repository.UserRepository
	logger   *zap.Logger
	now      func() time.Time
}

func NewUsageService(userRepo *repository.UserRepository, logger *zap.Logger) *UsageService {
	return &UsageService{userRepo: userRepo, logger: logger, now: time.Now}
}

// GetStats returns the user's counters against their plan limits.
func (s *UsageService) GetStats(userID string) (*models.UsageStats, error) {
	user, err := s.loadCurrent(userID)
	if err != nil {
		return nil, err
	}

	stats := &models.UsageStats{
		PlanID:    user.PlanID,
		ResetDate: user.UsageResetDate,
	}
	discoveryLimit, transcriptLimit := 0, 0
	if user.Plan != nil {
		stats.PlanName = user.Plan.Name
		discoveryLimit = user.Plan.ProfileDiscoveryLimit
		transcriptLimit = user.Plan.TranscriptLimit
	}
	stats.ProfileDiscoveries = NewUsageCounter(user.ProfileDiscoveriesUsed, discoveryLimit)
	stats.TranscriptViews = NewUsageCounter(user.TranscriptViewsUsed, transcriptLimit)
	return stats, nil
}

// Check returns ErrUsageLimitReached when the user's plan has no uses of kind
// left. It does not count a use.
func (s *UsageService) Check(userID string, kind UsageKind) error {
	user, err := s.loadCurrent(userID)
	if err != nil {
		return err
	}
	column, limit, err := usageLimit(user, kind)
	if err != nil {
		return err
	}
	if limit > 0 && usedOf(user, column) >= limit {
		return ErrUsageLimitReached
	}
	return nil
}

// Consume counts one use of kind against the user's plan, or returns
// ErrUsageLimitReached when the plan limit is already used up.
func (s *UsageService) Consume(userID string, kind UsageKind) error {
	user, err := s.loadCurrent(userID)
	if err != nil {
		return err
	}
	column, limit, err := usageLimit(user, kind)
	if err != nil {
		return err
	}

	ok, err := s.userRepo.IncrementUsage(userID, column, limit)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUsageLimitReached
	}
	return nil
}

func usageLimit(user *models.User, kind UsageKind) (string, int, error) {
	if user.Plan == nil {
		return "", 0, ErrNoActivePlan
	}
	if kind == UsageTranscriptView {
		return repository.UsageTranscriptViews, user.Plan.TranscriptLimit, nil
	}
	return repository.UsageProfileDiscoveries, user.Plan.ProfileDiscoveryLimit, nil
}

func usedOf(user *models.User, column string) int {
	if column == repository.UsageTranscriptViews {
		return user.TranscriptViewsUsed
	}
	return user.ProfileDiscoveriesUsed
}

// ResetMonthlyUsageCounters zeroes the counters of every user whose reset date
// is before now and moves it to the first day of the following month.
func (s *UsageService) ResetMonthlyUsageCounters(now time.Time) (int64, error) {
	n, err := s.userRepo.ResetUsageBefore(now, utils.FirstOfNextMonth(now))
	if err != nil {
		return 0, err
	}
	s.logger.Info("monthly usage counters reset", zap.Int64("users", n), zap.Time("now", now))
	return n, nil
}

// loadCurrent loads the user and applies a pending monthly reset to that row.
func (s *UsageService) loadCurrent(userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	now := s.now()
	if user.UsageResetDate.Before(now) {
		next := utils.FirstOfNextMonth(now)
		err := s.userRepo.UpdateFields(userID, map[string]interface{}{
			repository.UsageProfileDiscoveries: 0,
			repository.UsageTranscriptViews:    0,
			"usage_reset_date":                 next,
		})
		if err != nil {
			return nil, err
		}
		user.ProfileDiscoveriesUsed = 0
		user.TranscriptViewsUsed = 0
		user.UsageResetDate = next
	}
	return user, nil
}

// NewUsageCounter computes percent used and warning level. A limit of 0 is unlimited.
func NewUsageCounter(used, limit int) models.UsageCounter {
	c := models.UsageCounter{Used: used, Limit: limit, Level: models.UsageLevelOK}
	if limit <= 0 {
		return c
	}

	c.Percent = float64(used) * 100 / float64(limit)
	switch {
	case c.Percent >= usageLimitPercent:
		c.Level = models.UsageLevelLimit
	case c.Percent >= usageWarningPercent:
		c.Level = models.UsageLevelWarning
	}
	return c
}
