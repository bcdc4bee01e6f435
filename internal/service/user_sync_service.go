package service

import (
	"time"

	"github.com/usenarra/narra-backend/internal/authcache"
	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/repository"
	"github.com/usenarra/narra-backend/pkg/email"
	"github.com/usenarra/narra-backend/pkg/utils"
	"github.com/usenarra/narra-backend/pkg/webhooks"
	"go.uber.org/zap"
)

// UserSyncService mirrors identity provider users into the users table.
type UserSyncService struct {
	userRepo *repository.UserRepository
	cache    authcache.Invalidator
	mailer   email.Mailer
	logger   *zap.Logger
	now      func() time.Time
}

func NewUserSyncService(userRepo *repository.UserRepository, cache authcache.Invalidator, mailer email.Mailer, logger *zap.Logger) *UserSyncService {
	return &UserSyncService{
		userRepo: userRepo,
		cache:    cache,
		mailer:   mailer,
		logger:   logger,
		now:      time.Now,
	}
}

// HandleEvent applies a verified identity webhook. Unknown event types are ignored.
func (s *UserSyncService) HandleEvent(event *webhooks.ClerkEvent) error {
	switch event.Type {
	case webhooks.EventUserCreated, webhooks.EventUserUpdated:
		u, err := event.User()
		if err != nil {
			return err
		}
		return s.upsert(u, event.Type == webhooks.EventUserCreated)
	case webhooks.EventUserDeleted:
		u, err := event.User()
		if err != nil {
			return err
		}
		if err := s.userRepo.Delete(u.ID); err != nil {
			return err
		}
		s.cache.Delete(u.ID)
		s.logger.Info("user deleted", zap.String("user_id", u.ID))
		return nil
	default:
		s.logger.Debug("ignoring identity event", zap.String("type", event.Type))
		return nil
	}
}

// upsert writes the identity fields in one statement. Subscription status,
// plan and usage counters are only set when the row is inserted. The welcome
// email follows the event type, so it is sent for user.created even when a
// user.updated for the same id was stored first.
func (s *UserSyncService) upsert(u *webhooks.ClerkUser, created bool) error {
	role := normalizeRole(u.Role())

	previousRole := ""
	if existing, err := s.userRepo.GetByID(u.ID); err == nil {
		previousRole = existing.Role
	} else if !repository.IsNotFound(err) {
		return err
	}

	user := &models.User{
		ID:                 u.ID,
		Email:              u.PrimaryEmail(),
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		ImageURL:           u.ImageURL,
		Role:               role,
		SubscriptionStatus: models.SubscriptionInactive,
		UsageResetDate:     utils.FirstOfNextMonth(s.now()),
	}
	if err := s.userRepo.UpsertIdentity(user); err != nil {
		return err
	}

	// previousRole is empty when the row did not exist before this event.
	if previousRole != role {
		s.cache.Delete(u.ID)
		s.logger.Info("user synced", zap.String("user_id", u.ID), zap.String("from_role", previousRole), zap.String("role", role))
	}

	if created {
		s.sendWelcome(user)
	}
	return nil
}

func (s *UserSyncService) sendWelcome(user *models.User) {
	if user.Email == "" {
		return
	}
	if err := s.mailer.SendWelcomeEmail(user.Email, user.FullName()); err != nil {
		s.logger.Warn("failed to send welcome email", zap.String("user_id", user.ID), zap.Error(err))
	}
}

func normalizeRole(role string) string {
	if role == models.RoleAdmin {
		return models.RoleAdmin
	}
	return models.RoleUser
}
