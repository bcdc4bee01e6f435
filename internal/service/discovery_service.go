package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/repository"
	"github.com/usenarra/narra-backend/pkg/scraper"
	"go.uber.org/zap"
)

// DiscoveryResult is a searched profile with its latest posts.
type DiscoveryResult struct {
	Profile   *scraper.Profile `json:"profile"`
	Posts     []scraper.Post   `json:"posts"`
	Following bool             `json:"following"`
	ProfileID *uint            `json:"profile_id,omitempty"`
}

// RefreshEnqueuer schedules a background refresh of a followed profile.
type RefreshEnqueuer interface {
	Enqueue(userID string, profileID uint) (*models.RefreshJob, error)
}

type DiscoveryService struct {
	source      ProfileSource
	usage       *UsageService
	userRepo    *repository.UserRepository
	profileRepo *repository.ProfileRepository
	followRepo  *repository.FollowRepository
	queue       RefreshEnqueuer
	logger      *zap.Logger
	now         func() time.Time
}

func NewDiscoveryService(source ProfileSource, usage *UsageService, userRepo *repository.UserRepository, profileRepo *repository.ProfileRepository, followRepo *repository.FollowRepository, queue RefreshEnqueuer, logger *zap.Logger) *DiscoveryService {
	return &DiscoveryService{
		source:      source,
		usage:       usage,
		userRepo:    userRepo,
		profileRepo: profileRepo,
		followRepo:  followRepo,
		queue:       queue,
		logger:      logger,
		now:         time.Now,
	}
}

// Search looks a creator up on the scraping API. Each successful search counts
// as one profile discovery.
func (s *DiscoveryService) Search(ctx context.Context, userID, platform, handle string) (*DiscoveryResult, error) {
	if err := s.usage.Check(userID, UsageProfileDiscovery); err != nil {
		return nil, err
	}

	profile, err := s.source.GetProfile(ctx, platform, handle)
	if err != nil {
		return nil, s.upstreamErr(err)
	}
	posts, err := s.source.GetPosts(ctx, platform, profile.Handle)
	if err != nil {
		return nil, s.upstreamErr(err)
	}
	if err := s.usage.Consume(userID, UsageProfileDiscovery); err != nil {
		return nil, err
	}

	result := &DiscoveryResult{Profile: profile, Posts: posts}
	stored, err := s.profileRepo.GetByPlatformHandle(platform, profile.Handle)
	switch {
	case err == nil:
		result.ProfileID = &stored.ID
		if _, err := s.followRepo.GetByUserAndProfile(userID, stored.ID); err == nil {
			result.Following = true
		} else if !repository.IsNotFound(err) {
			return nil, err
		}
	case !repository.IsNotFound(err):
		return nil, err
	}
	return result, nil
}

// Transcript fetches the transcript of a post. Each successful call counts as
// one transcript view.
func (s *DiscoveryService) Transcript(ctx context.Context, userID, platform, postURL string) (*scraper.Transcript, error) {
	if err := s.usage.Check(userID, UsageTranscriptView); err != nil {
		return nil, err
	}
	transcript, err := s.source.GetTranscript(ctx, platform, postURL)
	if err != nil {
		return nil, s.upstreamErr(err)
	}
	if err := s.usage.Consume(userID, UsageTranscriptView); err != nil {
		return nil, err
	}
	return transcript, nil
}

// Follow stores the profile, follows it and queues its first refresh. Following
// a profile twice returns the existing follow.
func (s *DiscoveryService) Follow(ctx context.Context, userID, platform, handle string) (*models.Follow, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	meta, err := s.source.GetProfile(ctx, platform, handle)
	if err != nil {
		return nil, s.upstreamErr(err)
	}

	if existing, err := s.profileRepo.GetByPlatformHandle(platform, meta.Handle); err == nil {
		if follow, err := s.followRepo.GetByUserAndProfile(userID, existing.ID); err == nil {
			return follow, nil
		}
	}

	if user.Plan != nil && user.Plan.FollowLimit > 0 {
		count, err := s.followRepo.CountByUser(userID)
		if err != nil {
			return nil, err
		}
		if count >= int64(user.Plan.FollowLimit) {
			return nil, ErrFollowLimitReached
		}
	}

	now := s.now()
	profile := &models.Profile{
		Platform:       platform,
		Handle:         meta.Handle,
		DisplayName:    meta.DisplayName,
		Bio:            meta.Bio,
		AvatarURL:      meta.AvatarURL,
		FollowerCount:  meta.FollowerCount,
		FollowingCount: meta.FollowingCount,
		PostCount:      meta.PostCount,
		IsVerified:     meta.IsVerified,
		LastUpdated:    &now,
	}
	if err := s.profileRepo.Upsert(profile); err != nil {
		return nil, err
	}

	follow := &models.Follow{UserID: userID, ProfileID: profile.ID}
	created, err := s.followRepo.Create(follow)
	if err != nil {
		return nil, err
	}

	if created && s.queue != nil {
		if _, err := s.queue.Enqueue(userID, profile.ID); err != nil {
			s.logger.Warn("failed to queue initial refresh", zap.Uint("profile_id", profile.ID), zap.Error(err))
		}
	}
	return follow, nil
}

func (s *DiscoveryService) Unfollow(userID string, followID uint) error {
	follow, err := s.followRepo.GetByIDForUser(followID, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrFollowNotFound
		}
		return err
	}
	return s.followRepo.Delete(follow.ID)
}

func (s *DiscoveryService) ListFollows(userID string) ([]models.Follow, error) {
	return s.followRepo.GetUserFollows(userID)
}

func (s *DiscoveryService) upstreamErr(err error) error {
	if errors.Is(err, scraper.ErrProfileNotFound) {
		return ErrProfileNotFound
	}
	var apiErr *scraper.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == 404 {
		return ErrProfileNotFound
	}
	s.logger.Warn("scraper request failed", zap.Error(err))
	return fmt.Errorf("%w: %v", ErrUpstream, err)
}
