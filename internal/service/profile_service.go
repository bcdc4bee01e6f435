package service

import (
	"context"
	"fmt"
	"time"

	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/repository"
	"github.com/usenarra/narra-backend/pkg/scraper"
	"go.uber.org/zap"
)

// ProfileSource fetches creator data from the scraping API.
type ProfileSource interface {
	GetProfile(ctx context.Context, platform, handle string) (*scraper.Profile, error)
	GetPosts(ctx context.Context, platform, handle string) ([]scraper.Post, error)
	GetTranscript(ctx context.Context, platform, postURL string) (*scraper.Transcript, error)
}

type ProfileService struct {
	source      ProfileSource
	profileRepo *repository.ProfileRepository
	followRepo  *repository.FollowRepository
	postRepo    *repository.PostRepository
	logger      *zap.Logger
	now         func() time.Time
}

func NewProfileService(source ProfileSource, profileRepo *repository.ProfileRepository, followRepo *repository.FollowRepository, postRepo *repository.PostRepository, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		source:      source,
		profileRepo: profileRepo,
		followRepo:  followRepo,
		postRepo:    postRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// Refresh pulls the latest posts of a followed profile and stores the ones the
// user does not have yet. The returned error is only ErrFollowNotFound or a
// database error; scraper failures are reported in the result.
func (s *ProfileService) Refresh(ctx context.Context, userID string, profileID uint) (result *models.RefreshResult, err error) {
	follow, err := s.followRepo.GetByUserAndProfile(userID, profileID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrFollowNotFound
		}
		return nil, err
	}
	if follow.Profile == nil {
		return nil, ErrProfileNotFound
	}
	profile := follow.Profile

	log := s.logger.With(
		zap.String("user_id", userID),
		zap.Uint("profile_id", profileID),
		zap.String("platform", profile.Platform),
		zap.String("handle", profile.Handle),
	)

	defer func() {
		if r := recover(); r != nil {
			log.Error("profile refresh panicked", zap.Any("panic", r))
			result, err = failedRefresh(fmt.Sprintf("refresh failed: %v", r)), nil
		}
	}()

	meta, err := s.source.GetProfile(ctx, profile.Platform, profile.Handle)
	if err != nil {
		log.Warn("failed to fetch profile", zap.Error(err))
		return failedRefresh("failed to fetch profile: " + err.Error()), nil
	}

	latest, err := s.source.GetPosts(ctx, profile.Platform, profile.Handle)
	if err != nil {
		log.Warn("failed to fetch posts", zap.Error(err))
		return failedRefresh("failed to fetch posts: " + err.Error()), nil
	}

	existing, err := s.postRepo.GetExternalIDs(userID, profileID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(existing)+len(latest))
	for _, id := range existing {
		seen[id] = struct{}{}
	}

	var fresh []models.Post
	for _, p := range latest {
		if _, ok := seen[p.ExternalID]; ok {
			continue
		}
		seen[p.ExternalID] = struct{}{}
		fresh = append(fresh, toPostModel(userID, profileID, profile.Platform, p))
	}

	inserted, err := s.postRepo.CreateNew(fresh)
	if err != nil {
		return nil, err
	}

	now := s.now()
	profile.DisplayName = meta.DisplayName
	profile.Bio = meta.Bio
	profile.AvatarURL = meta.AvatarURL
	profile.FollowerCount = meta.FollowerCount
	profile.FollowingCount = meta.FollowingCount
	profile.PostCount = meta.PostCount
	profile.IsVerified = meta.IsVerified
	if err := s.profileRepo.UpdateMetadata(profile, now); err != nil {
		return nil, err
	}
	if err := s.followRepo.TouchRefreshed(follow.ID, now); err != nil {
		return nil, err
	}

	log.Info("profile refreshed", zap.Int64("new_posts", inserted))
	return &models.RefreshResult{
		Success:  true,
		Message:  fmt.Sprintf("found %d new posts", inserted),
		NewPosts: int(inserted),
	}, nil
}

// GetProfilePosts returns the user's stored posts for a followed profile.
func (s *ProfileService) GetProfilePosts(userID string, profileID uint, limit int) ([]models.Post, error) {
	if err := s.EnsureFollowing(userID, profileID); err != nil {
		return nil, err
	}
	return s.postRepo.GetUserProfilePosts(userID, profileID, limit)
}

// EnsureFollowing returns ErrFollowNotFound unless the user follows the profile.
func (s *ProfileService) EnsureFollowing(userID string, profileID uint) error {
	if _, err := s.followRepo.GetByUserAndProfile(userID, profileID); err != nil {
		if repository.IsNotFound(err) {
			return ErrFollowNotFound
		}
		return err
	}
	return nil
}

// RefreshAllFollows refreshes every follow in turn and returns how many
// refreshes succeeded and failed.
func (s *ProfileService) RefreshAllFollows(ctx context.Context) (succeeded, failed int, err error) {
	follows, err := s.followRepo.GetAll()
	if err != nil {
		return 0, 0, err
	}

	for _, f := range follows {
		if ctx.Err() != nil {
			return succeeded, failed, ctx.Err()
		}
		result, err := s.Refresh(ctx, f.UserID, f.ProfileID)
		if err != nil || !result.Success {
			failed++
			continue
		}
		succeeded++
	}
	return succeeded, failed, nil
}

func failedRefresh(message string) *models.RefreshResult {
	return &models.RefreshResult{Success: false, Message: message}
}

func toPostModel(userID string, profileID uint, platform string, p scraper.Post) models.Post {
	pid := profileID
	return models.Post{
		UserID:       userID,
		ProfileID:    &pid,
		Platform:     platform,
		ExternalID:   p.ExternalID,
		URL:          p.URL,
		Caption:      p.Caption,
		ThumbnailURL: p.ThumbnailURL,
		MediaURLs:    mediaJSON(p.MediaURLs),
		Likes:        p.Likes,
		Comments:     p.Comments,
		Views:        p.Views,
		Shares:       p.Shares,
		PostedAt:     p.PostedAt,
	}
}
