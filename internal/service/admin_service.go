package service

import (
	"context"
	"time"

	"github.com/usenarra/narra-backend/internal/authcache"
	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AdminService struct {
	userRepo    *repository.UserRepository
	planRepo    *repository.PlanRepository
	folderRepo  *repository.FolderRepository
	boardRepo   *repository.BoardRepository
	postRepo    *repository.PostRepository
	profileRepo *repository.ProfileRepository
	followRepo  *repository.FollowRepository
	cache       authcache.Invalidator
	logger      *zap.Logger
	now         func() time.Time
}

func NewAdminService(
	userRepo *repository.UserRepository,
	planRepo *repository.PlanRepository,
	folderRepo *repository.FolderRepository,
	boardRepo *repository.BoardRepository,
	postRepo *repository.PostRepository,
	profileRepo *repository.ProfileRepository,
	followRepo *repository.FollowRepository,
	cache authcache.Invalidator,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		userRepo:    userRepo,
		planRepo:    planRepo,
		folderRepo:  folderRepo,
		boardRepo:   boardRepo,
		postRepo:    postRepo,
		profileRepo: profileRepo,
		followRepo:  followRepo,
		cache:       cache,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *AdminService) GetStats(ctx context.Context) (*models.AdminStats, error) {
	stats := &models.AdminStats{}
	now := s.now()

	g, _ := errgroup.WithContext(ctx)
	count := func(dst *int64, fn func() (int64, error)) {
		g.Go(func() error {
			n, err := fn()
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}

	count(&stats.TotalUsers, s.userRepo.Count)
	count(&stats.AdminUsers, func() (int64, error) { return s.userRepo.CountByRole(models.RoleAdmin) })
	count(&stats.NewUsersLast7Days, func() (int64, error) { return s.userRepo.CountCreatedSince(now.AddDate(0, 0, -7)) })
	count(&stats.NewUsersLast30Days, func() (int64, error) { return s.userRepo.CountCreatedSince(now.AddDate(0, 0, -30)) })
	count(&stats.Folders, s.folderRepo.Count)
	count(&stats.Boards, s.boardRepo.Count)
	count(&stats.SharedBoards, s.boardRepo.CountShared)
	count(&stats.Posts, s.postRepo.Count)
	count(&stats.Profiles, s.profileRepo.Count)
	count(&stats.Follows, s.followRepo.Count)

	g.Go(func() error {
		m, err := s.userRepo.CountBySubscriptionStatus()
		if err != nil {
			return err
		}
		stats.UsersByStatus = m
		return nil
	})
	g.Go(func() error {
		m, err := s.userRepo.CountByPlan()
		if err != nil {
			return err
		}
		stats.UsersByPlan = m
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *AdminService) ListUsers(page, limit int, search string) (*models.UserList, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	users, total, err := s.userRepo.List(page, limit, search)
	if err != nil {
		return nil, err
	}
	return &models.UserList{Users: users, Total: total, Page: page, Limit: limit}, nil
}

func (s *AdminService) SetRole(userID, role string) (*models.User, error) {
	if _, err := s.getUser(userID); err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{"role": role}); err != nil {
		return nil, err
	}
	s.cache.Delete(userID)
	s.logger.Info("user role set by admin", zap.String("user_id", userID), zap.String("role", role))
	return s.getUser(userID)
}

// SetPlan assigns a plan to the user, or removes it when planID is nil.
func (s *AdminService) SetPlan(userID string, planID *uint) (*models.User, error) {
	if _, err := s.getUser(userID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{"plan_id": nil}
	if planID != nil {
		if _, err := s.planRepo.GetByID(*planID); err != nil {
			if repository.IsNotFound(err) {
				return nil, ErrPlanNotFound
			}
			return nil, err
		}
		fields["plan_id"] = *planID
	}

	if err := s.userRepo.UpdateFields(userID, fields); err != nil {
		return nil, err
	}
	s.cache.Delete(userID)
	s.logger.Info("user plan set by admin", zap.String("user_id", userID), zap.Any("plan_id", planID))
	return s.getUser(userID)
}

func (s *AdminService) getUser(userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
