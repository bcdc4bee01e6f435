package service

import (
	"github.com/usenarra/narra-backend/internal/authcache"
	"github.com/usenarra/narra-backend/internal/repository"
	"go.uber.org/zap"
)

// AccessService resolves a user's plan and admin flag for the request gates,
// reading through the authorization cache.
type AccessService struct {
	cache    authcache.Store
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewAccessService(cache authcache.Store, userRepo *repository.UserRepository, logger *zap.Logger) *AccessService {
	return &AccessService{cache: cache, userRepo: userRepo, logger: logger}
}

// Lookup returns the cached entry or loads the user row and caches it. A user
// that has not been synced yet resolves to no plan and not admin.
func (s *AccessService) Lookup(userID string) (authcache.Entry, error) {
	if entry, ok := s.cache.Get(userID); ok {
		return entry, nil
	}

	var entry authcache.Entry
	user, err := s.userRepo.GetByID(userID)
	switch {
	case err == nil:
		entry = authcache.Entry{PlanID: user.PlanID, IsAdmin: user.IsAdmin()}
	case repository.IsNotFound(err):
		s.logger.Debug("user not synced yet", zap.String("user_id", userID))
	default:
		return authcache.Entry{}, err
	}

	return s.cache.Set(userID, entry.PlanID, entry.IsAdmin), nil
}
