package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/usenarra/narra-backend/internal/authcache"
	"github.com/usenarra/narra-backend/internal/models"
	"go.uber.org/zap"
)

// CacheHandler exposes the authorization cache to admins for debugging.
type CacheHandler struct {
	cache  authcache.Store
	logger *zap.Logger
}

func NewCacheHandler(cache authcache.Store, logger *zap.Logger) *CacheHandler {
	return &CacheHandler{cache: cache, logger: logger}
}

func (h *CacheHandler) GetStats(c *fiber.Ctx) error {
	return c.JSON(models.SuccessResponse(h.cache.Stats(), ""))
}

func (h *CacheHandler) Clear(c *fiber.Ctx) error {
	h.cache.Clear()
	h.logger.Info("authorization cache cleared")
	return c.JSON(models.SuccessResponse(nil, "Cache cleared"))
}

func (h *CacheHandler) Invalidate(c *fiber.Ctx) error {
	userID := c.Params("userId")
	h.cache.Delete(userID)
	h.logger.Info("authorization cache entry invalidated", zap.String("user_id", userID))
	return c.JSON(models.SuccessResponse(nil, "Cache entry invalidated"))
}
