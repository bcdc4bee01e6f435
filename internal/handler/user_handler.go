package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/usenarra/narra-backend/internal/middleware"
	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/service"
	"go.uber.org/zap"
)

type UserHandler struct {
	usage  *service.UsageService
	logger *zap.Logger
}

func NewUserHandler(usage *service.UsageService, logger *zap.Logger) *UserHandler {
	return &UserHandler{usage: usage, logger: logger}
}

func (h *UserHandler) GetUsage(c *fiber.Ctx) error {
	stats, err := h.usage.GetStats(middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(stats, ""))
}
