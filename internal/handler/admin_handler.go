package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/service"
	"github.com/usenarra/narra-backend/pkg/utils"
	"go.uber.org/zap"
)

type AdminHandler struct {
	admin     *service.AdminService
	validator *utils.Validator
	logger    *zap.Logger
}

func NewAdminHandler(admin *service.AdminService, validator *utils.Validator, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, validator: validator, logger: logger}
}

func (h *AdminHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.admin.GetStats(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(stats, ""))
}

func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	list, err := h.admin.ListUsers(c.QueryInt("page", 1), c.QueryInt("limit", 20), c.Query("search"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(list, ""))
}

func (h *AdminHandler) SetRole(c *fiber.Ctx) error {
	var req models.SetRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, utils.Message(err))
	}

	user, err := h.admin.SetRole(c.Params("id"), req.Role)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(user, "Role updated"))
}

func (h *AdminHandler) SetPlan(c *fiber.Ctx) error {
	var req models.SetPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.admin.SetPlan(c.Params("id"), req.PlanID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(user, "Plan updated"))
}
