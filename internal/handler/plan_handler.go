package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/service"
	"go.uber.org/zap"
)

type PlanHandler struct {
	plans  *service.PlanService
	logger *zap.Logger
}

func NewPlanHandler(plans *service.PlanService, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{plans: plans, logger: logger}
}

func (h *PlanHandler) GetPlans(c *fiber.Ctx) error {
	plans, err := h.plans.GetActivePlans()
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(plans, ""))
}

func (h *PlanHandler) GetPlan(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid plan ID")
	}

	plan, err := h.plans.GetPlan(id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(plan, ""))
}
