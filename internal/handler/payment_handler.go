package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v74"
	"github.com/usenarra/narra-backend/internal/middleware"
	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/service"
	"github.com/usenarra/narra-backend/pkg/utils"
	"go.uber.org/zap"
)

// EventVerifier checks a payment webhook signature and decodes the event.
type EventVerifier interface {
	ConstructEvent(payload []byte, signature string) (stripe.Event, error)
}

type PaymentHandler struct {
	billing   *service.BillingService
	verifier  EventVerifier
	validator *utils.Validator
	logger    *zap.Logger
}

func NewPaymentHandler(billing *service.BillingService, verifier EventVerifier, validator *utils.Validator, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{billing: billing, verifier: verifier, validator: validator, logger: logger}
}

func (h *PaymentHandler) CreateCheckoutSession(c *fiber.Ctx) error {
	var req models.CreateCheckoutSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, utils.Message(err))
	}

	session, err := h.billing.CreateCheckoutSession(middleware.UserID(c), req.PlanID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(session, "Checkout session created"))
}

func (h *PaymentHandler) CreatePortalSession(c *fiber.Ctx) error {
	session, err := h.billing.CreatePortalSession(middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(session, ""))
}

func (h *PaymentHandler) VerifyCheckoutSession(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return badRequest(c, "session_id is required")
	}

	result, err := h.billing.VerifyCheckoutSession(middleware.UserID(c), sessionID)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(result, ""))
}

func (h *PaymentHandler) StripeWebhook(c *fiber.Ctx) error {
	signature := c.Get("Stripe-Signature")
	if signature == "" {
		return badRequest(c, "Missing Stripe-Signature header")
	}

	event, err := h.verifier.ConstructEvent(c.Body(), signature)
	if err != nil {
		h.logger.Warn("rejected payment webhook", zap.Error(err))
		return badRequest(c, "Invalid webhook signature")
	}

	if err := h.billing.HandleEvent(event); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"received": true})
}
