package handler

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/service"
	"github.com/usenarra/narra-backend/pkg/webhooks"
	"go.uber.org/zap"
)

// AuthHandler receives identity provider webhooks that keep local users in sync.
type AuthHandler struct {
	verifier *webhooks.ClerkVerifier
	userSync *service.UserSyncService
	logger   *zap.Logger
}

func NewAuthHandler(verifier *webhooks.ClerkVerifier, userSync *service.UserSyncService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{verifier: verifier, userSync: userSync, logger: logger}
}

func (h *AuthHandler) ClerkWebhook(c *fiber.Ctx) error {
	headers := http.Header{}
	for _, name := range []string{webhooks.HeaderSvixID, webhooks.HeaderSvixTimestamp, webhooks.HeaderSvixSignature} {
		v := c.Get(name)
		if v == "" {
			return badRequest(c, "Missing svix headers")
		}
		headers.Set(name, v)
	}

	event, err := h.verifier.Verify(c.Body(), headers)
	if err != nil {
		h.logger.Warn("rejected identity webhook", zap.Error(err))
		if errors.Is(err, webhooks.ErrInvalidSignature) {
			return badRequest(c, "Invalid webhook signature")
		}
		return badRequest(c, "Invalid webhook payload")
	}

	if err := h.userSync.HandleEvent(event); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(nil, "Webhook processed"))
}
