package handler

import (
	"errors"
	"strconv"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/service"
	"go.uber.org/zap"
)

var errStatus = []struct {
	err    error
	status int
}{
	{service.ErrUserNotFound, fiber.StatusNotFound},
	{service.ErrPlanNotFound, fiber.StatusNotFound},
	{service.ErrFolderNotFound, fiber.StatusNotFound},
	{service.ErrBoardNotFound, fiber.StatusNotFound},
	{service.ErrPostNotFound, fiber.StatusNotFound},
	{service.ErrFollowNotFound, fiber.StatusNotFound},
	{service.ErrProfileNotFound, fiber.StatusNotFound},
	{service.ErrJobNotFound, fiber.StatusNotFound},
	{service.ErrAlreadyCopied, fiber.StatusConflict},
	{service.ErrNoActivePlan, fiber.StatusForbidden},
	{service.ErrFollowLimitReached, fiber.StatusForbidden},
	{service.ErrSessionMismatch, fiber.StatusForbidden},
	{service.ErrUsageLimitReached, fiber.StatusTooManyRequests},
	{service.ErrBoardNotShared, fiber.StatusBadRequest},
	{service.ErrPlanNotPurchasable, fiber.StatusBadRequest},
	{service.ErrNoBillingAccount, fiber.StatusBadRequest},
	{service.ErrInvalidImageURL, fiber.StatusBadRequest},
	{service.ErrNotAnImage, fiber.StatusBadRequest},
	{service.ErrImageTooLarge, fiber.StatusBadRequest},
}

// respondError maps service errors to a status and JSON body. Anything
// unrecognised is logged, reported to Sentry and returned as a 500.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	for _, e := range errStatus {
		if errors.Is(err, e.err) {
			return c.Status(e.status).JSON(models.ErrorResponse(e.err.Error()))
		}
	}

	logger.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	capture(c, err)

	msg := "Internal server error"
	if errors.Is(err, service.ErrUpstream) {
		msg = service.ErrUpstream.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse(msg))
}

func capture(c *fiber.Ctx, err error) {
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse(msg))
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return uint(id), nil
}

// ErrorHandler is the fiber error handler for errors returned past the handlers.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(models.ErrorResponse(fe.Message))
		}
		return respondError(c, logger, err)
	}
}
