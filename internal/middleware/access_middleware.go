package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/usenarra/narra-backend/internal/authcache"
	"github.com/usenarra/narra-backend/internal/models"
	"go.uber.org/zap"
)

// AccessResolver returns the plan and admin flag used by the gates.
type AccessResolver interface {
	Lookup(userID string) (authcache.Entry, error)
}

// PlanRequired lets the request through only when the user has a plan. Users
// without one get a 403 carrying the plan selection path.
func PlanRequired(resolver AccessResolver, redirect string, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entry, ok, err := resolve(c, resolver, logger)
		if !ok {
			return err
		}
		if !entry.HasPlan() {
			return c.Status(fiber.StatusForbidden).JSON(models.RedirectResponse("An active plan is required", redirect))
		}
		return c.Next()
	}
}

func AdminRequired(resolver AccessResolver, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		entry, ok, err := resolve(c, resolver, logger)
		if !ok {
			return err
		}
		if !entry.IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(models.ErrorResponse("Admin access required"))
		}
		return c.Next()
	}
}

// Access returns the entry resolved by a gate earlier in the chain.
func Access(c *fiber.Ctx) (authcache.Entry, bool) {
	entry, ok := c.Locals(accessKey).(authcache.Entry)
	return entry, ok
}

// resolve loads the caller's access entry. When ok is false the response has
// already been written and err is what the handler should return.
func resolve(c *fiber.Ctx, resolver AccessResolver, logger *zap.Logger) (entry authcache.Entry, ok bool, err error) {
	if entry, ok := Access(c); ok {
		return entry, true, nil
	}

	userID := UserID(c)
	if userID == "" {
		return entry, false, unauthorized(c, "Authentication required")
	}

	entry, err = resolver.Lookup(userID)
	if err != nil {
		logger.Error("access lookup failed", zap.String("user_id", userID), zap.Error(err))
		return entry, false, c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse("Failed to load account"))
	}
	c.Locals(accessKey, entry)
	return entry, true, nil
}
