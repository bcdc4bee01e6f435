package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/usenarra/narra-backend/internal/middleware"
	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/service"
	"github.com/usenarra/narra-backend/pkg/utils"
	"go.uber.org/zap"
)

const defaultProfilePostsLimit = 50

// DiscoveryHandler serves creator search, transcripts, follows and refreshes.
type DiscoveryHandler struct {
	discovery *service.DiscoveryService
	profiles  *service.ProfileService
	queue     *service.RefreshQueue
	validator *utils.Validator
	logger    *zap.Logger
}

func NewDiscoveryHandler(discovery *service.DiscoveryService, profiles *service.ProfileService, queue *service.RefreshQueue, validator *utils.Validator, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		discovery: discovery,
		profiles:  profiles,
		queue:     queue,
		validator: validator,
		logger:    logger,
	}
}

func (h *DiscoveryHandler) Discover(c *fiber.Ctx) error {
	platform, handle := c.Query("platform"), c.Query("handle")
	if !models.IsSupportedPlatform(platform) {
		return badRequest(c, "platform must be instagram or tiktok")
	}
	if handle == "" {
		return badRequest(c, "handle is required")
	}

	result, err := h.discovery.Search(c.UserContext(), middleware.UserID(c), platform, handle)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(result, ""))
}

func (h *DiscoveryHandler) Transcript(c *fiber.Ctx) error {
	platform, postURL := c.Query("platform"), c.Query("url")
	if !models.IsSupportedPlatform(platform) {
		return badRequest(c, "platform must be instagram or tiktok")
	}
	if postURL == "" {
		return badRequest(c, "url is required")
	}

	transcript, err := h.discovery.Transcript(c.UserContext(), middleware.UserID(c), platform, postURL)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(transcript, ""))
}

func (h *DiscoveryHandler) ListFollows(c *fiber.Ctx) error {
	follows, err := h.discovery.ListFollows(middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(follows, ""))
}

func (h *DiscoveryHandler) Follow(c *fiber.Ctx) error {
	var req models.FollowRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, utils.Message(err))
	}

	follow, err := h.discovery.Follow(c.UserContext(), middleware.UserID(c), req.Platform, req.Handle)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(follow, "Following profile"))
}

func (h *DiscoveryHandler) Unfollow(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid follow ID")
	}
	if err := h.discovery.Unfollow(middleware.UserID(c), id); err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(nil, "Unfollowed profile"))
}

func (h *DiscoveryHandler) GetProfilePosts(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid profile ID")
	}
	limit := c.QueryInt("limit", defaultProfilePostsLimit)
	if limit < 1 || limit > 200 {
		limit = defaultProfilePostsLimit
	}

	posts, err := h.profiles.GetProfilePosts(middleware.UserID(c), id, limit)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(posts, ""))
}

// RefreshProfile runs the refresh inline. A scraper failure is still a 200
// with success false in the result.
func (h *DiscoveryHandler) RefreshProfile(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid profile ID")
	}

	result, err := h.profiles.Refresh(c.UserContext(), middleware.UserID(c), id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.Response{Success: result.Success, Message: result.Message, Data: result})
}

func (h *DiscoveryHandler) RefreshProfileAsync(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(c, "Invalid profile ID")
	}

	userID := middleware.UserID(c)
	if err := h.profiles.EnsureFollowing(userID, id); err != nil {
		return respondError(c, h.logger, err)
	}

	job, err := h.queue.Enqueue(userID, id)
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(models.SuccessResponse(job, "Refresh queued"))
}

func (h *DiscoveryHandler) GetRefreshJob(c *fiber.Ctx) error {
	job, err := h.queue.GetJob(middleware.UserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	return c.JSON(models.SuccessResponse(job, ""))
}
