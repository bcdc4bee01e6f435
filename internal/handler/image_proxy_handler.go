package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/usenarra/narra-backend/internal/service"
	"go.uber.org/zap"
)

const imageCacheControl = "public, max-age=86400"

type ImageProxyHandler struct {
	proxy  *service.ImageProxyService
	logger *zap.Logger
}

func NewImageProxyHandler(proxy *service.ImageProxyService, logger *zap.Logger) *ImageProxyHandler {
	return &ImageProxyHandler{proxy: proxy, logger: logger}
}

func (h *ImageProxyHandler) GetImage(c *fiber.Ctx) error {
	rawURL := c.Query("url")
	if rawURL == "" {
		return badRequest(c, "url is required")
	}

	obj, err := h.proxy.Fetch(c.UserContext(), rawURL)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Set(fiber.HeaderContentType, obj.ContentType)
	c.Set(fiber.HeaderCacheControl, imageCacheControl)
	return c.Send(obj.Body)
}
