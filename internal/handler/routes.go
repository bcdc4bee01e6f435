package handler

import (
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth       *AuthHandler
	Payment    *PaymentHandler
	Plan       *PlanHandler
	User       *UserHandler
	Board      *BoardHandler
	Discovery  *DiscoveryHandler
	ImageProxy *ImageProxyHandler
	Admin      *AdminHandler
	Cache      *CacheHandler
}

// Gates are the middleware guarding the authenticated route groups.
type Gates struct {
	Session fiber.Handler
	Plan    fiber.Handler
	Admin   fiber.Handler
}

func RegisterRoutes(app *fiber.App, h *Handlers, g Gates) {
	api := app.Group("/api")

	// Public routes
	api.Get("/health", Health)
	api.Post("/webhooks/clerk", h.Auth.ClerkWebhook)
	api.Post("/webhooks/stripe", h.Payment.StripeWebhook)
	api.Get("/boards/shared/:publicId", h.Board.GetSharedBoard)

	// Session routes
	session := api.Group("", g.Session)
	session.Get("/image-proxy", h.ImageProxy.GetImage)
	session.Get("/plans", h.Plan.GetPlans)
	session.Get("/plans/:id", h.Plan.GetPlan)
	session.Post("/billing/checkout", h.Payment.CreateCheckoutSession)
	session.Post("/billing/portal", h.Payment.CreatePortalSession)
	session.Get("/billing/verify", h.Payment.VerifyCheckoutSession)
	session.Get("/usage", h.User.GetUsage)

	// Admin routes
	admin := session.Group("/admin", g.Admin)
	admin.Get("/stats", h.Admin.GetStats)
	admin.Get("/users", h.Admin.ListUsers)
	admin.Put("/users/:id/role", h.Admin.SetRole)
	admin.Put("/users/:id/plan", h.Admin.SetPlan)
	admin.Get("/cache", h.Cache.GetStats)
	admin.Delete("/cache", h.Cache.Clear)
	admin.Delete("/cache/:userId", h.Cache.Invalidate)

	// Plan gated routes
	paid := session.Group("", g.Plan)
	paid.Get("/discover", h.Discovery.Discover)
	paid.Get("/transcript", h.Discovery.Transcript)

	paid.Get("/follows", h.Discovery.ListFollows)
	paid.Post("/follows", h.Discovery.Follow)
	paid.Delete("/follows/:id", h.Discovery.Unfollow)

	paid.Get("/profiles/:id/posts", h.Discovery.GetProfilePosts)
	paid.Post("/profiles/:id/refresh", h.Discovery.RefreshProfile)
	paid.Post("/profiles/:id/refresh-async", h.Discovery.RefreshProfileAsync)
	paid.Get("/refresh-jobs/:id", h.Discovery.GetRefreshJob)

	paid.Get("/folders", h.Board.GetFolders)
	paid.Post("/folders", h.Board.CreateFolder)
	paid.Put("/folders/:id", h.Board.UpdateFolder)
	paid.Delete("/folders/:id", h.Board.DeleteFolder)
	paid.Post("/folders/:id/boards", h.Board.CreateBoard)

	paid.Post("/boards/copy", h.Board.CopyBoard)
	paid.Get("/boards/:id", h.Board.GetBoard)
	paid.Put("/boards/:id", h.Board.UpdateBoard)
	paid.Delete("/boards/:id", h.Board.DeleteBoard)
	paid.Get("/boards/:id/qr", h.Board.GetShareQR)
	paid.Get("/boards/:id/posts", h.Board.GetBoardPosts)
	paid.Post("/boards/:id/posts", h.Board.AddPost)
	paid.Delete("/boards/:id/posts/:postId", h.Board.RemovePost)
}

func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
