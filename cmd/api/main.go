package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/usenarra/narra-backend/internal/authcache"
	"github.com/usenarra/narra-backend/internal/config"
	"github.com/usenarra/narra-backend/internal/handler"
	"github.com/usenarra/narra-backend/internal/middleware"
	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/repository"
	"github.com/usenarra/narra-backend/internal/service"
	"github.com/usenarra/narra-backend/pkg/database"
	"github.com/usenarra/narra-backend/pkg/email"
	applogger "github.com/usenarra/narra-backend/pkg/logger"
	"github.com/usenarra/narra-backend/pkg/payment"
	"github.com/usenarra/narra-backend/pkg/qrcode"
	"github.com/usenarra/narra-backend/pkg/scraper"
	"github.com/usenarra/narra-backend/pkg/storage"
	"github.com/usenarra/narra-backend/pkg/utils"
	"github.com/usenarra/narra-backend/pkg/webhooks"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, reading configuration from the environment")
	}

	cfg := config.LoadConfig()

	logger, err := applogger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Env,
		}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := database.RunMigrations(db); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	planRepo := repository.NewPlanRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	postRepo := repository.NewPostRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	followRepo := repository.NewFollowRepository(db)
	jobRepo := repository.NewRefreshJobRepository(db)

	// Authorization cache
	cache := authcache.New(cfg.AuthCacheTTL)
	cache.StartSweeper(ctx, cfg.AuthCacheTTL/2)

	// External clients
	if cfg.Email.ResendAPIKey == "" {
		logger.Warn("RESEND_API_KEY is not set, emails will fail to send")
	}
	mailer, err := email.NewEmailService(cfg.Email.ResendAPIKey, cfg.Email.FromAddress, cfg.Email.FromName, cfg.FrontendURL, logger)
	if err != nil {
		logger.Fatal("failed to initialize email service", zap.Error(err))
	}

	stripeService := payment.NewStripeService(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.FrontendURL)

	clerkVerifier, err := webhooks.NewClerkVerifier(cfg.Clerk.WebhookSecret)
	if err != nil {
		logger.Fatal("failed to initialize clerk webhook verifier", zap.Error(err))
	}

	scraperClient := scraper.New(scraper.Config{
		APIKey:   cfg.Scraper.APIKey,
		BaseURL:  cfg.Scraper.BaseURL,
		CacheTTL: cfg.Scraper.CacheTTL,
		Timeout:  cfg.Scraper.Timeout,
	}, logger)

	var imageStore storage.ObjectStore
	if cfg.R2.Enabled() {
		r2, err := storage.NewR2Storage(ctx, cfg.R2, "image-proxy/")
		if err != nil {
			logger.Fatal("failed to initialize R2 storage", zap.Error(err))
		}
		imageStore = r2
	} else {
		logger.Info("R2 is not configured, caching proxied images in memory")
		imageStore = storage.NewMemoryStore()
	}

	// Services
	accessService := service.NewAccessService(cache, userRepo, logger)
	usageService := service.NewUsageService(userRepo, logger)
	planService := service.NewPlanService(planRepo)
	userSyncService := service.NewUserSyncService(userRepo, cache, mailer, logger)
	billingService := service.NewBillingService(stripeService, userRepo, planRepo, cache, mailer, logger)
	boardService := service.NewBoardService(folderRepo, boardRepo, postRepo, logger)
	profileService := service.NewProfileService(scraperClient, profileRepo, followRepo, postRepo, logger)
	adminService := service.NewAdminService(userRepo, planRepo, folderRepo, boardRepo, postRepo, profileRepo, followRepo, cache, logger)
	imageProxyService := service.NewImageProxyService(&http.Client{Timeout: 15 * time.Second}, imageStore, logger)

	refreshQueue := service.NewRefreshQueue(jobRepo, profileService, service.RefreshQueueConfig{
		Workers:     cfg.RefreshWorkers,
		MaxAttempts: cfg.RefreshMaxAttempts,
	}, logger)
	if err := refreshQueue.Start(); err != nil {
		logger.Fatal("failed to start refresh queue", zap.Error(err))
	}
	discoveryService := service.NewDiscoveryService(scraperClient, usageService, userRepo, profileRepo, followRepo, refreshQueue, logger)

	validator := utils.NewValidator()

	// Handlers
	handlers := &handler.Handlers{
		Auth:       handler.NewAuthHandler(clerkVerifier, userSyncService, logger),
		Payment:    handler.NewPaymentHandler(billingService, stripeService, validator, logger),
		Plan:       handler.NewPlanHandler(planService, logger),
		User:       handler.NewUserHandler(usageService, logger),
		Board:      handler.NewBoardHandler(boardService, qrcode.NewShareCodes(cfg.FrontendURL), validator, logger),
		Discovery:  handler.NewDiscoveryHandler(discoveryService, profileService, refreshQueue, validator, logger),
		ImageProxy: handler.NewImageProxyHandler(imageProxyService, logger),
		Admin:      handler.NewAdminHandler(adminService, validator, logger),
		Cache:      handler.NewCacheHandler(cache, logger),
	}

	// Router
	app := fiber.New(fiber.Config{
		AppName:      "narra-backend",
		ErrorHandler: handler.ErrorHandler(logger),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(sentryfiber.New(sentryfiber.Options{Repanic: true}))
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE",
		AllowCredentials: true,
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/webhooks/")
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse("Too many requests"))
		},
	}))

	handler.RegisterRoutes(app, handlers, handler.Gates{
		Session: middleware.SessionAuth(middleware.SessionConfig{JWKSURL: cfg.Clerk.JWKSURL, Secret: cfg.SessionJWTSecret}),
		Plan:    middleware.PlanRequired(accessService, cfg.PlanSelectionPath, logger),
		Admin:   middleware.AdminRequired(accessService, logger),
	})

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}

	refreshQueue.Stop()
	logger.Info("server stopped")
}
