package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicURL       string
}

// Enabled reports whether enough R2 settings are present to build a client.
func (r R2Config) Enabled() bool {
	return r.AccountID != "" && r.AccessKeyID != "" && r.SecretAccessKey != "" && r.Bucket != ""
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

type ClerkConfig struct {
	JWKSURL       string
	WebhookSecret string
}

type EmailConfig struct {
	ResendAPIKey string
	FromAddress  string
	FromName     string
}

type ScraperConfig struct {
	APIKey   string
	BaseURL  string
	CacheTTL time.Duration
	Timeout  time.Duration
}

type Config struct {
	Port        string
	Env         string
	LogLevel    string
	FrontendURL string
	CORSOrigins string
	DatabaseURL string

	// SessionJWTSecret is only used when no JWKS URL is configured (local development and tests).
	SessionJWTSecret string

	Clerk   ClerkConfig
	Stripe  StripeConfig
	Email   EmailConfig
	Scraper ScraperConfig
	R2      R2Config

	AuthCacheTTL       time.Duration
	RefreshWorkers     int
	RefreshMaxAttempts int
	PlanSelectionPath  string
	SentryDSN          string
}

func LoadConfig() *Config {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("APP_ENV", "production"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:3000"),
		CORSOrigins:      getEnv("CORS_ORIGINS", "http://localhost:3000"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		SessionJWTSecret: getEnv("SESSION_JWT_SECRET", ""),

		AuthCacheTTL:       parseDuration(getEnv("AUTH_CACHE_TTL", "30m"), 30*time.Minute),
		RefreshWorkers:     parseInt(getEnv("REFRESH_WORKERS", "2"), 2),
		RefreshMaxAttempts: parseInt(getEnv("REFRESH_MAX_ATTEMPTS", "3"), 3),
		PlanSelectionPath:  getEnv("PLAN_SELECTION_PATH", "/select-plan"),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
	}

	cfg.Clerk.JWKSURL = getEnv("CLERK_JWKS_URL", "")
	cfg.Clerk.WebhookSecret = getEnv("CLERK_WEBHOOK_SECRET", "")

	cfg.Stripe.SecretKey = getEnv("STRIPE_SECRET_KEY", "")
	cfg.Stripe.WebhookSecret = getEnv("STRIPE_WEBHOOK_SECRET", "")

	cfg.Email.ResendAPIKey = getEnv("RESEND_API_KEY", "")
	cfg.Email.FromAddress = getEnv("EMAIL_FROM_ADDRESS", "hello@usenarra.com")
	cfg.Email.FromName = getEnv("EMAIL_FROM_NAME", "Narra")

	cfg.Scraper.APIKey = getEnv("SCRAPER_API_KEY", "")
	cfg.Scraper.BaseURL = getEnv("SCRAPER_BASE_URL", "https://api.scrapecreators.com")
	cfg.Scraper.CacheTTL = parseDuration(getEnv("SCRAPER_CACHE_TTL", "5m"), 5*time.Minute)
	cfg.Scraper.Timeout = parseDuration(getEnv("SCRAPER_TIMEOUT", "30s"), 30*time.Second)

	// R2 config
	cfg.R2.AccountID = os.Getenv("R2_ACCOUNT_ID")
	cfg.R2.AccessKeyID = os.Getenv("R2_ACCESS_KEY_ID")
	cfg.R2.SecretAccessKey = os.Getenv("R2_SECRET_ACCESS_KEY")
	cfg.R2.Bucket = os.Getenv("R2_BUCKET")
	cfg.R2.PublicURL = os.Getenv("R2_PUBLIC_URL")

	return cfg
}

func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.Clerk.JWKSURL == "" && c.SessionJWTSecret == "" {
		errs = append(errs, errors.New("either CLERK_JWKS_URL or SESSION_JWT_SECRET must be set"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
