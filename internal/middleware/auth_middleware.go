package middleware

import (
	"errors"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/usenarra/narra-backend/internal/models"
)

const (
	userIDKey = "userID"
	accessKey = "access"
	tokenKey  = "session"

	// SessionCookie is the cookie Clerk stores the session token in.
	SessionCookie = "__session"
)

type SessionConfig struct {
	// JWKSURL verifies RS256 session tokens issued by the identity provider.
	JWKSURL string
	// Secret verifies HS256 tokens when no JWKS URL is set.
	Secret string
}

// SessionAuth verifies the session token from the Authorization header or the
// session cookie and stores its subject as the user id.
func SessionAuth(cfg SessionConfig) fiber.Handler {
	jwtCfg := jwtware.Config{
		ContextKey:  tokenKey,
		TokenLookup: "header:Authorization,cookie:" + SessionCookie,
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals(tokenKey).(*jwt.Token)
			if !ok {
				return unauthorized(c, "Invalid session")
			}
			sub, err := token.Claims.GetSubject()
			if err != nil || sub == "" {
				return unauthorized(c, "Invalid session")
			}
			c.Locals(userIDKey, sub)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
				return unauthorized(c, "Authentication required")
			}
			return unauthorized(c, "Invalid or expired session")
		},
	}

	if cfg.JWKSURL != "" {
		jwtCfg.JWKSetURLs = []string{cfg.JWKSURL}
	} else {
		jwtCfg.SigningKey = jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.Secret)}
	}

	return jwtware.New(jwtCfg)
}

// UserID returns the authenticated user's id, or "" outside SessionAuth.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse(msg))
}
