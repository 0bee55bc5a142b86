package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/julianstephens/habitkeep/internal/logger"
)

const claimsKey = "claims"

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := ParseToken(secret, c.Get(fiber.HeaderAuthorization))
		if err != nil {
			logger.Debug("Rejected request", "path", c.Path(), "error", err)
			return Unauthorized(c, err.Error())
		}
		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// OptionalAuth attaches claims when a valid token is present and otherwise
// lets the request through anonymously.
func OptionalAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if header := c.Get(fiber.HeaderAuthorization); header != "" {
			if claims, err := ParseToken(secret, header); err == nil {
				c.Locals(claimsKey, claims)
			}
		}
		return c.Next()
	}
}

// ClaimsFrom returns the caller's claims, or nil for anonymous requests.
func ClaimsFrom(c *fiber.Ctx) *Claims {
	claims, _ := c.Locals(claimsKey).(*Claims)
	return claims
}

// RequestLogger logs one line per request through the structured logger.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		fields := []any{
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"ip", c.IP(),
			"duration", time.Since(start),
		}
		switch {
		case err != nil || status >= fiber.StatusInternalServerError:
			logger.Error("Request failed", append(fields, "error", err)...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("Request rejected", fields...)
		default:
			logger.Info("Request", fields...)
		}
		return err
	}
}
