package middleware

import (
	"crypto/subtle"
	"strings"

	"go-retail-backoffice/internal/apperror"

	"github.com/gofiber/fiber/v2"
)

// RequireCronSecret guards endpoints called by the scheduler with
// "Authorization: Bearer <secret>".
func RequireCronSecret(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return fiber.NewError(fiber.StatusInternalServerError, "cron secret is not configured")
		}

		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperror.Unauthorized("missing authorization header")
		}

		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || scheme != "Bearer" {
			return apperror.Unauthorized("invalid authorization format, use: Bearer <secret>")
		}
		if token == "" {
			return apperror.Unauthorized("missing cron secret")
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			return apperror.Forbidden("invalid cron secret")
		}
		return c.Next()
	}
}
