package middleware

import (
	"strings"

	"go-retail-backoffice/internal/apperror"
	"go-retail-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by RequireAuth.
const (
	LocalUserID         = "user_id"
	LocalUserEmail      = "user_email"
	LocalUserName       = "user_name"
	LocalUserPrivileges = "user_privileges"
)

// bearerToken reads "Authorization: Bearer <token>" and falls back to the
// token query parameter used by websocket clients.
func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return c.Query("token"), nil
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", apperror.Unauthorized("invalid authorization format, use: Bearer <token>")
	}
	return parts[1], nil
}

// RequireAuth validates the JWT against the current session of its user and
// stores the user in the request locals.
func RequireAuth(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return err
		}

		user, err := auth.Authenticate(token)
		if err != nil {
			return err
		}

		c.Locals(LocalUserID, user.ID.String())
		c.Locals(LocalUserEmail, user.Email)
		c.Locals(LocalUserName, user.FullName)
		c.Locals(LocalUserPrivileges, user.EffectivePrivilegeCodes())

		return c.Next()
	}
}

// RequirePrivilege checks if the authenticated user has the required privilege
func RequirePrivilege(requiredPrivilege string) fiber.Handler {
	return RequireAnyPrivilege(requiredPrivilege)
}

// RequireAnyPrivilege checks if the user has at least one of the specified privileges
func RequireAnyPrivilege(requiredPrivileges ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		privileges, ok := c.Locals(LocalUserPrivileges).([]string)
		if !ok {
			return apperror.Forbidden("no privileges found")
		}

		for _, userPriv := range privileges {
			for _, reqPriv := range requiredPrivileges {
				if userPriv == reqPriv {
					return c.Next()
				}
			}
		}

		if len(requiredPrivileges) == 1 {
			return apperror.Forbidden("forbidden: requires '%s' privilege", requiredPrivileges[0])
		}
		return apperror.Forbidden("forbidden: requires one of %s privileges", strings.Join(requiredPrivileges, ", "))
	}
}
