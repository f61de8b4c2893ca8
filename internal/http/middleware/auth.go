package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"bookapi/internal/auth"
	"bookapi/internal/model"
)

const (
	// UserIDLocalKey is the key under which the authenticated user's ID
	// is stored in Fiber's context locals.
	UserIDLocalKey = "user_id"
	// UserRoleLocalKey is the key under which the authenticated user's
	// role is stored in Fiber's context locals.
	UserRoleLocalKey = "user_role"
)

// Authenticate verifies the Bearer token and stores the principal's ID
// and role in the request context. The engine itself never sees
// tokens; this middleware is the boundary where they are checked.
func Authenticate(tokens *auth.TokenMaker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		claims, err := tokens.VerifyToken(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		c.Locals(UserIDLocalKey, claims.Subject)
		c.Locals(UserRoleLocalKey, claims.Role)
		return c.Next()
	}
}

// RequireRole allows the request through only when the authenticated
// principal holds one of the given roles. Must run after Authenticate.
func RequireRole(roles ...model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(UserRoleLocalKey).(model.Role)
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
	}
}

// AuthenticatedUserID returns the principal's ID stored by Authenticate.
func AuthenticatedUserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDLocalKey).(string)
	return id
}
