package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/olympiad-api/internal/models"
	"github.com/noah-isme/olympiad-api/internal/utils"
)

// AuthRoleAny accepts any authenticated role.
const AuthRoleAny = "any"

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	Role        string
	RequireUser bool
	// RequireApproved rejects coordinator tokens issued before approval.
	RequireApproved bool
}

// WithAuth wraps a handler with basic authentication/authorization guards.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := strings.ToLower(strings.TrimSpace(opts.Role))
	if role == "" {
		role = AuthRoleAny
	}

	requireUser := opts.RequireUser || role != AuthRoleAny || opts.RequireApproved

	return func(c *fiber.Ctx) error {
		userID := UserID(c)
		if requireUser && userID == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		if role != AuthRoleAny && UserRole(c) != role {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}

		if opts.RequireApproved && UserRole(c) == models.RoleCoordinator && UserStatus(c) != models.CoordinatorApproved {
			return utils.SendError(c, fiber.StatusForbidden, "coordinator account pending approval")
		}

		return handler(c)
	}
}
