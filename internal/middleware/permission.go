package middleware

import (
	"github.com/gaugyan/admin-api/internal/database"
	"github.com/gaugyan/admin-api/internal/models"
	"github.com/gaugyan/admin-api/internal/response"
	"github.com/gaugyan/admin-api/internal/role"
	"github.com/gofiber/fiber/v2"
)

// PermissionProtected gates a route on one (module, action) cell of the
// caller's role matrix. The role is re-read from the database on every
// request; a user whose role no longer resolves is denied, never allowed
// through.
func PermissionProtected(module string, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("user_id").(uint)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		var user models.User
		if err := database.DB.Preload("Role").First(&user, userID).Error; err != nil {
			return response.Unauthorized(c, "Unauthorized")
		}

		if user.Role == nil {
			return response.Forbidden(c, "User has no role assigned")
		}

		if !role.Authorize(database.DB, user.Role.Name, module, action) {
			return response.Forbidden(c, "You don't have permission to perform this action")
		}

		return c.Next()
	}
}

// HasPermission answers the same question for code paths that need a plain
// bool rather than a request gate.
func HasPermission(userID uint, module, action string) bool {
	var user models.User
	if err := database.DB.Preload("Role").First(&user, userID).Error; err != nil {
		return false
	}
	if user.Role == nil {
		return false
	}
	return role.Authorize(database.DB, user.Role.Name, module, action)
}
