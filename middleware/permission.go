package middleware

import (
	"coursehub/database"
	"coursehub/models"
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequireRole returns a middleware that loads the authenticated admin and checks that its role is
// one of roles. Must run after JWTMiddleware. The loaded account is stored as c.Locals("admin").
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized: User ID not found", nil)
		}

		var admin models.AdminUser
		err := database.Database.Db.Where("id = ?", userID).First(&admin).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
			}
			return JsonResponse(c, fiber.StatusInternalServerError, false, "Server error while checking permissions!", nil)
		}

		if admin.IsBlocked {
			return JsonResponse(c, fiber.StatusForbidden, false, "Your account is blocked!", nil)
		}
		if !allowed[admin.Role] {
			return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
		}

		c.Locals("admin", &admin)
		return c.Next()
	}
}

// RequireAdmin admits any console account (admins and editors).
func RequireAdmin() fiber.Handler {
	return RequireRole(models.RoleAdmin, models.RoleEditor)
}

// CurrentAdmin returns the account stored by RequireRole.
func CurrentAdmin(c *fiber.Ctx) (*models.AdminUser, bool) {
	admin, ok := c.Locals("admin").(*models.AdminUser)
	return admin, ok
}
