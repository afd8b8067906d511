package middleware

import (
	"github.com/ahmetcoskunkizilkaya/account-service/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/store"
	"github.com/gofiber/fiber/v2"
)

// AdminRequired lets the request through only when the session user's
// stored role is admin. It must run after JWTProtected.
func AdminRequired(users store.UserStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := UserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: "Unauthorized",
			})
		}

		user, err := users.FindByID(c.UserContext(), userID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: "User not found",
			})
		}

		if !user.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: "Admin resource. Access denied.",
			})
		}
		return c.Next()
	}
}
