package handlers

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) Read(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "User not found")
	}

	user, err := h.userService.Get(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return badRequest(c, "User not found")
		}
		return serverError(c, err)
	}

	return c.JSON(dto.NewUserResponse(user))
}

// Update edits the signed-in user's own profile.
func (h *UserHandler) Update(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "Unauthorized"})
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return unprocessable(c, err)
	}

	user, err := h.userService.Update(c.UserContext(), userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return badRequest(c, "User not found")
		}
		return badRequest(c, "User update failed")
	}

	return c.JSON(dto.NewUserResponse(user))
}
