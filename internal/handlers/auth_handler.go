package handlers

import (
	"errors"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/services"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/store"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return unprocessable(c, err)
	}

	email, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			return badRequest(c, "Email is taken")
		case errors.Is(err, services.ErrMailDelivery):
			reportError(c, err)
			return badRequest(c, "Failed to send activation email. Try again later")
		case errors.Is(err, services.ErrPersistence):
			return badRequest(c, store.ErrorMessage(err))
		}
		return serverError(c, err)
	}

	return c.JSON(dto.MessageResponse{Message: fmt.Sprintf("Email has been sent to %s", email)})
}

func (h *AuthHandler) Activate(c *fiber.Ctx) error {
	var req dto.ActivationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ActivationErrorResponse{
			Errors: "error happening please try again",
		})
	}

	if err := h.authService.Activate(c.UserContext(), req.Token); err != nil {
		switch {
		case errors.Is(err, services.ErrActivationTokenMissing):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ActivationErrorResponse{
				Errors: "error happening please try again",
			})
		case errors.Is(err, services.ErrActivationInvalid):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ActivationErrorResponse{
				Errors: "Expired link. Signup again",
			})
		}
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ActivationErrorResponse{
			Errors: store.ErrorMessage(err),
		})
	}

	return c.JSON(dto.ActivationResponse{Success: true, Message: "Signup success"})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return unprocessable(c, err)
	}

	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return badRequest(c, "User with that email does not exist, Please Sign up")
		case errors.Is(err, services.ErrPasswordMismatch):
			return badRequest(c, "Email and Password do not match")
		case errors.Is(err, services.ErrPersistence):
			return badRequest(c, store.ErrorMessage(err))
		}
		return serverError(c, err)
	}

	return c.JSON(resp)
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return unprocessable(c, err)
	}

	email, err := h.authService.ForgotPassword(c.UserContext(), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return badRequest(c, "User with that email does not exist")
		case errors.Is(err, services.ErrMailDelivery):
			reportError(c, err)
			return badRequest(c, "Failed to send reset email. Try again later")
		case errors.Is(err, services.ErrPersistence):
			return badRequest(c, store.ErrorMessage(err))
		}
		return serverError(c, err)
	}

	return c.JSON(dto.MessageResponse{Message: fmt.Sprintf("Email has been sent to %s", email)})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return unprocessable(c, err)
	}

	if err := h.authService.ResetPassword(c.UserContext(), &req); err != nil {
		switch {
		case errors.Is(err, services.ErrResetLinkExpired):
			return badRequest(c, "Expired Link, try again")
		case errors.Is(err, services.ErrResetLinkStale):
			return badRequest(c, "Something went wrong. Try later")
		case errors.Is(err, services.ErrResetFailed):
			return badRequest(c, "Error reseting user password")
		}
		return serverError(c, err)
	}

	return c.JSON(dto.MessageResponse{Message: "Great! Now you can login with new password"})
}

func (h *AuthHandler) GoogleLogin(c *fiber.Ctx) error {
	var req dto.GoogleLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.authService.FederatedLogin(c.UserContext(), services.ProviderGoogle, services.Credential{
		Token: req.IDToken,
	})
	if err != nil {
		return h.federatedError(c, err, "Google login failed. Try again", "User signup failed with google")
	}
	return c.JSON(resp)
}

func (h *AuthHandler) FacebookLogin(c *fiber.Ctx) error {
	var req dto.FacebookLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := h.authService.FederatedLogin(c.UserContext(), services.ProviderFacebook, services.Credential{
		Token:  req.AccessToken,
		UserID: req.UserID,
	})
	if err != nil {
		return h.federatedError(c, err, "Facebook login failed. Try later", "User signup failed with facebook")
	}
	return c.JSON(resp)
}

func (h *AuthHandler) federatedError(c *fiber.Ctx, err error, loginFailed, signupFailed string) error {
	switch {
	case errors.Is(err, services.ErrProviderNotConfigured):
		return badRequest(c, "Login provider is not configured")
	case errors.Is(err, services.ErrIdentityVerification):
		reportError(c, err)
		return badRequest(c, loginFailed)
	case errors.Is(err, services.ErrFederatedSignup):
		return badRequest(c, signupFailed)
	case errors.Is(err, services.ErrPersistence):
		return badRequest(c, store.ErrorMessage(err))
	}
	return serverError(c, err)
}
