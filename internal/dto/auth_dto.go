package dto

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

var hasDigit = regexp.MustCompile(`\d`)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the trimmed name and email, which is what gets stored.
func (r RegisterRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	return first(validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("Name is required"),
			validation.Length(4, 32).Error("Name must be between 4 to 32 characters")),
		validation.Field(&r.Email,
			validation.Required.Error("Must be a valid email address"),
			is.Email.Error("Must be a valid email address")),
		validation.Field(&r.Password,
			validation.Required.Error("Password is required"),
			validation.Length(6, 0).Error("Password must contain at least 6 characters"),
			validation.Match(hasDigit).Error("Password must contain a number")),
	), "name", "email", "password")
}

type ActivationRequest struct {
	Token string `json:"token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return first(validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("Must be a valid email address"),
			is.Email.Error("Must be a valid email address")),
		validation.Field(&r.Password,
			validation.Required.Error("Password is required"),
			validation.Length(6, 0).Error("Password must contain at least 6 characters"),
			validation.Match(hasDigit).Error("Password must contain a number")),
	), "email", "password")
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (r ForgotPasswordRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	return first(validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("Must be a valid email address"),
			is.Email.Error("Must be a valid email address")),
	), "email")
}

type ResetPasswordRequest struct {
	ResetPasswordLink string `json:"resetPasswordLink"`
	NewPassword       string `json:"newPassword"`
}

func (r ResetPasswordRequest) Validate() error {
	return first(validation.ValidateStruct(&r,
		validation.Field(&r.ResetPasswordLink,
			validation.Required.Error("Reset link is required")),
		validation.Field(&r.NewPassword,
			validation.Required.Error("Password is required"),
			validation.Length(6, 0).Error("Password must be at least 6 characters long")),
	), "resetPasswordLink", "newPassword")
}

type GoogleLoginRequest struct {
	IDToken string `json:"idToken"`
}

type FacebookLoginRequest struct {
	UserID      string `json:"userID"`
	AccessToken string `json:"accessToken"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ActivationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse is the public projection of a user. It never carries the
// salt, hash or pending reset token.
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  string    `json:"role"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// ActivationErrorResponse keeps the "errors" key the activation client reads.
type ActivationErrorResponse struct {
	Errors string `json:"errors"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}

// first reduces ozzo's per-field error map to the first failing field in
// the given order.
func first(err error, order ...string) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	for _, field := range order {
		if fieldErr, ok := errs[field]; ok && fieldErr != nil {
			return fieldErr
		}
	}
	return err
}
