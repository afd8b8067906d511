package dto

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/models"
)

type UpdateUserRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (r UpdateUserRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return first(validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("Name is required")),
		validation.Field(&r.Password,
			validation.Length(6, 0).Error("Password should be min 6 characters long")),
	), "name", "password")
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}
