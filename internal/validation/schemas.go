package validation

import (
	"strings"

	"github.com/arzan03/usermanager/internal/models"
)

type RegisterRequest struct {
	Name        string  `json:"name" validate:"required,min=3"`
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=8"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitnil,phone"`
	Address     *string `json:"address"`
	Role        *string `json:"role" validate:"omitnil,role"`
}

func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	trimPtr(r.PhoneNumber)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Password = strings.TrimSpace(r.Password)
}

// CreateUserRequest is the admin-side creation payload. It follows the
// registration rules and additionally honours role.
type CreateUserRequest struct {
	RegisterRequest
}

type UpdateUserRequest struct {
	Name        *string `json:"name" validate:"omitnil,min=3"`
	Email       *string `json:"email" validate:"omitnil,email"`
	Password    *string `json:"password" validate:"omitnil,min=8"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitnil,phone"`
	Address     *string `json:"address"`
	Role        *string `json:"role" validate:"omitnil,role"`
}

func (r *UpdateUserRequest) Normalize() {
	trimPtr(r.Name)
	trimPtr(r.Email)
	trimPtr(r.PhoneNumber)
}

// RoleValue returns the requested role, or nil when unchanged.
func (r *UpdateUserRequest) RoleValue() *models.Role {
	if r.Role == nil {
		return nil
	}
	role := models.Role(*r.Role)
	return &role
}

// RoleValue returns the requested role, defaulting to user.
func (r *RegisterRequest) RoleValue() models.Role {
	if r.Role == nil {
		return models.RoleUser
	}
	return models.Role(*r.Role)
}

func trimPtr(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
