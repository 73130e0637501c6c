package auth

import (
	"github.com/frahmantamala/org-management/internal"
	"github.com/frahmantamala/org-management/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

func (d LoginDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}

func (d RefreshTokenDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}
