package role

import (
	"github.com/frahmantamala/org-management/internal"
	"github.com/frahmantamala/org-management/internal/core/common/validation"
)

const MaxLevel = 1000

type CreateRoleDTO struct {
	Name        string `json:"name" validate:"required,max=100"`
	Level       int    `json:"level" validate:"required,gt=0,max=1000"`
	Description string `json:"description" validate:"max=500"`
}

func (d CreateRoleDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}

type UpdateRoleDTO struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Level       *int    `json:"level" validate:"omitempty,gt=0,max=1000"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

func (d UpdateRoleDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}

type RolesResponse struct {
	Roles []*Role `json:"roles"`
}
