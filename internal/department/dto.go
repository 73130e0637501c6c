package department

import (
	"github.com/frahmantamala/org-management/internal"
	"github.com/frahmantamala/org-management/internal/core/common/validation"
)

type CreateDepartmentDTO struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

func (d CreateDepartmentDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}

type UpdateDepartmentDTO struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	IsActive    *bool   `json:"isActive"`
}

func (d UpdateDepartmentDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}

type DepartmentsResponse struct {
	Departments []*Department `json:"departments"`
}
