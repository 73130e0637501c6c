package user

import (
	"github.com/frahmantamala/org-management/internal"
	"github.com/frahmantamala/org-management/internal/core/common/validation"
	"github.com/frahmantamala/org-management/internal/hierarchy"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

type CreateUserDTO struct {
	Email        string `json:"email" validate:"required,email,max=255"`
	Name         string `json:"name" validate:"required,max=255"`
	Position     string `json:"position" validate:"max=255"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	RoleID       int64  `json:"roleId" validate:"required,gt=0"`
	DepartmentID *int64 `json:"departmentId" validate:"omitempty,gt=0"`
	ManagerID    *int64 `json:"managerId" validate:"omitempty,gt=0"`
	Status       string `json:"status" validate:"omitempty,oneof=ACTIVE PENDING"`
}

func (d CreateUserDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}

type UpdateUserDTO struct {
	Email        *string `json:"email" validate:"omitempty,email,max=255"`
	Name         *string `json:"name" validate:"omitempty,min=1,max=255"`
	Position     *string `json:"position" validate:"omitempty,max=255"`
	DepartmentID *int64  `json:"departmentId" validate:"omitempty,gt=0"`

	// ClearDepartment detaches the user from any department.
	ClearDepartment bool `json:"clearDepartment"`
}

func (d UpdateUserDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}

type AssignManagerDTO struct {
	ManagerID *int64 `json:"managerId" validate:"omitempty,gt=0"`
}

func (d AssignManagerDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}

type ChangeRoleDTO struct {
	RoleID int64 `json:"roleId" validate:"required,gt=0"`
}

func (d ChangeRoleDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}

type DeactivateDTO struct {
	ReassignTo *int64 `json:"reassignTo" validate:"omitempty,gt=0"`
}

func (d DeactivateDTO) Validate() *internal.AppError {
	return validation.Struct(d)
}

type ListUsersQuery struct {
	Q      string
	Status string
	Limit  int
	Offset int
}

func (q *ListUsersQuery) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("q", q.Q).MaxLength(100)
	v.Field("status", q.Status).OneOf(hierarchy.StatusActive, hierarchy.StatusInactive, hierarchy.StatusPending)
	v.Field("limit", q.Limit).MinInt(0).MaxInt(MaxPageSize)
	v.Field("offset", q.Offset).MinInt(0)
	if err := v.Validate(); err != nil {
		return err
	}
	if q.Limit == 0 {
		q.Limit = DefaultPageSize
	}
	return nil
}

type UsersResponse struct {
	Users  []*User `json:"users"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

type EligibleManagersResponse struct {
	Candidates []*User `json:"candidates"`
}
