package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/user"
	"github.com/frahmantamala/org-management/internal/hierarchy"
)

type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Position       string    `json:"position"`
	PasswordHash   string    `json:"-"`
	ManagerID      *int64    `json:"managerId"`
	RoleID         int64     `json:"roleId"`
	RoleName       string    `json:"role"`
	RoleLevel      int       `json:"roleLevel"`
	DepartmentID   *int64    `json:"departmentId"`
	DepartmentName string    `json:"department"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (u *User) IsActive() bool {
	return u.Status == hierarchy.StatusActive
}

func (u *User) IsPending() bool {
	return u.Status == hierarchy.StatusPending
}

// Requester is the user seen as the subject of a visibility query.
func (u *User) Requester() hierarchy.Requester {
	return hierarchy.Requester{ID: u.ID, ManagerID: u.ManagerID, RoleName: u.RoleName}
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Position:     u.Position,
		PasswordHash: u.PasswordHash,
		ManagerID:    u.ManagerID,
		RoleID:       u.RoleID,
		DepartmentID: u.DepartmentID,
		Status:       u.Status,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// FromDataModel maps a row, including its preloaded role and department when
// present.
func FromDataModel(u *userDatamodel.User) *User {
	out := &User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Position:     u.Position,
		PasswordHash: u.PasswordHash,
		ManagerID:    u.ManagerID,
		RoleID:       u.RoleID,
		DepartmentID: u.DepartmentID,
		Status:       u.Status,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.Role != nil {
		out.RoleName = u.Role.Name
		out.RoleLevel = u.Role.Level
	}
	if u.Department != nil {
		out.DepartmentName = u.Department.Name
	}
	return out
}

func FromDataModels(rows []*userDatamodel.User) []*User {
	out := make([]*User, 0, len(rows))
	for _, r := range rows {
		out = append(out, FromDataModel(r))
	}
	return out
}
