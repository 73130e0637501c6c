package user

import (
	"time"

	departmentDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/department"
	roleDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/role"
)

type User struct {
	ID           int64     `gorm:"primaryKey"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	Name         string    `gorm:"column:name;not null"`
	Position     string    `gorm:"column:position"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	ManagerID    *int64    `gorm:"column:manager_id;index"`
	RoleID       int64     `gorm:"column:role_id;not null;index"`
	DepartmentID *int64    `gorm:"column:department_id;index"`
	Status       string    `gorm:"column:status;not null;index"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`

	Role       *roleDatamodel.Role             `gorm:"foreignKey:RoleID"`
	Department *departmentDatamodel.Department `gorm:"foreignKey:DepartmentID"`
}

func (User) TableName() string {
	return "users"
}
