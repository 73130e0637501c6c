package postgres

import (
	"context"
	"errors"

	roleDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/user"
	"github.com/frahmantamala/org-management/internal/hierarchy"
	"github.com/frahmantamala/org-management/internal/role"
	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

var _ role.RepositoryAPI = (*RoleRepository)(nil)

func (r *RoleRepository) GetAll(ctx context.Context) ([]*roleDatamodel.Role, error) {
	var roles []*roleDatamodel.Role
	err := r.db.WithContext(ctx).Order("level DESC, name ASC").Find(&roles).Error
	return roles, err
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*roleDatamodel.Role, error) {
	var ro roleDatamodel.Role
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ro).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ro, nil
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*roleDatamodel.Role, error) {
	var ro roleDatamodel.Role
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&ro).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ro, nil
}

func (r *RoleRepository) Create(ctx context.Context, ro *roleDatamodel.Role) error {
	return r.db.WithContext(ctx).Create(ro).Error
}

func (r *RoleRepository) Update(ctx context.Context, ro *roleDatamodel.Role) error {
	return r.db.WithContext(ctx).Save(ro).Error
}

func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&roleDatamodel.Role{}, id).Error
}

func (r *RoleRepository) CountUsers(ctx context.Context, roleID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("role_id = ?", roleID).Count(&n).Error
	return n, err
}

const levelConflictsQuery = `
SELECT COUNT(*)
FROM users u
JOIN users m ON m.id = u.manager_id
JOIN roles ur ON ur.id = u.role_id
JOIN roles mr ON mr.id = m.role_id
WHERE u.status = ? AND m.status = ?
  AND ((u.role_id = ? AND m.role_id <> ? AND mr.level <= ?)
    OR (m.role_id = ? AND u.role_id <> ? AND ur.level >= ?)
    OR (u.role_id = ? AND m.role_id = ?))`

func (r *RoleRepository) CountLevelConflicts(ctx context.Context, roleID int64, level int) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Raw(levelConflictsQuery,
		hierarchy.StatusActive, hierarchy.StatusActive,
		roleID, roleID, level,
		roleID, roleID, level,
		roleID, roleID,
	).Scan(&n).Error
	return n, err
}
