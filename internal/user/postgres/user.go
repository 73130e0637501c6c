package postgres

import (
	"context"
	"errors"
	"fmt"

	userDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/user"
	"github.com/frahmantamala/org-management/internal/hierarchy"
	"github.com/frahmantamala/org-management/internal/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.RepositoryAPI {
	return &UserRepository{db: db}
}

func (r *UserRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Role").Preload("Department")
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.withRelations(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.withRelations(ctx).Where("email = ?", email).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	q := r.withRelations(ctx).Order("id ASC")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return users, nil
		}
		q = q.Where("id IN ?", filter.IDs)
	}
	err := q.Find(&users).Error
	return users, err
}

func (r *UserRepository) Create(ctx context.Context, u *userDatamodel.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(u).Error
}

func (r *UserRepository) Update(ctx context.Context, u *userDatamodel.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(u).Error
}

func (r *UserRepository) UpdateManager(ctx context.Context, id int64, managerID *int64) error {
	return r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("id = ?", id).Update("manager_id", managerID).Error
}

func (r *UserRepository) UpdateRole(ctx context.Context, id, roleID int64) error {
	return r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("id = ?", id).Update("role_id", roleID).Error
}

func (r *UserRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	return r.db.WithContext(ctx).Model(&userDatamodel.User{}).Where("id = ?", id).Update("status", status).Error
}

func (r *UserRepository) ListDirectReports(ctx context.Context, managerID int64, statuses ...string) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	query := r.withRelations(ctx).Where("manager_id = ?", managerID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	err := query.Order("id ASC").Find(&users).Error
	return users, err
}

func (r *UserRepository) Deactivate(ctx context.Context, id int64, reassignTo *int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if reassignTo != nil {
			if err := tx.Model(&userDatamodel.User{}).Where("manager_id = ?", id).Update("manager_id", *reassignTo).Error; err != nil {
				return fmt.Errorf("reassign reports: %w", err)
			}
		}
		if err := tx.Model(&userDatamodel.User{}).Where("id = ?", id).Update("status", hierarchy.StatusInactive).Error; err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return nil
	})
}

func (r *UserRepository) ListActiveAboveLevel(ctx context.Context, level int) ([]*userDatamodel.User, error) {
	var users []*userDatamodel.User
	err := r.withRelations(ctx).
		Select("users.*").
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("users.status = ? AND roles.level > ?", hierarchy.StatusActive, level).
		Order("roles.level DESC, users.id ASC").
		Find(&users).Error
	return users, err
}
