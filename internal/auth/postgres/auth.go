package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/frahmantamala/org-management/internal/auth"
	userDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).
		Select("id", "email", "password_hash", "status").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &auth.Credentials{
		UserID:       u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Status:       u.Status,
	}, nil
}

func (r *Repository) GetIdentity(ctx context.Context, userID int64) (*auth.Identity, error) {
	var u userDatamodel.User
	err := r.db.WithContext(ctx).Preload("Role").Where("id = ?", userID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	identity := &auth.Identity{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		ManagerID: u.ManagerID,
		Status:    u.Status,
	}
	if u.Role != nil {
		identity.RoleName = u.Role.Name
		identity.RoleLevel = u.Role.Level
	}
	return identity, nil
}
