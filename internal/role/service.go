package role

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/org-management/internal"
	roleDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/role"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*roleDatamodel.Role, error)
	GetByID(ctx context.Context, id int64) (*roleDatamodel.Role, error)
	GetByName(ctx context.Context, name string) (*roleDatamodel.Role, error)
	Create(ctx context.Context, r *roleDatamodel.Role) error
	Update(ctx context.Context, r *roleDatamodel.Role) error
	Delete(ctx context.Context, id int64) error
	CountUsers(ctx context.Context, roleID int64) (int64, error)
	// CountLevelConflicts counts active reporting edges that would stop
	// being level-monotonic if roleID moved to level.
	CountLevelConflicts(ctx context.Context, roleID int64, level int) (int64, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// List returns roles ordered from the highest level down.
func (s *Service) List(ctx context.Context) ([]*Role, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	out := make([]*Role, 0, len(rows))
	for _, row := range rows {
		out = append(out, FromDataModel(row))
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Role, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	if row == nil {
		return nil, internal.ErrRoleNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto CreateRoleDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(dto.Name)
	if err := s.checkNameFree(ctx, name, 0); err != nil {
		return nil, err
	}

	row := &roleDatamodel.Role{
		Name:        name,
		Level:       dto.Level,
		Description: strings.TrimSpace(dto.Description),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	s.logger.InfoContext(ctx, "role created", "role_id", row.ID, "name", row.Name, "level", row.Level)
	return FromDataModel(row), nil
}

// Update refuses a level change that would leave any active user at or
// above their manager's level.
func (s *Service) Update(ctx context.Context, id int64, dto UpdateRoleDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		name := strings.TrimSpace(*dto.Name)
		if name != current.Name {
			if err := s.checkNameFree(ctx, name, id); err != nil {
				return nil, err
			}
			current.Name = name
		}
	}
	if dto.Description != nil {
		current.Description = strings.TrimSpace(*dto.Description)
	}
	if dto.Level != nil && *dto.Level != current.Level {
		conflicts, err := s.repo.CountLevelConflicts(ctx, id, *dto.Level)
		if err != nil {
			return nil, fmt.Errorf("failed to check level conflicts: %w", err)
		}
		if conflicts > 0 {
			s.logger.WarnContext(ctx, "role level change rejected", "role_id", id, "level", *dto.Level, "conflicts", conflicts)
			return nil, internal.ErrInsufficientRoleLevel
		}
		current.Level = *dto.Level
	}

	if err := s.repo.Update(ctx, ToDataModel(current)); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	users, err := s.repo.CountUsers(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count role users: %w", err)
	}
	if users > 0 {
		return internal.ErrRoleInUse
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	s.logger.InfoContext(ctx, "role deleted", "role_id", id)
	return nil
}

func (s *Service) checkNameFree(ctx context.Context, name string, selfID int64) error {
	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check role name: %w", err)
	}
	if existing != nil && existing.ID != selfID {
		return internal.NewConflictError("Role name already exists", internal.ErrCodeDuplicateName)
	}
	return nil
}
