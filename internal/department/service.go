package department

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/org-management/internal"
	departmentDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/department"
)

type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*departmentDatamodel.Department, error)
	GetByID(ctx context.Context, id int64) (*departmentDatamodel.Department, error)
	GetByName(ctx context.Context, name string) (*departmentDatamodel.Department, error)
	Create(ctx context.Context, d *departmentDatamodel.Department) error
	Update(ctx context.Context, d *departmentDatamodel.Department) error
	Delete(ctx context.Context, id int64) error
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

// List returns departments by name. Soft-deleted ones are included only when
// includeInactive is set.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]*Department, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to get departments from repository", "error", err)
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}

	out := make([]*Department, 0, len(rows))
	for _, row := range rows {
		if row.IsActive || includeInactive {
			out = append(out, FromDataModel(row))
		}
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Department, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	if row == nil {
		return nil, internal.ErrDepartmentNotFound
	}
	return FromDataModel(row), nil
}

func (s *Service) Create(ctx context.Context, dto CreateDepartmentDTO) (*Department, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(dto.Name)
	if err := s.checkNameFree(ctx, name, 0); err != nil {
		return nil, err
	}

	row := ToDataModel(NewDepartment(name, strings.TrimSpace(dto.Description)))
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to create department: %w", err)
	}

	s.logger.InfoContext(ctx, "department created", "department_id", row.ID, "name", row.Name)
	return FromDataModel(row), nil
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateDepartmentDTO) (*Department, error) {
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
	if dto.IsActive != nil {
		if *dto.IsActive {
			current.Activate()
		} else {
			current.Deactivate()
		}
	}

	if err := s.repo.Update(ctx, ToDataModel(current)); err != nil {
		return nil, fmt.Errorf("failed to update department: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Delete is a soft delete; users keep their department_id and the
// department drops out of the default listing.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete department: %w", err)
	}
	s.logger.InfoContext(ctx, "department deactivated", "department_id", id)
	return nil
}

func (s *Service) checkNameFree(ctx context.Context, name string, selfID int64) error {
	existing, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check department name: %w", err)
	}
	if existing != nil && existing.ID != selfID {
		return internal.NewConflictError("Department name already exists", internal.ErrCodeDuplicateName)
	}
	return nil
}
