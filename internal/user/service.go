package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/frahmantamala/org-management/internal"
	departmentDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/department"
	roleDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/role"
	userDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/user"
	"github.com/frahmantamala/org-management/internal/core/events"
	"github.com/frahmantamala/org-management/internal/hierarchy"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/crypto/bcrypt"
)

// ListFilter narrows List. A nil IDs slice means no id restriction.
type ListFilter struct {
	Status string
	IDs    []int64
}

type RepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	List(ctx context.Context, filter ListFilter) ([]*userDatamodel.User, error)
	Create(ctx context.Context, u *userDatamodel.User) error
	Update(ctx context.Context, u *userDatamodel.User) error
	UpdateManager(ctx context.Context, id int64, managerID *int64) error
	UpdateRole(ctx context.Context, id, roleID int64) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	// ListDirectReports returns reports of any status when statuses is empty.
	ListDirectReports(ctx context.Context, managerID int64, statuses ...string) ([]*userDatamodel.User, error)
	// Deactivate marks the user INACTIVE, first moving every direct report
	// to reassignTo when it is set.
	Deactivate(ctx context.Context, id int64, reassignTo *int64) error
	ListActiveAboveLevel(ctx context.Context, level int) ([]*userDatamodel.User, error)
}

type RoleReader interface {
	GetByID(ctx context.Context, id int64) (*roleDatamodel.Role, error)
}

type DepartmentReader interface {
	GetByID(ctx context.Context, id int64) (*departmentDatamodel.Department, error)
}

type HierarchyAPI interface {
	IsOrganizationAdmin(roleName string) bool
	ResolveVisibleUserIDs(ctx context.Context, req hierarchy.Requester) (hierarchy.IDSet, error)
	WouldCreateCircularReporting(ctx context.Context, subordinateID, managerID int64) (bool, error)
	Subtree(ctx context.Context, id int64) (hierarchy.IDSet, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type Service struct {
	repo        RepositoryAPI
	roles       RoleReader
	departments DepartmentReader
	hierarchy   HierarchyAPI
	publisher   EventPublisher
	bcryptCost  int
	logger      *slog.Logger
}

func NewService(repo RepositoryAPI, roles RoleReader, departments DepartmentReader, h HierarchyAPI, publisher EventPublisher, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:        repo,
		roles:       roles,
		departments: departments,
		hierarchy:   h,
		publisher:   publisher,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}
	return FromDataModel(row), nil
}

// GetVisible returns the user only if req may see them. Admins may open any
// user, including pending and inactive ones.
func (s *Service) GetVisible(ctx context.Context, req hierarchy.Requester, id int64) (*User, error) {
	if !s.hierarchy.IsOrganizationAdmin(req.RoleName) {
		visible, err := s.hierarchy.ResolveVisibleUserIDs(ctx, req)
		if err != nil {
			return nil, err
		}
		if !visible.Has(id) {
			return nil, internal.ErrUserNotFound
		}
	}
	return s.GetByID(ctx, id)
}

// List serves the directory. Non-admins only ever see their visible set.
func (s *Service) List(ctx context.Context, req hierarchy.Requester, q ListUsersQuery) (*UsersResponse, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	filter := ListFilter{Status: q.Status}
	if !s.hierarchy.IsOrganizationAdmin(req.RoleName) {
		visible, err := s.hierarchy.ResolveVisibleUserIDs(ctx, req)
		if err != nil {
			return nil, err
		}
		filter.IDs = visible.Slice()
	}

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := search(FromDataModels(rows), q.Q)
	total := len(users)

	start := q.Offset
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}

	return &UsersResponse{
		Users:  users[start:end],
		Total:  total,
		Limit:  q.Limit,
		Offset: q.Offset,
	}, nil
}

// search keeps users whose name or email fuzzy-matches term, closest first.
func search(users []*User, term string) []*User {
	term = strings.TrimSpace(term)
	if term == "" {
		return users
	}

	type ranked struct {
		user *User
		rank int
	}
	var hits []ranked
	for _, u := range users {
		best := -1
		for _, target := range []string{u.Name, u.Email} {
			r := fuzzy.RankMatchNormalizedFold(term, target)
			if r >= 0 && (best < 0 || r < best) {
				best = r
			}
		}
		if best >= 0 {
			hits = append(hits, ranked{user: u, rank: best})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].rank != hits[j].rank {
			return hits[i].rank < hits[j].rank
		}
		return hits[i].user.ID < hits[j].user.ID
	})

	out := make([]*User, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.user)
	}
	return out
}

func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(dto.Email))
	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, internal.ErrDuplicateEmail
	}

	role, err := s.role(ctx, dto.RoleID)
	if err != nil {
		return nil, err
	}
	if dto.DepartmentID != nil {
		if err := s.checkDepartment(ctx, *dto.DepartmentID); err != nil {
			return nil, err
		}
	}
	if dto.ManagerID != nil {
		if _, err := s.eligibleManager(ctx, *dto.ManagerID, role.Level); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	status := dto.Status
	if status == "" {
		status = hierarchy.StatusActive
	}

	row := &userDatamodel.User{
		Email:        email,
		Name:         strings.TrimSpace(dto.Name),
		Position:     strings.TrimSpace(dto.Position),
		PasswordHash: string(hash),
		ManagerID:    dto.ManagerID,
		RoleID:       role.ID,
		DepartmentID: dto.DepartmentID,
		Status:       status,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", row.ID, "role_id", role.ID, "status", status)
	return s.GetByID(ctx, row.ID)
}

func (s *Service) Update(ctx context.Context, id int64, dto UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	if row == nil {
		return nil, internal.ErrUserNotFound
	}

	if dto.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*dto.Email))
		if email != row.Email {
			existing, err := s.repo.GetByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if existing != nil {
				return nil, internal.ErrDuplicateEmail
			}
			row.Email = email
		}
	}
	if dto.Name != nil {
		row.Name = strings.TrimSpace(*dto.Name)
	}
	if dto.Position != nil {
		row.Position = strings.TrimSpace(*dto.Position)
	}
	switch {
	case dto.ClearDepartment:
		row.DepartmentID = nil
	case dto.DepartmentID != nil:
		if err := s.checkDepartment(ctx, *dto.DepartmentID); err != nil {
			return nil, err
		}
		row.DepartmentID = dto.DepartmentID
	}

	row.Role, row.Department = nil, nil
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return s.GetByID(ctx, id)
}

// AssignManager sets or clears a user's manager. The new manager must be
// active, outrank the user and must not report to the user already.
func (s *Service) AssignManager(ctx context.Context, id int64, managerID *int64) (*User, error) {
	subject, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if managerID != nil {
		if *managerID == id {
			return nil, internal.ErrSelfManagement
		}
		if _, err := s.eligibleManager(ctx, *managerID, subject.RoleLevel); err != nil {
			return nil, err
		}
		cycle, err := s.hierarchy.WouldCreateCircularReporting(ctx, id, *managerID)
		if err != nil {
			return nil, err
		}
		if cycle {
			s.logger.WarnContext(ctx, "manager assignment rejected: circular reporting", "user_id", id, "manager_id", *managerID)
			return nil, internal.ErrCircularReporting
		}
	}

	if err := s.repo.UpdateManager(ctx, id, managerID); err != nil {
		return nil, fmt.Errorf("failed to update manager: %w", err)
	}

	s.publish(ctx, events.NewManagerChangedEvent(id, subject.ManagerID, managerID, internal.ActorIDFromContext(ctx)))
	return s.GetByID(ctx, id)
}

// ChangeRole keeps every edge touching the user level-monotonic: the
// manager must still outrank the user and the user must still outrank each
// active or pending direct report.
func (s *Service) ChangeRole(ctx context.Context, id, roleID int64) (*User, error) {
	subject, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	role, err := s.role(ctx, roleID)
	if err != nil {
		return nil, err
	}

	if subject.ManagerID != nil {
		mgr, err := s.repo.GetByID(ctx, *subject.ManagerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get manager: %w", err)
		}
		if mgr != nil && mgr.Status == hierarchy.StatusActive && mgr.Role != nil && mgr.Role.Level <= role.Level {
			return nil, internal.ErrInsufficientRoleLevel
		}
	}

	reports, err := s.repo.ListDirectReports(ctx, id, hierarchy.StatusActive, hierarchy.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list direct reports: %w", err)
	}
	for _, r := range reports {
		if r.Role != nil && r.Role.Level >= role.Level {
			return nil, internal.ErrInsufficientRoleLevel
		}
	}

	if err := s.repo.UpdateRole(ctx, id, roleID); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.publish(ctx, events.NewRoleChangedEvent(id, subject.RoleID, roleID, internal.ActorIDFromContext(ctx)))
	return s.GetByID(ctx, id)
}

func (s *Service) Approve(ctx context.Context, id int64) (*User, error) {
	subject, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !subject.IsPending() {
		return nil, internal.NewConflictError("User is not pending approval", internal.ErrCodeInvalidStatus)
	}
	if subject.ManagerID != nil {
		if _, err := s.eligibleManager(ctx, *subject.ManagerID, subject.RoleLevel); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateStatus(ctx, id, hierarchy.StatusActive); err != nil {
		return nil, fmt.Errorf("failed to approve user: %w", err)
	}

	s.publish(ctx, events.NewStatusChangedEvent(id, subject.Status, hierarchy.StatusActive, internal.ActorIDFromContext(ctx)))
	return s.GetByID(ctx, id)
}

// Deactivate refuses to orphan active direct reports unless reassignTo names
// a manager every report may move to. Reports of every status move, so each
// one is checked.
func (s *Service) Deactivate(ctx context.Context, id int64, reassignTo *int64) (*User, error) {
	subject, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if subject.Status == hierarchy.StatusInactive {
		return nil, internal.NewConflictError("User is already inactive", internal.ErrCodeInvalidStatus)
	}

	reports, err := s.repo.ListDirectReports(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list direct reports: %w", err)
	}

	if reassignTo == nil {
		for _, r := range reports {
			if r.Status == hierarchy.StatusActive {
				return nil, internal.ErrHasDirectReports
			}
		}
	} else {
		if *reassignTo == id {
			return nil, internal.ErrSelfManagement
		}
		if _, err := s.eligibleManager(ctx, *reassignTo, 0); err != nil {
			return nil, err
		}
		for _, r := range reports {
			if err := s.checkReassignment(ctx, r, *reassignTo); err != nil {
				return nil, err
			}
		}
	}

	if err := s.repo.Deactivate(ctx, id, reassignTo); err != nil {
		return nil, fmt.Errorf("failed to deactivate user: %w", err)
	}

	actorID := internal.ActorIDFromContext(ctx)
	if reassignTo != nil {
		for _, r := range reports {
			s.publish(ctx, events.NewManagerChangedEvent(r.ID, &id, reassignTo, actorID))
		}
	}
	s.publish(ctx, events.NewStatusChangedEvent(id, subject.Status, hierarchy.StatusInactive, actorID))
	return s.GetByID(ctx, id)
}

// EligibleManagers lists active users that outrank the user and are not in
// the user's own reporting subtree.
func (s *Service) EligibleManagers(ctx context.Context, id int64) ([]*User, error) {
	subject, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListActiveAboveLevel(ctx, subject.RoleLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate managers: %w", err)
	}
	subtree, err := s.hierarchy.Subtree(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]*User, 0, len(rows))
	for _, r := range rows {
		if r.ID == id || subtree.Has(r.ID) {
			continue
		}
		out = append(out, FromDataModel(r))
	}
	return out, nil
}

func (s *Service) role(ctx context.Context, id int64) (*roleDatamodel.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	if role == nil {
		return nil, internal.ErrRoleNotFound
	}
	return role, nil
}

func (s *Service) checkDepartment(ctx context.Context, id int64) error {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get department: %w", err)
	}
	if dept == nil || !dept.IsActive {
		return internal.ErrDepartmentNotFound
	}
	return nil
}

// checkReassignment applies the manager rules to moving report under
// managerID.
func (s *Service) checkReassignment(ctx context.Context, report *userDatamodel.User, managerID int64) error {
	if report.ID == managerID {
		return internal.ErrSelfManagement
	}
	level := 0
	if report.Role != nil {
		level = report.Role.Level
	}
	if _, err := s.eligibleManager(ctx, managerID, level); err != nil {
		return err
	}
	cycle, err := s.hierarchy.WouldCreateCircularReporting(ctx, report.ID, managerID)
	if err != nil {
		return err
	}
	if cycle {
		return internal.ErrCircularReporting
	}
	return nil
}

// eligibleManager loads the candidate and applies the status and level
// rules for a subordinate of subordinateLevel.
func (s *Service) eligibleManager(ctx context.Context, managerID int64, subordinateLevel int) (*userDatamodel.User, error) {
	mgr, err := s.repo.GetByID(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get manager: %w", err)
	}
	if mgr == nil {
		return nil, internal.ErrUserNotFound
	}
	if mgr.Status != hierarchy.StatusActive {
		return nil, internal.ErrManagerInactive
	}
	if mgr.Role == nil || mgr.Role.Level <= subordinateLevel {
		return nil, internal.ErrInsufficientRoleLevel
	}
	return mgr, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.ErrorContext(ctx, "failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
