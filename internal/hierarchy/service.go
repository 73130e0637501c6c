package hierarchy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/org-management/internal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultAdminBatchSize = 1000

var tracer = otel.Tracer("github.com/frahmantamala/org-management/internal/hierarchy")

type Repository interface {
	// ListActiveIDsAfter returns up to limit ACTIVE user ids greater than
	// afterID in ascending order.
	ListActiveIDsAfter(ctx context.Context, afterID int64, limit int) ([]int64, error)
	// ListLinks returns (id, manager_id, status, role level) for every user.
	ListLinks(ctx context.Context) ([]Link, error)
}

type Options struct {
	AdminBatchSize   int
	StrictCycleCheck bool
}

type Service struct {
	repo   Repository
	policy AdminPolicy
	opts   Options
	logger *slog.Logger
}

func NewService(repo Repository, policy AdminPolicy, opts Options, logger *slog.Logger) *Service {
	if opts.AdminBatchSize <= 0 {
		opts.AdminBatchSize = DefaultAdminBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		policy: policy,
		opts:   opts,
		logger: logger,
	}
}

// Visibility is the visible set and its manageability map taken from one
// snapshot of the reporting lines.
type Visibility struct {
	Visible    IDSet
	Manageable map[int64]bool
	Admin      bool
}

func (v *Visibility) ManageableCount() int {
	n := 0
	for _, ok := range v.Manageable {
		if ok {
			n++
		}
	}
	return n
}

func (s *Service) IsOrganizationAdmin(roleName string) bool {
	return s.policy.IsOrganizationAdmin(roleName)
}

// ResolveVisibleUserIDs applies the fog-of-war policy. Admins see every
// active user; everyone else sees themselves, their active managers, their
// active peers and every active user below them.
func (s *Service) ResolveVisibleUserIDs(ctx context.Context, req Requester) (IDSet, error) {
	ctx, span := tracer.Start(ctx, "hierarchy.ResolveVisibleUserIDs",
		trace.WithAttributes(attribute.Int64("requester.id", req.ID)))
	defer span.End()

	if s.policy.IsOrganizationAdmin(req.RoleName) {
		visible, err := s.allActive(ctx, req.ID)
		if err != nil {
			return nil, s.fail(span, err)
		}
		visibleUsers.WithLabelValues("admin").Observe(float64(visible.Len()))
		return visible, nil
	}

	links, err := s.repo.ListLinks(ctx)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("load reporting lines: %w", err))
	}

	visible, _, err := s.scoped(ctx, NewGraph(links), req)
	if err != nil {
		return nil, s.fail(span, err)
	}
	span.SetAttributes(attribute.Int("visible.count", visible.Len()))
	visibleUsers.WithLabelValues("scoped").Observe(float64(visible.Len()))
	return visible, nil
}

// ComputeManageable marks each visible id the requester may act on. The
// requester never manages themselves.
func (s *Service) ComputeManageable(ctx context.Context, req Requester, visible IDSet) (map[int64]bool, error) {
	ctx, span := tracer.Start(ctx, "hierarchy.ComputeManageable",
		trace.WithAttributes(attribute.Int64("requester.id", req.ID)))
	defer span.End()

	if s.policy.IsOrganizationAdmin(req.RoleName) {
		return adminManageable(req.ID, visible), nil
	}

	links, err := s.repo.ListLinks(ctx)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("load reporting lines: %w", err))
	}
	descendants, err := s.descendants(ctx, NewGraph(links), req.ID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	return scopedManageable(visible, descendants), nil
}

// Resolve computes visibility and manageability together.
func (s *Service) Resolve(ctx context.Context, req Requester) (*Visibility, error) {
	ctx, span := tracer.Start(ctx, "hierarchy.Resolve",
		trace.WithAttributes(attribute.Int64("requester.id", req.ID)))
	defer span.End()

	if s.policy.IsOrganizationAdmin(req.RoleName) {
		visible, err := s.allActive(ctx, req.ID)
		if err != nil {
			return nil, s.fail(span, err)
		}
		visibleUsers.WithLabelValues("admin").Observe(float64(visible.Len()))
		return &Visibility{Visible: visible, Manageable: adminManageable(req.ID, visible), Admin: true}, nil
	}

	links, err := s.repo.ListLinks(ctx)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("load reporting lines: %w", err))
	}
	visible, descendants, err := s.scoped(ctx, NewGraph(links), req)
	if err != nil {
		return nil, s.fail(span, err)
	}
	visibleUsers.WithLabelValues("scoped").Observe(float64(visible.Len()))
	return &Visibility{Visible: visible, Manageable: scopedManageable(visible, descendants)}, nil
}

// StrictDescendants returns every active user transitively reporting to id.
func (s *Service) StrictDescendants(ctx context.Context, id int64) (IDSet, error) {
	links, err := s.repo.ListLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reporting lines: %w", err)
	}
	return s.descendants(ctx, NewGraph(links), id)
}

// Subtree returns every user, of any status, reporting to id directly or
// indirectly.
func (s *Service) Subtree(ctx context.Context, id int64) (IDSet, error) {
	links, err := s.repo.ListLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reporting lines: %w", err)
	}
	return NewGraph(links).Subtree(id), nil
}

// WouldCreateCircularReporting reports whether making managerID the manager
// of subordinateID would close a loop. The upward walk passes through users
// of any status.
func (s *Service) WouldCreateCircularReporting(ctx context.Context, subordinateID, managerID int64) (bool, error) {
	if subordinateID == managerID {
		return true, nil
	}

	ctx, span := tracer.Start(ctx, "hierarchy.WouldCreateCircularReporting",
		trace.WithAttributes(attribute.Int64("subordinate.id", subordinateID), attribute.Int64("manager.id", managerID)))
	defer span.End()

	links, err := s.repo.ListLinks(ctx)
	if err != nil {
		return false, s.fail(span, fmt.Errorf("load reporting lines: %w", err))
	}

	found, corrupt := NewGraph(links).ReachesUp(managerID, subordinateID)
	if corrupt {
		if err := s.reportCycle(ctx, "cycle_guard", managerID); err != nil {
			return false, s.fail(span, err)
		}
	}
	return found, nil
}

// Audit reports structural problems in the stored reporting lines.
func (s *Service) Audit(ctx context.Context) ([]Violation, error) {
	links, err := s.repo.ListLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load reporting lines: %w", err)
	}
	return NewGraph(links).Audit(), nil
}

func (s *Service) allActive(ctx context.Context, requesterID int64) (IDSet, error) {
	visible := NewIDSet(requesterID)
	var cursor int64

	for {
		ids, err := s.repo.ListActiveIDsAfter(ctx, cursor, s.opts.AdminBatchSize)
		if err != nil {
			return nil, fmt.Errorf("list active users after %d: %w", cursor, err)
		}
		adminBatches.Inc()
		visible.Add(ids...)

		if len(ids) < s.opts.AdminBatchSize {
			return visible, nil
		}
		cursor = ids[len(ids)-1]
	}
}

func (s *Service) scoped(ctx context.Context, g *Graph, req Requester) (IDSet, IDSet, error) {
	visible := NewIDSet(req.ID)

	chain, cycle := g.AncestorChain(req.ID, req.ManagerID)
	if cycle {
		if err := s.reportCycle(ctx, "ancestors", req.ID); err != nil {
			return nil, nil, err
		}
	}
	for _, id := range chain {
		if g.IsActive(id) {
			visible.Add(id)
		}
	}

	visible.Add(g.Peers(req.ID, req.ManagerID)...)

	descendants, err := s.descendants(ctx, g, req.ID)
	if err != nil {
		return nil, nil, err
	}
	for id := range descendants {
		visible.Add(id)
	}
	return visible, descendants, nil
}

func (s *Service) descendants(ctx context.Context, g *Graph, id int64) (IDSet, error) {
	out, cycle := g.Descendants(id)
	if cycle {
		if err := s.reportCycle(ctx, "descendants", id); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Service) reportCycle(ctx context.Context, walk string, userID int64) error {
	cyclesDetected.WithLabelValues(walk).Inc()
	s.logger.WarnContext(ctx, "reporting cycle detected, walk truncated", "walk", walk, "user_id", userID)
	if s.opts.StrictCycleCheck {
		return internal.ErrCorruptHierarchy
	}
	return nil
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func adminManageable(requesterID int64, visible IDSet) map[int64]bool {
	out := make(map[int64]bool, len(visible))
	for id := range visible {
		out[id] = id != requesterID
	}
	return out
}

func scopedManageable(visible, descendants IDSet) map[int64]bool {
	out := make(map[int64]bool, len(visible))
	for id := range visible {
		out[id] = descendants.Has(id)
	}
	return out
}
