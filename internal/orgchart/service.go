package orgchart

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	departmentDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/department"
	userDatamodel "github.com/frahmantamala/org-management/internal/core/datamodel/user"
	"github.com/frahmantamala/org-management/internal/hierarchy"
	"github.com/frahmantamala/org-management/internal/user"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultDetailBatchSize = 500
	maxConcurrentLoads     = 4
)

type VisibilityResolver interface {
	Resolve(ctx context.Context, req hierarchy.Requester) (*hierarchy.Visibility, error)
	ResolveVisibleUserIDs(ctx context.Context, req hierarchy.Requester) (hierarchy.IDSet, error)
}

type UserReader interface {
	List(ctx context.Context, filter user.ListFilter) ([]*userDatamodel.User, error)
}

type DepartmentReader interface {
	GetAll(ctx context.Context) ([]*departmentDatamodel.Department, error)
}

type Service struct {
	visibility      VisibilityResolver
	users           UserReader
	departments     DepartmentReader
	detailBatchSize int
	logger          *slog.Logger
}

func NewService(visibility VisibilityResolver, users UserReader, departments DepartmentReader, detailBatchSize int, logger *slog.Logger) *Service {
	if detailBatchSize <= 0 {
		detailBatchSize = DefaultDetailBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		visibility:      visibility,
		users:           users,
		departments:     departments,
		detailBatchSize: detailBatchSize,
		logger:          logger,
	}
}

// VisibleUserIDs returns the sorted visible set for req.
func (s *Service) VisibleUserIDs(ctx context.Context, req hierarchy.Requester) ([]int64, error) {
	visible, err := s.visibility.ResolveVisibleUserIDs(ctx, req)
	if err != nil {
		return nil, err
	}
	return visible.Slice(), nil
}

// Build projects the requester's visible part of the org into chart nodes
// and manager edges.
func (s *Service) Build(ctx context.Context, req hierarchy.Requester) (*Chart, error) {
	vis, err := s.visibility.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	rows, departments, err := s.load(ctx, vis.Visible.Slice())
	if err != nil {
		return nil, err
	}

	teamSize := make(map[int64]int)
	for _, u := range rows {
		if u.ManagerID != nil && vis.Visible.Has(*u.ManagerID) {
			teamSize[*u.ManagerID]++
		}
	}

	chart := &Chart{
		Nodes: make([]Node, 0, len(rows)),
		Edges: make([]Edge, 0, len(rows)),
	}
	managerOf := make(map[int64]int64)
	deptSeen := make(map[int64]bool)

	for _, u := range rows {
		node := Node{
			ID:   strconv.FormatInt(u.ID, 10),
			Type: NodeTypeEmployee,
			Data: NodeData{
				Name:          u.Name,
				Email:         u.Email,
				Position:      u.Position,
				DepartmentID:  u.DepartmentID,
				ManagerID:     u.ManagerID,
				CanManage:     vis.Manageable[u.ID],
				IsCurrentUser: u.ID == req.ID,
				IsAdmin:       vis.Admin && u.ID == req.ID,
				TeamSize:      teamSize[u.ID],
			},
		}
		if u.Role != nil {
			node.Data.Role = u.Role.Name
			node.Data.RoleLevel = u.Role.Level
		}
		if u.DepartmentID != nil {
			deptSeen[*u.DepartmentID] = true
			if d, ok := departments[*u.DepartmentID]; ok {
				node.Data.Department = d.Name
			}
		}
		chart.Nodes = append(chart.Nodes, node)

		if u.ManagerID != nil && vis.Visible.Has(*u.ManagerID) {
			managerOf[u.ID] = *u.ManagerID
			source := strconv.FormatInt(*u.ManagerID, 10)
			chart.Edges = append(chart.Edges, Edge{
				ID:     "e" + source + "-" + node.ID,
				Source: source,
				Target: node.ID,
			})
		}
	}

	layout(chart.Nodes)

	d := depth(managerOf)
	if d == 0 && len(chart.Nodes) > 0 {
		d = 1
	}
	chart.Stats = Stats{
		TotalVisible:  vis.Visible.Len(),
		Manageable:    vis.ManageableCount(),
		DirectReports: teamSize[req.ID],
		Departments:   len(deptSeen),
		Depth:         d,
	}

	s.logger.DebugContext(ctx, "org chart built",
		"requester_id", req.ID,
		"nodes", len(chart.Nodes),
		"edges", len(chart.Edges),
		"admin", vis.Admin)
	return chart, nil
}

// load reads the visible users in batches and the department list
// concurrently. Users come back in id order.
func (s *Service) load(ctx context.Context, ids []int64) ([]*userDatamodel.User, map[int64]*departmentDatamodel.Department, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)

	batches := make([][]*userDatamodel.User, (len(ids)+s.detailBatchSize-1)/s.detailBatchSize)
	for i := range batches {
		start := i * s.detailBatchSize
		end := start + s.detailBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		idx, chunk := i, ids[start:end]
		g.Go(func() error {
			rows, err := s.users.List(gctx, user.ListFilter{Status: hierarchy.StatusActive, IDs: chunk})
			if err != nil {
				return fmt.Errorf("load user details: %w", err)
			}
			batches[idx] = rows
			return nil
		})
	}

	departments := make(map[int64]*departmentDatamodel.Department)
	g.Go(func() error {
		rows, err := s.departments.GetAll(gctx)
		if err != nil {
			return fmt.Errorf("load departments: %w", err)
		}
		for _, d := range rows {
			departments[d.ID] = d
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	out := make([]*userDatamodel.User, 0, len(ids))
	for _, b := range batches {
		out = append(out, b...)
	}
	return out, departments, nil
}
