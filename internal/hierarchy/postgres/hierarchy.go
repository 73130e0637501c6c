package postgres

import (
	"context"
	"fmt"

	"github.com/frahmantamala/org-management/internal/hierarchy"
	"github.com/jmoiron/sqlx"
)

// HierarchyRepository is the read path for reporting-line traversal. It
// bypasses gorm and scans narrow rows with sqlx.
type HierarchyRepository struct {
	db *sqlx.DB
}

func NewHierarchyRepository(db *sqlx.DB) *HierarchyRepository {
	return &HierarchyRepository{db: db}
}

const (
	listActiveIDsAfterQuery = `SELECT id FROM users WHERE status = ? AND id > ? ORDER BY id ASC LIMIT ?`

	listLinksQuery = `SELECT u.id, u.manager_id, u.status, COALESCE(r.level, 0) AS role_level
FROM users u
LEFT JOIN roles r ON r.id = u.role_id`
)

func (r *HierarchyRepository) ListActiveIDsAfter(ctx context.Context, afterID int64, limit int) ([]int64, error) {
	var ids []int64
	query := r.db.Rebind(listActiveIDsAfterQuery)
	if err := r.db.SelectContext(ctx, &ids, query, hierarchy.StatusActive, afterID, limit); err != nil {
		return nil, fmt.Errorf("select active user ids: %w", err)
	}
	return ids, nil
}

func (r *HierarchyRepository) ListLinks(ctx context.Context) ([]hierarchy.Link, error) {
	var links []hierarchy.Link
	if err := r.db.SelectContext(ctx, &links, r.db.Rebind(listLinksQuery)); err != nil {
		return nil, fmt.Errorf("select reporting lines: %w", err)
	}
	return links, nil
}
