// Package hierarchy resolves the reporting tree stored as manager_id parent
// pointers: ancestor chains, peers, descendant sets, the fog-of-war
// visibility policy and the manager-assignment cycle guard.
package hierarchy

import (
	"sort"
	"strings"
)

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
	StatusPending  = "PENDING"
)

// Link is the slice of a user row the traversal needs.
type Link struct {
	ID        int64  `db:"id"`
	ManagerID *int64 `db:"manager_id"`
	Status    string `db:"status"`
	RoleLevel int    `db:"role_level"`
}

func (l Link) IsActive() bool {
	return l.Status == StatusActive
}

// Requester identifies the user on whose behalf visibility is computed.
type Requester struct {
	ID        int64
	ManagerID *int64
	RoleName  string
}

// IDSet is an unordered set of user ids.
type IDSet map[int64]struct{}

func NewIDSet(ids ...int64) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Add(ids ...int64) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

func (s IDSet) Len() int {
	return len(s)
}

// Slice returns the ids in ascending order.
func (s IDSet) Slice() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AdminPolicy decides which role names grant organization-wide authority.
type AdminPolicy struct {
	roles map[string]struct{}
}

var DefaultAdminRoles = []string{"CEO", "Admin"}

func NewAdminPolicy(roleNames ...string) AdminPolicy {
	if len(roleNames) == 0 {
		roleNames = DefaultAdminRoles
	}
	roles := make(map[string]struct{}, len(roleNames))
	for _, name := range roleNames {
		if key := normalizeRole(name); key != "" {
			roles[key] = struct{}{}
		}
	}
	return AdminPolicy{roles: roles}
}

// IsOrganizationAdmin is the single admin capability check used by every caller.
func (p AdminPolicy) IsOrganizationAdmin(roleName string) bool {
	if p.roles == nil {
		return NewAdminPolicy().IsOrganizationAdmin(roleName)
	}
	_, ok := p.roles[normalizeRole(roleName)]
	return ok
}

func IsOrganizationAdmin(roleName string) bool {
	return NewAdminPolicy().IsOrganizationAdmin(roleName)
}

func normalizeRole(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
