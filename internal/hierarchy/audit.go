package hierarchy

import (
	"fmt"
	"sort"
)

type ViolationKind string

const (
	ViolationCycle         ViolationKind = "cycle"
	ViolationSelfManaged   ViolationKind = "self_managed"
	ViolationDanglingRef   ViolationKind = "dangling_manager"
	ViolationLevelOrdering ViolationKind = "level_ordering"
)

// Violation is one structural problem found in the stored reporting lines.
type Violation struct {
	Kind      ViolationKind `json:"kind"`
	UserID    int64         `json:"userId"`
	ManagerID *int64        `json:"managerId,omitempty"`
	Detail    string        `json:"detail"`
}

// Audit scans every link for self-management, references to missing users,
// manager cycles and active edges where the manager does not outrank the
// subordinate. Results are ordered by user id then kind.
func (g *Graph) Audit() []Violation {
	var out []Violation

	for id, l := range g.links {
		if l.ManagerID == nil {
			continue
		}
		mgrID := *l.ManagerID
		if mgrID == id {
			out = append(out, Violation{Kind: ViolationSelfManaged, UserID: id, ManagerID: l.ManagerID, Detail: "user is its own manager"})
			continue
		}

		mgr, ok := g.links[mgrID]
		if !ok {
			out = append(out, Violation{Kind: ViolationDanglingRef, UserID: id, ManagerID: l.ManagerID,
				Detail: fmt.Sprintf("manager %d does not exist", mgrID)})
			continue
		}

		if l.IsActive() && mgr.IsActive() && mgr.RoleLevel <= l.RoleLevel {
			out = append(out, Violation{Kind: ViolationLevelOrdering, UserID: id, ManagerID: l.ManagerID,
				Detail: fmt.Sprintf("manager level %d is not above user level %d", mgr.RoleLevel, l.RoleLevel)})
		}
	}

	for _, cycle := range g.cycles() {
		head := cycle[0]
		link := g.links[head]
		out = append(out, Violation{Kind: ViolationCycle, UserID: head, ManagerID: link.ManagerID,
			Detail: fmt.Sprintf("reporting cycle through %v", cycle)})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// cycles returns each manager cycle of length two or more once, rotated so
// the smallest id comes first.
func (g *Graph) cycles() [][]int64 {
	const (
		unvisited = iota
		onPath
		done
	)

	ids := make([]int64, 0, len(g.links))
	for id := range g.links {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	state := make(map[int64]int, len(g.links))
	var found [][]int64

	for _, start := range ids {
		if state[start] != unvisited {
			continue
		}

		var path []int64
		index := make(map[int64]int)
		current := start
		for {
			if state[current] == done {
				break
			}
			if state[current] == onPath {
				cycle := path[index[current]:]
				if len(cycle) > 1 {
					found = append(found, rotateToMin(cycle))
				}
				break
			}
			state[current] = onPath
			index[current] = len(path)
			path = append(path, current)

			l, ok := g.links[current]
			if !ok || l.ManagerID == nil {
				break
			}
			current = *l.ManagerID
		}

		for _, id := range path {
			state[id] = done
		}
	}
	return found
}

func rotateToMin(cycle []int64) []int64 {
	minAt := 0
	for i, id := range cycle {
		if id < cycle[minAt] {
			minAt = i
		}
	}
	out := make([]int64, 0, len(cycle))
	out = append(out, cycle[minAt:]...)
	return append(out, cycle[:minAt]...)
}
