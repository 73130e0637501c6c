package orgchart

import "sort"

const (
	columnSpacing = 250
	rowSpacing    = 150
)

// layout places one row per distinct role level, highest level on top, and
// spaces nodes within a row by name.
func layout(nodes []Node) {
	rows := make(map[int][]int)
	for i, n := range nodes {
		rows[n.Data.RoleLevel] = append(rows[n.Data.RoleLevel], i)
	}

	levels := make([]int, 0, len(rows))
	for level := range rows {
		levels = append(levels, level)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(levels)))

	for row, level := range levels {
		members := rows[level]
		sort.Slice(members, func(a, b int) bool {
			na, nb := nodes[members[a]].Data, nodes[members[b]].Data
			if na.Name != nb.Name {
				return na.Name < nb.Name
			}
			return nodes[members[a]].ID < nodes[members[b]].ID
		})
		for col, idx := range members {
			nodes[idx].Position = Position{
				X: float64(col * columnSpacing),
				Y: float64(row * rowSpacing),
			}
		}
	}
}

// depth is the number of levels in the longest visible reporting chain.
// Each chain is walked upward once; a loop ends the walk at the repeated
// user.
func depth(managerOf map[int64]int64) int {
	memo := make(map[int64]int, len(managerOf))
	max := 0
	for start := range managerOf {
		var path []int64
		onPath := make(map[int64]struct{})
		base := 0
		for current := start; ; {
			if d, ok := memo[current]; ok {
				base = d
				break
			}
			if _, dup := onPath[current]; dup {
				break
			}
			onPath[current] = struct{}{}
			path = append(path, current)

			mgr, ok := managerOf[current]
			if !ok {
				break
			}
			current = mgr
		}

		for i := len(path) - 1; i >= 0; i-- {
			base++
			memo[path[i]] = base
		}
		if base > max {
			max = base
		}
	}
	return max
}
