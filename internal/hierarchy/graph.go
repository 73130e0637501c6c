package hierarchy

// Graph is an in-memory view of the manager_id relation. children only
// indexes ACTIVE users so inactive subtrees drop out of descendant walks;
// reports indexes every user regardless of status.
type Graph struct {
	links    map[int64]Link
	children map[int64][]int64
	reports  map[int64][]int64
}

func NewGraph(links []Link) *Graph {
	g := &Graph{
		links:    make(map[int64]Link, len(links)),
		children: make(map[int64][]int64),
		reports:  make(map[int64][]int64),
	}
	for _, l := range links {
		g.links[l.ID] = l
		if l.ManagerID == nil {
			continue
		}
		g.reports[*l.ManagerID] = append(g.reports[*l.ManagerID], l.ID)
		if l.IsActive() {
			g.children[*l.ManagerID] = append(g.children[*l.ManagerID], l.ID)
		}
	}
	return g
}

func (g *Graph) Link(id int64) (Link, bool) {
	l, ok := g.links[id]
	return l, ok
}

func (g *Graph) IsActive(id int64) bool {
	l, ok := g.links[id]
	return ok && l.IsActive()
}

// DirectReports returns the active users whose manager is id.
func (g *Graph) DirectReports(id int64) []int64 {
	return g.children[id]
}

// AncestorChain walks manager pointers upward starting at managerID, nearest
// manager first. Users of any status are walked through. cycle reports that
// the walk stopped on a repeated id (origin included) rather than at a root.
func (g *Graph) AncestorChain(origin int64, managerID *int64) (chain []int64, cycle bool) {
	seen := map[int64]struct{}{origin: {}}
	current := managerID
	for current != nil {
		id := *current
		if _, dup := seen[id]; dup {
			return chain, true
		}
		seen[id] = struct{}{}
		chain = append(chain, id)

		l, ok := g.links[id]
		if !ok {
			break
		}
		current = l.ManagerID
	}
	return chain, false
}

// Peers returns the active users sharing managerID, excluding id itself.
func (g *Graph) Peers(id int64, managerID *int64) []int64 {
	if managerID == nil {
		return nil
	}
	var peers []int64
	for _, child := range g.children[*managerID] {
		if child != id {
			peers = append(peers, child)
		}
	}
	return peers
}

// Descendants collects every active user transitively reporting to id,
// excluding id. The walk uses an explicit stack; cycle reports that a node
// was reached twice, which cannot happen in a forest.
func (g *Graph) Descendants(id int64) (IDSet, bool) {
	out := NewIDSet()
	visited := map[int64]struct{}{id: {}}
	stack := append([]int64(nil), g.children[id]...)
	cycle := false

	for len(stack) > 0 {
		n := len(stack) - 1
		current := stack[n]
		stack = stack[:n]

		if _, dup := visited[current]; dup {
			cycle = true
			continue
		}
		visited[current] = struct{}{}
		out.Add(current)
		stack = append(stack, g.children[current]...)
	}
	return out, cycle
}

// ReachesUp reports whether target sits on the manager chain starting at
// from (from itself included). corrupt is set when the walk hit a cycle
// that does not contain target.
func (g *Graph) ReachesUp(from, target int64) (found bool, corrupt bool) {
	seen := make(map[int64]struct{})
	current := from
	for {
		if current == target {
			return true, false
		}
		if _, dup := seen[current]; dup {
			return false, true
		}
		seen[current] = struct{}{}

		l, ok := g.links[current]
		if !ok || l.ManagerID == nil {
			return false, false
		}
		current = *l.ManagerID
	}
}

// Depth is the number of managers above id, stopping at cycles.
func (g *Graph) Depth(id int64) int {
	l, ok := g.links[id]
	if !ok {
		return 0
	}
	chain, _ := g.AncestorChain(id, l.ManagerID)
	return len(chain)
}

// Subtree returns every user of any status whose manager chain reaches id,
// excluding id. Appointing any of them as id's manager would close a loop.
func (g *Graph) Subtree(id int64) IDSet {
	out := NewIDSet()
	stack := append([]int64(nil), g.reports[id]...)
	for len(stack) > 0 {
		n := len(stack) - 1
		current := stack[n]
		stack = stack[:n]

		if current == id || out.Has(current) {
			continue
		}
		out.Add(current)
		stack = append(stack, g.reports[current]...)
	}
	return out
}
