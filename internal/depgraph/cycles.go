package depgraph

// DefaultCycleErrorThreshold is the distinct-node count above which a
// cycle is graded error instead of warning.
const DefaultCycleErrorThreshold = 5

// DetectCycles finds cycles by depth-first search from every unvisited
// node, emitting one Cycle per back-edge encountered.
//
// Contract: a single strongly connected region can produce several
// overlapping cycles, one per back-edge, so this is not a minimal cycle
// basis. Callers wanting each entangled region reported once should use
// FindSCCs, or deduplicate the returned cycles on their node set.
//
// A cycle spans at least two distinct nodes. Self-loops are kept in the
// graph and still defeat TopoSort, but they are not reported here, which
// keeps DetectCycles and FindSCCs consistent: no cycles without a
// component and no component without a cycle.
//
// threshold <= 0 means DefaultCycleErrorThreshold.
func DetectCycles(g *Graph, threshold int) []Cycle {
	if threshold <= 0 {
		threshold = DefaultCycleErrorThreshold
	}

	adj := g.adjacency()
	const (
		unvisited = 0
		onStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(g.Nodes))
	var path []string
	var cycles []Cycle

	var dfs func(id string)
	dfs = func(id string) {
		state[id] = onStack
		path = append(path, id)

		for _, next := range adj[id] {
			switch state[next] {
			case unvisited:
				dfs(next)
			case onStack:
				if next == id {
					// Self-loop, not a cycle between modules.
					continue
				}
				// Back-edge: the cycle is the path slice from next up to
				// the current node, closed with next again.
				start := len(path) - 1
				for start >= 0 && path[start] != next {
					start--
				}
				cycle := make([]string, 0, len(path)-start+1)
				cycle = append(cycle, path[start:]...)
				cycle = append(cycle, next)

				severity := SeverityWarning
				if len(cycle)-1 > threshold {
					severity = SeverityError
				}
				cycles = append(cycles, Cycle{Path: cycle, Severity: severity})
			}
		}

		path = path[:len(path)-1]
		state[id] = done
	}

	for _, n := range g.Nodes {
		if state[n.ID] == unvisited {
			dfs(n.ID)
		}
	}
	return cycles
}
