package depgraph

// TopoSort orders node IDs so that every dependency precedes its
// dependents, using Kahn's algorithm with a FIFO queue seeded in
// node-list order.
//
// Returns (order, true) on success. If any cycle exists the result is
// (nil, false): a partial order over the acyclic remainder would be
// silently wrong for build-order consumers, so none is offered.
func TopoSort(g *Graph) ([]string, bool) {
	deg := g.inDegrees()
	adj := g.adjacency()

	var queue []string
	for _, n := range g.Nodes {
		if deg[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	order := make([]string, 0, len(g.Nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, next := range adj[id] {
			deg[next]--
			if deg[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != len(g.Nodes) {
		return nil, false
	}
	return order, true
}
