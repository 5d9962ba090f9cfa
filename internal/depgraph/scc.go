package depgraph

import "sort"

// FindSCCs runs Kosaraju's two-pass algorithm and returns every strongly
// connected component with at least two members. Trivial single-node
// components carry no entanglement signal and are omitted; a self-loop
// alone does not promote a node into a reported component.
//
// Members are sorted lexicographically. Components are ordered by the
// position of their earliest member in the node list, so output is stable
// across runs for the same input.
func FindSCCs(g *Graph) []SCC {
	adj := g.adjacency()
	radj := g.reverseAdjacency()

	// Pass 1: forward DFS, nodes pushed in completion order.
	visited := make(map[string]bool, len(g.Nodes))
	order := make([]string, 0, len(g.Nodes))

	var fill func(id string)
	fill = func(id string) {
		visited[id] = true
		for _, next := range adj[id] {
			if !visited[next] {
				fill(next)
			}
		}
		order = append(order, id)
	}
	for _, n := range g.Nodes {
		if !visited[n.ID] {
			fill(n.ID)
		}
	}

	// Pass 2: reverse DFS in decreasing completion order.
	assigned := make(map[string]bool, len(g.Nodes))
	var component []string

	var collect func(id string)
	collect = func(id string) {
		assigned[id] = true
		component = append(component, id)
		for _, next := range radj[id] {
			if !assigned[next] {
				collect(next)
			}
		}
	}

	pos := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		pos[n.ID] = i
	}

	type ranked struct {
		scc  SCC
		rank int
	}
	var out []ranked
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		if assigned[id] {
			continue
		}
		component = nil
		collect(id)
		if len(component) < 2 {
			continue
		}
		members := append([]string(nil), component...)
		sort.Strings(members)
		rank := len(g.Nodes)
		for _, m := range members {
			if pos[m] < rank {
				rank = pos[m]
			}
		}
		out = append(out, ranked{SCC{Members: members}, rank})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].rank < out[j].rank })
	sccs := make([]SCC, len(out))
	for i, r := range out {
		sccs[i] = r.scc
	}
	return sccs
}
