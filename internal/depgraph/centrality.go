package depgraph

// InDegrees returns the in-degree of every node, keyed by node ID.
// In-degree is the dependent count: how many modules would be affected
// by a change to this one. Every node appears in the map, isolated
// nodes with a zero.
func InDegrees(g *Graph) map[string]int {
	return g.inDegrees()
}
