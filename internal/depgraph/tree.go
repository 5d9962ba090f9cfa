package depgraph

// DefaultMaxTreeDepth bounds the rooted tree projection.
const DefaultMaxTreeDepth = 20

// BuildTrees projects the graph into rooted trees for hierarchy viewers,
// one tree per zero in-degree node in node-list order. When the graph has
// no such node (fully cyclic), the first node serves as the single root
// so connected graphs are never rendered empty.
//
// Expansion is depth-first and bounded by maxDepth (<=0 means
// DefaultMaxTreeDepth). Revisits are tracked per branch, not globally:
// a node reached along two sibling paths appears under both, while a
// node recurring on its own ancestor chain is cut. Tree size is
// therefore exponential in the worst case; maxDepth is the guard.
func BuildTrees(g *Graph, maxDepth int) []*TreeNode {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxTreeDepth
	}
	if len(g.Nodes) == 0 {
		return nil
	}

	nodes := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes[n.ID] = n
	}
	adj := g.adjacency()
	deg := g.inDegrees()

	var expand func(id string, depth int, onPath map[string]bool) *TreeNode
	expand = func(id string, depth int, onPath map[string]bool) *TreeNode {
		n := nodes[id]
		tn := &TreeNode{Name: n.Name, ID: n.ID, Size: n.Size, Depth: depth}
		if depth >= maxDepth {
			return tn
		}
		for _, next := range adj[id] {
			if onPath[next] {
				continue
			}
			branch := make(map[string]bool, len(onPath)+1)
			for k := range onPath {
				branch[k] = true
			}
			branch[next] = true
			tn.Children = append(tn.Children, expand(next, depth+1, branch))
		}
		return tn
	}

	var trees []*TreeNode
	for _, n := range g.Nodes {
		if deg[n.ID] == 0 {
			trees = append(trees, expand(n.ID, 0, map[string]bool{n.ID: true}))
		}
	}
	if len(trees) == 0 {
		root := g.Nodes[0].ID
		trees = append(trees, expand(root, 0, map[string]bool{root: true}))
	}
	return trees
}
