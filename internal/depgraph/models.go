// Package depgraph builds and analyzes dependency graphs. Every analyzer in
// this package is a pure function of an immutable Graph: no I/O, no shared
// state, no mutation of the input. Independent analyzers may therefore run
// concurrently over the same Graph without locking.
package depgraph

// NodeKind classifies graph nodes.
type NodeKind string

const (
	// NodePackage is an externally installed package, recognized by the
	// dependency-directory marker in its path.
	NodePackage NodeKind = "package"
	// NodeModule is a first-party module.
	NodeModule NodeKind = "module"
)

// EdgeKind classifies dependency relationships.
type EdgeKind string

const (
	EdgeDirect   EdgeKind = "direct"
	EdgePeer     EdgeKind = "peer"
	EdgeOptional EdgeKind = "optional"
)

// Node is the graph projection of a single module.
type Node struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Size int64    `json:"size"`
	Type NodeKind `json:"type"`
	Path string   `json:"path,omitempty"`

	// Depth is the BFS distance from the root set, computed at build time
	// for visualization consumers. 0 is a root, -1 means unreachable from
	// any root; the field is always serialized so the two are never
	// confused with an absent value.
	Depth int `json:"depth"`
}

// Edge is a directed dependency between two nodes. Both endpoints always
// reference nodes present in the graph; at most one edge exists per
// (source,target) pair.
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"type"`
}

// Graph is the canonical node/edge model consumed by every analyzer.
// It is immutable once built.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Cycle is a closed walk in the graph. Path repeats the starting node at
// the end ([A B C A]); all other entries are distinct.
type Cycle struct {
	Path     []string `json:"cycle"`
	Severity Severity `json:"severity"`
}

// Severity grades a reported cycle by its length.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// SCC is a strongly connected component with at least two members.
// Members are sorted for deterministic output.
type SCC struct {
	Members []string `json:"members"`
}

// TreeNode is one node of the rooted tree projection. Shared descendants
// are duplicated per path; this is a visualization shape, not a spanning
// tree.
type TreeNode struct {
	Name     string      `json:"name"`
	ID       string      `json:"id"`
	Size     int64       `json:"size,omitempty"`
	Depth    int         `json:"depth"`
	Children []*TreeNode `json:"children"`
}

// Adjacency helpers shared by the analyzers. Each call allocates fresh
// maps so concurrent analyzer runs never share state.

func (g *Graph) adjacency() map[string][]string {
	adj := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	return adj
}

func (g *Graph) reverseAdjacency() map[string][]string {
	adj := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		adj[e.Target] = append(adj[e.Target], e.Source)
	}
	return adj
}

func (g *Graph) inDegrees() map[string]int {
	deg := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		deg[n.ID] = 0
	}
	for _, e := range g.Edges {
		deg[e.Target]++
	}
	return deg
}
