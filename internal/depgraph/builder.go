package depgraph

import (
	"strings"

	"github.com/depscope/depscope/internal/module"
)

// DefaultDepDirMarker is the path segment that distinguishes installed
// packages from first-party modules.
const DefaultDepDirMarker = "node_modules"

// BuildOptions tunes graph construction.
type BuildOptions struct {
	// DepDirMarker is the dependency-directory marker scanned for in module
	// paths when classifying nodes. Empty means DefaultDepDirMarker.
	DepDirMarker string

	// Aliases optionally maps a declared dependency reference to the module
	// name it actually resolves to (bundler aliasing).
	Aliases map[string]string
}

// Build converts a validated module list into a Graph.
//
// Dependency references are resolved against the module set by exact name
// or id. Unresolved references are dropped silently: build data routinely
// omits externalized and runtime-only dependencies, and their absence is
// not an error. Duplicate (source,target) pairs collapse into the first
// edge seen; self-loops are kept as given.
//
// The input list must already have passed module.Validate; Build assumes
// unique ids and does not re-check the contract.
func Build(mods []module.Module, opts BuildOptions) *Graph {
	marker := opts.DepDirMarker
	if marker == "" {
		marker = DefaultDepDirMarker
	}

	byID := make(map[string]string, len(mods))   // id -> id
	byName := make(map[string]string, len(mods)) // name -> id, first wins
	for _, m := range mods {
		byID[m.ID] = m.ID
		if _, ok := byName[m.Name]; !ok && m.Name != "" {
			byName[m.Name] = m.ID
		}
	}

	resolve := func(ref string) (string, bool) {
		if alias, ok := opts.Aliases[ref]; ok {
			ref = alias
		}
		if id, ok := byName[ref]; ok {
			return id, true
		}
		if id, ok := byID[ref]; ok {
			return id, true
		}
		return "", false
	}

	g := &Graph{Nodes: make([]Node, 0, len(mods))}
	for _, m := range mods {
		kind := NodeModule
		if strings.Contains(m.Path, marker) {
			kind = NodePackage
		}
		g.Nodes = append(g.Nodes, Node{
			ID:   m.ID,
			Name: m.Name,
			Size: m.Size,
			Type: kind,
			Path: m.Path,
		})
	}

	seen := make(map[[2]string]bool)
	addEdges := func(sourceID string, refs []string, kind EdgeKind) {
		for _, ref := range refs {
			target, ok := resolve(ref)
			if !ok {
				continue
			}
			key := [2]string{sourceID, target}
			if seen[key] {
				continue
			}
			seen[key] = true
			g.Edges = append(g.Edges, Edge{Source: sourceID, Target: target, Kind: kind})
		}
	}

	for _, m := range mods {
		addEdges(m.ID, m.Dependencies, EdgeDirect)
		addEdges(m.ID, m.PeerDependencies, EdgePeer)
		addEdges(m.ID, m.OptionalDependencies, EdgeOptional)
	}

	assignDepths(g)
	return g
}

// assignDepths computes BFS distance from the root set (zero in-degree
// nodes, or the first node when the graph has no roots). Purely cosmetic
// metadata for visualization; no analyzer reads it.
func assignDepths(g *Graph) {
	if len(g.Nodes) == 0 {
		return
	}

	depth := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		depth[n.ID] = -1
	}

	var queue []string
	for id, deg := range g.inDegrees() {
		if deg == 0 {
			depth[id] = 0
		}
	}
	// Seed in node-list order for determinism.
	for _, n := range g.Nodes {
		if depth[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}
	if len(queue) == 0 {
		depth[g.Nodes[0].ID] = 0
		queue = append(queue, g.Nodes[0].ID)
	}

	adj := g.adjacency()
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range adj[id] {
			if depth[next] == -1 {
				depth[next] = depth[id] + 1
				queue = append(queue, next)
			}
		}
	}

	for i := range g.Nodes {
		g.Nodes[i].Depth = depth[g.Nodes[i].ID]
	}
}
