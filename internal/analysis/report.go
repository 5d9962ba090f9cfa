// Package analysis orchestrates a full run of the engine: one immutable
// graph, every analyzer fanned out over it, results assembled into a
// single serializable report.
package analysis

import (
	"github.com/depscope/depscope/internal/depgraph"
	"github.com/depscope/depscope/internal/duplicates"
)

// Report is the union of every analyzer's output for one run. All fields
// are plain data, safe to persist or transmit as-is.
type Report struct {
	Graph  *depgraph.Graph  `json:"graph"`
	Cycles []depgraph.Cycle `json:"cycles"`
	SCCs   []depgraph.SCC   `json:"sccs"`

	// Topo is null when the graph is cyclic. A nil slice marshals to
	// JSON null, which is the contract consumers key on.
	Topo []string `json:"topo"`

	Duplicates []duplicates.Duplicate `json:"duplicates"`
	Conflicts  []duplicates.Conflict  `json:"conflicts"`
	Trees      []*depgraph.TreeNode   `json:"trees"`
	InDegrees  map[string]int         `json:"inDegrees"`
}

// Acyclic reports whether a topological order exists.
func (r *Report) Acyclic() bool {
	return r.Topo != nil
}

// ErrorCycles counts cycles graded error.
func (r *Report) ErrorCycles() int {
	n := 0
	for _, c := range r.Cycles {
		if c.Severity == depgraph.SeverityError {
			n++
		}
	}
	return n
}

// WastedBytes sums the total size of every duplicate group beyond a
// single copy's share. With per-copy sizes unknown at this layer, the
// whole group total minus its largest even split is approximated by
// counting all but one copy's mean size.
func (r *Report) WastedBytes() int64 {
	var wasted int64
	for _, d := range r.Duplicates {
		copies := int64(len(d.Locations))
		if copies > 1 {
			wasted += d.TotalSize - d.TotalSize/copies
		}
	}
	return wasted
}
