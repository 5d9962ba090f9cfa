package runstore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/depscope/depscope/internal/analysis"
)

// RunDiff captures the structural differences between two analysis runs.
type RunDiff struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`

	NodesAdded   []string `json:"nodes_added,omitempty"`
	NodesRemoved []string `json:"nodes_removed,omitempty"`
	EdgesAdded   []string `json:"edges_added,omitempty"`
	EdgesRemoved []string `json:"edges_removed,omitempty"`

	CyclesAdded    []string `json:"cycles_added,omitempty"`
	CyclesResolved []string `json:"cycles_resolved,omitempty"`

	DuplicatesAdded    []string `json:"duplicates_added,omitempty"`
	DuplicatesResolved []string `json:"duplicates_resolved,omitempty"`

	ConflictsAdded    []string `json:"conflicts_added,omitempty"`
	ConflictsResolved []string `json:"conflicts_resolved,omitempty"`

	WastedBytesDelta int64 `json:"wasted_bytes_delta"`

	Summary string `json:"summary"`
}

// Diff compares the reports of two runs, from older to newer.
func Diff(from, to *Run, fromReport, toReport *analysis.Report) *RunDiff {
	d := &RunDiff{
		FromID: from.ID,
		ToID:   to.ID,
	}

	d.NodesAdded, d.NodesRemoved = diffSets(nodeIDs(fromReport), nodeIDs(toReport))
	d.EdgesAdded, d.EdgesRemoved = diffSets(edgeKeys(fromReport), edgeKeys(toReport))
	d.CyclesAdded, d.CyclesResolved = diffSets(cycleKeys(fromReport), cycleKeys(toReport))
	d.DuplicatesAdded, d.DuplicatesResolved = diffSets(duplicateKeys(fromReport), duplicateKeys(toReport))
	d.ConflictsAdded, d.ConflictsResolved = diffSets(conflictKeys(fromReport), conflictKeys(toReport))
	d.WastedBytesDelta = toReport.WastedBytes() - fromReport.WastedBytes()

	d.Summary = fmt.Sprintf("+%d/-%d nodes, +%d/-%d edges, +%d/-%d cycles, +%d/-%d conflicts",
		len(d.NodesAdded), len(d.NodesRemoved),
		len(d.EdgesAdded), len(d.EdgesRemoved),
		len(d.CyclesAdded), len(d.CyclesResolved),
		len(d.ConflictsAdded), len(d.ConflictsResolved))

	return d
}

// Empty reports whether the diff contains no changes.
func (d *RunDiff) Empty() bool {
	return len(d.NodesAdded) == 0 && len(d.NodesRemoved) == 0 &&
		len(d.EdgesAdded) == 0 && len(d.EdgesRemoved) == 0 &&
		len(d.CyclesAdded) == 0 && len(d.CyclesResolved) == 0 &&
		len(d.DuplicatesAdded) == 0 && len(d.DuplicatesResolved) == 0 &&
		len(d.ConflictsAdded) == 0 && len(d.ConflictsResolved) == 0 &&
		d.WastedBytesDelta == 0
}

// FormatDiff renders a diff for terminal display.
func FormatDiff(d *RunDiff) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Diff %s -> %s\n", d.FromID, d.ToID)
	fmt.Fprintf(&b, "%s\n\n", d.Summary)

	if d.Empty() {
		b.WriteString("No changes.\n")
		return b.String()
	}

	writeSection(&b, "Nodes added", "+", d.NodesAdded)
	writeSection(&b, "Nodes removed", "-", d.NodesRemoved)
	writeSection(&b, "Edges added", "+", d.EdgesAdded)
	writeSection(&b, "Edges removed", "-", d.EdgesRemoved)
	writeSection(&b, "Cycles introduced", "+", d.CyclesAdded)
	writeSection(&b, "Cycles resolved", "-", d.CyclesResolved)
	writeSection(&b, "Duplicates introduced", "+", d.DuplicatesAdded)
	writeSection(&b, "Duplicates resolved", "-", d.DuplicatesResolved)
	writeSection(&b, "Conflicts introduced", "+", d.ConflictsAdded)
	writeSection(&b, "Conflicts resolved", "-", d.ConflictsResolved)

	if d.WastedBytesDelta != 0 {
		fmt.Fprintf(&b, "Wasted bytes: %+d\n", d.WastedBytesDelta)
	}

	return b.String()
}

func writeSection(b *strings.Builder, title, sign string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s (%d):\n", title, len(items))
	for _, item := range items {
		fmt.Fprintf(b, "  %s %s\n", sign, item)
	}
	b.WriteString("\n")
}

// diffSets returns the keys only present in b (added) and only in a (removed),
// both sorted.
func diffSets(a, b map[string]struct{}) (added, removed []string) {
	for k := range b {
		if _, ok := a[k]; !ok {
			added = append(added, k)
		}
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			removed = append(removed, k)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

func nodeIDs(r *analysis.Report) map[string]struct{} {
	set := make(map[string]struct{})
	if r.Graph == nil {
		return set
	}
	for _, n := range r.Graph.Nodes {
		set[n.ID] = struct{}{}
	}
	return set
}

func edgeKeys(r *analysis.Report) map[string]struct{} {
	set := make(map[string]struct{})
	if r.Graph == nil {
		return set
	}
	for _, e := range r.Graph.Edges {
		set[e.Source+" -> "+e.Target] = struct{}{}
	}
	return set
}

// cycleKeys identifies a cycle by its sorted distinct members so that the
// same cycle reported from a different entry node compares equal.
func cycleKeys(r *analysis.Report) map[string]struct{} {
	set := make(map[string]struct{})
	for _, c := range r.Cycles {
		members := make(map[string]struct{})
		for _, id := range c.Path {
			members[id] = struct{}{}
		}
		ids := make([]string, 0, len(members))
		for id := range members {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		set[strings.Join(ids, ",")] = struct{}{}
	}
	return set
}

func duplicateKeys(r *analysis.Report) map[string]struct{} {
	set := make(map[string]struct{})
	for _, d := range r.Duplicates {
		set[d.Name] = struct{}{}
	}
	return set
}

func conflictKeys(r *analysis.Report) map[string]struct{} {
	set := make(map[string]struct{})
	for _, c := range r.Conflicts {
		set[c.Package] = struct{}{}
	}
	return set
}
