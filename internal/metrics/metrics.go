// Package metrics collects per-run statistics for an analysis and renders
// them as JSON or a terminal summary.
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// RunMetrics collects statistics for a full analysis run.
type RunMetrics struct {
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at,omitempty"`
	Duration   time.Duration   `json:"duration_ms,omitempty"`
	Input      InputMetrics    `json:"input"`
	Findings   FindingMetrics  `json:"findings"`
	Stages     []StageMetrics  `json:"stages"`
	Errors     []string        `json:"errors,omitempty"`
}

type InputMetrics struct {
	ModuleCount    int   `json:"module_count"`
	NodeCount      int   `json:"node_count"`
	EdgeCount      int   `json:"edge_count"`
	DroppedRefs    int   `json:"dropped_refs"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
}

type FindingMetrics struct {
	Cycles      int   `json:"cycles"`
	ErrorCycles int   `json:"error_cycles"`
	SCCs        int   `json:"sccs"`
	Acyclic     bool  `json:"acyclic"`
	Duplicates  int   `json:"duplicates"`
	WastedBytes int64 `json:"wasted_bytes"`
	Conflicts   int   `json:"conflicts"`
}

type StageMetrics struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration_ms"`
	Findings int           `json:"findings"`
}

// New starts tracking an analysis run.
func New() *RunMetrics {
	return &RunMetrics{StartedAt: time.Now()}
}

// CollectInput records the shape of the analyzed input.
func (m *RunMetrics) CollectInput(moduleCount, nodeCount, edgeCount, declaredRefs int, totalSize int64) {
	m.Input.ModuleCount = moduleCount
	m.Input.NodeCount = nodeCount
	m.Input.EdgeCount = edgeCount
	if dropped := declaredRefs - edgeCount; dropped > 0 {
		m.Input.DroppedRefs = dropped
	}
	m.Input.TotalSizeBytes = totalSize
}

// AddStage records a single analyzer's timing and finding count.
func (m *RunMetrics) AddStage(name string, d time.Duration, findings int) {
	m.Stages = append(m.Stages, StageMetrics{
		Name:     name,
		Duration: d,
		Findings: findings,
	})
}

// Finish marks the run as complete.
func (m *RunMetrics) Finish(errs []string) {
	m.FinishedAt = time.Now()
	m.Duration = m.FinishedAt.Sub(m.StartedAt)
	m.Errors = errs
}

// PrintSummary writes a human-readable summary.
func (m *RunMetrics) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "\n╔══════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║       DEPSCOPE ANALYSIS REPORT       ║\n")
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ Duration:    %-23s ║\n", m.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ INPUT\n")
	fmt.Fprintf(w, "║   Modules:     %d\n", m.Input.ModuleCount)
	fmt.Fprintf(w, "║   Nodes:       %d\n", m.Input.NodeCount)
	fmt.Fprintf(w, "║   Edges:       %d\n", m.Input.EdgeCount)
	if m.Input.DroppedRefs > 0 {
		fmt.Fprintf(w, "║   Dropped:     %d unresolved refs\n", m.Input.DroppedRefs)
	}
	fmt.Fprintf(w, "║   Total Size:  %s\n", formatBytes(m.Input.TotalSizeBytes))
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ FINDINGS\n")
	fmt.Fprintf(w, "║   Cycles:      %d (%d errors)\n", m.Findings.Cycles, m.Findings.ErrorCycles)
	fmt.Fprintf(w, "║   SCCs:        %d\n", m.Findings.SCCs)
	if m.Findings.Acyclic {
		fmt.Fprintf(w, "║   Topo Order:  yes\n")
	} else {
		fmt.Fprintf(w, "║   Topo Order:  none (cyclic)\n")
	}
	fmt.Fprintf(w, "║   Duplicates:  %d (%s wasted)\n", m.Findings.Duplicates, formatBytes(m.Findings.WastedBytes))
	fmt.Fprintf(w, "║   Conflicts:   %d\n", m.Findings.Conflicts)
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ STAGES\n")
	for _, s := range m.Stages {
		fmt.Fprintf(w, "║   %-14s %8s  %d findings\n", s.Name, s.Duration.Round(time.Microsecond), s.Findings)
	}
	if len(m.Errors) > 0 {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ ERRORS\n")
		for _, e := range m.Errors {
			fmt.Fprintf(w, "║   • %s\n", e)
		}
	}
	fmt.Fprintf(w, "╚══════════════════════════════════════╝\n")
}

// JSON returns the metrics as formatted JSON.
func (m *RunMetrics) JSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
