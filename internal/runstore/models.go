// Package runstore archives analysis reports as content-addressed objects
// so runs can be listed, tagged and compared over time.
package runstore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/depscope/depscope/internal/analysis"
)

// Run is a point-in-time record of one analysis.
type Run struct {
	ID           string            `json:"id"`
	ParentID     string            `json:"parent_id,omitempty"`
	Tag          string            `json:"tag,omitempty"`
	Description  string            `json:"description,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	ManifestPath string            `json:"manifest_path"`
	ContentHash  string            `json:"content_hash"`
	GateStatus   string            `json:"gate_status,omitempty"`
	Stats        RunStats          `json:"stats"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// RunStats carries the headline numbers of a run for listing and diffing
// without loading the full report.
type RunStats struct {
	Nodes       int   `json:"nodes"`
	Edges       int   `json:"edges"`
	Cycles      int   `json:"cycles"`
	ErrorCycles int   `json:"error_cycles"`
	SCCs        int   `json:"sccs"`
	Acyclic     bool  `json:"acyclic"`
	Duplicates  int   `json:"duplicates"`
	WastedBytes int64 `json:"wasted_bytes"`
	Conflicts   int   `json:"conflicts"`
}

// RunIndex is a lightweight listing of all runs for fast lookup.
type RunIndex struct {
	Runs      []RunSummary `json:"runs"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// RunSummary is the minimal info for listing runs.
type RunSummary struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parent_id,omitempty"`
	Tag       string    `json:"tag,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
	Cycles    int       `json:"cycles"`
	Acyclic   bool      `json:"acyclic"`
}

// NewRun builds a Run record from a report. The second return value is
// the serialized report, ready to be handed to Store.Save as the
// content-addressed payload.
func NewRun(manifestPath string, report *analysis.Report, gateStatus string) (*Run, []byte, error) {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("marshal report: %w", err)
	}

	run := &Run{
		CreatedAt:    time.Now(),
		ManifestPath: manifestPath,
		ContentHash:  ContentHash(payload),
		GateStatus:   gateStatus,
		Stats: RunStats{
			Nodes:       len(report.Graph.Nodes),
			Edges:       len(report.Graph.Edges),
			Cycles:      len(report.Cycles),
			ErrorCycles: report.ErrorCycles(),
			SCCs:        len(report.SCCs),
			Acyclic:     report.Acyclic(),
			Duplicates:  len(report.Duplicates),
			WastedBytes: report.WastedBytes(),
			Conflicts:   len(report.Conflicts),
		},
		Metadata: make(map[string]string),
	}
	run.ID = generateRunID(run)
	return run, payload, nil
}

// ContentHash computes SHA-256 of content.
func ContentHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

func generateRunID(run *Run) string {
	data, _ := json.Marshal(struct {
		Time    int64  `json:"t"`
		Content string `json:"c"`
	}{
		Time:    run.CreatedAt.UnixNano(),
		Content: run.ContentHash,
	})
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:8]) // Short 16-char hex ID
}

// Summary returns a lightweight summary of this run.
func (r *Run) Summary() RunSummary {
	return RunSummary{
		ID:        r.ID,
		ParentID:  r.ParentID,
		Tag:       r.Tag,
		CreatedAt: r.CreatedAt,
		Nodes:     r.Stats.Nodes,
		Edges:     r.Stats.Edges,
		Cycles:    r.Stats.Cycles,
		Acyclic:   r.Stats.Acyclic,
	}
}
