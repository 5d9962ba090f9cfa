// Package temporal orchestrates dependency analysis as a Temporal
// workflow so long scans survive worker restarts.
package temporal

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/workflow"
)

// AnalysisInput holds the workflow parameters.
type AnalysisInput struct {
	ManifestPath string
	ScanRoot     string // Optional install tree to scan for version conflicts
	ProjectID    string
	OutputPath   string // Optional path for the JSON report
	StoreGraph   bool   // Persist the graph to the graph database
	Tag          string // Optional run tag, e.g. "baseline"
}

// AnalysisOutput holds the workflow result.
type AnalysisOutput struct {
	RunID       string
	ReportPath  string
	GateStatus  string
	GateSummary string

	Nodes   int
	Edges   int
	Cycles  int
	Acyclic bool
	Errors  []string
}

// AnalysisWorkflow runs resolve, analyze, gate and store as separate
// activities. A gate failure is a result, not a workflow error.
func AnalysisWorkflow(ctx workflow.Context, input AnalysisInput) (*AnalysisOutput, error) {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Minute,
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var resolved ResolveResult
	if err := workflow.ExecuteActivity(ctx, ResolveActivity, input).Get(ctx, &resolved); err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}

	var analyzed AnalyzeResult
	if err := workflow.ExecuteActivity(ctx, AnalyzeActivity, input, resolved).Get(ctx, &analyzed); err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	var gated GateActivityResult
	if err := workflow.ExecuteActivity(ctx, GateActivity, analyzed.ReportJSON).Get(ctx, &gated); err != nil {
		return nil, fmt.Errorf("gate: %w", err)
	}

	var stored StoreResult
	if err := workflow.ExecuteActivity(ctx, StoreActivity, input, analyzed.ReportJSON, gated.Status).Get(ctx, &stored); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	return &AnalysisOutput{
		RunID:       stored.RunID,
		ReportPath:  stored.ReportPath,
		GateStatus:  gated.Status,
		GateSummary: gated.Summary,
		Nodes:       analyzed.Nodes,
		Edges:       analyzed.Edges,
		Cycles:      analyzed.Cycles,
		Acyclic:     analyzed.Acyclic,
		Errors:      gated.Failures,
	}, nil
}
