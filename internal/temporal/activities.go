package temporal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/depscope/depscope/internal/analysis"
	"github.com/depscope/depscope/internal/config"
	"github.com/depscope/depscope/internal/duplicates"
	"github.com/depscope/depscope/internal/gate"
	"github.com/depscope/depscope/internal/graphstore"
	"github.com/depscope/depscope/internal/manifest"
	"github.com/depscope/depscope/internal/module"
	"github.com/depscope/depscope/internal/observability"
	"github.com/depscope/depscope/internal/runstore"
)

// ResolveResult carries the resolved input between activities.
type ResolveResult struct {
	ModulesJSON   string
	InstalledJSON string
}

// AnalyzeResult carries the serialized report plus headline stats.
type AnalyzeResult struct {
	ReportJSON string
	Nodes      int
	Edges      int
	Cycles     int
	Acyclic    bool
}

// GateActivityResult is the serializable gate verdict.
type GateActivityResult struct {
	Status   string
	Summary  string
	Failures []string
}

// StoreResult identifies where the run was persisted.
type StoreResult struct {
	RunID      string
	ReportPath string
}

// Dependencies holds shared resources injected into activities.
type Dependencies struct {
	Analysis config.AnalysisConfig
	Gates    *gate.GateConfig
	Runs     *runstore.Store
	Graph    graphstore.Repository // Optional
}

var deps *Dependencies

// SetDependencies injects shared resources (called during worker setup).
func SetDependencies(d *Dependencies) {
	deps = d
}

// ResolveActivity loads the manifest and, when a scan root is given,
// walks the install tree for installed package metadata.
func ResolveActivity(ctx context.Context, input AnalysisInput) (ResolveResult, error) {
	mods, err := manifest.LoadModules(input.ManifestPath)
	if err != nil {
		return ResolveResult{}, fmt.Errorf("load manifest: %w", err)
	}

	modulesJSON, err := json.Marshal(mods)
	if err != nil {
		return ResolveResult{}, fmt.Errorf("marshal modules: %w", err)
	}
	result := ResolveResult{ModulesJSON: string(modulesJSON)}

	if input.ScanRoot != "" {
		_, span := observability.StartScanSpan(ctx, input.ScanRoot)
		installed, err := manifest.ScanInstalled(input.ScanRoot, deps.Analysis.DepDirMarker)
		observability.RecordError(span, err)
		span.End()
		if err != nil {
			return ResolveResult{}, fmt.Errorf("scan %s: %w", input.ScanRoot, err)
		}
		installedJSON, err := json.Marshal(installed)
		if err != nil {
			return ResolveResult{}, fmt.Errorf("marshal installed: %w", err)
		}
		result.InstalledJSON = string(installedJSON)
	}

	return result, nil
}

// AnalyzeActivity runs the full analysis over the resolved input.
func AnalyzeActivity(ctx context.Context, input AnalysisInput, resolved ResolveResult) (AnalyzeResult, error) {
	var mods []module.Module
	if err := json.Unmarshal([]byte(resolved.ModulesJSON), &mods); err != nil {
		return AnalyzeResult{}, fmt.Errorf("unmarshal modules: %w", err)
	}

	var installed []duplicates.InstalledPackage
	if resolved.InstalledJSON != "" {
		if err := json.Unmarshal([]byte(resolved.InstalledJSON), &installed); err != nil {
			return AnalyzeResult{}, fmt.Errorf("unmarshal installed: %w", err)
		}
	}

	m := observability.Metrics()
	m.ActiveAnalyses.Inc()
	defer m.ActiveAnalyses.Dec()

	start := time.Now()
	report, err := analysis.Run(ctx, mods, analysis.Options{
		DepDirMarker:        deps.Analysis.DepDirMarker,
		CycleErrorThreshold: deps.Analysis.CycleErrorThreshold,
		MaxTreeDepth:        deps.Analysis.MaxTreeDepth,
		Aliases:             deps.Analysis.Aliases,
		Installed:           installed,
	})
	if err != nil {
		m.RecordRun(time.Since(start), 0, 0, err)
		return AnalyzeResult{}, err
	}
	m.RecordRun(time.Since(start), len(report.Graph.Nodes), len(report.Graph.Edges), nil)
	m.RecordFindings(len(report.Cycles), len(report.SCCs), len(report.Duplicates), len(report.Conflicts))

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("marshal report: %w", err)
	}

	return AnalyzeResult{
		ReportJSON: string(reportJSON),
		Nodes:      len(report.Graph.Nodes),
		Edges:      len(report.Graph.Edges),
		Cycles:     len(report.Cycles),
		Acyclic:    report.Acyclic(),
	}, nil
}

// GateActivity evaluates the policy gates over the report.
func GateActivity(ctx context.Context, reportJSON string) (GateActivityResult, error) {
	var report analysis.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return GateActivityResult{}, fmt.Errorf("unmarshal report: %w", err)
	}

	result := gate.BuildPipeline(deps.Gates).Run(&report)

	out := GateActivityResult{
		Status:  string(result.Status),
		Summary: result.Summary,
	}
	for _, gr := range result.Gates {
		if gr.Status == gate.GateFailed {
			out.Failures = append(out.Failures, fmt.Sprintf("%s: %s", gr.Name, gr.Message))
		}
	}
	return out, nil
}

// StoreActivity archives the run and optionally persists the graph and
// writes the report file.
func StoreActivity(ctx context.Context, input AnalysisInput, reportJSON, gateStatus string) (StoreResult, error) {
	var report analysis.Report
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return StoreResult{}, fmt.Errorf("unmarshal report: %w", err)
	}

	run, payload, err := runstore.NewRun(input.ManifestPath, &report, gateStatus)
	if err != nil {
		return StoreResult{}, err
	}
	if err := deps.Runs.Save(run, payload); err != nil {
		return StoreResult{}, fmt.Errorf("save run: %w", err)
	}
	if input.Tag != "" {
		if err := deps.Runs.Tag(run.ID, input.Tag); err != nil {
			return StoreResult{}, fmt.Errorf("tag run: %w", err)
		}
	}

	result := StoreResult{RunID: run.ID}

	if input.OutputPath != "" {
		if err := os.WriteFile(input.OutputPath, payload, 0o644); err != nil {
			return StoreResult{}, fmt.Errorf("write report: %w", err)
		}
		result.ReportPath = input.OutputPath
	}

	if input.StoreGraph && deps.Graph != nil {
		projectID := input.ProjectID
		if projectID == "" {
			projectID = input.ManifestPath
		}
		ctx, span := observability.StartStoreSpan(ctx, "neo4j")
		start := time.Now()
		err := deps.Graph.StoreGraph(ctx, projectID, report.Graph)
		observability.Metrics().RecordGraphStore(time.Since(start), err)
		observability.RecordError(span, err)
		span.End()
		if err != nil {
			return StoreResult{}, fmt.Errorf("store graph: %w", err)
		}
	}

	return result, nil
}
