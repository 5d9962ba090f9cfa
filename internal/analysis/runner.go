package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/depscope/depscope/internal/depgraph"
	"github.com/depscope/depscope/internal/duplicates"
	"github.com/depscope/depscope/internal/metrics"
	"github.com/depscope/depscope/internal/module"
	"github.com/depscope/depscope/internal/observability"
)

// Options tunes a run. Zero values mean engine defaults.
type Options struct {
	DepDirMarker        string
	CycleErrorThreshold int
	MaxTreeDepth        int
	Aliases             map[string]string

	// Installed feeds the version-conflict analyzer. Nil skips it.
	Installed []duplicates.InstalledPackage

	// Metrics, when set, receives per-stage timings and finding counts.
	Metrics *metrics.RunMetrics
}

// Run validates the module list, builds the graph once and fans out
// every analyzer over it. The engine stays pure; spans and metrics are
// recorded here, at the orchestration layer.
func Run(ctx context.Context, mods []module.Module, opts Options) (*Report, error) {
	if err := module.Validate(mods); err != nil {
		return nil, fmt.Errorf("validating input: %w", err)
	}

	ctx, buildSpan := observability.StartBuildSpan(ctx, len(mods))
	start := time.Now()
	g := depgraph.Build(mods, depgraph.BuildOptions{
		DepDirMarker: opts.DepDirMarker,
		Aliases:      opts.Aliases,
	})
	observability.RecordGraphShape(buildSpan, len(g.Nodes), len(g.Edges))
	buildSpan.End()

	if opts.Metrics != nil {
		declared := 0
		var totalSize int64
		for _, m := range mods {
			declared += len(m.Dependencies) + len(m.PeerDependencies) + len(m.OptionalDependencies)
			totalSize += m.Size
		}
		opts.Metrics.CollectInput(len(mods), len(g.Nodes), len(g.Edges), declared, totalSize)
		opts.Metrics.AddStage("build", time.Since(start), len(g.Edges))
	}

	report := &Report{Graph: g}

	stage(ctx, opts.Metrics, "cycles", func() int {
		report.Cycles = depgraph.DetectCycles(g, opts.CycleErrorThreshold)
		return len(report.Cycles)
	})
	stage(ctx, opts.Metrics, "sccs", func() int {
		report.SCCs = depgraph.FindSCCs(g)
		return len(report.SCCs)
	})
	stage(ctx, opts.Metrics, "toposort", func() int {
		order, ok := depgraph.TopoSort(g)
		if ok {
			report.Topo = order
			return len(order)
		}
		return 0
	})
	stage(ctx, opts.Metrics, "duplicates", func() int {
		report.Duplicates = duplicates.FindDuplicates(mods, opts.DepDirMarker)
		return len(report.Duplicates)
	})
	if opts.Installed != nil {
		stage(ctx, opts.Metrics, "conflicts", func() int {
			report.Conflicts = duplicates.FindConflicts(opts.Installed)
			return len(report.Conflicts)
		})
	}
	stage(ctx, opts.Metrics, "trees", func() int {
		report.Trees = depgraph.BuildTrees(g, opts.MaxTreeDepth)
		return len(report.Trees)
	})
	stage(ctx, opts.Metrics, "centrality", func() int {
		report.InDegrees = depgraph.InDegrees(g)
		return len(report.InDegrees)
	})

	if opts.Metrics != nil {
		opts.Metrics.Findings = metrics.FindingMetrics{
			Cycles:      len(report.Cycles),
			ErrorCycles: report.ErrorCycles(),
			SCCs:        len(report.SCCs),
			Acyclic:     report.Acyclic(),
			Duplicates:  len(report.Duplicates),
			WastedBytes: report.WastedBytes(),
			Conflicts:   len(report.Conflicts),
		}
	}
	return report, nil
}

func stage(ctx context.Context, m *metrics.RunMetrics, name string, fn func() int) {
	_, span := observability.StartAnalyzerSpan(ctx, name)
	start := time.Now()
	findings := fn()
	observability.RecordAnalyzerFindings(span, findings)
	span.End()
	if m != nil {
		m.AddStage(name, time.Since(start), findings)
	}
}
