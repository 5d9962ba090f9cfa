package gate

import (
	"strings"
	"testing"

	"github.com/depscope/depscope/internal/analysis"
	"github.com/depscope/depscope/internal/depgraph"
	"github.com/depscope/depscope/internal/duplicates"
)

func acyclicReport() *analysis.Report {
	return &analysis.Report{
		Graph: &depgraph.Graph{},
		Topo:  []string{"a", "b"},
	}
}

func cyclicReport(severity depgraph.Severity) *analysis.Report {
	return &analysis.Report{
		Graph: &depgraph.Graph{},
		Cycles: []depgraph.Cycle{
			{Path: []string{"a", "b", "a"}, Severity: severity},
		},
		SCCs: []depgraph.SCC{{Members: []string{"a", "b"}}},
	}
}

func TestAcyclicGate(t *testing.T) {
	gate := NewAcyclicGate(SeverityRequired)

	result, err := gate.Evaluate(acyclicReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != GatePassed {
		t.Errorf("acyclic report should pass, got %v", result.Status)
	}

	result, _ = gate.Evaluate(cyclicReport(depgraph.SeverityWarning))
	if result.Status != GateFailed {
		t.Errorf("cyclic report should fail, got %v", result.Status)
	}
	if len(result.Details) != 1 || !strings.Contains(result.Details[0], "a -> b -> a") {
		t.Errorf("expected cycle walk in details, got %v", result.Details)
	}
}

func TestCycleBudgetGate(t *testing.T) {
	tests := []struct {
		name       string
		maxCycles  int
		cycles     int
		wantStatus GateStatus
	}{
		{"pass at zero", 0, 0, GatePassed},
		{"pass at budget", 2, 2, GatePassed},
		{"fail over budget", 1, 2, GateFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := &analysis.Report{}
			for i := 0; i < tt.cycles; i++ {
				report.Cycles = append(report.Cycles, depgraph.Cycle{
					Path: []string{"a", "b", "a"}, Severity: depgraph.SeverityWarning,
				})
			}

			gate := NewCycleBudgetGate(tt.maxCycles, SeverityRequired)
			result, err := gate.Evaluate(report)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Status != tt.wantStatus {
				t.Errorf("got status %v, want %v", result.Status, tt.wantStatus)
			}
			if result.Value != float64(tt.cycles) {
				t.Errorf("got value %v, want %v", result.Value, float64(tt.cycles))
			}
			if result.Threshold != float64(tt.maxCycles) {
				t.Errorf("got threshold %v, want %v", result.Threshold, float64(tt.maxCycles))
			}
		})
	}
}

func TestCycleSeverityGate(t *testing.T) {
	gate := NewCycleSeverityGate(SeverityCritical)

	result, _ := gate.Evaluate(cyclicReport(depgraph.SeverityWarning))
	if result.Status != GatePassed {
		t.Errorf("warning cycles should pass, got %v", result.Status)
	}

	result, _ = gate.Evaluate(cyclicReport(depgraph.SeverityError))
	if result.Status != GateFailed {
		t.Errorf("error cycles should fail, got %v", result.Status)
	}
}

func TestDuplicateBudgetGate(t *testing.T) {
	gate := NewDuplicateBudgetGate(100, SeverityAdvisory)

	// No duplicates: skipped.
	result, _ := gate.Evaluate(&analysis.Report{})
	if result.Status != GateSkipped {
		t.Errorf("no duplicates should skip, got %v", result.Status)
	}

	// Two copies of 1000 bytes total: 500 wasted, over the 100 budget.
	report := &analysis.Report{Duplicates: []duplicates.Duplicate{
		{Name: "lodash", Versions: []string{"3.10.1", "4.17.21"},
			Locations: []string{"a", "b"}, TotalSize: 1000},
	}}
	result, _ = gate.Evaluate(report)
	if result.Status != GateFailed {
		t.Errorf("expected failure over budget, got %v", result.Status)
	}
	if result.Value != 500 {
		t.Errorf("expected wasted value 500, got %v", result.Value)
	}

	// Generous budget passes.
	result, _ = NewDuplicateBudgetGate(1000, SeverityAdvisory).Evaluate(report)
	if result.Status != GatePassed {
		t.Errorf("expected pass within budget, got %v", result.Status)
	}
}

func TestConflictGate(t *testing.T) {
	report := &analysis.Report{Conflicts: []duplicates.Conflict{
		{Package: "lodash", Recommended: "4.17.21", Versions: []duplicates.ConflictVersion{
			{Version: "4.17.21"}, {Version: "3.10.1"},
		}},
	}}

	result, _ := NewConflictGate(0, SeverityRequired).Evaluate(report)
	if result.Status != GateFailed {
		t.Errorf("expected failure with zero tolerance, got %v", result.Status)
	}
	if len(result.Details) != 1 || !strings.Contains(result.Details[0], "recommend 4.17.21") {
		t.Errorf("expected recommendation in details, got %v", result.Details)
	}

	result, _ = NewConflictGate(1, SeverityRequired).Evaluate(report)
	if result.Status != GatePassed {
		t.Errorf("expected pass within limit, got %v", result.Status)
	}
}

func TestPipeline_RequiredFailureFailsOverall(t *testing.T) {
	p := NewPipeline(
		NewCycleBudgetGate(0, SeverityRequired),
		NewConflictGate(0, SeverityAdvisory),
	)

	result := p.Run(cyclicReport(depgraph.SeverityWarning))
	if result.Status != GateFailed {
		t.Errorf("required gate failure should fail the pipeline, got %v", result.Status)
	}
	if result.FailedCount != 1 {
		t.Errorf("expected 1 failed gate, got %d", result.FailedCount)
	}
	// Advisory gate still evaluated.
	if len(result.Gates) != 2 {
		t.Errorf("expected 2 gate results, got %d", len(result.Gates))
	}
}

func TestPipeline_CriticalFailureSkipsRest(t *testing.T) {
	p := NewPipeline(
		NewCycleSeverityGate(SeverityCritical),
		NewCycleBudgetGate(100, SeverityAdvisory),
	)

	result := p.Run(cyclicReport(depgraph.SeverityError))
	if result.Status != GateFailed {
		t.Errorf("expected overall failure, got %v", result.Status)
	}
	if result.SkippedCount != 1 {
		t.Errorf("gates after a critical failure must be skipped, got %d skipped", result.SkippedCount)
	}
	if result.Gates[1].Status != GateSkipped {
		t.Errorf("second gate should be skipped, got %v", result.Gates[1].Status)
	}
}

func TestPipeline_AllPass(t *testing.T) {
	p := BuildPipeline(DefaultConfig())

	result := p.Run(acyclicReport())
	if result.Status != GatePassed {
		t.Errorf("clean report should pass default gates, got %v: %s", result.Status, result.Summary)
	}
	if result.FailedCount != 0 {
		t.Errorf("expected no failures, got %d", result.FailedCount)
	}
}

func TestBuildPipeline_NilConfigUsesDefaults(t *testing.T) {
	p := BuildPipeline(nil)
	if len(p.gates) == 0 {
		t.Fatal("expected default gates")
	}
}

func TestBuildPipeline_DisabledPassesEverything(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false

	p := BuildPipeline(cfg)
	if len(p.gates) != 0 {
		t.Fatalf("disabled config should build no gates, got %d", len(p.gates))
	}

	result := p.Run(cyclicReport(depgraph.SeverityError))
	if result.Status != GatePassed {
		t.Errorf("disabled pipeline must pass, got %s", result.Status)
	}
}

func TestFormatReport(t *testing.T) {
	p := BuildPipeline(DefaultConfig())
	result := p.Run(cyclicReport(depgraph.SeverityError))

	out := FormatReport(result)
	if !strings.Contains(out, "Policy Gate Report") {
		t.Error("expected report header")
	}
	if !strings.Contains(out, "FAILED") {
		t.Error("expected FAILED verdict")
	}
	if !strings.Contains(out, "✗") {
		t.Error("expected failure icon")
	}
}
