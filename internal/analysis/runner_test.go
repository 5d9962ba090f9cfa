package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/depscope/depscope/internal/duplicates"
	"github.com/depscope/depscope/internal/metrics"
	"github.com/depscope/depscope/internal/module"
)

func mod(id string, deps ...string) module.Module {
	return module.Module{ID: id, Name: id, Dependencies: deps}
}

func TestRun_AcyclicGraph(t *testing.T) {
	mods := []module.Module{
		mod("app", "lib", "util"),
		mod("lib", "util"),
		mod("util"),
	}

	report, err := Run(context.Background(), mods, Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(report.Graph.Nodes) != 3 {
		t.Errorf("expected 3 nodes, got %d", len(report.Graph.Nodes))
	}
	if len(report.Cycles) != 0 {
		t.Errorf("expected no cycles, got %d", len(report.Cycles))
	}
	if len(report.SCCs) != 0 {
		t.Errorf("expected no SCCs, got %d", len(report.SCCs))
	}
	if !report.Acyclic() || len(report.Topo) != 3 {
		t.Errorf("expected 3-element topo order, got %v", report.Topo)
	}
	if report.InDegrees["util"] != 2 {
		t.Errorf("expected in-degree 2 for util, got %d", report.InDegrees["util"])
	}
	if len(report.Trees) != 1 || report.Trees[0].ID != "app" {
		t.Errorf("expected single tree rooted at app, got %+v", report.Trees)
	}
}

func TestRun_CyclicGraph(t *testing.T) {
	mods := []module.Module{
		mod("A", "B"),
		mod("B", "C"),
		mod("C", "A"),
	}

	report, err := Run(context.Background(), mods, Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(report.Cycles) != 1 {
		t.Errorf("expected 1 cycle, got %d", len(report.Cycles))
	}
	if len(report.SCCs) != 1 {
		t.Errorf("expected 1 SCC, got %d", len(report.SCCs))
	}
	if report.Acyclic() {
		t.Error("cyclic graph must not report a topo order")
	}

	// Topo must serialize to JSON null, not [].
	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"topo":null`) {
		t.Error("cyclic report should serialize topo as null")
	}
}

func TestRun_RejectsInvalidInput(t *testing.T) {
	mods := []module.Module{{ID: "a"}, {ID: "a"}}

	_, err := Run(context.Background(), mods, Options{})
	if err == nil {
		t.Fatal("expected validation error for duplicate id")
	}
	var verr *module.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected wrapped *module.ValidationError, got %v", err)
	}
}

func TestRun_EmptyInput(t *testing.T) {
	report, err := Run(context.Background(), nil, Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Cycles) != 0 || len(report.SCCs) != 0 || len(report.Duplicates) != 0 {
		t.Error("empty input must yield empty reports")
	}
	if !report.Acyclic() || len(report.Topo) != 0 {
		t.Errorf("empty graph is trivially acyclic, got %v", report.Topo)
	}
}

func TestRun_WithInstalledMetadata(t *testing.T) {
	mods := []module.Module{mod("app")}
	installed := []duplicates.InstalledPackage{
		{Name: "lodash", Version: "4.17.21", RequiredBy: []string{"app"}},
		{Name: "lodash", Version: "3.10.1", RequiredBy: []string{"legacy"}},
	}

	report, err := Run(context.Background(), mods, Options{Installed: installed})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Conflicts) != 1 || report.Conflicts[0].Recommended != "4.17.21" {
		t.Errorf("unexpected conflicts: %+v", report.Conflicts)
	}
}

func TestRun_CollectsMetrics(t *testing.T) {
	mods := []module.Module{
		{ID: "a", Name: "a", Size: 100, Dependencies: []string{"b", "ghost"}},
		{ID: "b", Name: "b", Size: 200},
	}

	m := metrics.New()
	_, err := Run(context.Background(), mods, Options{Metrics: m})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if m.Input.ModuleCount != 2 || m.Input.EdgeCount != 1 {
		t.Errorf("unexpected input metrics: %+v", m.Input)
	}
	if m.Input.DroppedRefs != 1 {
		t.Errorf("expected 1 dropped ref (ghost), got %d", m.Input.DroppedRefs)
	}
	if m.Input.TotalSizeBytes != 300 {
		t.Errorf("expected total size 300, got %d", m.Input.TotalSizeBytes)
	}
	if !m.Findings.Acyclic {
		t.Error("findings should mark the run acyclic")
	}

	stageNames := make(map[string]bool)
	for _, s := range m.Stages {
		stageNames[s.Name] = true
	}
	for _, want := range []string{"build", "cycles", "sccs", "toposort", "duplicates", "trees", "centrality"} {
		if !stageNames[want] {
			t.Errorf("missing stage %q in metrics", want)
		}
	}
	if stageNames["conflicts"] {
		t.Error("conflicts stage should be skipped without installed metadata")
	}
}

func TestReport_WastedBytes(t *testing.T) {
	r := &Report{Duplicates: []duplicates.Duplicate{
		{Name: "a", Locations: []string{"x", "y"}, TotalSize: 1000},
		{Name: "b", Locations: []string{"x"}, TotalSize: 500},
	}}
	if got := r.WastedBytes(); got != 500 {
		t.Errorf("expected 500 wasted bytes, got %d", got)
	}
}
