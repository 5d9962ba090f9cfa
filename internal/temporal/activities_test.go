package temporal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/depscope/depscope/internal/analysis"
	"github.com/depscope/depscope/internal/config"
	"github.com/depscope/depscope/internal/gate"
	"github.com/depscope/depscope/internal/runstore"
)

func setupDeps(t *testing.T) *Dependencies {
	t.Helper()

	store, err := runstore.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	d := &Dependencies{
		Analysis: config.Default().Analysis,
		Gates:    gate.DefaultConfig(),
		Runs:     store,
	}
	SetDependencies(d)
	return d
}

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deps.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

const acyclicManifest = `[
  {"id": "app", "name": "app", "size": 100, "dependencies": ["lib"]},
  {"id": "lib", "name": "lib", "size": 50}
]`

const cyclicManifest = `[
  {"id": "a", "name": "a", "size": 10, "dependencies": ["b"]},
  {"id": "b", "name": "b", "size": 10, "dependencies": ["a"]}
]`

func TestResolveActivity(t *testing.T) {
	setupDeps(t)
	path := writeManifest(t, acyclicManifest)

	result, err := ResolveActivity(context.Background(), AnalysisInput{ManifestPath: path})
	if err != nil {
		t.Fatalf("ResolveActivity: %v", err)
	}
	if !strings.Contains(result.ModulesJSON, `"app"`) {
		t.Errorf("modules JSON missing app: %s", result.ModulesJSON)
	}
	if result.InstalledJSON != "" {
		t.Error("expected empty installed JSON without scan root")
	}
}

func TestResolveActivity_MissingManifest(t *testing.T) {
	setupDeps(t)

	_, err := ResolveActivity(context.Background(), AnalysisInput{ManifestPath: "/does/not/exist.json"})
	if err == nil {
		t.Fatal("expected error for missing manifest")
	}
}

func TestResolveActivity_WithScanRoot(t *testing.T) {
	setupDeps(t)
	path := writeManifest(t, acyclicManifest)

	root := t.TempDir()
	pkgDir := filepath.Join(root, "node_modules", "lodash")
	if err := os.MkdirAll(pkgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	pkg := `{"name": "lodash", "version": "4.17.21"}`
	if err := os.WriteFile(filepath.Join(pkgDir, "package.json"), []byte(pkg), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := ResolveActivity(context.Background(), AnalysisInput{
		ManifestPath: path,
		ScanRoot:     root,
	})
	if err != nil {
		t.Fatalf("ResolveActivity: %v", err)
	}
	if !strings.Contains(result.InstalledJSON, "lodash") {
		t.Errorf("installed JSON missing lodash: %s", result.InstalledJSON)
	}
}

func TestAnalyzeActivity(t *testing.T) {
	setupDeps(t)
	path := writeManifest(t, acyclicManifest)
	input := AnalysisInput{ManifestPath: path}

	resolved, err := ResolveActivity(context.Background(), input)
	if err != nil {
		t.Fatalf("ResolveActivity: %v", err)
	}

	analyzed, err := AnalyzeActivity(context.Background(), input, resolved)
	if err != nil {
		t.Fatalf("AnalyzeActivity: %v", err)
	}
	if analyzed.Nodes != 2 || analyzed.Edges != 1 {
		t.Errorf("unexpected shape: %d nodes, %d edges", analyzed.Nodes, analyzed.Edges)
	}
	if !analyzed.Acyclic {
		t.Error("expected acyclic result")
	}

	var report analysis.Report
	if err := json.Unmarshal([]byte(analyzed.ReportJSON), &report); err != nil {
		t.Fatalf("report JSON does not round-trip: %v", err)
	}
	if report.Topo == nil {
		t.Error("expected topo order in report")
	}
}

func TestGateActivity(t *testing.T) {
	setupDeps(t)
	path := writeManifest(t, acyclicManifest)
	input := AnalysisInput{ManifestPath: path}

	resolved, _ := ResolveActivity(context.Background(), input)
	analyzed, _ := AnalyzeActivity(context.Background(), input, resolved)

	gated, err := GateActivity(context.Background(), analyzed.ReportJSON)
	if err != nil {
		t.Fatalf("GateActivity: %v", err)
	}
	if gated.Status != string(gate.GatePassed) {
		t.Errorf("clean graph should pass gates, got %s: %s", gated.Status, gated.Summary)
	}
	if len(gated.Failures) != 0 {
		t.Errorf("unexpected failures: %v", gated.Failures)
	}
}

func TestGateActivity_CyclicFails(t *testing.T) {
	setupDeps(t)
	path := writeManifest(t, cyclicManifest)
	input := AnalysisInput{ManifestPath: path}

	resolved, _ := ResolveActivity(context.Background(), input)
	analyzed, err := AnalyzeActivity(context.Background(), input, resolved)
	if err != nil {
		t.Fatalf("AnalyzeActivity: %v", err)
	}
	if analyzed.Acyclic {
		t.Fatal("expected cyclic graph")
	}

	gated, err := GateActivity(context.Background(), analyzed.ReportJSON)
	if err != nil {
		t.Fatalf("GateActivity: %v", err)
	}
	if gated.Status != string(gate.GateFailed) {
		t.Errorf("cyclic graph should fail default gates, got %s", gated.Status)
	}
	if len(gated.Failures) == 0 {
		t.Error("expected failure details")
	}
}

func TestStoreActivity(t *testing.T) {
	d := setupDeps(t)
	path := writeManifest(t, acyclicManifest)
	outPath := filepath.Join(t.TempDir(), "report.json")
	input := AnalysisInput{ManifestPath: path, OutputPath: outPath, Tag: "baseline"}

	resolved, _ := ResolveActivity(context.Background(), input)
	analyzed, _ := AnalyzeActivity(context.Background(), input, resolved)

	stored, err := StoreActivity(context.Background(), input, analyzed.ReportJSON, "passed")
	if err != nil {
		t.Fatalf("StoreActivity: %v", err)
	}
	if stored.RunID == "" {
		t.Fatal("expected run ID")
	}
	if stored.ReportPath != outPath {
		t.Errorf("expected report at %s, got %s", outPath, stored.ReportPath)
	}

	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("report file not written: %v", err)
	}

	run, err := d.Runs.FindByTag("baseline")
	if err != nil {
		t.Fatalf("FindByTag: %v", err)
	}
	if run.ID != stored.RunID {
		t.Errorf("tagged run %s, stored %s", run.ID, stored.RunID)
	}
	if run.GateStatus != "passed" {
		t.Errorf("expected gate status on run, got %q", run.GateStatus)
	}
}
