package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidate_Empty(t *testing.T) {
	cfg := &Config{}
	warnings := cfg.Validate()
	if len(warnings) != 0 {
		t.Errorf("empty config should have no warnings, got %v", warnings)
	}
}

func TestValidate_NegativeThreshold(t *testing.T) {
	cfg := &Config{Analysis: AnalysisConfig{CycleErrorThreshold: -1}}
	warnings := cfg.Validate()
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "cycle_error_threshold") {
			found = true
		}
	}
	if !found {
		t.Error("expected warning about negative cycle_error_threshold")
	}
}

func TestValidate_MarkerWithSeparator(t *testing.T) {
	tests := []struct {
		name   string
		marker string
		want   bool // true = should warn
	}{
		{"empty", "", false},
		{"plain", "node_modules", false},
		{"custom", "deps", false},
		{"slash", "a/b", true},
		{"backslash", `a\b`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Analysis: AnalysisConfig{DepDirMarker: tt.marker}}
			warnings := cfg.Validate()
			hasWarn := false
			for _, w := range warnings {
				if strings.Contains(w, "dep_dir_marker") {
					hasWarn = true
				}
			}
			if hasWarn != tt.want {
				t.Errorf("marker=%q: hasWarn=%v, want=%v", tt.marker, hasWarn, tt.want)
			}
		})
	}
}

func TestValidate_GraphWithoutUsername(t *testing.T) {
	cfg := &Config{Graph: GraphConfig{URI: "bolt://localhost:7687"}}
	warnings := cfg.Validate()
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "username") {
			found = true
		}
	}
	if !found {
		t.Error("expected warning about empty graph username")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depscope.yaml")
	content := `
analysis:
  dep_dir_marker: deps
  max_tree_depth: 10
temporal:
  host: temporal:7233
  task_queue: analysis
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Analysis.DepDirMarker != "deps" {
		t.Errorf("expected marker=deps, got %s", cfg.Analysis.DepDirMarker)
	}
	if cfg.Analysis.MaxTreeDepth != 10 {
		t.Errorf("expected max_tree_depth=10, got %d", cfg.Analysis.MaxTreeDepth)
	}
	if cfg.Temporal.TaskQueue != "analysis" {
		t.Errorf("expected task_queue=analysis, got %s", cfg.Temporal.TaskQueue)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Analysis.DepDirMarker != "node_modules" {
		t.Errorf("unexpected default marker: %s", cfg.Analysis.DepDirMarker)
	}
	if cfg.Temporal.TaskQueue == "" {
		t.Error("default task queue must be set")
	}
	if warnings := cfg.Validate(); len(warnings) != 0 {
		t.Errorf("defaults should not warn: %v", warnings)
	}
}
