package duplicates

import (
	"reflect"
	"testing"

	"github.com/depscope/depscope/internal/module"
)

func TestFindDuplicates_TwoCopies(t *testing.T) {
	mods := []module.Module{
		{ID: "1", Name: "utils-lib", Size: 500000, Path: "project/deps/utils-lib@4.17.21/index.js"},
		{ID: "2", Name: "utils-lib", Size: 300000, Path: "project/nested/deps/utils-lib@3.10.1/index.js"},
	}

	dups := FindDuplicates(mods, "deps")
	if len(dups) != 1 {
		t.Fatalf("expected 1 duplicate group, got %d", len(dups))
	}
	d := dups[0]
	if d.Name != "utils-lib" {
		t.Errorf("expected identity utils-lib, got %s", d.Name)
	}
	if !reflect.DeepEqual(d.Versions, []string{"3.10.1", "4.17.21"}) {
		t.Errorf("unexpected versions: %v", d.Versions)
	}
	if d.TotalSize != 800000 {
		t.Errorf("expected totalSize 800000, got %d", d.TotalSize)
	}
	if len(d.Locations) != 2 {
		t.Errorf("expected 2 locations, got %v", d.Locations)
	}
}

func TestFindDuplicates_SingleVersionNotReported(t *testing.T) {
	mods := []module.Module{
		{ID: "1", Path: "a/node_modules/lodash@4.17.21/x.js"},
		{ID: "2", Path: "b/node_modules/lodash@4.17.21/y.js"},
	}
	if dups := FindDuplicates(mods, ""); len(dups) != 0 {
		t.Errorf("same version twice is not a duplicate group, got %v", dups)
	}
}

func TestFindDuplicates_ScopedNames(t *testing.T) {
	mods := []module.Module{
		{ID: "1", Size: 10, Path: "node_modules/@babel/core@7.0.0/lib/index.js"},
		{ID: "2", Size: 20, Path: "x/node_modules/@babel/core@7.2.0/lib/index.js"},
	}

	dups := FindDuplicates(mods, "")
	if len(dups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(dups))
	}
	if dups[0].Name != "@babel/core" {
		t.Errorf("expected scoped identity @babel/core, got %s", dups[0].Name)
	}
	if dups[0].TotalSize != 30 {
		t.Errorf("expected totalSize 30, got %d", dups[0].TotalSize)
	}
}

func TestFindDuplicates_UnknownVersionGroups(t *testing.T) {
	// A copy without a version suffix still groups with versioned copies;
	// a known false-positive source, kept deliberately.
	mods := []module.Module{
		{ID: "1", Path: "node_modules/lodash@4.17.21/x.js"},
		{ID: "2", Path: "y/node_modules/lodash/x.js"},
	}

	dups := FindDuplicates(mods, "")
	if len(dups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(dups))
	}
	if !reflect.DeepEqual(dups[0].Versions, []string{"4.17.21", "unknown"}) {
		t.Errorf("unexpected versions: %v", dups[0].Versions)
	}
}

func TestFindDuplicates_PathsWithoutMarkerIgnored(t *testing.T) {
	mods := []module.Module{
		{ID: "1", Path: "src/app.js"},
		{ID: "2", Path: ""},
	}
	if dups := FindDuplicates(mods, ""); len(dups) != 0 {
		t.Errorf("first-party paths must be ignored, got %v", dups)
	}
}

func TestFindDuplicates_Idempotent(t *testing.T) {
	mods := []module.Module{
		{ID: "1", Size: 100, Path: "node_modules/a@1.0.0/x"},
		{ID: "2", Size: 200, Path: "node_modules/a@2.0.0/x"},
		{ID: "3", Size: 50, Path: "node_modules/b@1.0.0/x"},
		{ID: "4", Size: 60, Path: "q/node_modules/b@1.1.0/x"},
	}

	first := FindDuplicates(mods, "")
	second := FindDuplicates(mods, "")
	if !reflect.DeepEqual(first, second) {
		t.Errorf("grouping not idempotent:\n%v\n%v", first, second)
	}
}

func TestFindConflicts_Basic(t *testing.T) {
	installed := []InstalledPackage{
		{Name: "lodash", Version: "3.10.1", RequiredBy: []string{"legacy-lib"}},
		{Name: "lodash", Version: "4.17.21", RequiredBy: []string{"app"}},
		{Name: "react", Version: "18.2.0", RequiredBy: []string{"app"}},
	}

	conflicts := FindConflicts(installed)
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	c := conflicts[0]
	if c.Package != "lodash" {
		t.Errorf("expected lodash, got %s", c.Package)
	}
	if c.Recommended != "4.17.21" {
		t.Errorf("recommended should be the highest version, got %s", c.Recommended)
	}
	if c.Versions[0].Version != "4.17.21" || c.Versions[1].Version != "3.10.1" {
		t.Errorf("versions should sort highest first: %+v", c.Versions)
	}
}

func TestFindConflicts_StableAcrossScanOrder(t *testing.T) {
	forward := []InstalledPackage{
		{Name: "a", Version: "1.0.0"},
		{Name: "a", Version: "2.0.0"},
		{Name: "b", Version: "0.1.0"},
		{Name: "b", Version: "0.2.0"},
	}
	reversed := []InstalledPackage{forward[3], forward[2], forward[1], forward[0]}

	if !reflect.DeepEqual(FindConflicts(forward), FindConflicts(reversed)) {
		t.Error("conflict report must not depend on scan order")
	}
}

func TestFindConflicts_MergesRequiredByPerVersion(t *testing.T) {
	installed := []InstalledPackage{
		{Name: "lodash", Version: "4.17.21", RequiredBy: []string{"z-app"}},
		{Name: "lodash", Version: "4.17.21", RequiredBy: []string{"a-lib"}},
		{Name: "lodash", Version: "3.10.1", RequiredBy: []string{"legacy"}},
	}

	conflicts := FindConflicts(installed)
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(conflicts))
	}
	top := conflicts[0].Versions[0]
	if !reflect.DeepEqual(top.RequiredBy, []string{"a-lib", "z-app"}) {
		t.Errorf("requiredBy should merge and sort, got %v", top.RequiredBy)
	}
}

func TestCompareVersions(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "2.0.0", -1},
		{"2.0.0", "1.0.0", 1},
		{"1.2.3", "1.2.3", 0},
		{"4.17.21", "4.9.0", 1},   // numeric, not lexicographic
		{"1.2", "1.2.1", -1},      // shorter loses on ties
		{"1.0.0-rc1", "1.0.0", 1}, // non-numeric segment falls back to string compare
		{"unknown", "1.0.0", 1},
	}
	for _, c := range cases {
		if got := CompareVersions(c.a, c.b); got != c.want {
			t.Errorf("CompareVersions(%q,%q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
