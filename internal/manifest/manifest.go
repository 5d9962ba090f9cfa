// Package manifest loads analysis inputs from disk: the resolved module
// list produced by build tooling, and installed-package metadata scanned
// from dependency directories.
package manifest

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/depscope/depscope/internal/duplicates"
	"github.com/depscope/depscope/internal/module"
)

// LoadModules reads a module manifest. Both a bare JSON array and an
// object with a "modules" key are accepted; the returned list has passed
// the input contract, so it is safe to hand straight to the engine.
func LoadModules(path string) ([]module.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var mods []module.Module
	if err := json.Unmarshal(data, &mods); err != nil {
		var wrapped struct {
			Modules []module.Module `json:"modules"`
		}
		if err2 := json.Unmarshal(data, &wrapped); err2 != nil {
			return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
		}
		mods = wrapped.Modules
	}

	if err := module.Validate(mods); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return mods, nil
}

// packageMeta is the slice of package.json this scanner cares about.
type packageMeta struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ScanInstalled walks root collecting package.json metadata beneath
// dependency directories (marker, default node_modules). RequiredBy is
// the name of the package owning the enclosing dependency directory, or
// the root directory's base name for top-level installs.
//
// Unreadable or malformed package.json files are skipped, not fatal:
// installed trees routinely contain broken leftovers and the scan is a
// heuristic input, not a contract.
func ScanInstalled(root, marker string) ([]duplicates.InstalledPackage, error) {
	if marker == "" {
		marker = "node_modules"
	}

	var installed []duplicates.InstalledPackage
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || d.Name() != "package.json" {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		segs := strings.Split(filepath.ToSlash(rel), "/")
		markerAt := -1
		for i, s := range segs {
			if s == marker {
				markerAt = i
			}
		}
		if markerAt == -1 {
			return nil
		}
		// Only the package's own manifest, directly under its install
		// directory (one segment for plain names, two for scoped).
		depth := len(segs) - markerAt - 2
		if depth != 1 && !(depth == 2 && strings.HasPrefix(segs[markerAt+1], "@")) {
			return nil
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil
		}
		var meta packageMeta
		if json.Unmarshal(data, &meta) != nil || meta.Name == "" {
			return nil
		}

		requiredBy := filepath.Base(root)
		if markerAt > 0 {
			requiredBy = segs[markerAt-1]
		}
		installed = append(installed, duplicates.InstalledPackage{
			Name:       meta.Name,
			Version:    meta.Version,
			Path:       filepath.ToSlash(rel),
			RequiredBy: []string{requiredBy},
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return installed, nil
}
