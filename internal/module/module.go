// Package module defines the resolved-module records fed into the analysis
// engine, as produced by manifest resolution.
package module

import "fmt"

// Module is a single resolved unit of code with its declared dependency
// references. A module list is built once per analysis run and treated as
// immutable for the run's duration.
type Module struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Path string `json:"path,omitempty"`

	// Dependency references by name or id. References that resolve to
	// nothing in the module set (externalized or runtime-only deps) are
	// dropped during graph construction, not rejected.
	Dependencies         []string `json:"dependencies,omitempty"`
	PeerDependencies     []string `json:"peer_dependencies,omitempty"`
	OptionalDependencies []string `json:"optional_dependencies,omitempty"`
}

// ValidationError reports an input-contract violation for a single module.
// It is the only failure the engine raises; graph-shape anomalies
// (unresolved references, cycles, empty inputs) are never errors.
type ValidationError struct {
	ModuleID string
	Index    int
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.ModuleID == "" {
		return fmt.Sprintf("invalid module at index %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid module %q: %s", e.ModuleID, e.Reason)
}

// Validate checks the input contract for a module list: every module must
// carry a non-empty, unique id and a non-negative size. The first violation
// is returned as a *ValidationError; a nil error means every algorithm can
// safely run over the list.
func Validate(mods []Module) error {
	seen := make(map[string]bool, len(mods))
	for i, m := range mods {
		if m.ID == "" {
			return &ValidationError{Index: i, Reason: "missing id"}
		}
		if seen[m.ID] {
			return &ValidationError{ModuleID: m.ID, Index: i, Reason: "duplicate id"}
		}
		if m.Size < 0 {
			return &ValidationError{ModuleID: m.ID, Index: i, Reason: "negative size"}
		}
		seen[m.ID] = true
	}
	return nil
}
