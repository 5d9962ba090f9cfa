// Package duplicates finds physical copies of the same package installed
// at different versions, via two complementary checks: a path heuristic
// over the analyzed module list, and an exact-name scan over installed
// package metadata.
package duplicates

import (
	"sort"
	"strconv"
	"strings"

	"github.com/depscope/depscope/internal/module"
)

// Duplicate is a group of physical copies sharing one package identity
// with more than one extracted version.
type Duplicate struct {
	Name      string   `json:"name"`
	Versions  []string `json:"versions"`
	Locations []string `json:"locations"`
	TotalSize int64    `json:"totalSize"`
}

// InstalledPackage is one installed package manifest as found on disk.
type InstalledPackage struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Path       string   `json:"path,omitempty"`
	RequiredBy []string `json:"requiredBy,omitempty"`
}

// ConflictVersion is one declared version of a conflicted package and the
// dependents that require it.
type ConflictVersion struct {
	Version    string   `json:"version"`
	RequiredBy []string `json:"requiredBy"`
}

// Conflict reports a package installed at two or more distinct versions.
// Versions are sorted highest first; Recommended is always the highest.
type Conflict struct {
	Package     string            `json:"package"`
	Versions    []ConflictVersion `json:"versions"`
	Recommended string            `json:"recommended,omitempty"`
}

// FindDuplicates groups modules by the package identity extracted from
// their path (the segment after the last dependency-directory marker,
// scoped @scope/name supported) and reports every group carrying more
// than one distinct version. The version comes from a name@version
// pattern in the path segment, or "unknown" when absent.
//
// This is a heuristic: a copy resolving to "unknown" still groups with
// versioned copies of the same identity, which can over-report. TotalSize
// aggregates every physical copy in the group, since that is the bytes
// actually shipped.
//
// marker == "" means the default dependency-directory marker.
func FindDuplicates(mods []module.Module, marker string) []Duplicate {
	if marker == "" {
		marker = "node_modules"
	}

	type group struct {
		versions  map[string]bool
		locations []string
		totalSize int64
	}
	groups := make(map[string]*group)

	for _, m := range mods {
		identity, version, ok := extractIdentity(m.Path, marker)
		if !ok {
			continue
		}
		g := groups[identity]
		if g == nil {
			g = &group{versions: make(map[string]bool)}
			groups[identity] = g
		}
		g.versions[version] = true
		g.locations = append(g.locations, m.Path)
		g.totalSize += m.Size
	}

	var out []Duplicate
	for identity, g := range groups {
		if len(g.versions) < 2 {
			continue
		}
		versions := make([]string, 0, len(g.versions))
		for v := range g.versions {
			versions = append(versions, v)
		}
		sort.Strings(versions)
		out = append(out, Duplicate{
			Name:      identity,
			Versions:  versions,
			Locations: g.locations,
			TotalSize: g.totalSize,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// extractIdentity pulls (identity, version) out of an installed path,
// e.g. ".../node_modules/@scope/name@1.2.3/lib/x.js" -> "@scope/name", "1.2.3".
func extractIdentity(path, marker string) (string, string, bool) {
	segs := strings.Split(path, "/")
	last := -1
	for i, s := range segs {
		if s == marker {
			last = i
		}
	}
	if last == -1 || last+1 >= len(segs) {
		return "", "", false
	}

	first := segs[last+1]
	if strings.HasPrefix(first, "@") {
		// Scoped: the scope segment never carries a version; the name
		// segment may.
		if last+2 >= len(segs) {
			return "", "", false
		}
		name, version := splitVersion(segs[last+2])
		if name == "" {
			return "", "", false
		}
		return first + "/" + name, version, true
	}

	name, version := splitVersion(first)
	if name == "" {
		return "", "", false
	}
	return name, version, true
}

func splitVersion(seg string) (string, string) {
	if at := strings.LastIndex(seg, "@"); at > 0 {
		return seg[:at], seg[at+1:]
	}
	return seg, "unknown"
}

// FindConflicts scans installed-package metadata by exact name and
// reports every package declared at two or more distinct versions.
// Results are sorted by package name; within a conflict, versions sort
// highest first and Recommended is that highest version, so the choice
// is stable regardless of scan order.
func FindConflicts(installed []InstalledPackage) []Conflict {
	type entry struct {
		requiredBy []string
	}
	byName := make(map[string]map[string]*entry)

	for _, p := range installed {
		if p.Name == "" {
			continue
		}
		versions := byName[p.Name]
		if versions == nil {
			versions = make(map[string]*entry)
			byName[p.Name] = versions
		}
		e := versions[p.Version]
		if e == nil {
			e = &entry{}
			versions[p.Version] = e
		}
		e.requiredBy = append(e.requiredBy, p.RequiredBy...)
	}

	var out []Conflict
	for name, versions := range byName {
		if len(versions) < 2 {
			continue
		}
		c := Conflict{Package: name}
		for v, e := range versions {
			requiredBy := append([]string(nil), e.requiredBy...)
			sort.Strings(requiredBy)
			c.Versions = append(c.Versions, ConflictVersion{Version: v, RequiredBy: requiredBy})
		}
		sort.Slice(c.Versions, func(i, j int) bool {
			return CompareVersions(c.Versions[i].Version, c.Versions[j].Version) > 0
		})
		c.Recommended = c.Versions[0].Version
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Package < out[j].Package })
	return out
}

// CompareVersions orders dotted version strings. Segments compare
// numerically when both parse as integers, lexicographically otherwise;
// a longer version wins when all shared segments tie (1.2.1 > 1.2).
// Returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		if aerr == nil && berr == nil {
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			continue
		}
		if as[i] != bs[i] {
			if as[i] < bs[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	}
	return 0
}
