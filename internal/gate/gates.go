package gate

import (
	"fmt"
	"strings"

	"github.com/depscope/depscope/internal/analysis"
	"github.com/depscope/depscope/internal/depgraph"
)

// AcyclicGate requires the graph to have a topological order.
type AcyclicGate struct {
	severity GateSeverity
}

func NewAcyclicGate(severity GateSeverity) *AcyclicGate {
	return &AcyclicGate{severity: severity}
}

func (g *AcyclicGate) Name() string           { return "acyclic" }
func (g *AcyclicGate) Severity() GateSeverity { return g.severity }
func (g *AcyclicGate) Evaluate(report *analysis.Report) (*GateResult, error) {
	r := &GateResult{
		Name:     g.Name(),
		Severity: g.severity,
	}
	if report.Acyclic() {
		r.Status = GatePassed
		r.Message = "Dependency graph is acyclic"
	} else {
		r.Status = GateFailed
		r.Value = float64(len(report.Cycles))
		r.Message = fmt.Sprintf("Graph is cyclic: %d cycle(s) block a build order", len(report.Cycles))
		for _, c := range report.Cycles {
			r.Details = append(r.Details, strings.Join(c.Path, " -> "))
		}
	}
	return r, nil
}

// CycleBudgetGate limits the total number of reported cycles.
type CycleBudgetGate struct {
	MaxCycles int
	severity  GateSeverity
}

func NewCycleBudgetGate(maxCycles int, severity GateSeverity) *CycleBudgetGate {
	return &CycleBudgetGate{MaxCycles: maxCycles, severity: severity}
}

func (g *CycleBudgetGate) Name() string           { return "cycle_budget" }
func (g *CycleBudgetGate) Severity() GateSeverity { return g.severity }
func (g *CycleBudgetGate) Evaluate(report *analysis.Report) (*GateResult, error) {
	r := &GateResult{
		Name:      g.Name(),
		Severity:  g.severity,
		Value:     float64(len(report.Cycles)),
		Threshold: float64(g.MaxCycles),
	}
	if len(report.Cycles) <= g.MaxCycles {
		r.Status = GatePassed
		r.Message = fmt.Sprintf("Cycle count %d within budget %d", len(report.Cycles), g.MaxCycles)
	} else {
		r.Status = GateFailed
		r.Message = fmt.Sprintf("Cycle count %d exceeds budget %d", len(report.Cycles), g.MaxCycles)
	}
	return r, nil
}

// CycleSeverityGate fails on any error-severity cycle.
type CycleSeverityGate struct {
	severity GateSeverity
}

func NewCycleSeverityGate(severity GateSeverity) *CycleSeverityGate {
	return &CycleSeverityGate{severity: severity}
}

func (g *CycleSeverityGate) Name() string           { return "cycle_severity" }
func (g *CycleSeverityGate) Severity() GateSeverity { return g.severity }
func (g *CycleSeverityGate) Evaluate(report *analysis.Report) (*GateResult, error) {
	r := &GateResult{
		Name:     g.Name(),
		Severity: g.severity,
	}

	errorCycles := 0
	for _, c := range report.Cycles {
		if c.Severity == depgraph.SeverityError {
			errorCycles++
			r.Details = append(r.Details, strings.Join(c.Path, " -> "))
		}
	}
	r.Value = float64(errorCycles)

	if errorCycles == 0 {
		r.Status = GatePassed
		r.Message = "No error-severity cycles"
	} else {
		r.Status = GateFailed
		r.Message = fmt.Sprintf("%d cycle(s) exceed the severity threshold", errorCycles)
	}
	return r, nil
}

// DuplicateBudgetGate limits bytes wasted on duplicate package copies.
type DuplicateBudgetGate struct {
	MaxWastedBytes int64
	severity       GateSeverity
}

func NewDuplicateBudgetGate(maxWastedBytes int64, severity GateSeverity) *DuplicateBudgetGate {
	return &DuplicateBudgetGate{MaxWastedBytes: maxWastedBytes, severity: severity}
}

func (g *DuplicateBudgetGate) Name() string           { return "duplicate_budget" }
func (g *DuplicateBudgetGate) Severity() GateSeverity { return g.severity }
func (g *DuplicateBudgetGate) Evaluate(report *analysis.Report) (*GateResult, error) {
	r := &GateResult{
		Name:      g.Name(),
		Severity:  g.severity,
		Threshold: float64(g.MaxWastedBytes),
	}

	if len(report.Duplicates) == 0 {
		r.Status = GateSkipped
		r.Message = "No duplicate packages found"
		return r, nil
	}

	wasted := report.WastedBytes()
	r.Value = float64(wasted)

	if wasted <= g.MaxWastedBytes {
		r.Status = GatePassed
		r.Message = fmt.Sprintf("Duplicate waste %d bytes within budget %d", wasted, g.MaxWastedBytes)
	} else {
		r.Status = GateFailed
		r.Message = fmt.Sprintf("Duplicate waste %d bytes exceeds budget %d", wasted, g.MaxWastedBytes)
		for _, d := range report.Duplicates {
			r.Details = append(r.Details, fmt.Sprintf("%s: %s (%d bytes)",
				d.Name, strings.Join(d.Versions, ", "), d.TotalSize))
		}
	}
	return r, nil
}

// ConflictGate limits the number of version conflicts.
type ConflictGate struct {
	MaxConflicts int
	severity     GateSeverity
}

func NewConflictGate(maxConflicts int, severity GateSeverity) *ConflictGate {
	return &ConflictGate{MaxConflicts: maxConflicts, severity: severity}
}

func (g *ConflictGate) Name() string           { return "conflicts" }
func (g *ConflictGate) Severity() GateSeverity { return g.severity }
func (g *ConflictGate) Evaluate(report *analysis.Report) (*GateResult, error) {
	r := &GateResult{
		Name:      g.Name(),
		Severity:  g.severity,
		Value:     float64(len(report.Conflicts)),
		Threshold: float64(g.MaxConflicts),
	}

	if len(report.Conflicts) <= g.MaxConflicts {
		r.Status = GatePassed
		r.Message = fmt.Sprintf("Conflict count %d within limit %d", len(report.Conflicts), g.MaxConflicts)
	} else {
		r.Status = GateFailed
		r.Message = fmt.Sprintf("Conflict count %d exceeds limit %d", len(report.Conflicts), g.MaxConflicts)
		for _, c := range report.Conflicts {
			versions := make([]string, len(c.Versions))
			for i, v := range c.Versions {
				versions[i] = v.Version
			}
			r.Details = append(r.Details, fmt.Sprintf("%s: %s (recommend %s)",
				c.Package, strings.Join(versions, ", "), c.Recommended))
		}
	}
	return r, nil
}
