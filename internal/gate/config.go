package gate

import "fmt"

// GateConfig defines the configuration for policy gates.
type GateConfig struct {
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	RequireAcyclic  bool   `mapstructure:"require_acyclic" json:"require_acyclic"`
	AcyclicSeverity string `mapstructure:"acyclic_severity" json:"acyclic_severity"`

	MaxCycles     int    `mapstructure:"max_cycles" json:"max_cycles"`
	CycleSeverity string `mapstructure:"cycle_severity" json:"cycle_severity"`

	FailOnErrorCycles  bool   `mapstructure:"fail_on_error_cycles" json:"fail_on_error_cycles"`
	ErrorCycleSeverity string `mapstructure:"error_cycle_severity" json:"error_cycle_severity"`

	MaxWastedBytes    int64  `mapstructure:"max_wasted_bytes" json:"max_wasted_bytes"`
	DuplicateSeverity string `mapstructure:"duplicate_severity" json:"duplicate_severity"`

	MaxConflicts     int    `mapstructure:"max_conflicts" json:"max_conflicts"`
	ConflictSeverity string `mapstructure:"conflict_severity" json:"conflict_severity"`
}

// DefaultConfig returns sensible default gate configuration.
func DefaultConfig() *GateConfig {
	return &GateConfig{
		Enabled:            true,
		RequireAcyclic:     false,
		AcyclicSeverity:    "advisory",
		MaxCycles:          0,
		CycleSeverity:      "required",
		FailOnErrorCycles:  true,
		ErrorCycleSeverity: "critical",
		MaxWastedBytes:     0, // any waste fails when duplicates exist
		DuplicateSeverity:  "advisory",
		MaxConflicts:       0,
		ConflictSeverity:   "required",
	}
}

// parseSeverity converts a string to GateSeverity.
func parseSeverity(s string) GateSeverity {
	switch s {
	case "critical":
		return SeverityCritical
	case "required":
		return SeverityRequired
	case "advisory":
		return SeverityAdvisory
	default:
		return SeverityRequired
	}
}

// BuildPipeline constructs a gate pipeline from configuration. When the
// config is disabled the pipeline is empty and every run passes.
func BuildPipeline(cfg *GateConfig) *Pipeline {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	p := NewPipeline()
	if !cfg.Enabled {
		return p
	}

	if cfg.RequireAcyclic {
		p.AddGate(NewAcyclicGate(parseSeverity(cfg.AcyclicSeverity)))
	}

	if cfg.FailOnErrorCycles {
		p.AddGate(NewCycleSeverityGate(parseSeverity(cfg.ErrorCycleSeverity)))
	}

	if cfg.MaxCycles >= 0 {
		p.AddGate(NewCycleBudgetGate(cfg.MaxCycles, parseSeverity(cfg.CycleSeverity)))
	}

	if cfg.MaxWastedBytes >= 0 {
		p.AddGate(NewDuplicateBudgetGate(cfg.MaxWastedBytes, parseSeverity(cfg.DuplicateSeverity)))
	}

	if cfg.MaxConflicts >= 0 {
		p.AddGate(NewConflictGate(cfg.MaxConflicts, parseSeverity(cfg.ConflictSeverity)))
	}

	return p
}

// FormatReport returns a human-readable gate report.
func FormatReport(result *PipelineResult) string {
	var s string
	s += "╔══════════════════════════════════════════╗\n"
	s += "║         Policy Gate Report               ║\n"
	s += "╠══════════════════════════════════════════╣\n"

	for _, gr := range result.Gates {
		icon := "✓"
		switch gr.Status {
		case GateFailed:
			icon = "✗"
		case GateSkipped:
			icon = "○"
		case GateWarning:
			icon = "⚠"
		}

		severity := ""
		switch gr.Severity {
		case SeverityCritical:
			severity = "[CRITICAL]"
		case SeverityRequired:
			severity = "[REQUIRED]"
		case SeverityAdvisory:
			severity = "[ADVISORY]"
		}

		s += fmt.Sprintf("║ %s %-16s %-10s %s\n", icon, gr.Name, severity, gr.Message)
		for _, d := range gr.Details {
			s += fmt.Sprintf("║   → %s\n", d)
		}
	}

	s += "╠══════════════════════════════════════════╣\n"
	status := "PASSED"
	if result.Status == GateFailed {
		status = "FAILED"
	}
	s += fmt.Sprintf("║ Result: %s (%s)\n", status, result.Summary)
	s += "╚══════════════════════════════════════════╝\n"

	return s
}
