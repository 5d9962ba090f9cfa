package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/depscope/depscope/internal/analysis"
	"github.com/depscope/depscope/internal/config"
	"github.com/depscope/depscope/internal/depgraph"
	"github.com/depscope/depscope/internal/duplicates"
	"github.com/depscope/depscope/internal/gate"
	"github.com/depscope/depscope/internal/manifest"
	"github.com/depscope/depscope/internal/metrics"
	"github.com/depscope/depscope/internal/runstore"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "depscope",
		Short: "Dependency graph analysis for module manifests",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newExportCmd(),
		newDuplicatesCmd(),
		newGateCmd(),
		newRunsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file when given, otherwise falls back to
// defaults. A missing default file is not an error.
func loadConfig(path string) *config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config load failed (%v), using defaults\n", err)
		return config.Default()
	}
	return cfg
}

func newAnalyzeCmd() *cobra.Command {
	var (
		inputPath  string
		scanRoot   string
		outputPath string
		configPath string
		storeDir   string
		tag        string
		jsonReport bool
		skipGates  bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full analysis over a module manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(configPath)
			m := metrics.New()

			mods, err := manifest.LoadModules(inputPath)
			if err != nil {
				return fmt.Errorf("load manifest: %w", err)
			}

			opts := analysis.Options{
				DepDirMarker:        cfg.Analysis.DepDirMarker,
				CycleErrorThreshold: cfg.Analysis.CycleErrorThreshold,
				MaxTreeDepth:        cfg.Analysis.MaxTreeDepth,
				Aliases:             cfg.Analysis.Aliases,
				Metrics:             m,
			}

			if scanRoot != "" {
				installed, err := manifest.ScanInstalled(scanRoot, cfg.Analysis.DepDirMarker)
				if err != nil {
					return fmt.Errorf("scan %s: %w", scanRoot, err)
				}
				opts.Installed = installed
			}

			report, err := analysis.Run(context.Background(), mods, opts)
			if err != nil {
				return err
			}

			var gateResult *gate.PipelineResult
			if !skipGates {
				gateResult = gate.BuildPipeline(gate.DefaultConfig()).Run(report)
			}

			payload, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal report: %w", err)
			}
			if outputPath != "" {
				if err := os.WriteFile(outputPath, payload, 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
			}

			if dir := firstNonEmpty(storeDir, cfg.Store.Dir); dir != "" {
				store, err := runstore.NewStore(dir)
				if err != nil {
					return fmt.Errorf("open run store: %w", err)
				}
				status := ""
				if gateResult != nil {
					status = string(gateResult.Status)
				}
				run, runPayload, err := runstore.NewRun(inputPath, report, status)
				if err != nil {
					return err
				}
				if err := store.Save(run, runPayload); err != nil {
					return fmt.Errorf("save run: %w", err)
				}
				if tag != "" {
					if err := store.Tag(run.ID, tag); err != nil {
						return fmt.Errorf("tag run: %w", err)
					}
				}
				fmt.Fprintf(os.Stderr, "Run %s archived in %s\n", run.ID, dir)
			}

			var errs []string
			if gateResult != nil {
				for _, gr := range gateResult.Gates {
					if gr.Status == gate.GateFailed {
						errs = append(errs, fmt.Sprintf("%s: %s", gr.Name, gr.Message))
					}
				}
			}
			m.Finish(errs)

			if jsonReport {
				fmt.Println(string(payload))
			} else {
				m.PrintSummary(os.Stdout)
				if gateResult != nil {
					fmt.Print(gate.FormatReport(gateResult))
				}
			}

			if gateResult != nil && gateResult.Status == gate.GateFailed {
				return fmt.Errorf("policy gates failed: %s", gateResult.Summary)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Module manifest path (JSON)")
	cmd.Flags().StringVar(&scanRoot, "scan", "", "Install tree to scan for version conflicts")
	cmd.Flags().StringVar(&outputPath, "output", "", "Write the JSON report to this path")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file path")
	cmd.Flags().StringVar(&storeDir, "store", "", "Run archive directory (overrides config)")
	cmd.Flags().StringVar(&tag, "tag", "", "Tag the archived run")
	cmd.Flags().BoolVar(&jsonReport, "json", false, "Print the report as JSON instead of the summary")
	cmd.Flags().BoolVar(&skipGates, "no-gates", false, "Skip policy gate evaluation")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		inputPath  string
		configPath string
		format     string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the dependency graph as dot, mermaid or json",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(configPath)

			mods, err := manifest.LoadModules(inputPath)
			if err != nil {
				return fmt.Errorf("load manifest: %w", err)
			}

			g := depgraph.Build(mods, depgraph.BuildOptions{
				DepDirMarker: cfg.Analysis.DepDirMarker,
				Aliases:      cfg.Analysis.Aliases,
			})

			var out []byte
			switch format {
			case "dot":
				out = []byte(depgraph.ExportDOT(g))
			case "mermaid":
				out = []byte(depgraph.ExportMermaid(g))
			case "json":
				out, err = depgraph.ExportJSON(g)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q (want dot, mermaid or json)", format)
			}

			if outputPath == "" {
				fmt.Print(string(out))
				return nil
			}
			return os.WriteFile(outputPath, out, 0o644)
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Module manifest path (JSON)")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file path")
	cmd.Flags().StringVar(&format, "format", "dot", "Output format: dot, mermaid, json")
	cmd.Flags().StringVar(&outputPath, "output", "", "Output path (default stdout)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func newDuplicatesCmd() *cobra.Command {
	var (
		inputPath  string
		scanRoot   string
		configPath string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "duplicates",
		Short: "Report duplicate package copies and version conflicts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(configPath)
			marker := cfg.Analysis.DepDirMarker

			var dups []duplicates.Duplicate
			if inputPath != "" {
				mods, err := manifest.LoadModules(inputPath)
				if err != nil {
					return fmt.Errorf("load manifest: %w", err)
				}
				dups = duplicates.FindDuplicates(mods, marker)
			}

			var conflicts []duplicates.Conflict
			if scanRoot != "" {
				installed, err := manifest.ScanInstalled(scanRoot, marker)
				if err != nil {
					return fmt.Errorf("scan %s: %w", scanRoot, err)
				}
				conflicts = duplicates.FindConflicts(installed)
			}

			if jsonOutput {
				out, err := json.MarshalIndent(struct {
					Duplicates []duplicates.Duplicate `json:"duplicates"`
					Conflicts  []duplicates.Conflict  `json:"conflicts"`
				}{dups, conflicts}, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			if len(dups) == 0 && len(conflicts) == 0 {
				fmt.Println("No duplicates or conflicts found.")
				return nil
			}

			for _, d := range dups {
				fmt.Printf("%s: %d copies of versions %v (%d bytes total)\n",
					d.Name, len(d.Locations), d.Versions, d.TotalSize)
				for _, loc := range d.Locations {
					fmt.Printf("  %s\n", loc)
				}
			}
			for _, c := range conflicts {
				fmt.Printf("%s: conflicting versions", c.Package)
				if c.Recommended != "" {
					fmt.Printf(" (recommend %s)", c.Recommended)
				}
				fmt.Println()
				for _, v := range c.Versions {
					fmt.Printf("  %s required by %v\n", v.Version, v.RequiredBy)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Module manifest path (JSON)")
	cmd.Flags().StringVar(&scanRoot, "scan", "", "Install tree to scan for version conflicts")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file path")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func newGateCmd() *cobra.Command {
	var (
		reportPath     string
		requireAcyclic bool
		maxCycles      int
		maxConflicts   int
		maxWastedBytes int64
	)

	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Evaluate policy gates over a saved report",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(reportPath)
			if err != nil {
				return fmt.Errorf("read report: %w", err)
			}
			var report analysis.Report
			if err := json.Unmarshal(data, &report); err != nil {
				return fmt.Errorf("parse report: %w", err)
			}

			cfg := gate.DefaultConfig()
			cfg.RequireAcyclic = requireAcyclic
			cfg.MaxCycles = maxCycles
			cfg.MaxConflicts = maxConflicts
			cfg.MaxWastedBytes = maxWastedBytes

			result := gate.BuildPipeline(cfg).Run(&report)
			fmt.Print(gate.FormatReport(result))

			if result.Status == gate.GateFailed {
				return fmt.Errorf("policy gates failed: %s", result.Summary)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "Path to a JSON report produced by analyze")
	cmd.Flags().BoolVar(&requireAcyclic, "require-acyclic", false, "Fail when the graph has no topological order")
	cmd.Flags().IntVar(&maxCycles, "max-cycles", 0, "Maximum tolerated cycles")
	cmd.Flags().IntVar(&maxConflicts, "max-conflicts", 0, "Maximum tolerated version conflicts")
	cmd.Flags().Int64Var(&maxWastedBytes, "max-wasted-bytes", 0, "Maximum tolerated duplicate waste")
	_ = cmd.MarkFlagRequired("report")

	return cmd
}

func newRunsCmd() *cobra.Command {
	var storeDir string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the run archive",
	}
	cmd.PersistentFlags().StringVar(&storeDir, "store", ".depscope", "Run archive directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := runstore.NewStore(storeDir)
			if err != nil {
				return err
			}
			runs := store.List()
			if len(runs) == 0 {
				fmt.Println("No runs archived.")
				return nil
			}
			for _, r := range runs {
				tag := ""
				if r.Tag != "" {
					tag = " [" + r.Tag + "]"
				}
				acyclic := "cyclic"
				if r.Acyclic {
					acyclic = "acyclic"
				}
				fmt.Printf("%s  %s  %d nodes, %d edges, %d cycles (%s)%s\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"),
					r.Nodes, r.Edges, r.Cycles, acyclic, tag)
			}
			return nil
		},
	}

	tagCmd := &cobra.Command{
		Use:   "tag <run-id> <tag>",
		Short: "Tag an archived run",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := runstore.NewStore(storeDir)
			if err != nil {
				return err
			}
			return store.Tag(args[0], args[1])
		},
	}

	diffCmd := &cobra.Command{
		Use:   "diff <from-id> <to-id>",
		Short: "Compare two archived runs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := runstore.NewStore(storeDir)
			if err != nil {
				return err
			}

			from, err := loadRunByRef(store, args[0])
			if err != nil {
				return err
			}
			to, err := loadRunByRef(store, args[1])
			if err != nil {
				return err
			}

			fromReport, err := store.LoadReport(from)
			if err != nil {
				return err
			}
			toReport, err := store.LoadReport(to)
			if err != nil {
				return err
			}

			fmt.Print(runstore.FormatDiff(runstore.Diff(from, to, fromReport, toReport)))
			return nil
		},
	}

	cmd.AddCommand(listCmd, tagCmd, diffCmd)
	return cmd
}

// loadRunByRef resolves a run by ID first, then by tag.
func loadRunByRef(store *runstore.Store, ref string) (*runstore.Run, error) {
	if run, err := store.Load(ref); err == nil {
		return run, nil
	}
	return store.FindByTag(ref)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
