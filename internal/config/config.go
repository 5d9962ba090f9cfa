package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Graph    GraphConfig    `mapstructure:"graph"`
	Temporal TemporalConfig `mapstructure:"temporal"`
	Store    StoreConfig    `mapstructure:"store"`
	Log      LogConfig      `mapstructure:"log"`
}

// AnalysisConfig tunes the analysis engine.
type AnalysisConfig struct {
	// DepDirMarker is the path segment identifying installed packages
	// (node_modules for npm layouts, deps for others).
	DepDirMarker string `mapstructure:"dep_dir_marker"`

	// CycleErrorThreshold is the distinct-node count above which a cycle
	// is graded error. Zero means the engine default.
	CycleErrorThreshold int `mapstructure:"cycle_error_threshold"`

	// MaxTreeDepth bounds the dependency tree projection. Zero means the
	// engine default.
	MaxTreeDepth int `mapstructure:"max_tree_depth"`

	// Aliases maps declared dependency references to the module names
	// they resolve to (bundler aliasing).
	Aliases map[string]string `mapstructure:"aliases"`
}

type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type TemporalConfig struct {
	Host      string `mapstructure:"host"`
	Namespace string `mapstructure:"namespace"`
	TaskQueue string `mapstructure:"task_queue"`
}

type StoreConfig struct {
	// Dir is the run archive directory. Empty disables archiving.
	Dir string `mapstructure:"dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Analysis.CycleErrorThreshold < 0 {
		warnings = append(warnings, fmt.Sprintf("analysis cycle_error_threshold %d is negative, using default", c.Analysis.CycleErrorThreshold))
	}
	if c.Analysis.MaxTreeDepth < 0 {
		warnings = append(warnings, fmt.Sprintf("analysis max_tree_depth %d is negative, using default", c.Analysis.MaxTreeDepth))
	}
	if strings.ContainsAny(c.Analysis.DepDirMarker, "/\\") {
		warnings = append(warnings, fmt.Sprintf("analysis dep_dir_marker %q should be a single path segment", c.Analysis.DepDirMarker))
	}
	if c.Graph.URI != "" && c.Graph.Username == "" {
		warnings = append(warnings, "graph uri is configured but username is empty")
	}

	return warnings
}

// Load reads configuration from file and environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("DEPSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{DepDirMarker: "node_modules"},
		Temporal: TemporalConfig{
			Host:      "localhost:7233",
			Namespace: "default",
			TaskQueue: "depscope-analysis",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}
