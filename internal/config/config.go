// Package config loads tfc-rig settings from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/QuesmaOrg/tfc-rig/internal/align"
	"github.com/QuesmaOrg/tfc-rig/internal/events"
	"github.com/QuesmaOrg/tfc-rig/internal/session"
)

// FileName is the settings file looked up in the working directory.
const FileName = ".tfc-rig.yaml"

// Output formats.
const (
	FormatCSV      = "csv"
	FormatTSV      = "tsv"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Output controls where result tables go.
type Output struct {
	Format string `yaml:"format"`
	Dir    string `yaml:"dir"`
}

// Align configures the dual-stream aligner.
type Align struct {
	Markers []string `yaml:"markers"`
}

// Config is the top-level YAML structure.
type Config struct {
	Workers             int      `yaml:"workers"`
	Verbose             bool     `yaml:"verbose"`
	AllowedTrialTypes   []int    `yaml:"allowed_trial_types"`
	WarnUnbalanced      bool     `yaml:"warn_unbalanced"`
	ResetTrialTypeOnEnd bool     `yaml:"reset_trial_type_on_end"`
	SkipDirs            []string `yaml:"skip_dirs"`
	Cohorts             []string `yaml:"cohorts"`
	Mice                []string `yaml:"mice"`
	Output              Output   `yaml:"output"`
	DBPath              string   `yaml:"db_path"`
	Align               Align    `yaml:"align"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Workers:           runtime.NumCPU(),
		AllowedTrialTypes: append([]int(nil), events.DefaultTrialTypes...),
		SkipDirs:          append([]string(nil), session.DefaultSkipDirs...),
		Output:            Output{Format: FormatCSV},
		Align:             Align{Markers: append([]string(nil), align.DefaultMarkers...)},
	}
}

// Load reads the YAML file at path over the defaults. A missing file yields
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath is the settings file in the current directory.
func DefaultPath() string {
	wd, err := os.Getwd()
	if err != nil {
		return FileName
	}
	return filepath.Join(wd, FileName)
}

// Validate checks values that would otherwise fail deep in a run.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatCSV, FormatTSV, FormatJSON, FormatMarkdown:
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	for _, t := range c.AllowedTrialTypes {
		if t < 0 || t > 4 {
			return fmt.Errorf("allowed trial type %d outside 0..4", t)
		}
	}
	return nil
}

// MachineOptions maps the settings onto the state machine.
func (c *Config) MachineOptions() events.Options {
	return events.Options{
		AllowedTrialTypes:   c.AllowedTrialTypes,
		WarnUnbalanced:      c.WarnUnbalanced,
		ResetTrialTypeOnEnd: c.ResetTrialTypeOnEnd,
	}
}

// Filter maps the settings onto file discovery.
func (c *Config) Filter() session.Filter {
	return session.Filter{SkipDirs: c.SkipDirs, Cohorts: c.Cohorts, Mice: c.Mice}
}
