// Package config handles loading, defaulting, and validation of the dirsize
// configuration file. The file is optional; it supplies defaults that
// command-line flags override.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileName is the base name of the configuration file in the user config directory.
const FileName = "config.toml"

// Config is the top-level configuration, mirroring the file sections.
type Config struct {
	Scan    ScanConfig    `toml:"scan"    yaml:"scan"    json:"scan"`
	Output  OutputConfig  `toml:"output"  yaml:"output"  json:"output"`
	Logging LoggingConfig `toml:"logging" yaml:"logging" json:"logging"`
}

// ScanConfig holds the scan parameters.
type ScanConfig struct {
	// Depth is the maximum depth of reported entries (-1 = unlimited).
	Depth int `toml:"depth" yaml:"depth" json:"depth"`
	// Prune stops the walk at Depth instead of folding deeper sizes upwards.
	Prune bool `toml:"prune" yaml:"prune" json:"prune"`
	// Hidden includes hidden files and directories.
	Hidden bool `toml:"hidden" yaml:"hidden" json:"hidden"`
	// Threads is the number of walker goroutines (0 = one per CPU).
	Threads int `toml:"threads" yaml:"threads" json:"threads"`
	// Top is the number of entries to report.
	Top int `toml:"top" yaml:"top" json:"top"`
	// Rank selects which entries are ranked: all, dirs or files.
	Rank string `toml:"rank" yaml:"rank" json:"rank"`
	// MinSize is the smallest size worth reporting (e.g. 10MB).
	MinSize string `toml:"min_size" yaml:"min_size" json:"min_size"`
	// Excludes contains regex patterns for paths to skip.
	Excludes []string `toml:"excludes" yaml:"excludes" json:"excludes"`
	// Apparent reports logical file lengths instead of allocated space.
	Apparent bool `toml:"apparent" yaml:"apparent" json:"apparent"`
}

// OutputConfig holds display settings.
type OutputConfig struct {
	// Format is table, json or plain.
	Format string `toml:"format" yaml:"format" json:"format"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Debug enables debug logging to stderr.
	Debug bool `toml:"debug" yaml:"debug" json:"debug"`
	// File is a log file path; logs rotate when it grows.
	File string `toml:"file" yaml:"file" json:"file"`
}

// Formats lists the accepted output formats.
//
//nolint:gochecknoglobals // Config constant
var Formats = []string{"table", "json", "plain"}

// Ranks lists the accepted rank modes.
//
//nolint:gochecknoglobals // Config constant
var Ranks = []string{"all", "dirs", "files"}

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		Scan: ScanConfig{
			Depth:    -1,
			Threads:  0,
			Top:      10,
			Rank:     "dirs",
			MinSize:  "0B",
			Excludes: []string{},
		},
		Output: OutputConfig{
			Format: "table",
		},
	}
}

// DefaultPath returns the location of the per-user configuration file.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating user config directory: %w", err)
	}

	return filepath.Join(dir, "dirsize", FileName), nil
}

// Load reads the file at path, layers it on top of the defaults, and
// validates the result. TOML is assumed unless the extension is .yaml or .yml.
// Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)

		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return cfg, fmt.Errorf("parsing config %q: %w", path, err)
		}
	default:
		if err := toml.NewDecoder(bytes.NewReader(b)).DisallowUnknownFields().Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %q: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %q: %w", path, err)
	}

	return cfg, nil
}

// MinSizeBytes parses Scan.MinSize.
func (c Config) MinSizeBytes() (uint64, error) {
	if c.Scan.MinSize == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(c.Scan.MinSize)
	if err != nil {
		return 0, fmt.Errorf("invalid min-size: %w", err)
	}

	return size, nil
}

// Validate checks every constraint on the configuration.
func (c Config) Validate() error {
	if c.Scan.Depth < -1 {
		return errors.New("depth cannot be negative")
	}

	if c.Scan.Threads < 0 {
		return errors.New("threads cannot be negative")
	}

	if c.Scan.Top < 0 {
		return errors.New("top cannot be negative")
	}

	if !slices.Contains(Ranks, c.Scan.Rank) {
		return fmt.Errorf("invalid rank %q: must be one of %v", c.Scan.Rank, Ranks)
	}

	if !slices.Contains(Formats, c.Output.Format) {
		return fmt.Errorf("invalid output format %q: must be one of %v", c.Output.Format, Formats)
	}

	if _, err := c.MinSizeBytes(); err != nil {
		return err
	}

	return nil
}
