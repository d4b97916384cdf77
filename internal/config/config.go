// Package config loads the optional YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownFormat   = errors.New("config: unknown output format")
	ErrUnknownMode     = errors.New("config: unknown filter mode")
	ErrNegativeContext = errors.New("config: context line count is negative")
)

type Config struct {
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
	Filter FilterConfig `yaml:"filter"`
	Stats  bool         `yaml:"stats"`
}

type OutputConfig struct {
	Path   string `yaml:"path"`   // "-" is stdout
	Format string `yaml:"format"` // "text" or "json"
	Color  bool   `yaml:"color"`
}

// LogConfig controls the tool's own diagnostics, not the processed logs.
type LogConfig struct {
	File    string `yaml:"file"`
	Verbose bool   `yaml:"verbose"`
	Debug   bool   `yaml:"debug"`
}

type FilterConfig struct {
	Mode     string   `yaml:"mode"` // "any" or "all"
	Keywords []string `yaml:"keywords"`
	Exclude  []string `yaml:"exclude"`
	Regex    []string `yaml:"regex"`
	Levels   []string `yaml:"levels"`
	Before   int      `yaml:"before"` // context lines before a match
	After    int      `yaml:"after"`  // context lines after a match
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Output: OutputConfig{Path: "-", Format: "text"},
		Filter: FilterConfig{Mode: "any"},
	}
}

// Load reads path on top of Default. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalises enum fields and reports invalid values.
func (c *Config) Validate() error {
	c.Output.Format = strings.ToLower(c.Output.Format)
	switch c.Output.Format {
	case "":
		c.Output.Format = "text"
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, c.Output.Format)
	}

	if c.Output.Path == "" {
		c.Output.Path = "-"
	}

	c.Filter.Mode = strings.ToLower(c.Filter.Mode)
	switch c.Filter.Mode {
	case "":
		c.Filter.Mode = "any"
	case "any", "all":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, c.Filter.Mode)
	}

	if c.Filter.Before < 0 || c.Filter.After < 0 {
		return fmt.Errorf("%w: before=%d after=%d", ErrNegativeContext, c.Filter.Before, c.Filter.After)
	}

	return nil
}
