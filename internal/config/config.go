// Package config carries a pipeline run's configuration and validates it
// before any work starts.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/slideclip/internal/region"
)

// Config is the fully resolved configuration for one invocation. Inputs are
// already glob-expanded and de-duplicated by the CLI.
type Config struct {
	Inputs    []string
	OutputDir string

	ColorSpec string
	Color     region.Color
	Tolerance int

	DPI        int
	MarginPt   float64
	EmbedFonts bool

	DryRun      bool
	Quiet       bool
	NoOverwrite bool
	FailFast    bool

	Workers int
	MaxEdge int

	ReportPath string
	Soffice    string
}

// Validate resolves the color spec and rejects configuration errors before
// the pipeline touches any document.
func (c *Config) Validate() error {
	color, err := region.ParseColor(c.ColorSpec)
	if err != nil {
		return err
	}
	c.Color = color

	if c.Tolerance < 0 || c.Tolerance > 255 {
		return fmt.Errorf("tolerance %d out of range 0-255", c.Tolerance)
	}
	if c.DPI <= 0 {
		return fmt.Errorf("dpi must be positive, got %d", c.DPI)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxEdge < 0 {
		return fmt.Errorf("max-edge must not be negative, got %d", c.MaxEdge)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("output directory must not be empty")
	}
	return nil
}

// Preset is an optional YAML defaults file. Zero values mean "not set" and
// leave the flag default alone.
type Preset struct {
	Output     string  `yaml:"output"`
	Color      string  `yaml:"color"`
	Tolerance  int     `yaml:"tolerance"`
	DPI        int     `yaml:"dpi"`
	Margin     float64 `yaml:"margin"`
	EmbedFonts bool    `yaml:"embed_fonts"`
	Workers    int     `yaml:"workers"`
	MaxEdge    int     `yaml:"max_edge"`
	Soffice    string  `yaml:"soffice"`
}

// LoadPreset reads a YAML preset file.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &p, nil
}

// Apply copies preset values into the config, skipping fields the caller
// already set explicitly (explicit flags win over the preset file).
func (p *Preset) Apply(c *Config, explicit map[string]bool) {
	if p.Output != "" && !explicit["output"] {
		c.OutputDir = p.Output
	}
	if p.Color != "" && !explicit["color"] {
		c.ColorSpec = p.Color
	}
	if p.Tolerance != 0 && !explicit["tolerance"] {
		c.Tolerance = p.Tolerance
	}
	if p.DPI != 0 && !explicit["dpi"] {
		c.DPI = p.DPI
	}
	if p.Margin != 0 && !explicit["margin"] {
		c.MarginPt = p.Margin
	}
	if p.EmbedFonts && !explicit["embed-fonts"] {
		c.EmbedFonts = true
	}
	if p.Workers != 0 && !explicit["workers"] {
		c.Workers = p.Workers
	}
	if p.MaxEdge != 0 && !explicit["max-edge"] {
		c.MaxEdge = p.MaxEdge
	}
	if p.Soffice != "" && !explicit["soffice"] {
		c.Soffice = p.Soffice
	}
}
