// Package report writes a YAML summary of what a run detected and produced.
// Combined with --dry-run it gives a machine-readable preview of the region
// plan without touching anything.
package report

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/slideclip/internal/region"
)

// Region is one detected region in a scan report.
type Region struct {
	Slide    int    `yaml:"slide"` // 1-based, as shown to users
	Filename string `yaml:"filename"`
	Left     int64  `yaml:"left"`
	Top      int64  `yaml:"top"`
	Width    int64  `yaml:"width"`
	Height   int64  `yaml:"height"`
}

// Artifact is the per-input section of a report.
type Artifact struct {
	Input   string   `yaml:"input"`
	Regions []Region `yaml:"regions"`
	Outputs []string `yaml:"outputs,omitempty"`
	Error   string   `yaml:"error,omitempty"`
}

// Report is the top-level document.
type Report struct {
	DryRun    bool       `yaml:"dry_run"`
	Artifacts []Artifact `yaml:"artifacts"`
}

// NewArtifact converts a run's matched regions into report form.
func NewArtifact(input string, regions []region.Matched, outputs []string, runErr error) Artifact {
	a := Artifact{Input: input, Outputs: outputs}
	for _, r := range regions {
		a.Regions = append(a.Regions, Region{
			Slide:    r.Slide + 1,
			Filename: r.Filename,
			Left:     r.Rect.Left,
			Top:      r.Rect.Top,
			Width:    r.Rect.Width,
			Height:   r.Rect.Height,
		})
	}
	if runErr != nil {
		a.Error = runErr.Error()
	}
	return a
}

// Write marshals the report to path.
func Write(r *Report, path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
