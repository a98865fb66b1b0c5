// Package engine sequences one artifact's pipeline: scan the slides, match
// markers to labels, apply margins, strip the marker shapes, render the
// stripped deck to PDF and clip every region into its output file.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ivlev/slideclip/internal/clip"
	"github.com/ivlev/slideclip/internal/config"
	"github.com/ivlev/slideclip/internal/region"
	"github.com/ivlev/slideclip/internal/render"
	"github.com/ivlev/slideclip/internal/system"
)

// Document is the engine's view of the document model provider. One pipeline
// run owns its Document exclusively; Remove mutates only the in-memory copy.
type Document interface {
	SlideCount() int
	SlideSize() (w, h int64)
	BaseName() string
	Shapes(slide int) []region.Shape
	Remove(refs []region.ShapeRef)
	SaveTo(path string) error
}

// ConfirmFunc decides whether existing output files may be overwritten.
type ConfirmFunc func(existing []string) bool

// ProgressFunc reports per-region progress. Purely informational;
// cancellation goes through the context.
type ProgressFunc func(msg string, current, total int)

// ErrAborted is returned when the overwrite guard was refused. Nothing has
// been produced or mutated in that case.
var ErrAborted = errors.New("aborted: existing files not overwritten")

// Result is what a run detected and produced. On dry runs Outputs holds the
// paths that would have been written.
type Result struct {
	Regions []region.Matched
	Outputs []string
}

// Project processes a single input artifact.
type Project struct {
	Config   *config.Config
	Input    string
	Doc      Document
	Renderer render.Renderer

	// NewClipper opens the rendered PDF; swapped out in tests.
	NewClipper func(pdfPath string) (clip.Clipper, error)

	Confirm  ConfirmFunc
	Progress ProgressFunc
}

// NewProject wires the default collaborators for an input artifact.
func NewProject(cfg *config.Config, input string, doc Document) *Project {
	return &Project{
		Config:   cfg,
		Input:    input,
		Doc:      doc,
		Renderer: &render.LibreOffice{Binary: cfg.Soffice},
		NewClipper: func(pdfPath string) (clip.Clipper, error) {
			c, err := clip.New(pdfPath)
			if err != nil {
				return nil, err
			}
			c.MaxEdge = cfg.MaxEdge
			return c, nil
		},
	}
}

func (p *Project) logf(format string, args ...any) {
	if !p.Config.Quiet {
		fmt.Printf(format+"\n", args...)
	}
}

func (p *Project) progress(msg string, current, total int) {
	if p.Progress != nil {
		p.Progress(msg, current, total)
	}
}

// Run executes the pipeline. A canceled context stops the clipping loop
// cleanly: already-produced outputs are returned and nothing is rolled back.
func (p *Project) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	// Scan and match, slide by slide. Per-slide emission order is
	// matched-then-fallback; slides concatenate in document order.
	for i := 0; i < p.Doc.SlideCount(); i++ {
		markers, labels := region.Scan(p.Doc.Shapes(i), p.Config.Color, p.Config.Tolerance)
		res.Regions = append(res.Regions, region.Match(markers, labels, i, p.Doc.BaseName())...)
	}

	if len(res.Regions) == 0 {
		p.logf("[*] No clipping regions found in %s", p.Input)
		return res, nil
	}

	// Margins apply uniformly before any coordinate conversion.
	if p.Config.MarginPt != 0 {
		for i := range res.Regions {
			res.Regions[i].Rect = res.Regions[i].Rect.Expand(p.Config.MarginPt)
		}
	}

	targets := make([]string, len(res.Regions))
	for i, r := range res.Regions {
		targets[i] = filepath.Join(p.Config.OutputDir, r.Filename)
	}

	if p.Config.DryRun {
		p.logf("[*] Dry-run %s:", filepath.Base(p.Input))
		for _, r := range res.Regions {
			p.logf("    slide %d -> %s", r.Slide+1, r.Filename)
		}
		res.Outputs = targets
		return res, nil
	}

	if p.Config.NoOverwrite {
		var existing []string
		for _, t := range targets {
			if _, err := os.Stat(t); err == nil {
				existing = append(existing, t)
			}
		}
		if len(existing) > 0 {
			if p.Confirm == nil || !p.Confirm(existing) {
				res.Outputs = nil
				return res, ErrAborted
			}
		}
	}

	if err := os.MkdirAll(p.Config.OutputDir, 0755); err != nil {
		return res, fmt.Errorf("creating output directory: %w", err)
	}

	// Private scratch dir per run, cleaned up on every path.
	tempDir, err := os.MkdirTemp("", "slideclip_")
	if err != nil {
		return res, err
	}
	defer os.RemoveAll(tempDir)

	// Strip markers and labels, then render the cleaned document.
	var refs []region.ShapeRef
	for _, r := range res.Regions {
		refs = append(refs, r.Sources...)
	}
	p.Doc.Remove(refs)

	strippedPath := filepath.Join(tempDir, "stripped.pptx")
	if err := p.Doc.SaveTo(strippedPath); err != nil {
		return res, fmt.Errorf("saving stripped copy: %w", err)
	}

	p.logf("[*] Converting %s to PDF...", filepath.Base(p.Input))
	p.progress(fmt.Sprintf("Converting %s to PDF", filepath.Base(p.Input)), 0, len(res.Regions))

	pdfPath, err := p.Renderer.Render(ctx, strippedPath, tempDir, p.Config.EmbedFonts)
	if err != nil {
		return res, fmt.Errorf("rendering %s: %w", p.Input, err)
	}

	clipper, err := p.NewClipper(pdfPath)
	if err != nil {
		return res, err
	}
	defer clipper.Close()

	p.checkRasterBudget(clipper, targets)

	slideW, slideH := p.Doc.SlideSize()

	for i, r := range res.Regions {
		// Cooperative cancellation between clips; partial output stands.
		if ctx.Err() != nil {
			p.logf("[!] Canceled after %d of %d regions", len(res.Outputs), len(res.Regions))
			return res, nil
		}

		if r.Rect.Width <= 0 || r.Rect.Height <= 0 {
			return res, fmt.Errorf("region %q on slide %d has non-positive size after margin; reduce --margin",
				r.Filename, r.Slide+1)
		}

		pageW, pageH, err := clipper.PageSize(r.Slide)
		if err != nil {
			return res, fmt.Errorf("page %d: %w", r.Slide+1, err)
		}

		pageRect, err := region.ToPageRect(r.Rect, slideW, slideH, pageW, pageH)
		if err != nil {
			return res, err
		}

		p.logf("[>] Clipping slide %d -> %s", r.Slide+1, r.Filename)
		p.progress(fmt.Sprintf("Clipping %s", r.Filename), i+1, len(res.Regions))

		// A failed clip aborts the rest of this artifact; what was
		// already written stays on disk.
		if err := clipper.Clip(ctx, r.Slide, pageRect, targets[i], p.Config.DPI); err != nil {
			return res, fmt.Errorf("clipping %s: %w", r.Filename, err)
		}

		res.Outputs = append(res.Outputs, targets[i])
	}

	return res, nil
}

// checkRasterBudget warns when the first rasterized page would not fit in
// available memory. Raster output only; vector formats render lazily.
func (p *Project) checkRasterBudget(clipper clip.Clipper, targets []string) {
	raster := false
	for _, t := range targets {
		if strings.EqualFold(filepath.Ext(t), ".png") {
			raster = true
			break
		}
	}
	if !raster {
		return
	}
	pageW, pageH, err := clipper.PageSize(0)
	if err != nil {
		return
	}
	if err := system.CheckRasterBudget(pageW, pageH, p.Config.DPI); err != nil {
		log.Printf("[!] %v", err)
	}
}
