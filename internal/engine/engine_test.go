package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ivlev/slideclip/internal/clip"
	"github.com/ivlev/slideclip/internal/config"
	"github.com/ivlev/slideclip/internal/region"
)

var cyan = region.Color{R: 0, G: 255, B: 255}

type fakeDoc struct {
	slides  [][]region.Shape
	base    string
	removed []region.ShapeRef
	saved   int
}

func (d *fakeDoc) SlideCount() int              { return len(d.slides) }
func (d *fakeDoc) SlideSize() (int64, int64)    { return 9144000, 6858000 }
func (d *fakeDoc) BaseName() string             { return d.base }
func (d *fakeDoc) Shapes(i int) []region.Shape  { return d.slides[i] }
func (d *fakeDoc) Remove(r []region.ShapeRef)   { d.removed = append(d.removed, r...) }
func (d *fakeDoc) SaveTo(path string) error {
	d.saved++
	return os.WriteFile(path, []byte("pptx"), 0644)
}

type fakeRenderer struct {
	calls int
	fail  bool
}

func (r *fakeRenderer) Render(ctx context.Context, docPath, outDir string, embedFonts bool) (string, error) {
	r.calls++
	if r.fail {
		return "", fmt.Errorf("renderer exploded")
	}
	pdf := filepath.Join(outDir, "rendered.pdf")
	return pdf, os.WriteFile(pdf, []byte("pdf"), 0644)
}

type fakeClipper struct {
	clipped []string
	failAt  int // 1-based call number that fails; 0 = never
	cancel  context.CancelFunc
	closed  bool
}

func (c *fakeClipper) PageSize(page int) (float64, float64, error) { return 720, 540, nil }

func (c *fakeClipper) Clip(ctx context.Context, page int, r region.PageRect, outPath string, dpi int) error {
	if c.failAt > 0 && len(c.clipped)+1 == c.failAt {
		return fmt.Errorf("clip failed")
	}
	c.clipped = append(c.clipped, outPath)
	if c.cancel != nil {
		c.cancel()
	}
	return os.WriteFile(outPath, []byte("out"), 0644)
}

func (c *fakeClipper) Close() error {
	c.closed = true
	return nil
}

func testShapes() []region.Shape {
	return []region.Shape{
		{
			Ref:     region.ShapeRef{Slide: 0, Ordinal: 0},
			Rect:    region.Rect{Left: 1000000, Top: 1000000, Width: 2000000, Height: 1500000},
			Outline: &cyan,
		},
		{
			Ref:  region.ShapeRef{Slide: 0, Ordinal: 1},
			Rect: region.Rect{Left: 3100000, Top: 1600000, Width: 900000, Height: 300000},
			Text: "filename= result.png",
		},
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		OutputDir: t.TempDir(),
		ColorSpec: "cyan",
		Color:     cyan,
		Tolerance: region.DefaultTolerance,
		DPI:       150,
		Workers:   1,
		Quiet:     true,
	}
}

func newTestProject(cfg *config.Config, doc Document, clipper *fakeClipper) *Project {
	return &Project{
		Config:   cfg,
		Input:    "deck.pptx",
		Doc:      doc,
		Renderer: &fakeRenderer{},
		NewClipper: func(string) (clip.Clipper, error) {
			return clipper, nil
		},
	}
}

func TestRunProducesOutputs(t *testing.T) {
	cfg := testConfig(t)
	doc := &fakeDoc{base: "deck", slides: [][]region.Shape{testShapes()}}
	clipper := &fakeClipper{}

	res, err := newTestProject(cfg, doc, clipper).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := filepath.Join(cfg.OutputDir, "result.png")
	if len(res.Outputs) != 1 || res.Outputs[0] != want {
		t.Fatalf("Outputs = %v, want [%s]", res.Outputs, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("output file missing: %v", err)
	}
	if len(doc.removed) != 2 {
		t.Errorf("removed %d shapes, want 2 (marker + label)", len(doc.removed))
	}
	if doc.saved != 1 {
		t.Errorf("document saved %d times, want 1", doc.saved)
	}
	if !clipper.closed {
		t.Error("clipper not closed")
	}
}

func TestRunNothingFound(t *testing.T) {
	cfg := testConfig(t)
	doc := &fakeDoc{base: "deck", slides: [][]region.Shape{{
		{Ref: region.ShapeRef{}, Rect: region.Rect{Left: 0, Top: 0, Width: 100, Height: 100}, Text: "no markers here"},
	}}}
	renderer := &fakeRenderer{}
	p := newTestProject(cfg, doc, &fakeClipper{})
	p.Renderer = renderer

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Regions) != 0 || len(res.Outputs) != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
	if renderer.calls != 0 {
		t.Error("renderer invoked although nothing was found")
	}
	if doc.saved != 0 || len(doc.removed) != 0 {
		t.Error("document touched although nothing was found")
	}
}

func TestRunDryRun(t *testing.T) {
	cfg := testConfig(t)
	cfg.DryRun = true
	doc := &fakeDoc{base: "deck", slides: [][]region.Shape{testShapes()}}
	renderer := &fakeRenderer{}
	p := newTestProject(cfg, doc, &fakeClipper{})
	p.Renderer = renderer

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := filepath.Join(cfg.OutputDir, "result.png")
	if len(res.Outputs) != 1 || res.Outputs[0] != want {
		t.Fatalf("planned outputs = %v, want [%s]", res.Outputs, want)
	}
	if _, err := os.Stat(want); err == nil {
		t.Error("dry run created an output file")
	}
	if len(doc.removed) != 0 || doc.saved != 0 || renderer.calls != 0 {
		t.Error("dry run had side effects on the document or renderer")
	}
}

func TestRunOverwriteGuard(t *testing.T) {
	cfg := testConfig(t)
	cfg.NoOverwrite = true
	existing := filepath.Join(cfg.OutputDir, "result.png")
	if err := os.WriteFile(existing, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	doc := &fakeDoc{base: "deck", slides: [][]region.Shape{testShapes()}}
	p := newTestProject(cfg, doc, &fakeClipper{})

	var asked []string
	p.Confirm = func(paths []string) bool {
		asked = paths
		return false
	}

	res, err := p.Run(context.Background())
	if err != ErrAborted {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
	if len(res.Outputs) != 0 {
		t.Errorf("aborted run produced outputs: %v", res.Outputs)
	}
	if len(asked) != 1 || asked[0] != existing {
		t.Errorf("confirmation asked for %v, want [%s]", asked, existing)
	}
	if len(doc.removed) != 0 || doc.saved != 0 {
		t.Error("aborted run mutated the document")
	}
	if data, _ := os.ReadFile(existing); string(data) != "old" {
		t.Error("aborted run touched the existing file")
	}
}

func TestRunClipFailureAbortsArtifact(t *testing.T) {
	cfg := testConfig(t)
	shapes := append(testShapes(), region.Shape{
		Ref:     region.ShapeRef{Slide: 0, Ordinal: 2},
		Rect:    region.Rect{Left: 4000000, Top: 4000000, Width: 1000000, Height: 1000000},
		Outline: &cyan,
	})
	doc := &fakeDoc{base: "deck", slides: [][]region.Shape{shapes}}
	clipper := &fakeClipper{failAt: 2}

	res, err := newTestProject(cfg, doc, clipper).Run(context.Background())
	if err == nil {
		t.Fatal("expected error from failing clip")
	}
	// The first region's output survives; the loop stops at the failure.
	if len(res.Outputs) != 1 {
		t.Errorf("Outputs = %v, want the one produced before the failure", res.Outputs)
	}
}

func TestRunCancellationKeepsPartialResults(t *testing.T) {
	cfg := testConfig(t)
	shapes := append(testShapes(), region.Shape{
		Ref:     region.ShapeRef{Slide: 0, Ordinal: 2},
		Rect:    region.Rect{Left: 4000000, Top: 4000000, Width: 1000000, Height: 1000000},
		Outline: &cyan,
	})
	doc := &fakeDoc{base: "deck", slides: [][]region.Shape{shapes}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clipper := &fakeClipper{cancel: cancel} // cancels after the first clip

	res, err := newTestProject(cfg, doc, clipper).Run(ctx)
	if err != nil {
		t.Fatalf("cancellation must not be an error, got %v", err)
	}
	if len(res.Outputs) != 1 {
		t.Errorf("Outputs = %v, want exactly the pre-cancellation one", res.Outputs)
	}
	if len(res.Regions) != 2 {
		t.Errorf("Regions = %d, want 2 detected", len(res.Regions))
	}
}

func TestRunDegenerateMarginFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.MarginPt = -100 // -1270000 EMU per side, larger than the half-extent
	doc := &fakeDoc{base: "deck", slides: [][]region.Shape{testShapes()}}

	_, err := newTestProject(cfg, doc, &fakeClipper{}).Run(context.Background())
	if err == nil {
		t.Fatal("expected error for non-positive region size")
	}
}

func TestRunFallbackOrderAcrossSlides(t *testing.T) {
	cfg := testConfig(t)
	cfg.DryRun = true
	marker := func(slide, ord int, left int64) region.Shape {
		return region.Shape{
			Ref:     region.ShapeRef{Slide: slide, Ordinal: ord},
			Rect:    region.Rect{Left: left, Top: 1000000, Width: 1000000, Height: 1000000},
			Outline: &cyan,
		}
	}
	doc := &fakeDoc{base: "paper", slides: [][]region.Shape{
		{marker(0, 0, 1000000)},
		{marker(1, 0, 1000000), marker(1, 1, 4000000)},
	}}

	res, err := newTestProject(cfg, doc, &fakeClipper{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"paper_s1_1.pdf", "paper_s2_1.pdf", "paper_s2_2.pdf"}
	if len(res.Regions) != len(want) {
		t.Fatalf("got %d regions, want %d", len(res.Regions), len(want))
	}
	for i, r := range res.Regions {
		if r.Filename != want[i] {
			t.Errorf("region %d filename = %q, want %q", i, r.Filename, want[i])
		}
	}
}
