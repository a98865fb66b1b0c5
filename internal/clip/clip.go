// Package clip produces per-region output files from a rendered PDF. The
// output extension selects the format: .png rasterizes through MuPDF at the
// configured DPI, .svg crops the MuPDF vector export, anything else becomes
// a single-page PDF with the region as its crop box.
package clip

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/slideclip/internal/region"
)

// Clipper cuts one region out of a rendered page. DPI only affects raster
// output. Rounding of the page-unit rectangle is the clipper's business,
// not the converter's.
type Clipper interface {
	PageSize(page int) (w, h float64, err error)
	Clip(ctx context.Context, page int, r region.PageRect, outPath string, dpi int) error
	Close() error
}

// FitzClipper implements Clipper on a MuPDF document.
type FitzClipper struct {
	doc  *fitz.Document
	path string
	dims []types.Dim

	// MaxEdge caps the longer raster edge in pixels; 0 disables the cap.
	MaxEdge int
}

// New opens the rendered PDF for clipping.
func New(pdfPath string) (*FitzClipper, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening rendered PDF %s: %w", pdfPath, err)
	}
	c := &FitzClipper{doc: doc, path: pdfPath}
	// Media box sizes with their fractional points intact; MuPDF's Bound
	// rounds to whole pixels.
	if dims, err := api.PageDimsFile(pdfPath); err == nil {
		c.dims = dims
	}
	return c, nil
}

// PageSize returns the page's native size in PDF points.
func (c *FitzClipper) PageSize(page int) (float64, float64, error) {
	if page >= 0 && page < len(c.dims) {
		return c.dims[page].Width, c.dims[page].Height, nil
	}
	bound, err := c.doc.Bound(page)
	if err != nil {
		return 0, 0, err
	}
	return float64(bound.Dx()), float64(bound.Dy()), nil
}

func (c *FitzClipper) Clip(ctx context.Context, page int, r region.PageRect, outPath string, dpi int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(outPath)) {
	case ".png":
		return c.clipPNG(page, r, outPath, dpi)
	case ".svg":
		return c.clipSVG(page, r, outPath)
	default:
		return c.clipPDF(page, r, outPath)
	}
}

func (c *FitzClipper) Close() error {
	return c.doc.Close()
}

// clipPNG rasterizes the whole page at the requested DPI and crops the
// region out of the pixmap.
func (c *FitzClipper) clipPNG(page int, r region.PageRect, outPath string, dpi int) error {
	img, err := c.doc.ImageDPI(page, float64(dpi))
	if err != nil {
		return fmt.Errorf("rasterizing page %d: %w", page+1, err)
	}

	// Page points to pixels at the render DPI.
	scale := float64(dpi) / 72
	crop := image.Rect(
		int(r.X*scale),
		int(r.Y*scale),
		int((r.X+r.W)*scale+0.5),
		int((r.Y+r.H)*scale+0.5),
	).Intersect(img.Bounds())
	if crop.Empty() {
		return fmt.Errorf("region lies outside page %d", page+1)
	}

	var out image.Image = img.SubImage(crop)
	if c.MaxEdge > 0 && (crop.Dx() > c.MaxEdge || crop.Dy() > c.MaxEdge) {
		out = downscale(img, crop, c.MaxEdge)
	}

	f, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if err := png.Encode(f, out); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", outPath, err)
	}
	return f.Close()
}

func downscale(src *image.RGBA, crop image.Rectangle, maxEdge int) image.Image {
	w, h := crop.Dx(), crop.Dy()
	if w >= h {
		h = h * maxEdge / w
		w = maxEdge
	} else {
		w = w * maxEdge / h
		h = maxEdge
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, xdraw.Src, nil)
	return dst
}

// clipSVG takes the MuPDF vector export of the page and narrows its root
// viewport to the region. MuPDF emits the viewBox in page points, the same
// unit the region rectangle is in.
func (c *FitzClipper) clipSVG(page int, r region.PageRect, outPath string) error {
	svg, err := c.doc.SVG(page)
	if err != nil {
		return fmt.Errorf("exporting page %d as SVG: %w", page+1, err)
	}

	clipped, err := cropSVGViewport(svg, r)
	if err != nil {
		return fmt.Errorf("page %d: %w", page+1, err)
	}

	return os.WriteFile(outPath, []byte(clipped), 0644)
}

// clipPDF keeps only the target page and sets its crop box to the region.
// pdfcpu boxes are in PDF user space, origin bottom-left.
func (c *FitzClipper) clipPDF(page int, r region.PageRect, outPath string) error {
	_, pageH, err := c.PageSize(page)
	if err != nil {
		return err
	}

	pages := []string{strconv.Itoa(page + 1)}
	tmp := outPath + ".page~"
	if err := api.TrimFile(c.path, tmp, pages, nil); err != nil {
		return fmt.Errorf("extracting page %d: %w", page+1, err)
	}
	defer os.Remove(tmp)

	spec := fmt.Sprintf("[%.4f %.4f %.4f %.4f]", r.X, pageH-(r.Y+r.H), r.X+r.W, pageH-r.Y)
	box, err := model.ParseBox(spec, types.POINTS)
	if err != nil {
		return fmt.Errorf("crop box %s: %w", spec, err)
	}

	if err := api.CropFile(tmp, outPath, nil, box, nil); err != nil {
		return fmt.Errorf("cropping page %d: %w", page+1, err)
	}
	return nil
}
