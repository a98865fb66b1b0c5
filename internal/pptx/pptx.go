// Package pptx is the document model provider: it reads a PPTX archive into
// memory, exposes slide geometry, outline colors and text to the scanner,
// and can save a copy with selected shapes removed.
//
// Parsing stays at the level the scanner needs: top-level shape tree
// children with their transform, outline color and text. Shape removal works
// on the raw slide XML by splicing out the recorded byte range of each
// shape, so the saved copy is byte-identical outside the removed elements.
package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ivlev/slideclip/internal/region"
)

type part struct {
	name string
	data []byte
}

type shapeEntry struct {
	rect       region.Rect
	outline    *region.Color
	text       string
	start, end int64 // byte range of the element within the slide part
	removed    bool
}

type slidePart struct {
	partIdx int
	shapes  []shapeEntry
}

// Document is an in-memory PPTX. Each pipeline run owns its own instance;
// mutation never touches the file it was opened from.
type Document struct {
	path           string
	baseName       string
	parts          []part
	slides         []slidePart
	slideW, slideH int64
}

// Open reads a PPTX file fully into memory and parses the slide shape trees.
func Open(path string) (*Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer zr.Close()

	doc := &Document{
		path:     path,
		baseName: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	slideIdx := make(map[string]int)
	var slideNames []string

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Name, err)
		}
		doc.parts = append(doc.parts, part{name: f.Name, data: data})

		if isSlidePart(f.Name) {
			slideIdx[f.Name] = len(doc.parts) - 1
			slideNames = append(slideNames, f.Name)
		}
	}

	if err := doc.parsePresentation(); err != nil {
		return nil, err
	}

	// Slide order follows the slideN.xml numbering.
	sort.Slice(slideNames, func(i, j int) bool {
		return slideNumber(slideNames[i]) < slideNumber(slideNames[j])
	})

	for _, name := range slideNames {
		idx := slideIdx[name]
		shapes, err := parseSlideShapes(doc.parts[idx].data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		doc.slides = append(doc.slides, slidePart{partIdx: idx, shapes: shapes})
	}

	if len(doc.slides) == 0 {
		return nil, fmt.Errorf("%s: no slides found", path)
	}

	return doc, nil
}

func isSlidePart(name string) bool {
	return strings.HasPrefix(name, "ppt/slides/slide") &&
		strings.HasSuffix(name, ".xml") &&
		!strings.Contains(name, "_rels")
}

func slideNumber(name string) int {
	s := strings.TrimPrefix(name, "ppt/slides/slide")
	s = strings.TrimSuffix(s, ".xml")
	n, _ := strconv.Atoi(s)
	return n
}

func (d *Document) parsePresentation() error {
	for _, p := range d.parts {
		if p.name != "ppt/presentation.xml" {
			continue
		}
		var pres presentationXML
		if err := xml.Unmarshal(p.data, &pres); err != nil {
			return fmt.Errorf("parsing presentation.xml: %w", err)
		}
		if pres.SldSz == nil || pres.SldSz.Cx <= 0 || pres.SldSz.Cy <= 0 {
			return fmt.Errorf("presentation.xml: missing or invalid slide size")
		}
		d.slideW, d.slideH = pres.SldSz.Cx, pres.SldSz.Cy
		return nil
	}
	return fmt.Errorf("%s: missing ppt/presentation.xml", d.path)
}

// shapeElements are the direct spTree children treated as shapes.
var shapeElements = map[string]bool{
	"sp":           true,
	"pic":          true,
	"cxnSp":        true,
	"graphicFrame": true,
	"grpSp":        true,
}

// parseSlideShapes walks the slide XML once, recording the byte range of
// every top-level shape and decoding its fragment for geometry, outline
// color and text.
func parseSlideShapes(data []byte) ([]shapeEntry, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var shapes []shapeEntry
	treeDepth := 0
	inTree := false

	for {
		start := dec.InputOffset()
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if !inTree {
				if t.Name.Local == "spTree" {
					inTree = true
					treeDepth = 1
				}
				continue
			}
			if shapeElements[t.Name.Local] {
				if err := dec.Skip(); err != nil {
					return nil, err
				}
				end := dec.InputOffset()
				entry, err := decodeShape(data[start:end])
				if err != nil {
					return nil, err
				}
				entry.start, entry.end = start, end
				shapes = append(shapes, entry)
				continue
			}
			treeDepth++
		case xml.EndElement:
			if inTree {
				treeDepth--
				if treeDepth == 0 {
					inTree = false
				}
			}
		}
	}

	return shapes, nil
}

func decodeShape(fragment []byte) (shapeEntry, error) {
	var sx shapeFragmentXML
	if err := xml.Unmarshal(fragment, &sx); err != nil {
		return shapeEntry{}, err
	}

	var entry shapeEntry

	xfrm := sx.Xfrm
	props := sx.SpPr
	if props == nil {
		props = sx.GrpSpPr
	}
	if props != nil && props.Xfrm != nil {
		xfrm = props.Xfrm
	}
	if xfrm != nil && xfrm.Off != nil && xfrm.Ext != nil {
		entry.rect = region.Rect{
			Left:   xfrm.Off.X,
			Top:    xfrm.Off.Y,
			Width:  xfrm.Ext.Cx,
			Height: xfrm.Ext.Cy,
		}
	}

	if props != nil {
		entry.outline = outlineColor(props.Ln)
	}

	if sx.TxBody != nil {
		entry.text = bodyText(sx.TxBody)
	}

	return entry, nil
}

// outlineColor resolves an explicit srgb outline. No line, noFill lines and
// theme-relative colors all count as "no observable outline".
func outlineColor(ln *lnXML) *region.Color {
	if ln == nil || ln.NoFill != nil || ln.SolidFill == nil || ln.SolidFill.Srgb == nil {
		return nil
	}
	v, err := strconv.ParseUint(ln.SolidFill.Srgb.Val, 16, 32)
	if err != nil || len(ln.SolidFill.Srgb.Val) != 6 {
		return nil
	}
	return &region.Color{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}
}

// bodyText joins paragraphs with newlines, runs and fields in order.
func bodyText(body *txBodyXML) string {
	var b strings.Builder
	for i, p := range body.P {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, r := range p.R {
			b.WriteString(r.T)
		}
		for _, f := range p.Fld {
			b.WriteString(f.T)
		}
	}
	return b.String()
}

// SlideCount returns the number of slides in document order.
func (d *Document) SlideCount() int {
	return len(d.slides)
}

// SlideSize returns the nominal slide size in EMU.
func (d *Document) SlideSize() (int64, int64) {
	return d.slideW, d.slideH
}

// BaseName returns the input filename without directory or extension; it
// seeds generated fallback filenames.
func (d *Document) BaseName() string {
	return d.baseName
}

// Shapes returns the scanner's view of one slide, in shape tree order.
func (d *Document) Shapes(slide int) []region.Shape {
	if slide < 0 || slide >= len(d.slides) {
		return nil
	}
	out := make([]region.Shape, 0, len(d.slides[slide].shapes))
	for i, sh := range d.slides[slide].shapes {
		out = append(out, region.Shape{
			Ref:     region.ShapeRef{Slide: slide, Ordinal: i},
			Rect:    sh.rect,
			Outline: sh.outline,
			Text:    sh.text,
		})
	}
	return out
}

// Remove marks shapes for removal. The in-memory document only; takes
// effect when the document is saved.
func (d *Document) Remove(refs []region.ShapeRef) {
	for _, ref := range refs {
		if ref.Slide < 0 || ref.Slide >= len(d.slides) {
			continue
		}
		shapes := d.slides[ref.Slide].shapes
		if ref.Ordinal < 0 || ref.Ordinal >= len(shapes) {
			continue
		}
		shapes[ref.Ordinal].removed = true
	}
}

// SaveTo writes the document, minus removed shapes, as a new PPTX file.
// The original archive layout is preserved part for part.
func (d *Document) SaveTo(path string) error {
	modified := make(map[int][]byte)
	for _, sl := range d.slides {
		if spliced, changed := spliceRemoved(d.parts[sl.partIdx].data, sl.shapes); changed {
			modified[sl.partIdx] = spliced
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	zw := zip.NewWriter(f)
	for i, p := range d.parts {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: p.name, Method: zip.Deflate})
		if err != nil {
			f.Close()
			return err
		}
		data := p.data
		if m, ok := modified[i]; ok {
			data = m
		}
		if _, err := w.Write(data); err != nil {
			f.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// spliceRemoved cuts the byte ranges of removed shapes out of a slide part.
// Ranges never overlap (they are siblings), so back-to-front splicing keeps
// the remaining offsets valid.
func spliceRemoved(data []byte, shapes []shapeEntry) ([]byte, bool) {
	changed := false
	out := data
	for i := len(shapes) - 1; i >= 0; i-- {
		if !shapes[i].removed {
			continue
		}
		if !changed {
			out = append([]byte(nil), data...)
			changed = true
		}
		out = append(out[:shapes[i].start], out[shapes[i].end:]...)
	}
	return out, changed
}
