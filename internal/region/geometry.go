// Package region implements the marker detection and matching engine:
// locating marker rectangles by outline color, locating filename labels by
// text pattern, pairing markers to labels by center distance, and mapping
// the resulting regions from slide EMU coordinates into rendered page
// coordinates.
package region

import (
	"fmt"
	"math"
)

// EMUPerPoint is the fixed EMU-per-point ratio used for margins.
const EMUPerPoint = 12700

// Rect is a rectangle in slide coordinates (EMU). Width and height are
// signed: a margin larger than the half-extent leaves them negative, which
// the orchestrator rejects before clipping.
type Rect struct {
	Left, Top     int64
	Width, Height int64
}

// Center returns the rectangle's center point.
func (r Rect) Center() (float64, float64) {
	return float64(r.Left) + float64(r.Width)/2, float64(r.Top) + float64(r.Height)/2
}

// Expand grows the rectangle outward by margin points on all four sides.
// Negative margins shrink it. No clamping against the slide bounds.
func (r Rect) Expand(marginPt float64) Rect {
	m := int64(marginPt * EMUPerPoint)
	return Rect{
		Left:   r.Left - m,
		Top:    r.Top - m,
		Width:  r.Width + 2*m,
		Height: r.Height + 2*m,
	}
}

// PageRect is a rectangle in rendered page coordinates (PDF points).
type PageRect struct {
	X, Y, W, H float64
}

// ToPageRect maps a slide rectangle onto a rendered page of the given size.
// Corners are transformed independently and the extent re-derived, so signed
// widths survive the mapping. No rounding happens here.
func ToPageRect(r Rect, slideW, slideH int64, pageW, pageH float64) (PageRect, error) {
	if slideW <= 0 || slideH <= 0 {
		return PageRect{}, fmt.Errorf("invalid slide size %dx%d EMU", slideW, slideH)
	}

	scaleX := pageW / float64(slideW)
	scaleY := pageH / float64(slideH)

	x0 := float64(r.Left) * scaleX
	y0 := float64(r.Top) * scaleY
	x1 := float64(r.Left+r.Width) * scaleX
	y1 := float64(r.Top+r.Height) * scaleY

	return PageRect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}, nil
}

func distance(x0, y0, x1, y1 float64) float64 {
	return math.Hypot(x1-x0, y1-y0)
}
