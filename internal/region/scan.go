package region

import "regexp"

// ShapeRef identifies a shape inside the source document without holding a
// reference into the parsed tree. The document model resolves it back for
// removal.
type ShapeRef struct {
	Slide   int
	Ordinal int
}

// Shape is the scanner's read-only view of one slide shape, as produced by
// the document model provider.
type Shape struct {
	Ref     ShapeRef
	Rect    Rect
	Outline *Color // nil when the shape has no stroke
	Text    string // empty when the shape has no text body
}

// MarkerCandidate is a shape whose outline matched the target color.
type MarkerCandidate struct {
	Rect Rect
	Ref  ShapeRef
}

// LabelCandidate is a shape whose text carried a filename directive. Only
// the top-left position matters for matching.
type LabelCandidate struct {
	Filename string
	Left     int64
	Top      int64
	Ref      ShapeRef
}

// filenamePattern recognizes "filename = token.ext" directives. Only the
// first match per shape is used and the captured token must be free of
// whitespace.
var filenamePattern = regexp.MustCompile(`(?i)filename\s*=\s*(\S+\.(?:pdf|png|svg))`)

// Scan walks a slide's shapes and collects marker and label candidates in
// enumeration order. A shape may qualify as both.
func Scan(shapes []Shape, target Color, tolerance int) ([]MarkerCandidate, []LabelCandidate) {
	var markers []MarkerCandidate
	var labels []LabelCandidate

	for _, sh := range shapes {
		if Matches(sh.Outline, target, tolerance) {
			markers = append(markers, MarkerCandidate{Rect: sh.Rect, Ref: sh.Ref})
		}
		if sh.Text != "" {
			if m := filenamePattern.FindStringSubmatch(sh.Text); m != nil {
				labels = append(labels, LabelCandidate{
					Filename: m[1],
					Left:     sh.Rect.Left,
					Top:      sh.Rect.Top,
					Ref:      sh.Ref,
				})
			}
		}
	}

	return markers, labels
}
