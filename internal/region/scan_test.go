package region

import "testing"

var cyan = Color{0, 255, 255}

func shapeRef(n int) ShapeRef { return ShapeRef{Slide: 0, Ordinal: n} }

func TestScanMarkers(t *testing.T) {
	nearCyan := Color{10, 245, 250}
	red := Color{255, 0, 0}

	shapes := []Shape{
		{Ref: shapeRef(0), Rect: Rect{0, 0, 100, 100}, Outline: &cyan},
		{Ref: shapeRef(1), Rect: Rect{200, 0, 100, 100}, Outline: &nearCyan},
		{Ref: shapeRef(2), Rect: Rect{400, 0, 100, 100}, Outline: &red},
		{Ref: shapeRef(3), Rect: Rect{600, 0, 100, 100}}, // no stroke
	}

	markers, labels := Scan(shapes, cyan, DefaultTolerance)

	if len(markers) != 2 {
		t.Fatalf("got %d markers, want 2", len(markers))
	}
	if markers[0].Ref != shapeRef(0) || markers[1].Ref != shapeRef(1) {
		t.Errorf("markers out of enumeration order: %+v", markers)
	}
	if len(labels) != 0 {
		t.Errorf("got %d labels, want 0", len(labels))
	}
}

func TestScanLabels(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string // empty = no label expected
	}{
		{"plain", "filename=result.png", "result.png"},
		{"spaces around equals", "filename = fig1.pdf", "fig1.pdf"},
		{"space after equals", "filename= result.png", "result.png"},
		{"case insensitive keyword", "FILENAME=Plot.SVG", "Plot.SVG"},
		{"embedded in sentence", "see filename = out.pdf for details", "out.pdf"},
		{"first match wins", "filename=a.png filename=b.png", "a.png"},
		{"multiline", "title\nfilename=deep.svg", "deep.svg"},
		{"wrong extension", "filename=movie.mp4", ""},
		{"no directive", "just a caption", ""},
		{"missing equals", "filename result.png", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shapes := []Shape{{Ref: shapeRef(0), Rect: Rect{10, 20, 30, 40}, Text: tt.text}}
			_, labels := Scan(shapes, cyan, DefaultTolerance)

			if tt.want == "" {
				if len(labels) != 0 {
					t.Fatalf("got label %q, want none", labels[0].Filename)
				}
				return
			}
			if len(labels) != 1 {
				t.Fatalf("got %d labels, want 1", len(labels))
			}
			if labels[0].Filename != tt.want {
				t.Errorf("filename = %q, want %q", labels[0].Filename, tt.want)
			}
			if labels[0].Left != 10 || labels[0].Top != 20 {
				t.Errorf("label position = (%d,%d), want (10,20)", labels[0].Left, labels[0].Top)
			}
		})
	}
}

func TestScanShapeCanBeBoth(t *testing.T) {
	shapes := []Shape{{
		Ref:     shapeRef(0),
		Rect:    Rect{0, 0, 100, 100},
		Outline: &cyan,
		Text:    "filename=both.png",
	}}

	markers, labels := Scan(shapes, cyan, DefaultTolerance)
	if len(markers) != 1 || len(labels) != 1 {
		t.Errorf("got %d markers and %d labels, want 1 and 1", len(markers), len(labels))
	}
}
