package region

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is an opaque RGB triple as read from a shape outline.
type Color struct {
	R, G, B uint8
}

// DefaultTolerance is the per-channel tolerance used when matching
// marker outlines against the configured target color.
const DefaultTolerance = 30

// colorNames maps the color names accepted on the command line.
var colorNames = map[string]Color{
	"cyan":    {0, 255, 255},
	"red":     {255, 0, 0},
	"green":   {0, 255, 0},
	"blue":    {0, 0, 255},
	"magenta": {255, 0, 255},
	"yellow":  {255, 255, 0},
	"orange":  {255, 165, 0},
	"purple":  {128, 0, 128},
	"pink":    {255, 192, 203},
	"lime":    {0, 255, 0},
	"black":   {0, 0, 0},
	"white":   {255, 255, 255},
}

// ParseColor converts a color spec to a Color. Accepted forms are a color
// name ("cyan") or HEX ("#00FFFF", "#0FF").
func ParseColor(spec string) (Color, error) {
	s := strings.ToLower(strings.TrimSpace(spec))

	if c, ok := colorNames[s]; ok {
		return c, nil
	}

	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		switch len(hex) {
		case 6:
			if c, err := parseHex(hex[0:2], hex[2:4], hex[4:6]); err == nil {
				return c, nil
			}
		case 3:
			if c, err := parseHex(strings.Repeat(hex[0:1], 2), strings.Repeat(hex[1:2], 2), strings.Repeat(hex[2:3], 2)); err == nil {
				return c, nil
			}
		}
	}

	names := make([]string, 0, len(colorNames))
	for name := range colorNames {
		names = append(names, name)
	}
	return Color{}, fmt.Errorf("invalid color %q: use a color name (%s) or HEX (#RRGGBB)", spec, strings.Join(names, ", "))
}

func parseHex(r, g, b string) (Color, error) {
	rv, err := strconv.ParseUint(r, 16, 8)
	if err != nil {
		return Color{}, err
	}
	gv, err := strconv.ParseUint(g, 16, 8)
	if err != nil {
		return Color{}, err
	}
	bv, err := strconv.ParseUint(b, 16, 8)
	if err != nil {
		return Color{}, err
	}
	return Color{uint8(rv), uint8(gv), uint8(bv)}, nil
}

// Matches reports whether observed is within tolerance of target on every
// channel independently. A shape without an outline (observed == nil) never
// matches.
func Matches(observed *Color, target Color, tolerance int) bool {
	if observed == nil {
		return false
	}
	return absDiff(observed.R, target.R) <= tolerance &&
		absDiff(observed.G, target.G) <= tolerance &&
		absDiff(observed.B, target.B) <= tolerance
}

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		d = -d
	}
	return d
}
