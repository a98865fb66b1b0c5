package clip

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ivlev/slideclip/internal/region"
)

var (
	svgRootPattern     = regexp.MustCompile(`(?s)<svg\b[^>]*>`)
	widthAttrPattern   = regexp.MustCompile(`\swidth="[^"]*"`)
	heightAttrPattern  = regexp.MustCompile(`\sheight="[^"]*"`)
	viewBoxAttrPattern = regexp.MustCompile(`\sviewBox="[^"]*"`)
)

// cropSVGViewport rewrites the root <svg> element so that its viewBox covers
// only the region. The document body is untouched; everything outside the
// viewBox is simply not rendered.
func cropSVGViewport(svg string, r region.PageRect) (string, error) {
	loc := svgRootPattern.FindStringIndex(svg)
	if loc == nil {
		return "", fmt.Errorf("no <svg> root element in export")
	}

	root := svg[loc[0]:loc[1]]
	root = widthAttrPattern.ReplaceAllString(root, "")
	root = heightAttrPattern.ReplaceAllString(root, "")
	root = viewBoxAttrPattern.ReplaceAllString(root, "")

	attrs := fmt.Sprintf(` width="%.4fpt" height="%.4fpt" viewBox="%.4f %.4f %.4f %.4f"`,
		r.W, r.H, r.X, r.Y, r.W, r.H)
	root = strings.Replace(root, "<svg", "<svg"+attrs, 1)

	return svg[:loc[0]] + root + svg[loc[1]:], nil
}
