package region

import (
	"fmt"
	"sort"
)

// Matched is one region to extract: a marker rectangle with the filename it
// was assigned and the source shapes to strip before rendering.
type Matched struct {
	Slide    int
	Rect     Rect
	Filename string
	Sources  []ShapeRef // marker shape, plus the label shape when matched
}

// Match pairs markers to labels by greedy nearest-center matching and
// assigns generated names to leftover markers. Matched regions come first,
// then fallbacks in marker scan order. Every marker ends up in exactly one
// region; the function never fails.
//
// The greedy claim order is deliberate: pairs are sorted by center distance
// with ties kept in enumeration order (markers outer, labels inner), and a
// pair is accepted only while both sides are unclaimed. A globally optimal
// assignment would rename outputs on ambiguous layouts, so it must not be
// substituted here.
func Match(markers []MarkerCandidate, labels []LabelCandidate, slide int, baseName string) []Matched {
	type pair struct {
		dist   float64
		marker int
		label  int
	}

	var pairs []pair
	for mi, m := range markers {
		mx, my := m.Rect.Center()
		for li, l := range labels {
			d := distance(mx, my, float64(l.Left), float64(l.Top))
			pairs = append(pairs, pair{dist: d, marker: mi, label: li})
		}
	}

	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].dist < pairs[j].dist })

	var out []Matched
	usedMarker := make([]bool, len(markers))
	usedLabel := make([]bool, len(labels))

	for _, p := range pairs {
		if usedMarker[p.marker] || usedLabel[p.label] {
			continue
		}
		usedMarker[p.marker] = true
		usedLabel[p.label] = true
		out = append(out, Matched{
			Slide:    slide,
			Rect:     markers[p.marker].Rect,
			Filename: labels[p.label].Filename,
			Sources:  []ShapeRef{markers[p.marker].Ref, labels[p.label].Ref},
		})
	}

	// Leftover markers get generated names, numbered in scan order.
	k := 0
	for mi, m := range markers {
		if usedMarker[mi] {
			continue
		}
		k++
		out = append(out, Matched{
			Slide:    slide,
			Rect:     m.Rect,
			Filename: fmt.Sprintf("%s_s%d_%d.pdf", baseName, slide+1, k),
			Sources:  []ShapeRef{m.Ref},
		})
	}

	return out
}
