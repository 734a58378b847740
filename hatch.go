package maprender

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// HatchLines returns the hatch lines filling the rings of s, spaced spacing apart and at angle radians (counter-clockwise, zero is horizontal). Lines are clipped to the polygon with the even-odd rule.
func HatchLines(s *Shape, spacing, angle float64) *Shape {
	hatch := &Shape{Type: ShapeLine, Class: s.Class}
	if spacing <= 0.0 {
		return hatch
	} else if spacing < 1.0 {
		spacing = 1.0 // at most one line per pixel
	}

	// rotate the polygon so the hatch lines become horizontal
	rings := s.Rings()
	for i, r := range rings {
		rot := make(orb.Ring, len(r))
		for j, p := range r {
			rot[j] = rotate(p, -angle)
		}
		rings[i] = rot
	}
	if len(rings) == 0 {
		return hatch
	}
	b := rings[0].Bound()
	for _, r := range rings[1:] {
		b = b.Union(r.Bound())
	}

	var xs []float64
	for y := math.Floor(b.Min[1]/spacing) * spacing; y <= b.Max[1]; y += spacing {
		xs = scanline(xs[:0], rings, y)
		for j := 0; j+1 < len(xs); j += 2 {
			if xs[j+1]-xs[j] < Epsilon {
				continue
			}
			a := rotate(orb.Point{xs[j], y}, angle)
			c := rotate(orb.Point{xs[j+1], y}, angle)
			hatch.Parts = append(hatch.Parts, orb.LineString{a, c})
		}
	}
	return hatch
}

// scanline appends the sorted x-coordinates where the horizontal line at y crosses the rings, so that pairs are the spans inside with the even-odd rule.
func scanline(xs []float64, rings []orb.Ring, y float64) []float64 {
	for _, r := range rings {
		for j := 1; j < len(r); j++ {
			p, q := r[j-1], r[j]
			// half-open rule counts vertices on the scanline once
			if (p[1] <= y) == (q[1] <= y) {
				continue
			}
			t := (y - p[1]) / (q[1] - p[1])
			xs = append(xs, p[0]+t*(q[0]-p[0]))
		}
	}
	sort.Float64s(xs)
	return xs
}
