package maprender

import (
	"math"

	"github.com/paulmach/orb"
)

// OffsetPolyline returns line moved perpendicular by d, positive to the right of the drawing direction (y down). Corners are mitered; very sharp corners are beveled at twice the offset.
func OffsetPolyline(line orb.LineString, d float64) orb.LineString {
	// drop repeated points so every segment has a direction
	pts := make(orb.LineString, 0, len(line))
	for _, p := range line {
		if len(pts) == 0 || Epsilon < distance(pts[len(pts)-1], p) {
			pts = append(pts, p)
		}
	}
	if len(pts) < 2 || d == 0.0 {
		return append(orb.LineString(nil), pts...)
	}

	normal := func(a, b orb.Point) orb.Point {
		l := distance(a, b)
		return orb.Point{-(b[1] - a[1]) / l, (b[0] - a[0]) / l}
	}

	out := make(orb.LineString, 0, len(pts))
	n0 := normal(pts[0], pts[1])
	out = append(out, orb.Point{pts[0][0] + d*n0[0], pts[0][1] + d*n0[1]})
	for i := 1; i < len(pts)-1; i++ {
		n1 := normal(pts[i], pts[i+1])
		m := orb.Point{n0[0] + n1[0], n0[1] + n1[1]}
		cos := n0[0]*n1[0] + n0[1]*n1[1]
		if 1.0+cos < 0.25 {
			// near reversal: bevel
			out = append(out, orb.Point{pts[i][0] + d*n0[0], pts[i][1] + d*n0[1]})
			out = append(out, orb.Point{pts[i][0] + d*n1[0], pts[i][1] + d*n1[1]})
		} else {
			f := d / (1.0 + cos)
			out = append(out, orb.Point{pts[i][0] + f*m[0], pts[i][1] + f*m[1]})
		}
		n0 = n1
	}
	last := pts[len(pts)-1]
	out = append(out, orb.Point{last[0] + d*n0[0], last[1] + d*n0[1]})
	return out
}

// offsetShape returns the shape offset perpendicular by d, or on both sides for double-sided offsets. Polygon rings stay closed.
func offsetShape(s *Shape, d float64, double bool) *Shape {
	t := &Shape{Type: s.Type, Class: s.Class, Text: s.Text}
	offset := func(part orb.LineString, d float64) orb.LineString {
		if s.Type != ShapePolygon || len(part) < 3 {
			return OffsetPolyline(part, d)
		}
		if part[0] != part[len(part)-1] {
			part = append(part[:len(part):len(part)], part[0])
		}
		// wrap around so the seam is mitered like any other corner
		wrapped := OffsetPolyline(append(part[:len(part):len(part)], part[1]), d)
		if len(wrapped) < 3 {
			return wrapped
		}
		ring := append(orb.LineString{}, wrapped[1:len(wrapped)-1]...)
		return append(ring, ring[0])
	}
	for _, part := range s.Parts {
		t.Parts = append(t.Parts, offset(part, d))
		if double {
			t.Parts = append(t.Parts, offset(part, -d))
		}
	}
	return t
}

// lineLength returns the length of a polyline.
func lineLength(l orb.LineString) float64 {
	length := 0.0
	for i := 1; i < len(l); i++ {
		length += distance(l[i-1], l[i])
	}
	return length
}

// angleOf returns the screen angle of direction dir, counter-clockwise in radians.
func angleOf(dir orb.Point) float64 {
	return math.Atan2(-dir[1], dir[0])
}
