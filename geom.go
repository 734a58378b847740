package maprender

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Epsilon is the tolerance used for geometric comparisons in device space.
const Epsilon = 1e-9

// ShapeType is the geometry type of a shape.
type ShapeType int

// see ShapeType
const (
	ShapeNull ShapeType = iota
	ShapePoint
	ShapeLine
	ShapePolygon
)

func (t ShapeType) String() string {
	switch t {
	case ShapePoint:
		return "point"
	case ShapeLine:
		return "line"
	case ShapePolygon:
		return "polygon"
	}
	return "null"
}

// Shape is a feature in device (pixel) space with the y-axis pointing down. Points are stored as parts of one coordinate each, lines as one part per linestring and polygons as rings, where holes are rings inside another ring (even-odd).
type Shape struct {
	Type  ShapeType
	Parts []orb.LineString

	Class int    // resolved class index into the layer's classes
	Text  string // label text, empty for no label
}

// NewPoint returns a point shape.
func NewPoint(x, y float64) *Shape {
	return &Shape{Type: ShapePoint, Parts: []orb.LineString{{{x, y}}}}
}

// NewShape converts an orb geometry that is already in device space.
func NewShape(g orb.Geometry) *Shape {
	s := &Shape{}
	switch g := g.(type) {
	case orb.Point:
		s.Type = ShapePoint
		s.Parts = append(s.Parts, orb.LineString{g})
	case orb.MultiPoint:
		s.Type = ShapePoint
		for _, p := range g {
			s.Parts = append(s.Parts, orb.LineString{p})
		}
	case orb.LineString:
		s.Type = ShapeLine
		s.Parts = append(s.Parts, g)
	case orb.MultiLineString:
		s.Type = ShapeLine
		s.Parts = append(s.Parts, g...)
	case orb.Ring:
		s.Type = ShapePolygon
		s.Parts = append(s.Parts, orb.LineString(g))
	case orb.Polygon:
		s.Type = ShapePolygon
		for _, r := range g {
			s.Parts = append(s.Parts, orb.LineString(r))
		}
	case orb.MultiPolygon:
		s.Type = ShapePolygon
		for _, poly := range g {
			for _, r := range poly {
				s.Parts = append(s.Parts, orb.LineString(r))
			}
		}
	case orb.Bound:
		s.Type = ShapePolygon
		s.Parts = append(s.Parts, orb.LineString(g.ToRing()))
	}
	return s
}

// Empty is true if the shape has no coordinates.
func (s *Shape) Empty() bool {
	for _, part := range s.Parts {
		if 0 < len(part) {
			return false
		}
	}
	return true
}

// Bound returns the bounding box of all parts.
func (s *Shape) Bound() orb.Bound {
	first := true
	var b orb.Bound
	for _, part := range s.Parts {
		if len(part) == 0 {
			continue
		}
		if first {
			b = part.Bound()
			first = false
		} else {
			b = b.Union(part.Bound())
		}
	}
	return b
}

// Translate returns a copy of the shape moved by (dx,dy).
func (s *Shape) Translate(dx, dy float64) *Shape {
	t := &Shape{Type: s.Type, Class: s.Class, Text: s.Text, Parts: make([]orb.LineString, len(s.Parts))}
	for i, part := range s.Parts {
		t.Parts[i] = make(orb.LineString, len(part))
		for j, p := range part {
			t.Parts[i][j] = orb.Point{p[0] + dx, p[1] + dy}
		}
	}
	return t
}

// Rings returns the parts as closed rings.
func (s *Shape) Rings() []orb.Ring {
	rings := make([]orb.Ring, 0, len(s.Parts))
	for _, part := range s.Parts {
		if len(part) < 3 {
			continue
		}
		r := orb.Ring(part)
		if !r.Closed() {
			r = append(r[:len(r):len(r)], r[0])
		}
		rings = append(rings, r)
	}
	return rings
}

////////////////////////////////////////////////////////////////

// rotate rotates p around the origin by angle radians, counter-clockwise as seen on screen (y down).
func rotate(p orb.Point, angle float64) orb.Point {
	if angle == 0.0 {
		return p
	}
	sin, cos := math.Sincos(angle)
	return orb.Point{p[0]*cos + p[1]*sin, -p[0]*sin + p[1]*cos}
}

// Rotate rotates p around c by angle radians, counter-clockwise as seen on screen (y down).
func Rotate(p, c orb.Point, angle float64) orb.Point {
	q := rotate(orb.Point{p[0] - c[0], p[1] - c[1]}, angle)
	return orb.Point{q[0] + c[0], q[1] + c[1]}
}

func distance(a, b orb.Point) float64 {
	return math.Hypot(b[0]-a[0], b[1]-a[1])
}

// segmentsIntersect is true when segments ab and cd share a point.
func segmentsIntersect(a, b, c, d orb.Point) bool {
	orient := func(p, q, r orb.Point) float64 {
		return (q[0]-p[0])*(r[1]-p[1]) - (q[1]-p[1])*(r[0]-p[0])
	}
	onSegment := func(p, q, r orb.Point) bool {
		return math.Min(p[0], r[0])-Epsilon <= q[0] && q[0] <= math.Max(p[0], r[0])+Epsilon &&
			math.Min(p[1], r[1])-Epsilon <= q[1] && q[1] <= math.Max(p[1], r[1])+Epsilon
	}
	d1 := orient(c, d, a)
	d2 := orient(c, d, b)
	d3 := orient(a, b, c)
	d4 := orient(a, b, d)
	if (0.0 < d1 && d2 < 0.0 || d1 < 0.0 && 0.0 < d2) && (0.0 < d3 && d4 < 0.0 || d3 < 0.0 && 0.0 < d4) {
		return true
	}
	return math.Abs(d1) < Epsilon && onSegment(c, a, d) ||
		math.Abs(d2) < Epsilon && onSegment(c, b, d) ||
		math.Abs(d3) < Epsilon && onSegment(a, c, b) ||
		math.Abs(d4) < Epsilon && onSegment(a, d, b)
}

// ringsIntersect is true when two rings overlap: an edge crosses or one contains a vertex of the other.
func ringsIntersect(a, b orb.Ring) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	if !a.Bound().Intersects(b.Bound()) {
		return false
	}
	for i := 1; i < len(a); i++ {
		for j := 1; j < len(b); j++ {
			if segmentsIntersect(a[i-1], a[i], b[j-1], b[j]) {
				return true
			}
		}
	}
	return planar.RingContains(a, b[0]) || planar.RingContains(b, a[0])
}

// boundRing returns the closed ring of a bound.
func boundRing(b orb.Bound) orb.Ring {
	return orb.Ring{b.Min, {b.Max[0], b.Min[1]}, b.Max, {b.Min[0], b.Max[1]}, b.Min}
}

// pointAlong returns the point and direction (unit vector) at distance d along line l.
func pointAlong(l orb.LineString, d float64) (orb.Point, orb.Point, bool) {
	for i := 1; i < len(l); i++ {
		length := distance(l[i-1], l[i])
		if length == 0.0 {
			continue
		}
		if d <= length || i == len(l)-1 {
			t := d / length
			dir := orb.Point{(l[i][0] - l[i-1][0]) / length, (l[i][1] - l[i-1][1]) / length}
			return orb.Point{l[i-1][0] + t*(l[i][0]-l[i-1][0]), l[i-1][1] + t*(l[i][1]-l[i-1][1])}, dir, true
		}
		d -= length
	}
	return orb.Point{}, orb.Point{}, false
}
