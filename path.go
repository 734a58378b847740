package maprender

import (
	"math"

	"github.com/paulmach/orb"
)

// PathOp is a path command.
type PathOp int

// see PathOp
const (
	MoveToOp PathOp = iota
	LineToOp
	QuadToOp
	CubeToOp
	CloseOp
)

// Segment is one path command with its points; MoveTo and LineTo use P[0], QuadTo uses P[0:2] and CubeTo P[0:3].
type Segment struct {
	Op PathOp
	P  [3]orb.Point
}

// Path is an outline in device space made of move, line, quadratic, cubic and close commands. It is how backends receive symbol and glyph outlines.
type Path struct {
	Segs []Segment
}

// MoveTo starts a new subpath.
func (p *Path) MoveTo(x, y float64) {
	p.Segs = append(p.Segs, Segment{Op: MoveToOp, P: [3]orb.Point{{x, y}}})
}

// LineTo adds a straight line.
func (p *Path) LineTo(x, y float64) {
	p.Segs = append(p.Segs, Segment{Op: LineToOp, P: [3]orb.Point{{x, y}}})
}

// QuadTo adds a quadratic Bézier.
func (p *Path) QuadTo(cx, cy, x, y float64) {
	p.Segs = append(p.Segs, Segment{Op: QuadToOp, P: [3]orb.Point{{cx, cy}, {x, y}}})
}

// CubeTo adds a cubic Bézier.
func (p *Path) CubeTo(cx1, cy1, cx2, cy2, x, y float64) {
	p.Segs = append(p.Segs, Segment{Op: CubeToOp, P: [3]orb.Point{{cx1, cy1}, {cx2, cy2}, {x, y}}})
}

// Close closes the current subpath.
func (p *Path) Close() {
	p.Segs = append(p.Segs, Segment{Op: CloseOp})
}

// Empty is true when the path has no commands.
func (p *Path) Empty() bool {
	return p == nil || len(p.Segs) == 0
}

// Append appends the commands of q.
func (p *Path) Append(q *Path) {
	if q != nil {
		p.Segs = append(p.Segs, q.Segs...)
	}
}

// Transform returns a copy of p where each point is mapped by f.
func (p *Path) Transform(f func(orb.Point) orb.Point) *Path {
	q := &Path{Segs: make([]Segment, len(p.Segs))}
	for i, seg := range p.Segs {
		q.Segs[i].Op = seg.Op
		for j := 0; j < seg.Op.numPoints(); j++ {
			q.Segs[i].P[j] = f(seg.P[j])
		}
	}
	return q
}

// Place rotates p by angle around the origin and translates it to (x,y).
func (p *Path) Place(x, y, angle float64) *Path {
	return p.Transform(func(q orb.Point) orb.Point {
		q = rotate(q, angle)
		return orb.Point{q[0] + x, q[1] + y}
	})
}

// Bound returns the bounding box of all points including control points.
func (p *Path) Bound() orb.Bound {
	b := orb.Bound{Min: orb.Point{math.Inf(1), math.Inf(1)}, Max: orb.Point{math.Inf(-1), math.Inf(-1)}}
	for _, seg := range p.Segs {
		for j := 0; j < seg.Op.numPoints(); j++ {
			b = b.Extend(seg.P[j])
		}
	}
	if math.IsInf(b.Min[0], 1) {
		return orb.Bound{}
	}
	return b
}

// Flatten returns the subpaths as polylines, approximating curves with straight segments.
func (p *Path) Flatten() []orb.LineString {
	var lines []orb.LineString
	var cur orb.LineString
	flush := func() {
		if 1 < len(cur) {
			lines = append(lines, cur)
		}
		cur = nil
	}
	for _, seg := range p.Segs {
		switch seg.Op {
		case MoveToOp:
			flush()
			cur = orb.LineString{seg.P[0]}
		case LineToOp:
			cur = append(cur, seg.P[0])
		case QuadToOp:
			if len(cur) == 0 {
				continue
			}
			p0 := cur[len(cur)-1]
			for i := 1; i <= 8; i++ {
				t := float64(i) / 8.0
				u := 1.0 - t
				cur = append(cur, orb.Point{
					u*u*p0[0] + 2.0*u*t*seg.P[0][0] + t*t*seg.P[1][0],
					u*u*p0[1] + 2.0*u*t*seg.P[0][1] + t*t*seg.P[1][1],
				})
			}
		case CubeToOp:
			if len(cur) == 0 {
				continue
			}
			p0 := cur[len(cur)-1]
			for i := 1; i <= 12; i++ {
				t := float64(i) / 12.0
				u := 1.0 - t
				cur = append(cur, orb.Point{
					u*u*u*p0[0] + 3.0*u*u*t*seg.P[0][0] + 3.0*u*t*t*seg.P[1][0] + t*t*t*seg.P[2][0],
					u*u*u*p0[1] + 3.0*u*u*t*seg.P[0][1] + 3.0*u*t*t*seg.P[1][1] + t*t*t*seg.P[2][1],
				})
			}
		case CloseOp:
			if 0 < len(cur) {
				cur = append(cur, cur[0])
			}
			flush()
		}
	}
	flush()
	return lines
}

func (op PathOp) numPoints() int {
	switch op {
	case MoveToOp, LineToOp:
		return 1
	case QuadToOp:
		return 2
	case CubeToOp:
		return 3
	}
	return 0
}

// PathFromShape converts the parts of a shape to a path, closing the subpaths of polygons.
func PathFromShape(s *Shape) *Path {
	p := &Path{}
	for _, part := range s.Parts {
		if len(part) == 0 {
			continue
		}
		p.MoveTo(part[0][0], part[0][1])
		for _, q := range part[1:] {
			p.LineTo(q[0], q[1])
		}
		if s.Type == ShapePolygon {
			p.Close()
		}
	}
	return p
}

// Ellipse returns an ellipse outline centered at the origin with radii rx and ry, approximated by four cubic Béziers.
func Ellipse(rx, ry float64) *Path {
	const k = 0.5522847498307936 // 4/3*(sqrt(2)-1)
	p := &Path{}
	p.MoveTo(rx, 0.0)
	p.CubeTo(rx, k*ry, k*rx, ry, 0.0, ry)
	p.CubeTo(-k*rx, ry, -rx, k*ry, -rx, 0.0)
	p.CubeTo(-rx, -k*ry, -k*rx, -ry, 0.0, -ry)
	p.CubeTo(k*rx, -ry, rx, -k*ry, rx, 0.0)
	p.Close()
	return p
}
