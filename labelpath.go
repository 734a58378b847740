package maprender

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// labelAnchor is where a label of a feature goes.
type labelAnchor struct {
	point       orb.Point
	angle       float64 // direction of the line at the point, radians
	path        orb.LineString
	featureSize float64
}

// labelAnchors returns the label points of a shape: every point of a point shape, the middle of the longest segment of a line, or a point inside a polygon.
func labelAnchors(s *Shape) []labelAnchor {
	switch s.Type {
	case ShapePoint:
		var anchors []labelAnchor
		for _, part := range s.Parts {
			for _, p := range part {
				anchors = append(anchors, labelAnchor{point: p})
			}
		}
		return anchors
	case ShapeLine:
		if a, ok := lineLabelAnchor(s); ok {
			return []labelAnchor{a}
		}
	case ShapePolygon:
		if a, ok := polygonLabelAnchor(s); ok {
			return []labelAnchor{a}
		}
	}
	return nil
}

// lineLabelAnchor returns the middle of the longest segment with its direction. The feature size is the length of the longest part, which is also the path for follow labels.
func lineLabelAnchor(s *Shape) (labelAnchor, bool) {
	a := labelAnchor{}
	best, longest := -1.0, -1.0
	for _, part := range s.Parts {
		if length := lineLength(part); longest < length {
			longest = length
			a.path = part
		}
		for i := 1; i < len(part); i++ {
			if d := distance(part[i-1], part[i]); best < d {
				best = d
				a.point = orb.Point{(part[i-1][0] + part[i][0]) / 2.0, (part[i-1][1] + part[i][1]) / 2.0}
				a.angle = angleOf(orb.Point{part[i][0] - part[i-1][0], part[i][1] - part[i-1][1]})
			}
		}
	}
	if best <= 0.0 {
		return a, false
	}
	a.featureSize = longest
	a.angle = uprightAngle(a.angle)
	return a, true
}

// uprightAngle turns angle by half a turn when text would be upside down.
func uprightAngle(angle float64) float64 {
	for angle <= -math.Pi {
		angle += 2.0 * math.Pi
	}
	for math.Pi < angle {
		angle -= 2.0 * math.Pi
	}
	if math.Pi/2.0 < angle {
		angle -= math.Pi
	} else if angle < -math.Pi/2.0 {
		angle += math.Pi
	}
	return angle
}

// polygonLabelAnchor returns the centroid of the largest ring and its holes when it lies inside the polygon, otherwise the middle of the widest horizontal span. The feature size is the width of the bounding box.
func polygonLabelAnchor(s *Shape) (labelAnchor, bool) {
	rings := s.Rings()
	if len(rings) == 0 {
		return labelAnchor{}, false
	}
	outer, area := 0, 0.0
	for i, r := range rings {
		if a := math.Abs(planar.Area(r)); area < a {
			outer, area = i, a
		}
	}
	if area == 0.0 {
		return labelAnchor{}, false
	}
	poly := orb.Polygon{rings[outer]}
	for i, r := range rings {
		if i != outer && planar.RingContains(rings[outer], r[0]) {
			poly = append(poly, r)
		}
	}

	b := s.Bound()
	a := labelAnchor{featureSize: b.Max[0] - b.Min[0]}
	if c, _ := planar.CentroidArea(poly); insideRings(rings, c) {
		a.point = c
		return a, true
	}

	// widest span of a few horizontal scanlines
	var xs []float64
	best := -1.0
	for i := 1; i < 8; i++ {
		y := b.Min[1] + float64(i)/8.0*(b.Max[1]-b.Min[1])
		xs = scanline(xs[:0], rings, y)
		for j := 0; j+1 < len(xs); j += 2 {
			if best < xs[j+1]-xs[j] {
				best = xs[j+1] - xs[j]
				a.point = orb.Point{(xs[j] + xs[j+1]) / 2.0, y}
			}
		}
	}
	return a, 0.0 < best
}

// insideRings is true when p is inside an odd number of rings.
func insideRings(rings []orb.Ring, p orb.Point) bool {
	inside := false
	for _, r := range rings {
		if planar.RingContains(r, p) {
			inside = !inside
		}
	}
	return inside
}

// followPath places the glyphs of run along line, centered on its middle and vertically centered on the line. It fails when the line is shorter than the text or bends more than maxAngle radians between consecutive glyphs. The returned rings are the glyph boxes padded by buffer.
func followPath(run *GlyphRun, line orb.LineString, maxAngle, buffer float64) (*GlyphRun, []orb.Ring, bool) {
	length := lineLength(line)
	if run.Lines != 1 || len(run.Glyphs) == 0 || length < run.Width {
		return nil, nil, false
	}
	if line[len(line)-1][0] < line[0][0] {
		// read left to right
		rev := make(orb.LineString, len(line))
		for i, p := range line {
			rev[len(line)-1-i] = p
		}
		line = rev
	}

	start := (length - run.Width) / 2.0
	dy := (run.Ascent - run.Descent) / 2.0
	placed := *run
	placed.Glyphs = make([]Glyph, len(run.Glyphs))
	rings := make([]orb.Ring, 0, len(run.Glyphs))
	prev := 0.0
	for i, g := range run.Glyphs {
		half := g.Advance / 2.0
		p, dir, ok := pointAlong(line, start+g.X+half)
		if !ok {
			return nil, nil, false
		}
		angle := angleOf(dir)
		if 0 < i {
			diff := math.Abs(math.Remainder(angle-prev, 2.0*math.Pi))
			if maxAngle < diff {
				return nil, nil, false
			}
		}
		prev = angle

		o := rotate(orb.Point{-half, dy + g.Y}, angle)
		origin := orb.Point{p[0] + o[0], p[1] + o[1]}
		placed.Glyphs[i] = Glyph{ID: g.ID, X: origin[0], Y: origin[1], Angle: angle, Advance: g.Advance}

		box := orb.Bound{
			Min: orb.Point{-buffer, -run.Ascent - buffer},
			Max: orb.Point{g.Advance + buffer, run.Descent + buffer},
		}
		ring := boundRing(box)
		for j, q := range ring {
			q = rotate(q, angle)
			ring[j] = orb.Point{q[0] + origin[0], q[1] + origin[1]}
		}
		rings = append(rings, ring)
	}
	return &placed, rings, true
}
