package maprender

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

type collisionKind int

const (
	collisionLabel collisionKind = iota
	collisionMarker
	collisionObstacle
)

// collisionItem is an occupied area of the image.
type collisionItem struct {
	kind  collisionKind
	ring  orb.Ring
	bound orb.Bound
	owner int // id of the label member that placed it, -1 for none
}

// Bounds implements rtreego.Spatial.
func (it *collisionItem) Bounds() rtreego.Rect {
	return toRect(it.bound)
}

func toRect(b orb.Bound) rtreego.Rect {
	point := rtreego.Point{b.Min[0], b.Min[1]}
	lengths := []float64{
		math.Max(b.Max[0]-b.Min[0], Epsilon),
		math.Max(b.Max[1]-b.Min[1], Epsilon),
	}
	rect, _ := rtreego.NewRect(point, lengths)
	return rect
}

// collisionIndex is a spatial index of the areas taken by accepted labels, markers and obstacles.
type collisionIndex struct {
	tree    *rtreego.Rtree
	n       int
	anchors map[string][]orb.Point // anchors of accepted labels by text
}

func newCollisionIndex() *collisionIndex {
	return &collisionIndex{
		tree:    rtreego.NewTree(2, 25, 50),
		anchors: map[string][]orb.Point{},
	}
}

func (idx *collisionIndex) add(it *collisionItem) {
	if len(it.ring) == 0 {
		return
	}
	it.bound = it.ring.Bound()
	idx.tree.Insert(it)
	idx.n++
}

// intersects returns the first item whose area overlaps ring, ignoring markers placed by owner.
func (idx *collisionIndex) intersects(ring orb.Ring, owner int) *collisionItem {
	if idx.n == 0 || len(ring) == 0 {
		return nil
	}
	for _, s := range idx.tree.SearchIntersect(toRect(ring.Bound())) {
		it := s.(*collisionItem)
		if it.kind == collisionMarker && it.owner == owner && 0 <= owner {
			continue
		}
		if ringsIntersect(ring, it.ring) {
			return it
		}
	}
	return nil
}

// near is true when an accepted label with the same text has its anchor within dist of p.
func (idx *collisionIndex) near(p orb.Point, text string, dist float64) bool {
	for _, q := range idx.anchors[text] {
		if distance(p, q) <= dist {
			return true
		}
	}
	return false
}

func (idx *collisionIndex) addAnchor(p orb.Point, text string) {
	idx.anchors[text] = append(idx.anchors[text], p)
}

// insideEdge is true when all vertices of the rings lie at least buffer inside a w×h image.
func insideEdge(rings []orb.Ring, w, h int, buffer float64) bool {
	for _, r := range rings {
		for _, p := range r {
			if p[0] < buffer || float64(w)-buffer < p[0] || p[1] < buffer || float64(h)-buffer < p[1] {
				return false
			}
		}
	}
	return true
}
