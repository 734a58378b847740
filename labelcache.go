package maprender

import (
	"image/color"
	"log/slog"
	"math"

	"github.com/paulmach/orb"
)

// markerSlop is the extra distance between a marker and labels placed at its side.
const markerSlop = 2.0

type labelState int

const (
	labelPending labelState = iota
	labelAccepted
	labelRejected
)

// labelMember is a deferred label.
type labelMember struct {
	id          int
	layer       string
	label       Label
	text        string
	shapeType   ShapeType
	anchor      labelAnchor
	scalefactor float64

	// marker drawn with or next to the label
	markerW, markerH float64
	drawMarkers      bool

	state    labelState
	reason   string
	position Position
	run      *GlyphRun
	rings    []orb.Ring // bounding polygons including the buffer
	box      orb.Ring   // billboard, nil for follow labels
	marker   orb.Ring   // area of the marker drawn with the label
}

// LabelResult is the outcome of placing one label.
type LabelResult struct {
	Layer    string
	Text     string
	Priority int
	Point    orb.Point
	Accepted bool
	Reason   string // why the label was rejected
	Position Position
	Bound    orb.Bound // bounding box of the placed label
}

// LabelCache collects labels during the layer pass and places them afterwards by priority, avoiding collisions with each other, markers, obstacles and the image edges. It belongs to a single render.
type LabelCache struct {
	Width, Height int
	EdgeBuffer    float64 // labels keep at least this distance from the image edges

	slots  [MaxPriority][]*labelMember
	placed []*labelMember
	index  *collisionIndex
	nextID int
	done   bool
}

// NewLabelCache returns an empty label cache for a w×h image.
func NewLabelCache(w, h int, edgeBuffer float64) *LabelCache {
	return &LabelCache{
		Width:      w,
		Height:     h,
		EdgeBuffer: edgeBuffer,
		index:      newCollisionIndex(),
	}
}

// AddObstacle reserves an area that no label may overlap.
func (lc *LabelCache) AddObstacle(b orb.Bound) {
	lc.index.add(&collisionItem{kind: collisionObstacle, ring: boundRing(b), owner: -1})
}

// Add queues labels for shape s with text. Point shapes get a label per point. The marker size (markerW, markerH) moves labels away from the marker; when drawMarkers is set the label's marker styles are drawn only if the label is placed, otherwise the marker was drawn already and its area is reserved now.
func (lc *LabelCache) Add(layer string, label *Label, text string, s *Shape, scalefactor, markerW, markerH float64, drawMarkers bool) error {
	if text == "" {
		return nil
	}
	text, err := label.Text(text)
	if err != nil {
		return err
	}
	for _, a := range labelAnchors(s) {
		if 0.0 < label.MinFeatureSize && s.Type != ShapePoint && a.featureSize < label.MinFeatureSize*scalefactor {
			Logger().Debug("label feature too small", slog.String("layer", layer), slog.String("text", text))
			continue
		}
		m := &labelMember{
			id:          lc.nextID,
			layer:       layer,
			label:       *label,
			text:        text,
			shapeType:   s.Type,
			anchor:      a,
			scalefactor: scalefactor,
			markerW:     markerW,
			markerH:     markerH,
			drawMarkers: drawMarkers,
		}
		m.label.clamp()
		lc.nextID++
		lc.slots[m.label.Priority] = append(lc.slots[m.label.Priority], m)

		if !drawMarkers && 0.0 < markerW && 0.0 < markerH {
			lc.index.add(&collisionItem{kind: collisionMarker, ring: markerRing(a.point, markerW, markerH), owner: m.id})
		}
	}
	return nil
}

// Len returns the number of queued labels.
func (lc *LabelCache) Len() int {
	n := 0
	for _, slot := range lc.slots {
		n += len(slot)
	}
	return n
}

func markerRing(p orb.Point, w, h float64) orb.Ring {
	return boundRing(orb.Bound{
		Min: orb.Point{p[0] - w/2.0, p[1] - h/2.0},
		Max: orb.Point{p[0] + w/2.0, p[1] + h/2.0},
	})
}

// Place decides the position of every queued label, from the highest priority slot to the lowest and within a slot from the last added to the first. Each label is only tested against what was accepted before it.
func (lc *LabelCache) Place(img *Image) error {
	if lc.done {
		return nil
	}
	lc.done = true
	for priority := MaxPriority - 1; 0 <= priority; priority-- {
		slot := lc.slots[priority]
		for i := len(slot) - 1; 0 <= i; i-- {
			m := slot[i]
			if err := lc.place(img, m); err != nil {
				return err
			}
			if m.state == labelAccepted {
				lc.placed = append(lc.placed, m)
			} else {
				Logger().Debug("label rejected", slog.String("layer", m.layer), slog.String("text", m.text), slog.String("reason", m.reason))
			}
		}
	}
	return nil
}

func (lc *LabelCache) place(img *Image, m *labelMember) error {
	font, err := img.Fonts.Get(m.label.Font)
	if err != nil {
		return err
	}
	size := m.label.size(m.scalefactor, img.ResolutionFactor)
	run, err := font.Shape(m.text, size)
	if err != nil {
		return err
	}

	if m.label.AutoMinFeatureSize && m.shapeType != ShapePoint && m.anchor.featureSize < run.Width {
		m.state, m.reason = labelRejected, "autominfeaturesize"
		return nil
	}
	if !m.label.Force && 0.0 <= m.label.MinDistance && lc.index.near(m.anchor.point, m.text, m.label.MinDistance) {
		m.state, m.reason = labelRejected, "mindistance"
		return nil
	}

	angle := m.label.Angle * math.Pi / 180.0
	if m.shapeType == ShapeLine && m.label.AngleMode != AngleFixed {
		angle = m.anchor.angle
	}
	if m.shapeType == ShapeLine && m.label.AngleMode == AngleFollow {
		maxAngle := m.label.MaxOverlapAngle * math.Pi / 180.0
		if placed, rings, ok := followPath(run, m.anchor.path, maxAngle, m.label.Buffer); ok {
			m.run, m.rings, m.position = placed, rings, PositionCC
			if m.label.Force || lc.test(m, rings) {
				lc.accept(m)
			} else {
				m.state, m.reason = labelRejected, "collision"
			}
			return nil
		}
		// straight along the longest segment instead
	}

	positions := []Position{m.label.Position}
	if m.label.Position == PositionAuto {
		switch m.shapeType {
		case ShapePolygon:
			positions = polygonPositions
		case ShapeLine:
			positions = linePositions
		default:
			positions = pointPositions
		}
	}
	if m.drawMarkers && 0.0 < m.markerW && 0.0 < m.markerH {
		m.marker = markerRing(m.anchor.point, m.markerW, m.markerH)
	}
	for i, pos := range positions {
		placed, rings, box := lc.bounds(m, run, pos, angle)
		m.run, m.rings, m.box, m.position = placed, rings, box, pos
		if i == len(positions)-1 && m.label.Force {
			lc.accept(m)
			return nil
		} else if lc.test(m, rings) {
			lc.accept(m)
			return nil
		}
	}
	m.state = labelRejected
	if m.reason == "" {
		m.reason = "collision"
	}
	return nil
}

// bounds places run at position pos around the anchor and returns the placed run, its bounding polygons and its billboard.
func (lc *LabelCache) bounds(m *labelMember, run *GlyphRun, pos Position, angle float64) (*GlyphRun, []orb.Ring, orb.Ring) {
	ratio := 1.0
	if m.label.Size != 0.0 {
		ratio = run.Size / m.label.Size
	}
	ox, oy := m.label.OffsetX*ratio, m.label.OffsetY*ratio
	if pos != PositionCC {
		ox += m.markerW / 2.0
		oy += m.markerH / 2.0
	}

	w, h := run.Width, run.Height()
	var x1, y1 float64
	switch pos {
	case PositionUL:
		x1, y1 = -w-ox, -oy
	case PositionUC:
		x1, y1 = -w/2.0, -oy-markerSlop
	case PositionUR:
		x1, y1 = ox, -oy
	case PositionCL:
		x1, y1 = -w-ox-markerSlop, h/2.0
	case PositionCR:
		x1, y1 = ox+markerSlop, h/2.0
	case PositionLL:
		x1, y1 = -w-ox, h+oy
	case PositionLC:
		x1, y1 = -w/2.0, h+oy+markerSlop
	case PositionLR:
		x1, y1 = ox, h+oy
	default:
		x1, y1 = -w/2.0+ox, h/2.0+oy
	}

	p := m.anchor.point
	place := func(q orb.Point) orb.Point {
		q = rotate(q, angle)
		return orb.Point{p[0] + q[0], p[1] + q[1]}
	}
	ring := func(b orb.Bound) orb.Ring {
		r := boundRing(b)
		for i, q := range r {
			r[i] = place(q)
		}
		return r
	}

	text := orb.Bound{Min: orb.Point{x1, y1 - h}, Max: orb.Point{x1 + w, y1}}
	var box orb.Ring
	if HasColor(m.label.BackgroundColor) {
		text = text.Pad(m.label.Padding)
		box = ring(text)
	}
	rings := []orb.Ring{ring(text.Pad(m.label.Buffer))}

	origin := place(orb.Point{x1, y1 - h + run.Ascent})
	return run.Place(origin[0], origin[1], angle), rings, box
}

// test is true when the rings fit inside the image edges and do not overlap anything accepted so far.
func (lc *LabelCache) test(m *labelMember, rings []orb.Ring) bool {
	if !m.label.Partials && !insideEdge(rings, lc.Width, lc.Height, lc.EdgeBuffer) {
		m.reason = "edge"
		return false
	}
	for _, r := range rings {
		if it := lc.index.intersects(r, m.id); it != nil {
			m.reason = "collision"
			return false
		}
	}
	if m.marker != nil && lc.index.intersects(m.marker, m.id) != nil {
		m.reason = "marker collision"
		return false
	}
	return true
}

func (lc *LabelCache) accept(m *labelMember) {
	m.state, m.reason = labelAccepted, ""
	for _, r := range m.rings {
		lc.index.add(&collisionItem{kind: collisionLabel, ring: r, owner: m.id})
	}
	if m.marker != nil {
		lc.index.add(&collisionItem{kind: collisionMarker, ring: m.marker, owner: m.id})
	}
	lc.index.addAnchor(m.anchor.point, m.text)
}

// Results returns the outcome of all labels in placement order.
func (lc *LabelCache) Results() []LabelResult {
	var results []LabelResult
	for priority := MaxPriority - 1; 0 <= priority; priority-- {
		slot := lc.slots[priority]
		for i := len(slot) - 1; 0 <= i; i-- {
			m := slot[i]
			r := LabelResult{
				Layer:    m.layer,
				Text:     m.text,
				Priority: priority,
				Point:    m.anchor.point,
				Accepted: m.state == labelAccepted,
				Reason:   m.reason,
				Position: m.position,
			}
			if 0 < len(m.rings) {
				r.Bound = m.rings[0].Bound()
				for _, ring := range m.rings[1:] {
					r.Bound = r.Bound.Union(ring.Bound())
				}
			}
			results = append(results, r)
		}
	}
	return results
}

// Draw places the labels if that has not happened yet and renders the accepted ones: their markers, billboard, shadow and text.
func (lc *LabelCache) Draw(img *Image) error {
	if err := lc.Place(img); err != nil {
		return err
	}
	for _, m := range lc.placed {
		if err := lc.render(img, m); err != nil {
			return err
		}
	}
	return nil
}

func (lc *LabelCache) render(img *Image, m *labelMember) error {
	if m.drawMarkers {
		for i := range m.label.Markers {
			if err := DrawMarkerSymbol(img, m.anchor.point, &m.label.Markers[i], m.scalefactor); err != nil {
				return err
			}
		}
	}

	ratio := 1.0
	if m.label.Size != 0.0 {
		ratio = m.run.Size / m.label.Size
	}
	if m.box != nil {
		if HasColor(m.label.BackgroundShadowColor) {
			dx, dy := m.label.BackgroundShadowSizeX*ratio, m.label.BackgroundShadowSizeY*ratio
			shadow := &Shape{Type: ShapePolygon, Parts: []orb.LineString{orb.LineString(m.box)}}
			if err := img.check("RenderPolygon", img.RenderPolygon(shadow.Translate(dx, dy), m.label.BackgroundShadowColor)); err != nil {
				return err
			}
		}
		billboard := &Shape{Type: ShapePolygon, Parts: []orb.LineString{orb.LineString(m.box)}}
		if err := img.check("RenderPolygon", img.RenderPolygon(billboard, m.label.BackgroundColor)); err != nil {
			return err
		}
	}
	if HasColor(m.label.ShadowColor) {
		dx, dy := m.label.ShadowSizeX*ratio, m.label.ShadowSizeY*ratio
		shadow := m.run.Place(dx, dy, 0.0)
		if err := img.check("RenderGlyphs", img.RenderGlyphs(shadow, m.label.ShadowColor, color.RGBA{}, 0.0, false)); err != nil {
			return err
		}
	}
	return img.check("RenderGlyphs", img.RenderGlyphs(m.run, m.label.Color, m.label.OutlineColor, m.label.OutlineWidth*ratio, false))
}
