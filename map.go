package maprender

import (
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/paulmach/orb"
)

// DefaultResolution is the resolution in DPI that sizes are specified in.
const DefaultResolution = 72.0

// Map is a renderable map: image size, shared symbol and font catalogs and the layers drawn from bottom to top.
type Map struct {
	Name          string
	Width, Height int
	Background    color.RGBA

	Resolution    float64 // output DPI
	DefResolution float64 // DPI that sizes are given in
	ScaleDenom    float64 // current scale denominator, zero disables scale dependent visibility
	EdgeBuffer    float64 // distance labels keep from the image edges

	Symbols *SymbolSet
	Fonts   *FontSet
	Layers  []*Layer

	Obstacles []orb.Bound // areas labels avoid, such as an embedded legend
}

// New returns an empty map of w×h pixels.
func New(w, h int) *Map {
	fonts := NewFontSet()
	symbols := NewSymbolSet()
	symbols.Fonts = fonts
	return &Map{
		Width:         w,
		Height:        h,
		Resolution:    DefaultResolution,
		DefResolution: DefaultResolution,
		Symbols:       symbols,
		Fonts:         fonts,
	}
}

// AddLayer appends a layer on top.
func (m *Map) AddLayer(l *Layer) {
	m.Layers = append(m.Layers, l)
}

// ResolutionFactor is the ratio of the output resolution to the resolution sizes are given in.
func (m *Map) ResolutionFactor() float64 {
	if m.Resolution <= 0.0 || m.DefResolution <= 0.0 {
		return 1.0
	}
	return m.Resolution / m.DefResolution
}

// ScaleFactor is the ratio between the size units of layer l and device pixels.
func (m *Map) ScaleFactor(l *Layer) float64 {
	rf := m.ResolutionFactor()
	if 0.0 < l.SymbolScaleDenom && 0.0 < m.ScaleDenom {
		return l.SymbolScaleDenom / m.ScaleDenom * rf
	}
	return rf
}

// Draw renders the map with r: the background, every layer and then the labels. It stops at the first fatal error; the returned image holds what was drawn so far.
func (m *Map) Draw(r Renderer) (*Image, error) {
	img := NewImage(r, m.Symbols, m.Fonts, m.ResolutionFactor())
	if HasColor(m.Background) {
		canvas := NewShape(orb.Bound{Max: orb.Point{float64(img.Width), float64(img.Height)}})
		if err := img.check("RenderPolygon", img.RenderPolygon(canvas, m.Background)); err != nil {
			return img, err
		}
	}

	lc := NewLabelCache(img.Width, img.Height, m.EdgeBuffer)
	img.labels = lc
	for _, b := range m.Obstacles {
		lc.AddObstacle(b)
	}
	for _, l := range m.Layers {
		if err := m.DrawLayer(img, l, lc); err != nil {
			img.lastErr = err
			return img, err
		}
	}
	if err := lc.Draw(img); err != nil {
		img.lastErr = err
		return img, err
	}
	return img, nil
}

// DrawLayer draws the shapes of layer l and queues their labels in lc. Layers with an opacity below 100 are composited by the backend or through a scratch raster image.
func (m *Map) DrawLayer(img *Image, l *Layer, lc *LabelCache) error {
	if !inScale(m.ScaleDenom, l.MinScaleDenom, l.MaxScaleDenom) {
		Logger().Debug("layer out of scale", slog.String("layer", l.Name))
		return nil
	} else if l.Opacity <= 0.0 {
		Logger().Debug("layer fully transparent", slog.String("layer", l.Name))
		return nil
	}

	sf := m.ScaleFactor(l)
	if 100.0 <= l.Opacity {
		return m.drawShapes(img, l, lc, sf)
	}

	if img.Capabilities().SupportsTransparentLayers {
		if err := img.StartLayer(l.Opacity); err != nil {
			return err
		}
		if err := m.drawShapes(img, l, lc, sf); err != nil {
			return err
		}
		return img.EndLayer()
	}

	scratch, err := img.NewRasterImage(img.Width, img.Height)
	if err != nil {
		return wrapError(ErrAllocation, "DrawLayer", err)
	}
	sub := img.with(scratch)
	err = m.drawShapes(sub, l, lc, sf)
	img.tiles = sub.tiles
	if sub.lastErr != nil {
		img.lastErr = sub.lastErr
	}
	if err != nil {
		return err
	}
	buf, err := scratch.RasterBuffer()
	if err != nil {
		return err
	}
	return img.MergeRasterBuffer(buf, l.Opacity, buf.Bounds(), image.Point{})
}

func (m *Map) drawShapes(img *Image, l *Layer, lc *LabelCache, sf float64) error {
	rf := img.ResolutionFactor
	if l.Type == LayerLine {
		if err := m.drawLines(img, l, sf); err != nil {
			return err
		}
	}
	for _, s := range l.Shapes {
		c := l.class(s, m.ScaleDenom)
		if c == nil {
			continue
		}

		markerW, markerH := 0.0, 0.0
		switch l.Type {
		case LayerPoint:
			for i := range c.Styles {
				style := &c.Styles[i]
				if !style.InScale(m.ScaleDenom) {
					continue
				}
				for _, part := range s.Parts {
					for _, p := range part {
						if err := DrawMarkerSymbol(img, p, style, sf); err != nil {
							return err
						}
					}
				}
				w, h := MarkerSize(img.Symbols, style, sf, rf)
				markerW, markerH = math.Max(markerW, w), math.Max(markerH, h)
			}
		case LayerPolygon:
			for i := range c.Styles {
				style := &c.Styles[i]
				if !style.InScale(m.ScaleDenom) {
					continue
				}
				if err := DrawShadeSymbol(img, s, style, sf); err != nil {
					return err
				}
			}
		}

		if s.Text == "" {
			continue
		}
		for i := range c.Labels {
			label := c.Labels[i]
			if !label.InScale(m.ScaleDenom) {
				continue
			}
			if l.Type == LayerAnnotation {
				label.Markers = append(append([]Style(nil), label.Markers...), c.Styles...)
			}
			w, h, drawMarkers := markerW, markerH, 0 < len(label.Markers)
			if drawMarkers {
				w, h = 0.0, 0.0
				for j := range label.Markers {
					mw, mh := MarkerSize(img.Symbols, &label.Markers[j], sf, rf)
					w, h = math.Max(w, mw), math.Max(h, mh)
				}
			}
			if err := lc.Add(l.Name, &label, s.Text, s, sf, w, h, drawMarkers); err != nil {
				return err
			}
		}
	}
	return nil
}

// drawLines strokes a line layer style by style over all shapes so that each style lies on top of the previous one. Styles with an outline width get an outline pass below them first.
func (m *Map) drawLines(img *Image, l *Layer, sf float64) error {
	n := 0
	for _, c := range l.Classes {
		n = max(n, len(c.Styles))
	}
	for i := 0; i < n; i++ {
		outlined := false
		for _, c := range l.Classes {
			if i < len(c.Styles) && 0.0 < c.Styles[i].OutlineWidth {
				outlined = true
			}
		}
		if outlined {
			for _, s := range l.Shapes {
				c := l.class(s, m.ScaleDenom)
				if c == nil || len(c.Styles) <= i || c.Styles[i].OutlineWidth <= 0.0 || !c.Styles[i].InScale(m.ScaleDenom) {
					continue
				}
				outline := c.Styles[i].Outline(sf, img.ResolutionFactor)
				if err := DrawLineSymbol(img, s, &outline, sf); err != nil {
					return err
				}
			}
		}
		for _, s := range l.Shapes {
			c := l.class(s, m.ScaleDenom)
			if c == nil || len(c.Styles) <= i || !c.Styles[i].InScale(m.ScaleDenom) {
				continue
			}
			if err := DrawLineSymbol(img, s, &c.Styles[i], sf); err != nil {
				return err
			}
		}
	}
	return nil
}
