package maprender

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/paulmach/orb"
)

// call is one recorded renderer invocation.
type call struct {
	op     string
	shape  *Shape
	color  color.RGBA
	stroke StrokeStyle
	tile   *image.RGBA
	x, y   float64
	cs     ComputedStyle
	text   string
}

// recorder is a renderer that records its calls. Raster recorders keep a pixel buffer so that they can serve as tiles and scratch layers.
type recorder struct {
	w, h        int
	caps        Capabilities
	unsupported map[string]bool
	calls       []call
	buf         *image.RGBA
	raster      []*recorder // raster images handed out
}

func newRecorder(w, h int, caps Capabilities) *recorder {
	return &recorder{w: w, h: h, caps: caps, unsupported: map[string]bool{}}
}

func (r *recorder) ops() []string {
	ops := []string{}
	for _, c := range r.calls {
		ops = append(ops, c.op)
	}
	return ops
}

func (r *recorder) count(op string) int {
	n := 0
	for _, c := range r.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func (r *recorder) record(c call) error {
	if r.unsupported[c.op] {
		return Unsupported(c.op, "recorder")
	}
	r.calls = append(r.calls, c)
	return nil
}

func (r *recorder) Size() (int, int)           { return r.w, r.h }
func (r *recorder) Capabilities() Capabilities { return r.caps }

func (r *recorder) RenderPolygon(s *Shape, fill color.RGBA) error {
	if r.buf != nil {
		b := s.Bound()
		rect := image.Rect(int(b.Min[0]), int(b.Min[1]), int(b.Max[0]), int(b.Max[1]))
		draw.Draw(r.buf, rect, image.NewUniform(fill), image.Point{}, draw.Over)
	}
	return r.record(call{op: "RenderPolygon", shape: s, color: fill})
}

func (r *recorder) RenderLine(s *Shape, stroke StrokeStyle) error {
	return r.record(call{op: "RenderLine", shape: s, stroke: stroke})
}

func (r *recorder) RenderPolygonTiled(s *Shape, tile *image.RGBA) error {
	return r.record(call{op: "RenderPolygonTiled", shape: s, tile: tile})
}

func (r *recorder) RenderLineTiled(s *Shape, tile *image.RGBA) error {
	return r.record(call{op: "RenderLineTiled", shape: s, tile: tile})
}

func (r *recorder) symbol(op string, x, y float64, symbol *Symbol, cs *ComputedStyle) error {
	if r.buf != nil {
		r.buf.Set(int(x), int(y), color.RGBA{0, 0, 0, 255})
	}
	return r.record(call{op: op, x: x, y: y, cs: *cs, text: symbol.Name})
}

func (r *recorder) RenderVectorSymbol(x, y float64, symbol *Symbol, cs *ComputedStyle) error {
	return r.symbol("RenderVectorSymbol", x, y, symbol, cs)
}

func (r *recorder) RenderEllipseSymbol(x, y float64, symbol *Symbol, cs *ComputedStyle) error {
	return r.symbol("RenderEllipseSymbol", x, y, symbol, cs)
}

func (r *recorder) RenderPixmapSymbol(x, y float64, symbol *Symbol, cs *ComputedStyle) error {
	return r.symbol("RenderPixmapSymbol", x, y, symbol, cs)
}

func (r *recorder) RenderTruetypeSymbol(x, y float64, symbol *Symbol, cs *ComputedStyle) error {
	return r.symbol("RenderTruetypeSymbol", x, y, symbol, cs)
}

func (r *recorder) RenderSVGSymbol(x, y float64, symbol *Symbol, cs *ComputedStyle) error {
	return r.symbol("RenderSVGSymbol", x, y, symbol, cs)
}

func (r *recorder) RenderTile(tile *image.RGBA, x, y float64) error {
	return r.record(call{op: "RenderTile", tile: tile, x: x, y: y})
}

func (r *recorder) RenderGlyphs(run *GlyphRun, fill, outline color.RGBA, outlineWidth float64, isMarker bool) error {
	return r.record(call{op: "RenderGlyphs", color: fill, text: run.Text})
}

func (r *recorder) RasterBuffer() (*image.RGBA, error) {
	if r.buf == nil {
		return nil, Unsupported("RasterBuffer", "recorder")
	}
	return r.buf, nil
}

func (r *recorder) MergeRasterBuffer(src *image.RGBA, opacity float64, srcRect image.Rectangle, dst image.Point) error {
	if r.buf != nil {
		draw.Draw(r.buf, image.Rectangle{dst, dst.Add(srcRect.Size())}, src, srcRect.Min, draw.Over)
	}
	return r.record(call{op: "MergeRasterBuffer", tile: src, x: opacity})
}

func (r *recorder) NewRasterImage(w, h int) (Renderer, error) {
	if r.unsupported["NewRasterImage"] {
		return nil, Unsupported("NewRasterImage", "recorder")
	}
	raster := newRecorder(w, h, Capabilities{UseImageCache: true, AntiAliased: true, SupportsSVG: true})
	raster.buf = image.NewRGBA(image.Rect(0, 0, w, h))
	r.raster = append(r.raster, raster)
	return raster, nil
}

func (r *recorder) StartLayer(opacity float64) error {
	return r.record(call{op: "StartLayer", x: opacity})
}

func (r *recorder) EndLayer() error {
	return r.record(call{op: "EndLayer"})
}

// vectorCaps are the capabilities of a vector backend that does not cache marker tiles.
var vectorCaps = Capabilities{SupportsSVG: true, SupportsTransparentLayers: true, AntiAliased: true}

// rasterCaps are the capabilities of a raster backend.
var rasterCaps = Capabilities{SupportsSVG: true, UseImageCache: true, AntiAliased: true}

// symbol indices of newTestImage
const (
	symSquare = 1 + iota
	symCircle
	symHatch
	symCross
)

func newTestImage(r Renderer) *Image {
	symbols := NewSymbolSet()
	symbols.Add(NewVectorSymbol("square", true, orbSquare(4.0)...))
	symbols.Add(NewEllipseSymbol("circle", true, 2.0, 2.0))
	symbols.Add(NewHatchSymbol("hatch"))
	symbols.Add(NewVectorSymbol("cross", false, orb.Point{0, 0}, orb.Point{4, 4}, PenUp, orb.Point{0, 4}, orb.Point{4, 0}))
	return NewImage(r, symbols, nil, 1.0)
}

var black = color.RGBA{0, 0, 0, 255}
var red = color.RGBA{255, 0, 0, 255}
var blue = color.RGBA{0, 0, 255, 255}

func orbSquare(size float64) []orb.Point {
	return []orb.Point{{0, 0}, {size, 0}, {size, size}, {0, size}, {0, 0}}
}

func newSolidImage(w, h int, col color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(col), image.Point{}, draw.Src)
	return img
}

func rect(x0, y0, x1, y1 float64) *Shape {
	return NewShape(orb.Bound{Min: orb.Point{x0, y0}, Max: orb.Point{x1, y1}})
}
