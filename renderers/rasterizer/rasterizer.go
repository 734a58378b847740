package rasterizer

import (
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"math"

	"github.com/srwiley/rasterx"
	"github.com/srwiley/scanx"
	"github.com/tdewolff/maprender"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/tiff"
	"golang.org/x/image/vector"
)

// PNGWriter writes the map as a PNG file.
func PNGWriter() maprender.Writer {
	return func(w io.Writer, m *maprender.Map) error {
		img, err := Draw(m)
		if err != nil {
			return err
		}
		return png.Encode(w, img)
	}
}

// JPGWriter writes the map as a JPG file.
func JPGWriter(opts *jpeg.Options) maprender.Writer {
	return func(w io.Writer, m *maprender.Map) error {
		img, err := Draw(m)
		if err != nil {
			return err
		}
		return jpeg.Encode(w, img, opts)
	}
}

// GIFWriter writes the map as a GIF file.
func GIFWriter(opts *gif.Options) maprender.Writer {
	return func(w io.Writer, m *maprender.Map) error {
		img, err := Draw(m)
		if err != nil {
			return err
		}
		return gif.Encode(w, img, opts)
	}
}

// TIFFWriter writes the map as a TIFF file.
func TIFFWriter(opts *tiff.Options) maprender.Writer {
	return func(w io.Writer, m *maprender.Map) error {
		img, err := Draw(m)
		if err != nil {
			return err
		}
		return tiff.Encode(w, img, opts)
	}
}

// Draw renders the map on a new image.
func Draw(m *maprender.Map) (*image.RGBA, error) {
	ras := New(m.Width, m.Height)
	if _, err := m.Draw(ras); err != nil {
		return nil, err
	}
	return ras.img, nil
}

// Rasterizer is a rasterizing renderer drawing into an RGBA image.
type Rasterizer struct {
	img    *image.RGBA
	filler *rasterx.Filler
	dasher *rasterx.Dasher
}

// New returns a renderer that draws to a new transparent w×h image.
func New(w, h int) *Rasterizer {
	return NewFromImage(image.NewRGBA(image.Rect(0, 0, w, h)))
}

// NewFromImage returns a renderer that draws to img.
func NewFromImage(img *image.RGBA) *Rasterizer {
	size := img.Bounds().Size()
	// the GV scanner of rasterx ignores the winding rule
	scanner := scanx.NewScanner(scanx.NewImgSpanner(img), size.X, size.Y)
	return &Rasterizer{
		img:    img,
		filler: rasterx.NewFiller(size.X, size.Y, scanner),
		dasher: rasterx.NewDasher(size.X, size.Y, scanner),
	}
}

// Image returns the image drawn to.
func (r *Rasterizer) Image() *image.RGBA {
	return r.img
}

// Size returns the size of the image in pixels.
func (r *Rasterizer) Size() (int, int) {
	size := r.img.Bounds().Size()
	return size.X, size.Y
}

// Capabilities returns the features of the raster backend.
func (r *Rasterizer) Capabilities() maprender.Capabilities {
	return maprender.Capabilities{
		SupportsSVG:               true,
		SupportsTransparentLayers: false,
		UseImageCache:             true,
		AntiAliased:               true,
	}
}

// RenderPolygon fills the rings of s with the even-odd rule.
func (r *Rasterizer) RenderPolygon(s *maprender.Shape, fill color.RGBA) error {
	r.fill(maprender.PathFromShape(s), fill)
	return nil
}

// RenderLine strokes the parts of s.
func (r *Rasterizer) RenderLine(s *maprender.Shape, stroke maprender.StrokeStyle) error {
	r.stroke(maprender.PathFromShape(s), stroke, stroke.Color)
	return nil
}

// RenderPolygonTiled fills the rings of s with tile repeated from the image origin.
func (r *Rasterizer) RenderPolygonTiled(s *maprender.Shape, tile *image.RGBA) error {
	r.fill(maprender.PathFromShape(s), NewTileImage(tile))
	return nil
}

// RenderLineTiled strokes the parts of s as wide as the tile is high, painted with the repeated tile.
func (r *Rasterizer) RenderLineTiled(s *maprender.Shape, tile *image.RGBA) error {
	stroke := maprender.StrokeStyle{
		Width: float64(tile.Bounds().Dy()),
		Cap:   maprender.CapButt,
		Join:  maprender.JoinRound,
	}
	r.stroke(maprender.PathFromShape(s), stroke, NewTileImage(tile))
	return nil
}

// RenderVectorSymbol draws a vector symbol centered on (x,y).
func (r *Rasterizer) RenderVectorSymbol(x, y float64, symbol *maprender.Symbol, cs *maprender.ComputedStyle) error {
	r.renderSymbolPath(maprender.VectorSymbolPath(x, y, symbol, cs), symbol.Filled, cs)
	return nil
}

// RenderEllipseSymbol draws an ellipse symbol centered on (x,y).
func (r *Rasterizer) RenderEllipseSymbol(x, y float64, symbol *maprender.Symbol, cs *maprender.ComputedStyle) error {
	r.renderSymbolPath(maprender.EllipseSymbolPath(x, y, symbol, cs), symbol.Filled, cs)
	return nil
}

func (r *Rasterizer) renderSymbolPath(p *maprender.Path, filled bool, cs *maprender.ComputedStyle) {
	if filled && cs.Color != nil {
		r.fill(p, *cs.Color)
	}
	if cs.OutlineColor != nil {
		width := cs.OutlineWidth
		if width <= 0.0 {
			width = 1.0
		}
		stroke := maprender.StrokeStyle{
			Width:       width,
			Cap:         maprender.CapRound,
			Join:        maprender.JoinRound,
			JoinMaxSize: 3.0,
		}
		r.stroke(p, stroke, *cs.OutlineColor)
	}
}

// RenderPixmapSymbol draws the image of a pixmap symbol scaled and rotated around its center on (x,y).
func (r *Rasterizer) RenderPixmapSymbol(x, y float64, symbol *maprender.Symbol, cs *maprender.ComputedStyle) error {
	pixmap := symbol.Pixmap()
	if pixmap == nil {
		return nil
	}
	r.drawImage(pixmap, x, y, cs.Scale, cs.Rotation)
	return nil
}

// RenderTruetypeSymbol draws the character of a truetype symbol centered on (x,y).
func (r *Rasterizer) RenderTruetypeSymbol(x, y float64, symbol *maprender.Symbol, cs *maprender.ComputedStyle) error {
	run, err := maprender.TruetypeSymbolRun(x, y, symbol, cs)
	if err != nil {
		return err
	}
	var fill, outline color.RGBA
	if cs.Color != nil {
		fill = *cs.Color
	}
	if cs.OutlineColor != nil {
		outline = *cs.OutlineColor
	}
	return r.RenderGlyphs(run, fill, outline, cs.OutlineWidth, true)
}

// RenderSVGSymbol draws an SVG symbol scaled and rotated around its center on (x,y).
func (r *Rasterizer) RenderSVGSymbol(x, y float64, symbol *maprender.Symbol, cs *maprender.ComputedStyle) error {
	img, err := symbol.RasterizeSVG(cs.Scale)
	if err != nil {
		return err
	}
	r.drawImage(img, x, y, 1.0, cs.Rotation)
	return nil
}

// RenderTile draws tile centered on (x,y).
func (r *Rasterizer) RenderTile(tile *image.RGBA, x, y float64) error {
	size := tile.Bounds().Size()
	x0 := int(math.Round(x - float64(size.X)/2.0))
	y0 := int(math.Round(y - float64(size.Y)/2.0))
	draw.Draw(r.img, image.Rect(x0, y0, x0+size.X, y0+size.Y), tile, tile.Bounds().Min, draw.Over)
	return nil
}

// RenderGlyphs fills the glyph outlines, on top of a halo stroked twice the outline width.
func (r *Rasterizer) RenderGlyphs(run *maprender.GlyphRun, fill, outline color.RGBA, outlineWidth float64, isMarker bool) error {
	p, err := run.Path()
	if err != nil {
		return err
	}
	if outline.A != 0 && 0.0 < outlineWidth {
		stroke := maprender.StrokeStyle{
			Width: 2.0 * outlineWidth,
			Cap:   maprender.CapRound,
			Join:  maprender.JoinRound,
		}
		r.stroke(p, stroke, outline)
	}
	if fill.A != 0 {
		size := r.img.Bounds().Size()
		ras := vector.NewRasterizer(size.X, size.Y)
		toRasterizer(ras, p)
		ras.Draw(r.img, r.img.Bounds(), image.NewUniform(fill), image.Point{})
	}
	return nil
}

// RasterBuffer returns the image drawn to.
func (r *Rasterizer) RasterBuffer() (*image.RGBA, error) {
	return r.img, nil
}

// MergeRasterBuffer composites srcRect of src at opacity onto the image at dst.
func (r *Rasterizer) MergeRasterBuffer(src *image.RGBA, opacity float64, srcRect image.Rectangle, dst image.Point) error {
	dr := image.Rectangle{dst, dst.Add(srcRect.Size())}
	if 100.0 <= opacity {
		draw.Draw(r.img, dr, src, srcRect.Min, draw.Over)
		return nil
	} else if opacity <= 0.0 {
		return nil
	}
	mask := image.NewUniform(color.Alpha{uint8(opacity/100.0*255.0 + 0.5)})
	draw.DrawMask(r.img, dr, src, srcRect.Min, mask, image.Point{}, draw.Over)
	return nil
}

// NewRasterImage returns a transparent raster image.
func (r *Rasterizer) NewRasterImage(w, h int) (maprender.Renderer, error) {
	if w <= 0 || h <= 0 {
		return nil, &maprender.Error{Kind: maprender.ErrAllocation, Op: "NewRasterImage", Msg: "empty image"}
	}
	return New(w, h), nil
}

// StartLayer is not supported, layers are composited through a scratch image.
func (r *Rasterizer) StartLayer(opacity float64) error {
	return maprender.Unsupported("StartLayer", "raster")
}

// EndLayer is not supported.
func (r *Rasterizer) EndLayer() error {
	return maprender.Unsupported("EndLayer", "raster")
}

// fill fills p with the even-odd rule; paint is a color or an image.
func (r *Rasterizer) fill(p *maprender.Path, paint interface{}) {
	if p.Empty() {
		return
	}
	r.filler.Clear()
	r.filler.SetWinding(false)
	toAdder(r.filler, p)
	setPaint(r.filler, paint)
	r.filler.Draw()
	r.filler.Clear()
}

// stroke strokes p; paint is a color or an image.
func (r *Rasterizer) stroke(p *maprender.Path, stroke maprender.StrokeStyle, paint interface{}) {
	if p.Empty() || stroke.Width <= 0.0 {
		return
	}
	capper, gapper := capFunc(stroke.Cap)
	r.dasher.Clear()
	r.dasher.SetWinding(true)
	r.dasher.SetStroke(toFixed(stroke.Width), toFixed(stroke.JoinMaxSize), capper, capper, gapper, joinMode(stroke.Join), stroke.Dashes, stroke.DashOffset)
	toAdder(r.dasher, p)
	setPaint(r.dasher, paint)
	r.dasher.Draw()
	r.dasher.Clear()
}

// drawImage draws img scaled and rotated with its center on (x,y).
func (r *Rasterizer) drawImage(img *image.RGBA, x, y, scale, rotation float64) {
	size := img.Bounds().Size()
	if scale == 1.0 && rotation == 0.0 {
		x0 := int(math.Round(x - float64(size.X)/2.0))
		y0 := int(math.Round(y - float64(size.Y)/2.0))
		draw.Draw(r.img, image.Rect(x0, y0, x0+size.X, y0+size.Y), img, img.Bounds().Min, draw.Over)
		return
	}

	// add transparent margin to image for smooth borders when rotating
	margin := 4
	img2 := image.NewRGBA(image.Rect(0, 0, size.X+margin*2, size.Y+margin*2))
	draw.Draw(img2, image.Rect(margin, margin, size.X+margin, size.Y+margin), img, img.Bounds().Min, draw.Over)

	m := maprender.PixmapTransform(x, y, size.X+margin*2, size.Y+margin*2, scale, rotation)
	aff3 := f64.Aff3{m[0], m[1], m[2], m[3], m[4], m[5]}
	draw.CatmullRom.Transform(r.img, aff3, img2, img2.Bounds(), draw.Over, nil)
}
