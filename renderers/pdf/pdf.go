package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"codeberg.org/go-pdf/fpdf"
	"github.com/tdewolff/maprender"
	"github.com/tdewolff/maprender/renderers/rasterizer"
)

// Options are the PDF writer options.
type Options struct {
	Compress bool
	Title    string
	Author   string
	Creator  string
}

// DefaultOptions are the default options.
var DefaultOptions = Options{
	Compress: true,
	Creator:  "maprender",
}

// Writer writes the map as a single page PDF file.
func Writer(opts *Options) maprender.Writer {
	return func(w io.Writer, m *maprender.Map) error {
		pdf := New(w, m.Width, m.Height, opts)
		if _, err := m.Draw(pdf); err != nil {
			return err
		}
		return pdf.Close()
	}
}

// PDF is a portable document format renderer. One pixel is one point.
type PDF struct {
	w             io.Writer
	pdf           *fpdf.Fpdf
	width, height int
	images        map[*image.RGBA]string
	alpha         float64 // opacity of the current layer
	opts          *Options
}

// New returns a portable document format (PDF) renderer with a page of width×height points.
func New(w io.Writer, width, height int, opts *Options) *PDF {
	if opts == nil {
		defaultOptions := DefaultOptions
		opts = &defaultOptions
	}

	size := fpdf.SizeType{Wd: float64(width), Ht: float64(height)}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           size,
	})
	pdf.SetCompression(opts.Compress)
	pdf.SetMargins(0.0, 0.0, 0.0)
	pdf.SetAutoPageBreak(false, 0.0)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	if opts.Author != "" {
		pdf.SetAuthor(opts.Author, true)
	}
	if opts.Creator != "" {
		pdf.SetCreator(opts.Creator, true)
	}
	pdf.AddPageFormat("P", size)
	return &PDF{
		w:      w,
		pdf:    pdf,
		width:  width,
		height: height,
		images: map[*image.RGBA]string{},
		alpha:  1.0,
		opts:   opts,
	}
}

// Close finishes and writes the PDF.
func (r *PDF) Close() error {
	return r.pdf.Output(r.w)
}

// Size returns the size of the page in points.
func (r *PDF) Size() (int, int) {
	return r.width, r.height
}

// Capabilities returns the features of the PDF backend.
func (r *PDF) Capabilities() maprender.Capabilities {
	return maprender.Capabilities{
		SupportsSVG:               false,
		SupportsTransparentLayers: true,
		UseImageCache:             false,
		AntiAliased:               true,
	}
}

// RenderPolygon fills the rings of s with the even-odd rule.
func (r *PDF) RenderPolygon(s *maprender.Shape, fill color.RGBA) error {
	r.fill(maprender.PathFromShape(s), fill)
	return r.pdf.Error()
}

// RenderLine strokes the parts of s.
func (r *PDF) RenderLine(s *maprender.Shape, stroke maprender.StrokeStyle) error {
	r.stroke(maprender.PathFromShape(s), stroke)
	return r.pdf.Error()
}

// RenderPolygonTiled rasterizes the tiled polygon and embeds it as an image.
func (r *PDF) RenderPolygonTiled(s *maprender.Shape, tile *image.RGBA) error {
	b := s.Bound()
	x0 := int(math.Max(0.0, math.Floor(b.Min[0])))
	y0 := int(math.Max(0.0, math.Floor(b.Min[1])))
	x1 := int(math.Min(float64(r.width), math.Ceil(b.Max[0])))
	y1 := int(math.Min(float64(r.height), math.Ceil(b.Max[1])))
	if x1 <= x0 || y1 <= y0 {
		return nil
	}
	ras := rasterizer.New(x1-x0, y1-y0)
	if err := ras.RenderPolygonTiled(s.Translate(-float64(x0), -float64(y0)), tile); err != nil {
		return err
	}
	r.image(ras.Image(), float64(x0), float64(y0), 1.0, 0.0)
	return r.pdf.Error()
}

// RenderLineTiled is not supported.
func (r *PDF) RenderLineTiled(s *maprender.Shape, tile *image.RGBA) error {
	return maprender.Unsupported("RenderLineTiled", "pdf")
}

// RenderVectorSymbol draws a vector symbol centered on (x,y).
func (r *PDF) RenderVectorSymbol(x, y float64, symbol *maprender.Symbol, cs *maprender.ComputedStyle) error {
	r.symbolPath(maprender.VectorSymbolPath(x, y, symbol, cs), symbol.Filled, cs)
	return r.pdf.Error()
}

// RenderEllipseSymbol draws an ellipse symbol centered on (x,y).
func (r *PDF) RenderEllipseSymbol(x, y float64, symbol *maprender.Symbol, cs *maprender.ComputedStyle) error {
	r.symbolPath(maprender.EllipseSymbolPath(x, y, symbol, cs), symbol.Filled, cs)
	return r.pdf.Error()
}

func (r *PDF) symbolPath(p *maprender.Path, filled bool, cs *maprender.ComputedStyle) {
	if filled && cs.Color != nil {
		r.fill(p, *cs.Color)
	}
	if cs.OutlineColor != nil {
		width := cs.OutlineWidth
		if width <= 0.0 {
			width = 1.0
		}
		r.stroke(p, maprender.StrokeStyle{
			Width:       width,
			Color:       *cs.OutlineColor,
			Cap:         maprender.CapRound,
			Join:        maprender.JoinRound,
			JoinMaxSize: 3.0,
		})
	}
}

// RenderPixmapSymbol embeds the image of a pixmap symbol scaled and rotated around its center on (x,y).
func (r *PDF) RenderPixmapSymbol(x, y float64, symbol *maprender.Symbol, cs *maprender.ComputedStyle) error {
	pixmap := symbol.Pixmap()
	if pixmap == nil {
		return nil
	}
	size := pixmap.Bounds().Size()
	w, h := float64(size.X)*cs.Scale, float64(size.Y)*cs.Scale
	if cs.Rotation != 0.0 {
		r.pdf.TransformBegin()
		r.pdf.TransformRotate(cs.Rotation*180.0/math.Pi, x, y)
	}
	r.image(pixmap, x-w/2.0, y-h/2.0, cs.Scale, 0.0)
	if cs.Rotation != 0.0 {
		r.pdf.TransformEnd()
	}
	return r.pdf.Error()
}

// RenderTruetypeSymbol draws the outline of the character of a truetype symbol centered on (x,y).
func (r *PDF) RenderTruetypeSymbol(x, y float64, symbol *maprender.Symbol, cs *maprender.ComputedStyle) error {
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

// RenderSVGSymbol is not supported, SVG symbols are drawn as pixmaps.
func (r *PDF) RenderSVGSymbol(x, y float64, symbol *maprender.Symbol, cs *maprender.ComputedStyle) error {
	return maprender.Unsupported("RenderSVGSymbol", "pdf")
}

// RenderTile embeds tile centered on (x,y).
func (r *PDF) RenderTile(tile *image.RGBA, x, y float64) error {
	size := tile.Bounds().Size()
	r.image(tile, x-float64(size.X)/2.0, y-float64(size.Y)/2.0, 1.0, 0.0)
	return r.pdf.Error()
}

// RenderGlyphs draws the glyph outlines as paths, on top of a halo stroked twice the outline width.
func (r *PDF) RenderGlyphs(run *maprender.GlyphRun, fill, outline color.RGBA, outlineWidth float64, isMarker bool) error {
	p, err := run.Path()
	if err != nil {
		return err
	}
	if outline.A != 0 && 0.0 < outlineWidth {
		r.stroke(p, maprender.StrokeStyle{
			Width: 2.0 * outlineWidth,
			Color: outline,
			Cap:   maprender.CapRound,
			Join:  maprender.JoinRound,
		})
	}
	if fill.A != 0 {
		r.fill(p, fill)
	}
	return r.pdf.Error()
}

// RasterBuffer is not supported for vector output.
func (r *PDF) RasterBuffer() (*image.RGBA, error) {
	return nil, maprender.Unsupported("RasterBuffer", "pdf")
}

// MergeRasterBuffer embeds srcRect of src at opacity at dst.
func (r *PDF) MergeRasterBuffer(src *image.RGBA, opacity float64, srcRect image.Rectangle, dst image.Point) error {
	img, ok := src.SubImage(srcRect).(*image.RGBA)
	if !ok || img.Bounds().Empty() {
		return nil
	}
	alpha := r.alpha
	r.alpha *= opacity / 100.0
	r.image(img, float64(dst.X), float64(dst.Y), 1.0, 0.0)
	r.alpha = alpha
	return r.pdf.Error()
}

// NewRasterImage returns a raster image for tiles and scratch layers.
func (r *PDF) NewRasterImage(w, h int) (maprender.Renderer, error) {
	return rasterizer.New(w, h), nil
}

// StartLayer applies opacity to everything drawn until EndLayer.
func (r *PDF) StartLayer(opacity float64) error {
	r.alpha = opacity / 100.0
	return nil
}

// EndLayer restores full opacity.
func (r *PDF) EndLayer() error {
	r.alpha = 1.0
	return nil
}

func (r *PDF) path(p *maprender.Path) {
	for _, seg := range p.Segs {
		switch seg.Op {
		case maprender.MoveToOp:
			r.pdf.MoveTo(seg.P[0][0], seg.P[0][1])
		case maprender.LineToOp:
			r.pdf.LineTo(seg.P[0][0], seg.P[0][1])
		case maprender.QuadToOp:
			r.pdf.CurveTo(seg.P[0][0], seg.P[0][1], seg.P[1][0], seg.P[1][1])
		case maprender.CubeToOp:
			r.pdf.CurveBezierCubicTo(seg.P[0][0], seg.P[0][1], seg.P[1][0], seg.P[1][1], seg.P[2][0], seg.P[2][1])
		case maprender.CloseOp:
			r.pdf.ClosePath()
		}
	}
}

func (r *PDF) setAlpha(a uint8) {
	r.pdf.SetAlpha(float64(a)/255.0*r.alpha, "Normal")
}

func (r *PDF) fill(p *maprender.Path, fill color.RGBA) {
	if p.Empty() || fill.A == 0 {
		return
	}
	R, G, B := straight(fill)
	r.pdf.SetFillColor(R, G, B)
	r.setAlpha(fill.A)
	r.path(p)
	r.pdf.DrawPath("F*")
}

func (r *PDF) stroke(p *maprender.Path, stroke maprender.StrokeStyle) {
	if p.Empty() || stroke.Color.A == 0 || stroke.Width <= 0.0 {
		return
	}
	R, G, B := straight(stroke.Color)
	r.pdf.SetDrawColor(R, G, B)
	r.setAlpha(stroke.Color.A)
	r.pdf.SetLineWidth(stroke.Width)
	switch stroke.Cap {
	case maprender.CapButt:
		r.pdf.SetLineCapStyle("butt")
	case maprender.CapSquare:
		r.pdf.SetLineCapStyle("square")
	default:
		r.pdf.SetLineCapStyle("round")
	}
	switch stroke.Join {
	case maprender.JoinMiter:
		r.pdf.SetLineJoinStyle("miter")
	case maprender.JoinBevel:
		r.pdf.SetLineJoinStyle("bevel")
	default:
		r.pdf.SetLineJoinStyle("round")
	}
	r.pdf.SetDashPattern(stroke.Dashes, stroke.DashOffset)
	r.path(p)
	r.pdf.DrawPath("D")
	if 0 < len(stroke.Dashes) {
		r.pdf.SetDashPattern([]float64{}, 0.0)
	}
}

// image embeds img with its top-left corner at (x,y), registering it once.
func (r *PDF) image(img *image.RGBA, x, y, scale, rotation float64) {
	name, ok := r.images[img]
	if !ok {
		name = fmt.Sprintf("img%d", len(r.images))
		buf := &bytes.Buffer{}
		if err := png.Encode(buf, img); err != nil {
			r.pdf.SetError(err)
			return
		}
		r.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, buf)
		r.images[img] = name
	}
	size := img.Bounds().Size()
	r.pdf.SetAlpha(r.alpha, "Normal")
	r.pdf.ImageOptions(name, x, y, float64(size.X)*scale, float64(size.Y)*scale, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
}

// straight returns the non-premultiplied color components.
func straight(c color.RGBA) (int, int, int) {
	if c.A == 0 || c.A == 255 {
		return int(c.R), int(c.G), int(c.B)
	}
	return int(c.R) * 255 / int(c.A), int(c.G) * 255 / int(c.A), int(c.B) * 255 / int(c.A)
}
