package svg

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"

	"github.com/tdewolff/maprender"
	"github.com/tdewolff/maprender/renderers/rasterizer"
)

// Options are the SVG writer options.
type Options struct {
	Compression int // gzip compression level, zero for none
}

// DefaultOptions are the default options.
var DefaultOptions = Options{}

// Writer writes the map as an SVG file.
func Writer(opts *Options) maprender.Writer {
	return func(w io.Writer, m *maprender.Map) error {
		svg := New(w, m.Width, m.Height, opts)
		if _, err := m.Draw(svg); err != nil {
			return err
		}
		return svg.Close()
	}
}

// SVG is a scalable vector graphics renderer. Coordinates are written in pixels.
type SVG struct {
	w             io.Writer
	width, height int
	patterns      map[*image.RGBA]string
	layers        int
	opts          *Options
}

// New returns a scalable vector graphics (SVG) renderer of width×height pixels.
func New(w io.Writer, width, height int, opts *Options) *SVG {
	if opts == nil {
		defaultOptions := DefaultOptions
		opts = &defaultOptions
	}

	if opts.Compression != 0 {
		if opts.Compression < gzip.HuffmanOnly || gzip.BestCompression < opts.Compression {
			opts.Compression = -1
		}
		w, _ = gzip.NewWriterLevel(w, opts.Compression)
	}

	fmt.Fprintf(w, `<svg version="1.1" width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink">`, width, height, width, height)
	return &SVG{
		w:        w,
		width:    width,
		height:   height,
		patterns: map[*image.RGBA]string{},
		opts:     opts,
	}
}

// Close closes open layers and finishes the SVG.
func (r *SVG) Close() error {
	for ; 0 < r.layers; r.layers-- {
		fmt.Fprintf(r.w, "</g>")
	}
	_, err := fmt.Fprintf(r.w, "</svg>")
	if r.opts.Compression != 0 {
		if err2 := r.w.(*gzip.Writer).Close(); err == nil { // does not close underlying writer
			err = err2
		}
	}
	return err
}

// Size returns the size of the image in pixels.
func (r *SVG) Size() (int, int) {
	return r.width, r.height
}

// Capabilities returns the features of the SVG backend.
func (r *SVG) Capabilities() maprender.Capabilities {
	return maprender.Capabilities{
		SupportsSVG:               true,
		SupportsTransparentLayers: true,
		UseImageCache:             false,
		AntiAliased:               true,
	}
}

// RenderPolygon fills the rings of s with the even-odd rule.
func (r *SVG) RenderPolygon(s *maprender.Shape, fill color.RGBA) error {
	r.writeFill(maprender.PathFromShape(s), fill)
	return nil
}

// RenderLine strokes the parts of s.
func (r *SVG) RenderLine(s *maprender.Shape, stroke maprender.StrokeStyle) error {
	r.writeStroke(maprender.PathFromShape(s), stroke, cssColor(stroke.Color), stroke.Color.A)
	return nil
}

// RenderPolygonTiled fills the rings of s with a pattern of the tile.
func (r *SVG) RenderPolygonTiled(s *maprender.Shape, tile *image.RGBA) error {
	p := maprender.PathFromShape(s)
	if p.Empty() {
		return nil
	}
	ref := r.getPattern(tile)
	fmt.Fprintf(r.w, `<path d="%s" fill="url(#%s)" fill-rule="evenodd"/>`, pathData(p), ref)
	return nil
}

// RenderLineTiled strokes the parts of s with a pattern of the tile, as wide as the tile is high.
func (r *SVG) RenderLineTiled(s *maprender.Shape, tile *image.RGBA) error {
	ref := r.getPattern(tile)
	stroke := maprender.StrokeStyle{
		Width: float64(tile.Bounds().Dy()),
		Cap:   maprender.CapButt,
		Join:  maprender.JoinRound,
	}
	r.writeStroke(maprender.PathFromShape(s), stroke, "url(#"+ref+")", 255)
	return nil
}

// RenderVectorSymbol draws a vector symbol centered on (x,y).
func (r *SVG) RenderVectorSymbol(x, y float64, symbol *maprender.Symbol, cs *maprender.ComputedStyle) error {
	r.writeSymbolPath(maprender.VectorSymbolPath(x, y, symbol, cs), symbol.Filled, cs)
	return nil
}

// RenderEllipseSymbol draws an ellipse symbol centered on (x,y).
func (r *SVG) RenderEllipseSymbol(x, y float64, symbol *maprender.Symbol, cs *maprender.ComputedStyle) error {
	r.writeSymbolPath(maprender.EllipseSymbolPath(x, y, symbol, cs), symbol.Filled, cs)
	return nil
}

func (r *SVG) writeSymbolPath(p *maprender.Path, filled bool, cs *maprender.ComputedStyle) {
	if filled && cs.Color != nil {
		r.writeFill(p, *cs.Color)
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
		r.writeStroke(p, stroke, cssColor(*cs.OutlineColor), cs.OutlineColor.A)
	}
}

// RenderPixmapSymbol embeds the image of a pixmap symbol scaled and rotated around its center on (x,y).
func (r *SVG) RenderPixmapSymbol(x, y float64, symbol *maprender.Symbol, cs *maprender.ComputedStyle) error {
	pixmap := symbol.Pixmap()
	if pixmap == nil {
		return nil
	}
	size := pixmap.Bounds().Size()
	r.writeImage(pixmap, maprender.PixmapTransform(x, y, size.X, size.Y, cs.Scale, cs.Rotation), 100.0)
	return nil
}

// RenderTruetypeSymbol draws the outline of the character of a truetype symbol centered on (x,y).
func (r *SVG) RenderTruetypeSymbol(x, y float64, symbol *maprender.Symbol, cs *maprender.ComputedStyle) error {
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

// RenderSVGSymbol embeds the SVG document of the symbol scaled and rotated around its center on (x,y).
func (r *SVG) RenderSVGSymbol(x, y float64, symbol *maprender.Symbol, cs *maprender.ComputedStyle) error {
	if err := symbol.Preload(); err != nil {
		return err
	}
	data := symbol.SVGData
	if data == nil {
		// loaded from file, embed the rasterized document
		img, err := symbol.RasterizeSVG(cs.Scale)
		if err != nil {
			return err
		}
		size := img.Bounds().Size()
		r.writeImage(img, maprender.PixmapTransform(x, y, size.X, size.Y, 1.0, cs.Rotation), 100.0)
		return nil
	}
	w, h := symbol.SizeX, symbol.SizeY
	m := maprender.PixmapTransform(x, y, 0, 0, cs.Scale, cs.Rotation)
	m[2] -= m[0]*w/2.0 + m[1]*h/2.0
	m[5] -= m[3]*w/2.0 + m[4]*h/2.0
	fmt.Fprintf(r.w, `<image transform="%s" width="%v" height="%v" xlink:href="data:image/svg+xml;base64,%s"/>`,
		matrix(m), dec(w), dec(h), base64.StdEncoding.EncodeToString(data))
	return nil
}

// RenderTile embeds tile centered on (x,y).
func (r *SVG) RenderTile(tile *image.RGBA, x, y float64) error {
	size := tile.Bounds().Size()
	r.writeImage(tile, maprender.PixmapTransform(x, y, size.X, size.Y, 1.0, 0.0), 100.0)
	return nil
}

// RenderGlyphs writes the glyph outlines as a path, on top of a halo stroked twice the outline width.
func (r *SVG) RenderGlyphs(run *maprender.GlyphRun, fill, outline color.RGBA, outlineWidth float64, isMarker bool) error {
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
		r.writeStroke(p, stroke, cssColor(outline), outline.A)
	}
	if fill.A != 0 {
		r.writeFill(p, fill)
	}
	return nil
}

// RasterBuffer is not supported for vector output.
func (r *SVG) RasterBuffer() (*image.RGBA, error) {
	return nil, maprender.Unsupported("RasterBuffer", "svg")
}

// MergeRasterBuffer embeds srcRect of src at opacity at dst.
func (r *SVG) MergeRasterBuffer(src *image.RGBA, opacity float64, srcRect image.Rectangle, dst image.Point) error {
	img, ok := src.SubImage(srcRect).(*image.RGBA)
	if !ok || img.Bounds().Empty() {
		return nil
	}
	m := [6]float64{1.0, 0.0, float64(dst.X), 0.0, 1.0, float64(dst.Y)}
	r.writeImage(img, m, opacity)
	return nil
}

// NewRasterImage returns a raster image for tiles and scratch layers.
func (r *SVG) NewRasterImage(w, h int) (maprender.Renderer, error) {
	return rasterizer.New(w, h), nil
}

// StartLayer opens a group drawn at opacity.
func (r *SVG) StartLayer(opacity float64) error {
	fmt.Fprintf(r.w, `<g opacity="%v">`, dec(opacity/100.0))
	r.layers++
	return nil
}

// EndLayer closes the group of StartLayer.
func (r *SVG) EndLayer() error {
	if r.layers == 0 {
		return nil
	}
	fmt.Fprintf(r.w, `</g>`)
	r.layers--
	return nil
}

func (r *SVG) writeFill(p *maprender.Path, fill color.RGBA) {
	if p.Empty() || fill.A == 0 {
		return
	}
	fmt.Fprintf(r.w, `<path d="%s`, pathData(p))
	if c := cssColor(fill); c != "#000" {
		fmt.Fprintf(r.w, `" fill="%s`, c)
	}
	if fill.A != 255 {
		fmt.Fprintf(r.w, `" fill-opacity="%v`, dec(float64(fill.A)/255.0))
	}
	fmt.Fprintf(r.w, `" fill-rule="evenodd"/>`)
}

func (r *SVG) writeStroke(p *maprender.Path, stroke maprender.StrokeStyle, paint string, alpha uint8) {
	if p.Empty() || stroke.Width <= 0.0 || alpha == 0 {
		return
	}
	b := &strings.Builder{}
	fmt.Fprintf(b, "fill:none;stroke:%s", paint)
	if alpha != 255 {
		fmt.Fprintf(b, ";stroke-opacity:%v", dec(float64(alpha)/255.0))
	}
	if stroke.Width != 1.0 {
		fmt.Fprintf(b, ";stroke-width:%v", dec(stroke.Width))
	}
	switch stroke.Cap {
	case maprender.CapRound:
		fmt.Fprintf(b, ";stroke-linecap:round")
	case maprender.CapSquare:
		fmt.Fprintf(b, ";stroke-linecap:square")
	}
	switch stroke.Join {
	case maprender.JoinRound:
		fmt.Fprintf(b, ";stroke-linejoin:round")
	case maprender.JoinBevel:
		fmt.Fprintf(b, ";stroke-linejoin:bevel")
	case maprender.JoinMiter:
		// a miter line join is the default
		if 0.0 < stroke.JoinMaxSize && stroke.JoinMaxSize != 4.0 {
			fmt.Fprintf(b, ";stroke-miterlimit:%v", dec(stroke.JoinMaxSize))
		}
	}
	if 0 < len(stroke.Dashes) {
		fmt.Fprintf(b, ";stroke-dasharray:%v", dec(stroke.Dashes[0]))
		for _, dash := range stroke.Dashes[1:] {
			fmt.Fprintf(b, " %v", dec(dash))
		}
		if stroke.DashOffset != 0.0 {
			fmt.Fprintf(b, ";stroke-dashoffset:%v", dec(stroke.DashOffset))
		}
	}
	fmt.Fprintf(r.w, `<path d="%s" style="%s"/>`, pathData(p), b.String())
}

// writeImage embeds img as a PNG placed by the affine transformation m.
func (r *SVG) writeImage(img *image.RGBA, m [6]float64, opacity float64) {
	size := img.Bounds().Size()
	fmt.Fprintf(r.w, `<image transform="%s" width="%d" height="%d"`, matrix(m), size.X, size.Y)
	if opacity < 100.0 {
		fmt.Fprintf(r.w, ` opacity="%v"`, dec(opacity/100.0))
	}
	fmt.Fprintf(r.w, ` xlink:href="data:image/png;base64,`)
	encoder := base64.NewEncoder(base64.StdEncoding, r.w)
	png.Encode(encoder, img)
	encoder.Close()
	fmt.Fprintf(r.w, `"/>`)
}

// getPattern returns the id of a pattern for tile, defining it on first use.
func (r *SVG) getPattern(tile *image.RGBA) string {
	if ref, ok := r.patterns[tile]; ok {
		return ref
	}

	ref := fmt.Sprintf("p%v", len(r.patterns)+1)
	r.patterns[tile] = ref

	size := tile.Bounds().Size()
	buf := &bytes.Buffer{}
	png.Encode(buf, tile)
	fmt.Fprintf(r.w, `<defs><pattern id="%s" patternUnits="userSpaceOnUse" width="%d" height="%d"><image width="%d" height="%d" xlink:href="data:image/png;base64,%s"/></pattern></defs>`,
		ref, size.X, size.Y, size.X, size.Y, base64.StdEncoding.EncodeToString(buf.Bytes()))
	return ref
}
