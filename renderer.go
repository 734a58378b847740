package maprender

import (
	"image"
	"image/color"
	"io"
	"math"
	"os"

	"github.com/paulmach/orb"
)

// Capabilities are the format features of a backend that change how shapes are dispatched.
type Capabilities struct {
	SupportsSVG               bool // renders SVG symbols natively, otherwise they are rasterized to pixmaps first
	SupportsTransparentLayers bool // composites layer opacity itself through StartLayer and EndLayer
	UseImageCache             bool // markers are drawn from cached tiles
	AntiAliased               bool // vector brush tiles are rendered seamless
}

// StrokeStyle is the stroke of a line in device units.
type StrokeStyle struct {
	Width       float64
	Color       color.RGBA
	Cap         LineCap
	Join        LineJoin
	JoinMaxSize float64   // miter limit as a multiple of the width
	Dashes      []float64 // alternating dash and gap lengths, empty for solid
	DashOffset  float64
}

// Renderer is an output backend. All coordinates are in device pixels with the y-axis pointing down. A backend returns an error for which IsUnsupported is true for a capability it does not implement.
type Renderer interface {
	Size() (int, int)
	Capabilities() Capabilities

	RenderPolygon(*Shape, color.RGBA) error
	RenderLine(*Shape, StrokeStyle) error
	RenderPolygonTiled(*Shape, *image.RGBA) error
	RenderLineTiled(*Shape, *image.RGBA) error

	RenderVectorSymbol(x, y float64, symbol *Symbol, cs *ComputedStyle) error
	RenderEllipseSymbol(x, y float64, symbol *Symbol, cs *ComputedStyle) error
	RenderPixmapSymbol(x, y float64, symbol *Symbol, cs *ComputedStyle) error
	RenderTruetypeSymbol(x, y float64, symbol *Symbol, cs *ComputedStyle) error
	RenderSVGSymbol(x, y float64, symbol *Symbol, cs *ComputedStyle) error

	// RenderTile draws tile centered on (x,y).
	RenderTile(tile *image.RGBA, x, y float64) error

	// RenderGlyphs draws a placed glyph run; a zero outline color or width draws no halo.
	RenderGlyphs(run *GlyphRun, fill, outline color.RGBA, outlineWidth float64, isMarker bool) error

	// RasterBuffer returns the pixels of a raster image.
	RasterBuffer() (*image.RGBA, error)

	// MergeRasterBuffer composites srcRect of src at opacity (0-100) onto the image at dst.
	MergeRasterBuffer(src *image.RGBA, opacity float64, srcRect image.Rectangle, dst image.Point) error

	// NewRasterImage returns a transparent raster image, used for tiles and layer compositing.
	NewRasterImage(w, h int) (Renderer, error)

	StartLayer(opacity float64) error
	EndLayer() error
}

// Writer renders a map and writes it out in a file format.
type Writer func(w io.Writer, m *Map) error

// WriteFile renders the map with writer into the named file.
func (m *Map) WriteFile(filename string, writer Writer) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := writer(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// VectorSymbolPath returns the outline of a vector symbol for cs placed at (x,y).
func VectorSymbolPath(x, y float64, symbol *Symbol, cs *ComputedStyle) *Path {
	return symbol.VectorPath(cs.Scale).Place(x, y, cs.Rotation)
}

// EllipseSymbolPath returns the outline of an ellipse symbol for cs placed at (x,y).
func EllipseSymbolPath(x, y float64, symbol *Symbol, cs *ComputedStyle) *Path {
	rx, ry := symbol.SizeX*cs.Scale/2.0, symbol.SizeY*cs.Scale/2.0
	return Ellipse(rx, ry).Place(x, y, cs.Rotation)
}

// TruetypeSymbolRun shapes the character of a truetype symbol at size cs.Scale and places it with its ink box centered on (x,y).
func TruetypeSymbolRun(x, y float64, symbol *Symbol, cs *ComputedStyle) (*GlyphRun, error) {
	if err := symbol.Preload(); err != nil {
		return nil, err
	}
	run, err := symbol.Face().Shape(symbol.Character, cs.Scale)
	if err != nil {
		return nil, err
	}
	p, err := run.Path()
	if err != nil {
		return nil, err
	}
	b := p.Bound()
	c := rotate(orb.Point{-(b.Min[0] + b.Max[0]) / 2.0, -(b.Min[1] + b.Max[1]) / 2.0}, cs.Rotation)
	return run.Place(x+c[0], y+c[1], cs.Rotation), nil
}

// PixmapTransform returns the affine transformation (a, b, c, d, e, f) that maps pixels of a w×h pixmap, scaled by scale and rotated by rotation, so that its center lands on (x,y): x' = a*x+b*y+c and y' = d*x+e*y+f.
func PixmapTransform(x, y float64, w, h int, scale, rotation float64) [6]float64 {
	sin, cos := math.Sincos(rotation)
	hw, hh := float64(w)/2.0, float64(h)/2.0
	a, b := scale*cos, scale*sin
	d, e := -scale*sin, scale*cos
	return [6]float64{a, b, x - a*hw - b*hh, d, e, y - d*hw - e*hh}
}
