package maprender

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"math"
	"os"
	"sync"

	"github.com/paulmach/orb"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// SymbolKind is the kind of a symbol definition.
type SymbolKind int

// see SymbolKind
const (
	SymbolSimple SymbolKind = iota
	SymbolVector
	SymbolEllipse
	SymbolPixmap
	SymbolTruetype
	SymbolHatch
	SymbolSVG
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolSimple:
		return "simple"
	case SymbolVector:
		return "vector"
	case SymbolEllipse:
		return "ellipse"
	case SymbolPixmap:
		return "pixmap"
	case SymbolTruetype:
		return "truetype"
	case SymbolHatch:
		return "hatch"
	case SymbolSVG:
		return "svg"
	}
	return fmt.Sprintf("SymbolKind(%d)", int(k))
}

// PenUp separates subpaths in the points of a vector symbol.
var PenUp = orb.Point{-99, -99}

// Symbol is an entry of the symbol catalog. It is not modified while rendering except for its lazily loaded handles.
type Symbol struct {
	Name   string
	Kind   SymbolKind
	Filled bool

	// Points is the outline of vector symbols in symbol units (y down), subpaths are separated by PenUp. Ellipse symbols use Points[0] as the radii.
	Points []orb.Point

	// SizeX and SizeY is the nominal size; computed from the points for vector symbols, from the image for pixmaps and from the view box for SVGs when zero.
	SizeX, SizeY float64

	// Anchor is the normalized anchor point, (0.5,0.5) is the center.
	Anchor orb.Point

	// Pixmap and SVG sources, either inline or a file name.
	Image     image.Image
	ImageFile string
	SVGData   []byte

	// Truetype symbols render Character in Font.
	Font      string
	Character string

	// Transparent is the pixmap color index that becomes transparent, -1 for none.
	Transparent int

	once    sync.Once
	loadErr error
	pixmap  *image.RGBA
	svg     *oksvg.SvgIcon
	face    *Font
	set     *SymbolSet
}

// NewVectorSymbol returns a vector symbol for the given points.
func NewVectorSymbol(name string, filled bool, points ...orb.Point) *Symbol {
	return &Symbol{Name: name, Kind: SymbolVector, Filled: filled, Points: points, Anchor: orb.Point{0.5, 0.5}, Transparent: -1}
}

// NewEllipseSymbol returns an ellipse symbol with radii rx and ry.
func NewEllipseSymbol(name string, filled bool, rx, ry float64) *Symbol {
	return &Symbol{Name: name, Kind: SymbolEllipse, Filled: filled, Points: []orb.Point{{rx, ry}}, Anchor: orb.Point{0.5, 0.5}, Transparent: -1}
}

// NewPixmapSymbol returns a pixmap symbol for an image.
func NewPixmapSymbol(name string, img image.Image) *Symbol {
	return &Symbol{Name: name, Kind: SymbolPixmap, Image: img, Anchor: orb.Point{0.5, 0.5}, Transparent: -1}
}

// NewTruetypeSymbol returns a symbol that draws character in the named font.
func NewTruetypeSymbol(name, font, character string, filled bool) *Symbol {
	return &Symbol{Name: name, Kind: SymbolTruetype, Font: font, Character: character, Filled: filled, Anchor: orb.Point{0.5, 0.5}, Transparent: -1}
}

// NewHatchSymbol returns a hatch pattern symbol.
func NewHatchSymbol(name string) *Symbol {
	return &Symbol{Name: name, Kind: SymbolHatch, Anchor: orb.Point{0.5, 0.5}, Transparent: -1}
}

// NewSVGSymbol returns a symbol for an SVG document.
func NewSVGSymbol(name string, data []byte) *Symbol {
	return &Symbol{Name: name, Kind: SymbolSVG, SVGData: data, Anchor: orb.Point{0.5, 0.5}, Transparent: -1}
}

// DefaultSize is the size the style size is relative to: one for truetype symbols, else the nominal height.
func (s *Symbol) DefaultSize() float64 {
	if s.Kind == SymbolTruetype {
		return 1.0
	}
	if s.SizeY <= 0.0 {
		return 1.0
	}
	return s.SizeY
}

// Preload loads lazy handles: decodes pixmaps, parses SVG documents and computes the nominal size. It is safe for concurrent use and runs once.
func (s *Symbol) Preload() error {
	s.once.Do(func() {
		s.loadErr = s.load()
	})
	return s.loadErr
}

func (s *Symbol) load() error {
	switch s.Kind {
	case SymbolVector:
		if s.SizeX <= 0.0 || s.SizeY <= 0.0 {
			var maxx, maxy float64
			for _, p := range s.Points {
				if p == PenUp {
					continue
				}
				maxx = math.Max(maxx, p[0])
				maxy = math.Max(maxy, p[1])
			}
			if s.SizeX <= 0.0 {
				s.SizeX = maxx
			}
			if s.SizeY <= 0.0 {
				s.SizeY = maxy
			}
		}
	case SymbolEllipse:
		if 0 < len(s.Points) && (s.SizeX <= 0.0 || s.SizeY <= 0.0) {
			s.SizeX = 2.0 * s.Points[0][0]
			s.SizeY = 2.0 * s.Points[0][1]
		}
	case SymbolPixmap:
		img := s.Image
		if img == nil {
			if s.ImageFile == "" {
				return newError(ErrResource, "Symbol.Preload", "pixmap symbol %q has no image", s.Name)
			}
			unlock := acquire(LockPixmap)
			f, err := os.Open(s.ImageFile)
			if err != nil {
				unlock()
				return wrapError(ErrResource, "Symbol.Preload", err)
			}
			img, _, err = image.Decode(f)
			f.Close()
			unlock()
			if err != nil {
				return wrapError(ErrResource, "Symbol.Preload", fmt.Errorf("%s: %w", s.ImageFile, err))
			}
		}
		s.pixmap = toRGBA(img, s.Transparent)
		size := s.pixmap.Bounds().Size()
		if s.SizeX <= 0.0 {
			s.SizeX = float64(size.X)
		}
		if s.SizeY <= 0.0 {
			s.SizeY = float64(size.Y)
		}
	case SymbolSVG:
		data := s.SVGData
		if data == nil && s.ImageFile != "" {
			var err error
			if data, err = os.ReadFile(s.ImageFile); err != nil {
				return wrapError(ErrResource, "Symbol.Preload", err)
			}
		}
		unlock := acquire(LockSVG)
		icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.StrictErrorMode)
		unlock()
		if err != nil {
			return wrapError(ErrResource, "Symbol.Preload", fmt.Errorf("svg symbol %q: %w", s.Name, err))
		} else if icon.ViewBox.W <= 0.0 || icon.ViewBox.H <= 0.0 {
			return newError(ErrResource, "Symbol.Preload", "svg symbol %q has no size", s.Name)
		}
		s.svg = icon
		if s.SizeX <= 0.0 {
			s.SizeX = icon.ViewBox.W
		}
		if s.SizeY <= 0.0 {
			s.SizeY = icon.ViewBox.H
		}
	case SymbolTruetype:
		if s.Character == "" {
			return newError(ErrResource, "Symbol.Preload", "truetype symbol %q has no character", s.Name)
		}
		var fonts *FontSet
		if s.set != nil {
			fonts = s.set.Fonts
		}
		if fonts == nil {
			fonts = NewFontSet()
		}
		face, err := fonts.Get(s.Font)
		if err != nil {
			return err
		}
		if err := face.load(); err != nil {
			return err
		}
		s.face = face
	}
	return nil
}

// Pixmap returns the decoded image of a pixmap symbol, nil before Preload.
func (s *Symbol) Pixmap() *image.RGBA {
	return s.pixmap
}

// SVG returns the parsed document of an SVG symbol, nil before Preload.
func (s *Symbol) SVG() *oksvg.SvgIcon {
	return s.svg
}

// Face returns the font of a truetype symbol, nil before Preload.
func (s *Symbol) Face() *Font {
	return s.face
}

// RasterizeSVG renders an SVG symbol scaled by scale into a new image of its scaled size.
func (s *Symbol) RasterizeSVG(scale float64) (*image.RGBA, error) {
	if err := s.Preload(); err != nil {
		return nil, err
	} else if s.svg == nil {
		return nil, newError(ErrResource, "Symbol.RasterizeSVG", "symbol %q is not an svg symbol", s.Name)
	}
	w := int(math.Max(1.0, math.Ceil(s.SizeX*scale)))
	h := int(math.Max(1.0, math.Ceil(s.SizeY*scale)))
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	unlock := acquire(LockSVG)
	defer unlock()
	scanner := rasterx.NewScannerGV(w, h, img, img.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	s.svg.SetTarget(0.0, 0.0, float64(w), float64(h))
	s.svg.Draw(dasher, 1.0)
	return img, nil
}

// VectorPath returns the outline of a vector symbol scaled by scale and centered on its nominal size, in symbol-local coordinates.
func (s *Symbol) VectorPath(scale float64) *Path {
	p := &Path{}
	dx, dy := s.SizeX*scale/2.0, s.SizeY*scale/2.0
	penUp := true
	for _, q := range s.Points {
		if q == PenUp {
			if s.Filled && !penUp {
				p.Close()
			}
			penUp = true
			continue
		}
		x, y := q[0]*scale-dx, q[1]*scale-dy
		if penUp {
			p.MoveTo(x, y)
			penUp = false
		} else {
			p.LineTo(x, y)
		}
	}
	if s.Filled && !penUp {
		p.Close()
	}
	return p
}

func toRGBA(img image.Image, transparent int) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && transparent < 0 {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if pal, ok := img.(*image.Paletted); ok && 0 <= transparent && transparent < len(pal.Palette) {
		for y := 0; y < bounds.Dy(); y++ {
			for x := 0; x < bounds.Dx(); x++ {
				if int(pal.ColorIndexAt(bounds.Min.X+x, bounds.Min.Y+y)) != transparent {
					rgba.Set(x, y, pal.At(bounds.Min.X+x, bounds.Min.Y+y))
				}
			}
		}
		return rgba
	}
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}

////////////////////////////////////////////////////////////////

// SymbolSet is the append-only symbol catalog. Styles refer to symbols by index; index 0 is the default simple symbol.
type SymbolSet struct {
	Fonts *FontSet // resolves the fonts of truetype symbols

	symbols []*Symbol
	names   map[string]int
}

// NewSymbolSet returns a catalog holding only the default symbol at index 0.
func NewSymbolSet() *SymbolSet {
	return &SymbolSet{
		symbols: []*Symbol{{Name: "default", Kind: SymbolSimple, Anchor: orb.Point{0.5, 0.5}, Transparent: -1}},
		names:   map[string]int{"default": 0},
	}
}

// Add appends a symbol and returns its index.
func (set *SymbolSet) Add(s *Symbol) int {
	if s.Anchor == (orb.Point{}) {
		s.Anchor = orb.Point{0.5, 0.5}
	}
	s.set = set
	set.symbols = append(set.symbols, s)
	if s.Name != "" {
		if _, ok := set.names[s.Name]; !ok {
			set.names[s.Name] = len(set.symbols) - 1
		}
	}
	return len(set.symbols) - 1
}

// Len returns the number of symbols.
func (set *SymbolSet) Len() int {
	return len(set.symbols)
}

// Get returns the symbol at index i, or nil when out of range.
func (set *SymbolSet) Get(i int) *Symbol {
	if set == nil || i < 0 || len(set.symbols) <= i {
		return nil
	}
	return set.symbols[i]
}

// Index returns the index of the named symbol.
func (set *SymbolSet) Index(name string) (int, bool) {
	i, ok := set.names[name]
	return i, ok
}
