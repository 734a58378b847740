package maprender

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/paulmach/orb"
	"github.com/tdewolff/test"
)

func TestSymbolSet(t *testing.T) {
	set := NewSymbolSet()
	test.T(t, set.Len(), 1)
	test.T(t, set.Get(0).Kind, SymbolSimple)

	i := set.Add(NewEllipseSymbol("circle", true, 1.0, 1.0))
	test.T(t, i, 1)
	j := set.Add(NewEllipseSymbol("circle", false, 2.0, 2.0))
	test.T(t, j, 2)
	test.T(t, set.Len(), 3)

	idx, ok := set.Index("circle")
	test.That(t, ok)
	test.T(t, idx, 1, "first symbol wins a name")
	_, ok = set.Index("square")
	test.That(t, !ok)

	test.That(t, set.Get(-1) == nil)
	test.That(t, set.Get(3) == nil)
	var nilSet *SymbolSet
	test.That(t, nilSet.Get(0) == nil)
}

func TestSymbolSize(t *testing.T) {
	vector := NewVectorSymbol("triangle", true, orb.Point{0, 4}, orb.Point{3, 0}, orb.Point{6, 4}, orb.Point{0, 4})
	test.Error(t, vector.Preload())
	test.Float(t, vector.SizeX, 6.0)
	test.Float(t, vector.SizeY, 4.0)
	test.Float(t, vector.DefaultSize(), 4.0)

	ellipse := NewEllipseSymbol("ellipse", true, 3.0, 2.0)
	test.Error(t, ellipse.Preload())
	test.Float(t, ellipse.SizeX, 6.0)
	test.Float(t, ellipse.SizeY, 4.0)

	pixmap := NewPixmapSymbol("pixmap", image.NewRGBA(image.Rect(0, 0, 5, 7)))
	test.Error(t, pixmap.Preload())
	test.Float(t, pixmap.SizeX, 5.0)
	test.Float(t, pixmap.SizeY, 7.0)

	truetype := NewTruetypeSymbol("letter", "", "A", true)
	test.Error(t, truetype.Preload())
	test.Float(t, truetype.DefaultSize(), 1.0)
	test.That(t, truetype.Face() != nil)
}

func TestSymbolPreloadErrors(t *testing.T) {
	var tts = []struct {
		symbol *Symbol
	}{
		{NewPixmapSymbol("empty", nil)},
		{&Symbol{Name: "file", Kind: SymbolPixmap, ImageFile: "does-not-exist.png", Transparent: -1}},
		{NewSVGSymbol("svg", []byte("not svg"))},
		{NewTruetypeSymbol("nochar", "", "", true)},
		{NewTruetypeSymbol("nofont", "missing", "A", true)},
	}
	for _, tt := range tts {
		t.Run(tt.symbol.Name, func(t *testing.T) {
			err := tt.symbol.Preload()
			test.That(t, errors.Is(err, ErrResource))
			test.That(t, errors.Is(tt.symbol.Preload(), ErrResource), "error is kept")
		})
	}
}

func TestSymbolTransparent(t *testing.T) {
	pal := image.NewPaletted(image.Rect(0, 0, 2, 1), color.Palette{color.RGBA{255, 255, 255, 255}, color.RGBA{255, 0, 0, 255}})
	pal.SetColorIndex(1, 0, 1)

	s := NewPixmapSymbol("pal", pal)
	s.Transparent = 0
	test.Error(t, s.Preload())
	test.T(t, s.Pixmap().RGBAAt(0, 0), color.RGBA{})
	test.T(t, s.Pixmap().RGBAAt(1, 0), color.RGBA{255, 0, 0, 255})

	s = NewPixmapSymbol("opaque", pal)
	test.Error(t, s.Preload())
	test.T(t, s.Pixmap().RGBAAt(0, 0), color.RGBA{255, 255, 255, 255})
}

func TestSymbolVectorPath(t *testing.T) {
	cross := NewVectorSymbol("cross", false, orb.Point{0, 0}, orb.Point{4, 4}, PenUp, orb.Point{0, 4}, orb.Point{4, 0})
	test.Error(t, cross.Preload())
	p := cross.VectorPath(2.0)
	test.T(t, len(p.Segs), 4)
	test.T(t, p.Segs[0].Op, MoveToOp)
	test.T(t, p.Segs[2].Op, MoveToOp)
	test.T(t, p.Segs[0].P[0], orb.Point{-4, -4})
	test.T(t, p.Segs[1].P[0], orb.Point{4, 4})

	square := NewVectorSymbol("square", true, orbSquare(2.0)...)
	test.Error(t, square.Preload())
	p = square.VectorPath(1.0)
	test.T(t, p.Segs[len(p.Segs)-1].Op, CloseOp)
	test.T(t, p.Bound(), orb.Bound{Min: orb.Point{-1, -1}, Max: orb.Point{1, 1}})
}

func TestSymbolRasterizeSVG(t *testing.T) {
	s := NewSVGSymbol("box", []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 10 20"><rect width="10" height="20" fill="#f00"/></svg>`))
	img, err := s.RasterizeSVG(1.5)
	test.Error(t, err)
	test.T(t, img.Bounds().Size(), image.Point{15, 30})
	test.T(t, img.RGBAAt(7, 15), color.RGBA{255, 0, 0, 255})

	_, err = NewEllipseSymbol("circle", true, 1.0, 1.0).RasterizeSVG(1.0)
	test.That(t, errors.Is(err, ErrResource))
}

func TestSymbolSVGSize(t *testing.T) {
	s := NewSVGSymbol("wh", []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="8" height="4"><rect width="8" height="4" fill="#f00"/></svg>`))
	test.Error(t, s.Preload())
	test.Float(t, s.SizeX, 8.0)
	test.Float(t, s.SizeY, 4.0)

	s = NewSVGSymbol("empty", []byte(`<svg xmlns="http://www.w3.org/2000/svg"></svg>`))
	test.That(t, errors.Is(s.Preload(), ErrResource))
}
