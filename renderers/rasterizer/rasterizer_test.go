package rasterizer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/paulmach/orb"
	"github.com/tdewolff/maprender"
	"github.com/tdewolff/test"
)

var red = color.RGBA{255, 0, 0, 255}
var blue = color.RGBA{0, 0, 255, 255}

func rect(x0, y0, x1, y1 float64) *maprender.Shape {
	return maprender.NewShape(orb.Bound{Min: orb.Point{x0, y0}, Max: orb.Point{x1, y1}})
}

func polygonMap(opacity float64) *maprender.Map {
	m := maprender.New(100, 100)
	m.Background = blue
	l := maprender.NewLayer("polygons", maprender.LayerPolygon)
	l.Opacity = opacity
	l.Classes = []maprender.Class{{Styles: []maprender.Style{maprender.NewStyle(0, red)}}}
	l.Add(rect(20, 20, 80, 80), 0)
	m.AddLayer(l)
	return m
}

func TestRenderPolygon(t *testing.T) {
	r := New(10, 10)
	test.Error(t, r.RenderPolygon(rect(2, 2, 8, 8), red))
	test.T(t, r.Image().RGBAAt(5, 5), red)
	test.T(t, r.Image().RGBAAt(0, 0), color.RGBA{})

	// even-odd hole
	r = New(10, 10)
	s := maprender.NewShape(orb.Polygon{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{3, 3}, {7, 3}, {7, 7}, {3, 7}, {3, 3}},
	})
	test.Error(t, r.RenderPolygon(s, red))
	test.T(t, r.Image().RGBAAt(1, 1), red)
	test.T(t, r.Image().RGBAAt(5, 5), color.RGBA{})
}

func TestRenderLine(t *testing.T) {
	r := New(20, 20)
	s := maprender.NewShape(orb.LineString{{0, 10}, {20, 10}})
	test.Error(t, r.RenderLine(s, maprender.StrokeStyle{Color: red, Width: 4.0}))
	test.T(t, r.Image().RGBAAt(10, 10), red)
	test.T(t, r.Image().RGBAAt(10, 2), color.RGBA{})
}

func TestRenderPolygonTiled(t *testing.T) {
	tile := image.NewRGBA(image.Rect(0, 0, 2, 2))
	tile.SetRGBA(0, 0, red)
	tile.SetRGBA(1, 1, red)

	r := New(10, 10)
	test.Error(t, r.RenderPolygonTiled(rect(0, 0, 10, 10), tile))
	test.T(t, r.Image().RGBAAt(4, 4), red)
	test.T(t, r.Image().RGBAAt(5, 4), color.RGBA{})
	test.T(t, r.Image().RGBAAt(5, 5), red)

	// hole wound like its outer ring
	r = New(10, 10)
	s := maprender.NewShape(orb.Polygon{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{2, 2}, {8, 2}, {8, 8}, {2, 8}, {2, 2}},
	})
	test.Error(t, r.RenderPolygonTiled(s, tile))
	test.T(t, r.Image().RGBAAt(0, 0), red)
	test.T(t, r.Image().RGBAAt(4, 4), color.RGBA{})
}

func TestMergeRasterBuffer(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 255
	}

	r := New(4, 4)
	test.Error(t, r.MergeRasterBuffer(src, 100.0, image.Rect(0, 0, 2, 2), image.Pt(2, 2)))
	test.T(t, r.Image().RGBAAt(0, 0), color.RGBA{})
	test.T(t, r.Image().RGBAAt(3, 3), color.RGBA{255, 255, 255, 255})

	r = New(4, 4)
	test.Error(t, r.MergeRasterBuffer(src, 50.0, src.Bounds(), image.Point{}))
	test.T(t, r.Image().RGBAAt(0, 0).A, uint8(128))
}

func TestRasterLayers(t *testing.T) {
	r := New(1, 1)
	test.That(t, maprender.IsUnsupported(r.StartLayer(50.0)))

	_, err := r.NewRasterImage(0, 10)
	test.That(t, err != nil)
}

func TestDrawOpacity(t *testing.T) {
	// an opaque layer is drawn directly
	img, err := Draw(polygonMap(100.0))
	test.Error(t, err)
	test.T(t, img.RGBAAt(50, 50), red)
	test.T(t, img.RGBAAt(5, 5), blue)

	// a half transparent layer is composited through a scratch image
	img, err = Draw(polygonMap(50.0))
	test.Error(t, err)
	c := img.RGBAAt(50, 50)
	test.That(t, 120 < c.R && c.R < 135, "red half blended")
	test.That(t, 120 < c.B && c.B < 135, "blue half blended")
	test.T(t, c.A, uint8(255))
	test.T(t, img.RGBAAt(5, 5), blue)

	img, err = Draw(polygonMap(0.0))
	test.Error(t, err)
	test.T(t, img.RGBAAt(50, 50), blue)
}

func TestDrawMarkers(t *testing.T) {
	m := maprender.New(100, 100)
	circle := m.Symbols.Add(maprender.NewEllipseSymbol("circle", true, 1.0, 1.0))
	l := maprender.NewLayer("points", maprender.LayerPoint)
	style := maprender.NewStyle(circle, red)
	style.Size = 10.0
	l.Classes = []maprender.Class{{Styles: []maprender.Style{style}}}
	l.Add(maprender.NewShape(orb.Point{25, 25}), 0)
	l.Add(maprender.NewShape(orb.Point{75, 75}), 0)
	m.AddLayer(l)

	img, err := Draw(m)
	test.Error(t, err)
	test.T(t, img.RGBAAt(25, 25), red)
	test.T(t, img.RGBAAt(75, 75), red)
	test.T(t, img.RGBAAt(50, 50), color.RGBA{})
}

func TestPNGWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	test.Error(t, PNGWriter()(buf, polygonMap(100.0)))

	img, err := png.Decode(buf)
	test.Error(t, err)
	test.T(t, img.Bounds(), image.Rect(0, 0, 100, 100))
	r, _, _, _ := img.At(50, 50).RGBA()
	test.T(t, r, uint32(0xffff))
}
