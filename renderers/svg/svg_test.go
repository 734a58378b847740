package svg

import (
	"bytes"
	"compress/gzip"
	"image"
	"image/color"
	"io"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/tdewolff/maprender"
	"github.com/tdewolff/test"
)

var red = color.RGBA{255, 0, 0, 255}

func polygonMap(opacity float64) *maprender.Map {
	m := maprender.New(100, 100)
	l := maprender.NewLayer("polygons", maprender.LayerPolygon)
	l.Opacity = opacity
	l.Classes = []maprender.Class{{Styles: []maprender.Style{maprender.NewStyle(0, red)}}}
	l.Add(maprender.NewShape(orb.Bound{Min: orb.Point{10, 10}, Max: orb.Point{20, 20}}), 0)
	m.AddLayer(l)
	return m
}

func TestSVGWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	test.Error(t, Writer(nil)(buf, polygonMap(100.0)))
	test.String(t, buf.String(), `<svg version="1.1" width="100" height="100" viewBox="0 0 100 100" xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink"><path d="M10 10L20 10L20 20L10 20L10 10z" fill="#f00" fill-rule="evenodd"/></svg>`)
}

func TestSVGLayerOpacity(t *testing.T) {
	buf := &bytes.Buffer{}
	test.Error(t, Writer(nil)(buf, polygonMap(50.0)))
	test.That(t, strings.Contains(buf.String(), `<g opacity=".5"><path`))
	test.That(t, strings.HasSuffix(buf.String(), `</g></svg>`))
}

func TestSVGStroke(t *testing.T) {
	buf := &bytes.Buffer{}
	r := New(buf, 10, 10, nil)
	s := maprender.NewShape(orb.LineString{{0, 5}, {10, 5}})
	test.Error(t, r.RenderLine(s, maprender.StrokeStyle{
		Width:  2.5,
		Color:  color.RGBA{0, 0, 128, 128},
		Cap:    maprender.CapSquare,
		Join:   maprender.JoinMiter,
		Dashes: []float64{4.0, 2.0},
	}))
	test.Error(t, r.Close())
	test.That(t, strings.Contains(buf.String(), `<path d="M0 5L10 5" style="fill:none;stroke:#00f;stroke-opacity:.50196078;stroke-width:2.5;stroke-linecap:square;stroke-dasharray:4 2"/>`), buf.String())
}

func TestSVGPattern(t *testing.T) {
	tile := image.NewRGBA(image.Rect(0, 0, 4, 4))
	buf := &bytes.Buffer{}
	r := New(buf, 10, 10, nil)
	s := maprender.NewShape(orb.Bound{Max: orb.Point{10, 10}})
	test.Error(t, r.RenderPolygonTiled(s, tile))
	test.Error(t, r.RenderPolygonTiled(s, tile))
	test.Error(t, r.Close())
	test.T(t, strings.Count(buf.String(), `<pattern id="p1"`), 1)
	test.T(t, strings.Count(buf.String(), `fill="url(#p1)"`), 2)
}

func TestSVGUnsupported(t *testing.T) {
	r := New(io.Discard, 10, 10, nil)
	_, err := r.RasterBuffer()
	test.That(t, maprender.IsUnsupported(err))
	test.That(t, !r.Capabilities().UseImageCache)
}

func TestSVGCompression(t *testing.T) {
	buf := &bytes.Buffer{}
	test.Error(t, Writer(&Options{Compression: -1})(buf, polygonMap(100.0)))

	gz, err := gzip.NewReader(buf)
	test.Error(t, err)
	b, err := io.ReadAll(gz)
	test.Error(t, err)
	test.That(t, strings.HasPrefix(string(b), "<svg"))
	test.That(t, strings.HasSuffix(string(b), "</svg>"))
}
