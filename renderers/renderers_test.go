package renderers

import (
	"bytes"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/tdewolff/maprender"
	"github.com/tdewolff/maprender/renderers/svg"
	"github.com/tdewolff/test"
)

func testMap() *maprender.Map {
	m := maprender.New(20, 20)
	l := maprender.NewLayer("lines", maprender.LayerLine)
	l.Classes = []maprender.Class{{Styles: []maprender.Style{maprender.NewStyle(0, color.RGBA{0, 0, 0, 255})}}}
	l.Add(maprender.NewShape(orb.LineString{{0, 10}, {20, 10}}), 0)
	m.AddLayer(l)
	return m
}

func TestWriter(t *testing.T) {
	var tts = []struct {
		filename string
		magic    string
	}{
		{"map.png", "\x89PNG"},
		{"map.JPG", "\xff\xd8"},
		{"map.gif", "GIF8"},
		{"map.tiff", "II*\x00"},
		{"map.svg", "<svg"},
		{"map.svgz", "\x1f\x8b"},
		{"map.pdf", "%PDF"},
	}
	for _, tt := range tts {
		t.Run(tt.filename, func(t *testing.T) {
			writer, err := Writer(tt.filename)
			test.Error(t, err)

			buf := &bytes.Buffer{}
			test.Error(t, writer(buf, testMap()))
			test.That(t, bytes.HasPrefix(buf.Bytes(), []byte(tt.magic)))
		})
	}
}

func TestWriterErrors(t *testing.T) {
	_, err := Writer("map.bmp")
	test.That(t, err != nil)

	_, err = Writer("map.png", 42)
	test.That(t, err != nil)

	_, err = Writer("map.jpg", &jpeg.Options{Quality: 50})
	test.Error(t, err)
}

func TestWriterSVGZ(t *testing.T) {
	opts := &svg.Options{}
	_, err := Writer("map.svgz", opts)
	test.Error(t, err)
	test.T(t, opts.Compression, -1)
}

func TestWrite(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "map.svg")
	test.Error(t, Write(filename, testMap()))

	b, err := os.ReadFile(filename)
	test.Error(t, err)
	test.That(t, bytes.HasSuffix(b, []byte("</svg>")))
}
