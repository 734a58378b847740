package maprender

import (
	"errors"
	"testing"

	"github.com/tdewolff/test"
)

func TestFontShape(t *testing.T) {
	font, err := NewFontSet().Get("")
	test.Error(t, err)

	run, err := font.Shape("Map", 20.0)
	test.Error(t, err)
	test.T(t, len(run.Glyphs), 3)
	test.T(t, run.Lines, 1)
	test.That(t, 0.0 < run.Width)
	test.That(t, 0.0 < run.Ascent && 0.0 < run.Descent)
	test.Float(t, run.Glyphs[0].X, 0.0)
	test.That(t, run.Glyphs[0].X < run.Glyphs[1].X && run.Glyphs[1].X < run.Glyphs[2].X)

	// double size doubles the width
	run2, err := font.Shape("Map", 40.0)
	test.Error(t, err)
	test.That(t, run2.Width-2.0*run.Width < 0.1 && 2.0*run.Width-run2.Width < 0.1)
}

func TestFontShapeMultiline(t *testing.T) {
	font, err := NewFontSet().Get(DefaultFont)
	test.Error(t, err)

	run, err := font.Shape("long line\nab", 10.0)
	test.Error(t, err)
	test.T(t, run.Lines, 2)
	test.Float(t, run.Height(), run.Ascent+run.Descent+run.LineHeight)

	// the short line is centered
	last := run.Glyphs[len(run.Glyphs)-2]
	test.That(t, 0.0 < last.X)
	test.Float(t, last.Y, run.LineHeight)
}

func TestGlyphRunPath(t *testing.T) {
	font, err := NewFontSet().Get(DefaultFont)
	test.Error(t, err)

	run, err := font.Shape("H", 100.0)
	test.Error(t, err)
	p, err := run.Place(10.0, 200.0, 0.0).Path()
	test.Error(t, err)
	test.That(t, !p.Empty())

	b := p.Bound()
	test.That(t, 10.0 <= b.Min[0] && b.Max[0] <= 10.0+run.Width)
	test.That(t, 200.0-run.Ascent <= b.Min[1] && b.Max[1] <= 200.0, "glyph above the baseline")
}

func TestFontSet(t *testing.T) {
	fonts := NewFontSet()
	_, err := fonts.Get("missing")
	test.That(t, errors.Is(err, ErrResource))

	fonts.Add("broken", []byte("not a font"))
	font, err := fonts.Get("broken")
	test.Error(t, err)
	_, err = font.Shape("text", 10.0)
	test.That(t, errors.Is(err, ErrResource))

	fonts.AddFile("file", "does-not-exist.ttf")
	font, _ = fonts.Get("file")
	_, err = font.SFNT()
	test.That(t, errors.Is(err, ErrResource))
}

func TestLabelText(t *testing.T) {
	label := DefaultLabel
	label.Wrap = '|'
	text, err := label.Text("first|second")
	test.Error(t, err)
	test.String(t, text, "first\nsecond")

	label.Wrap = 0
	label.Encoding = "iso-8859-1"
	text, err = label.Text("Stra\xdfe")
	test.Error(t, err)
	test.String(t, text, "Straße")

	label.Encoding = "no-such-encoding"
	_, err = label.Text("text")
	test.That(t, errors.Is(err, ErrResource))
}

func TestLabelSize(t *testing.T) {
	label := NewLabel(10.0, PositionCC)
	test.Float(t, label.size(1.0, 1.0), 10.0)
	test.Float(t, label.size(2.0, 1.0), 20.0)
	test.Float(t, label.size(0.1, 1.0), 4.0)
	test.Float(t, label.size(100.0, 1.0), 256.0)
	test.Float(t, label.size(0.1, 2.0), 8.0)
}

func TestLabelPriorityClamp(t *testing.T) {
	label := DefaultLabel
	label.Priority = 20
	label.clamp()
	test.T(t, label.Priority, MaxPriority-1)
	label.Priority = -5
	label.clamp()
	test.T(t, label.Priority, 0)
}

func TestParsePosition(t *testing.T) {
	for p := PositionUL; p <= PositionAuto; p++ {
		q, err := ParsePosition(p.String())
		test.Error(t, err)
		test.T(t, q, p)
	}
	p, err := ParsePosition("ur")
	test.Error(t, err)
	test.T(t, p, PositionUR)
	_, err = ParsePosition("top")
	test.That(t, err != nil)
}

func TestParseLayerType(t *testing.T) {
	typ, err := ParseLayerType("polygon")
	test.Error(t, err)
	test.T(t, typ, LayerPolygon)
	test.String(t, LayerAnnotation.String(), "annotation")
	_, err = ParseLayerType("raster")
	test.That(t, err != nil)
}
