package maprender

import (
	"image/color"
	"math"
	"testing"

	"github.com/tdewolff/test"
)

func TestComputeSymbolStyle(t *testing.T) {
	img := newTestImage(newRecorder(100, 100, rasterCaps))
	square := img.Symbols.Get(symSquare)
	test.Error(t, square.Preload())

	style := NewStyle(symSquare, red)
	style.Size = 8.0
	style.OutlineColor = blue
	style.Width = 2.0
	style.Angle = 90.0
	cs := ComputeSymbolStyle(&style, square, 1.0, 1.0)
	test.Float(t, cs.Scale, 2.0) // 8 / 4
	test.T(t, *cs.Color, red)
	test.T(t, *cs.OutlineColor, blue)
	test.Float(t, cs.OutlineWidth, 2.0)
	test.Float(t, cs.Rotation, math.Pi/2.0)
	test.That(t, cs.BackgroundColor == nil)
	test.That(t, cs.Style == &style)
}

func TestComputeSymbolStyleUnfilled(t *testing.T) {
	img := newTestImage(newRecorder(100, 100, rasterCaps))
	cross := img.Symbols.Get(symCross)
	test.Error(t, cross.Preload())

	// the fill color of unfilled symbols becomes the outline color
	style := NewStyle(symCross, red)
	style.OutlineColor = blue
	cs := ComputeSymbolStyle(&style, cross, 1.0, 1.0)
	test.That(t, cs.Color == nil)
	test.T(t, *cs.OutlineColor, red)

	style.Color = color.RGBA{}
	cs = ComputeSymbolStyle(&style, cross, 1.0, 1.0)
	test.T(t, *cs.OutlineColor, blue)
	test.That(t, cs.Drawable(cross))

	style.OutlineColor = color.RGBA{}
	cs = ComputeSymbolStyle(&style, cross, 1.0, 1.0)
	test.That(t, !cs.Drawable(cross))
}

func TestComputeSymbolStylePixmap(t *testing.T) {
	pixmap := NewPixmapSymbol("pixmap", newSolidImage(3, 2, red))
	test.Error(t, pixmap.Preload())

	style := NewStyle(0, red)
	style.OutlineColor = blue
	style.BackgroundColor = blue
	cs := ComputeSymbolStyle(&style, pixmap, 1.0, 1.0)
	test.That(t, cs.Color == nil)
	test.That(t, cs.OutlineColor == nil)
	test.That(t, cs.BackgroundColor != nil)
	test.Float(t, cs.Scale, 1.0) // default size is the image height
	test.That(t, cs.Drawable(pixmap))
}

func TestComputeSymbolStyleClamp(t *testing.T) {
	var tts = []struct {
		size, min, max float64
		scalefactor    float64
		scale          float64
	}{
		{8.0, 0.0, 500.0, 1.0, 2.0},
		{8.0, 0.0, 500.0, 2.0, 4.0},
		{8.0, 0.0, 6.0, 1.0, 1.5},
		{8.0, 12.0, 500.0, 1.0, 3.0},
		{-1.0, 0.0, 500.0, 1.0, 1.0}, // default size
	}
	square := NewVectorSymbol("square", true, orbSquare(4.0)...)
	test.Error(t, square.Preload())
	for _, tt := range tts {
		style := NewStyle(1, red)
		style.Size, style.MinSize, style.MaxSize = tt.size, tt.min, tt.max
		cs := ComputeSymbolStyle(&style, square, tt.scalefactor, 1.0)
		test.Float(t, cs.Scale, tt.scale)
	}
}

func TestComputeSymbolStyleGap(t *testing.T) {
	square := NewVectorSymbol("square", true, orbSquare(4.0)...)
	test.Error(t, square.Preload())

	style := NewStyle(1, red)
	style.Size = 4.0
	style.Gap = -10.0
	cs := ComputeSymbolStyle(&style, square, 2.0, 1.0)
	test.Float(t, cs.Gap, -20.0)
}

func TestComputeSymbolStyleOpacity(t *testing.T) {
	square := NewVectorSymbol("square", true, orbSquare(4.0)...)
	test.Error(t, square.Preload())

	style := NewStyle(1, color.RGBA{200, 0, 0, 200})
	style.Opacity = 50.0
	cs := ComputeSymbolStyle(&style, square, 1.0, 1.0)
	test.T(t, *cs.Color, color.RGBA{100, 0, 0, 100})

	style.Opacity = 0.0
	cs = ComputeSymbolStyle(&style, square, 1.0, 1.0)
	test.That(t, cs.Color == nil)
}

func TestMarkerSize(t *testing.T) {
	img := newTestImage(newRecorder(100, 100, rasterCaps))
	style := NewStyle(symSquare, red)
	style.Size = 8.0
	w, h := MarkerSize(img.Symbols, &style, 1.0, 1.0)
	test.Float(t, w, 8.0)
	test.Float(t, h, 8.0)

	style.Symbol = 0
	w, h = MarkerSize(img.Symbols, &style, 1.0, 1.0)
	test.Float(t, w, 0.0)
	test.Float(t, h, 0.0)

	style.Symbol = 100
	w, h = MarkerSize(img.Symbols, &style, 1.0, 1.0)
	test.Float(t, w, 0.0)
	test.Float(t, h, 0.0)
}
