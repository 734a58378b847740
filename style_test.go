package maprender

import (
	"image/color"
	"testing"

	"github.com/tdewolff/test"
)

func TestStyleOutline(t *testing.T) {
	style := NewStyle(0, red)
	style.OutlineColor = blue
	style.Width = 2.0
	style.OutlineWidth = 1.0
	style.Size = 6.0
	style.Pattern = []float64{4.0, 2.0}
	orig := style
	orig.Pattern = append([]float64(nil), style.Pattern...)

	outline := style.Outline(1.0, 1.0)
	test.Float(t, outline.Width, 4.0)
	test.Float(t, outline.MaxWidth, 34.0)
	test.Float(t, outline.Size, 7.0)
	test.T(t, outline.Color, blue)
	test.T(t, outline.OutlineColor, red)
	test.Float(t, outline.OutlineWidth, 0.0)

	outline.Pattern[0] = 100.0
	test.T(t, style, orig)

	// scaled layers grow the outline in device units
	outline = style.Outline(2.0, 1.0)
	test.Float(t, outline.Width, 3.0)
	test.Float(t, outline.Size, 6.5)
}

func TestStyleOutlineNone(t *testing.T) {
	style := NewStyle(0, red)
	test.T(t, style.Outline(1.0, 1.0), style)

	style.OutlineWidth = 1.0
	style.Size = -1.0
	test.Float(t, style.Outline(1.0, 1.0).Size, -1.0)
}

func TestInScale(t *testing.T) {
	var tts = []struct {
		scale, min, max float64
		in              bool
	}{
		{0.0, 1000.0, 2000.0, true},
		{1500.0, 1000.0, 2000.0, true},
		{1000.0, 1000.0, 2000.0, true},
		{2000.0, 1000.0, 2000.0, false},
		{500.0, 1000.0, 2000.0, false},
		{500.0, 0.0, 0.0, true},
	}
	for _, tt := range tts {
		test.T(t, inScale(tt.scale, tt.min, tt.max), tt.in)
	}
}

func TestApplyOpacity(t *testing.T) {
	test.T(t, applyOpacity(red, 100.0), red)
	test.T(t, applyOpacity(red, 0.0), color.RGBA{})
	test.T(t, applyOpacity(color.RGBA{}, 50.0), color.RGBA{})
	test.T(t, applyOpacity(color.RGBA{255, 0, 0, 255}, 50.0), color.RGBA{128, 0, 0, 128})
}

func TestParallelOffset(t *testing.T) {
	style := DefaultStyle
	test.That(t, !style.IsParallelOffset())
	style.OffsetY = OffsetSingleSided
	test.That(t, style.IsParallelOffset())
	style.OffsetY = OffsetDoubleSided
	test.That(t, style.IsParallelOffset())
}
