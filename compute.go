package maprender

import (
	"image/color"
	"math"
)

// ComputedStyle is the style resolved for one drawing call in device units. Nil colors are not drawn.
type ComputedStyle struct {
	Color           *color.RGBA
	OutlineColor    *color.RGBA
	BackgroundColor *color.RGBA
	OutlineWidth    float64
	Scale           float64 // target size over the symbol's default size
	Rotation        float64 // radians counter-clockwise
	Gap             float64

	Style *Style // source style, read-only
}

// ComputeSymbolStyle resolves the final size, outline width, rotation and colors for drawing symbol with style. The scalefactor is the ratio between layer size units and map pixels, the resolutionfactor the ratio between the output and the default resolution.
func ComputeSymbolStyle(style *Style, symbol *Symbol, scalefactor, resolutionfactor float64) ComputedStyle {
	defaultSize := symbol.DefaultSize()
	styleSize := style.Size
	if styleSize < 0.0 {
		styleSize = defaultSize
	}

	cs := ComputedStyle{Style: style}
	fill := applyOpacity(style.Color, style.Opacity)
	outline := applyOpacity(style.OutlineColor, style.Opacity)
	switch {
	case symbol.Kind == SymbolPixmap:
		// pixmaps carry their own colors
	case symbol.Filled || symbol.Kind == SymbolTruetype:
		if HasColor(fill) {
			cs.Color = &fill
		}
		if HasColor(outline) {
			cs.OutlineColor = &outline
		}
	default:
		// unfilled symbols are stroked with the fill color, kept for compatibility
		if HasColor(fill) {
			cs.OutlineColor = &fill
		} else if HasColor(outline) {
			cs.OutlineColor = &outline
		}
	}
	if background := applyOpacity(style.BackgroundColor, style.Opacity); HasColor(background) {
		cs.BackgroundColor = &background
	}

	targetSize := styleSize * scalefactor
	targetSize = math.Max(targetSize, style.MinSize*resolutionfactor)
	targetSize = math.Min(targetSize, style.MaxSize*resolutionfactor)
	cs.Scale = targetSize / defaultSize
	if styleSize != 0.0 {
		cs.Gap = style.Gap * targetSize / styleSize
	}

	if cs.OutlineColor != nil {
		cs.OutlineWidth = style.Width * scalefactor
		cs.OutlineWidth = math.Max(cs.OutlineWidth, style.MinWidth*resolutionfactor)
		cs.OutlineWidth = math.Min(cs.OutlineWidth, style.MaxWidth*resolutionfactor)
	}
	cs.Rotation = style.Angle * math.Pi / 180.0
	return cs
}

// Drawable is false when the symbol needs a color but none resolved.
func (cs *ComputedStyle) Drawable(symbol *Symbol) bool {
	if symbol.Kind == SymbolPixmap || symbol.Kind == SymbolSVG {
		return true
	}
	return cs.Color != nil || cs.OutlineColor != nil
}

// equalColor compares nullable colors byte by byte.
func equalColor(a, b *color.RGBA) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// lineWidth scales a style width and clamps it to its bounds.
func lineWidth(style *Style, scalefactor, resolutionfactor float64) float64 {
	width := style.Width * scalefactor
	width = math.Min(width, style.MaxWidth*resolutionfactor)
	width = math.Max(width, style.MinWidth*resolutionfactor)
	return width
}

// MarkerSize returns the device size of the marker drawn by style, zero for the simple symbol.
func MarkerSize(symbols *SymbolSet, style *Style, scalefactor, resolutionfactor float64) (float64, float64) {
	symbol := symbols.Get(style.Symbol)
	if symbol == nil || style.Symbol == 0 || symbol.Kind == SymbolSimple || symbol.Kind == SymbolHatch {
		return 0.0, 0.0
	}
	if err := symbol.Preload(); err != nil {
		return 0.0, 0.0
	}
	cs := ComputeSymbolStyle(style, symbol, scalefactor, resolutionfactor)
	if symbol.Kind == SymbolTruetype {
		size := cs.Scale
		return size, size
	}
	w := math.Max(1.0, symbol.SizeX*cs.Scale) + 2.0*cs.OutlineWidth
	h := math.Max(1.0, symbol.SizeY*cs.Scale) + 2.0*cs.OutlineWidth
	return w, h
}
