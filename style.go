package maprender

import (
	"image/color"

	"github.com/paulmach/orb"
)

// Offset sentinels for OffsetY that turn OffsetX into a perpendicular line offset.
const (
	OffsetSingleSided = -99.0
	OffsetDoubleSided = -999.0
)

// LineCap is the shape at the ends of stroked lines.
type LineCap int

// see LineCap
const (
	CapRound LineCap = iota
	CapButt
	CapSquare
)

// LineJoin is the shape at the corners of stroked lines.
type LineJoin int

// see LineJoin
const (
	JoinRound LineJoin = iota
	JoinMiter
	JoinBevel
)

// Style is a styling directive for a shape: which symbol to draw with which colors, sizes and offsets. A color with zero alpha is unset.
type Style struct {
	Symbol int // index into the SymbolSet, 0 is the simple symbol

	Color           color.RGBA
	OutlineColor    color.RGBA
	BackgroundColor color.RGBA
	Opacity         float64 // in [0,100]

	Size, MinSize, MaxSize    float64 // Size < 0 uses the symbol's default size
	Width, MinWidth, MaxWidth float64
	OutlineWidth              float64 // outline drawn below lines, grows the width on both sides

	Angle      float64 // degrees counter-clockwise
	Gap        float64
	InitialGap float64 // < 0 starts at half a gap

	OffsetX, OffsetY float64

	LineCap     LineCap
	LineJoin    LineJoin
	JoinMaxSize float64
	Pattern     []float64 // dash pattern in style units

	MinScaleDenom, MaxScaleDenom float64 // zero is unbounded
}

// DefaultStyle is the zero style with the default values filled in.
var DefaultStyle = Style{
	Opacity:     100.0,
	Size:        -1.0,
	MinSize:     0.0,
	MaxSize:     500.0,
	Width:       1.0,
	MinWidth:    0.0,
	MaxWidth:    32.0,
	InitialGap:  -1.0,
	LineCap:     CapRound,
	LineJoin:    JoinRound,
	JoinMaxSize: 3.0,
}

// NewStyle returns DefaultStyle with the given symbol and color.
func NewStyle(symbol int, col color.RGBA) Style {
	s := DefaultStyle
	s.Symbol = symbol
	s.Color = col
	return s
}

// HasColor is true when c is set.
func HasColor(c color.RGBA) bool {
	return c.A != 0
}

// InScale is true when the scale denominator lies within the style's bounds.
func (s *Style) InScale(scaleDenom float64) bool {
	return inScale(scaleDenom, s.MinScaleDenom, s.MaxScaleDenom)
}

func inScale(scaleDenom, minDenom, maxDenom float64) bool {
	if scaleDenom <= 0.0 {
		return true
	}
	if 0.0 < maxDenom && maxDenom <= scaleDenom {
		return false
	}
	if 0.0 < minDenom && scaleDenom < minDenom {
		return false
	}
	return true
}

// Offset returns the offset as a point.
func (s *Style) Offset() orb.Point {
	return orb.Point{s.OffsetX, s.OffsetY}
}

// IsParallelOffset is true when OffsetY is one of the perpendicular offset sentinels.
func (s *Style) IsParallelOffset() bool {
	return s.OffsetY == OffsetSingleSided || s.OffsetY == OffsetDoubleSided
}

// Outline returns the style used for the outline pass below lines: width and size grow by the outline width on both sides and color and outline color are swapped. The receiver is not modified.
func (s Style) Outline(scalefactor, resolutionfactor float64) Style {
	if s.OutlineWidth <= 0.0 {
		return s
	}
	o := s
	o.Pattern = append([]float64(nil), s.Pattern...)
	o.Width += s.OutlineWidth / (scalefactor / resolutionfactor) * 2.0
	o.MinWidth += s.OutlineWidth * 2.0
	o.MaxWidth += s.OutlineWidth * 2.0
	if 0.0 < o.Size {
		o.Size += s.OutlineWidth / scalefactor * resolutionfactor
	}
	o.Color, o.OutlineColor = s.OutlineColor, s.Color
	o.OutlineWidth = 0.0
	return o
}

func applyOpacity(c color.RGBA, opacity float64) color.RGBA {
	if opacity >= 100.0 || c.A == 0 {
		return c
	} else if opacity <= 0.0 {
		return color.RGBA{}
	}
	f := opacity / 100.0
	return color.RGBA{uint8(float64(c.R)*f + 0.5), uint8(float64(c.G)*f + 0.5), uint8(float64(c.B)*f + 0.5), uint8(float64(c.A)*f + 0.5)}
}
