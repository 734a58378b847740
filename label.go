package maprender

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// MaxPriority is the number of label priority slots; priorities run from 0 to MaxPriority-1 and higher priorities are placed first.
const MaxPriority = 10

// Position is the placement of a label relative to its anchor point.
type Position int

// see Position
const (
	PositionUL Position = iota
	PositionUC
	PositionUR
	PositionCL
	PositionCC
	PositionCR
	PositionLL
	PositionLC
	PositionLR
	PositionAuto
)

func (p Position) String() string {
	switch p {
	case PositionUL:
		return "UL"
	case PositionUC:
		return "UC"
	case PositionUR:
		return "UR"
	case PositionCL:
		return "CL"
	case PositionCC:
		return "CC"
	case PositionCR:
		return "CR"
	case PositionLL:
		return "LL"
	case PositionLC:
		return "LC"
	case PositionLR:
		return "LR"
	case PositionAuto:
		return "AUTO"
	}
	return fmt.Sprintf("Position(%d)", int(p))
}

// ParsePosition parses a two letter position code or AUTO.
func ParsePosition(s string) (Position, error) {
	for p := PositionUL; p <= PositionAuto; p++ {
		if strings.EqualFold(s, p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown label position %q", s)
}

// candidate positions tried in order for AUTO placement
var (
	pointPositions   = []Position{PositionUL, PositionLR, PositionUR, PositionLL, PositionCR, PositionCL, PositionUC, PositionLC}
	linePositions    = []Position{PositionUC, PositionLC, PositionCC}
	polygonPositions = []Position{PositionCC, PositionUC, PositionLC, PositionCL, PositionCR}
)

// AngleMode is how the label angle is chosen.
type AngleMode int

// see AngleMode
const (
	AngleFixed  AngleMode = iota // Label.Angle
	AngleAuto                    // along the line segment the label is placed on
	AngleFollow                  // glyphs follow the line
)

// Label is the text styling and placement rules of a class.
type Label struct {
	Font                   string
	Size, MinSize, MaxSize float64

	Color        color.RGBA
	OutlineColor color.RGBA // halo
	OutlineWidth float64

	ShadowColor              color.RGBA
	ShadowSizeX, ShadowSizeY float64

	BackgroundColor                              color.RGBA
	BackgroundShadowColor                        color.RGBA
	BackgroundShadowSizeX, BackgroundShadowSizeY float64
	Padding                                      float64

	OffsetX, OffsetY float64
	Angle            float64 // degrees counter-clockwise
	AngleMode        AngleMode
	Position         Position

	Buffer             float64 // extra space around the label kept free of other labels
	MinDistance        float64 // minimum distance between labels with the same text, negative disables
	MinFeatureSize     float64 // features smaller than this (in pixels) are not labeled, negative disables
	AutoMinFeatureSize bool    // features smaller than their label are not labeled
	Force              bool    // place regardless of collisions
	Partials           bool    // allow labels crossing the image edge
	Priority           int
	Encoding           string  // text encoding converted to UTF-8, empty for UTF-8
	Wrap               rune    // character replaced by line breaks, zero for none
	MaxOverlapAngle    float64 // degrees, maximum angle between consecutive glyphs of follow labels

	Markers []Style // drawn with the label when it is placed

	MinScaleDenom, MaxScaleDenom float64
}

// DefaultLabel is the zero label with the default values filled in.
var DefaultLabel = Label{
	Size:            10.0,
	MinSize:         4.0,
	MaxSize:         256.0,
	Color:           color.RGBA{0, 0, 0, 255},
	Position:        PositionCC,
	MinDistance:     -1.0,
	MinFeatureSize:  -1.0,
	Priority:        1,
	MaxOverlapAngle: 22.5,
}

// NewLabel returns DefaultLabel with the given size and position.
func NewLabel(size float64, pos Position) Label {
	l := DefaultLabel
	l.Size = size
	l.Position = pos
	return l
}

// InScale is true when the scale denominator lies within the label's bounds.
func (l *Label) InScale(scaleDenom float64) bool {
	return inScale(scaleDenom, l.MinScaleDenom, l.MaxScaleDenom)
}

// Text converts text to UTF-8 and applies the wrap character.
func (l *Label) Text(text string) (string, error) {
	if l.Encoding != "" && !strings.EqualFold(l.Encoding, "utf-8") {
		enc, err := htmlindex.Get(l.Encoding)
		if err != nil {
			return "", wrapError(ErrResource, "Label.Text", err)
		}
		if text, err = enc.NewDecoder().String(text); err != nil {
			return "", wrapError(ErrResource, "Label.Text", err)
		}
	}
	if l.Wrap != 0 {
		text = strings.ReplaceAll(text, string(l.Wrap), "\n")
	}
	return text, nil
}

// size returns the font size in pixels.
func (l *Label) size(scalefactor, resolutionfactor float64) float64 {
	size := l.Size * scalefactor
	size = math.Max(size, l.MinSize*resolutionfactor)
	size = math.Min(size, l.MaxSize*resolutionfactor)
	return size
}

func (l *Label) clamp() {
	if l.Priority < 0 {
		l.Priority = 0
	} else if MaxPriority <= l.Priority {
		l.Priority = MaxPriority - 1
	}
}
