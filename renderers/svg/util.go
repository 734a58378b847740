package svg

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/tdewolff/maprender"
	"github.com/tdewolff/minify/v2"
)

// Precision is the number of significant digits of coordinates.
var Precision = 8

func pathData(p *maprender.Path) string {
	sb := strings.Builder{}
	for _, seg := range p.Segs {
		switch seg.Op {
		case maprender.MoveToOp:
			fmt.Fprintf(&sb, "M%v %v", num(seg.P[0][0]), num(seg.P[0][1]))
		case maprender.LineToOp:
			fmt.Fprintf(&sb, "L%v %v", num(seg.P[0][0]), num(seg.P[0][1]))
		case maprender.QuadToOp:
			fmt.Fprintf(&sb, "Q%v %v %v %v", num(seg.P[0][0]), num(seg.P[0][1]), num(seg.P[1][0]), num(seg.P[1][1]))
		case maprender.CubeToOp:
			fmt.Fprintf(&sb, "C%v %v %v %v %v %v", num(seg.P[0][0]), num(seg.P[0][1]), num(seg.P[1][0]), num(seg.P[1][1]), num(seg.P[2][0]), num(seg.P[2][1]))
		case maprender.CloseOp:
			sb.WriteString("z")
		}
	}
	return sb.String()
}

func matrix(m [6]float64) string {
	return fmt.Sprintf("matrix(%v,%v,%v,%v,%v,%v)", dec(m[0]), dec(m[3]), dec(m[1]), dec(m[4]), dec(m[2]), dec(m[5]))
}

// cssColor returns the opaque color in hex notation.
func cssColor(c color.RGBA) string {
	if c.A != 0 && c.A != 255 {
		c.R = uint8(uint32(c.R) * 255 / uint32(c.A))
		c.G = uint8(uint32(c.G) * 255 / uint32(c.A))
		c.B = uint8(uint32(c.B) * 255 / uint32(c.A))
	}
	if c.R>>4 == c.R&0x0F && c.G>>4 == c.G&0x0F && c.B>>4 == c.B&0x0F {
		return fmt.Sprintf("#%x%x%x", c.R&0x0F, c.G&0x0F, c.B&0x0F)
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

////////////////////////////////////////////////////////////////

type num float64

func (f num) String() string {
	s := fmt.Sprintf("%.*g", Precision, f)
	if num(math.MaxInt32) < f || f < num(math.MinInt32) {
		if i := strings.IndexAny(s, ".eE"); i == -1 {
			s += ".0"
		}
	}
	return string(minify.Number([]byte(s), Precision))
}

type dec float64

func (f dec) String() string {
	s := fmt.Sprintf("%.*f", Precision, f)
	s = string(minify.Decimal([]byte(s), Precision))
	if dec(math.MaxInt32) < f || f < dec(math.MinInt32) {
		if i := strings.IndexByte(s, '.'); i == -1 {
			s += ".0"
		}
	}
	return s
}
