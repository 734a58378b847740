package rasterizer

import (
	"image"
	"image/color"

	"github.com/srwiley/rasterx"
	"github.com/tdewolff/maprender"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// TileImage is an unbounded image repeating a tile from the origin.
type TileImage struct {
	tile *image.RGBA
	size image.Point
}

// NewTileImage returns an unbounded image repeating tile.
func NewTileImage(tile *image.RGBA) *TileImage {
	return &TileImage{
		tile: tile,
		size: tile.Bounds().Size(),
	}
}

func (t *TileImage) ColorModel() color.Model {
	return color.RGBAModel
}

func (t *TileImage) Bounds() image.Rectangle {
	return image.Rectangle{image.Point{-1e9, -1e9}, image.Point{1e9, 1e9}}
}

func (t *TileImage) At(x, y int) color.Color {
	if t.size.X <= 0 || t.size.Y <= 0 {
		return color.RGBA{}
	}
	x %= t.size.X
	if x < 0 {
		x += t.size.X
	}
	y %= t.size.Y
	if y < 0 {
		y += t.size.Y
	}
	o := t.tile.Bounds().Min
	return t.tile.RGBAAt(o.X+x, o.Y+y)
}

func setPaint(s rasterx.Scanner, paint interface{}) {
	switch p := paint.(type) {
	case color.RGBA:
		s.SetColor(p)
	case *TileImage:
		s.SetColor(rasterx.ColorFunc(p.At))
	}
}

func toFixed(f float64) fixed.Int26_6 {
	return fixed.Int26_6(f * 64.0)
}

func toFixedP(x, y float64) fixed.Point26_6 {
	return fixed.Point26_6{X: toFixed(x), Y: toFixed(y)}
}

// toAdder adds the path to a rasterx filler or dasher.
func toAdder(a rasterx.Adder, p *maprender.Path) {
	open := false
	for _, seg := range p.Segs {
		switch seg.Op {
		case maprender.MoveToOp:
			if open {
				a.Stop(false)
			}
			a.Start(toFixedP(seg.P[0][0], seg.P[0][1]))
			open = true
		case maprender.LineToOp:
			a.Line(toFixedP(seg.P[0][0], seg.P[0][1]))
		case maprender.QuadToOp:
			a.QuadBezier(toFixedP(seg.P[0][0], seg.P[0][1]), toFixedP(seg.P[1][0], seg.P[1][1]))
		case maprender.CubeToOp:
			a.CubeBezier(toFixedP(seg.P[0][0], seg.P[0][1]), toFixedP(seg.P[1][0], seg.P[1][1]), toFixedP(seg.P[2][0], seg.P[2][1]))
		case maprender.CloseOp:
			if open {
				a.Stop(true)
				open = false
			}
		}
	}
	if open {
		a.Stop(false)
	}
}

// toRasterizer adds the path to a vector rasterizer.
func toRasterizer(ras *vector.Rasterizer, p *maprender.Path) {
	for _, seg := range p.Segs {
		switch seg.Op {
		case maprender.MoveToOp:
			ras.MoveTo(float32(seg.P[0][0]), float32(seg.P[0][1]))
		case maprender.LineToOp:
			ras.LineTo(float32(seg.P[0][0]), float32(seg.P[0][1]))
		case maprender.QuadToOp:
			ras.QuadTo(float32(seg.P[0][0]), float32(seg.P[0][1]), float32(seg.P[1][0]), float32(seg.P[1][1]))
		case maprender.CubeToOp:
			ras.CubeTo(float32(seg.P[0][0]), float32(seg.P[0][1]), float32(seg.P[1][0]), float32(seg.P[1][1]), float32(seg.P[2][0]), float32(seg.P[2][1]))
		case maprender.CloseOp:
			ras.ClosePath()
		}
	}
}

func capFunc(c maprender.LineCap) (rasterx.CapFunc, rasterx.GapFunc) {
	switch c {
	case maprender.CapButt:
		return rasterx.ButtCap, rasterx.FlatGap
	case maprender.CapSquare:
		return rasterx.SquareCap, rasterx.FlatGap
	}
	return rasterx.RoundCap, rasterx.RoundGap
}

func joinMode(j maprender.LineJoin) rasterx.JoinMode {
	switch j {
	case maprender.JoinMiter:
		return rasterx.Miter
	case maprender.JoinBevel:
		return rasterx.Bevel
	}
	return rasterx.Round
}
