package maprender

import (
	"log/slog"
	"math"

	"github.com/paulmach/orb"
)

// DrawLineSymbol strokes the parts of s with style. Simple symbols are stroked directly, other symbols are placed as markers along the line when the style has a gap, or else used as a brush tile.
func DrawLineSymbol(img *Image, s *Shape, style *Style, scalefactor float64) error {
	symbol := img.Symbols.Get(style.Symbol)
	if symbol == nil {
		Logger().Debug("invalid line symbol", slog.Int("symbol", style.Symbol))
		return nil
	} else if s.Empty() {
		return nil
	}
	if err := symbol.Preload(); err != nil {
		return err
	}

	width := lineWidth(style, scalefactor, img.ResolutionFactor)
	finalscalefactor := scalefactor
	if style.Width != 0.0 {
		finalscalefactor = width / style.Width
	}

	if style.OffsetX != 0.0 || style.OffsetY != 0.0 {
		if style.IsParallelOffset() {
			s = offsetShape(s, style.OffsetX*finalscalefactor, style.OffsetY == OffsetDoubleSided)
		} else {
			s = s.Translate(style.OffsetX*finalscalefactor, style.OffsetY*finalscalefactor)
		}
	}

	if style.Symbol == 0 || symbol.Kind == SymbolSimple {
		col := style.Color
		if !HasColor(col) {
			col = style.OutlineColor
		}
		if !HasColor(col) {
			return nil
		}
		stroke := StrokeStyle{
			Width:       width,
			Color:       applyOpacity(col, style.Opacity),
			Cap:         style.LineCap,
			Join:        style.LineJoin,
			JoinMaxSize: style.JoinMaxSize,
		}
		if 0 < len(style.Pattern) {
			stroke.Dashes = make([]float64, len(style.Pattern))
			for i, d := range style.Pattern {
				stroke.Dashes[i] = d * finalscalefactor
			}
			if 0.0 < style.InitialGap {
				stroke.DashOffset = style.InitialGap * finalscalefactor
			}
		}
		return img.check("RenderLine", img.RenderLine(s, stroke))
	} else if symbol.Kind == SymbolHatch {
		return nil
	}

	cs := ComputeSymbolStyle(style, symbol, scalefactor, img.ResolutionFactor)
	if !cs.Drawable(symbol) {
		return nil
	}
	if cs.Gap < 0.0 {
		return drawLineMarkers(img, s, symbol, &cs, -cs.Gap, style.InitialGap*finalscalefactor, true)
	} else if 0.0 < cs.Gap {
		return drawLineMarkers(img, s, symbol, &cs, cs.Gap, style.InitialGap*finalscalefactor, false)
	}

	pw := int(math.Max(1.0, math.Round(symbol.SizeX*cs.Scale)))
	ph := int(math.Max(1.0, math.Round(symbol.SizeY*cs.Scale)))
	if symbol.Kind == SymbolTruetype {
		pw, ph = markerTileSize(symbol, &cs)
	}
	tile, err := AcquireTile(img, symbol, &cs, pw, ph, false)
	if err != nil {
		return img.check("AcquireTile", err)
	}
	return img.check("RenderLineTiled", img.RenderLineTiled(s, tile))
}

// drawLineMarkers places symbol every spacing along each part of s, starting at initialgap or half a spacing when negative. Markers follow the direction of the line when auto is set, and a line part that gets no marker but is longer than the symbol gets one in its middle.
func drawLineMarkers(img *Image, s *Shape, symbol *Symbol, cs *ComputedStyle, spacing, initialgap float64, auto bool) error {
	if spacing < 1.0 {
		spacing = 1.0 // avoid flooding the line
	}
	start := initialgap
	if start < 0.0 {
		start = spacing / 2.0
	}
	symbolWidth := symbol.SizeX * cs.Scale
	if symbol.Kind == SymbolTruetype {
		symbolWidth = cs.Scale
	}

	rotation := cs.Rotation
	mcs := *cs
	for _, part := range s.Parts {
		length := lineLength(part)
		if length == 0.0 {
			continue
		}
		placed := 0
		for d := start; d <= length; d += spacing {
			p, dir, ok := pointAlong(part, d)
			if !ok {
				break
			}
			mcs.Rotation = rotation
			if auto {
				mcs.Rotation = rotation + angleOf(dir)
			}
			if err := img.drawMarker(symbol, p, &mcs); err != nil {
				return err
			}
			placed++
		}
		if auto && placed == 0 && symbolWidth < length {
			p, dir, ok := pointAlong(part, length/2.0)
			if !ok {
				continue
			}
			mcs.Rotation = rotation + angleOf(dir)
			if err := img.drawMarker(symbol, p, &mcs); err != nil {
				return err
			}
		}
	}
	return nil
}

// DrawShadeSymbol fills the polygon s with style: a solid fill with optional outline for simple symbols, hatch lines for hatch symbols, or a tiled brush of any other symbol.
func DrawShadeSymbol(img *Image, s *Shape, style *Style, scalefactor float64) error {
	symbol := img.Symbols.Get(style.Symbol)
	if symbol == nil {
		Logger().Debug("invalid shade symbol", slog.Int("symbol", style.Symbol))
		return nil
	} else if s.Empty() {
		return nil
	}
	if !HasColor(style.Color) && HasColor(style.OutlineColor) && style.Symbol <= 0 {
		return DrawLineSymbol(img, s, style, scalefactor)
	}
	if err := symbol.Preload(); err != nil {
		return err
	}
	rf := img.ResolutionFactor

	if style.OffsetX != 0.0 || style.OffsetY != 0.0 {
		if style.IsParallelOffset() {
			s = offsetShape(s, style.OffsetX*scalefactor, false)
		} else {
			s = s.Translate(style.OffsetX*scalefactor, style.OffsetY*scalefactor)
		}
	}

	if style.Symbol == 0 || symbol.Kind == SymbolSimple {
		if fill := applyOpacity(style.Color, style.Opacity); HasColor(fill) {
			if err := img.check("RenderPolygon", img.RenderPolygon(s, fill)); err != nil {
				return err
			}
		}
		if HasColor(style.OutlineColor) {
			width := scalefactor
			if style.Width != 0.0 {
				width = lineWidth(style, scalefactor, rf)
			}
			stroke := StrokeStyle{
				Width:       width,
				Color:       applyOpacity(style.OutlineColor, style.Opacity),
				Cap:         style.LineCap,
				Join:        style.LineJoin,
				JoinMaxSize: style.JoinMaxSize,
			}
			return img.check("RenderLine", img.RenderLine(s, stroke))
		}
		return nil
	} else if symbol.Kind == SymbolHatch {
		return drawHatch(img, s, symbol, style, scalefactor)
	}

	cs := ComputeSymbolStyle(style, symbol, scalefactor, rf)
	if !cs.Drawable(symbol) {
		return nil
	}
	if cs.BackgroundColor != nil {
		if err := img.check("RenderPolygon", img.RenderPolygon(s, *cs.BackgroundColor)); err != nil {
			return err
		}
	}

	pw := int(math.Max(1.0, math.Round(symbol.SizeX*cs.Scale)))
	ph := int(math.Max(1.0, math.Round(symbol.SizeY*cs.Scale)))
	if symbol.Kind == SymbolTruetype {
		pw, ph = markerTileSize(symbol, &cs)
	}
	if 0.0 < cs.Gap {
		pw = int(math.Max(math.Round(cs.Gap), float64(pw)))
		ph = int(math.Max(math.Round(cs.Gap), float64(ph)))
	}
	seamless := symbol.Kind == SymbolVector && cs.Gap == 0.0 && img.Capabilities().AntiAliased
	tile, err := AcquireTile(img, symbol, &cs, pw, ph, seamless)
	if err != nil {
		return img.check("AcquireTile", err)
	}
	return img.check("RenderPolygonTiled", img.RenderPolygonTiled(s, tile))
}

func drawHatch(img *Image, s *Shape, symbol *Symbol, style *Style, scalefactor float64) error {
	rf := img.ResolutionFactor
	if background := applyOpacity(style.BackgroundColor, style.Opacity); HasColor(background) {
		if err := img.check("RenderPolygon", img.RenderPolygon(s, background)); err != nil {
			return err
		}
	}
	col := applyOpacity(style.Color, style.Opacity)
	if !HasColor(col) {
		return nil
	}

	size := style.Size
	if size < 0.0 {
		size = symbol.DefaultSize()
	}
	spacing := size * scalefactor
	spacing = math.Min(spacing, style.MaxSize*rf)
	spacing = math.Max(spacing, style.MinSize*rf)
	width := lineWidth(style, scalefactor, rf)

	stroke := StrokeStyle{
		Width:       width,
		Color:       col,
		Cap:         style.LineCap,
		Join:        style.LineJoin,
		JoinMaxSize: style.JoinMaxSize,
	}
	if 0 < len(style.Pattern) && style.Width != 0.0 {
		stroke.Dashes = make([]float64, len(style.Pattern))
		for i, d := range style.Pattern {
			stroke.Dashes[i] = d * width / style.Width
		}
	}
	hatch := HatchLines(s, spacing, style.Angle*math.Pi/180.0)
	if hatch.Empty() {
		return nil
	}
	return img.check("RenderLine", img.RenderLine(hatch, stroke))
}

// DrawMarkerSymbol draws the symbol of style centered on p. The simple symbol and invalid symbol indices draw nothing.
func DrawMarkerSymbol(img *Image, p orb.Point, style *Style, scalefactor float64) error {
	if style.Symbol <= 0 {
		return nil
	}
	symbol := img.Symbols.Get(style.Symbol)
	if symbol == nil {
		Logger().Debug("invalid marker symbol", slog.Int("symbol", style.Symbol))
		return nil
	} else if symbol.Kind == SymbolSimple || symbol.Kind == SymbolHatch {
		return nil
	}
	if err := symbol.Preload(); err != nil {
		return err
	}

	cs := ComputeSymbolStyle(style, symbol, scalefactor, img.ResolutionFactor)
	if !cs.Drawable(symbol) {
		return nil
	}
	p = orb.Point{p[0] + style.OffsetX*scalefactor, p[1] + style.OffsetY*scalefactor}
	return img.drawMarker(symbol, p, &cs)
}

// drawMarker draws symbol at p shifted for its anchor point, from the tile cache when the backend uses it.
func (img *Image) drawMarker(symbol *Symbol, p orb.Point, cs *ComputedStyle) error {
	if symbol.Anchor != (orb.Point{0.5, 0.5}) {
		w, h := symbol.SizeX*cs.Scale, symbol.SizeY*cs.Scale
		if symbol.Kind == SymbolTruetype {
			w, h = cs.Scale, cs.Scale
		}
		shift := rotate(orb.Point{(0.5 - symbol.Anchor[0]) * w, (0.5 - symbol.Anchor[1]) * h}, cs.Rotation)
		p = orb.Point{p[0] + shift[0], p[1] + shift[1]}
	}

	if img.Capabilities().UseImageCache {
		w, h := markerTileSize(symbol, cs)
		tile, err := AcquireTile(img, symbol, cs, w, h, false)
		if err != nil {
			return img.check("AcquireTile", err)
		}
		return img.check("RenderTile", img.RenderTile(tile, p[0], p[1]))
	}
	return img.check("RenderSymbol", img.renderSymbol(img.Renderer, symbol, p[0], p[1], cs))
}
