package maprender

import (
	"fmt"
	"log/slog"
)

// Image is one output image being rendered: the backend plus the resources and caches owned by this render. It is not safe for concurrent use.
type Image struct {
	Renderer

	Width, Height    int
	ResolutionFactor float64
	Symbols          *SymbolSet
	Fonts            *FontSet

	tiles   TileCache
	labels  *LabelCache
	lastErr error
}

// NewImage wraps a renderer. Nil symbol and font sets are replaced by the defaults.
func NewImage(r Renderer, symbols *SymbolSet, fonts *FontSet, resolutionfactor float64) *Image {
	if symbols == nil {
		symbols = NewSymbolSet()
	}
	if fonts == nil {
		fonts = NewFontSet()
	}
	if symbols.Fonts == nil {
		symbols.Fonts = fonts
	}
	if resolutionfactor <= 0.0 {
		resolutionfactor = 1.0
	}
	w, h := r.Size()
	return &Image{
		Renderer:         r,
		Width:            w,
		Height:           h,
		ResolutionFactor: resolutionfactor,
		Symbols:          symbols,
		Fonts:            fonts,
	}
}

// TileCache returns the tile cache of the image.
func (img *Image) TileCache() *TileCache {
	return &img.tiles
}

// LastError returns the last error recorded while drawing, including unsupported capabilities that were skipped.
func (img *Image) LastError() error {
	return img.lastErr
}

// Labels returns the placement results of the labels of the last map drawn on the image.
func (img *Image) Labels() []LabelResult {
	if img.labels == nil {
		return nil
	}
	return img.labels.Results()
}

// with returns an image drawing into r that shares the resources and tile cache of img.
func (img *Image) with(r Renderer) *Image {
	sub := *img
	sub.Renderer = r
	return &sub
}

// check records err and decides whether it is fatal: unsupported capabilities are logged and dropped.
func (img *Image) check(op string, err error) error {
	if err == nil {
		return nil
	}
	img.lastErr = err
	if IsUnsupported(err) {
		Logger().Warn("unsupported renderer capability", slog.String("op", op), slog.Any("err", err))
		return nil
	}
	return err
}

// renderSymbol draws a symbol centered on (x,y) in r.
func (img *Image) renderSymbol(r Renderer, symbol *Symbol, x, y float64, cs *ComputedStyle) error {
	if err := symbol.Preload(); err != nil {
		return err
	}
	switch symbol.Kind {
	case SymbolVector:
		return r.RenderVectorSymbol(x, y, symbol, cs)
	case SymbolEllipse:
		return r.RenderEllipseSymbol(x, y, symbol, cs)
	case SymbolPixmap:
		return r.RenderPixmapSymbol(x, y, symbol, cs)
	case SymbolTruetype:
		return r.RenderTruetypeSymbol(x, y, symbol, cs)
	case SymbolSVG:
		if r.Capabilities().SupportsSVG {
			return r.RenderSVGSymbol(x, y, symbol, cs)
		}
		pixmap, err := symbol.RasterizeSVG(cs.Scale)
		if err != nil {
			return err
		}
		raster := &Symbol{Name: symbol.Name, Kind: SymbolPixmap, Image: pixmap, Anchor: symbol.Anchor, Transparent: -1}
		if err := raster.Preload(); err != nil {
			return err
		}
		rcs := *cs
		rcs.Scale = 1.0
		return r.RenderPixmapSymbol(x, y, raster, &rcs)
	case SymbolSimple, SymbolHatch:
		return nil
	}
	return fmt.Errorf("unknown symbol kind %v", symbol.Kind)
}
