package maprender

import (
	"image"
	"image/color"
	"log/slog"
	"math"
)

// ImageCacheSize is the number of tiles an image keeps.
const ImageCacheSize = 6

type tileKey struct {
	symbol          *Symbol
	width, height   int
	outlineWidth    float64
	rotation        float64
	scale           float64
	color           *color.RGBA
	outlineColor    *color.RGBA
	backgroundColor *color.RGBA
}

func newTileKey(symbol *Symbol, cs *ComputedStyle, w, h int) tileKey {
	clone := func(c *color.RGBA) *color.RGBA {
		if c == nil {
			return nil
		}
		d := *c
		return &d
	}
	return tileKey{
		symbol:          symbol,
		width:           w,
		height:          h,
		outlineWidth:    cs.OutlineWidth,
		rotation:        cs.Rotation,
		scale:           cs.Scale,
		color:           clone(cs.Color),
		outlineColor:    clone(cs.OutlineColor),
		backgroundColor: clone(cs.BackgroundColor),
	}
}

func (k *tileKey) equal(l *tileKey) bool {
	return k.symbol == l.symbol && k.width == l.width && k.height == l.height &&
		k.outlineWidth == l.outlineWidth && k.rotation == l.rotation && k.scale == l.scale &&
		equalColor(k.color, l.color) && equalColor(k.outlineColor, l.outlineColor) && equalColor(k.backgroundColor, l.backgroundColor)
}

type tileEntry struct {
	key  tileKey
	tile *image.RGBA
}

// TileCache holds the last ImageCacheSize rendered symbol tiles of one image. It is a fixed ring: new tiles go in front and, once full, replace the oldest insertion. Hits do not change the order.
type TileCache struct {
	entries [ImageCacheSize]tileEntry
	next    int // slot of the next insertion, which holds the oldest entry when full
	n       int

	Rasterizations int // number of tiles rendered
}

// Len returns the number of cached tiles.
func (c *TileCache) Len() int {
	return c.n
}

// Tiles returns the cached tiles from newest to oldest.
func (c *TileCache) Tiles() []*image.RGBA {
	tiles := make([]*image.RGBA, 0, c.n)
	for i := 1; i <= c.n; i++ {
		tiles = append(tiles, c.entries[(c.next-i+ImageCacheSize)%ImageCacheSize].tile)
	}
	return tiles
}

func (c *TileCache) search(key *tileKey) *image.RGBA {
	for i := 1; i <= c.n; i++ {
		e := &c.entries[(c.next-i+ImageCacheSize)%ImageCacheSize]
		if e.key.equal(key) {
			return e.tile
		}
	}
	return nil
}

func (c *TileCache) insert(key tileKey, tile *image.RGBA) {
	if c.n == ImageCacheSize {
		Logger().Debug("tile cache evict", slog.String("symbol", c.entries[c.next].key.symbol.Name))
	} else {
		c.n++
	}
	c.entries[c.next] = tileEntry{key: key, tile: tile}
	c.next = (c.next + 1) % ImageCacheSize
}

// AcquireTile returns a w×h tile of symbol drawn with cs, from the cache of img or freshly rendered. In seamless mode the symbol is drawn on a 3×3 grid of cells and the center cell is kept, so that anti-aliasing bleeding over the tile edges wraps around.
func AcquireTile(img *Image, symbol *Symbol, cs *ComputedStyle, w, h int, seamless bool) (*image.RGBA, error) {
	key := newTileKey(symbol, cs, w, h)
	if tile := img.tiles.search(&key); tile != nil {
		Logger().Debug("tile cache hit", slog.String("symbol", symbol.Name), slog.Int("w", w), slog.Int("h", h))
		return tile, nil
	}

	var tile *image.RGBA
	if !seamless {
		r, err := img.NewRasterImage(w, h)
		if err != nil {
			return nil, wrapError(ErrAllocation, "AcquireTile", err)
		}
		if err := img.renderSymbol(r, symbol, float64(w)/2.0, float64(h)/2.0, cs); err != nil {
			return nil, err
		}
		if tile, err = r.RasterBuffer(); err != nil {
			return nil, err
		}
	} else {
		r, err := img.NewRasterImage(3*w, 3*h)
		if err != nil {
			return nil, wrapError(ErrAllocation, "AcquireTile", err)
		}
		for i := 1; i <= 3; i++ {
			for j := 1; j <= 3; j++ {
				x := (float64(j) - 0.5) * float64(w)
				y := (float64(i) - 0.5) * float64(h)
				if err := img.renderSymbol(r, symbol, x, y, cs); err != nil {
					return nil, err
				}
			}
		}
		buf, err := r.RasterBuffer()
		if err != nil {
			return nil, err
		}
		cell, err := img.NewRasterImage(w, h)
		if err != nil {
			return nil, wrapError(ErrAllocation, "AcquireTile", err)
		}
		if err := cell.MergeRasterBuffer(buf, 100.0, image.Rect(w, h, 2*w, 2*h), image.Point{}); err != nil {
			return nil, err
		}
		if tile, err = cell.RasterBuffer(); err != nil {
			return nil, err
		}
	}
	img.tiles.Rasterizations++
	img.tiles.insert(key, tile)
	Logger().Debug("tile cache miss", slog.String("symbol", symbol.Name), slog.Int("w", w), slog.Int("h", h), slog.Bool("seamless", seamless))
	return tile, nil
}

// markerTileSize returns the tile size that fits symbol drawn with cs at any rotation.
func markerTileSize(symbol *Symbol, cs *ComputedStyle) (int, int) {
	w := symbol.SizeX * cs.Scale
	h := symbol.SizeY * cs.Scale
	if symbol.Kind == SymbolTruetype {
		w, h = cs.Scale, cs.Scale
	}
	if cs.Rotation != 0.0 {
		d := math.Hypot(w, h)
		w, h = d, d
	}
	pad := 2.0 * (cs.OutlineWidth + 1.0)
	return int(math.Ceil(w + pad)), int(math.Ceil(h + pad))
}
