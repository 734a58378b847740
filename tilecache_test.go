package maprender

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/tdewolff/test"
)

func TestTileCacheHit(t *testing.T) {
	r := newRecorder(100, 100, rasterCaps)
	img := newTestImage(r)

	style := NewStyle(symSquare, red)
	style.Size = 8.0
	test.Error(t, DrawMarkerSymbol(img, orb.Point{10, 10}, &style, 1.0))
	test.Error(t, DrawMarkerSymbol(img, orb.Point{50, 50}, &style, 1.0))

	test.T(t, r.count("RenderTile"), 2)
	test.That(t, r.calls[0].tile == r.calls[1].tile, "tile must be reused")
	test.T(t, img.TileCache().Rasterizations, 1)
	test.T(t, img.TileCache().Len(), 1)
	test.T(t, len(r.raster), 1)
	test.T(t, r.raster[0].count("RenderVectorSymbol"), 1)

	// a different color is a different tile
	style.Color = blue
	test.Error(t, DrawMarkerSymbol(img, orb.Point{50, 50}, &style, 1.0))
	test.T(t, img.TileCache().Rasterizations, 2)
	test.That(t, r.calls[2].tile != r.calls[0].tile)
}

func TestTileCacheEviction(t *testing.T) {
	r := newRecorder(100, 100, rasterCaps)
	img := newTestImage(r)

	style := NewStyle(symSquare, red)
	for i := 0; i <= ImageCacheSize; i++ {
		style.Size = float64(4 + i)
		test.Error(t, DrawMarkerSymbol(img, orb.Point{10, 10}, &style, 1.0))
	}
	test.T(t, img.TileCache().Len(), ImageCacheSize)
	test.T(t, img.TileCache().Rasterizations, ImageCacheSize+1)

	// the newest is still cached
	test.Error(t, DrawMarkerSymbol(img, orb.Point{10, 10}, &style, 1.0))
	test.T(t, img.TileCache().Rasterizations, ImageCacheSize+1)

	// the oldest was evicted
	style.Size = 4.0
	test.Error(t, DrawMarkerSymbol(img, orb.Point{10, 10}, &style, 1.0))
	test.T(t, img.TileCache().Rasterizations, ImageCacheSize+2)
	test.T(t, img.TileCache().Len(), ImageCacheSize)
	test.T(t, img.TileCache().Tiles()[0], r.calls[len(r.calls)-1].tile)
}

func TestTileCacheSeamless(t *testing.T) {
	r := newRecorder(100, 100, rasterCaps)
	img := newTestImage(r)

	style := NewStyle(symSquare, red)
	style.Size = 4.0
	test.Error(t, DrawShadeSymbol(img, rect(10, 10, 50, 50), &style, 1.0))
	test.T(t, r.ops(), []string{"RenderPolygonTiled"})
	test.T(t, len(r.raster), 2)
	test.T(t, r.raster[0].w, 12)
	test.T(t, r.raster[0].h, 12)
	test.T(t, r.raster[0].count("RenderVectorSymbol"), 9)
	test.T(t, r.raster[1].w, 4)
	test.T(t, r.raster[1].count("MergeRasterBuffer"), 1)

	tile := r.calls[0].tile
	test.T(t, tile.Bounds().Dx(), 4)
	test.T(t, tile.Bounds().Dy(), 4)
}

func TestTileCacheGap(t *testing.T) {
	r := newRecorder(100, 100, rasterCaps)
	img := newTestImage(r)

	style := NewStyle(symCircle, red)
	style.Size = 4.0
	style.Gap = 10.0
	test.Error(t, DrawShadeSymbol(img, rect(10, 10, 50, 50), &style, 1.0))
	test.T(t, len(r.raster), 1)
	test.T(t, r.raster[0].w, 10)
	test.T(t, r.raster[0].h, 10)
	test.T(t, r.raster[0].count("RenderEllipseSymbol"), 1)
}
