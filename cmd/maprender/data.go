package main

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/project"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmgeojson"
	"github.com/tdewolff/maprender"
)

const metersPerInch = 0.0254

// View maps projected coordinates onto the pixels of the map.
type View struct {
	Bound         orb.Bound // in projected coordinates
	Width, Height int
	Mercator      bool
}

// ParseTile parses a z/x/y tile name.
func ParseTile(s string) (maptile.Tile, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return maptile.Tile{}, fmt.Errorf("tile must be z/x/y: %q", s)
	}
	var zxy [3]uint64
	for i, part := range parts {
		v, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return maptile.Tile{}, fmt.Errorf("tile must be z/x/y: %q", s)
		}
		zxy[i] = v
	}
	if 30 < zxy[0] || 1<<zxy[0] <= zxy[1] || 1<<zxy[0] <= zxy[2] {
		return maptile.Tile{}, fmt.Errorf("tile out of range: %q", s)
	}
	return maptile.New(uint32(zxy[1]), uint32(zxy[2]), maptile.Zoom(zxy[0])), nil
}

// View returns the view of the map. A tile takes precedence over the extent, and without projection coordinates are pixels already.
func (cfg *Config) View() (View, error) {
	v := View{Width: cfg.Width, Height: cfg.Height}
	switch strings.ToLower(cfg.Projection) {
	case "none":
		v.Bound = orb.Bound{Max: orb.Point{float64(cfg.Width), float64(cfg.Height)}}
		return v, nil
	case "", "mercator":
		v.Mercator = true
	default:
		return v, fmt.Errorf("unknown projection %q", cfg.Projection)
	}

	var bound orb.Bound
	if cfg.Tile != "" {
		tile, err := ParseTile(cfg.Tile)
		if err != nil {
			return v, err
		}
		bound = tile.Bound()
	} else if len(cfg.Extent) == 4 {
		bound = orb.Bound{Min: orb.Point{cfg.Extent[0], cfg.Extent[1]}, Max: orb.Point{cfg.Extent[2], cfg.Extent[3]}}
	} else {
		return v, fmt.Errorf("map needs an extent or a tile")
	}
	if bound.Max[0] <= bound.Min[0] || bound.Max[1] <= bound.Min[1] {
		return v, fmt.Errorf("empty extent")
	}
	v.Bound = orb.Bound{
		Min: project.WGS84.ToMercator(bound.Min),
		Max: project.WGS84.ToMercator(bound.Max),
	}
	return v, nil
}

// ScaleDenom returns the scale denominator of the view at the given resolution in DPI, zero without projection.
func (v View) ScaleDenom(resolution float64) float64 {
	if !v.Mercator || v.Width <= 0 {
		return 0.0
	}
	metersPerPixel := (v.Bound.Max[0] - v.Bound.Min[0]) / float64(v.Width)
	return metersPerPixel * resolution / metersPerInch
}

// Project converts a geographic geometry into device space, with the y-axis pointing down.
func (v View) Project(g orb.Geometry) orb.Geometry {
	g = orb.Clone(g)
	if !v.Mercator {
		return g
	}
	g = project.Geometry(g, project.WGS84.ToMercator)
	sx := float64(v.Width) / (v.Bound.Max[0] - v.Bound.Min[0])
	sy := float64(v.Height) / (v.Bound.Max[1] - v.Bound.Min[1])
	return project.Geometry(g, func(p orb.Point) orb.Point {
		return orb.Point{(p[0] - v.Bound.Min[0]) * sx, (v.Bound.Max[1] - p[1]) * sy}
	})
}

// ReadFeatures reads a GeoJSON feature collection, or an OSM XML file converted into features with the OSM tags as properties.
func ReadFeatures(filename string) (*geojson.FeatureCollection, error) {
	unlock := maprender.Acquire(maprender.LockSource)
	defer unlock()

	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if strings.ToLower(filepath.Ext(filename)) == ".osm" {
		o := &osm.OSM{}
		if err := xml.Unmarshal(b, o); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		return osmgeojson.Convert(o,
			osmgeojson.NoID(true),
			osmgeojson.NoMeta(true),
			osmgeojson.NoRelationMembership(true))
	}
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return fc, nil
}

// property returns a feature property as a string, looking into the OSM tags as well.
func property(f *geojson.Feature, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	if v, ok := f.Properties[key]; ok && v != nil {
		switch v := v.(type) {
		case string:
			return v, true
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		default:
			return fmt.Sprint(v), true
		}
	}
	if tags, ok := f.Properties["tags"].(map[string]string); ok {
		v, ok := tags[key]
		return v, ok
	}
	return "", false
}

// classify returns the index of the first class matching the class property of f, or -1.
func classify(lc LayerConfig, f *geojson.Feature) int {
	value, _ := property(f, lc.ClassProperty)
	for i, c := range lc.Classes {
		if len(c.Values) == 0 {
			return i
		}
		for _, v := range c.Values {
			if v == value {
				return i
			}
		}
	}
	return -1
}

// acceptsShape is true when a shape of type t can be drawn on a layer of type typ. Polygons are drawn as outlines on line layers and labeled at their center on annotation layers.
func acceptsShape(typ maprender.LayerType, t maprender.ShapeType) bool {
	switch typ {
	case maprender.LayerPoint:
		return t == maprender.ShapePoint
	case maprender.LayerLine:
		return t == maprender.ShapeLine || t == maprender.ShapePolygon
	case maprender.LayerPolygon:
		return t == maprender.ShapePolygon
	}
	return t != maprender.ShapeNull
}

// LoadData reads the data of every layer of the map and adds the shapes that resolve to a class.
func (cfg *Config) LoadData(m *maprender.Map, v View) error {
	for i, lc := range cfg.Layers {
		if lc.Data == "" {
			continue
		}
		fc, err := ReadFeatures(cfg.path(lc.Data))
		if err != nil {
			return fmt.Errorf("layer %q: %w", lc.Name, err)
		}
		l := m.Layers[i]
		n := 0
		for _, f := range fc.Features {
			if f.Geometry == nil {
				continue
			}
			class := classify(lc, f)
			if class < 0 {
				continue
			}
			s := maprender.NewShape(v.Project(f.Geometry))
			if s.Empty() || !acceptsShape(l.Type, s.Type) {
				continue
			}
			if text, ok := property(f, lc.LabelProperty); ok {
				s.Text = text
			}
			l.Add(s, class)
			n++
		}
		slog.Debug("layer loaded", slog.String("layer", lc.Name), slog.Int("features", len(fc.Features)), slog.Int("shapes", n))
	}
	return nil
}

// Load reads the configuration and its data into a map.
func Load(filename, tile string) (*maprender.Map, error) {
	cfg, err := LoadConfig(filename)
	if err != nil {
		return nil, err
	}
	if tile != "" {
		cfg.Tile = tile
	}
	return cfg.Build()
}

// Build returns the map with its data loaded.
func (cfg *Config) Build() (*maprender.Map, error) {
	m, err := cfg.Map()
	if err != nil {
		return nil, err
	}
	v, err := cfg.View()
	if err != nil {
		return nil, err
	}
	if m.ScaleDenom == 0.0 {
		m.ScaleDenom = math.Round(v.ScaleDenom(m.Resolution))
	}
	if err := cfg.LoadData(m, v); err != nil {
		return nil, err
	}
	return m, nil
}
