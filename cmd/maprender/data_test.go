package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/tdewolff/maprender"
	"github.com/tdewolff/test"
)

func TestParseTile(t *testing.T) {
	tile, err := ParseTile("3/2/5")
	test.Error(t, err)
	test.T(t, tile, maptile.New(2, 5, 3))

	for _, s := range []string{"3/8/0", "3/0/8", "1/2", "a/b/c", "31/0/0"} {
		_, err := ParseTile(s)
		test.That(t, err != nil, s)
	}
}

func TestViewProject(t *testing.T) {
	cfg := &Config{Width: 256, Height: 256, Tile: "0/0/0"}
	v, err := cfg.View()
	test.Error(t, err)
	test.That(t, v.Mercator)

	p := v.Project(orb.Point{0.0, 0.0}).(orb.Point)
	test.Float(t, p[0], 128.0)
	test.Float(t, p[1], 128.0)

	// north is up
	q := v.Project(orb.Point{90.0, 45.0}).(orb.Point)
	test.Float(t, q[0], 192.0)
	test.That(t, q[1] < 128.0)

	metersPerPixel := (v.Bound.Max[0] - v.Bound.Min[0]) / 256.0
	test.Float(t, v.ScaleDenom(72.0), metersPerPixel*72.0/metersPerInch)

	// the input is not modified
	ls := orb.LineString{{10.0, 10.0}}
	v.Project(ls)
	test.T(t, ls[0], orb.Point{10.0, 10.0})
}

func TestViewErrors(t *testing.T) {
	var tts = []Config{
		{Width: 10, Height: 10},
		{Width: 10, Height: 10, Projection: "lambert"},
		{Width: 10, Height: 10, Extent: []float64{5.0, 5.0, 5.0, 6.0}},
		{Width: 10, Height: 10, Tile: "x"},
	}
	for _, cfg := range tts {
		_, err := cfg.View()
		test.That(t, err != nil)
	}

	cfg := &Config{Width: 10, Height: 20, Projection: "none"}
	v, err := cfg.View()
	test.Error(t, err)
	test.That(t, !v.Mercator)
	test.Float(t, v.ScaleDenom(72.0), 0.0)
	test.T(t, v.Project(orb.Point{3.0, 4.0}), orb.Geometry(orb.Point{3.0, 4.0}))
}

func TestClassify(t *testing.T) {
	lc := LayerConfig{
		ClassProperty: "highway",
		Classes: []ClassConfig{
			{Values: []string{"primary", "secondary"}},
			{Values: []string{"3"}},
		},
	}
	f := geojson.NewFeature(orb.Point{})
	f.Properties["highway"] = "secondary"
	test.T(t, classify(lc, f), 0)
	f.Properties["highway"] = 3.0
	test.T(t, classify(lc, f), 1)
	f.Properties["highway"] = "footway"
	test.T(t, classify(lc, f), -1)

	lc.Classes = append(lc.Classes, ClassConfig{})
	test.T(t, classify(lc, f), 2)

	// OSM tags
	f = geojson.NewFeature(orb.Point{})
	f.Properties["tags"] = map[string]string{"name": "Main Street"}
	name, ok := property(f, "name")
	test.That(t, ok)
	test.String(t, name, "Main Street")
	_, ok = property(f, "")
	test.That(t, !ok)
}

func TestAcceptsShape(t *testing.T) {
	test.That(t, acceptsShape(maprender.LayerPoint, maprender.ShapePoint))
	test.That(t, !acceptsShape(maprender.LayerPoint, maprender.ShapeLine))
	test.That(t, acceptsShape(maprender.LayerLine, maprender.ShapePolygon))
	test.That(t, !acceptsShape(maprender.LayerPolygon, maprender.ShapeLine))
	test.That(t, acceptsShape(maprender.LayerAnnotation, maprender.ShapeLine))
}

const testGeoJSON = `{"type": "FeatureCollection", "features": [
	{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[10, 10], [90, 10]]}, "properties": {"kind": "road", "name": "A1"}},
	{"type": "Feature", "geometry": {"type": "Point", "coordinates": [50, 50]}, "properties": {"kind": "road"}},
	{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[10, 90], [90, 90]]}, "properties": {"kind": "river"}},
	{"type": "Feature", "geometry": null, "properties": {"kind": "road"}}
]}`

const testOSM = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6">
	<node id="1" lat="10" lon="10"/>
	<node id="2" lat="10" lon="90"/>
	<node id="3" lat="50" lon="50"><tag k="amenity" v="cafe"/><tag k="name" v="Corner"/></node>
	<way id="10"><nd ref="1"/><nd ref="2"/><tag k="highway" v="primary"/></way>
</osm>`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	test.Error(t, os.WriteFile(filepath.Join(dir, "roads.geojson"), []byte(testGeoJSON), 0644))
	test.Error(t, os.WriteFile(filepath.Join(dir, "map.toml"), []byte(`
width = 100
height = 100
projection = "none"

[[layer]]
name = "roads"
type = "line"
data = "roads.geojson"
class_property = "kind"
label_property = "name"

[[layer.class]]
values = ["road"]

[[layer.class.style]]
color = "#000"
`), 0644))

	m, err := Load(filepath.Join(dir, "map.toml"), "")
	test.Error(t, err)
	test.Float(t, m.ScaleDenom, 0.0)
	test.T(t, len(m.Layers[0].Shapes), 1)
	s := m.Layers[0].Shapes[0]
	test.String(t, s.Text, "A1")
	test.T(t, s.Parts[0], orb.LineString{{10, 10}, {90, 10}})

	_, err = Load(filepath.Join(dir, "missing.toml"), "")
	test.That(t, err != nil)
}

func TestReadFeaturesOSM(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "data.osm")
	test.Error(t, os.WriteFile(filename, []byte(testOSM), 0644))

	fc, err := ReadFeatures(filename)
	test.Error(t, err)

	var lines, points int
	for _, f := range fc.Features {
		switch f.Geometry.(type) {
		case orb.LineString:
			lines++
			highway, ok := property(f, "highway")
			test.That(t, ok)
			test.String(t, highway, "primary")
		case orb.Point:
			points++
			name, _ := property(f, "name")
			test.String(t, name, "Corner")
		}
	}
	test.T(t, lines, 1)
	test.T(t, points, 1)
}

func TestReadFeaturesLock(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "data.osm")
	test.Error(t, os.WriteFile(filename, []byte(testOSM), 0644))

	unlock := maprender.Acquire(maprender.LockSource)
	done := make(chan error)
	go func() {
		_, err := ReadFeatures(filename)
		done <- err
	}()
	select {
	case <-done:
		t.Fatal("read while the source lock is held")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()
	test.Error(t, <-done)
}
