package main

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/paulmach/orb"
	"github.com/tdewolff/maprender"
	"github.com/tdewolff/parse/v2/strconv"
)

// Color is a configuration color, either a hex string "#rrggbb", "#rrggbbaa", "none" or an array [r,g,b] or [r,g,b,a] of 0-255 values.
type Color struct {
	color.RGBA
	Set bool
}

// UnmarshalTOML implements toml.Unmarshaler.
func (c *Color) UnmarshalTOML(v interface{}) error {
	switch v := v.(type) {
	case string:
		col, err := parseColor(v)
		if err != nil {
			return err
		}
		c.RGBA, c.Set = col, true
	case []interface{}:
		if len(v) != 3 && len(v) != 4 {
			return fmt.Errorf("color must have 3 or 4 components")
		}
		rgba := [4]float64{0.0, 0.0, 0.0, 255.0}
		for i, comp := range v {
			switch comp := comp.(type) {
			case int64:
				rgba[i] = float64(comp)
			case float64:
				rgba[i] = comp
			default:
				return fmt.Errorf("color component must be a number: %v", comp)
			}
			if rgba[i] < 0.0 || 255.0 < rgba[i] {
				return fmt.Errorf("color component out of range: %v", rgba[i])
			}
		}
		c.RGBA, c.Set = premultiply(rgba[0]/255.0, rgba[1]/255.0, rgba[2]/255.0, rgba[3]/255.0), true
	default:
		return fmt.Errorf("invalid color: %v", v)
	}
	return nil
}

func parseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return color.RGBA{}, nil
	}
	alpha := 1.0
	if len(s) == 9 && s[0] == '#' {
		a, err := hex.DecodeString(s[7:])
		if err != nil {
			return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
		}
		alpha = float64(a[0]) / 255.0
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	c = c.Clamped()
	return premultiply(c.R, c.G, c.B, alpha), nil
}

func premultiply(r, g, b, a float64) color.RGBA {
	return color.RGBA{
		R: uint8(math.Round(r * a * 255.0)),
		G: uint8(math.Round(g * a * 255.0)),
		B: uint8(math.Round(b * a * 255.0)),
		A: uint8(math.Round(a * 255.0)),
	}
}

// Config is a map configuration file.
type Config struct {
	Name       string
	Width      int
	Height     int
	Background Color
	Resolution float64
	ScaleDenom float64     `toml:"scale_denom"`
	EdgeBuffer float64     `toml:"edge_buffer"`
	Extent     []float64   // minlon, minlat, maxlon, maxlat
	Tile       string      // z/x/y web mercator tile, overrides the extent
	Projection string      // "mercator" (default) or "none" for pixel coordinates
	Obstacles  [][]float64 // pixel boxes x0, y0, x1, y1 kept free of labels

	Fonts   []FontConfig   `toml:"font"`
	Symbols []SymbolConfig `toml:"symbol"`
	Layers  []LayerConfig  `toml:"layer"`

	dir string
}

// FontConfig registers a font file under a name.
type FontConfig struct {
	Name string
	File string
}

// SymbolConfig defines a symbol.
type SymbolConfig struct {
	Name        string
	Type        string // vector, ellipse, pixmap, truetype, hatch or svg
	Filled      bool
	Points      [][]float64
	Image       string
	Font        string
	Character   string
	Anchor      []float64
	Transparent *int
	Size        []float64
}

// LayerConfig defines a layer and the data it draws.
type LayerConfig struct {
	Name             string
	Type             string
	Data             string
	Opacity          *float64
	ClassProperty    string        `toml:"class_property"`
	LabelProperty    string        `toml:"label_property"`
	SymbolScaleDenom float64       `toml:"symbol_scale_denom"`
	MinScaleDenom    float64       `toml:"min_scale_denom"`
	MaxScaleDenom    float64       `toml:"max_scale_denom"`
	Classes          []ClassConfig `toml:"class"`
}

// ClassConfig groups styles and labels. A shape uses the first class whose values contain its class property, a class without values matches every shape.
type ClassConfig struct {
	Name          string
	Values        []string
	MinScaleDenom float64       `toml:"min_scale_denom"`
	MaxScaleDenom float64       `toml:"max_scale_denom"`
	Styles        []StyleConfig `toml:"style"`
	Labels        []LabelConfig `toml:"label"`
}

// StyleConfig is a style, unset fields keep their defaults.
type StyleConfig struct {
	Symbol          string
	Color           Color
	OutlineColor    Color     `toml:"outline_color"`
	BackgroundColor Color     `toml:"background_color"`
	Opacity         *float64
	Size            *float64
	MinSize         *float64  `toml:"min_size"`
	MaxSize         *float64  `toml:"max_size"`
	Width           *float64
	MinWidth        *float64  `toml:"min_width"`
	MaxWidth        *float64  `toml:"max_width"`
	OutlineWidth    float64   `toml:"outline_width"`
	Angle           float64
	Gap             float64
	InitialGap      *float64  `toml:"initial_gap"`
	Offset          []float64
	LineCap         string    `toml:"linecap"`
	LineJoin        string    `toml:"linejoin"`
	JoinMaxSize     *float64  `toml:"linejoin_max_size"`
	Pattern         []float64
	MinScaleDenom   float64   `toml:"min_scale_denom"`
	MaxScaleDenom   float64   `toml:"max_scale_denom"`
}

// LabelConfig is a label, unset fields keep their defaults.
type LabelConfig struct {
	Font                  string
	Size                  *float64
	MinSize               *float64      `toml:"min_size"`
	MaxSize               *float64      `toml:"max_size"`
	Color                 Color
	OutlineColor          Color         `toml:"outline_color"`
	OutlineWidth          float64       `toml:"outline_width"`
	ShadowColor           Color         `toml:"shadow_color"`
	ShadowSize            []float64     `toml:"shadow_size"`
	BackgroundColor       Color         `toml:"background_color"`
	BackgroundShadowColor Color         `toml:"background_shadow_color"`
	BackgroundShadowSize  []float64     `toml:"background_shadow_size"`
	Padding               float64
	Offset                []float64
	Angle                 string        // degrees, "auto" or "follow"
	Position              string
	Buffer                float64
	MinDistance           *float64      `toml:"min_distance"`
	MinFeatureSize        string        `toml:"min_feature_size"` // pixels or "auto"
	Force                 bool
	Partials              bool
	Priority              *int
	Encoding              string
	Wrap                  string
	MaxOverlapAngle       *float64      `toml:"max_overlap_angle"`
	Markers               []StyleConfig `toml:"style"`
	MinScaleDenom         float64       `toml:"min_scale_denom"`
	MaxScaleDenom         float64       `toml:"max_scale_denom"`
}

// LoadConfig reads a TOML map configuration. Relative file names are resolved against the directory of the configuration.
func LoadConfig(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	cfg, err := ParseConfig(string(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	cfg.dir = filepath.Dir(filename)
	return cfg, nil
}

// ParseConfig parses a TOML map configuration.
func ParseConfig(s string) (*Config, error) {
	cfg := &Config{
		Width:      256,
		Height:     256,
		Resolution: maprender.DefaultResolution,
	}
	md, err := toml.Decode(s, cfg)
	if err != nil {
		return nil, err
	}
	for _, key := range md.Undecoded() {
		slog.Warn("unknown configuration key", slog.String("key", key.String()))
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid map size %dx%d", cfg.Width, cfg.Height)
	}
	return cfg, nil
}

func (cfg *Config) path(filename string) string {
	if filename == "" || filepath.IsAbs(filename) || cfg.dir == "" {
		return filename
	}
	return filepath.Join(cfg.dir, filename)
}

// Map builds the map without data: the fonts, symbols and layers with their classes.
func (cfg *Config) Map() (*maprender.Map, error) {
	m := maprender.New(cfg.Width, cfg.Height)
	m.Name = cfg.Name
	m.Background = cfg.Background.RGBA
	m.Resolution = cfg.Resolution
	m.ScaleDenom = cfg.ScaleDenom
	m.EdgeBuffer = cfg.EdgeBuffer
	for _, o := range cfg.Obstacles {
		if len(o) != 4 {
			return nil, fmt.Errorf("obstacle must be x0, y0, x1, y1")
		}
		m.Obstacles = append(m.Obstacles, orb.Bound{Min: orb.Point{o[0], o[1]}, Max: orb.Point{o[2], o[3]}})
	}

	for _, f := range cfg.Fonts {
		if f.Name == "" || f.File == "" {
			return nil, fmt.Errorf("font must have a name and a file")
		}
		m.Fonts.AddFile(f.Name, cfg.path(f.File))
	}
	for _, sc := range cfg.Symbols {
		symbol, err := cfg.symbol(sc)
		if err != nil {
			return nil, err
		}
		m.Symbols.Add(symbol)
	}
	for _, lc := range cfg.Layers {
		l, err := cfg.layer(m, lc)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", lc.Name, err)
		}
		m.AddLayer(l)
	}
	return m, nil
}

func (cfg *Config) symbol(sc SymbolConfig) (*maprender.Symbol, error) {
	points := make([]orb.Point, 0, len(sc.Points))
	for _, p := range sc.Points {
		if len(p) != 2 {
			return nil, fmt.Errorf("symbol %q: point must have two coordinates", sc.Name)
		}
		points = append(points, orb.Point{p[0], p[1]})
	}

	var s *maprender.Symbol
	switch strings.ToLower(sc.Type) {
	case "vector":
		s = maprender.NewVectorSymbol(sc.Name, sc.Filled, points...)
	case "ellipse":
		if len(points) != 1 {
			return nil, fmt.Errorf("symbol %q: ellipse needs one point with its radii", sc.Name)
		}
		s = maprender.NewEllipseSymbol(sc.Name, sc.Filled, points[0][0], points[0][1])
	case "pixmap":
		s = maprender.NewPixmapSymbol(sc.Name, nil)
		s.ImageFile = cfg.path(sc.Image)
	case "truetype":
		s = maprender.NewTruetypeSymbol(sc.Name, sc.Font, sc.Character, sc.Filled)
	case "hatch":
		s = maprender.NewHatchSymbol(sc.Name)
	case "svg":
		s = maprender.NewSVGSymbol(sc.Name, nil)
		s.ImageFile = cfg.path(sc.Image)
	default:
		return nil, fmt.Errorf("symbol %q: unknown type %q", sc.Name, sc.Type)
	}
	if len(sc.Anchor) == 2 {
		s.Anchor = orb.Point{sc.Anchor[0], sc.Anchor[1]}
	}
	if sc.Transparent != nil {
		s.Transparent = *sc.Transparent
	}
	if len(sc.Size) == 2 {
		s.SizeX, s.SizeY = sc.Size[0], sc.Size[1]
	}
	return s, nil
}

func (cfg *Config) layer(m *maprender.Map, lc LayerConfig) (*maprender.Layer, error) {
	typ, err := maprender.ParseLayerType(strings.ToLower(lc.Type))
	if err != nil {
		return nil, err
	}
	l := maprender.NewLayer(lc.Name, typ)
	if lc.Opacity != nil {
		l.Opacity = *lc.Opacity
	}
	l.SymbolScaleDenom = lc.SymbolScaleDenom
	l.MinScaleDenom, l.MaxScaleDenom = lc.MinScaleDenom, lc.MaxScaleDenom
	for _, cc := range lc.Classes {
		c := maprender.Class{
			Name:          cc.Name,
			MinScaleDenom: cc.MinScaleDenom,
			MaxScaleDenom: cc.MaxScaleDenom,
		}
		for _, sc := range cc.Styles {
			style, err := styleFromConfig(m.Symbols, sc)
			if err != nil {
				return nil, err
			}
			c.Styles = append(c.Styles, style)
		}
		for _, lbc := range cc.Labels {
			label, err := labelFromConfig(m.Symbols, lbc)
			if err != nil {
				return nil, err
			}
			c.Labels = append(c.Labels, label)
		}
		l.Classes = append(l.Classes, c)
	}
	return l, nil
}

func styleFromConfig(symbols *maprender.SymbolSet, sc StyleConfig) (maprender.Style, error) {
	style := maprender.DefaultStyle
	if sc.Symbol != "" {
		i, ok := symbols.Index(sc.Symbol)
		if !ok {
			return style, fmt.Errorf("unknown symbol %q", sc.Symbol)
		}
		style.Symbol = i
	}
	style.Color = sc.Color.RGBA
	style.OutlineColor = sc.OutlineColor.RGBA
	style.BackgroundColor = sc.BackgroundColor.RGBA
	setFloat(&style.Opacity, sc.Opacity)
	setFloat(&style.Size, sc.Size)
	setFloat(&style.MinSize, sc.MinSize)
	setFloat(&style.MaxSize, sc.MaxSize)
	setFloat(&style.Width, sc.Width)
	setFloat(&style.MinWidth, sc.MinWidth)
	setFloat(&style.MaxWidth, sc.MaxWidth)
	setFloat(&style.InitialGap, sc.InitialGap)
	setFloat(&style.JoinMaxSize, sc.JoinMaxSize)
	style.OutlineWidth = sc.OutlineWidth
	style.Angle = sc.Angle
	style.Gap = sc.Gap
	style.Pattern = sc.Pattern
	style.MinScaleDenom, style.MaxScaleDenom = sc.MinScaleDenom, sc.MaxScaleDenom
	if len(sc.Offset) == 2 {
		style.OffsetX, style.OffsetY = sc.Offset[0], sc.Offset[1]
	} else if len(sc.Offset) != 0 {
		return style, fmt.Errorf("offset must be x, y")
	}

	switch strings.ToLower(sc.LineCap) {
	case "", "round":
		style.LineCap = maprender.CapRound
	case "butt":
		style.LineCap = maprender.CapButt
	case "square":
		style.LineCap = maprender.CapSquare
	default:
		return style, fmt.Errorf("unknown line cap %q", sc.LineCap)
	}
	switch strings.ToLower(sc.LineJoin) {
	case "", "round":
		style.LineJoin = maprender.JoinRound
	case "miter":
		style.LineJoin = maprender.JoinMiter
	case "bevel":
		style.LineJoin = maprender.JoinBevel
	default:
		return style, fmt.Errorf("unknown line join %q", sc.LineJoin)
	}
	return style, nil
}

func labelFromConfig(symbols *maprender.SymbolSet, lc LabelConfig) (maprender.Label, error) {
	label := maprender.DefaultLabel
	label.Font = lc.Font
	setFloat(&label.Size, lc.Size)
	setFloat(&label.MinSize, lc.MinSize)
	setFloat(&label.MaxSize, lc.MaxSize)
	setFloat(&label.MinDistance, lc.MinDistance)
	setFloat(&label.MaxOverlapAngle, lc.MaxOverlapAngle)
	if lc.Color.Set {
		label.Color = lc.Color.RGBA
	}
	label.OutlineColor = lc.OutlineColor.RGBA
	label.OutlineWidth = lc.OutlineWidth
	label.ShadowColor = lc.ShadowColor.RGBA
	if len(lc.ShadowSize) == 2 {
		label.ShadowSizeX, label.ShadowSizeY = lc.ShadowSize[0], lc.ShadowSize[1]
	}
	label.BackgroundColor = lc.BackgroundColor.RGBA
	label.BackgroundShadowColor = lc.BackgroundShadowColor.RGBA
	if len(lc.BackgroundShadowSize) == 2 {
		label.BackgroundShadowSizeX, label.BackgroundShadowSizeY = lc.BackgroundShadowSize[0], lc.BackgroundShadowSize[1]
	}
	label.Padding = lc.Padding
	if len(lc.Offset) == 2 {
		label.OffsetX, label.OffsetY = lc.Offset[0], lc.Offset[1]
	}
	label.Buffer = lc.Buffer
	label.Force = lc.Force
	label.Partials = lc.Partials
	label.Encoding = lc.Encoding
	label.MinScaleDenom, label.MaxScaleDenom = lc.MinScaleDenom, lc.MaxScaleDenom
	if lc.Priority != nil {
		label.Priority = *lc.Priority
	}

	switch angle := strings.ToLower(lc.Angle); angle {
	case "":
	case "auto":
		label.AngleMode = maprender.AngleAuto
	case "follow":
		label.AngleMode = maprender.AngleFollow
	default:
		deg, ok := parseNumber(angle)
		if !ok {
			return label, fmt.Errorf("invalid label angle %q", lc.Angle)
		}
		label.Angle = deg
	}
	if lc.Position != "" {
		pos, err := maprender.ParsePosition(lc.Position)
		if err != nil {
			return label, err
		}
		label.Position = pos
	}
	if strings.EqualFold(lc.MinFeatureSize, "auto") {
		label.AutoMinFeatureSize = true
	} else if lc.MinFeatureSize != "" {
		size, ok := parseNumber(lc.MinFeatureSize)
		if !ok {
			return label, fmt.Errorf("invalid label min_feature_size %q", lc.MinFeatureSize)
		}
		label.MinFeatureSize = size
	}
	if lc.Wrap != "" {
		rs := []rune(lc.Wrap)
		if len(rs) != 1 {
			return label, fmt.Errorf("label wrap must be one character")
		}
		label.Wrap = rs[0]
	}
	for _, sc := range lc.Markers {
		style, err := styleFromConfig(symbols, sc)
		if err != nil {
			return label, err
		}
		label.Markers = append(label.Markers, style)
	}
	return label, nil
}

func parseNumber(s string) (float64, bool) {
	f, n := strconv.ParseFloat([]byte(s))
	return f, 0 < n && n == len(s)
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
