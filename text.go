package maprender

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"github.com/paulmach/orb"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// DefaultFont is the name of the font used when a label or symbol names no font or an unknown one.
const DefaultFont = "default"

// Font is a TrueType or OpenType font. Parsing is deferred until first use.
type Font struct {
	Name string
	File string
	data []byte

	once   sync.Once
	err    error
	sfnt   *sfnt.Font
	gotext *gotext.Font
}

// NewFont returns a font for the raw font program.
func NewFont(name string, data []byte) *Font {
	return &Font{Name: name, data: data}
}

func (f *Font) load() error {
	f.once.Do(func() {
		unlock := acquire(LockFont)
		defer unlock()

		if f.data == nil && f.File != "" {
			var err error
			if f.data, err = os.ReadFile(f.File); err != nil {
				f.err = wrapError(ErrResource, "Font.load", err)
				return
			}
		}
		var err error
		if f.sfnt, err = sfnt.Parse(f.data); err != nil {
			f.err = wrapError(ErrResource, "Font.load", fmt.Errorf("font %q: %w", f.Name, err))
			return
		}
		face, err := gotext.ParseTTF(bytes.NewReader(f.data))
		if err != nil {
			f.err = wrapError(ErrResource, "Font.load", fmt.Errorf("font %q: %w", f.Name, err))
			return
		}
		f.gotext = face.Font
	})
	return f.err
}

// SFNT returns the parsed font program.
func (f *Font) SFNT() (*sfnt.Font, error) {
	if err := f.load(); err != nil {
		return nil, err
	}
	return f.sfnt, nil
}

// Metrics returns the ascent and descent (both positive) and the line height at size pixels per em.
func (f *Font) Metrics(size float64) (float64, float64, float64, error) {
	if err := f.load(); err != nil {
		return 0.0, 0.0, 0.0, err
	}
	var buf sfnt.Buffer
	m, err := f.sfnt.Metrics(&buf, toFixed(size), xfont.HintingNone)
	if err != nil {
		return 0.0, 0.0, 0.0, wrapError(ErrResource, "Font.Metrics", err)
	}
	return fromFixed(m.Ascent), fromFixed(m.Descent), fromFixed(m.Height), nil
}

// GlyphPath returns the outline of glyph id at size pixels per em, relative to the pen position on the baseline with y pointing down.
func (f *Font) GlyphPath(id uint16, size float64) (*Path, error) {
	if err := f.load(); err != nil {
		return nil, err
	}
	var buf sfnt.Buffer
	segs, err := f.sfnt.LoadGlyph(&buf, sfnt.GlyphIndex(id), toFixed(size), nil)
	if err != nil {
		return nil, wrapError(ErrResource, "Font.GlyphPath", err)
	}
	p := &Path{}
	open := false
	for _, seg := range segs {
		a := seg.Args
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				p.Close()
			}
			p.MoveTo(fromFixed(a[0].X), fromFixed(a[0].Y))
			open = true
		case sfnt.SegmentOpLineTo:
			p.LineTo(fromFixed(a[0].X), fromFixed(a[0].Y))
		case sfnt.SegmentOpQuadTo:
			p.QuadTo(fromFixed(a[0].X), fromFixed(a[0].Y), fromFixed(a[1].X), fromFixed(a[1].Y))
		case sfnt.SegmentOpCubeTo:
			p.CubeTo(fromFixed(a[0].X), fromFixed(a[0].Y), fromFixed(a[1].X), fromFixed(a[1].Y), fromFixed(a[2].X), fromFixed(a[2].Y))
		}
	}
	if open {
		p.Close()
	}
	return p, nil
}

// Shape shapes text at size pixels per em into a glyph run. Lines are separated by newlines and centered on the widest line.
func (f *Font) Shape(text string, size float64) (*GlyphRun, error) {
	if err := f.load(); err != nil {
		return nil, err
	}
	ascent, descent, height, err := f.Metrics(size)
	if err != nil {
		return nil, err
	}

	run := &GlyphRun{
		Font:       f,
		Size:       size,
		Text:       text,
		Ascent:     ascent,
		Descent:    descent,
		LineHeight: height,
	}
	face := gotext.NewFace(f.gotext)
	shaper := &shaping.HarfbuzzShaper{}
	lines := strings.Split(text, "\n")
	widths := make([]float64, len(lines))
	starts := make([]int, len(lines))
	for i, line := range lines {
		starts[i] = len(run.Glyphs)
		runes := []rune(line)
		if len(runes) == 0 {
			continue
		}
		out := shaper.Shape(shaping.Input{
			Text:      runes,
			RunStart:  0,
			RunEnd:    len(runes),
			Direction: di.DirectionLTR,
			Face:      face,
			Size:      toFixed(size),
			Script:    detectScript(runes),
			Language:  language.NewLanguage("en"),
		})
		x, y := 0.0, float64(i)*height
		for _, g := range out.Glyphs {
			advance := fromFixed(g.XAdvance)
			run.Glyphs = append(run.Glyphs, Glyph{
				ID:      uint16(g.GlyphID),
				X:       x + fromFixed(g.XOffset),
				Y:       y - fromFixed(g.YOffset),
				Advance: advance,
			})
			x += advance
		}
		widths[i] = x
		run.Width = math.Max(run.Width, x)
	}
	if 1 < len(lines) {
		for i := range lines {
			end := len(run.Glyphs)
			if i+1 < len(lines) {
				end = starts[i+1]
			}
			dx := (run.Width - widths[i]) / 2.0
			for j := starts[i]; j < end; j++ {
				run.Glyphs[j].X += dx
			}
		}
	}
	run.Lines = len(lines)
	return run, nil
}

func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func toFixed(f float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(f * 64.0))
}

func fromFixed(f fixed.Int26_6) float64 {
	return float64(f) / 64.0
}

////////////////////////////////////////////////////////////////

// Glyph is a positioned glyph. X and Y are the pen position on the baseline and Angle the rotation around it.
type Glyph struct {
	ID      uint16
	X, Y    float64
	Angle   float64
	Advance float64
}

// GlyphRun is a run of shaped glyphs in one font and size. After shaping the positions are relative to the baseline start of the first line; Place moves them into device space.
type GlyphRun struct {
	Font       *Font
	Size       float64
	Text       string
	Glyphs     []Glyph
	Width      float64 // advance of the widest line
	Ascent     float64
	Descent    float64
	LineHeight float64
	Lines      int
}

// Bound returns the text box relative to the baseline start, y pointing down.
func (run *GlyphRun) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{0.0, -run.Ascent},
		Max: orb.Point{run.Width, run.Descent + float64(run.Lines-1)*run.LineHeight},
	}
}

// Height returns the height of the text box.
func (run *GlyphRun) Height() float64 {
	b := run.Bound()
	return b.Max[1] - b.Min[1]
}

// Place returns a copy with the glyphs rotated by angle around the origin and moved to (x,y).
func (run *GlyphRun) Place(x, y, angle float64) *GlyphRun {
	placed := *run
	placed.Glyphs = make([]Glyph, len(run.Glyphs))
	for i, g := range run.Glyphs {
		p := rotate(orb.Point{g.X, g.Y}, angle)
		g.X, g.Y = p[0]+x, p[1]+y
		g.Angle += angle
		placed.Glyphs[i] = g
	}
	return &placed
}

// Path returns the outlines of all glyphs in device space.
func (run *GlyphRun) Path() (*Path, error) {
	p := &Path{}
	for _, g := range run.Glyphs {
		q, err := run.Font.GlyphPath(g.ID, run.Size)
		if err != nil {
			return nil, err
		}
		p.Append(q.Place(g.X, g.Y, g.Angle))
	}
	return p, nil
}

////////////////////////////////////////////////////////////////

// FontSet maps font names to fonts. It always holds DefaultFont.
type FontSet struct {
	mu    sync.RWMutex
	fonts map[string]*Font
}

// NewFontSet returns a font set with the Go Regular font as default.
func NewFontSet() *FontSet {
	return &FontSet{
		fonts: map[string]*Font{DefaultFont: NewFont(DefaultFont, goregular.TTF)},
	}
}

// Add registers a font program under name.
func (fs *FontSet) Add(name string, data []byte) {
	fs.mu.Lock()
	fs.fonts[name] = NewFont(name, data)
	fs.mu.Unlock()
}

// AddFile registers a font file under name, it is read on first use.
func (fs *FontSet) AddFile(name, filename string) {
	fs.mu.Lock()
	fs.fonts[name] = &Font{Name: name, File: filename}
	fs.mu.Unlock()
}

// Lookup returns the named font.
func (fs *FontSet) Lookup(name string) (*Font, bool) {
	if fs == nil {
		return nil, false
	}
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if name == "" {
		name = DefaultFont
	}
	f, ok := fs.fonts[name]
	return f, ok
}

// Get returns the named font or an ErrResource error when it does not exist.
func (fs *FontSet) Get(name string) (*Font, error) {
	f, ok := fs.Lookup(name)
	if !ok {
		return nil, newError(ErrResource, "FontSet.Get", "font %q not found", name)
	}
	return f, nil
}
