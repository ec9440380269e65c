// renderer/font.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/fbogfx/fbogfx/log"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	atlasColumns = 16
	// The first 128 atlas cells hold ASCII, with cell 0 (NUL) filled with
	// white for solid geometry. The rest are handed out to other runes as
	// they are used, least recently used first to go.
	asciiCells = 128
	// DefaultGlyphSlots is the number of atlas cells for non-ASCII runes.
	DefaultGlyphSlots = 256
)

// Glyph stores what is needed to draw a single character.
type Glyph struct {
	// Quad corners relative to the pen position at the top of the line.
	X0, Y0, X1, Y1 float32
	// Texture coordinates in the font atlas
	U0, V0, U1, V1 float32
	// Distance to advance in x after the character.
	AdvanceX float32
	// Is it a visible character (i.e., not space, tab, CR, ...)
	Visible bool
}

func (g *Glyph) Width() float32 {
	return g.X1 - g.X0
}

func (g *Glyph) Height() float32 {
	return g.Y1 - g.Y0
}

func (g *Glyph) texCoords() [4][2]float32 {
	return [4][2]float32{{g.U0, g.V0}, {g.U1, g.V0}, {g.U1, g.V1}, {g.U0, g.V1}}
}

// fallbackFace draws the runes that its primary face lacks with a second
// face; metrics and kerning come from the primary.
type fallbackFace struct {
	font.Face
	fallback font.Face
}

func (f *fallbackFace) Glyph(dot fixed.Point26_6, r rune) (image.Rectangle, image.Image, image.Point, fixed.Int26_6, bool) {
	if dr, mask, maskp, advance, ok := f.Face.Glyph(dot, r); ok {
		return dr, mask, maskp, advance, ok
	}
	return f.fallback.Glyph(dot, r)
}

func (f *fallbackFace) GlyphBounds(r rune) (fixed.Rectangle26_6, fixed.Int26_6, bool) {
	if bounds, advance, ok := f.Face.GlyphBounds(r); ok {
		return bounds, advance, ok
	}
	return f.fallback.GlyphBounds(r)
}

func (f *fallbackFace) GlyphAdvance(r rune) (fixed.Int26_6, bool) {
	if advance, ok := f.Face.GlyphAdvance(r); ok {
		return advance, ok
	}
	return f.fallback.GlyphAdvance(r)
}

func (f *fallbackFace) Close() error {
	return errors.Join(f.Face.Close(), f.fallback.Close())
}

var parseGoMono = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(gomono.TTF)
})

// DefaultFace returns basicfont.Face7x13 with Go Mono, hinted to the same
// 7 pixel advance, standing in for the runes it doesn't have (everything
// beyond ASCII).
func DefaultFace() (font.Face, error) {
	f, err := parseGoMono()
	if err != nil {
		return nil, fmt.Errorf("Go Mono: %w", err)
	}
	mono, err := opentype.NewFace(f, &opentype.FaceOptions{Size: 11.5, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("Go Mono: %w", err)
	}
	return &fallbackFace{Face: basicfont.Face7x13, fallback: mono}, nil
}

type cachedGlyph struct {
	glyph *Glyph
	slot  int
}

// Font is a fixed-size font rasterized into a texture atlas.
type Font struct {
	// Line height in pixels
	Size   int
	Ascent int
	TexId  uint32 // texture that holds the glyph texture atlas

	unit, program uint32

	face         font.Face
	atlas        *image.RGBA
	cellW, cellH int
	maxAdvance   float32
	white        [2]float32
	fallback     *Glyph
	tm           TextureManager
	dirty        bool
	lg           *log.Logger

	// Glyphs for the commonly-used ASCII range can be looked up using a
	// directly-mapped array, for efficiency.
	lowGlyphs [asciiCells]*Glyph
	// Other runes occupy atlas slots; when they run out, the least
	// recently used rune gives its slot up.
	glyphs *lru.Cache[rune, cachedGlyph]
	free   []int
}

// NewFont rasterizes face into an atlas texture created with tm. Glyphs
// are drawn with the given texture unit and shader program. If face is
// nil, DefaultFace is used.
func NewFont(face font.Face, slots int, tm TextureManager, unit, program uint32, lg *log.Logger) (*Font, error) {
	if face == nil {
		var err error
		if face, err = DefaultFace(); err != nil {
			return nil, err
		}
	}
	if slots <= 0 {
		slots = DefaultGlyphSlots
	}

	m := face.Metrics()
	f := &Font{
		Size:    m.Height.Ceil(),
		Ascent:  m.Ascent.Ceil(),
		unit:    unit,
		program: program,
		face:    face,
		tm:      tm,
		lg:      lg,
	}

	for ch := rune(' '); ch < asciiCells; ch++ {
		if adv, ok := face.GlyphAdvance(ch); ok {
			f.maxAdvance = max(f.maxAdvance, float32(adv)/64)
		}
	}
	f.cellW = max(int(f.maxAdvance+0.999), 1) + 1
	f.cellH = max(f.Size, 1) + 1

	rows := (asciiCells + slots + atlasColumns - 1) / atlasColumns
	f.atlas = image.NewRGBA(image.Rect(0, 0, atlasColumns*f.cellW, rows*f.cellH))

	// White cell; sample its center so that filtering never reaches a
	// neighbor.
	draw.Draw(f.atlas, f.cellRect(0), image.White, image.Point{}, draw.Src)
	f.white = [2]float32{
		(float32(f.cellW) / 2) / float32(f.atlas.Rect.Dx()),
		(float32(f.cellH) / 2) / float32(f.atlas.Rect.Dy()),
	}

	for ch := rune(1); ch < asciiCells; ch++ {
		if ch < ' ' || ch == 0x7f {
			// Control characters take no space.
			f.lowGlyphs[ch] = &Glyph{}
		} else {
			f.lowGlyphs[ch] = f.rasterize(ch, int(ch))
		}
	}
	if f.fallback = f.lowGlyphs['?']; f.fallback == nil {
		f.fallback = &Glyph{AdvanceX: f.maxAdvance}
	}

	for i := slots - 1; i >= 0; i-- {
		f.free = append(f.free, asciiCells+i)
	}
	var err error
	f.glyphs, err = lru.NewWithEvict(slots, func(ch rune, cg cachedGlyph) {
		f.free = append(f.free, cg.slot)
	})
	if err != nil {
		return nil, err
	}

	if tm != nil {
		if f.TexId, err = tm.CreateTextureFromImage(f.atlas, true); err != nil {
			return nil, fmt.Errorf("font atlas: %w", err)
		}
	}
	// The texture starts out with everything rasterized so far.
	f.dirty = false

	lg.Info("created font atlas", "size", f.Size, "atlas", f.atlas.Rect.Size(), "slots", slots)
	return f, nil
}

func (f *Font) cellRect(cell int) image.Rectangle {
	x, y := (cell%atlasColumns)*f.cellW, (cell/atlasColumns)*f.cellH
	return image.Rect(x, y, x+f.cellW, y+f.cellH)
}

// rasterize draws ch into the given atlas cell and returns its Glyph, or
// nil if the face has no glyph for ch.
func (f *Font) rasterize(ch rune, cell int) *Glyph {
	cr := f.cellRect(cell)
	draw.Draw(f.atlas, cr, image.Transparent, image.Point{}, draw.Src)

	dot := fixed.P(cr.Min.X, cr.Min.Y+f.Ascent)
	dr, mask, maskp, advance, ok := f.face.Glyph(dot, ch)
	if !ok {
		return nil
	}

	g := &Glyph{AdvanceX: float32(advance) / 64}
	clipped := dr.Intersect(cr)
	if clipped.Empty() {
		return g
	}
	maskp = maskp.Add(clipped.Min.Sub(dr.Min))
	dr = clipped

	draw.DrawMask(f.atlas, dr, image.NewUniform(color.White), image.Point{}, mask, maskp, draw.Over)
	f.dirty = true
	if !f.coverage(dr) {
		// Blank glyphs like space just advance the pen.
		return g
	}

	w, h := float32(f.atlas.Rect.Dx()), float32(f.atlas.Rect.Dy())
	g.X0, g.Y0 = float32(dr.Min.X-cr.Min.X), float32(dr.Min.Y-cr.Min.Y)
	g.X1, g.Y1 = float32(dr.Max.X-cr.Min.X), float32(dr.Max.Y-cr.Min.Y)
	g.U0, g.V0 = float32(dr.Min.X)/w, float32(dr.Min.Y)/h
	g.U1, g.V1 = float32(dr.Max.X)/w, float32(dr.Max.Y)/h
	g.Visible = true
	return g
}

// coverage reports whether any pixel in r of the atlas is non-transparent.
func (f *Font) coverage(r image.Rectangle) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if f.atlas.RGBAAt(x, y).A != 0 {
				return true
			}
		}
	}
	return false
}

// LookupGlyph returns the Glyph for the specified rune. Runes that the
// face doesn't have are drawn as '?'.
func (f *Font) LookupGlyph(ch rune) *Glyph {
	if ch >= 0 && ch < asciiCells {
		if g := f.lowGlyphs[ch]; g != nil {
			return g
		}
		return f.fallback
	}

	if cg, ok := f.glyphs.Get(ch); ok {
		return cg.glyph
	}

	if _, ok := f.face.GlyphAdvance(ch); !ok {
		f.lg.Debugf("%U: no glyph in font", ch)
		return f.fallback
	}
	if len(f.free) == 0 {
		// Evicting calls back to return the slot to the free list.
		f.glyphs.RemoveOldest()
	}
	slot := f.free[len(f.free)-1]
	f.free = f.free[:len(f.free)-1]

	g := f.rasterize(ch, slot)
	if g == nil {
		f.free = append(f.free, slot)
		f.lg.Debugf("%U: no glyph in font", ch)
		return f.fallback
	}
	f.glyphs.Add(ch, cachedGlyph{glyph: g, slot: slot})
	return g
}

// Sync uploads the atlas if glyphs have been added to it since the last
// upload. It must be called before the batch with the new glyphs is
// flushed.
func (f *Font) Sync() error {
	if !f.dirty {
		return nil
	}
	if f.tm == nil || f.TexId == 0 {
		// Nothing to upload to; the atlas image is all there is.
		f.dirty = false
		return nil
	}
	if err := f.tm.UpdateTextureFromImage(f.TexId, f.atlas, true); err != nil {
		return fmt.Errorf("font atlas: %w", err)
	}
	f.dirty = false
	return nil
}

// State returns the state that glyphs are drawn with.
func (f *Font) State() State {
	return State{TextureUnit: f.unit, TextureID: f.TexId, ProgramID: f.program}
}

// Solid returns the state for drawing untextured geometry using the
// atlas's white cell, so that it can share draw commands with text.
func (f *Font) Solid() Solid {
	return Solid{State: f.State(), TexCoord: f.white}
}

func (f *Font) whiteTexCoords() [4][2]float32 {
	return [4][2]float32{f.white, f.white, f.white, f.white}
}

// Advance returns the widest ASCII advance; for fixed-width fonts it is
// the width of every character.
func (f *Font) Advance() float32 {
	return f.maxAdvance
}

// Atlas returns the atlas image.
func (f *Font) Atlas() *image.RGBA {
	return f.atlas
}

// BoundText returns the size of the specified text in the given font,
// assuming the given pixel spacing between lines.
func (f *Font) BoundText(s string, spacing int) (int, int) {
	dy := f.Size + spacing
	py := dy
	var px, xmax float32
	for _, ch := range s {
		if ch == '\n' {
			px = 0
			py += dy
		} else {
			px += f.LookupGlyph(ch).AdvanceX
			xmax = max(px, xmax)
		}
	}
	return int(xmax + 0.5), py
}
