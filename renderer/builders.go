// renderer/builders.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"sync"

	"github.com/fbogfx/fbogfx/math"

	"github.com/mmp/earcut-go"
)

///////////////////////////////////////////////////////////////////////////
// DrawBuilders

// The *DrawBuilder types make it possible to collect a number of things of
// the same kind to be drawn and then append them to a BatchEngine
// together, so that they end up in as few draw commands as possible.

// Solid specifies how untextured geometry is drawn: the state to bind and
// a texture coordinate that samples an opaque white texel in the bound
// texture, so that the vertex colour comes through unchanged.
type Solid struct {
	State    State
	TexCoord [2]float32
}

// FullTexCoords are the texture coordinates that map an entire texture to
// a quad, in top-left, top-right, bottom-right, bottom-left order.
var FullTexCoords = [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

func uniform4(c RGBA) [4]RGBA {
	return [4]RGBA{c, c, c, c}
}

// AddTexturedRect appends the rectangle e with the given texture
// coordinates, modulated by colour c.
func AddTexturedRect(b *BatchEngine, e math.Extent2D, tc [4][2]float32, c RGBA, st State) error {
	return b.AppendQuad(e.P0[0], e.P0[1], e.P1[0], e.P1[1], tc, uniform4(c), st)
}

// TrianglesDrawBuilder collects solid-coloured triangles to be appended to
// a batch together. Each triangle has its own colour.
type TrianglesDrawBuilder struct {
	p   [][3][2]float32
	rgb []RGBA
}

// Reset resets the internal arrays used for accumulating triangles,
// maintaining the initial allocations.
func (t *TrianglesDrawBuilder) Reset() {
	t.p = t.p[:0]
	t.rgb = t.rgb[:0]
}

// Len returns the number of triangles that have been added.
func (t *TrianglesDrawBuilder) Len() int {
	return len(t.p)
}

// AddTriangle adds a triangle with the specified three vertices to be
// drawn.
func (t *TrianglesDrawBuilder) AddTriangle(p0, p1, p2 [2]float32, c RGBA) {
	t.p = append(t.p, [3][2]float32{p0, p1, p2})
	t.rgb = append(t.rgb, c)
}

// AddQuad adds a quadrilateral with the specified four vertices, given in
// order around its boundary starting at the top left; it is split into
// two triangles along the p1-p3 diagonal, matching BatchEngine.AppendQuad.
func (t *TrianglesDrawBuilder) AddQuad(p0, p1, p2, p3 [2]float32, c RGBA) {
	t.AddTriangle(p0, p1, p3, c)
	t.AddTriangle(p3, p1, p2, c)
}

func (t *TrianglesDrawBuilder) AddRect(e math.Extent2D, c RGBA) {
	p := e.Corners()
	t.AddQuad(p[0], p[1], p[2], p[3], c)
}

// AddLine adds a line segment of the given width, drawn as a quad.
func (t *TrianglesDrawBuilder) AddLine(p0, p1 [2]float32, width float32, c RGBA) {
	d := math.Normalize2f(math.Sub2f(p1, p0))
	n := math.Scale2f([2]float32{-d[1], d[0]}, width/2)
	t.AddQuad(math.Add2f(p0, n), math.Add2f(p1, n), math.Sub2f(p1, n), math.Sub2f(p0, n), c)
}

// AddCircle adds a filled circle with specified radius around the
// specified position to be drawn using triangles. The specified number of
// segments, nsegs, sets the tessellation rate for the circle.
func (t *TrianglesDrawBuilder) AddCircle(p [2]float32, radius float32, nsegs int, c RGBA) {
	if nsegs < 3 {
		return
	}
	circle := math.CirclePoints(nsegs)
	for i := 0; i < nsegs; i++ {
		p0 := math.Add2f(p, math.Scale2f(circle[i], radius))
		p1 := math.Add2f(p, math.Scale2f(circle[(i+1)%nsegs], radius))
		t.AddTriangle(p, p0, p1, c)
	}
}

// AddPolygon triangulates the polygon with the given outer boundary and
// holes and adds the resulting triangles. Neither the boundary nor the
// holes should repeat their first vertex at the end.
func (t *TrianglesDrawBuilder) AddPolygon(outer [][2]float32, holes [][][2]float32, c RGBA) {
	if len(outer) < 3 || math.SignedArea(outer) == 0 {
		// Nothing to fill.
		return
	}

	ring := func(loop [][2]float32) []earcut.Vertex {
		v := make([]earcut.Vertex, len(loop))
		for i, p := range loop {
			v[i].P = [2]float64{float64(p[0]), float64(p[1])}
		}
		return v
	}

	poly := earcut.Polygon{Rings: [][]earcut.Vertex{ring(outer)}}
	for _, h := range holes {
		if len(h) >= 3 {
			poly.Rings = append(poly.Rings, ring(h))
		}
	}

	for _, tri := range earcut.Triangulate(poly) {
		var v32 [3][2]float32
		for i, v64 := range tri.Vertices {
			v32[i] = [2]float32{float32(v64.P[0]), float32(v64.P[1])}
		}
		t.AddTriangle(v32[0], v32[1], v32[2], c)
	}
}

func (t *TrianglesDrawBuilder) Bounds() math.Extent2D {
	e := math.EmptyExtent2D()
	for _, tri := range t.p {
		for _, p := range tri {
			e = math.Union(e, p)
		}
	}
	return e
}

// Emit appends the collected triangles to b, in the order they were
// added, all drawn with the state in s.
func (t *TrianglesDrawBuilder) Emit(b *BatchEngine, s Solid) error {
	for i, tri := range t.p {
		c := t.rgb[i]
		err := b.AppendTriangle([3]Vertex{
			{TexCoord: s.TexCoord, Position: tri[0], Colour: c},
			{TexCoord: s.TexCoord, Position: tri[1], Colour: c},
			{TexCoord: s.TexCoord, Position: tri[2], Colour: c},
		}, s.State)
		if err != nil {
			return err
		}
	}
	return nil
}

// TrianglesDrawBuilders are managed using a sync.Pool so that their buf
// slice allocations persist across multiple uses.
var trianglesDrawBuilderPool = sync.Pool{New: func() any { return &TrianglesDrawBuilder{} }}

func GetTrianglesDrawBuilder() *TrianglesDrawBuilder {
	return trianglesDrawBuilderPool.Get().(*TrianglesDrawBuilder)
}

func ReturnTrianglesDrawBuilder(td *TrianglesDrawBuilder) {
	td.Reset()
	trianglesDrawBuilderPool.Put(td)
}

///////////////////////////////////////////////////////////////////////////
// Text

// texturedQuad is a quad with per-quad colour, corners in top-left,
// top-right, bottom-right, bottom-left order.
type texturedQuad struct {
	p   math.Extent2D
	uv  [4][2]float32
	rgb RGBA
}

// textBuffers holds the quads for one font.
type textBuffers struct {
	font  *Font
	quads []texturedQuad
}

// TextStyle specifies the style of text to be drawn.
type TextStyle struct {
	Font   *Font
	Colour RGBA
	// Scale multiplies the font's size; zero is treated as one.
	Scale float32
	// LineSpacing gives the additional spacing in pixels between lines of
	// text relative to the font's default line spacing.
	LineSpacing int
	// DrawBackground specifies if a filled quad should be drawn behind
	// each line of text.
	DrawBackground   bool
	BackgroundColour RGBA
}

func (s TextStyle) scale() float32 {
	if s.Scale <= 0 {
		return 1
	}
	return s.Scale
}

// TextDrawBuilder accumulates text to be drawn. Background quads are all
// emitted before any glyphs so that they never cover text. Since both
// sample the font's atlas, text in a single font ends up in a single
// draw command.
type TextDrawBuilder struct {
	// Glyph quads, per font, in the order fonts were first used.
	regular []*textBuffers
	// Background quads, with the font whose white texel they use.
	background []backgroundQuad
}

type backgroundQuad struct {
	font *Font
	texturedQuad
}

func (td *TextDrawBuilder) buffers(f *Font) *textBuffers {
	for _, b := range td.regular {
		if b.font == f {
			return b
		}
	}
	b := &textBuffers{font: f}
	td.regular = append(td.regular, b)
	return b
}

// AddText draws the specified text using the given position p as the
// upper-left corner. It returns the position where subsequent text
// would continue.
func (td *TextDrawBuilder) AddText(s string, p [2]float32, style TextStyle) [2]float32 {
	f := style.Font
	scale := style.scale()
	dy := (float32(f.Size) + float32(style.LineSpacing)) * scale

	px, py := p[0], p[1]
	bx0 := px

	flushbg := func() {
		if px == bx0 {
			return
		}
		// Additional padding
		padx := float32(1)
		e := math.Extent2D{P0: [2]float32{bx0 - padx, py}, P1: [2]float32{px + padx, py + dy}}
		td.background = append(td.background, backgroundQuad{font: f,
			texturedQuad: texturedQuad{p: e, uv: f.whiteTexCoords(), rgb: style.BackgroundColour}})
	}

	buf := td.buffers(f)
	for _, ch := range s {
		switch ch {
		case '\n':
			if style.DrawBackground {
				flushbg()
			}
			px = p[0]
			py += dy
			bx0 = px
			continue

		case '\t':
			// Advance to the next multiple of four spaces.
			tab := 4 * f.LookupGlyph(' ').AdvanceX * scale
			if tab > 0 {
				px = p[0] + (math.Floor((px-p[0])/tab)+1)*tab
			}
			continue
		}

		glyph := f.LookupGlyph(ch)
		if glyph.Visible {
			buf.quads = append(buf.quads, texturedQuad{
				p: math.Extent2D{
					P0: [2]float32{px + glyph.X0*scale, py + glyph.Y0*scale},
					P1: [2]float32{px + glyph.X1*scale, py + glyph.Y1*scale},
				},
				uv:  glyph.texCoords(),
				rgb: style.Colour,
			})
		}
		// Visible or not, advance the x cursor position to move to the next character.
		px += glyph.AdvanceX * scale
	}

	// Make sure we emit a background quad for the last line even if it
	// doesn't end with a newline.
	if style.DrawBackground {
		flushbg()
	}
	return [2]float32{px, py}
}

// Len returns the number of quads, glyphs and backgrounds, that will be
// emitted.
func (td *TextDrawBuilder) Len() int {
	n := len(td.background)
	for _, b := range td.regular {
		n += len(b.quads)
	}
	return n
}

func (td *TextDrawBuilder) Reset() {
	for _, b := range td.regular {
		b.quads = b.quads[:0]
	}
	td.regular = td.regular[:0]
	td.background = td.background[:0]
}

// Emit appends the backgrounds and then the glyphs to b.
func (td *TextDrawBuilder) Emit(b *BatchEngine) error {
	emit := func(f *Font, q texturedQuad) error {
		return b.AppendQuad(q.p.P0[0], q.p.P0[1], q.p.P1[0], q.p.P1[1], q.uv, uniform4(q.rgb), f.State())
	}

	for _, bg := range td.background {
		if err := emit(bg.font, bg.texturedQuad); err != nil {
			return err
		}
	}
	for _, buf := range td.regular {
		for _, q := range buf.quads {
			if err := emit(buf.font, q); err != nil {
				return err
			}
		}
	}
	return nil
}

// TextDrawBuilders are managed using a sync.Pool so that their buf slice
// allocations persist across multiple uses.
var textDrawBuilderPool = sync.Pool{New: func() any { return &TextDrawBuilder{} }}

func GetTextDrawBuilder() *TextDrawBuilder {
	return textDrawBuilderPool.Get().(*TextDrawBuilder)
}

func ReturnTextDrawBuilder(td *TextDrawBuilder) {
	td.Reset()
	textDrawBuilderPool.Put(td)
}
