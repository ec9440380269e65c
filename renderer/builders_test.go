// renderer/builders_test.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"testing"

	"github.com/fbogfx/fbogfx/math"
)

func newTestFont(t *testing.T, slots int) (*Font, *Recorder) {
	t.Helper()
	rec := NewRecorder()
	f, err := NewFont(nil, slots, rec, 0, 7, nil)
	if err != nil {
		t.Fatalf("NewFont: %v", err)
	}
	return f, rec
}

func TestTrianglesDrawBuilder(t *testing.T) {
	td := GetTrianglesDrawBuilder()
	defer ReturnTrianglesDrawBuilder(td)

	td.AddRect(math.Rect(0, 0, 10, 10), White)
	if td.Len() != 2 {
		t.Errorf("rect: %d triangles", td.Len())
	}
	td.AddCircle([2]float32{50, 50}, 5, 12, Black)
	if td.Len() != 14 {
		t.Errorf("circle: %d triangles, expected 14", td.Len())
	}
	td.AddCircle([2]float32{50, 50}, 5, 2, Black)
	if td.Len() != 14 {
		t.Errorf("degenerate circle added triangles")
	}
	td.AddLine([2]float32{0, 0}, [2]float32{10, 0}, 2, White)
	if td.Len() != 16 {
		t.Errorf("line: %d triangles", td.Len())
	}

	e := td.Bounds()
	if e.P0 != [2]float32{0, -1} || e.P1 != [2]float32{55, 55} {
		t.Errorf("bounds %+v", e)
	}

	solid := Solid{State: stateA, TexCoord: [2]float32{0.5, 0.5}}
	b := NewBatchEngine(0, nil)
	if err := td.Emit(b, solid); err != nil {
		t.Fatal(err)
	}
	if b.Triangles().Len() != 16 || b.Commands().Len() != 1 {
		t.Errorf("got %d triangles in %d commands", b.Triangles().Len(), b.Commands().Len())
	}
	if tri := b.Triangles().Triangle(0); tri[0].TexCoord != solid.TexCoord || tri[2].Colour != White {
		t.Errorf("first triangle %+v", tri)
	}
}

func TestPolygonTriangulation(t *testing.T) {
	var td TrianglesDrawBuilder

	square := [][2]float32{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	td.AddPolygon(square, nil, White)
	if td.Len() != 2 {
		t.Errorf("square: got %d triangles, expected 2", td.Len())
	}

	td.Reset()
	hole := [][2]float32{{3, 3}, {3, 7}, {7, 7}, {7, 3}}
	td.AddPolygon(square, [][][2]float32{hole}, White)
	if td.Len() != 8 {
		t.Errorf("square with hole: got %d triangles, expected 8", td.Len())
	}

	// The triangles cover the square minus the hole.
	var area float32
	for _, tri := range td.p {
		area += math.Abs(math.SignedArea(tri[:])) / 2
	}
	if math.Abs(area-84) > 1e-3 {
		t.Errorf("triangulated area %f, expected 84", area)
	}

	td.Reset()
	td.AddPolygon(square[:2], nil, White)
	if td.Len() != 0 {
		t.Errorf("degenerate polygon produced %d triangles", td.Len())
	}
	td.AddPolygon([][2]float32{{0, 0}, {5, 5}, {10, 10}}, nil, White)
	if td.Len() != 0 {
		t.Errorf("collinear polygon produced %d triangles", td.Len())
	}
}

func TestFontAtlas(t *testing.T) {
	f, rec := newTestFont(t, 4)

	if f.Size != 13 || f.Advance() != 7 {
		t.Errorf("got size %d advance %f, expected 13 and 7", f.Size, f.Advance())
	}
	if _, ok := rec.Textures[f.TexId]; !ok {
		t.Errorf("atlas texture %d not created", f.TexId)
	}
	if st := f.State(); st.TextureID != f.TexId || st.ProgramID != 7 {
		t.Errorf("state %s", st)
	}

	a := f.LookupGlyph('A')
	if !a.Visible || a.AdvanceX != 7 || a.Width() <= 0 || a.Height() <= 0 {
		t.Errorf("glyph A %+v", a)
	}
	if sp := f.LookupGlyph(' '); sp.Visible || sp.AdvanceX != 7 {
		t.Errorf("space %+v", sp)
	}
	if cr := f.LookupGlyph('\r'); cr.Visible || cr.AdvanceX != 0 {
		t.Errorf("carriage return %+v", cr)
	}

	// The white texel is opaque white.
	w := f.Solid().TexCoord
	img := f.Atlas()
	px := img.RGBAAt(int(w[0]*float32(img.Rect.Dx())), int(w[1]*float32(img.Rect.Dy())))
	if px.R != 255 || px.G != 255 || px.B != 255 || px.A != 255 {
		t.Errorf("white texel is %v", px)
	}

	if w, h := f.BoundText("abc\nde", 2); w != 21 || h != 30 {
		t.Errorf("BoundText: %d x %d, expected 21 x 30", w, h)
	}
}

func TestFontGlyphCache(t *testing.T) {
	f, rec := newTestFont(t, 2)
	if err := f.Sync(); err != nil || rec.TextureUpdates != 0 {
		t.Fatalf("Sync of a fresh atlas: %v, %d uploads", err, rec.TextureUpdates)
	}

	e := f.LookupGlyph('é')
	if !e.Visible || e == f.fallback {
		t.Fatalf("é not rasterized: %+v", e)
	}
	if e.AdvanceX != 7 {
		t.Errorf("é advance %f, expected 7", e.AdvanceX)
	}
	if f.LookupGlyph('é') != e {
		t.Errorf("cached glyph not reused")
	}
	if !f.dirty {
		t.Errorf("atlas not marked dirty")
	}
	if err := f.Sync(); err != nil || f.dirty || rec.TextureUpdates != 1 {
		t.Errorf("Sync: %v, dirty %v, %d uploads", err, f.dirty, rec.TextureUpdates)
	}

	f.LookupGlyph('ü')
	f.LookupGlyph('ö') // evicts é
	if f.glyphs.Len() != 2 {
		t.Errorf("cache holds %d glyphs, expected 2", f.glyphs.Len())
	}
	if f.glyphs.Contains('é') {
		t.Errorf("least recently used glyph not evicted")
	}
	if e2 := f.LookupGlyph('é'); e2 == e || !e2.Visible {
		t.Errorf("evicted glyph not re-rasterized")
	}
	if len(f.free) != 0 {
		t.Errorf("%d free slots, expected 0", len(f.free))
	}
	if err := f.Sync(); err != nil || rec.TextureUpdates != 2 {
		t.Errorf("Sync after eviction: %v, %d uploads", err, rec.TextureUpdates)
	}

	// A rune neither face has is drawn as '?' and takes no slot.
	if g := f.LookupGlyph('\ue000'); g != f.fallback {
		t.Errorf("private use rune got %+v", g)
	}
	if !f.glyphs.Contains('ö') || !f.glyphs.Contains('é') {
		t.Errorf("missing rune evicted a cached glyph")
	}
}

func TestFontSyncWithoutTextures(t *testing.T) {
	f, err := NewFont(nil, 1, nil, 0, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	f.LookupGlyph('ß')
	if !f.dirty {
		t.Fatalf("atlas not marked dirty")
	}
	if err := f.Sync(); err != nil || f.dirty {
		t.Errorf("Sync: %v, dirty %v", err, f.dirty)
	}
}

func TestTextDrawBuilder(t *testing.T) {
	f, _ := newTestFont(t, 0)
	td := GetTextDrawBuilder()
	defer ReturnTextDrawBuilder(td)

	style := TextStyle{Font: f, Colour: White, DrawBackground: true, BackgroundColour: Black}
	end := td.AddText("ab c\nd", [2]float32{10, 20}, style)
	if end != [2]float32{17, 33} {
		t.Errorf("end position %v, expected [17 33]", end)
	}
	// Four visible glyphs, two background lines.
	if td.Len() != 6 {
		t.Errorf("got %d quads, expected 6", td.Len())
	}

	b := NewBatchEngine(0, nil)
	if err := td.Emit(b); err != nil {
		t.Fatal(err)
	}
	if b.Triangles().Len() != 12 || b.Commands().Len() != 1 {
		t.Errorf("got %d triangles in %d commands, expected 12 in 1", b.Triangles().Len(), b.Commands().Len())
	}

	// Backgrounds come first and span the line.
	bg := b.Triangles().Triangle(0)
	if bg[0].Colour != Black || bg[0].TexCoord != f.Solid().TexCoord {
		t.Errorf("first quad is not a background: %+v", bg[0])
	}
	if bg[0].Position != [2]float32{9, 20} || bg[1].Position != [2]float32{39, 20} {
		t.Errorf("background spans %v to %v", bg[0].Position, bg[1].Position)
	}
	if g := b.Triangles().Triangle(4); g[0].Colour != White {
		t.Errorf("glyphs do not follow backgrounds")
	}
}

func TestTextScaleAndTabs(t *testing.T) {
	f, _ := newTestFont(t, 0)
	var td TextDrawBuilder

	end := td.AddText("a\tb", [2]float32{0, 0}, TextStyle{Font: f, Colour: White, Scale: 2})
	// a, then a tab to 4 spaces (56 px at scale 2), then b.
	if end != [2]float32{70, 0} {
		t.Errorf("end %v, expected [70 0]", end)
	}
	q := td.regular[0].quads[0]
	g := f.LookupGlyph('a')
	if q.p.Width() != 2*g.Width() || q.p.Height() != 2*g.Height() {
		t.Errorf("glyph quad not scaled: %+v", q.p)
	}
}
