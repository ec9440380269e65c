// console/render.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package console

import (
	"github.com/fbogfx/fbogfx/cvar"
	"github.com/fbogfx/fbogfx/log"
	"github.com/fbogfx/fbogfx/renderer"
	"github.com/fbogfx/fbogfx/util"
)

// ColourScheme gives the colours of the console's text; the background
// colour comes from the con_bgcolour cvar.
type ColourScheme struct {
	Text          renderer.RGB
	TextHighlight renderer.RGB
	TextError     renderer.RGB
	Cursor        renderer.RGB
}

var DefaultColourScheme = ColourScheme{
	Text:          renderer.RGB{R: 0.85, G: 0.85, B: 0.85},
	TextHighlight: renderer.RGB{R: 1, G: 0.85, B: 0.2},
	TextError:     renderer.RGB{R: 1, G: 0.3, B: 0.3},
	Cursor:        renderer.RGB{R: 0.85, G: 0.85, B: 0.85},
}

// Renderer draws a Console to a RenderTarget, filling the target.
type Renderer struct {
	Console *Console
	Font    *renderer.Font
	CVars   *cvar.Registry
	Colours ColourScheme

	lg *log.Logger
}

func NewRenderer(c *Console, font *renderer.Font, cvars *cvar.Registry, lg *log.Logger) *Renderer {
	return &Renderer{
		Console: c,
		Font:    font,
		CVars:   cvars,
		Colours: DefaultColourScheme,
		lg:      lg,
	}
}

// Layout describes how the console text fits the target.
type Layout struct {
	Scale      float32
	CharWidth  float32
	LineHeight float32
	Columns    int
	Rows       int
	// Rows available for output, after the input and status lines.
	OutputRows int
}

func (r *Renderer) Layout(width, height int) Layout {
	scale := float32(r.CVars.Float(cvar.ConsoleTextScale))
	if scale <= 0 {
		scale = 1
	}
	l := Layout{
		Scale:      scale,
		CharWidth:  r.Font.Advance() * scale,
		LineHeight: float32(r.Font.Size+1) * scale,
	}
	if l.CharWidth > 0 {
		l.Columns = int(float32(width) / l.CharWidth)
	}
	l.Rows = int(float32(height) / l.LineHeight)
	l.OutputRows = max(l.Rows-2, 0)
	return l
}

// Estimate returns the number of triangles to reserve for a full screen
// of text: one quad per character cell plus a little for the background.
func (l Layout) Estimate(width, height int) int {
	return renderer.EstimateCapacity(width, height, max(int(l.CharWidth), 1), max(int(l.LineHeight), 1)) + 2
}

func (r *Renderer) style(s TextStyle) renderer.RGB {
	switch s {
	case TextEmphasized:
		return r.Colours.TextHighlight
	case TextError:
		return r.Colours.TextError
	default:
		return r.Colours.Text
	}
}

// clip truncates s to at most n runes.
func clip(s string, n int) string {
	i := 0
	for j := range s {
		if i == n {
			return s[:j]
		}
		i++
	}
	return s
}

// Render starts a frame on rt and appends the console to its batch: the
// background, then the visible output lines, the input line with its
// cursor and the status line. The caller finishes the frame.
func (r *Renderer) Render(rt *renderer.RenderTarget) error {
	width, height := rt.Size()
	l := r.Layout(width, height)
	rt.BeginFrame(l.Estimate(width, height))

	b := rt.Batch()
	bg, err := renderer.ParseRGB(r.CVars.String(cvar.ConsoleBgColour))
	if err != nil {
		r.lg.Warnf("%s: %v", cvar.ConsoleBgColour, err)
	}
	alpha := float32(r.CVars.Float(cvar.ConsoleBgAlpha))

	tb := renderer.GetTrianglesDrawBuilder()
	defer renderer.ReturnTrianglesDrawBuilder(tb)
	tb.AddRect(rt.Bounds(), bg.WithAlpha(alpha))
	if err := tb.Emit(b, r.Font.Solid()); err != nil {
		return err
	}

	td := renderer.GetTextDrawBuilder()
	defer renderer.ReturnTextDrawBuilder(td)

	style := renderer.TextStyle{Font: r.Font, Scale: l.Scale, LineSpacing: 1}
	left := float32(r.Font.Size) / 2 * l.Scale

	// Output, oldest at the top, ending just above the input line. Long
	// entries wrap, so only the last OutputRows wrapped lines are shown.
	type line struct {
		text  string
		style TextStyle
	}
	var lines []line
	for _, e := range r.Console.Visible(l.OutputRows) {
		for _, s := range util.WrapText(e.Text, l.Columns, 2) {
			lines = append(lines, line{text: s, style: e.Style})
		}
	}
	lines = lines[max(len(lines)-l.OutputRows, 0):]

	y := float32(l.Rows-2-len(lines)) * l.LineHeight
	for _, ln := range lines {
		style.Colour = r.style(ln.style).WithAlpha(1)
		td.AddText(ln.text, [2]float32{left, y}, style)
		y += l.LineHeight
	}

	// Input line with the cursor drawn as an inverted character cell.
	style.Colour = r.Colours.Text.WithAlpha(1)
	cursorStyle := style
	cursorStyle.Colour = bg.WithAlpha(1)
	cursorStyle.DrawBackground = true
	cursorStyle.BackgroundColour = r.Colours.Cursor.WithAlpha(1)

	in := r.Console.Input.String()
	cur := r.Console.Input.Cursor()
	p := [2]float32{left, float32(l.Rows-2) * l.LineHeight}
	p = td.AddText("> "+in[:cur], p, style)
	if cur == len(in) {
		td.AddText(" ", p, cursorStyle)
	} else {
		ch := clip(in[cur:], 1)
		p = td.AddText(ch, p, cursorStyle)
		td.AddText(in[cur+len(ch):], p, style)
	}

	if r.Console.Status != "" {
		style.Colour = r.Colours.TextError.WithAlpha(1)
		td.AddText(clip(r.Console.Status, l.Columns), [2]float32{left, float32(l.Rows-1) * l.LineHeight}, style)
	}

	// Any glyphs rasterized above must be in the atlas texture before
	// the batch is drawn.
	if err := r.Font.Sync(); err != nil {
		return err
	}
	return td.Emit(b)
}

// VisibleLines returns the number of output lines that fit the target; it
// is the page size for PageUp and PageDown.
func (r *Renderer) VisibleLines(rt *renderer.RenderTarget) int {
	w, h := rt.Size()
	return r.Layout(w, h).OutputRows
}
