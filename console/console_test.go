// console/console_test.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package console

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/fbogfx/fbogfx/cvar"
	"github.com/fbogfx/fbogfx/renderer"
	"github.com/fbogfx/fbogfx/util"
)

func texts(e []Entry) []string {
	return util.MapSlice(e, func(e Entry) string { return e.Text })
}

func TestScrollback(t *testing.T) {
	c := New(3)
	c.Print("a\nb\nc\nd\n")
	if l := texts(c.Lines()); !slices.Equal(l, []string{"b", "c", "d"}) {
		t.Errorf("lines %v", l)
	}

	c.Scroll(10)
	if c.ViewOffset() != 2 {
		t.Errorf("scroll clamped to %d, expected 2", c.ViewOffset())
	}
	if v := texts(c.Visible(5)); !slices.Equal(v, []string{"b"}) {
		t.Errorf("visible %v", v)
	}
	c.Scroll(-10)
	if c.ViewOffset() != 0 {
		t.Errorf("scroll clamped to %d, expected 0", c.ViewOffset())
	}
	if v := texts(c.Visible(2)); !slices.Equal(v, []string{"c", "d"}) {
		t.Errorf("visible %v", v)
	}

	c.PageUp(2)
	if c.ViewOffset() != 1 {
		t.Errorf("page up: offset %d", c.ViewOffset())
	}
	c.PageDown(2)
	if c.ViewOffset() != 0 {
		t.Errorf("page down: offset %d", c.ViewOffset())
	}

	c.Resize(2)
	if l := texts(c.Lines()); !slices.Equal(l, []string{"c", "d"}) {
		t.Errorf("after resize %v", l)
	}

	c.Printf("%d-%s", 5, "x")
	c.Error(errors.New("bad"))
	if l := c.Lines(); l[0].Text != "5-x" || l[1].Style != TextError {
		t.Errorf("entries %+v", l)
	}

	c.Clear()
	if len(c.Lines()) != 0 || len(c.Visible(4)) != 0 {
		t.Errorf("not empty after clear")
	}
}

func TestInputEditing(t *testing.T) {
	c := New(10)
	c.SetInput("héllo")
	if c.Input.Cursor() != len("héllo") {
		t.Errorf("cursor %d", c.Input.Cursor())
	}

	c.Input.Home()
	c.Input.CursorRight()
	c.Input.CursorRight()
	if c.Input.Cursor() != 3 {
		t.Errorf("cursor %d after stepping over é", c.Input.Cursor())
	}
	c.Input.DeleteBeforeCursor()
	if c.Input.String() != "hllo" || c.Input.Cursor() != 1 {
		t.Errorf("delete before: %q %d", c.Input.String(), c.Input.Cursor())
	}
	c.Input.InsertAtCursor("e")
	c.Input.DeleteAfterCursor()
	if c.Input.String() != "helo" || c.Input.Cursor() != 2 {
		t.Errorf("insert/delete after: %q %d", c.Input.String(), c.Input.Cursor())
	}
	c.Input.CursorLeft()
	c.Input.CursorLeft()
	c.Input.CursorLeft()
	c.Input.DeleteBeforeCursor()
	if c.Input.Cursor() != 0 || c.Input.String() != "helo" {
		t.Errorf("cursor should stop at 0: %q %d", c.Input.String(), c.Input.Cursor())
	}
	c.Input.End()
	if c.Input.Cursor() != 4 {
		t.Errorf("end: %d", c.Input.Cursor())
	}
}

func TestHistory(t *testing.T) {
	c := New(10)
	for _, s := range []string{"one", "two"} {
		c.SetInput(s)
		if got := c.Submit(); got != s {
			t.Errorf("submit %q, expected %q", got, s)
		}
	}
	c.Submit() // empty input isn't recorded
	c.SetInput("draft")

	var got []string
	step := func(f func()) {
		f()
		got = append(got, c.Input.String())
	}
	step(c.HistoryPrev)
	step(c.HistoryPrev)
	step(c.HistoryPrev)
	if c.Status == "" {
		t.Errorf("expected a status message at the end of history")
	}
	step(c.HistoryNext)
	step(c.HistoryNext)

	want := []string{"two", "one", "one", "two", "draft"}
	if !slices.Equal(got, want) {
		t.Errorf("history %v, expected %v", got, want)
	}
}

func TestCommands(t *testing.T) {
	reg := cvar.NewRegistry(nil)
	cvar.RegisterEngine(reg)
	quit := false
	env := &Env{
		Console: New(100),
		CVars:   reg,
		Stats:   func() (renderer.RendererStats, int) { return renderer.RendererStats{DrawCalls: 3}, 1 },
		Quit:    func() { quit = true },
	}
	c := env.Console

	Execute(env, "set con_lines 100")
	if reg.Int(cvar.ConsoleLines) != 100 {
		t.Errorf("con_lines = %d", reg.Int(cvar.ConsoleLines))
	}
	if l := texts(c.Lines()); !slices.Equal(l, []string{"> set con_lines 100", "con_lines = 100"}) {
		t.Errorf("output %v", l)
	}

	for _, test := range []struct {
		cmd      string
		isError  bool
		contains string
	}{
		{"set vid_msaa true", true, "startup"},
		{"set", true, "usage"},
		{"bogus", true, "unknown command"},
		{"get con_lines", false, "con_lines = 100 (default 512)"},
		{"get nothing", true, "unknown cvar"},
		{"reset con_lines", false, ""},
		{"help", false, "available commands:"},
		{"help set", false, "set <cvar> <value>"},
		{"cvars con_", false, "con_bgcolour"},
		{"echo hello   world", false, "hello world"},
		{"stats", false, "3 draw calls"},
		{"save", true, "no config file"},
	} {
		c.Clear()
		Execute(env, test.cmd)
		l := c.Lines()
		if len(l) < 1 || l[0].Text != "> "+strings.TrimSpace(test.cmd) {
			t.Errorf("%q: expected the command echoed, got %+v", test.cmd, l)
			continue
		}
		if test.isError && (len(l) < 2 || l[1].Style != TextError) {
			t.Errorf("%q: expected an error, got %+v", test.cmd, l)
		}
		out := strings.Join(texts(l[1:]), "\n")
		if !strings.Contains(out, test.contains) {
			t.Errorf("%q: output %q does not contain %q", test.cmd, out, test.contains)
		}
	}
	if reg.Int(cvar.ConsoleLines) != 512 {
		t.Errorf("reset didn't restore con_lines")
	}

	Execute(env, "quit")
	if !quit {
		t.Errorf("quit not called")
	}
	Execute(env, "clear")
	if len(c.Lines()) != 0 {
		t.Errorf("clear left %v", texts(c.Lines()))
	}
}

func newTestRenderer(t *testing.T) (*Renderer, *renderer.Recorder, *cvar.Registry) {
	t.Helper()
	rec := renderer.NewRecorder()
	font, err := renderer.NewFont(nil, 0, rec, 0, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	reg := cvar.NewRegistry(nil)
	cvar.RegisterEngine(reg)
	return NewRenderer(New(64), font, reg, nil), rec, reg
}

func TestLayout(t *testing.T) {
	r, _, reg := newTestRenderer(t)

	l := r.Layout(700, 280)
	if l.CharWidth != 7 || l.LineHeight != 14 || l.Columns != 100 || l.Rows != 20 || l.OutputRows != 18 {
		t.Errorf("layout %+v", l)
	}
	if e := l.Estimate(700, 280); e != 8002 {
		t.Errorf("estimate %d, expected 8002", e)
	}

	if err := reg.Set(cvar.ConsoleTextScale, "2"); err != nil {
		t.Fatal(err)
	}
	l = r.Layout(700, 280)
	if l.CharWidth != 14 || l.LineHeight != 28 || l.Columns != 50 || l.Rows != 10 {
		t.Errorf("scaled layout %+v", l)
	}

	if l := r.Layout(0, 0); l.Estimate(0, 0) != 2 || l.OutputRows != 0 {
		t.Errorf("empty layout %+v", l)
	}
}

func TestRender(t *testing.T) {
	r, rec, _ := newTestRenderer(t)
	r.Console.Print("abc\nde\nx")
	r.Console.SetInput("hi")

	rt := renderer.NewRenderTarget(rec, 700, 280, nil)
	rec.Reset()
	if err := r.Render(rt); err != nil {
		t.Fatal(err)
	}

	b := rt.Batch()
	if b.Triangles().Cap() < 8002 {
		t.Errorf("reserved %d triangles, expected at least 8002", b.Triangles().Cap())
	}
	// Background rect, cursor cell, then 6 output glyphs and ">hi".
	if n := b.Triangles().Len(); n != 2+2+2*9 {
		t.Errorf("%d triangles, expected 22", n)
	}
	if n := b.Commands().Len(); n != 1 {
		t.Errorf("%d commands; the background and text should share one", n)
	}

	bg := b.Triangles().Triangle(0)
	if bg[0].Position != [2]float32{0, 0} || bg[0].Colour.A != 0.8 {
		t.Errorf("background vertex %+v", bg[0])
	}
	cursor := b.Triangles().Triangle(2)
	if cursor[0].Position != [2]float32{33.5, 252} || cursor[0].Colour != r.Colours.Cursor.WithAlpha(1) {
		t.Errorf("cursor vertex %+v", cursor[0])
	}

	stats, err := rt.FinishAndRender()
	if err != nil {
		t.Fatal(err)
	}
	if stats.DrawCalls != 1 || stats.Triangles != 22 || rec.Count(renderer.CallUpload) != 1 {
		t.Errorf("stats %s", stats.String())
	}
}

func TestRenderCursorMidLine(t *testing.T) {
	r, rec, _ := newTestRenderer(t)
	r.Console.SetInput("ab")
	r.Console.Input.Home()

	rt := renderer.NewRenderTarget(rec, 700, 280, nil)
	if err := r.Render(rt); err != nil {
		t.Fatal(err)
	}
	// Background, cursor cell, then '>', 'a' and 'b'.
	if n := rt.Batch().Triangles().Len(); n != 2+2+2*3 {
		t.Errorf("%d triangles, expected 10", n)
	}
	// The cursor covers the 'a': two prompt characters in.
	cursor := rt.Batch().Triangles().Triangle(2)
	if cursor[0].Position[0] != 6.5+2*7-1 {
		t.Errorf("cursor at x=%f", cursor[0].Position[0])
	}
}

func TestRenderWraps(t *testing.T) {
	r, rec, _ := newTestRenderer(t)
	r.Console.Print("abcdefghijklmno")

	// 10 columns: the line wraps to "abcdefghij" and "  klmno".
	rt := renderer.NewRenderTarget(rec, 70, 140, nil)
	if err := r.Render(rt); err != nil {
		t.Fatal(err)
	}
	// Background, cursor cell, 15 letters and '>'.
	if n := rt.Batch().Triangles().Len(); n != 2+2+2*16 {
		t.Errorf("%d triangles, expected 36", n)
	}
}
