// cmd/fbodemo/demo.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"fmt"

	"github.com/fbogfx/fbogfx/capture"
	"github.com/fbogfx/fbogfx/console"
	"github.com/fbogfx/fbogfx/cvar"
	"github.com/fbogfx/fbogfx/log"
	"github.com/fbogfx/fbogfx/platform"
	"github.com/fbogfx/fbogfx/renderer"
	"github.com/fbogfx/fbogfx/util"
)

type demo struct {
	reg *cvar.Registry
	con *console.Console
	env *console.Env
	cr  *console.Renderer

	// rt is the target the console is drawn to; targets has every
	// target, for the statistics.
	rt      *renderer.RenderTarget
	targets []*renderer.RenderTarget

	captured      *util.RingBuffer[capture.Frame]
	configChanges <-chan map[string]string
	setVSync      func(bool)

	frame int
	quit  bool

	lg *log.Logger
}

func newDemo(reg *cvar.Registry, lg *log.Logger) *demo {
	d := &demo{
		reg: reg,
		con: console.New(reg.Int(cvar.ConsoleLines)),
		lg:  lg,
	}
	d.env = &console.Env{
		Console:    d.con,
		CVars:      reg,
		ConfigPath: *configPath,
		Stats:      d.totalStats,
		Quit:       func() { d.quit = true },
	}
	if *capturePath != "" {
		d.captured = util.NewRingBuffer[capture.Frame](*captureFrames)
	}
	reg.OnChange(d.cvarChanged)

	d.con.Emphasize("fbogfx console")
	d.con.Print(`Type "help" for a list of commands.`)
	return d
}

func (d *demo) cvarChanged(cv *cvar.CVar) {
	switch cv.Name {
	case cvar.ConsoleLines:
		d.con.Resize(cv.Int())
	case cvar.MaxTriangles:
		for _, rt := range d.targets {
			rt.Batch().SetTriangleLimit(cv.Int())
		}
	case cvar.LogLevel:
		if err := d.lg.SetLevel(cv.Value()); err != nil {
			d.con.Error(err)
		}
	case cvar.VSync:
		if d.setVSync != nil {
			d.setVSync(cv.Bool())
		}
	}
}

// addTarget registers a render target; the first one added is the one
// the console is drawn to.
func (d *demo) addTarget(rt *renderer.RenderTarget) {
	rt.Batch().SetTriangleLimit(d.reg.Int(cvar.MaxTriangles))
	d.targets = append(d.targets, rt)
	if d.rt == nil {
		d.rt = rt
	}
}

func (d *demo) setFont(font *renderer.Font) {
	d.cr = console.NewRenderer(d.con, font, d.reg, d.lg)
}

func (d *demo) applyConfigChanges() {
	select {
	case values, ok := <-d.configChanges:
		if !ok {
			d.configChanges = nil
			return
		}
		d.con.Emphasize("config file changed")
		if err := d.reg.Apply(values, true); err != nil {
			d.con.Error(err)
		}
	default:
	}
}

func (d *demo) handleInput(chars string, keys []platform.Key) {
	d.con.Input.InsertAtCursor(chars)

	for _, k := range keys {
		switch k {
		case platform.KeyEnter:
			console.Execute(d.env, d.con.Submit())
		case platform.KeyBackspace:
			d.con.Input.DeleteBeforeCursor()
		case platform.KeyLeft:
			d.con.Input.CursorLeft()
		case platform.KeyRight:
			d.con.Input.CursorRight()
		case platform.KeyHome:
			d.con.Input.Home()
		case platform.KeyEnd:
			d.con.Input.End()
		case platform.KeyUp:
			d.con.HistoryPrev()
		case platform.KeyDown:
			d.con.HistoryNext()
		case platform.KeyPageUp:
			d.con.PageUp(d.cr.VisibleLines(d.rt))
		case platform.KeyPageDown:
			d.con.PageDown(d.cr.VisibleLines(d.rt))
		case platform.KeyEscape:
			d.con.SetInput("")
			d.con.Status = ""
		}
	}
}

// renderConsole draws the console to its target and finishes that
// target's frame. A frame that fails to render has already been logged
// and is skipped.
func (d *demo) renderConsole() {
	if err := d.cr.Render(d.rt); err != nil {
		d.con.Status = err.Error()
	}
	if n := d.reg.Int(cvar.ReserveTriangles); n > 0 {
		d.rt.Batch().Reserve(n)
	}
	if d.captured != nil {
		d.captured.Add(capture.Snapshot(d.rt))
	}
	_, _ = d.rt.FinishAndRender()
}

func (d *demo) totalStats() (renderer.RendererStats, int) {
	var stats renderer.RendererStats
	var failures int
	for _, rt := range d.targets {
		s, f := rt.TotalStats()
		stats.Merge(s)
		failures += f
	}
	return stats, failures
}

func (d *demo) capturedFrames() []capture.Frame {
	if d.captured == nil {
		return nil
	}
	frames := make([]capture.Frame, d.captured.Size())
	for i := range frames {
		frames[i] = d.captured.Get(i)
	}
	return frames
}

// runHeadless renders n frames to a Recorder, running a few console
// commands along the way.
func (d *demo) runHeadless(n int) error {
	rec := renderer.NewRecorder()
	font, err := renderer.NewFont(nil, 0, rec, 0, 1, d.lg)
	if err != nil {
		return err
	}
	d.setFont(font)
	d.addTarget(renderer.NewRenderTarget(rec, *width, *height, d.lg))

	script := []string{"help", "cvars", "get fbo_maxtris", "stats"}
	for ; d.frame < n && !d.quit; d.frame++ {
		d.applyConfigChanges()
		if d.frame < len(script) {
			console.Execute(d.env, script[d.frame])
		}
		d.con.SetInput(fmt.Sprintf("frame %d", d.frame))

		d.renderConsole()

		d.lg.Debug("headless frame", "frame", d.frame, "calls", len(rec.Calls))
		rec.Reset()
	}
	return nil
}
