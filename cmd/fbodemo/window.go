// cmd/fbodemo/window.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"fmt"

	"github.com/fbogfx/fbogfx/cvar"
	"github.com/fbogfx/fbogfx/ogl"
	"github.com/fbogfx/fbogfx/platform"
	"github.com/fbogfx/fbogfx/renderer"
)

// Texture coordinates for drawing a framebuffer's texture right side up:
// GL textures have their origin at the bottom left.
var framebufferTexCoords = [4][2]float32{{0, 1}, {1, 1}, {1, 0}, {0, 0}}

// runWindowed opens a window and draws the console until the window is
// closed, the quit command is run, or n frames (if n > 0) have been
// drawn.
func (d *demo) runWindowed(n int) error {
	plat, err := platform.New(&platform.Config{
		InitialWindowSize: [2]int{*width, *height},
		EnableMSAA:        d.reg.Bool(cvar.MSAA),
		EnableVSync:       d.reg.Bool(cvar.VSync),
		Title:             "fbodemo",
	}, d.lg)
	if err != nil {
		return fmt.Errorf("unable to create application window: %w", err)
	}
	defer plat.Dispose()
	d.setVSync = plat.EnableVSync

	dev, err := ogl.NewDevice(d.lg)
	if err != nil {
		return fmt.Errorf("unable to initialize OpenGL: %w", err)
	}
	defer dev.Dispose()

	font, err := renderer.NewFont(nil, 0, dev, 0, dev.DefaultProgram(), d.lg)
	if err != nil {
		return err
	}
	d.setFont(font)

	size := plat.FramebufferSize()
	window := renderer.NewRenderTarget(dev, size[0], size[1], d.lg)

	// With -fbo, the console is drawn to a framebuffer of the initial
	// window size, which is then drawn scaled to fill the window.
	var fbDev *ogl.FramebufferDevice
	if *offscreen {
		fb, err := dev.NewFramebuffer(size[0], size[1])
		if err != nil {
			return err
		}
		defer dev.DestroyFramebuffer(fb)
		fbDev = dev.Offscreen(fb)
		d.addTarget(renderer.NewRenderTarget(fbDev, fb.Width, fb.Height, d.lg))
	}
	d.addTarget(window)

	for ; !plat.ShouldStop() && !d.quit && (n == 0 || d.frame < n); d.frame++ {
		plat.ProcessEvents()
		d.handleInput(plat.InputCharacters(), plat.Keys())
		d.applyConfigChanges()

		if s := plat.FramebufferSize(); s != size {
			size = s
			if err := window.Resize(size[0], size[1]); err != nil {
				d.lg.Warnf("resize: %v", err)
			}
		}

		dev.Clear(renderer.Black)
		if fbDev != nil {
			fbDev.Clear(renderer.Black)
			d.renderConsole()
			d.drawFramebuffer(window, fbDev.Framebuffer(), dev.DefaultProgram())
		} else {
			d.renderConsole()
		}

		plat.PostRender()
	}
	return nil
}

// framebufferBorder outlines the framebuffer when it doesn't fill the
// window.
var framebufferBorder = renderer.RGB{R: 0.3, G: 0.3, B: 0.3}

// drawFramebuffer draws fb's texture to the window target, as large as
// it fits without changing its aspect ratio.
func (d *demo) drawFramebuffer(window *renderer.RenderTarget, fb *ogl.Framebuffer, program uint32) {
	window.BeginFrame(4)
	b := window.Batch()
	dst := window.Bounds().Fit(float32(fb.Width), float32(fb.Height))

	if dst != window.Bounds() {
		tb := renderer.GetTrianglesDrawBuilder()
		defer renderer.ReturnTrianglesDrawBuilder(tb)
		tb.AddRect(dst.Expand(1), framebufferBorder.WithAlpha(1))
		if err := tb.Emit(b, d.cr.Font.Solid()); err != nil {
			d.lg.Warnf("framebuffer border: %v", err)
		}
	}

	st := renderer.State{TextureUnit: 0, TextureID: fb.TextureID, ProgramID: program}
	if err := renderer.AddTexturedRect(b, dst, framebufferTexCoords, renderer.White, st); err != nil {
		d.lg.Warnf("framebuffer quad: %v", err)
	}
	_, _ = window.FinishAndRender()
}
