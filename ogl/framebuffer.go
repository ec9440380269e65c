// ogl/framebuffer.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ogl

import (
	"fmt"

	"github.com/fbogfx/fbogfx/math"
	"github.com/fbogfx/fbogfx/renderer"

	"github.com/go-gl/gl/v3.3-core/gl"
)

// Framebuffer is a framebuffer object with a texture as its colour
// attachment, so that what is drawn to it can then be drawn as a
// textured quad.
type Framebuffer struct {
	ID            uint32
	TextureID     uint32
	Width, Height int
}

// NewFramebuffer creates a framebuffer of the given size in pixels. The
// colour texture is registered with the device like any other texture.
func (d *Device) NewFramebuffer(width, height int) (*Framebuffer, error) {
	fb := &Framebuffer{Width: width, Height: height}

	gl.GenFramebuffers(1, &fb.ID)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.ID)
	defer gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	gl.GenTextures(1, &fb.TextureID)
	gl.BindTexture(gl.TEXTURE_2D, fb.TextureID)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(width), int32(height), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, fb.TextureID, 0)

	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteTextures(1, &fb.TextureID)
		gl.DeleteFramebuffers(1, &fb.ID)
		return nil, fmt.Errorf("framebuffer %dx%d is not complete: 0x%x", width, height, status)
	}
	d.createdTexture(fb.TextureID, 4*width*height)

	return fb, checkError("framebuffer")
}

// DestroyFramebuffer releases the framebuffer and its texture.
func (d *Device) DestroyFramebuffer(fb *Framebuffer) {
	d.DestroyTexture(fb.TextureID)
	gl.DeleteFramebuffers(1, &fb.ID)
}

// Offscreen returns a Device that draws into fb rather than the window.
// It shares the vertex buffer, programs and textures with d.
func (d *Device) Offscreen(fb *Framebuffer) *FramebufferDevice {
	return &FramebufferDevice{
		Device:     d,
		fb:         fb,
		viewport:   [4]int32{0, 0, int32(fb.Width), int32(fb.Height)},
		projection: math.Identity3x3(),
	}
}

// FramebufferDevice binds its framebuffer and viewport around each
// operation that draws and then restores the window's, so that it can be
// interleaved with drawing to the window.
type FramebufferDevice struct {
	*Device
	fb         *Framebuffer
	viewport   [4]int32
	projection math.Matrix3
}

func (f *FramebufferDevice) Framebuffer() *Framebuffer {
	return f.fb
}

func (f *FramebufferDevice) bind() func() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, f.fb.ID)
	gl.Viewport(f.viewport[0], f.viewport[1], f.viewport[2], f.viewport[3])
	return func() {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		v := f.Device.viewport
		gl.Viewport(v[0], v[1], v[2], v[3])
	}
}

func (f *FramebufferDevice) BindState(textureUnit, textureID, programID uint32) error {
	return f.Device.bindState(f.projection, textureUnit, textureID, programID)
}

func (f *FramebufferDevice) SetProjection(m math.Matrix3) {
	f.projection = m
}

func (f *FramebufferDevice) DrawArrays(first, count int32) error {
	defer f.bind()()
	return f.Device.DrawArrays(first, count)
}

func (f *FramebufferDevice) SetViewport(x, y, width, height int) {
	f.viewport = [4]int32{int32(x), int32(y), int32(width), int32(height)}
}

func (f *FramebufferDevice) Clear(c renderer.RGBA) {
	defer f.bind()()
	f.Device.Clear(c)
}

var _ renderer.Device = (*FramebufferDevice)(nil)
