// ogl/device.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package ogl implements renderer.Device using OpenGL 3.3 core profile.
// All of its methods must be called from the thread that owns the GL
// context.
package ogl

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/fbogfx/fbogfx/log"
	"github.com/fbogfx/fbogfx/math"
	"github.com/fbogfx/fbogfx/renderer"
	"github.com/fbogfx/fbogfx/util"

	"github.com/go-gl/gl/v3.3-core/gl"
)

type program struct {
	id         uint32
	projection int32 // uniform locations
	texture    int32
	// projGen is the projection generation last sent to the program.
	projGen int
}

// Device draws batches with a single streaming vertex buffer whose
// attribute layout matches renderer.VertexAttributes.
type Device struct {
	vao, vbo uint32
	vboBytes int

	programs       map[uint32]*program
	defaultProgram uint32
	current        *program

	// projection is the window's; active is the one most recently sent
	// to programs, identified by projGen.
	projection math.Matrix3
	active     math.Matrix3
	projGen    int
	viewport   [4]int32

	// texture id -> bytes of storage
	createdTextures map[uint32]int

	lg *log.Logger
}

// NewDevice initializes OpenGL, which requires a current context, and
// sets up the vertex array and the default shader program.
func NewDevice(lg *log.Logger) (*Device, error) {
	lg.Info("Starting OpenGL device initialization")
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	lg.Infof("OpenGL vendor %s renderer %s version %s", gl.GoStr(gl.GetString(gl.VENDOR)),
		gl.GoStr(gl.GetString(gl.RENDERER)), gl.GoStr(gl.GetString(gl.VERSION)))

	d := &Device{
		programs:        make(map[uint32]*program),
		createdTextures: make(map[uint32]int),
		projection:      math.Identity3x3(),
		active:          math.Identity3x3(),
		projGen:         1,
		lg:              lg,
	}

	gl.GenVertexArrays(1, &d.vao)
	gl.BindVertexArray(d.vao)
	gl.GenBuffers(1, &d.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.vbo)
	for _, attr := range renderer.VertexAttributes {
		gl.EnableVertexAttribArray(attr.Location)
		gl.VertexAttribPointer(attr.Location, attr.Components, gl.FLOAT, false, renderer.VertexStride,
			gl.PtrOffset(attr.Offset))
	}

	var err error
	if d.defaultProgram, err = d.NewProgram(DefaultVertexShader, DefaultFragmentShader); err != nil {
		return nil, err
	}

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)

	if err := checkError("initialization"); err != nil {
		return nil, err
	}
	lg.Info("Finished OpenGL device initialization")
	return d, nil
}

func checkError(op string) error {
	if e := gl.GetError(); e != gl.NO_ERROR {
		// Drain any further queued errors so they aren't attributed to
		// the next operation.
		for gl.GetError() != gl.NO_ERROR {
		}
		return fmt.Errorf("%s: GL error 0x%x", op, e)
	}
	return nil
}

// DefaultProgram returns the id of the program that modulates the bound
// texture with the vertex colour.
func (d *Device) DefaultProgram() uint32 {
	return d.defaultProgram
}

func (d *Device) Dispose() {
	for texid := range d.createdTextures {
		gl.DeleteTextures(1, &texid)
	}
	for id := range d.programs {
		gl.DeleteProgram(id)
	}
	gl.DeleteBuffers(1, &d.vbo)
	gl.DeleteVertexArrays(1, &d.vao)
}

func (d *Device) UploadVertexData(vertices []byte) error {
	if len(vertices) == 0 {
		return nil
	}
	gl.BindVertexArray(d.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.vbo)
	// Respecifying the store each time lets the driver orphan the
	// previous frame's buffer rather than wait on it.
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices), gl.Ptr(&vertices[0]), gl.DYNAMIC_DRAW)
	d.vboBytes = len(vertices)
	return checkError("upload")
}

func (d *Device) BindState(textureUnit, textureID, programID uint32) error {
	return d.bindState(d.projection, textureUnit, textureID, programID)
}

// bindState binds the state and makes sure the program has the given
// projection; offscreen targets pass their own.
func (d *Device) bindState(proj math.Matrix3, textureUnit, textureID, programID uint32) error {
	p, ok := d.programs[programID]
	if !ok {
		return fmt.Errorf("%d: unknown program", programID)
	}
	if d.current != p {
		gl.UseProgram(p.id)
		d.current = p
	}
	if proj != d.active {
		d.active = proj
		d.projGen++
	}
	if p.projGen != d.projGen {
		cm := d.active.ColumnMajor()
		gl.UniformMatrix3fv(p.projection, 1, false, &cm[0])
		p.projGen = d.projGen
	}
	gl.Uniform1i(p.texture, int32(textureUnit))

	gl.ActiveTexture(gl.TEXTURE0 + textureUnit)
	gl.BindTexture(gl.TEXTURE_2D, textureID)
	return checkError("bind")
}

func (d *Device) DrawArrays(first, count int32) error {
	if int(first+count)*renderer.VertexStride > d.vboBytes {
		return fmt.Errorf("draw of %d vertices at %d overruns %d byte buffer", count, first, d.vboBytes)
	}
	gl.BindVertexArray(d.vao)
	gl.DrawArrays(gl.TRIANGLES, first, count)
	return checkError("draw")
}

// SetProjection sets the projection for subsequent draws to the window;
// it is sent to each program the next time the program is bound.
func (d *Device) SetProjection(m math.Matrix3) {
	d.projection = m
}

func (d *Device) SetViewport(x, y, width, height int) {
	d.viewport = [4]int32{int32(x), int32(y), int32(width), int32(height)}
	gl.Viewport(d.viewport[0], d.viewport[1], d.viewport[2], d.viewport[3])
}

// Clear clears the current framebuffer to the given colour.
func (d *Device) Clear(c renderer.RGBA) {
	gl.ClearColor(c.R, c.G, c.B, c.A)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (d *Device) createdTexture(texid uint32, bytes int) {
	_, exists := d.createdTextures[texid]

	d.createdTextures[texid] = bytes

	var total int
	for _, b := range d.createdTextures {
		total += b
	}
	mb := float32(total) / (1024 * 1024)

	if exists {
		d.lg.Debugf("Updated tex id %d: %d bytes -> %.2f MiB of textures total", texid, bytes, mb)
	} else {
		d.lg.Infof("Created tex id %d: %d bytes -> %.2f MiB of textures total", texid, bytes, mb)
	}
}

func (d *Device) CreateTextureFromImage(img image.Image, magNearest bool) (uint32, error) {
	if err := renderer.CheckTextureImage(img); err != nil {
		return 0, err
	}
	var texid uint32
	gl.GenTextures(1, &texid)
	if err := d.UpdateTextureFromImage(texid, img, magNearest); err != nil {
		gl.DeleteTextures(1, &texid)
		return 0, err
	}
	return texid, nil
}

func (d *Device) UpdateTextureFromImage(texid uint32, img image.Image, magNearest bool) error {
	if err := renderer.CheckTextureImage(img); err != nil {
		return err
	}

	var lastTexture int32
	gl.GetIntegerv(gl.TEXTURE_BINDING_2D, &lastTexture)

	gl.BindTexture(gl.TEXTURE_2D, texid)
	filter := int32(util.Select(magNearest, gl.NEAREST, gl.LINEAR))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)

	ny, nx := img.Bounds().Dy(), img.Bounds().Dx()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*nx {
		rgba = image.NewRGBA(image.Rect(0, 0, nx, ny))
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(nx), int32(ny), 0, gl.RGBA,
		gl.UNSIGNED_BYTE, gl.Ptr(&rgba.Pix[0]))

	gl.BindTexture(gl.TEXTURE_2D, uint32(lastTexture))
	if err := checkError("texture upload"); err != nil {
		return err
	}

	d.createdTexture(texid, 4*nx*ny)
	return nil
}

func (d *Device) DestroyTexture(texid uint32) {
	gl.DeleteTextures(1, &texid)
	delete(d.createdTextures, texid)
}

var (
	_ renderer.Device         = (*Device)(nil)
	_ renderer.TextureManager = (*Device)(nil)
)
