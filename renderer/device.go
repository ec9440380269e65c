// renderer/device.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/fbogfx/fbogfx/math"
)

// Device is the GPU binding layer that batches are flushed to. There is
// an OpenGL implementation in the ogl package and an in-memory one,
// Recorder, that is used for testing and headless runs.
type Device interface {
	// UploadVertexData replaces the device's vertex buffer with the given
	// interleaved vertex bytes. The slice is only valid for the duration
	// of the call.
	UploadVertexData(vertices []byte) error

	// BindState makes the texture and program current for subsequent
	// draws.
	BindState(textureUnit, textureID, programID uint32) error

	// DrawArrays draws count vertices, as triangles, starting at vertex
	// first of the most recent upload.
	DrawArrays(first, count int32) error

	// SetProjection sets the transform from pixel coordinates to
	// normalized device coordinates.
	SetProjection(m math.Matrix3)

	// SetViewport sets the region of the current framebuffer that is
	// drawn to.
	SetViewport(x, y, width, height int)
}

// TextureManager is implemented by devices that can store textures.
type TextureManager interface {
	// CreateTextureFromImage returns an identifier for a texture map defined
	// by the specified image.
	CreateTextureFromImage(img image.Image, magNearest bool) (uint32, error)

	// UpdateTextureFromImage updates the contents of an existing texture
	// with the provided image.
	UpdateTextureFromImage(id uint32, img image.Image, magNearest bool) error

	// DestroyTexture frees the resources associated with the given texture id.
	DestroyTexture(id uint32)
}

// RendererStats encapsulates assorted statistics from flushing batches.
type RendererStats struct {
	Flushes      int
	Uploads      int
	UploadBytes  int
	StateChanges int
	DrawCalls    int
	Triangles    int
	Discarded    int // triangles dropped by failed flushes
}

func (rs RendererStats) String() string {
	return fmt.Sprintf("%d flushes, %d uploads (%.2f MB), %d state changes, %d draw calls: %d tris (%d discarded)",
		rs.Flushes, rs.Uploads, float32(rs.UploadBytes)/(1024*1024), rs.StateChanges, rs.DrawCalls,
		rs.Triangles, rs.Discarded)
}

func (rs *RendererStats) Merge(s RendererStats) {
	rs.Flushes += s.Flushes
	rs.Uploads += s.Uploads
	rs.UploadBytes += s.UploadBytes
	rs.StateChanges += s.StateChanges
	rs.DrawCalls += s.DrawCalls
	rs.Triangles += s.Triangles
	rs.Discarded += s.Discarded
}

func (rs RendererStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("flushes", rs.Flushes),
		slog.Int("uploads", rs.Uploads),
		slog.Int("upload_bytes", rs.UploadBytes),
		slog.Int("state_changes", rs.StateChanges),
		slog.Int("draw_calls", rs.DrawCalls),
		slog.Int("tris", rs.Triangles),
		slog.Int("discarded", rs.Discarded),
	)
}
