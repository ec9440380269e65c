// renderer/target.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"github.com/fbogfx/fbogfx/log"
	"github.com/fbogfx/fbogfx/math"
)

// RenderTarget is a drawable surface: a window's default framebuffer or
// an offscreen framebuffer object. It owns the BatchEngine that clients
// append to and flushes it whenever state that applies to the whole batch
// (the projection or viewport) is about to change, and at the end of
// each frame.
type RenderTarget struct {
	dev   Device
	batch *BatchEngine

	width, height int
	projection    math.Matrix3

	frameStats RendererStats
	lastStats  RendererStats
	totalStats RendererStats
	failures   int

	lg *log.Logger
}

// NewRenderTarget returns a target of the given size whose projection maps
// pixel coordinates, with the origin at the top left, to the whole
// viewport.
func NewRenderTarget(dev Device, width, height int, lg *log.Logger) *RenderTarget {
	rt := &RenderTarget{
		dev:    dev,
		batch:  NewBatchEngine(0, lg),
		width:  width,
		height: height,
		lg:     lg,
	}
	dev.SetViewport(0, 0, width, height)
	rt.projection = pixelOrtho(0, 0, float32(width), float32(height))
	dev.SetProjection(rt.projection)
	return rt
}

func pixelOrtho(left, top, right, bottom float32) math.Matrix3 {
	return math.Identity3x3().Ortho(left, right, bottom, top)
}

func (rt *RenderTarget) Batch() *BatchEngine {
	return rt.batch
}

func (rt *RenderTarget) Device() Device {
	return rt.dev
}

func (rt *RenderTarget) Size() (int, int) {
	return rt.width, rt.height
}

// Bounds returns the target's extent in pixels.
func (rt *RenderTarget) Bounds() math.Extent2D {
	return math.Rect(0, 0, float32(rt.width), float32(rt.height))
}

func (rt *RenderTarget) Projection() math.Matrix3 {
	return rt.projection
}

// flush issues the pending batch, accumulating its statistics into the
// current frame's.
func (rt *RenderTarget) flush() error {
	s, err := rt.batch.Flush(rt.dev)
	rt.frameStats.Merge(s)
	return err
}

// SetOrtho flushes any pending triangles, which were specified in the
// previous coordinate system, and then sets the projection so that the
// given pixel bounds cover the viewport.
func (rt *RenderTarget) SetOrtho(left, top, right, bottom float32) error {
	err := rt.flush()
	rt.projection = pixelOrtho(left, top, right, bottom)
	rt.dev.SetProjection(rt.projection)
	return err
}

// Resize flushes pending triangles and then updates the viewport and the
// default pixel projection for the new size.
func (rt *RenderTarget) Resize(width, height int) error {
	err := rt.flush()
	rt.width, rt.height = width, height
	rt.dev.SetViewport(0, 0, width, height)
	rt.projection = pixelOrtho(0, 0, float32(width), float32(height))
	rt.dev.SetProjection(rt.projection)
	return err
}

// BeginFrame starts a new frame, reserving room for the larger of the
// estimated triangle count and the size of the last flushed batch.
func (rt *RenderTarget) BeginFrame(estimate int) {
	rt.frameStats = RendererStats{}
	rt.batch.Reserve(max(estimate, rt.batch.ReserveHint()))
}

// FinishAndRender flushes the frame's remaining triangles. If it fails,
// what remained of the frame is dropped and the error is returned; the
// target is ready for the next frame either way.
func (rt *RenderTarget) FinishAndRender() (RendererStats, error) {
	err := rt.flush()
	if err != nil {
		rt.failures++
		rt.lg.Warn("frame skipped", "error", err, "stats", rt.frameStats)
	} else {
		rt.lg.Debug("frame rendered", "stats", rt.frameStats)
	}

	rt.lastStats = rt.frameStats
	rt.totalStats.Merge(rt.frameStats)
	rt.frameStats = RendererStats{}
	return rt.lastStats, err
}

// Stats returns the statistics for the last completed frame.
func (rt *RenderTarget) Stats() RendererStats {
	return rt.lastStats
}

// TotalStats returns the statistics accumulated over all frames along
// with the number of frames that failed to render.
func (rt *RenderTarget) TotalStats() (RendererStats, int) {
	return rt.totalStats, rt.failures
}
