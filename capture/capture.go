// capture/capture.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package capture records flushed frames (vertex bytes, draw commands and
// the projection they were drawn with) so that they can be saved,
// inspected and replayed into any renderer.Device.
package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fbogfx/fbogfx/math"
	"github.com/fbogfx/fbogfx/renderer"
	"github.com/fbogfx/fbogfx/util"

	"github.com/brunoga/deep"
)

var ErrCorrupt = errors.New("corrupt frame")

type Frame struct {
	Time          time.Time
	Width, Height int
	Projection    math.Matrix3
	Vertices      []byte
	Commands      []renderer.DrawCommand
	Stats         renderer.RendererStats
}

// Snapshot captures the batch that rt has pending; call it before the
// frame is finished. The frame shares no memory with the batch.
func Snapshot(rt *renderer.RenderTarget) Frame {
	b := rt.Batch()
	w, h := rt.Size()

	var cmds []renderer.DrawCommand
	for _, cmd := range b.Commands().All() {
		cmds = append(cmds, cmd)
	}

	f := Frame{
		Time:       time.Now(),
		Width:      w,
		Height:     h,
		Projection: rt.Projection(),
		Vertices:   deep.MustCopy(b.Triangles().RawBytes()),
		Commands:   cmds,
	}
	f.Stats = f.expectedStats()
	return f
}

// FromRecorder reconstructs the frames drawn to rec: each upload starts a
// frame, and the draws that follow it become its commands, using the
// most recently bound state.
func FromRecorder(rec *renderer.Recorder) []Frame {
	var frames []Frame
	var proj math.Matrix3
	var viewport [4]int
	var state renderer.State

	for _, c := range rec.Calls {
		switch c.Kind {
		case renderer.CallProjection:
			proj = c.Projection
		case renderer.CallViewport:
			viewport = c.Viewport
		case renderer.CallUpload:
			frames = append(frames, Frame{
				Time:       time.Now(),
				Width:      viewport[2],
				Height:     viewport[3],
				Projection: proj,
				Vertices:   deep.MustCopy(c.Data),
				Stats: renderer.RendererStats{
					Flushes:     1,
					Uploads:     1,
					UploadBytes: len(c.Data),
				},
			})
		case renderer.CallBind:
			state = c.State
			if n := len(frames); n > 0 {
				frames[n-1].Stats.StateChanges++
			}
		case renderer.CallDraw:
			if n := len(frames); n > 0 {
				f := &frames[n-1]
				f.Commands = append(f.Commands, renderer.DrawCommand{
					State:        state,
					VertexOffset: c.First,
					VertexCount:  c.Count,
				})
				f.Stats.DrawCalls++
				f.Stats.Triangles += int(c.Count) / renderer.VerticesPerTriangle
			}
		}
	}
	return frames
}

// expectedStats returns the statistics a successful replay of f produces.
func (f Frame) expectedStats() renderer.RendererStats {
	var s renderer.RendererStats
	if len(f.Commands) == 0 {
		return s
	}
	s.Flushes, s.Uploads, s.UploadBytes = 1, 1, len(f.Vertices)
	for i, cmd := range f.Commands {
		if i == 0 || cmd.State != f.Commands[i-1].State {
			s.StateChanges++
		}
		s.DrawCalls++
		s.Triangles += int(cmd.VertexCount) / renderer.VerticesPerTriangle
	}
	return s
}

// Validate checks that the vertex data holds whole triangles and that
// every command draws whole triangles within it.
func (f Frame) Validate() error {
	if len(f.Vertices)%renderer.TriangleBytes != 0 {
		return fmt.Errorf("%d vertex bytes is not a multiple of %d: %w", len(f.Vertices),
			renderer.TriangleBytes, ErrCorrupt)
	}
	nv := int32(len(f.Vertices) / renderer.VertexStride)
	for i, cmd := range f.Commands {
		if cmd.VertexCount <= 0 || cmd.VertexCount%renderer.VerticesPerTriangle != 0 ||
			cmd.VertexOffset < 0 || cmd.VertexOffset+cmd.VertexCount > nv {
			return fmt.Errorf("command %d: %d vertices at %d with %d available: %w", i,
				cmd.VertexCount, cmd.VertexOffset, nv, ErrCorrupt)
		}
	}
	return nil
}

// Triangles decodes the frame's vertex data.
func (f Frame) Triangles() ([]renderer.Triangle, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	tris := make([]renderer.Triangle, len(f.Vertices)/renderer.TriangleBytes)
	if err := binary.Read(bytes.NewReader(f.Vertices), binary.NativeEndian, tris); err != nil {
		return nil, err
	}
	return tris, nil
}

// Replay draws f to dev the way BatchEngine.Flush would have: viewport
// and projection, one upload, then each command in order with redundant
// binds elided.
func Replay(f Frame, dev renderer.Device) (renderer.RendererStats, error) {
	var stats renderer.RendererStats
	if err := f.Validate(); err != nil {
		return stats, err
	}

	dev.SetViewport(0, 0, f.Width, f.Height)
	dev.SetProjection(f.Projection)
	if len(f.Commands) == 0 {
		return stats, nil
	}

	stats.Flushes = 1
	if err := dev.UploadVertexData(f.Vertices); err != nil {
		return stats, fmt.Errorf("%w: %w", renderer.ErrUploadFailed, err)
	}
	stats.Uploads++
	stats.UploadBytes += len(f.Vertices)

	for i, cmd := range f.Commands {
		if i == 0 || cmd.State != f.Commands[i-1].State {
			if err := dev.BindState(cmd.TextureUnit, cmd.TextureID, cmd.ProgramID); err != nil {
				return stats, fmt.Errorf("command %d: %w: %w", i, renderer.ErrBindFailed, err)
			}
			stats.StateChanges++
		}
		if err := dev.DrawArrays(cmd.VertexOffset, cmd.VertexCount); err != nil {
			return stats, fmt.Errorf("command %d: %w: %w", i, renderer.ErrDrawFailed, err)
		}
		stats.DrawCalls++
		stats.Triangles += int(cmd.VertexCount) / renderer.VerticesPerTriangle
	}
	return stats, nil
}

// OffTarget returns the number of triangles that lie entirely outside the
// frame's viewport once projected.
func (f Frame) OffTarget() (int, error) {
	tris, err := f.Triangles()
	if err != nil {
		return 0, err
	}
	ndc := math.Rect(-1, -1, 2, 2)
	n := 0
	for _, tri := range tris {
		var pts [renderer.VerticesPerTriangle][2]float32
		visible := false
		for i, v := range tri {
			pts[i] = f.Projection.TransformPoint(v.Position)
			visible = visible || ndc.Inside(pts[i])
		}
		if !visible && !math.Overlaps(math.Extent2DFromPoints(pts[:]), ndc) {
			n++
		}
	}
	return n, nil
}

// Summary returns a human-readable description of the frame.
func (f Frame) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %dx%d: %d triangles in %d commands (%d bytes)\n", f.Time.Format(time.RFC3339),
		f.Width, f.Height, len(f.Vertices)/renderer.TriangleBytes, len(f.Commands), len(f.Vertices))
	fmt.Fprintf(&sb, "  stats: %s\n", f.Stats.String())
	if n, err := f.OffTarget(); err != nil {
		fmt.Fprintf(&sb, "  %v\n", err)
	} else if n > 0 {
		fmt.Fprintf(&sb, "  %d triangles off target\n", n)
	}

	perState := make(map[string]int)
	for _, cmd := range f.Commands {
		perState[cmd.State.String()] += int(cmd.VertexCount) / renderer.VerticesPerTriangle
	}
	for _, st := range util.SortedMapKeys(perState) {
		fmt.Fprintf(&sb, "  %s: %d triangles\n", st, perState[st])
	}
	return sb.String()
}

// Save writes the frames to path as zstd-compressed msgpack.
func Save(path string, frames []Frame) error {
	return util.StoreObject(path, frames)
}

func Load(path string) ([]Frame, error) {
	var frames []Frame
	if err := util.RetrieveObject(path, &frames); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frames, nil
}
