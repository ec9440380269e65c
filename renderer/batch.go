// renderer/batch.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"log/slog"

	"github.com/fbogfx/fbogfx/log"
)

// BatchEngine accumulates triangles along with the state they are to be
// drawn with and turns them into as few draw calls as it can without
// changing the order in which they are drawn. Consecutive triangles with
// the same State share a draw command; a state change starts a new one.
// Commands are never reordered, so overlapping geometry composites in
// the order it was appended.
//
// A BatchEngine is not safe for concurrent use.
type BatchEngine struct {
	tris TriangleBuffer
	cmds DrawCommandList

	// err is set when an append fails; the batch is then incomplete and
	// the next Flush discards it.
	err error
	// Number of triangles in the last non-empty flush.
	hint int

	lg *log.Logger
}

// NewBatchEngine returns a BatchEngine that holds at most maxTriangles
// triangles per flush; zero means no limit.
func NewBatchEngine(maxTriangles int, lg *log.Logger) *BatchEngine {
	b := &BatchEngine{lg: lg}
	b.tris.SetLimit(maxTriangles)
	return b
}

func (b *BatchEngine) SetTriangleLimit(n int) {
	b.tris.SetLimit(n)
}

// AppendTriangle adds a triangle to be drawn with the given state. It is
// merged into the previous draw command if that command has the same
// state and ends at the vertex where this triangle starts; otherwise a
// new command is started.
func (b *BatchEngine) AppendTriangle(v [3]Vertex, st State) error {
	idx, err := b.tris.AppendTriangle(Triangle(v))
	if err != nil {
		if b.err == nil {
			b.lg.Warn("batch overflow; frame will be discarded", slog.Int("limit", b.tris.Limit()))
		}
		b.err = err
		return err
	}

	offset := int32(idx * VerticesPerTriangle)
	if tail, ok := b.cmds.Tail(); ok && tail.State == st && offset == tail.VertexOffset+tail.VertexCount {
		b.cmds.ExtendTail(VerticesPerTriangle)
	} else {
		b.cmds.PushCommand(st, offset, VerticesPerTriangle)
	}
	return nil
}

// AppendQuad adds the axis-aligned rectangle with the given pixel bounds
// as two triangles. Texture coordinates and colours are given per corner
// in top-left, top-right, bottom-right, bottom-left order. The triangles
// are (TL, TR, BL) and (BL, TR, BR), sharing the TR-BL diagonal.
func (b *BatchEngine) AppendQuad(left, top, right, bottom float32, tc [4][2]float32, colours [4]RGBA, st State) error {
	v := [4]Vertex{
		{TexCoord: tc[0], Position: [2]float32{left, top}, Colour: colours[0]},
		{TexCoord: tc[1], Position: [2]float32{right, top}, Colour: colours[1]},
		{TexCoord: tc[2], Position: [2]float32{right, bottom}, Colour: colours[2]},
		{TexCoord: tc[3], Position: [2]float32{left, bottom}, Colour: colours[3]},
	}
	if err := b.AppendTriangle([3]Vertex{v[0], v[1], v[3]}, st); err != nil {
		return err
	}
	return b.AppendTriangle([3]Vertex{v[3], v[1], v[2]}, st)
}

// Flush issues the batch to dev: one vertex upload followed by a draw per
// command, in order, binding state only when it differs from the state
// bound for the previous command. Both buffers are cleared afterward,
// whether or not the flush succeeded. An empty batch makes no device
// calls.
func (b *BatchEngine) Flush(dev Device) (RendererStats, error) {
	var stats RendererStats
	defer b.reset()

	if b.err != nil {
		stats.Discarded = b.tris.Len()
		return stats, b.err
	}
	if b.cmds.Len() == 0 {
		return stats, nil
	}

	stats.Flushes = 1
	raw := b.tris.RawBytes()
	if err := dev.UploadVertexData(raw); err != nil {
		stats.Discarded = b.tris.Len()
		return stats, fmt.Errorf("%d bytes: %w: %w", len(raw), ErrUploadFailed, err)
	}
	stats.Uploads++
	stats.UploadBytes += len(raw)

	var bound State
	haveBound := false
	for i, cmd := range b.cmds.All() {
		if !haveBound || cmd.State != bound {
			if err := dev.BindState(cmd.TextureUnit, cmd.TextureID, cmd.ProgramID); err != nil {
				stats.Discarded = b.tris.Len() - stats.Triangles
				return stats, fmt.Errorf("command %d (%s): %w: %w", i, cmd.State, ErrBindFailed, err)
			}
			bound, haveBound = cmd.State, true
			stats.StateChanges++
		}

		if err := dev.DrawArrays(cmd.VertexOffset, cmd.VertexCount); err != nil {
			stats.Discarded = b.tris.Len() - stats.Triangles
			return stats, fmt.Errorf("command %d (%d vertices at %d): %w: %w", i, cmd.VertexCount,
				cmd.VertexOffset, ErrDrawFailed, err)
		}
		stats.DrawCalls++
		stats.Triangles += int(cmd.VertexCount) / VerticesPerTriangle
	}

	return stats, nil
}

func (b *BatchEngine) reset() {
	if n := b.tris.Len(); n > 0 {
		b.hint = n
	}
	b.tris.Clear()
	b.cmds.Clear()
	b.err = nil
}

// Reserve ensures that n triangles can be appended without reallocating.
func (b *BatchEngine) Reserve(n int) {
	b.tris.Reserve(n)
}

// ReserveHint returns the number of triangles in the most recent
// non-empty flush, a reasonable reservation for the next one.
func (b *BatchEngine) ReserveHint() int {
	return b.hint
}

// Err returns the error that has invalidated the current batch, if any.
func (b *BatchEngine) Err() error {
	return b.err
}

// Triangles and Commands give read access to the pending batch.

func (b *BatchEngine) Triangles() *TriangleBuffer {
	return &b.tris
}

func (b *BatchEngine) Commands() *DrawCommandList {
	return &b.cmds
}

// EstimateCapacity returns a triangle reservation for filling a width x
// height pixel area with shapes of roughly avgWidth x avgHeight pixels.
// It is only a sizing hint; non-positive inputs give zero.
func EstimateCapacity(width, height, avgWidth, avgHeight int) int {
	if width <= 0 || height <= 0 || avgWidth <= 0 || avgHeight <= 0 {
		return 0
	}
	return (width / avgWidth * 2) * (height / avgHeight * 2)
}
