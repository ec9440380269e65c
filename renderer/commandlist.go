// renderer/commandlist.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"iter"
)

// State is the GPU state a range of triangles is drawn with. Two draws
// may only be merged if their States are equal.
type State struct {
	TextureUnit uint32
	TextureID   uint32
	ProgramID   uint32
}

func (s State) String() string {
	return fmt.Sprintf("unit %d tex %d prog %d", s.TextureUnit, s.TextureID, s.ProgramID)
}

// DrawCommand draws VertexCount vertices starting at vertex VertexOffset
// of the uploaded TriangleBuffer.
type DrawCommand struct {
	State
	VertexOffset int32
	VertexCount  int32
}

// The byte offsets of the command's first vertex in each of the
// interleaved streams.

func (dc DrawCommand) TexCoordByteOffset() int {
	return int(dc.VertexOffset)*VertexStride + TexCoordOffset
}

func (dc DrawCommand) PositionByteOffset() int {
	return int(dc.VertexOffset)*VertexStride + PositionOffset
}

func (dc DrawCommand) ColourByteOffset() int {
	return int(dc.VertexOffset)*VertexStride + ColourOffset
}

// DrawCommandList holds draw commands in the order they were pushed,
// which is the order they are issued. Only the tail command is ever
// modified, and only by growing its vertex count.
type DrawCommandList struct {
	cmds []DrawCommand
}

func (dl *DrawCommandList) PushCommand(st State, vertexOffset, vertexCount int32) {
	dl.cmds = append(dl.cmds, DrawCommand{
		State:        st,
		VertexOffset: vertexOffset,
		VertexCount:  vertexCount,
	})
}

// TailMatches reports whether the list is non-empty and its last command
// was recorded with the given state.
func (dl *DrawCommandList) TailMatches(st State) bool {
	return len(dl.cmds) > 0 && dl.cmds[len(dl.cmds)-1].State == st
}

// ExtendTail grows the last command by n vertices. It panics if the list
// is empty.
func (dl *DrawCommandList) ExtendTail(n int32) {
	dl.cmds[len(dl.cmds)-1].VertexCount += n
}

func (dl *DrawCommandList) Tail() (DrawCommand, bool) {
	if len(dl.cmds) == 0 {
		return DrawCommand{}, false
	}
	return dl.cmds[len(dl.cmds)-1], true
}

func (dl *DrawCommandList) Clear() {
	dl.cmds = dl.cmds[:0]
}

func (dl *DrawCommandList) Len() int {
	return len(dl.cmds)
}

func (dl *DrawCommandList) At(i int) DrawCommand {
	return dl.cmds[i]
}

// All iterates over the commands in insertion order.
func (dl *DrawCommandList) All() iter.Seq2[int, DrawCommand] {
	return func(yield func(int, DrawCommand) bool) {
		for i, c := range dl.cmds {
			if !yield(i, c) {
				return
			}
		}
	}
}
