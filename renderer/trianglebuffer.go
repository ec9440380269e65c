// renderer/trianglebuffer.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"unsafe"
)

// TriangleBuffer stores triangles contiguously in append order. Clear
// keeps the allocation so that successive frames reuse it.
type TriangleBuffer struct {
	tris []Triangle
	// limit is the maximum number of triangles that may be stored; zero
	// means unlimited.
	limit int
}

// growFor ensures that at least n more triangles can be added to the end
// of the buffer without going past its capacity.
func (tb *TriangleBuffer) growFor(n int) {
	if len(tb.tris)+n > cap(tb.tris) {
		sz := 2 * cap(tb.tris)
		if sz < 256 {
			sz = 256
		}
		if sz < len(tb.tris)+n {
			sz = 2 * (len(tb.tris) + n)
		}
		if tb.limit > 0 && sz > tb.limit {
			sz = max(tb.limit, len(tb.tris)+n)
		}
		t := make([]Triangle, len(tb.tris), sz)
		copy(t, tb.tris)
		tb.tris = t
	}
}

// SetLimit sets the maximum number of triangles the buffer will hold; n
// <= 0 removes the limit.
func (tb *TriangleBuffer) SetLimit(n int) {
	tb.limit = max(n, 0)
}

func (tb *TriangleBuffer) Limit() int {
	return tb.limit
}

// AppendTriangle adds t to the end of the buffer and returns its index.
// It fails only with ErrOutOfMemory, when the limit would be exceeded.
func (tb *TriangleBuffer) AppendTriangle(t Triangle) (int, error) {
	if tb.limit > 0 && len(tb.tris) >= tb.limit {
		return 0, fmt.Errorf("%d triangles: %w", tb.limit, ErrOutOfMemory)
	}
	tb.growFor(1)
	tb.tris = append(tb.tris, t)
	return len(tb.tris) - 1, nil
}

// Reserve ensures there is room for count triangles in total, so that
// appending up to that many does not reallocate.
func (tb *TriangleBuffer) Reserve(count int) {
	if tb.limit > 0 {
		count = min(count, tb.limit)
	}
	if count > cap(tb.tris) {
		t := make([]Triangle, len(tb.tris), count)
		copy(t, tb.tris)
		tb.tris = t
	}
}

func (tb *TriangleBuffer) Clear() {
	tb.tris = tb.tris[:0]
}

func (tb *TriangleBuffer) Len() int {
	return len(tb.tris)
}

func (tb *TriangleBuffer) Cap() int {
	return cap(tb.tris)
}

func (tb *TriangleBuffer) VertexCount() int {
	return len(tb.tris) * VerticesPerTriangle
}

func (tb *TriangleBuffer) Triangle(i int) Triangle {
	return tb.tris[i]
}

// RawBytes returns the stored triangles as one contiguous interleaved
// byte slice that aliases the buffer. It is only valid until the next
// append or Clear.
func (tb *TriangleBuffer) RawBytes() []byte {
	if len(tb.tris) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&tb.tris[0])), len(tb.tris)*TriangleBytes)
}
