// renderer/batch_test.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"encoding/binary"
	"errors"
	gomath "math"
	"slices"
	"testing"
	"unsafe"

	"github.com/fbogfx/fbogfx/util"
)

var (
	stateA = State{TextureUnit: 0, TextureID: 1, ProgramID: 1}
	stateB = State{TextureUnit: 0, TextureID: 2, ProgramID: 1}
)

// tri returns a triangle whose vertices are all tagged with the given
// value, so that triangles can be told apart after upload.
func tri(tag float32) [3]Vertex {
	var v [3]Vertex
	for i := range v {
		v[i] = Vertex{
			TexCoord: [2]float32{tag, float32(i)},
			Position: [2]float32{tag * 10, float32(i) * 10},
			Colour:   RGBA{R: tag, G: 0.5, B: 0.25, A: 1},
		}
	}
	return v
}

func decodeFloat(b []byte, offset int) float32 {
	return gomath.Float32frombits(binary.NativeEndian.Uint32(b[offset:]))
}

func TestVertexLayout(t *testing.T) {
	if sz := unsafe.Sizeof(Vertex{}); sz != VertexStride {
		t.Errorf("Vertex is %d bytes, expected %d", sz, VertexStride)
	}
	if sz := unsafe.Sizeof(Triangle{}); sz != TriangleBytes {
		t.Errorf("Triangle is %d bytes, expected %d", sz, TriangleBytes)
	}
	if o := unsafe.Offsetof(Vertex{}.TexCoord); o != TexCoordOffset {
		t.Errorf("texcoord offset %d", o)
	}
	if o := unsafe.Offsetof(Vertex{}.Position); o != PositionOffset {
		t.Errorf("position offset %d", o)
	}
	if o := unsafe.Offsetof(Vertex{}.Colour); o != ColourOffset {
		t.Errorf("colour offset %d", o)
	}
	if VertexStride != 32 || TriangleBytes != 96 || PositionOffset != 8 || ColourOffset != 16 {
		t.Errorf("unexpected layout constants")
	}
}

func TestByteLayoutRoundTrip(t *testing.T) {
	var tb TriangleBuffer
	v := Triangle{
		{TexCoord: [2]float32{0.25, 0.75}, Position: [2]float32{10, 20}, Colour: RGBA{0.1, 0.2, 0.3, 0.4}},
		{TexCoord: [2]float32{1, 0}, Position: [2]float32{-5, 7.5}, Colour: RGBA{1, 1, 1, 1}},
		{TexCoord: [2]float32{0, 1}, Position: [2]float32{640, 480}, Colour: RGBA{0, 0, 0, 0.5}},
	}
	if _, err := tb.AppendTriangle(v); err != nil {
		t.Fatal(err)
	}

	raw := tb.RawBytes()
	if len(raw) != TriangleBytes {
		t.Fatalf("got %d bytes, expected %d", len(raw), TriangleBytes)
	}
	for i, vtx := range v {
		base := i * VertexStride
		expect := []float32{vtx.TexCoord[0], vtx.TexCoord[1], vtx.Position[0], vtx.Position[1],
			vtx.Colour.R, vtx.Colour.G, vtx.Colour.B, vtx.Colour.A}
		for j, e := range expect {
			if f := decodeFloat(raw, base+4*j); f != e {
				t.Errorf("vertex %d float %d: got %f, expected %f", i, j, f, e)
			}
		}
	}
}

func TestOrderPreservation(t *testing.T) {
	b := NewBatchEngine(0, nil)
	states := []State{stateA, stateB, stateA, stateA, stateB}
	for i, st := range states {
		if err := b.AppendTriangle(tri(float32(i)), st); err != nil {
			t.Fatal(err)
		}
	}

	rec := NewRecorder()
	if _, err := b.Flush(rec); err != nil {
		t.Fatal(err)
	}

	ups := rec.Filter(CallUpload)
	if len(ups) != 1 {
		t.Fatalf("got %d uploads, expected 1", len(ups))
	}
	// Walk the draws in order and check that the triangles they cover
	// come out in append order with the state they were appended with.
	var bound State
	var order []int
	for _, c := range rec.Calls {
		switch c.Kind {
		case CallBind:
			bound = c.State
		case CallDraw:
			for v := c.First; v < c.First+c.Count; v += VerticesPerTriangle {
				tag := int(decodeFloat(ups[0].Data, int(v)*VertexStride+TexCoordOffset))
				if states[tag] != bound {
					t.Errorf("triangle %d drawn with %s, expected %s", tag, bound, states[tag])
				}
				order = append(order, tag)
			}
		}
	}
	if !slices.Equal(order, []int{0, 1, 2, 3, 4}) {
		t.Errorf("draw order %v", order)
	}
}

func TestMerge(t *testing.T) {
	b := NewBatchEngine(0, nil)
	b.AppendTriangle(tri(0), stateA)
	b.AppendTriangle(tri(1), stateA)
	if n := b.Commands().Len(); n != 1 {
		t.Fatalf("same state: got %d commands, expected 1", n)
	}
	if c := b.Commands().At(0); c.VertexOffset != 0 || c.VertexCount != 6 {
		t.Errorf("got command %+v, expected offset 0 count 6", c)
	}

	b.Flush(NewRecorder())

	b.AppendTriangle(tri(0), stateA)
	b.AppendTriangle(tri(1), stateB)
	if n := b.Commands().Len(); n != 2 {
		t.Fatalf("different state: got %d commands, expected 2", n)
	}
	c0, c1 := b.Commands().At(0), b.Commands().At(1)
	if c0.VertexOffset != 0 || c0.VertexCount != 3 || c1.VertexOffset != 3 || c1.VertexCount != 3 {
		t.Errorf("got commands %+v %+v", c0, c1)
	}
	if c0.State != stateA || c1.State != stateB {
		t.Errorf("commands have wrong state: %s, %s", c0.State, c1.State)
	}
	if c1.PositionByteOffset() != 3*VertexStride+PositionOffset || c1.ColourByteOffset() != 3*VertexStride+ColourOffset {
		t.Errorf("byte offsets %d %d", c1.PositionByteOffset(), c1.ColourByteOffset())
	}
}

func TestNoMergeAcrossStateChange(t *testing.T) {
	// A, B, A must be three commands; the third may not be folded into
	// the first.
	b := NewBatchEngine(0, nil)
	b.AppendTriangle(tri(0), stateA)
	b.AppendTriangle(tri(1), stateB)
	b.AppendTriangle(tri(2), stateA)
	if n := b.Commands().Len(); n != 3 {
		t.Errorf("got %d commands, expected 3", n)
	}
}

func TestScenario(t *testing.T) {
	b := NewBatchEngine(0, nil)
	quad := func(x float32, st State) {
		if err := b.AppendQuad(x, 0, x+10, 10, FullTexCoords, uniform4(White), st); err != nil {
			t.Fatal(err)
		}
	}
	quad(0, stateA)
	quad(10, stateA)
	quad(20, stateB)

	rec := NewRecorder()
	stats, err := b.Flush(rec)
	if err != nil {
		t.Fatal(err)
	}

	draws := rec.Filter(CallDraw)
	if len(draws) != 2 || draws[0].First != 0 || draws[0].Count != 12 || draws[1].First != 12 || draws[1].Count != 6 {
		t.Errorf("got draws %v, expected 12 at 0 and 6 at 12", draws)
	}
	ups := rec.Filter(CallUpload)
	if len(ups) != 1 || len(ups[0].Data) != 6*TriangleBytes {
		t.Errorf("expected a single upload of 6 triangles, got %v", ups)
	}
	if stats.Triangles != 6 || stats.DrawCalls != 2 || stats.StateChanges != 2 || stats.Uploads != 1 {
		t.Errorf("unexpected stats %s", stats.String())
	}

	// Call sequence: upload, bind A, draw, bind B, draw.
	var kinds []CallKind
	for _, c := range rec.Calls {
		kinds = append(kinds, c.Kind)
	}
	if !slices.Equal(kinds, []CallKind{CallUpload, CallBind, CallDraw, CallBind, CallDraw}) {
		t.Errorf("got call sequence %v", kinds)
	}
}

func TestQuadTriangulation(t *testing.T) {
	b := NewBatchEngine(0, nil)
	tc := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	b.AppendQuad(1, 2, 3, 4, tc, uniform4(White), stateA)

	tb := b.Triangles()
	if tb.Len() != 2 {
		t.Fatalf("got %d triangles", tb.Len())
	}
	tl, tr, br, bl := [2]float32{1, 2}, [2]float32{3, 2}, [2]float32{3, 4}, [2]float32{1, 4}
	t0, t1 := tb.Triangle(0), tb.Triangle(1)
	if t0[0].Position != tl || t0[1].Position != tr || t0[2].Position != bl {
		t.Errorf("first triangle %v", t0)
	}
	if t1[0].Position != bl || t1[1].Position != tr || t1[2].Position != br {
		t.Errorf("second triangle %v", t1)
	}
	if t0[1].TexCoord != tc[1] || t1[2].TexCoord != tc[2] {
		t.Errorf("texture coordinates not carried to corners")
	}
}

func TestEmptyFlush(t *testing.T) {
	b := NewBatchEngine(0, nil)
	rec := NewRecorder()
	stats, err := b.Flush(rec)
	if err != nil {
		t.Errorf("unexpected error %v", err)
	}
	if len(rec.Calls) != 0 {
		t.Errorf("empty flush made %d device calls", len(rec.Calls))
	}
	if stats != (RendererStats{}) {
		t.Errorf("empty flush has stats %s", stats.String())
	}
}

func TestIdempotentClear(t *testing.T) {
	b := NewBatchEngine(0, nil)
	b.AppendTriangle(tri(0), stateA)
	b.AppendTriangle(tri(1), stateB)
	rec := NewRecorder()
	b.Flush(rec)
	if b.Triangles().Len() != 0 || b.Commands().Len() != 0 {
		t.Errorf("flush left %d triangles, %d commands", b.Triangles().Len(), b.Commands().Len())
	}

	// A second flush with nothing appended does nothing.
	rec.Reset()
	b.Flush(rec)
	if len(rec.Calls) != 0 {
		t.Errorf("second flush made %d device calls", len(rec.Calls))
	}

	b.Triangles().Clear()
	b.Triangles().Clear()
	b.Commands().Clear()
	if b.Triangles().Len() != 0 || b.Commands().Len() != 0 {
		t.Errorf("repeated Clear left data")
	}
}

func TestCapacityStability(t *testing.T) {
	const n = 1000
	b := NewBatchEngine(0, nil)
	b.Reserve(n)
	tb := b.Triangles()
	c := tb.Cap()
	if c < n {
		t.Fatalf("Reserve(%d) gave capacity %d", n, c)
	}

	b.AppendTriangle(tri(0), stateA)
	base := &tb.RawBytes()[0]
	for i := 1; i < n; i++ {
		b.AppendTriangle(tri(float32(i)), util.Select(i%7 == 0, stateB, stateA))
	}
	if tb.Cap() != c {
		t.Errorf("capacity changed from %d to %d", c, tb.Cap())
	}
	if &tb.RawBytes()[0] != base {
		t.Errorf("backing store moved")
	}

	// Capacity survives the flush for the next frame.
	b.Flush(NewRecorder())
	if tb.Cap() != c {
		t.Errorf("flush changed capacity from %d to %d", c, tb.Cap())
	}
	if b.ReserveHint() != n {
		t.Errorf("got reserve hint %d, expected %d", b.ReserveHint(), n)
	}
}

func TestFailedUpload(t *testing.T) {
	b := NewBatchEngine(0, nil)
	b.AppendTriangle(tri(0), stateA)
	b.AppendTriangle(tri(1), stateB)

	rec := NewRecorder()
	rec.FailUpload = 1
	stats, err := b.Flush(rec)
	if !errors.Is(err, ErrUploadFailed) || !errors.Is(err, ErrInjected) {
		t.Errorf("got error %v, expected ErrUploadFailed wrapping ErrInjected", err)
	}
	if rec.Count(CallBind) != 0 || rec.Count(CallDraw) != 0 {
		t.Errorf("draws issued after failed upload: %v", rec.Calls)
	}
	if stats.Discarded != 2 {
		t.Errorf("got %d discarded, expected 2", stats.Discarded)
	}
	if b.Triangles().Len() != 0 || b.Commands().Len() != 0 {
		t.Errorf("failed flush did not clear the batch")
	}

	// The next frame proceeds normally.
	b.AppendTriangle(tri(2), stateA)
	if _, err := b.Flush(rec); err != nil {
		t.Errorf("next flush: %v", err)
	}
	if rec.Count(CallDraw) != 1 {
		t.Errorf("got %d draws, expected 1", rec.Count(CallDraw))
	}
}

func TestFailedDraw(t *testing.T) {
	b := NewBatchEngine(0, nil)
	b.AppendTriangle(tri(0), stateA)
	b.AppendTriangle(tri(1), stateB)
	b.AppendTriangle(tri(2), stateA)

	rec := NewRecorder()
	rec.FailDraw = 2
	stats, err := b.Flush(rec)
	if !errors.Is(err, ErrDrawFailed) {
		t.Errorf("got error %v, expected ErrDrawFailed", err)
	}
	// No retry and no further commands.
	if n := rec.Count(CallDraw); n != 1 {
		t.Errorf("got %d recorded draws, expected 1", n)
	}
	if stats.Triangles != 1 || stats.Discarded != 2 {
		t.Errorf("unexpected stats %s", stats.String())
	}
	if b.Triangles().Len() != 0 || b.Commands().Len() != 0 {
		t.Errorf("failed flush did not clear the batch")
	}

	rec = NewRecorder()
	rec.FailBind = 1
	b.AppendTriangle(tri(0), stateA)
	if _, err := b.Flush(rec); !errors.Is(err, ErrBindFailed) {
		t.Errorf("got error %v, expected ErrBindFailed", err)
	}
}

func TestBindElision(t *testing.T) {
	// Commands that are split only because they are not contiguous still
	// share state, so the bind is not repeated.
	b := NewBatchEngine(0, nil)
	b.AppendTriangle(tri(0), stateA)
	b.Commands().PushCommand(stateA, 3, 3)
	b.Triangles().AppendTriangle(Triangle(tri(1)))

	rec := NewRecorder()
	if _, err := b.Flush(rec); err != nil {
		t.Fatal(err)
	}
	if rec.Count(CallBind) != 1 || rec.Count(CallDraw) != 2 {
		t.Errorf("got %d binds and %d draws, expected 1 and 2", rec.Count(CallBind), rec.Count(CallDraw))
	}
}

func TestOutOfMemory(t *testing.T) {
	b := NewBatchEngine(3, nil)
	for i := range 3 {
		if err := b.AppendTriangle(tri(float32(i)), stateA); err != nil {
			t.Fatalf("triangle %d: %v", i, err)
		}
	}
	if err := b.AppendTriangle(tri(3), stateA); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("got %v, expected ErrOutOfMemory", err)
	}
	if err := b.AppendQuad(0, 0, 1, 1, FullTexCoords, uniform4(White), stateA); !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("quad: got %v, expected ErrOutOfMemory", err)
	}

	rec := NewRecorder()
	stats, err := b.Flush(rec)
	if !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("flush: got %v, expected ErrOutOfMemory", err)
	}
	if len(rec.Calls) != 0 {
		t.Errorf("corrupt batch made %d device calls", len(rec.Calls))
	}
	if stats.Discarded != 3 {
		t.Errorf("got %d discarded, expected 3", stats.Discarded)
	}
	if b.Err() != nil {
		t.Errorf("error not cleared by flush")
	}

	// Recovered for the next frame.
	b.AppendTriangle(tri(0), stateA)
	if _, err := b.Flush(rec); err != nil || rec.Count(CallDraw) != 1 {
		t.Errorf("next frame: err %v, %d draws", err, rec.Count(CallDraw))
	}

	// Reserve never exceeds the limit.
	b.Reserve(100)
	if b.Triangles().Cap() > 100 || b.Triangles().Cap() < 3 {
		t.Errorf("capacity %d", b.Triangles().Cap())
	}
}

func TestEstimateCapacity(t *testing.T) {
	for _, tc := range []struct {
		w, h, aw, ah, n int
	}{
		{800, 600, 8, 16, (100 * 2) * (37 * 2)},
		{640, 480, 7, 13, (91 * 2) * (36 * 2)},
		{0, 600, 8, 16, 0},
		{800, 600, 0, 16, 0},
		{800, -1, 8, 16, 0},
		{4, 4, 8, 16, 0},
	} {
		if n := EstimateCapacity(tc.w, tc.h, tc.aw, tc.ah); n != tc.n {
			t.Errorf("EstimateCapacity(%d, %d, %d, %d) = %d, expected %d", tc.w, tc.h, tc.aw, tc.ah, n, tc.n)
		}
	}
}

func TestCommandListIteration(t *testing.T) {
	var dl DrawCommandList
	if dl.TailMatches(stateA) {
		t.Errorf("empty list matches")
	}
	if _, ok := dl.Tail(); ok {
		t.Errorf("empty list has a tail")
	}
	dl.PushCommand(stateA, 0, 3)
	dl.PushCommand(stateB, 3, 3)
	dl.ExtendTail(6)
	if !dl.TailMatches(stateB) || dl.TailMatches(stateA) {
		t.Errorf("TailMatches mismatch")
	}

	var offsets []int32
	for i, c := range dl.All() {
		if c != dl.At(i) {
			t.Errorf("command %d differs from At", i)
		}
		offsets = append(offsets, c.VertexOffset)
	}
	if !slices.Equal(offsets, []int32{0, 3}) {
		t.Errorf("got offsets %v", offsets)
	}
	if tail, _ := dl.Tail(); tail.VertexCount != 9 {
		t.Errorf("tail count %d, expected 9", tail.VertexCount)
	}
	// The first command is untouched.
	if dl.At(0).VertexCount != 3 {
		t.Errorf("head command modified")
	}
}
