// renderer/layout.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

// Vertex data is stored interleaved, one record per vertex:
//
//	offset  0: texcoord  2 x float32
//	offset  8: position  2 x float32
//	offset 16: colour    4 x float32 (RGBA)
//
// This is the binary contract with the GPU; the device sets its attribute
// pointers from VertexAttributes and uploads TriangleBuffer.RawBytes()
// unchanged.
const (
	VerticesPerTriangle = 3
	TrianglesPerQuad    = 2

	TexCoordComponents = 2
	PositionComponents = 2
	ColourComponents   = 4
	FloatsPerVertex    = TexCoordComponents + PositionComponents + ColourComponents

	VertexStride  = FloatsPerVertex * 4 // bytes
	TriangleBytes = VerticesPerTriangle * VertexStride

	TexCoordOffset = 0
	PositionOffset = TexCoordOffset + TexCoordComponents*4
	ColourOffset   = PositionOffset + PositionComponents*4
)

// Vertex matches the interleaved layout above field for field; it has no
// padding, so a slice of them can be handed to the GPU as is.
type Vertex struct {
	TexCoord [2]float32
	Position [2]float32
	Colour   RGBA
}

// Triangle is the unit of storage in a TriangleBuffer; triangles are
// always written whole.
type Triangle [VerticesPerTriangle]Vertex

// VertexAttribute describes one of the interleaved vertex streams.
type VertexAttribute struct {
	Name       string
	Location   uint32 // shader attribute location
	Components int32
	Offset     int // bytes from the start of the vertex
}

// VertexAttributes lists the attributes in the order they appear in a
// vertex. Shader programs bind their inputs to these locations.
var VertexAttributes = [...]VertexAttribute{
	{Name: "a_texcoord", Location: 0, Components: TexCoordComponents, Offset: TexCoordOffset},
	{Name: "a_position", Location: 1, Components: PositionComponents, Offset: PositionOffset},
	{Name: "a_colour", Location: 2, Components: ColourComponents, Offset: ColourOffset},
}
