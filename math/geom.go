// math/geom.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import "sync"

///////////////////////////////////////////////////////////////////////////
// Extent2D

// Extent2D represents a 2D bounding box with the two vertices at its
// opposite minimum and maximum corners. In pixel space P0 is the
// top-left corner and P1 the bottom-right.
type Extent2D struct {
	P0, P1 [2]float32
}

// EmptyExtent2D returns an Extent2D representing an empty bounding box.
func EmptyExtent2D() Extent2D {
	// Degenerate bounds
	return Extent2D{P0: [2]float32{1e30, 1e30}, P1: [2]float32{-1e30, -1e30}}
}

// Extent2DFromPoints returns an Extent2D that bounds all of the provided
// points.
func Extent2DFromPoints(pts [][2]float32) Extent2D {
	e := EmptyExtent2D()
	for _, p := range pts {
		e = Union(e, p)
	}
	return e
}

// Rect returns the extent with top-left corner (x, y) and the given size.
func Rect(x, y, w, h float32) Extent2D {
	return Extent2D{P0: [2]float32{x, y}, P1: [2]float32{x + w, y + h}}
}

func (e Extent2D) Width() float32 {
	return e.P1[0] - e.P0[0]
}

func (e Extent2D) Height() float32 {
	return e.P1[1] - e.P0[1]
}

func (e Extent2D) Center() [2]float32 {
	return [2]float32{(e.P0[0] + e.P1[0]) / 2, (e.P0[1] + e.P1[1]) / 2}
}

// Expand expands the extent by the given distance in all directions.
func (e Extent2D) Expand(d float32) Extent2D {
	return Extent2D{
		P0: [2]float32{e.P0[0] - d, e.P0[1] - d},
		P1: [2]float32{e.P1[0] + d, e.P1[1] + d}}
}

func (e Extent2D) Inside(p [2]float32) bool {
	return p[0] >= e.P0[0] && p[0] <= e.P1[0] && p[1] >= e.P0[1] && p[1] <= e.P1[1]
}

// Corners returns the four corners in top-left, top-right, bottom-right,
// bottom-left order, the order quads are emitted in.
func (e Extent2D) Corners() [4][2]float32 {
	return [4][2]float32{
		{e.P0[0], e.P0[1]},
		{e.P1[0], e.P0[1]},
		{e.P1[0], e.P1[1]},
		{e.P0[0], e.P1[1]},
	}
}

// Overlaps returns true if the two provided Extent2Ds overlap.
func Overlaps(a Extent2D, b Extent2D) bool {
	x := (a.P1[0] >= b.P0[0]) && (a.P0[0] <= b.P1[0])
	y := (a.P1[1] >= b.P0[1]) && (a.P0[1] <= b.P1[1])
	return x && y
}

func Union(e Extent2D, p [2]float32) Extent2D {
	e.P0[0] = min(e.P0[0], p[0])
	e.P0[1] = min(e.P0[1], p[1])
	e.P1[0] = max(e.P1[0], p[0])
	e.P1[1] = max(e.P1[1], p[1])
	return e
}

// Fit returns the largest extent with aspect ratio w:h that fits inside
// e, centered in it.
func (e Extent2D) Fit(w, h float32) Extent2D {
	c := e.Center()
	if w <= 0 || h <= 0 {
		return Extent2D{P0: c, P1: c}
	}
	s := min(e.Width()/w, e.Height()/h)
	half := [2]float32{w * s / 2, h * s / 2}
	return Extent2D{P0: Sub2f(c, half), P1: Add2f(c, half)}
}

///////////////////////////////////////////////////////////////////////////
// Geometry

// SignedArea returns twice the signed area of the closed polygon; it is
// positive for counter-clockwise winding with y up.
func SignedArea(pts [][2]float32) float32 {
	var a float32
	for i := range pts {
		a += Cross2f(pts[i], pts[(i+1)%len(pts)])
	}
	return a
}

var (
	// So that we can efficiently draw circles with various tessellations,
	// circlePoints caches vertex positions of a unit circle at the origin
	// for specified tessellation rates.
	circlePoints   map[int][][2]float32
	circlePointsMu sync.Mutex
)

// CirclePoints returns the vertices for a unit circle at the origin
// with the given number of segments; it creates the vertex slice if this
// tessellation rate hasn't been seen before and otherwise returns a
// preexisting one. The returned slice must not be modified.
func CirclePoints(nsegs int) [][2]float32 {
	circlePointsMu.Lock()
	defer circlePointsMu.Unlock()

	if circlePoints == nil {
		circlePoints = make(map[int][][2]float32)
	}
	if _, ok := circlePoints[nsegs]; !ok {
		// Evaluate the vertices of the circle to initialize a new slice.
		pts := make([][2]float32, 0, nsegs)
		for d := 0; d < nsegs; d++ {
			angle := Radians(float32(d) / float32(nsegs) * 360)
			pts = append(pts, [2]float32{Sin(angle), Cos(angle)})
		}
		circlePoints[nsegs] = pts
	}

	// One way or another, it's now available in the map.
	return circlePoints[nsegs]
}
