// math/math_test.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"testing"
)

func TestOrtho(t *testing.T) {
	// Pixel space, 800x600, y down.
	m := Identity3x3().Ortho(0, 800, 600, 0)

	for _, tc := range []struct {
		p, ndc [2]float32
	}{
		{[2]float32{0, 0}, [2]float32{-1, 1}},
		{[2]float32{800, 600}, [2]float32{1, -1}},
		{[2]float32{400, 300}, [2]float32{0, 0}},
	} {
		r := m.TransformPoint(tc.p)
		if Abs(r[0]-tc.ndc[0]) > 1e-5 || Abs(r[1]-tc.ndc[1]) > 1e-5 {
			t.Errorf("%v: got %v, expected %v", tc.p, r, tc.ndc)
		}
	}
}

func TestColumnMajor(t *testing.T) {
	m := Identity3x3().Ortho(0, 2, 0, 2)
	cm := m.ColumnMajor()
	if cm[6] != -1 || cm[7] != -1 || cm[8] != 1 {
		t.Errorf("translation not in last column: %v", cm)
	}
}

func TestExtent(t *testing.T) {
	e := Extent2DFromPoints([][2]float32{{3, 4}, {-1, 10}, {2, 2}})
	if e.P0 != [2]float32{-1, 2} || e.P1 != [2]float32{3, 10} {
		t.Errorf("got extent %+v", e)
	}
	if e.Width() != 4 || e.Height() != 8 {
		t.Errorf("got size %f x %f, expected 4 x 8", e.Width(), e.Height())
	}

	r := Rect(10, 20, 30, 40)
	c := r.Corners()
	expect := [4][2]float32{{10, 20}, {40, 20}, {40, 60}, {10, 60}}
	if c != expect {
		t.Errorf("corners: got %v, expected %v", c, expect)
	}

	if !Overlaps(r, Rect(35, 55, 10, 10)) {
		t.Errorf("expected overlap")
	}
	if Overlaps(r, Rect(100, 100, 1, 1)) {
		t.Errorf("unexpected overlap")
	}

	if c := r.Center(); c != [2]float32{25, 40} {
		t.Errorf("center %v", c)
	}
	if x := r.Expand(2); x != Rect(8, 18, 34, 44) {
		t.Errorf("expanded %+v", x)
	}
	if !r.Inside([2]float32{10, 60}) || r.Inside([2]float32{9, 30}) {
		t.Errorf("Inside mismatch")
	}
}

func TestFit(t *testing.T) {
	for _, tc := range []struct {
		e      Extent2D
		w, h   float32
		expect Extent2D
	}{
		{Rect(0, 0, 200, 100), 100, 100, Rect(50, 0, 100, 100)},
		{Rect(0, 0, 200, 100), 400, 100, Rect(0, 25, 200, 50)},
		{Rect(10, 10, 64, 48), 640, 480, Rect(10, 10, 64, 48)},
		{Rect(0, 0, 10, 10), 0, 5, Rect(5, 5, 0, 0)},
	} {
		if f := tc.e.Fit(tc.w, tc.h); f != tc.expect {
			t.Errorf("%+v.Fit(%f, %f) = %+v, expected %+v", tc.e, tc.w, tc.h, f, tc.expect)
		}
	}
}

func TestSignedArea(t *testing.T) {
	ccw := [][2]float32{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	if a := SignedArea(ccw); a != 8 {
		t.Errorf("got area %f, expected 8", a)
	}
	cw := [][2]float32{{0, 0}, {0, 2}, {2, 2}, {2, 0}}
	if a := SignedArea(cw); a != -8 {
		t.Errorf("got area %f, expected -8", a)
	}
}

func TestCirclePoints(t *testing.T) {
	pts := CirclePoints(16)
	if len(pts) != 16 {
		t.Fatalf("got %d points, expected 16", len(pts))
	}
	for i, p := range pts {
		if l := Length2f(p); Abs(l-1) > 1e-5 {
			t.Errorf("point %d: length %f", i, l)
		}
	}
	if &CirclePoints(16)[0] != &pts[0] {
		t.Errorf("expected cached slice to be returned")
	}
}

func TestCeilDiv(t *testing.T) {
	for _, tc := range [][3]int{{10, 3, 4}, {9, 3, 3}, {1, 8, 1}} {
		if r := CeilDiv(tc[0], tc[1]); r != tc[2] {
			t.Errorf("CeilDiv(%d, %d) = %d, expected %d", tc[0], tc[1], r, tc[2])
		}
	}
}
