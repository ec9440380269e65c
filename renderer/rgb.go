// renderer/rgb.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fbogfx/fbogfx/math"
)

///////////////////////////////////////////////////////////////////////////
// RGB

type RGB struct {
	R, G, B float32
}

type RGBA struct {
	R, G, B, A float32
}

var (
	White = RGBA{1, 1, 1, 1}
	Black = RGBA{0, 0, 0, 1}
)

// WithAlpha returns the colour with the given opacity.
func (r RGB) WithAlpha(a float32) RGBA {
	return RGBA{R: r.R, G: r.G, B: r.B, A: a}
}

// RGBFromHex converts a packed integer color value to an RGB where the low
// 8 bits give blue, the next 8 give green, and then the next 8 give red.
func RGBFromHex(c int) RGB {
	r, g, b := (c>>16)&255, (c>>8)&255, c&255
	return RGB{R: float32(r) / 255, G: float32(g) / 255, B: float32(b) / 255}
}

// ParseRGB parses colours written as "#rrggbb", "rrggbb" or "0xrrggbb".
func ParseRGB(s string) (RGB, error) {
	h := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "#"), "0x")
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("%q: colour must have six hex digits", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%q: %w", s, err)
	}
	return RGBFromHex(int(v)), nil
}

// Hex is the inverse of ParseRGB.
func (r RGB) Hex() string {
	c := func(v float32) int { return int(math.Clamp(v, 0, 1)*255 + 0.5) }
	return fmt.Sprintf("#%02x%02x%02x", c(r.R), c(r.G), c(r.B))
}
