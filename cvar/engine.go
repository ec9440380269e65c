// cvar/engine.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package cvar

import (
	"strconv"

	"github.com/fbogfx/fbogfx/log"
	"github.com/fbogfx/fbogfx/math"
	"github.com/fbogfx/fbogfx/renderer"
)

const (
	MaxTriangles     = "fbo_maxtris"
	ReserveTriangles = "fbo_reserve"
	VSync            = "vid_vsync"
	MSAA             = "vid_msaa"
	ConsoleTextScale = "con_textscale"
	ConsoleBgAlpha   = "con_bgalpha"
	ConsoleBgColour  = "con_bgcolour"
	ConsoleLines     = "con_lines"
	LogLevel         = "log_level"
)

func positive(cv *CVar, value string) Outcome {
	v, _ := strconv.Atoi(value)
	return accept(v > 0)
}

func nonNegative(cv *CVar, value string) Outcome {
	v, _ := strconv.Atoi(value)
	return accept(v >= 0)
}

func accept(ok bool) Outcome {
	if ok {
		return Accept
	}
	return Deny
}

// clampFloat returns a validator that accepts any number but stores it
// clamped to [lo, hi].
func clampFloat(lo, hi float32) Validator {
	return func(cv *CVar, value string) Outcome {
		v, err := strconv.ParseFloat(value, 32)
		if err != nil {
			return Deny
		}
		cv.Store(strconv.FormatFloat(float64(math.Clamp(float32(v), lo, hi)), 'g', -1, 32))
		return AcceptHandled
	}
}

// colour accepts the forms renderer.ParseRGB does and stores "#rrggbb".
func colour(cv *CVar, value string) Outcome {
	rgb, err := renderer.ParseRGB(value)
	if err != nil {
		return Deny
	}
	cv.Store(rgb.Hex())
	return AcceptHandled
}

func logLevel(cv *CVar, value string) Outcome {
	if _, err := log.ParseLevel(value); err != nil {
		return Deny
	}
	return Accept
}

// RegisterEngine adds the cvars used by the render target, the window and
// the console.
func RegisterEngine(r *Registry) {
	vars := []CVar{
		{
			Name:      MaxTriangles,
			Default:   "1048576",
			Help:      "maximum triangles the batch engine may hold before a frame is discarded",
			Flags:     MakeFlags(Integer, Saveable),
			Validator: positive,
		},
		{
			Name:      ReserveTriangles,
			Default:   "0",
			Help:      "triangles to reserve at the start of each frame; 0 uses the previous frame's count",
			Flags:     MakeFlags(Integer, Saveable),
			Validator: nonNegative,
		},
		{
			Name:    VSync,
			Default: "true",
			Flags:   MakeFlags(Boolean, Saveable),
		},
		{
			Name:    MSAA,
			Default: "false",
			Help:    "multisampling; only read when the window is created",
			Flags:   MakeFlags(Boolean, Saveable, Protected),
		},
		{
			Name:      ConsoleTextScale,
			Default:   "1",
			Flags:     MakeFlags(Float, Saveable),
			Validator: clampFloat(0.5, 4),
		},
		{
			Name:      ConsoleBgAlpha,
			Default:   "0.8",
			Flags:     MakeFlags(Float, Saveable),
			Validator: clampFloat(0, 1),
		},
		{
			Name:      ConsoleBgColour,
			Default:   "#101820",
			Flags:     MakeFlags(String, Saveable),
			Validator: colour,
		},
		{
			Name:      ConsoleLines,
			Default:   "512",
			Help:      "console scroll-back length",
			Flags:     MakeFlags(Integer, Saveable),
			Validator: positive,
		},
		{
			Name:      LogLevel,
			Default:   "info",
			Flags:     MakeFlags(String, Saveable),
			Validator: logLevel,
		},
	}
	for _, cv := range vars {
		r.MustRegister(cv)
	}
}
