// renderer/errors.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrOutOfMemory is returned when a triangle can not be stored. A
	// batch that has seen it is incomplete and is discarded at the next
	// flush.
	ErrOutOfMemory  = errors.New("triangle buffer exhausted")
	ErrUploadFailed = errors.New("vertex upload failed")
	ErrBindFailed   = errors.New("state bind failed")
	ErrDrawFailed   = errors.New("draw call failed")
	ErrEmptyImage   = errors.New("texture image has no pixels")
)

// CheckTextureImage returns an error if img can not be stored as a
// texture.
func CheckTextureImage(img image.Image) error {
	if b := img.Bounds(); b.Empty() {
		return fmt.Errorf("%dx%d: %w", b.Dx(), b.Dy(), ErrEmptyImage)
	}
	return nil
}
