// renderer/recorder.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"errors"
	"fmt"
	"image"

	"github.com/fbogfx/fbogfx/math"
)

type CallKind int

const (
	CallUpload CallKind = iota
	CallBind
	CallDraw
	CallProjection
	CallViewport
)

func (k CallKind) String() string {
	switch k {
	case CallUpload:
		return "upload"
	case CallBind:
		return "bind"
	case CallDraw:
		return "draw"
	case CallProjection:
		return "projection"
	case CallViewport:
		return "viewport"
	default:
		return fmt.Sprintf("CallKind(%d)", int(k))
	}
}

// DeviceCall records a single call made to a Recorder. Only the fields
// relevant to the Kind are set.
type DeviceCall struct {
	Kind       CallKind
	Data       []byte // upload: a copy of the vertex bytes
	State      State  // bind
	First      int32  // draw
	Count      int32  // draw
	Projection math.Matrix3
	Viewport   [4]int
}

func (c DeviceCall) String() string {
	switch c.Kind {
	case CallUpload:
		return fmt.Sprintf("upload %d bytes", len(c.Data))
	case CallBind:
		return "bind " + c.State.String()
	case CallDraw:
		return fmt.Sprintf("draw %d at %d", c.Count, c.First)
	case CallViewport:
		return fmt.Sprintf("viewport %v", c.Viewport)
	default:
		return c.Kind.String()
	}
}

var ErrInjected = errors.New("injected failure")

// Recorder is a Device that records the calls made to it rather than
// drawing anything. Failures can be injected: if FailUpload, FailBind or
// FailDraw is n > 0, the n'th call of that kind (counting from one since
// the Recorder was created or Reset) returns ErrInjected.
type Recorder struct {
	Calls []DeviceCall

	FailUpload, FailBind, FailDraw int
	uploads, binds, draws          int

	nextTexture uint32
	Textures    map[uint32]image.Rectangle
	// TextureUpdates counts UpdateTextureFromImage calls.
	TextureUpdates int
}

func NewRecorder() *Recorder {
	return &Recorder{Textures: make(map[uint32]image.Rectangle)}
}

// Reset discards the recorded calls and the failure counters, leaving
// textures alone.
func (r *Recorder) Reset() {
	r.Calls = r.Calls[:0]
	r.uploads, r.binds, r.draws = 0, 0, 0
}

func (r *Recorder) UploadVertexData(vertices []byte) error {
	r.uploads++
	if r.uploads == r.FailUpload {
		return ErrInjected
	}
	r.Calls = append(r.Calls, DeviceCall{Kind: CallUpload, Data: append([]byte(nil), vertices...)})
	return nil
}

func (r *Recorder) BindState(textureUnit, textureID, programID uint32) error {
	r.binds++
	if r.binds == r.FailBind {
		return ErrInjected
	}
	r.Calls = append(r.Calls, DeviceCall{Kind: CallBind,
		State: State{TextureUnit: textureUnit, TextureID: textureID, ProgramID: programID}})
	return nil
}

func (r *Recorder) DrawArrays(first, count int32) error {
	r.draws++
	if r.draws == r.FailDraw {
		return ErrInjected
	}
	r.Calls = append(r.Calls, DeviceCall{Kind: CallDraw, First: first, Count: count})
	return nil
}

func (r *Recorder) SetProjection(m math.Matrix3) {
	r.Calls = append(r.Calls, DeviceCall{Kind: CallProjection, Projection: m})
}

func (r *Recorder) SetViewport(x, y, width, height int) {
	r.Calls = append(r.Calls, DeviceCall{Kind: CallViewport, Viewport: [4]int{x, y, width, height}})
}

func (r *Recorder) CreateTextureFromImage(img image.Image, magNearest bool) (uint32, error) {
	if err := CheckTextureImage(img); err != nil {
		return 0, err
	}
	r.nextTexture++
	if r.Textures == nil {
		r.Textures = make(map[uint32]image.Rectangle)
	}
	r.Textures[r.nextTexture] = img.Bounds()
	return r.nextTexture, nil
}

func (r *Recorder) UpdateTextureFromImage(id uint32, img image.Image, magNearest bool) error {
	if err := CheckTextureImage(img); err != nil {
		return err
	}
	if _, ok := r.Textures[id]; !ok {
		return fmt.Errorf("%d: unknown texture", id)
	}
	r.Textures[id] = img.Bounds()
	r.TextureUpdates++
	return nil
}

func (r *Recorder) DestroyTexture(id uint32) {
	delete(r.Textures, id)
}

// Filter returns the recorded calls of the given kinds, in order.
func (r *Recorder) Filter(kinds ...CallKind) []DeviceCall {
	var calls []DeviceCall
	for _, c := range r.Calls {
		for _, k := range kinds {
			if c.Kind == k {
				calls = append(calls, c)
				break
			}
		}
	}
	return calls
}

// Count returns the number of recorded calls of the given kind.
func (r *Recorder) Count(kind CallKind) int {
	return len(r.Filter(kind))
}
