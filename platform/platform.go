// platform/platform.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package platform

// Platform abstracts the window and its input events.
type Platform interface {
	// ProcessEvents handles all pending window events. Returns true if
	// there were any events and false otherwise.
	ProcessEvents() bool
	// PostRender performs the buffer swap.
	PostRender()
	// Dispose is called when the application is shutting down and is when
	// resources are be freed.
	Dispose()
	// ShouldStop returns true if the window is to be closed.
	ShouldStop() bool
	// SetWindowTitle sets the title of the application window.
	SetWindowTitle(text string)
	// InputCharacters returns a string of all the characters that have
	// been entered since the last call to ProcessEvents.
	InputCharacters() string
	// Keys returns the special keys pressed since the last call to
	// ProcessEvents, in order.
	Keys() []Key
	// EnableVSync specifies whether v-sync should be used when rendering.
	EnableVSync(sync bool)
	// FramebufferSize returns the dimension of the framebuffer in pixels.
	FramebufferSize() [2]int
}

type Key int

const (
	KeyEnter Key = iota
	KeyBackspace
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyEscape
	KeyUp
	KeyDown
)

type Config struct {
	InitialWindowSize [2]int
	EnableMSAA        bool
	EnableVSync       bool
	Title             string
}
