// platform/glfw.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package platform

import (
	"fmt"
	"runtime"

	"github.com/fbogfx/fbogfx/log"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwPlatform implements the Platform interface using GLFW.
type glfwPlatform struct {
	window *glfw.Window
	config *Config

	inputCharacters string
	keys            []Key
	anyEvents       bool

	lg *log.Logger
}

// New returns a new instance of a Platform implemented with a window
// of the specified size, with a current OpenGL 3.3 core context.
func New(config *Config, lg *log.Logger) (Platform, error) {
	lg.Info("Starting GLFW initialization")
	err := glfw.Init()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize glfw: %w", err)
	}
	lg.Infof("GLFW: %s", glfw.GetVersionString())

	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	if runtime.GOOS == "darwin" {
		glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	}

	vm := glfw.GetPrimaryMonitor().GetVideoMode()
	if config.InitialWindowSize[0] == 0 || config.InitialWindowSize[1] == 0 {
		config.InitialWindowSize[0] = vm.Width - 150
		config.InitialWindowSize[1] = vm.Height - 150
	}
	if config.Title == "" {
		config.Title = "fbogfx"
	}

	// Maybe enable multisampling
	if config.EnableMSAA {
		glfw.WindowHint(glfw.Samples, 4)
	}
	window, err := glfw.CreateWindow(config.InitialWindowSize[0], config.InitialWindowSize[1], config.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	window.MakeContextCurrent()

	platform := &glfwPlatform{
		config: config,
		window: window,
		lg:     lg,
	}
	platform.installCallbacks()
	platform.EnableVSync(config.EnableVSync)

	lg.Info("Finished GLFW initialization")
	return platform, nil
}

func (g *glfwPlatform) EnableVSync(sync bool) {
	if sync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
}

func (g *glfwPlatform) Dispose() {
	g.window.Destroy()
	glfw.Terminate()
}

func (g *glfwPlatform) InputCharacters() string {
	return g.inputCharacters
}

func (g *glfwPlatform) Keys() []Key {
	return g.keys
}

func (g *glfwPlatform) ShouldStop() bool {
	return g.window.ShouldClose()
}

func (g *glfwPlatform) ProcessEvents() bool {
	g.inputCharacters = ""
	g.keys = g.keys[:0]
	g.anyEvents = false

	glfw.PollEvents()

	return g.anyEvents
}

func (g *glfwPlatform) SetWindowTitle(text string) {
	g.window.SetTitle(text)
}

func (g *glfwPlatform) FramebufferSize() [2]int {
	w, h := g.window.GetFramebufferSize()
	return [2]int{w, h}
}

func (g *glfwPlatform) PostRender() {
	g.window.SwapBuffers()
}

func (g *glfwPlatform) installCallbacks() {
	g.window.SetCharCallback(func(window *glfw.Window, char rune) {
		g.anyEvents = true
		g.inputCharacters += string(char)
	})
	g.window.SetKeyCallback(g.keyChange)
	g.window.SetFramebufferSizeCallback(func(window *glfw.Window, width, height int) {
		g.anyEvents = true
		g.lg.Debugf("framebuffer resized to %dx%d", width, height)
	})
}

var glfwKeys = map[glfw.Key]Key{
	glfw.KeyEnter:     KeyEnter,
	glfw.KeyKPEnter:   KeyEnter,
	glfw.KeyBackspace: KeyBackspace,
	glfw.KeyLeft:      KeyLeft,
	glfw.KeyRight:     KeyRight,
	glfw.KeyHome:      KeyHome,
	glfw.KeyEnd:       KeyEnd,
	glfw.KeyPageUp:    KeyPageUp,
	glfw.KeyPageDown:  KeyPageDown,
	glfw.KeyEscape:    KeyEscape,
	glfw.KeyUp:        KeyUp,
	glfw.KeyDown:      KeyDown,
}

func (g *glfwPlatform) keyChange(window *glfw.Window, keycode glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	g.anyEvents = true
	if action != glfw.Press && action != glfw.Repeat {
		return
	}
	if k, ok := glfwKeys[keycode]; ok {
		g.keys = append(g.keys, k)
	}
}
