// Package window provides the GLFW and SDL windows the renderer presents to.
package window

import (
	"github.com/celer/vkrender"
	"github.com/cockroachdb/errors"
)

// Window is a surface provider that also reports input events.
type Window interface {
	vkrender.SurfaceProvider
	// PollEvents drains pending events without blocking.
	PollEvents() (ev vkrender.FrameEvents, quit bool)
	Destroy()
}

// Open creates a window on the named backend, "glfw" or "sdl". Call it from
// the main goroutine with the OS thread locked.
func Open(backend, title string, width, height int) (Window, error) {
	switch backend {
	case "glfw", "":
		return NewGLFW(title, width, height)
	case "sdl":
		return NewSDL(title, width, height)
	}
	return nil, errors.Newf("unknown window backend %q", backend)
}
