package window

import (
	"unsafe"

	"github.com/celer/vkrender"
	"github.com/cockroachdb/errors"
	"github.com/veandco/go-sdl2/sdl"
	vk "github.com/vulkan-go/vulkan"
)

type SDL struct {
	Window *sdl.Window

	resized bool
	quit    bool
}

func NewSDL(title string, width, height int) (*SDL, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "sdl.Init")
	}
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "loading vulkan through sdl")
	}
	w, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(width), int32(height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.VulkanUnloadLibrary()
		sdl.Quit()
		return nil, errors.Wrap(err, "creating sdl window")
	}
	return &SDL{Window: w}, nil
}

func (s *SDL) RequiredExtensions() []string {
	return s.Window.VulkanGetInstanceExtensions()
}

func (s *SDL) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

func (s *SDL) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := s.Window.VulkanCreateSurface(instance)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "creating sdl vulkan surface")
	}
	return vk.SurfaceFromPointer(uintptr(ptr)), nil
}

func (s *SDL) FramebufferSize() (int, int) {
	w, h := s.Window.VulkanGetDrawableSize()
	return int(w), int(h)
}

func (s *SDL) handle(event sdl.Event) {
	switch e := event.(type) {
	case *sdl.QuitEvent:
		s.quit = true
	case *sdl.WindowEvent:
		switch e.Event {
		case sdl.WINDOWEVENT_RESIZED, sdl.WINDOWEVENT_SIZE_CHANGED, sdl.WINDOWEVENT_RESTORED:
			s.resized = true
		}
	}
}

func (s *SDL) WaitEvents() {
	if event := sdl.WaitEvent(); event != nil {
		s.handle(event)
	}
}

func (s *SDL) PollEvents() (vkrender.FrameEvents, bool) {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		s.handle(event)
	}
	ev := vkrender.FrameEvents{Resized: s.resized}
	s.resized = false
	return ev, s.quit
}

func (s *SDL) Destroy() {
	s.Window.Destroy()
	sdl.VulkanUnloadLibrary()
	sdl.Quit()
}
