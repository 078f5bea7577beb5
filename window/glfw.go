package window

import (
	"unsafe"

	"github.com/celer/vkrender"
	"github.com/cockroachdb/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

type GLFW struct {
	Window *glfw.Window

	resized bool
}

func NewGLFW(title string, width, height int) (*GLFW, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "glfw.Init")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.New("glfw reports no vulkan loader")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	w, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "creating glfw window")
	}

	g := &GLFW{Window: w}
	w.SetFramebufferSizeCallback(func(_ *glfw.Window, _, _ int) {
		g.resized = true
	})
	return g, nil
}

func (g *GLFW) RequiredExtensions() []string {
	return g.Window.GetRequiredInstanceExtensions()
}

func (g *GLFW) ProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (g *GLFW) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := g.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "creating glfw window surface")
	}
	return vk.SurfaceFromPointer(ptr), nil
}

func (g *GLFW) FramebufferSize() (int, int) {
	return g.Window.GetFramebufferSize()
}

func (g *GLFW) WaitEvents() {
	glfw.WaitEvents()
}

func (g *GLFW) PollEvents() (vkrender.FrameEvents, bool) {
	glfw.PollEvents()
	ev := vkrender.FrameEvents{Resized: g.resized}
	g.resized = false
	return ev, g.Window.ShouldClose()
}

func (g *GLFW) Destroy() {
	g.Window.Destroy()
	glfw.Terminate()
}
