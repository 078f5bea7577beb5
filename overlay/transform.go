package overlay

import (
	"math"
	"unsafe"

	"github.com/celer/vkrender"
	imgui "github.com/inkyblackness/imgui-go"
	vk "github.com/vulkan-go/vulkan"
)

// displayTransform maps ImGui's pixel coordinates to clip space. It is
// pushed to the vertex stage as two vec2s.
type displayTransform struct {
	Scale     [2]float32
	Translate [2]float32
}

func newDisplayTransform(extent vk.Extent2D) displayTransform {
	return displayTransform{
		Scale:     [2]float32{2 / float32(extent.Width), 2 / float32(extent.Height)},
		Translate: [2]float32{-1, -1},
	}
}

func (t *displayTransform) bytes() []byte {
	return vkrender.ToBytes(unsafe.Pointer(t), int(unsafe.Sizeof(*t)))
}

// clipScissor converts an ImGui clip rectangle (min x, min y, max x, max y)
// to a scissor clamped to extent. ok is false when nothing is left.
func clipScissor(clip imgui.Vec4, extent vk.Extent2D) (vk.Rect2D, bool) {
	clamp := func(v float32, max uint32) int32 {
		return int32(math.Max(0, math.Min(float64(v), float64(max))))
	}
	x0, y0 := clamp(clip.X, extent.Width), clamp(clip.Y, extent.Height)
	x1, y1 := clamp(clip.Z, extent.Width), clamp(clip.W, extent.Height)
	if x1 <= x0 || y1 <= y0 {
		return vk.Rect2D{}, false
	}
	return vk.Rect2D{
		Offset: vk.Offset2D{X: x0, Y: y0},
		Extent: vk.Extent2D{Width: uint32(x1 - x0), Height: uint32(y1 - y0)},
	}, true
}
