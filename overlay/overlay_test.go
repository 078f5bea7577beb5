package overlay

import (
	"encoding/binary"
	"math"
	"testing"

	imgui "github.com/inkyblackness/imgui-go"
	vk "github.com/vulkan-go/vulkan"
)

func TestDisplayTransform(t *testing.T) {
	tr := newDisplayTransform(vk.Extent2D{Width: 800, Height: 400})
	b := tr.bytes()
	if len(b) != 16 {
		t.Fatalf("push constant is %d bytes, want 16", len(b))
	}
	f := func(i int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:])) }
	// the bottom right pixel lands on (1, 1)
	if x, y := 800*f(0)+f(2), 400*f(1)+f(3); math.Abs(float64(x-1)) > 1e-6 || math.Abs(float64(y-1)) > 1e-6 {
		t.Errorf("corner maps to (%v, %v)", x, y)
	}
	if x, y := f(2), f(3); x != -1 || y != -1 {
		t.Errorf("origin maps to (%v, %v)", x, y)
	}
}

func TestClipScissor(t *testing.T) {
	extent := vk.Extent2D{Width: 640, Height: 480}

	s, ok := clipScissor(imgui.Vec4{X: 10, Y: 20, Z: 110, W: 70}, extent)
	if !ok || s.Offset.X != 10 || s.Offset.Y != 20 || s.Extent.Width != 100 || s.Extent.Height != 50 {
		t.Errorf("scissor = %+v, %v", s, ok)
	}

	s, ok = clipScissor(imgui.Vec4{X: -5, Y: -5, Z: 1000, W: 1000}, extent)
	if !ok || s.Offset.X != 0 || s.Offset.Y != 0 || s.Extent.Width != 640 || s.Extent.Height != 480 {
		t.Errorf("clamped scissor = %+v, %v", s, ok)
	}

	for _, clip := range []imgui.Vec4{
		{X: 700, Y: 0, Z: 800, W: 100},
		{X: 10, Y: 10, Z: 10, W: 50},
		{X: 50, Y: 50, Z: 40, W: 60},
	} {
		if s, ok := clipScissor(clip, extent); ok {
			t.Errorf("clip %+v produced scissor %+v", clip, s)
		}
	}
}

func TestBufferCapacity(t *testing.T) {
	cases := map[uint64]uint64{
		0:                 minBufferSize,
		1:                 minBufferSize,
		minBufferSize:     minBufferSize,
		minBufferSize + 1: 2 * minBufferSize,
		5 * minBufferSize: 8 * minBufferSize,
	}
	for size, want := range cases {
		if got := bufferCapacity(size); got != want {
			t.Errorf("bufferCapacity(%d) = %d, want %d", size, got, want)
		}
	}
}

func TestIndexType(t *testing.T) {
	if indexType(2) != vk.IndexTypeUint16 || indexType(4) != vk.IndexTypeUint32 {
		t.Error("index size not mapped to index type")
	}
}

func TestVertexAttributesFollowImguiLayout(t *testing.T) {
	size, pos, uv, col := imgui.VertexBufferLayout()
	o := &Overlay{}
	if got := o.GetBindingDescription().Stride; got != uint32(size) {
		t.Errorf("stride = %d, want %d", got, size)
	}
	attrs := o.GetAttributeDescriptions()
	want := []int{pos, uv, col}
	for i, a := range attrs {
		if a.Location != uint32(i) || a.Offset != uint32(want[i]) {
			t.Errorf("attribute %d = %+v", i, a)
		}
	}
}
