package vkrender

import (
	"testing"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

type allocCall struct {
	info        AttachmentInfo
	aspect      vk.ImageAspectFlags
	finalLayout vk.ImageLayout
}

type fakeAttachmentAllocator struct {
	calls []allocCall
	err   error
}

func (f *fakeAttachmentAllocator) AllocateAttachment(info AttachmentInfo, aspect vk.ImageAspectFlags, finalLayout vk.ImageLayout) (*Image, *ImageView, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.calls = append(f.calls, allocCall{info, aspect, finalLayout})
	return &Image{Format: info.Format, Extent: info.Extent}, &ImageView{}, nil
}

var testExtent = vk.Extent2D{Width: 1024, Height: 576}

func TestRenderPassMultisampleResolve(t *testing.T) {
	alloc := &fakeAttachmentAllocator{}
	rp := NewRenderPass(nil, alloc)

	infos := []AttachmentInfo{
		{Extent: testExtent, Format: vk.FormatB8g8r8a8Unorm, Samples: vk.SampleCount4Bit},
		{Extent: testExtent, Format: vk.FormatD32Sfloat, Samples: vk.SampleCount4Bit},
		{Extent: testExtent, Format: vk.FormatB8g8r8a8Unorm, Samples: vk.SampleCount1Bit, IsResolve: true},
	}
	for i, info := range infos {
		idx, err := rp.AddAttachment(info)
		if err != nil {
			t.Fatal(err)
		}
		if idx != i {
			t.Errorf("attachment index = %d, want %d", idx, i)
		}
	}
	if len(alloc.calls) != 3 {
		t.Fatalf("allocated %d images, want 3", len(alloc.calls))
	}

	info, err := rp.VKRenderPassCreateInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.SubpassCount != 1 || len(info.PSubpasses) != 1 {
		t.Fatalf("subpasses = %d", info.SubpassCount)
	}
	sub := info.PSubpasses[0]
	if sub.ColorAttachmentCount != 1 || len(sub.PColorAttachments) != 1 || sub.PColorAttachments[0].Attachment != 0 {
		t.Errorf("color refs = %+v", sub.PColorAttachments)
	}
	if sub.PDepthStencilAttachment == nil || sub.PDepthStencilAttachment.Attachment != 1 {
		t.Errorf("depth ref = %+v", sub.PDepthStencilAttachment)
	}
	if len(sub.PResolveAttachments) != 1 || sub.PResolveAttachments[0].Attachment != 2 {
		t.Errorf("resolve refs = %+v", sub.PResolveAttachments)
	}
	if info.DependencyCount != 2 || len(info.PDependencies) != 2 {
		t.Fatalf("dependencies = %d", info.DependencyCount)
	}
	if info.PDependencies[0].SrcSubpass != vk.SubpassExternal || info.PDependencies[1].DstSubpass != vk.SubpassExternal {
		t.Errorf("dependencies are not external: %+v", info.PDependencies)
	}
	depthStages := vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit)
	if info.PDependencies[0].DstStageMask&depthStages != depthStages {
		t.Errorf("depth pass dependency misses fragment test stages")
	}
	if rp.Samples() != vk.SampleCount4Bit {
		t.Errorf("samples = %d", rp.Samples())
	}
	if rp.ResolveView() == nil {
		t.Error("resolve view missing")
	}
}

func TestAttachmentFinalLayout(t *testing.T) {
	formats := []vk.Format{
		vk.FormatB8g8r8a8Unorm, vk.FormatR16g16b16a16Sfloat,
		vk.FormatD32Sfloat, vk.FormatD24UnormS8Uint, vk.FormatS8Uint,
	}
	for _, format := range formats {
		for _, resolve := range []bool{false, true} {
			desc, aspect := describeAttachment(AttachmentInfo{Format: format, IsResolve: resolve})
			depth := HasDepthComponent(format) || HasStencilComponent(format)
			var want vk.ImageLayout
			switch {
			case depth:
				want = vk.ImageLayoutDepthStencilAttachmentOptimal
			case resolve:
				want = vk.ImageLayoutShaderReadOnlyOptimal
			default:
				want = vk.ImageLayoutColorAttachmentOptimal
			}
			if desc.FinalLayout != want {
				t.Errorf("format %d resolve %v: final layout %d, want %d", format, resolve, desc.FinalLayout, want)
			}
			colorAspect := aspect == vk.ImageAspectFlags(vk.ImageAspectColorBit)
			if colorAspect == depth {
				t.Errorf("format %d: aspect %d", format, aspect)
			}
			if depth && desc.StoreOp != vk.AttachmentStoreOpDontCare {
				t.Errorf("format %d: depth attachment stores", format)
			}
			if resolve && desc.LoadOp != vk.AttachmentLoadOpDontCare {
				t.Errorf("format %d: resolve attachment loads", format)
			}
			if desc.Samples != vk.SampleCount1Bit {
				t.Errorf("format %d: unset samples became %d", format, desc.Samples)
			}
		}
	}
}

func TestPresentedAttachment(t *testing.T) {
	alloc := &fakeAttachmentAllocator{}
	rp := NewRenderPass(nil, alloc)
	if _, err := rp.AddAttachment(AttachmentInfo{Extent: testExtent, Format: vk.FormatB8g8r8a8Unorm, Samples: vk.SampleCount4Bit, Presented: true}); err != nil {
		t.Fatal(err)
	}
	if len(alloc.calls) != 0 {
		t.Errorf("presented attachment allocated an image")
	}
	a := rp.Attachments[0]
	if a.Description.FinalLayout != vk.ImageLayoutPresentSrc ||
		a.Description.LoadOp != vk.AttachmentLoadOpDontCare ||
		a.Description.StoreOp != vk.AttachmentStoreOpStore ||
		a.Description.Samples != vk.SampleCount1Bit {
		t.Errorf("presented description = %+v", a.Description)
	}
	if idx, ok := rp.Presented(); !ok || idx != 0 {
		t.Errorf("Presented() = %d, %v", idx, ok)
	}

	info, err := rp.VKRenderPassCreateInfo()
	if err != nil {
		t.Fatal(err)
	}
	if info.PSubpasses[0].PDepthStencilAttachment != nil || info.PSubpasses[0].ColorAttachmentCount != 1 {
		t.Errorf("presented pass subpass = %+v", info.PSubpasses[0])
	}
	if info.PDependencies[0].DstStageMask != vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit) {
		t.Errorf("color-only pass waits on depth stages")
	}
}

func TestAttachmentAllocatedInFinalLayout(t *testing.T) {
	alloc := &fakeAttachmentAllocator{}
	rp := NewRenderPass(nil, alloc)
	rp.AddAttachment(AttachmentInfo{Extent: testExtent, Format: vk.FormatD32Sfloat})
	rp.AddAttachment(AttachmentInfo{Extent: testExtent, Format: vk.FormatB8g8r8a8Unorm, IsResolve: true})

	if alloc.calls[0].finalLayout != vk.ImageLayoutDepthStencilAttachmentOptimal ||
		alloc.calls[0].aspect != vk.ImageAspectFlags(vk.ImageAspectDepthBit) {
		t.Errorf("depth allocation = %+v", alloc.calls[0])
	}
	if alloc.calls[1].finalLayout != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Errorf("resolve allocation = %+v", alloc.calls[1])
	}
}

func TestRenderPassRejectsInvalidLayouts(t *testing.T) {
	color := AttachmentInfo{Extent: testExtent, Format: vk.FormatB8g8r8a8Unorm}
	depth := AttachmentInfo{Extent: testExtent, Format: vk.FormatD32Sfloat}
	resolve := AttachmentInfo{Extent: testExtent, Format: vk.FormatB8g8r8a8Unorm, IsResolve: true}

	tests := []struct {
		name  string
		infos []AttachmentInfo
	}{
		{"no attachments", nil},
		{"two depth", []AttachmentInfo{color, depth, depth}},
		{"two resolve", []AttachmentInfo{color, resolve, resolve}},
		{"resolve without color", []AttachmentInfo{depth, resolve}},
		{"resolve with two colors", []AttachmentInfo{color, color, resolve}},
	}
	for _, tt := range tests {
		rp := NewRenderPass(nil, &fakeAttachmentAllocator{})
		for _, info := range tt.infos {
			if _, err := rp.AddAttachment(info); err != nil {
				t.Fatalf("%s: %v", tt.name, err)
			}
		}
		if _, err := rp.VKRenderPassCreateInfo(); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
}

func TestRenderPassFrozenAfterGenerate(t *testing.T) {
	rp := NewRenderPass(nil, &fakeAttachmentAllocator{})
	rp.generated = true
	if _, err := rp.AddAttachment(AttachmentInfo{Format: vk.FormatB8g8r8a8Unorm}); !errors.Is(err, ErrLayoutFrozen) {
		t.Errorf("got %v, want ErrLayoutFrozen", err)
	}
}

func TestAttachmentAllocationFailure(t *testing.T) {
	rp := NewRenderPass(nil, &fakeAttachmentAllocator{err: ErrNoMemoryType})
	if _, err := rp.AddAttachment(AttachmentInfo{Format: vk.FormatB8g8r8a8Unorm}); !errors.Is(err, ErrNoMemoryType) {
		t.Errorf("got %v", err)
	}
	if len(rp.Attachments) != 0 {
		t.Errorf("failed attachment was kept")
	}
}

func TestClearValues(t *testing.T) {
	rp := NewRenderPass(nil, &fakeAttachmentAllocator{})
	rp.AddAttachment(AttachmentInfo{Format: vk.FormatB8g8r8a8Unorm})
	rp.AddAttachment(AttachmentInfo{Format: vk.FormatD32Sfloat})
	if got := len(rp.ClearValues([4]float32{0, 0, 0, 1})); got != 2 {
		t.Errorf("clear values = %d", got)
	}
}
