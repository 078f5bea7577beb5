package vkrender

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestOffscreenAttachmentsResolveToSampledImage(t *testing.T) {
	rp := NewRenderPass(nil, &fakeAttachmentAllocator{})
	for _, info := range offscreenAttachments(testExtent, vk.FormatB8g8r8a8Unorm, vk.FormatD32Sfloat, vk.SampleCount4Bit) {
		if _, err := rp.AddAttachment(info); err != nil {
			t.Fatal(err)
		}
	}
	info, err := rp.VKRenderPassCreateInfo()
	if err != nil {
		t.Fatal(err)
	}
	resolve := info.PAttachments[2]
	if resolve.FinalLayout != vk.ImageLayoutShaderReadOnlyOptimal {
		t.Errorf("resolve final layout = %d", resolve.FinalLayout)
	}
	if resolve.Samples != vk.SampleCount1Bit {
		t.Errorf("resolve samples = %d", resolve.Samples)
	}
	if rp.ResolveView() == nil {
		t.Error("no resolve view")
	}
	if _, ok := rp.Presented(); ok {
		t.Error("offscreen pass reports a presented attachment")
	}
}

func TestOffscreenPassNeedsMultisampling(t *testing.T) {
	o := &OffscreenPass{}
	r := &Renderer{Device: &Device{Samples: vk.SampleCount1Bit}}
	if err := o.Create(r); err == nil {
		t.Error("single-sampled offscreen pass accepted")
	}
}
