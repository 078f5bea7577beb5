package vkrender

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func TestFramebufferViewsRequireViews(t *testing.T) {
	depth := &Attachment{Info: AttachmentInfo{Format: vk.FormatD32Sfloat}, View: &ImageView{}}
	presented := &Attachment{Info: AttachmentInfo{Format: vk.FormatB8g8r8a8Unorm, Presented: true}}

	rp := NewRenderPass(nil, &fakeAttachmentAllocator{})
	rp.AddAttachment(AttachmentInfo{Extent: testExtent, Format: vk.FormatB8g8r8a8Unorm, Presented: true})
	rp.AddAttachment(AttachmentInfo{Extent: vk.Extent2D{Width: 1, Height: 1}, Format: vk.FormatD32Sfloat})

	if _, err := framebufferViews([]*Attachment{presented, depth}, vk.NullImageView); err == nil {
		t.Error("presented attachment without a swapchain view should fail")
	}
	if _, err := framebufferViews(nil, vk.NullImageView); err == nil {
		t.Error("empty attachment list should fail")
	}
	if _, err := framebufferViews([]*Attachment{{Info: AttachmentInfo{Format: vk.FormatR8Unorm}}}, vk.NullImageView); err == nil {
		t.Error("attachment without a view should fail")
	}

	info, err := rp.FramebufferCreateInfo(vk.NullImageView)
	if err == nil {
		t.Errorf("framebuffer without swapchain view: %+v", info)
	}
}

func TestFramebufferExtentFromFirstAttachment(t *testing.T) {
	rp := NewRenderPass(nil, &fakeAttachmentAllocator{})
	rp.AddAttachment(AttachmentInfo{Extent: testExtent, Format: vk.FormatB8g8r8a8Unorm})
	rp.AddAttachment(AttachmentInfo{Extent: vk.Extent2D{Width: 1, Height: 1}, Format: vk.FormatD32Sfloat})

	info, err := rp.FramebufferCreateInfo(vk.NullImageView)
	if err != nil {
		t.Fatal(err)
	}
	if info.Width != testExtent.Width || info.Height != testExtent.Height || info.Layers != 1 {
		t.Errorf("framebuffer %dx%dx%d, want %dx%dx1", info.Width, info.Height, info.Layers, testExtent.Width, testExtent.Height)
	}
	if info.AttachmentCount != 2 || len(info.PAttachments) != 2 {
		t.Errorf("attachment count = %d", info.AttachmentCount)
	}
}
