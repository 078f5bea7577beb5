package vkrender

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Framebuffer binds a generated render pass to concrete attachment views.
// It does not own the render pass and must be recreated whenever the pass
// or the swapchain changes.
type Framebuffer struct {
	Device        *Device
	RenderPass    *RenderPass
	VKFramebuffer vk.Framebuffer
	Extent        vk.Extent2D
}

// framebufferViews lists the views in attachment order. additional fills the
// slot of the presented attachment.
func framebufferViews(attachments []*Attachment, additional vk.ImageView) ([]vk.ImageView, error) {
	if len(attachments) == 0 {
		return nil, errors.New("framebuffer needs at least one attachment")
	}
	views := make([]vk.ImageView, len(attachments))
	for i, a := range attachments {
		if a.Info.Presented {
			if additional == vk.NullImageView {
				return nil, errors.Newf("attachment %d is presented but no swapchain view was given", i)
			}
			views[i] = additional
			continue
		}
		if a.View == nil {
			return nil, errors.Newf("attachment %d has no view", i)
		}
		views[i] = a.View.VKImageView
	}
	return views, nil
}

// FramebufferCreateInfo describes a framebuffer over the pass's attachments.
// Extent comes from the first attachment.
func (r *RenderPass) FramebufferCreateInfo(additional vk.ImageView) (vk.FramebufferCreateInfo, error) {
	views, err := framebufferViews(r.Attachments, additional)
	if err != nil {
		return vk.FramebufferCreateInfo{}, err
	}
	extent := r.Extent()
	return vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      r.VKRenderPass,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}, nil
}

// CreateFramebuffer creates a framebuffer for the generated pass. additional
// is the swapchain view for a presented attachment and may be nil otherwise.
func (r *RenderPass) CreateFramebuffer(additional *ImageView) (*Framebuffer, error) {
	if !r.generated {
		return nil, errors.New("render pass must be generated before creating framebuffers")
	}
	view := vk.NullImageView
	if additional != nil {
		view = additional.VKImageView
	}
	info, err := r.FramebufferCreateInfo(view)
	if err != nil {
		return nil, err
	}
	var fb vk.Framebuffer
	if err := vkErr(vk.CreateFramebuffer(r.Device.VKDevice, &info, nil, &fb), "vkCreateFramebuffer"); err != nil {
		return nil, err
	}
	return &Framebuffer{
		Device:        r.Device,
		RenderPass:    r,
		VKFramebuffer: fb,
		Extent:        r.Extent(),
	}, nil
}

func (f *Framebuffer) Destroy() {
	vk.DestroyFramebuffer(f.Device.VKDevice, f.VKFramebuffer, nil)
}
