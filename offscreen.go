package vkrender

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// OffscreenPass renders the scene multisampled and resolves it into a
// single sampled image later passes read. It is sized to the swapchain
// and rebuilt with it.
type OffscreenPass struct {
	RenderPass  *RenderPass
	Framebuffer *Framebuffer
}

// offscreenAttachments lists the attachments in subpass order: color,
// depth, resolve.
func offscreenAttachments(extent vk.Extent2D, color, depth vk.Format, samples vk.SampleCountFlagBits) []AttachmentInfo {
	return []AttachmentInfo{
		{Extent: extent, Format: color, Samples: samples},
		{Extent: extent, Format: depth, Samples: samples},
		{Extent: extent, Format: color, Samples: vk.SampleCount1Bit, IsResolve: true},
	}
}

func (o *OffscreenPass) Create(r *Renderer) error {
	samples := r.Device.Samples
	if samples == vk.SampleCount1Bit {
		return errors.Mark(errors.New("offscreen pass resolves a multisampled image, raise MaxSamples above 1"), ErrInvalidOptions)
	}
	depth, err := r.Device.PhysicalDevice.FindDepthFormat()
	if err != nil {
		return err
	}

	o.RenderPass = r.Device.CreateRenderPass()
	for _, info := range offscreenAttachments(r.Extent(), r.Swapchain.Format, depth, samples) {
		if _, err := o.RenderPass.AddAttachment(info); err != nil {
			o.Destroy()
			return errors.Wrap(err, "adding offscreen attachment")
		}
	}
	if err := o.RenderPass.Generate(); err != nil {
		o.Destroy()
		return err
	}
	if o.Framebuffer, err = o.RenderPass.CreateFramebuffer(nil); err != nil {
		o.Destroy()
		return err
	}
	return nil
}

// ResolveView is the single sampled result of the pass.
func (o *OffscreenPass) ResolveView() *ImageView {
	return o.RenderPass.ResolveView()
}

// Run records the pass with draw recording the scene.
func (o *OffscreenPass) Run(f *Frame, draw func(cmd *CommandBuffer) error) error {
	return f.RunRenderPass(o.RenderPass, o.Framebuffer, draw)
}

func (o *OffscreenPass) Destroy() {
	if o.Framebuffer != nil {
		o.Framebuffer.Destroy()
		o.Framebuffer = nil
	}
	if o.RenderPass != nil {
		o.RenderPass.Destroy()
		o.RenderPass = nil
	}
}
