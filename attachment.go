package vkrender

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// AttachmentInfo requests one attachment of a render pass.
type AttachmentInfo struct {
	Extent vk.Extent2D
	Format vk.Format
	// Usage defaults to color or depth/stencil attachment usage, plus
	// sampled usage for resolve targets.
	Usage   vk.ImageUsageFlags
	Samples vk.SampleCountFlagBits

	// IsResolve marks the single-sample target a multisampled color
	// attachment resolves into.
	IsResolve bool

	// Presented attachments are backed by a swapchain image supplied when
	// the framebuffer is created. No image is allocated for them.
	Presented bool
}

// Attachment is an attachment added to a RenderPass. Image and View are nil
// for presented attachments, which borrow the swapchain's image.
type Attachment struct {
	Info        AttachmentInfo
	Description vk.AttachmentDescription
	Aspect      vk.ImageAspectFlags
	Image       *Image
	View        *ImageView
}

// AttachmentAllocator creates the image backing a non-presented attachment
// and leaves it in finalLayout.
type AttachmentAllocator interface {
	AllocateAttachment(info AttachmentInfo, aspect vk.ImageAspectFlags, finalLayout vk.ImageLayout) (*Image, *ImageView, error)
}

// describeAttachment applies the load/store policy:
//   - resolve attachments never load or clear
//   - depth/stencil attachments never store
//   - presented attachments never clear, always store and end in PresentSrc
func describeAttachment(info AttachmentInfo) (vk.AttachmentDescription, vk.ImageAspectFlags) {
	desc := vk.AttachmentDescription{
		Format:         info.Format,
		Samples:        info.Samples,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
	}
	if desc.Samples == 0 {
		desc.Samples = vk.SampleCount1Bit
	}
	aspect := AspectForFormat(info.Format)

	if info.Presented {
		desc.Samples = vk.SampleCount1Bit
		desc.LoadOp = vk.AttachmentLoadOpDontCare
		desc.StoreOp = vk.AttachmentStoreOpStore
		desc.FinalLayout = vk.ImageLayoutPresentSrc
		return desc, aspect
	}

	desc.LoadOp = vk.AttachmentLoadOpClear
	if info.IsResolve {
		desc.LoadOp = vk.AttachmentLoadOpDontCare
	}

	switch {
	case IsDepthStencilFormat(info.Format):
		desc.StoreOp = vk.AttachmentStoreOpDontCare
		desc.FinalLayout = vk.ImageLayoutDepthStencilAttachmentOptimal
	case info.IsResolve:
		desc.StoreOp = vk.AttachmentStoreOpStore
		desc.FinalLayout = vk.ImageLayoutShaderReadOnlyOptimal
	default:
		desc.StoreOp = vk.AttachmentStoreOpStore
		desc.FinalLayout = vk.ImageLayoutColorAttachmentOptimal
	}
	return desc, aspect
}

func attachmentUsage(info AttachmentInfo) vk.ImageUsageFlags {
	if info.Usage != 0 {
		return info.Usage
	}
	if IsDepthStencilFormat(info.Format) {
		return vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)
	}
	usage := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	if info.IsResolve {
		usage |= vk.ImageUsageFlags(vk.ImageUsageSampledBit)
	}
	return usage
}

// AllocateAttachment creates a device-local image and view for info and
// transitions it from Undefined to finalLayout with a blocking one-shot
// submission, so the image is in a known layout before its first use.
func (d *Device) AllocateAttachment(info AttachmentInfo, aspect vk.ImageAspectFlags, finalLayout vk.ImageLayout) (*Image, *ImageView, error) {
	img, err := d.CreateImage(ImageOptions{
		Extent:  info.Extent,
		Format:  info.Format,
		Samples: info.Samples,
		Tiling:  vk.ImageTilingOptimal,
		Usage:   attachmentUsage(info),
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating attachment image")
	}
	view, err := img.CreateView(aspect)
	if err != nil {
		img.Destroy()
		return nil, nil, err
	}
	if err := img.TransitionLayout(finalLayout); err != nil {
		view.Destroy()
		img.Destroy()
		return nil, nil, err
	}
	return img, view, nil
}

func (a *Attachment) Destroy() {
	if a.View != nil && a.View.Device != nil {
		a.View.Destroy()
	}
	if a.Image != nil && a.Image.Device != nil {
		a.Image.Destroy()
	}
	a.View, a.Image = nil, nil
}
