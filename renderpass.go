package vkrender

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// RenderPass builds a single-subpass render pass from an ordered list of
// attachments. The order attachments are added in is the attachment index
// used by the subpass and the view order its framebuffers expect.
type RenderPass struct {
	Device       *Device
	Attachments  []*Attachment
	VKRenderPass vk.RenderPass

	allocator AttachmentAllocator
	generated bool
}

// CreateRenderPass starts an empty render pass whose attachments are backed
// by images allocated on d.
func (d *Device) CreateRenderPass() *RenderPass {
	return NewRenderPass(d, d)
}

// NewRenderPass starts an empty render pass allocating attachments through alloc.
func NewRenderPass(d *Device, alloc AttachmentAllocator) *RenderPass {
	return &RenderPass{Device: d, allocator: alloc}
}

// AddAttachment appends an attachment and returns its index. Non-presented
// attachments get their image allocated immediately.
func (r *RenderPass) AddAttachment(info AttachmentInfo) (int, error) {
	if r.generated {
		return 0, errors.Wrap(ErrLayoutFrozen, "adding attachment")
	}
	desc, aspect := describeAttachment(info)
	info.Samples = desc.Samples
	a := &Attachment{Info: info, Description: desc, Aspect: aspect}

	if !info.Presented {
		img, view, err := r.allocator.AllocateAttachment(info, aspect, desc.FinalLayout)
		if err != nil {
			return 0, err
		}
		a.Image, a.View = img, view
	}
	r.Attachments = append(r.Attachments, a)
	return len(r.Attachments) - 1, nil
}

type subpassRefs struct {
	color   []vk.AttachmentReference
	depth   *vk.AttachmentReference
	resolve []vk.AttachmentReference
}

// classifyAttachments sorts attachments into the color, depth and resolve
// reference slots of the subpass.
func classifyAttachments(attachments []*Attachment) (subpassRefs, error) {
	var refs subpassRefs
	for i, a := range attachments {
		switch {
		case a.Info.IsResolve:
			if len(refs.resolve) > 0 {
				return refs, errors.Newf("attachment %d: a subpass takes at most one resolve attachment", i)
			}
			refs.resolve = append(refs.resolve, vk.AttachmentReference{
				Attachment: uint32(i),
				Layout:     vk.ImageLayoutColorAttachmentOptimal,
			})
		case IsDepthStencilFormat(a.Info.Format):
			if refs.depth != nil {
				return refs, errors.Newf("attachment %d: a subpass takes at most one depth attachment", i)
			}
			refs.depth = &vk.AttachmentReference{
				Attachment: uint32(i),
				Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
			}
		default:
			refs.color = append(refs.color, vk.AttachmentReference{
				Attachment: uint32(i),
				Layout:     vk.ImageLayoutColorAttachmentOptimal,
			})
		}
	}
	if len(refs.resolve) > 0 && len(refs.color) != 1 {
		return refs, errors.Newf("a resolve attachment needs exactly one color attachment, have %d", len(refs.color))
	}
	return refs, nil
}

// externalDependencies guards the start and end of the subpass against the
// work around it.
func externalDependencies(depth bool) []vk.SubpassDependency {
	stages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	access := vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit)
	if depth {
		stages |= vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit)
		access |= vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit)
	}
	bottom := vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit)
	memoryRead := vk.AccessFlags(vk.AccessMemoryReadBit)
	byRegion := vk.DependencyFlags(vk.DependencyByRegionBit)

	return []vk.SubpassDependency{
		{
			SrcSubpass:      vk.SubpassExternal,
			DstSubpass:      0,
			SrcStageMask:    bottom,
			SrcAccessMask:   memoryRead,
			DstStageMask:    stages,
			DstAccessMask:   access,
			DependencyFlags: byRegion,
		},
		{
			SrcSubpass:      0,
			DstSubpass:      vk.SubpassExternal,
			SrcStageMask:    stages,
			SrcAccessMask:   access,
			DstStageMask:    bottom,
			DstAccessMask:   memoryRead,
			DependencyFlags: byRegion,
		},
	}
}

// VKRenderPassCreateInfo describes the render pass for the attachments
// added so far.
func (r *RenderPass) VKRenderPassCreateInfo() (vk.RenderPassCreateInfo, error) {
	if len(r.Attachments) == 0 {
		return vk.RenderPassCreateInfo{}, errors.New("render pass has no attachments")
	}
	refs, err := classifyAttachments(r.Attachments)
	if err != nil {
		return vk.RenderPassCreateInfo{}, err
	}

	descriptions := make([]vk.AttachmentDescription, len(r.Attachments))
	for i, a := range r.Attachments {
		descriptions[i] = a.Description
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    uint32(len(refs.color)),
		PColorAttachments:       refs.color,
		PResolveAttachments:     refs.resolve,
		PDepthStencilAttachment: refs.depth,
	}
	dependencies := externalDependencies(refs.depth != nil)

	return vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(descriptions)),
		PAttachments:    descriptions,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}, nil
}

// Generate compiles the render pass. Attachments can no longer be added.
func (r *RenderPass) Generate() error {
	if r.generated {
		return errors.Wrap(ErrLayoutFrozen, "render pass already generated")
	}
	info, err := r.VKRenderPassCreateInfo()
	if err != nil {
		return err
	}
	var renderPass vk.RenderPass
	if err := vkErr(vk.CreateRenderPass(r.Device.VKDevice, &info, nil, &renderPass), "vkCreateRenderPass"); err != nil {
		return err
	}
	r.VKRenderPass = renderPass
	r.generated = true
	return nil
}

// Generated reports whether Generate succeeded.
func (r *RenderPass) Generated() bool {
	return r.generated
}

// Presented returns the index of the presented attachment.
func (r *RenderPass) Presented() (int, bool) {
	for i, a := range r.Attachments {
		if a.Info.Presented {
			return i, true
		}
	}
	return -1, false
}

// Extent is the extent of the first attachment.
func (r *RenderPass) Extent() vk.Extent2D {
	if len(r.Attachments) == 0 {
		return vk.Extent2D{}
	}
	return r.Attachments[0].Info.Extent
}

// Samples is the sample count of the color attachments pipelines drawing
// in this pass must use.
func (r *RenderPass) Samples() vk.SampleCountFlagBits {
	for _, a := range r.Attachments {
		if !a.Info.IsResolve && !IsDepthStencilFormat(a.Info.Format) {
			return a.Description.Samples
		}
	}
	return vk.SampleCount1Bit
}

// ResolveView returns the view of the resolve attachment, if any.
func (r *RenderPass) ResolveView() *ImageView {
	for _, a := range r.Attachments {
		if a.Info.IsResolve {
			return a.View
		}
	}
	return nil
}

// ClearValues returns one clear value per attachment, color for color
// attachments and 1.0 depth for depth attachments.
func (r *RenderPass) ClearValues(color [4]float32) []vk.ClearValue {
	values := make([]vk.ClearValue, len(r.Attachments))
	for i, a := range r.Attachments {
		if IsDepthStencilFormat(a.Info.Format) {
			values[i].SetDepthStencil(1, 0)
		} else {
			values[i].SetColor(color[:])
		}
	}
	return values
}

// Destroy releases the render pass and the attachment images it owns.
func (r *RenderPass) Destroy() {
	if r.VKRenderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(r.Device.VKDevice, r.VKRenderPass, nil)
		r.VKRenderPass = vk.NullRenderPass
	}
	for _, a := range r.Attachments {
		a.Destroy()
	}
	r.Attachments = nil
	r.generated = false
}
