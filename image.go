package vkrender

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Image is a 2D image bound to memory it owns, unless it belongs to a swapchain.
type Image struct {
	Device    *Device
	VKImage   vk.Image
	Format    vk.Format
	Extent    vk.Extent2D
	MipLevels uint32
	Samples   vk.SampleCountFlagBits
	Memory    *DeviceMemory

	// Layout is the layout the last recorded transition left the image in.
	Layout vk.ImageLayout
}

// ImageOptions describes an image to create.
type ImageOptions struct {
	Extent     vk.Extent2D
	Format     vk.Format
	MipLevels  uint32
	Samples    vk.SampleCountFlagBits
	Tiling     vk.ImageTiling
	Usage      vk.ImageUsageFlags
	Properties vk.MemoryPropertyFlags
}

// CreateImage creates an image and binds it to memory with o.Properties.
func (d *Device) CreateImage(o ImageOptions) (*Image, error) {
	if o.MipLevels == 0 {
		o.MipLevels = 1
	}
	if o.Samples == 0 {
		o.Samples = vk.SampleCount1Bit
	}
	if o.Properties == 0 {
		o.Properties = deviceLocal
	}

	imageInfo := vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Extent:        vk.Extent3D{Width: o.Extent.Width, Height: o.Extent.Height, Depth: 1},
		MipLevels:     o.MipLevels,
		ArrayLayers:   1,
		Format:        o.Format,
		Tiling:        o.Tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         o.Usage,
		Samples:       o.Samples,
		SharingMode:   vk.SharingModeExclusive,
	}

	var image vk.Image
	if err := vkErr(vk.CreateImage(d.VKDevice, &imageInfo, nil, &image), "vkCreateImage"); err != nil {
		return nil, err
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.VKDevice, image, &req)
	req.Deref()

	memory, err := d.Allocate(uint64(req.Size), req.MemoryTypeBits, o.Properties)
	if err != nil {
		vk.DestroyImage(d.VKDevice, image, nil)
		return nil, errors.Wrapf(err, "allocating %dx%d image", o.Extent.Width, o.Extent.Height)
	}
	if err := vkErr(vk.BindImageMemory(d.VKDevice, image, memory.VKDeviceMemory, 0), "vkBindImageMemory"); err != nil {
		memory.Destroy()
		vk.DestroyImage(d.VKDevice, image, nil)
		return nil, err
	}

	return &Image{
		Device:    d,
		VKImage:   image,
		Format:    o.Format,
		Extent:    o.Extent,
		MipLevels: o.MipLevels,
		Samples:   o.Samples,
		Memory:    memory,
		Layout:    vk.ImageLayoutUndefined,
	}, nil
}

// Destroy releases the image and its memory. Swapchain images own neither.
func (i *Image) Destroy() {
	if i.Memory == nil {
		return
	}
	vk.DestroyImage(i.Device.VKDevice, i.VKImage, nil)
	i.Memory.Destroy()
}

// TransitionLayout moves every mip level of the image to newLayout with a
// one-shot submission.
func (i *Image) TransitionLayout(newLayout vk.ImageLayout) error {
	return i.Device.SubmitOneShot(func(cmd *CommandBuffer) error {
		return cmd.TransitionImageLayout(i, newLayout)
	})
}

// TransitionImageLayout records a barrier moving img from its current layout to newLayout.
func (c *CommandBuffer) TransitionImageLayout(img *Image, newLayout vk.ImageLayout) error {
	t, err := transitionBarrier(img.Layout, newLayout)
	if err != nil {
		return err
	}
	c.ImageBarrier(t.srcStage, t.dstStage, vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           img.Layout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img.VKImage,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: AspectForFormat(img.Format),
			LevelCount: img.MipLevels,
			LayerCount: 1,
		},
		SrcAccessMask: t.srcAccess,
		DstAccessMask: t.dstAccess,
	})
	img.Layout = newLayout
	return nil
}

type layoutTransition struct {
	srcAccess, dstAccess vk.AccessFlags
	srcStage, dstStage   vk.PipelineStageFlags
}

func transitionBarrier(oldLayout, newLayout vk.ImageLayout) (layoutTransition, error) {
	access := func(b vk.AccessFlagBits) vk.AccessFlags { return vk.AccessFlags(b) }
	stage := func(b vk.PipelineStageFlagBits) vk.PipelineStageFlags { return vk.PipelineStageFlags(b) }
	top := stage(vk.PipelineStageTopOfPipeBit)
	transfer := stage(vk.PipelineStageTransferBit)
	fragment := stage(vk.PipelineStageFragmentShaderBit)

	switch {
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutTransferDstOptimal:
		return layoutTransition{0, access(vk.AccessTransferWriteBit), top, transfer}, nil
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		return layoutTransition{access(vk.AccessTransferWriteBit), access(vk.AccessShaderReadBit), transfer, fragment}, nil
	case oldLayout == vk.ImageLayoutTransferDstOptimal && newLayout == vk.ImageLayoutTransferSrcOptimal:
		return layoutTransition{access(vk.AccessTransferWriteBit), access(vk.AccessTransferReadBit), transfer, transfer}, nil
	case oldLayout == vk.ImageLayoutTransferSrcOptimal && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		return layoutTransition{access(vk.AccessTransferReadBit), access(vk.AccessShaderReadBit), transfer, fragment}, nil
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutDepthStencilAttachmentOptimal:
		return layoutTransition{
			0, access(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit),
			top, stage(vk.PipelineStageEarlyFragmentTestsBit),
		}, nil
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutColorAttachmentOptimal:
		return layoutTransition{
			0, access(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit),
			top, stage(vk.PipelineStageColorAttachmentOutputBit),
		}, nil
	case oldLayout == vk.ImageLayoutUndefined && newLayout == vk.ImageLayoutShaderReadOnlyOptimal:
		return layoutTransition{0, access(vk.AccessShaderReadBit), top, fragment}, nil
	}
	return layoutTransition{}, errors.Wrapf(ErrUnsupportedTransition, "%d -> %d", oldLayout, newLayout)
}

type ImageView struct {
	Device      *Device
	VKImageView vk.ImageView
}

// CreateView creates a view over every mip level of the image.
func (i *Image) CreateView(aspect vk.ImageAspectFlags) (*ImageView, error) {
	return i.Device.createImageView(i.VKImage, i.Format, aspect, i.MipLevels)
}

func (d *Device) createImageView(image vk.Image, format vk.Format, aspect vk.ImageAspectFlags, mipLevels uint32) (*ImageView, error) {
	createInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: mipLevels,
			LayerCount: 1,
		},
	}

	var view vk.ImageView
	if err := vkErr(vk.CreateImageView(d.VKDevice, &createInfo, nil, &view), "vkCreateImageView"); err != nil {
		return nil, err
	}
	return &ImageView{Device: d, VKImageView: view}, nil
}

func (i *ImageView) Destroy() {
	vk.DestroyImageView(i.Device.VKDevice, i.VKImageView, nil)
}
