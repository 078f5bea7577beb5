package vkrender

import (
	"image"
	"math/bits"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Texture is a sampled image with its view and sampler.
type Texture struct {
	Image   *Image
	View    *ImageView
	Sampler *Sampler
}

// TextureOptions controls how CreateTexture uploads an image.
type TextureOptions struct {
	// Format defaults to R8G8B8A8Srgb.
	Format vk.Format
	// Mipmaps generates the full mip chain with linear blits.
	Mipmaps bool
}

// mipLevels is the length of the full mip chain for a w x h image.
func mipLevels(w, h uint32) uint32 {
	m := w
	if h > m {
		m = h
	}
	if m == 0 {
		return 1
	}
	return uint32(bits.Len32(m))
}

// CreateTexture stages img into a device-local image, optionally builds its
// mip chain and leaves it in ShaderReadOnlyOptimal, ready to sample.
func (d *Device) CreateTexture(img *image.RGBA, opts TextureOptions) (*Texture, error) {
	if opts.Format == vk.FormatUndefined {
		opts.Format = vk.FormatR8g8b8a8Srgb
	}
	b := img.Bounds()
	extent := vk.Extent2D{Width: uint32(b.Dx()), Height: uint32(b.Dy())}
	levels := uint32(1)
	if opts.Mipmaps {
		levels = mipLevels(extent.Width, extent.Height)
		props := d.PhysicalDevice.FormatProperties(opts.Format)
		if props.OptimalTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureSampledImageFilterLinearBit) == 0 {
			return nil, errors.Wrapf(ErrUnsupportedFormat, "format %d does not support linear blitting", opts.Format)
		}
	}

	staging, err := d.CreateBuffer(vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), hostCoherent, uint64(len(img.Pix)))
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()
	if err := staging.MapCopy(img.Pix); err != nil {
		return nil, err
	}

	usage := vk.ImageUsageTransferDstBit | vk.ImageUsageSampledBit
	if levels > 1 {
		usage |= vk.ImageUsageTransferSrcBit
	}
	texImage, err := d.CreateImage(ImageOptions{
		Extent:    extent,
		Format:    opts.Format,
		MipLevels: levels,
		Tiling:    vk.ImageTilingOptimal,
		Usage:     vk.ImageUsageFlags(usage),
	})
	if err != nil {
		return nil, err
	}

	err = d.SubmitOneShot(func(cmd *CommandBuffer) error {
		if err := cmd.TransitionImageLayout(texImage, vk.ImageLayoutTransferDstOptimal); err != nil {
			return err
		}
		cmd.CopyBufferToImage(staging, texImage)
		if levels > 1 {
			cmd.generateMipmaps(texImage)
			return nil
		}
		return cmd.TransitionImageLayout(texImage, vk.ImageLayoutShaderReadOnlyOptimal)
	})
	if err != nil {
		texImage.Destroy()
		return nil, errors.Wrap(err, "uploading texture")
	}

	view, err := texImage.CreateView(vk.ImageAspectFlags(vk.ImageAspectColorBit))
	if err != nil {
		texImage.Destroy()
		return nil, err
	}
	sampler, err := d.CreateSampler(levels, true)
	if err != nil {
		view.Destroy()
		texImage.Destroy()
		return nil, err
	}
	return &Texture{Image: texImage, View: view, Sampler: sampler}, nil
}

// generateMipmaps blits each level from the previous one. Every level ends
// in ShaderReadOnlyOptimal.
func (c *CommandBuffer) generateMipmaps(img *Image) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img.VKImage,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	transfer := vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	fragment := vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)

	w, h := int32(img.Extent.Width), int32(img.Extent.Height)
	for level := uint32(1); level < img.MipLevels; level++ {
		barrier.SubresourceRange.BaseMipLevel = level - 1
		barrier.OldLayout = vk.ImageLayoutTransferDstOptimal
		barrier.NewLayout = vk.ImageLayoutTransferSrcOptimal
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferReadBit)
		c.ImageBarrier(transfer, transfer, barrier)

		nw, nh := w, h
		if nw > 1 {
			nw /= 2
		}
		if nh > 1 {
			nh /= 2
		}
		blit := vk.ImageBlit{
			SrcSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				MipLevel:   level - 1,
				LayerCount: 1,
			},
			SrcOffsets: [2]vk.Offset3D{{}, {X: w, Y: h, Z: 1}},
			DstSubresource: vk.ImageSubresourceLayers{
				AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
				MipLevel:   level,
				LayerCount: 1,
			},
			DstOffsets: [2]vk.Offset3D{{}, {X: nw, Y: nh, Z: 1}},
		}
		vk.CmdBlitImage(c.VKCommandBuffer, img.VKImage, vk.ImageLayoutTransferSrcOptimal,
			img.VKImage, vk.ImageLayoutTransferDstOptimal, 1, []vk.ImageBlit{blit}, vk.FilterLinear)

		barrier.OldLayout = vk.ImageLayoutTransferSrcOptimal
		barrier.NewLayout = vk.ImageLayoutShaderReadOnlyOptimal
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferReadBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		c.ImageBarrier(transfer, fragment, barrier)

		w, h = nw, nh
	}

	barrier.SubresourceRange.BaseMipLevel = img.MipLevels - 1
	barrier.OldLayout = vk.ImageLayoutTransferDstOptimal
	barrier.NewLayout = vk.ImageLayoutShaderReadOnlyOptimal
	barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
	barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
	c.ImageBarrier(transfer, fragment, barrier)

	img.Layout = vk.ImageLayoutShaderReadOnlyOptimal
}

func (t *Texture) Destroy() {
	t.Sampler.Destroy()
	t.View.Destroy()
	t.Image.Destroy()
}
