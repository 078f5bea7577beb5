package vkrender

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// SwapchainSettings is everything negotiated with the surface before the
// swapchain is created.
type SwapchainSettings struct {
	Extent      vk.Extent2D
	Format      vk.Format
	ColorSpace  vk.ColorSpace
	PresentMode vk.PresentMode
	ImageCount  uint32
	Transform   vk.SurfaceTransformFlagBits
}

// ChooseSwapchainSettings picks the swapchain configuration for a surface.
// The extent is the surface's current extent unless the surface lets the
// application decide, in which case framebuffer is clamped to the allowed
// range. The first preferred format available in the sRGB non-linear color
// space wins, otherwise the surface's first format. Likewise the first
// supported preferred present mode wins, FIFO otherwise. One image more than the
// minimum is requested, capped by the maximum when there is one.
func ChooseSwapchainSettings(support SurfaceSupport, framebuffer vk.Extent2D, presentModes []vk.PresentMode, preferred []vk.Format) (SwapchainSettings, error) {
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return SwapchainSettings{}, errors.New("surface offers no formats or present modes")
	}
	caps := support.Capabilities
	s := SwapchainSettings{
		Extent:      chooseExtent(caps, framebuffer),
		PresentMode: vk.PresentModeFifo,
		ImageCount:  caps.MinImageCount + 1,
		Transform:   caps.CurrentTransform,
	}
	if caps.MaxImageCount > 0 && s.ImageCount > caps.MaxImageCount {
		s.ImageCount = caps.MaxImageCount
	}

	s.PresentMode = choosePresentMode(support.PresentModes, presentModes)

	s.Format, s.ColorSpace = chooseFormat(support.Formats, preferred)
	return s, nil
}

func chooseExtent(caps vk.SurfaceCapabilities, framebuffer vk.Extent2D) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return vk.Extent2D{Width: caps.CurrentExtent.Width, Height: caps.CurrentExtent.Height}
	}
	clamp := func(v, lo, hi uint32) uint32 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	return vk.Extent2D{
		Width:  clamp(framebuffer.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(framebuffer.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func chooseFormat(available []vk.SurfaceFormat, preferred []vk.Format) (vk.Format, vk.ColorSpace) {
	// a single undefined entry means any format is accepted
	if len(available) == 1 && available[0].Format == vk.FormatUndefined && len(preferred) > 0 {
		return preferred[0], vk.ColorSpaceSrgbNonlinear
	}
	for _, want := range preferred {
		for _, f := range available {
			if f.Format == want && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
				return f.Format, f.ColorSpace
			}
		}
	}
	return available[0].Format, available[0].ColorSpace
}

// Swapchain owns the presentable images and one view per image.
type Swapchain struct {
	Device      *Device
	VKSwapchain vk.Swapchain
	Settings    SwapchainSettings
	Extent      vk.Extent2D
	Format      vk.Format
	Images      []*Image
	Views       []*ImageView
}

func sharingMode(families QueueFamilyIndices) (vk.SharingMode, []uint32) {
	unique := families.Unique()
	if len(unique) > 1 {
		return vk.SharingModeConcurrent, unique
	}
	return vk.SharingModeExclusive, nil
}

// CreateSwapchain creates a swapchain for surface. old, when not nil, is
// handed to the driver for reuse and must be destroyed by the caller
// afterwards.
func (d *Device) CreateSwapchain(surface vk.Surface, s SwapchainSettings, old *Swapchain) (*Swapchain, error) {
	createInfo := &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    s.ImageCount,
		ImageFormat:      s.Format,
		ImageColorSpace:  s.ColorSpace,
		ImageExtent:      vk.Extent2D{Width: s.Extent.Width, Height: s.Extent.Height},
		PresentMode:      s.PresentMode,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageArrayLayers: 1,
		Clipped:          vk.True,
		PreTransform:     s.Transform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		OldSwapchain:     vk.NullSwapchain,
	}
	if old != nil {
		createInfo.OldSwapchain = old.VKSwapchain
	}
	createInfo.ImageSharingMode, createInfo.PQueueFamilyIndices = sharingMode(d.Families)
	createInfo.QueueFamilyIndexCount = uint32(len(createInfo.PQueueFamilyIndices))

	var swapchain vk.Swapchain
	if err := vkErr(vk.CreateSwapchain(d.VKDevice, createInfo, nil, &swapchain), "vkCreateSwapchainKHR"); err != nil {
		return nil, err
	}

	ret := &Swapchain{
		Device:      d,
		VKSwapchain: swapchain,
		Settings:    s,
		Extent:      s.Extent,
		Format:      s.Format,
	}
	if err := ret.createImages(); err != nil {
		ret.Destroy()
		return nil, err
	}
	return ret, nil
}

func (s *Swapchain) createImages() error {
	var imageCount uint32
	err := vkErr(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, nil), "vkGetSwapchainImagesKHR")
	if err != nil {
		return err
	}
	swapchainImages := make([]vk.Image, imageCount)
	err = vkErr(vk.GetSwapchainImages(s.Device.VKDevice, s.VKSwapchain, &imageCount, swapchainImages), "vkGetSwapchainImagesKHR")
	if err != nil {
		return err
	}

	for _, img := range swapchainImages {
		image := &Image{
			Device:    s.Device,
			VKImage:   img,
			Format:    s.Format,
			Extent:    s.Extent,
			MipLevels: 1,
			Samples:   vk.SampleCount1Bit,
			Layout:    vk.ImageLayoutUndefined,
		}
		view, err := s.Device.createImageView(img, s.Format, vk.ImageAspectFlags(vk.ImageAspectColorBit), 1)
		if err != nil {
			return errors.Wrap(err, "creating swapchain image view")
		}
		s.Images = append(s.Images, image)
		s.Views = append(s.Views, view)
	}
	return nil
}

// ImageCount is the number of images the driver created, which may exceed
// the requested count.
func (s *Swapchain) ImageCount() int {
	return len(s.Images)
}

// Acquire requests the next image, signalling semaphore when it is ready.
// The raw result is returned so out-of-date and suboptimal surfaces can be
// told apart from failures.
func (s *Swapchain) Acquire(semaphore vk.Semaphore, timeout uint64) (uint32, vk.Result) {
	var imageIndex uint32
	res := vk.AcquireNextImage(s.Device.VKDevice, s.VKSwapchain, timeout, semaphore, vk.NullFence, &imageIndex)
	return imageIndex, res
}

// Destroy releases the views and the swapchain. The images belong to the
// swapchain and go with it.
func (s *Swapchain) Destroy() {
	for _, v := range s.Views {
		v.Destroy()
	}
	s.Views = nil
	s.Images = nil
	vk.DestroySwapchain(s.Device.VKDevice, s.VKSwapchain, nil)
}

func choosePresentMode(available, preferred []vk.PresentMode) vk.PresentMode {
	for _, want := range preferred {
		for _, m := range available {
			if m == want {
				return m
			}
		}
	}
	return vk.PresentModeFifo
}
