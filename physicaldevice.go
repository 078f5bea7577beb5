package vkrender

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	vk "github.com/vulkan-go/vulkan"
)

var deviceExtensions = []string{"VK_KHR_swapchain"}

type PhysicalDevice struct {
	DeviceName                 string
	VKPhysicalDevice           vk.PhysicalDevice
	VKPhysicalDeviceProperties vk.PhysicalDeviceProperties
	Limits                     vk.PhysicalDeviceLimits
}

func newPhysicalDevice(device vk.PhysicalDevice) *PhysicalDevice {
	p := &PhysicalDevice{VKPhysicalDevice: device}
	vk.GetPhysicalDeviceProperties(device, &p.VKPhysicalDeviceProperties)
	p.VKPhysicalDeviceProperties.Deref()
	p.Limits = p.VKPhysicalDeviceProperties.Limits
	p.Limits.Deref()
	p.DeviceName = vk.ToString(p.VKPhysicalDeviceProperties.DeviceName[:])
	return p
}

func (p *PhysicalDevice) String() string {
	return p.DeviceName
}

// PipelineCacheUUID identifies the driver build pipeline cache blobs are valid for.
func (p *PhysicalDevice) PipelineCacheUUID() uuid.UUID {
	return uuid.UUID(p.VKPhysicalDeviceProperties.PipelineCacheUUID)
}

// PickPhysicalDevice returns the best device able to render to surface.
// Discrete GPUs win over everything else.
func PickPhysicalDevice(instance *Instance, surface vk.Surface) (*PhysicalDevice, QueueFamilyIndices, error) {
	devices, err := instance.PhysicalDevices()
	if err != nil {
		return nil, QueueFamilyIndices{}, err
	}

	var (
		best      *PhysicalDevice
		bestQF    QueueFamilyIndices
		bestScore int
	)
	for _, p := range devices {
		qf, score := p.score(surface)
		instance.log.Debug("physical device", "name", p.DeviceName, "score", score)
		if score > bestScore {
			best, bestQF, bestScore = p, qf, score
		}
	}
	if best == nil {
		return nil, QueueFamilyIndices{}, errors.New("no suitable GPU with Vulkan support found")
	}
	return best, bestQF, nil
}

func (p *PhysicalDevice) score(surface vk.Surface) (QueueFamilyIndices, int) {
	families, err := p.QueueFamilies()
	if err != nil {
		return QueueFamilyIndices{}, 0
	}
	qf := families.Indices(surface)
	if !qf.Complete() || !p.supportsExtensions(deviceExtensions) {
		return qf, 0
	}
	support, err := p.QuerySurfaceSupport(surface)
	if err != nil || len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return qf, 0
	}
	features := p.VKPhysicalDeviceFeatures()
	if !features.SamplerAnisotropy.B() {
		return qf, 0
	}
	if p.VKPhysicalDeviceProperties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
		return qf, 1000
	}
	return qf, 1
}

func (p *PhysicalDevice) supportsExtensions(required []string) bool {
	exts, err := p.SupportedExtensions()
	if err != nil {
		return false
	}
	have := make(map[string]bool, len(exts))
	for _, e := range exts {
		e.Deref()
		have[vk.ToString(e.ExtensionName[:])] = true
	}
	for _, r := range required {
		if !have[r] {
			return false
		}
	}
	return true
}

// SurfaceSupport is what a surface offers a swapchain on this device.
type SurfaceSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// QuerySurfaceSupport reads capabilities, formats and present modes for surface.
func (p *PhysicalDevice) QuerySurfaceSupport(surface vk.Surface) (SurfaceSupport, error) {
	var s SurfaceSupport
	caps, err := p.GetSurfaceCapabilities(surface)
	if err != nil {
		return s, err
	}
	s.Capabilities = *caps
	if s.Formats, err = p.GetSurfaceFormats(surface); err != nil {
		return s, err
	}
	if s.PresentModes, err = p.GetSurfacePresentModes(surface); err != nil {
		return s, err
	}
	return s, nil
}

func (p *PhysicalDevice) GetSurfacePresentModes(surface vk.Surface) ([]vk.PresentMode, error) {
	var count uint32
	err := vkErr(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, nil), "vkGetPhysicalDeviceSurfacePresentModesKHR")
	if err != nil {
		return nil, err
	}
	modes := make([]vk.PresentMode, count)
	err = vkErr(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, modes), "vkGetPhysicalDeviceSurfacePresentModesKHR")
	if err != nil {
		return nil, err
	}
	return modes, nil
}

func (p *PhysicalDevice) GetSurfaceFormats(surface vk.Surface) ([]vk.SurfaceFormat, error) {
	var count uint32
	err := vkErr(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, nil), "vkGetPhysicalDeviceSurfaceFormatsKHR")
	if err != nil {
		return nil, err
	}
	formats := make([]vk.SurfaceFormat, count)
	err = vkErr(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, formats), "vkGetPhysicalDeviceSurfaceFormatsKHR")
	if err != nil {
		return nil, err
	}
	for i := range formats {
		formats[i].Deref()
	}
	return formats, nil
}

func (p *PhysicalDevice) GetSurfaceCapabilities(surface vk.Surface) (*vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	err := vkErr(vk.GetPhysicalDeviceSurfaceCapabilities(p.VKPhysicalDevice, surface, &caps), "vkGetPhysicalDeviceSurfaceCapabilitiesKHR")
	if err != nil {
		return nil, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return &caps, nil
}

func (p *PhysicalDevice) QueueFamilies() (QueueFamilySlice, error) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &count, nil)
	if count == 0 {
		return nil, nil
	}
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &count, props)

	ret := make(QueueFamilySlice, count)
	for i, q := range props {
		q.Deref()
		ret[i] = &QueueFamily{Index: i, PhysicalDevice: p, VKQueueFamilyProperties: q}
	}
	return ret, nil
}

func (p *PhysicalDevice) VKPhysicalDeviceFeatures() vk.PhysicalDeviceFeatures {
	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(p.VKPhysicalDevice, &features)
	features.Deref()
	return features
}

func (p *PhysicalDevice) VKPhysicalDeviceMemoryProperties() vk.PhysicalDeviceMemoryProperties {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(p.VKPhysicalDevice, &memoryProperties)
	memoryProperties.Deref()
	return memoryProperties
}

// FindMemoryType returns the index of the first memory type allowed by
// memoryTypeBits that has every flag in properties.
func (p *PhysicalDevice) FindMemoryType(memoryTypeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	mp := p.VKPhysicalDeviceMemoryProperties()
	types := make([]vk.MemoryPropertyFlags, mp.MemoryTypeCount)
	for i := range types {
		mt := mp.MemoryTypes[i]
		mt.Deref()
		types[i] = mt.PropertyFlags
	}
	return findMemoryType(types, memoryTypeBits, properties)
}

func findMemoryType(types []vk.MemoryPropertyFlags, memoryTypeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	for i, flags := range types {
		if memoryTypeBits&(1<<uint(i)) != 0 && flags&properties == properties {
			return uint32(i), nil
		}
	}
	return 0, errors.Wrapf(ErrNoMemoryType, "type bits %#x, properties %#x", memoryTypeBits, properties)
}

func (p *PhysicalDevice) SupportedExtensions() ([]vk.ExtensionProperties, error) {
	var count uint32
	err := vkErr(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, nil), "vkEnumerateDeviceExtensionProperties")
	if err != nil {
		return nil, err
	}
	ext := make([]vk.ExtensionProperties, count)
	err = vkErr(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, ext), "vkEnumerateDeviceExtensionProperties")
	if err != nil {
		return nil, err
	}
	return ext, nil
}

// FormatProperties returns the tiling features of format on this device.
func (p *PhysicalDevice) FormatProperties(format vk.Format) vk.FormatProperties {
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(p.VKPhysicalDevice, format, &props)
	props.Deref()
	return props
}

// FindSupportedFormat returns the first candidate whose tiling supports features.
func (p *PhysicalDevice) FindSupportedFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) (vk.Format, error) {
	for _, format := range candidates {
		props := p.FormatProperties(format)
		switch {
		case tiling == vk.ImageTilingLinear && props.LinearTilingFeatures&features == features:
			return format, nil
		case tiling == vk.ImageTilingOptimal && props.OptimalTilingFeatures&features == features:
			return format, nil
		}
	}
	return vk.FormatUndefined, errors.Wrapf(ErrUnsupportedFormat, "none of %v supports features %#x", candidates, features)
}

// FindDepthFormat picks a depth format usable as an optimal-tiling attachment.
func (p *PhysicalDevice) FindDepthFormat() (vk.Format, error) {
	return p.FindSupportedFormat(
		[]vk.Format{vk.FormatD32Sfloat, vk.FormatD32SfloatS8Uint, vk.FormatD24UnormS8Uint},
		vk.ImageTilingOptimal,
		vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit),
	)
}

// MaxUsableSampleCount returns the highest sample count supported for both
// color and depth framebuffers, capped at limit.
func (p *PhysicalDevice) MaxUsableSampleCount(limit vk.SampleCountFlagBits) vk.SampleCountFlagBits {
	counts := vk.SampleCountFlags(p.Limits.FramebufferColorSampleCounts & p.Limits.FramebufferDepthSampleCounts)
	return maxSampleCount(counts, limit)
}

func maxSampleCount(counts vk.SampleCountFlags, limit vk.SampleCountFlagBits) vk.SampleCountFlagBits {
	for _, c := range []vk.SampleCountFlagBits{
		vk.SampleCount64Bit, vk.SampleCount32Bit, vk.SampleCount16Bit,
		vk.SampleCount8Bit, vk.SampleCount4Bit, vk.SampleCount2Bit,
	} {
		if c <= limit && counts&vk.SampleCountFlags(c) != 0 {
			return c
		}
	}
	return vk.SampleCount1Bit
}

// MinUniformBufferOffsetAlignment is the alignment dynamic uniform offsets must honour.
func (p *PhysicalDevice) MinUniformBufferOffsetAlignment() uint64 {
	return uint64(p.Limits.MinUniformBufferOffsetAlignment)
}
