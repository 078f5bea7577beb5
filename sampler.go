package vkrender

import (
	vk "github.com/vulkan-go/vulkan"
)

type Sampler struct {
	Device    *Device
	VKSampler vk.Sampler
}

// CreateSampler creates a linear, repeating sampler covering mipLevels.
// Anisotropic filtering uses the device maximum when enabled.
func (d *Device) CreateSampler(mipLevels uint32, anisotropy bool) (*Sampler, error) {
	info := vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               vk.FilterLinear,
		MinFilter:               vk.FilterLinear,
		MipmapMode:              vk.SamplerMipmapModeLinear,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		CompareOp:               vk.CompareOpAlways,
		MinLod:                  0,
		MaxLod:                  float32(mipLevels),
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
	}
	if anisotropy {
		info.AnisotropyEnable = vk.True
		info.MaxAnisotropy = d.PhysicalDevice.Limits.MaxSamplerAnisotropy
	}

	var sampler vk.Sampler
	if err := vkErr(vk.CreateSampler(d.VKDevice, &info, nil, &sampler), "vkCreateSampler"); err != nil {
		return nil, err
	}
	return &Sampler{Device: d, VKSampler: sampler}, nil
}

func (s *Sampler) Destroy() {
	vk.DestroySampler(s.Device.VKDevice, s.VKSampler, nil)
}
