package vkrender

import (
	vk "github.com/vulkan-go/vulkan"
)

// HasDepthComponent reports whether format carries depth.
func HasDepthComponent(format vk.Format) bool {
	switch format {
	case vk.FormatD16Unorm, vk.FormatX8D24UnormPack32, vk.FormatD32Sfloat,
		vk.FormatD16UnormS8Uint, vk.FormatD24UnormS8Uint, vk.FormatD32SfloatS8Uint:
		return true
	}
	return false
}

// HasStencilComponent reports whether format carries stencil.
func HasStencilComponent(format vk.Format) bool {
	switch format {
	case vk.FormatS8Uint, vk.FormatD16UnormS8Uint, vk.FormatD24UnormS8Uint, vk.FormatD32SfloatS8Uint:
		return true
	}
	return false
}

// IsDepthStencilFormat reports whether format has a depth or stencil component.
func IsDepthStencilFormat(format vk.Format) bool {
	return HasDepthComponent(format) || HasStencilComponent(format)
}

// AspectForFormat returns the aspect mask views and barriers of format use.
func AspectForFormat(format vk.Format) vk.ImageAspectFlags {
	if !IsDepthStencilFormat(format) {
		return vk.ImageAspectFlags(vk.ImageAspectColorBit)
	}
	var aspect vk.ImageAspectFlags
	if HasDepthComponent(format) {
		aspect |= vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}
	if HasStencilComponent(format) {
		aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	}
	return aspect
}
