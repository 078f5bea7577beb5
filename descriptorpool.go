package vkrender

import (
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorPool is essentially a resource manager for descriptor pools provided by Vulkan.
type DescriptorPool struct {
	Device               *Device
	VKDescriptorPool     vk.DescriptorPool
	VKDescriptorPoolSize []vk.DescriptorPoolSize
	MaxSets              int
}

// CreateDescriptorPool creates a pool holding up to maxSets sets drawn from sizes
func (d *Device) CreateDescriptorPool(sizes []vk.DescriptorPoolSize, maxSets int) (*DescriptorPool, error) {
	var descriptorPoolCreateInfo = vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       uint32(maxSets),
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}

	var descriptorPool vk.DescriptorPool
	err := vkErr(vk.CreateDescriptorPool(d.VKDevice, &descriptorPoolCreateInfo, nil, &descriptorPool), "vkCreateDescriptorPool")
	if err != nil {
		return nil, err
	}

	return &DescriptorPool{
		Device:               d,
		VKDescriptorPool:     descriptorPool,
		VKDescriptorPoolSize: sizes,
		MaxSets:              maxSets,
	}, nil
}

// Allocate allocates count descriptor sets sharing one layout
func (d *DescriptorPool) Allocate(layout *DescriptorSetLayout, count int) ([]vk.DescriptorSet, error) {
	layouts := make([]vk.DescriptorSetLayout, count)
	for i := range layouts {
		layouts[i] = layout.VKDescriptorSetLayout
	}

	descriptorSetAllocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     d.VKDescriptorPool,
		DescriptorSetCount: uint32(count),
		PSetLayouts:        layouts,
	}

	sets := make([]vk.DescriptorSet, count)
	err := vkErr(vk.AllocateDescriptorSets(d.Device.VKDevice, &descriptorSetAllocateInfo, &sets[0]), "vkAllocateDescriptorSets")
	if err != nil {
		return nil, err
	}
	return sets, nil
}

func (d *DescriptorPool) Reset() error {
	return vkErr(vk.ResetDescriptorPool(d.Device.VKDevice, d.VKDescriptorPool, 0), "vkResetDescriptorPool")
}

func (d *DescriptorPool) Destroy() {
	vk.DestroyDescriptorPool(d.Device.VKDevice, d.VKDescriptorPool, nil)
}
