package vkrender

import (
	"fmt"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Device owns the logical device, its queues and the command pool every
// other object records from. It is created first and destroyed last.
type Device struct {
	PhysicalDevice *PhysicalDevice
	VKDevice       vk.Device
	Families       QueueFamilyIndices
	GraphicsQueue  *Queue
	PresentQueue   *Queue
	CommandPool    *CommandPool

	// Samples is the MSAA sample count attachments should use.
	Samples vk.SampleCountFlagBits
}

// CreateDevice creates the logical device with one queue per distinct
// family, swapchain support and sampler anisotropy enabled.
func CreateDevice(p *PhysicalDevice, qf QueueFamilyIndices, maxSamples vk.SampleCountFlagBits, layers []string) (*Device, error) {
	if !qf.Complete() {
		return nil, errors.New("device is missing a graphics or present queue family")
	}

	families := qf.Unique()
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(families))
	for i, family := range families {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	extensions := safeStrings(append([]string(nil), deviceExtensions...))
	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{SamplerAnisotropy: vk.True}},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}
	if len(layers) > 0 {
		l := safeStrings(append([]string(nil), layers...))
		deviceCreateInfo.EnabledLayerCount = uint32(len(l))
		deviceCreateInfo.PpEnabledLayerNames = l
	}

	var ldevice vk.Device
	if err := vkErr(vk.CreateDevice(p.VKPhysicalDevice, &deviceCreateInfo, nil, &ldevice), "vkCreateDevice"); err != nil {
		return nil, err
	}

	d := &Device{
		PhysicalDevice: p,
		VKDevice:       ldevice,
		Families:       qf,
		Samples:        p.MaxUsableSampleCount(maxSamples),
	}
	d.GraphicsQueue = d.GetQueue(qf.Graphics)
	d.PresentQueue = d.GetQueue(qf.Present)

	pool, err := d.CreateCommandPool(qf.Graphics)
	if err != nil {
		vk.DestroyDevice(ldevice, nil)
		return nil, err
	}
	d.CommandPool = pool
	return d, nil
}

func (d *Device) Destroy() {
	if d.CommandPool != nil {
		d.CommandPool.Destroy()
	}
	vk.DestroyDevice(d.VKDevice, nil)
}

func (d *Device) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s Samples: %d }", d.PhysicalDevice, d.Samples)
}

func (d *Device) WaitIdle() error {
	return vkErr(vk.DeviceWaitIdle(d.VKDevice), "vkDeviceWaitIdle")
}

func (d *Device) GetQueue(family int) *Queue {
	var vkq vk.Queue
	vk.GetDeviceQueue(d.VKDevice, uint32(family), 0, &vkq)
	return &Queue{Device: d, Family: family, VKQueue: vkq}
}

// Allocate allocates device memory from the first type matching
// memoryTypeBits and memoryProperties.
func (d *Device) Allocate(size uint64, memoryTypeBits uint32, memoryProperties vk.MemoryPropertyFlags) (*DeviceMemory, error) {
	typeIndex, err := d.PhysicalDevice.FindMemoryType(memoryTypeBits, memoryProperties)
	if err != nil {
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: typeIndex,
	}

	var deviceMemory vk.DeviceMemory
	if err := vkErr(vk.AllocateMemory(d.VKDevice, &allocateInfo, nil, &deviceMemory), "vkAllocateMemory"); err != nil {
		return nil, err
	}

	return &DeviceMemory{
		Device:         d,
		VKDeviceMemory: deviceMemory,
		Size:           size,
		Properties:     memoryProperties,
	}, nil
}

// SubmitOneShot records a transient command buffer with record, submits it on
// the graphics queue and blocks until the queue is idle.
func (d *Device) SubmitOneShot(record func(cmd *CommandBuffer) error) error {
	cmd, err := d.CommandPool.AllocateBuffer()
	if err != nil {
		return err
	}
	defer d.CommandPool.FreeBuffer(cmd)

	if err := cmd.BeginOneTime(); err != nil {
		return err
	}
	if err := record(cmd); err != nil {
		return err
	}
	if err := cmd.End(); err != nil {
		return err
	}
	return d.GraphicsQueue.SubmitWaitIdle(cmd)
}
