package vkrender

import (
	vk "github.com/vulkan-go/vulkan"
)

type Fence struct {
	Device  *Device
	VKFence vk.Fence
}

// CreateFence creates a fence, optionally already signalled so the first
// wait on it returns immediately.
func (d *Device) CreateFence(signaled bool) (*Fence, error) {
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if err := vkErr(vk.CreateFence(d.VKDevice, &fenceCreateInfo, nil, &fence), "vkCreateFence"); err != nil {
		return nil, err
	}
	return &Fence{Device: d, VKFence: fence}, nil
}

// Wait blocks until the fence is signalled or timeout nanoseconds pass.
func (f *Fence) Wait(timeout uint64) error {
	res := vk.WaitForFences(f.Device.VKDevice, 1, []vk.Fence{f.VKFence}, vk.True, timeout)
	return vkErr(res, "vkWaitForFences")
}

func (f *Fence) Reset() error {
	return vkErr(vk.ResetFences(f.Device.VKDevice, 1, []vk.Fence{f.VKFence}), "vkResetFences")
}

func (f *Fence) Destroy() {
	vk.DestroyFence(f.Device.VKDevice, f.VKFence, nil)
}
