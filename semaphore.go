package vkrender

import (
	vk "github.com/vulkan-go/vulkan"
)

// VKCreateSemaphore creates a native vulkan semaphore object
func (d *Device) VKCreateSemaphore() (vk.Semaphore, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var sema vk.Semaphore
	err := vkErr(vk.CreateSemaphore(d.VKDevice, &semaphoreCreateInfo, nil, &sema), "vkCreateSemaphore")
	return sema, err
}

func (d *Device) VKDestroySemaphore(s vk.Semaphore) {
	vk.DestroySemaphore(d.VKDevice, s, nil)
}

// FrameSlot is one of the N rotating sets of command buffer and
// synchronization primitives. ImageAvailable is signalled by acquire,
// RenderFinished by the submit and waited on by present, InFlight by the
// GPU when the slot's submission retires.
type FrameSlot struct {
	Index          int
	CommandBuffer  *CommandBuffer
	ImageAvailable vk.Semaphore
	RenderFinished vk.Semaphore
	InFlight       *Fence
}

// CreateFrameSlots creates n slots. Fences start signalled so the first
// frame on every slot does not block.
func (d *Device) CreateFrameSlots(n int) ([]*FrameSlot, error) {
	cmds, err := d.CommandPool.AllocateBuffers(n)
	if err != nil {
		return nil, err
	}
	slots := make([]*FrameSlot, 0, n)
	fail := func(err error) ([]*FrameSlot, error) {
		for _, s := range slots {
			s.Destroy(d)
		}
		d.CommandPool.FreeBuffers(cmds)
		return nil, err
	}
	for i := 0; i < n; i++ {
		s := &FrameSlot{Index: i, CommandBuffer: cmds[i]}
		if s.ImageAvailable, err = d.VKCreateSemaphore(); err != nil {
			return fail(err)
		}
		if s.RenderFinished, err = d.VKCreateSemaphore(); err != nil {
			d.VKDestroySemaphore(s.ImageAvailable)
			return fail(err)
		}
		if s.InFlight, err = d.CreateFence(true); err != nil {
			d.VKDestroySemaphore(s.ImageAvailable)
			d.VKDestroySemaphore(s.RenderFinished)
			return fail(err)
		}
		slots = append(slots, s)
	}
	return slots, nil
}

// Destroy releases the slot's synchronization objects. The command buffer
// goes back with its pool.
func (s *FrameSlot) Destroy(d *Device) {
	d.VKDestroySemaphore(s.ImageAvailable)
	d.VKDestroySemaphore(s.RenderFinished)
	s.InFlight.Destroy()
}
