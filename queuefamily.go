package vkrender

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type QueueFamilySlice []*QueueFamily

func (ql QueueFamilySlice) Filter(f func(q *QueueFamily) bool) QueueFamilySlice {
	ret := make(QueueFamilySlice, 0)
	for _, q := range ql {
		if f(q) {
			ret = append(ret, q)
		}
	}
	return ret
}

func (ql QueueFamilySlice) FilterGraphics() QueueFamilySlice {
	return ql.Filter(func(q *QueueFamily) bool {
		return q.IsGraphics()
	})
}

func (ql QueueFamilySlice) FilterPresent(surface vk.Surface) QueueFamilySlice {
	return ql.Filter(func(q *QueueFamily) bool {
		return q.SupportsPresent(surface)
	})
}

// Indices picks the graphics and present families, preferring one family
// that does both.
func (ql QueueFamilySlice) Indices(surface vk.Surface) QueueFamilyIndices {
	present := make([]bool, len(ql))
	graphics := make([]bool, len(ql))
	for i, q := range ql {
		graphics[i] = q.IsGraphics()
		present[i] = q.SupportsPresent(surface)
	}
	return pickQueueFamilies(graphics, present)
}

func pickQueueFamilies(graphics, present []bool) QueueFamilyIndices {
	idx := QueueFamilyIndices{Graphics: -1, Present: -1}
	for i := range graphics {
		if graphics[i] && present[i] {
			return QueueFamilyIndices{Graphics: i, Present: i}
		}
		if graphics[i] && idx.Graphics < 0 {
			idx.Graphics = i
		}
		if present[i] && idx.Present < 0 {
			idx.Present = i
		}
	}
	return idx
}

// QueueFamilyIndices are the queue families the renderer submits and presents on.
type QueueFamilyIndices struct {
	Graphics int
	Present  int
}

func (q QueueFamilyIndices) Complete() bool {
	return q.Graphics >= 0 && q.Present >= 0
}

// Unique returns the distinct family indices, graphics first.
func (q QueueFamilyIndices) Unique() []uint32 {
	if q.Graphics == q.Present {
		return []uint32{uint32(q.Graphics)}
	}
	return []uint32{uint32(q.Graphics), uint32(q.Present)}
}

type QueueFamily struct {
	Index                   int
	PhysicalDevice          *PhysicalDevice
	VKQueueFamilyProperties vk.QueueFamilyProperties
}

func (q *QueueFamily) IsGraphics() bool {
	return q.VKQueueFamilyProperties.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0
}

func (q *QueueFamily) IsTransfer() bool {
	return q.VKQueueFamilyProperties.QueueFlags&vk.QueueFlags(vk.QueueTransferBit) != 0
}

func (q *QueueFamily) SupportsPresent(surface vk.Surface) bool {
	var supportsPresent vk.Bool32
	vk.GetPhysicalDeviceSurfaceSupport(q.PhysicalDevice.VKPhysicalDevice, uint32(q.Index), surface, &supportsPresent)
	return supportsPresent.B()
}

func (q *QueueFamily) String() string {
	return fmt.Sprintf("{ Index: %d Graphics: %v Transfer: %v }", q.Index, q.IsGraphics(), q.IsTransfer())
}
