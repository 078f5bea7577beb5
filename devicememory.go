package vkrender

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DeviceMemory maps to Vulkan DeviceMemory and can either be memory on the host or on the device
type DeviceMemory struct {
	Device         *Device
	VKDeviceMemory vk.DeviceMemory
	Size           uint64
	Properties     vk.MemoryPropertyFlags

	// Ptr is the current CPU mapping, nil when unmapped.
	Ptr unsafe.Pointer
}

// IsMapped returns true if the device memory is currently mapped
func (d *DeviceMemory) IsMapped() bool {
	return d.Ptr != nil
}

// IsCoherent reports whether host writes are visible without a flush.
func (d *DeviceMemory) IsCoherent() bool {
	return d.Properties&vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit) != 0
}

// Map maps size bytes starting at offset. Memory can only be mapped once at a time.
func (d *DeviceMemory) Map(size, offset uint64) (unsafe.Pointer, error) {
	if d.Ptr != nil {
		return nil, errors.New("memory is already mapped")
	}
	if offset+size > d.Size {
		return nil, errors.Wrapf(ErrCopyOverflow, "mapping %d bytes at %d of %d", size, offset, d.Size)
	}
	// Non-coherent memory is mapped out to whole atoms so that any flush
	// of the requested range stays inside the mapping.
	start, length := offset, size
	if !d.IsCoherent() {
		start, length = atomRange(offset, size, d.Size, d.atomSize())
	}
	var res unsafe.Pointer
	err := vkErr(vk.MapMemory(d.Device.VKDevice, d.VKDeviceMemory, vk.DeviceSize(start), vk.DeviceSize(length), 0, &res), "vkMapMemory")
	if err != nil {
		return nil, err
	}
	d.Ptr = unsafe.Add(res, offset-start)
	return d.Ptr, nil
}

// Unmap this memory. Unmapping unmapped memory does nothing.
func (d *DeviceMemory) Unmap() {
	if d.Ptr == nil {
		return
	}
	vk.UnmapMemory(d.Device.VKDevice, d.VKDeviceMemory)
	d.Ptr = nil
}

// Flush makes host writes in [offset, offset+size) visible to the device.
// Coherent memory needs no flush. The flushed range is widened to whole
// nonCoherentAtomSize atoms.
func (d *DeviceMemory) Flush(size, offset uint64) error {
	if d.IsCoherent() {
		return nil
	}
	start, length := atomRange(offset, size, d.Size, d.atomSize())
	r := vk.MappedMemoryRange{
		SType:  vk.StructureTypeMappedMemoryRange,
		Memory: d.VKDeviceMemory,
		Offset: vk.DeviceSize(start),
		Size:   vk.DeviceSize(length),
	}
	return vkErr(vk.FlushMappedMemoryRanges(d.Device.VKDevice, 1, []vk.MappedMemoryRange{r}), "vkFlushMappedMemoryRanges")
}

func (d *DeviceMemory) atomSize() uint64 {
	if d.Device == nil || d.Device.PhysicalDevice == nil {
		return 1
	}
	return uint64(d.Device.PhysicalDevice.Limits.NonCoherentAtomSize)
}

// atomRange widens [offset, offset+size) to atom boundaries, starting at
// the atom containing offset and ending at the next atom boundary or at
// limit, whichever comes first.
func atomRange(offset, size, limit, atom uint64) (uint64, uint64) {
	if atom <= 1 {
		return offset, size
	}
	start := offset - offset%atom
	end := offset + size
	if rem := end % atom; rem != 0 {
		end += atom - rem
	}
	if end > limit {
		end = limit
	}
	return start, end - start
}

// Destroy frees this memory, unmapping it first if needed.
func (d *DeviceMemory) Destroy() {
	d.Unmap()
	vk.FreeMemory(d.Device.VKDevice, d.VKDeviceMemory, nil)
}
