package vkrender

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Buffer are used to map hunks of data that are then bound to resources used by the pipeline
// and command buffers to render data. A Buffer owns its memory.
type Buffer struct {
	Device   *Device
	VKBuffer vk.Buffer
	Size     uint64
	Usage    vk.BufferUsageFlags
	Memory   *DeviceMemory

	mappedOffset uint64
	mappedSize   uint64
}

var hostCoherent = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
var deviceLocal = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)

// CreateBuffer creates a buffer of size bytes and binds it to freshly
// allocated memory with the requested properties.
func (d *Device) CreateBuffer(usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags, size uint64) (*Buffer, error) {
	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}

	var buffer vk.Buffer
	if err := vkErr(vk.CreateBuffer(d.VKDevice, &bufferCreateInfo, nil, &buffer), "vkCreateBuffer"); err != nil {
		return nil, err
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.VKDevice, buffer, &req)
	req.Deref()

	memory, err := d.Allocate(uint64(req.Size), req.MemoryTypeBits, properties)
	if err != nil {
		vk.DestroyBuffer(d.VKDevice, buffer, nil)
		return nil, errors.Wrapf(err, "allocating %d byte buffer", size)
	}
	if err := vkErr(vk.BindBufferMemory(d.VKDevice, buffer, memory.VKDeviceMemory, 0), "vkBindBufferMemory"); err != nil {
		memory.Destroy()
		vk.DestroyBuffer(d.VKDevice, buffer, nil)
		return nil, err
	}

	return &Buffer{
		Device:   d,
		VKBuffer: buffer,
		Size:     size,
		Usage:    usage,
		Memory:   memory,
	}, nil
}

// CreateStagedBuffer uploads data into a device-local buffer through a
// transient host-visible staging buffer.
func (d *Device) CreateStagedBuffer(usage vk.BufferUsageFlags, data []byte) (*Buffer, error) {
	size := uint64(len(data))
	staging, err := d.CreateBuffer(vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), hostCoherent, size)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	if err := staging.MapCopy(data); err != nil {
		return nil, err
	}

	buffer, err := d.CreateBuffer(usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit), deviceLocal, size)
	if err != nil {
		return nil, err
	}
	err = d.SubmitOneShot(func(cmd *CommandBuffer) error {
		cmd.CopyBuffer(staging, buffer, size)
		return nil
	})
	if err != nil {
		buffer.Destroy()
		return nil, err
	}
	return buffer, nil
}

// Map maps size bytes at offset for CPU access.
func (b *Buffer) Map(size, offset uint64) error {
	if _, err := b.Memory.Map(size, offset); err != nil {
		return err
	}
	b.mappedOffset, b.mappedSize = offset, size
	return nil
}

// MapAll maps the whole buffer.
func (b *Buffer) MapAll() error {
	return b.Map(b.Size, 0)
}

func (b *Buffer) IsMapped() bool {
	return b.Memory != nil && b.Memory.IsMapped()
}

func (b *Buffer) Unmap() {
	b.Memory.Unmap()
	b.mappedOffset, b.mappedSize = 0, 0
}

// CopyData copies data to offset bytes into the mapped range.
func (b *Buffer) CopyData(data []byte, offset uint64) error {
	if !b.IsMapped() {
		return ErrNotMapped
	}
	if offset+uint64(len(data)) > b.mappedSize {
		return errors.Wrapf(ErrCopyOverflow, "%d bytes at offset %d into %d mapped bytes", len(data), offset, b.mappedSize)
	}
	dst := ToBytes(b.Memory.Ptr, int(b.mappedSize))
	copy(dst[offset:], data)
	return nil
}

// Flush makes the mapped range visible to the device.
func (b *Buffer) Flush() error {
	if !b.IsMapped() {
		return ErrNotMapped
	}
	return b.Memory.Flush(b.mappedSize, b.mappedOffset)
}

// MapCopy maps the buffer, copies data to its start, flushes and unmaps.
func (b *Buffer) MapCopy(data []byte) error {
	if uint64(len(data)) > b.Size {
		return errors.Wrapf(ErrCopyOverflow, "%d bytes into %d byte buffer", len(data), b.Size)
	}
	if err := b.Map(uint64(len(data)), 0); err != nil {
		return err
	}
	defer b.Unmap()
	if err := b.CopyData(data, 0); err != nil {
		return err
	}
	return b.Flush()
}

// DescriptorInfo describes rng bytes at offset for a descriptor write.
func (b *Buffer) DescriptorInfo(offset, rng uint64) vk.DescriptorBufferInfo {
	return vk.DescriptorBufferInfo{
		Buffer: b.VKBuffer,
		Offset: vk.DeviceSize(offset),
		Range:  vk.DeviceSize(rng),
	}
}

// Destroy releases the buffer and its memory, unmapping first if needed.
func (b *Buffer) Destroy() {
	vk.DestroyBuffer(b.Device.VKDevice, b.VKBuffer, nil)
	if b.Memory != nil {
		b.Memory.Destroy()
	}
}
