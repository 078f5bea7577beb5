package vkrender

import (
	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// DefaultDynamicStride is the block size of a dynamic uniform binding when
// the device does not require a larger alignment.
const DefaultDynamicStride = 256

// UniformSource supplies the buffer range a descriptor set for a given frame
// slot binds.
type UniformSource interface {
	Slots() int
	SlotInfo(slot int) vk.DescriptorBufferInfo
}

// UniformBuffer keeps one persistently mapped, host coherent buffer per
// frame slot, so writing the next frame never touches a buffer the GPU may
// still read.
type UniformBuffer struct {
	Size    uint64
	Buffers []*Buffer
}

// CreateUniformBuffer creates slots buffers of size bytes each.
func (d *Device) CreateUniformBuffer(size uint64, slots int) (*UniformBuffer, error) {
	u := &UniformBuffer{Size: size}
	for i := 0; i < slots; i++ {
		b, err := d.CreateBuffer(vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), hostCoherent, size)
		if err != nil {
			u.Destroy()
			return nil, err
		}
		u.Buffers = append(u.Buffers, b)
		if err := b.MapAll(); err != nil {
			u.Destroy()
			return nil, err
		}
	}
	return u, nil
}

func (u *UniformBuffer) Slots() int {
	return len(u.Buffers)
}

func (u *UniformBuffer) SlotInfo(slot int) vk.DescriptorBufferInfo {
	return u.Buffers[slot].DescriptorInfo(0, u.Size)
}

// Write copies data to the start of the slot's buffer.
func (u *UniformBuffer) Write(slot int, data []byte) error {
	return u.Buffers[slot].CopyData(data, 0)
}

func (u *UniformBuffer) Destroy() {
	for _, b := range u.Buffers {
		b.Destroy()
	}
	u.Buffers = nil
}

// DynamicUniformBuffer carves per-object blocks out of one region per frame
// slot. All regions live in a single mapped buffer; a block is addressed by
// the dynamic offset passed when the descriptor set is bound.
type DynamicUniformBuffer struct {
	Buffer     *Buffer
	Stride     uint64
	RegionSize uint64

	slots     int
	allocator LinearAllocator
}

// CreateDynamicUniformBuffer creates a buffer with slots regions of at
// least regionSize bytes, handed out in blocks of blockSize rounded up to
// the device's uniform offset alignment.
func (d *Device) CreateDynamicUniformBuffer(blockSize, regionSize uint64, slots int) (*DynamicUniformBuffer, error) {
	stride, region := dynamicLayout(blockSize, regionSize, d.PhysicalDevice.MinUniformBufferOffsetAlignment())
	b, err := d.CreateBuffer(vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit), hostCoherent, region*uint64(slots))
	if err != nil {
		return nil, err
	}
	if err := b.MapAll(); err != nil {
		b.Destroy()
		return nil, err
	}
	return newDynamicUniformBuffer(b, stride, region, slots), nil
}

func newDynamicUniformBuffer(b *Buffer, stride, region uint64, slots int) *DynamicUniformBuffer {
	return &DynamicUniformBuffer{
		Buffer:     b,
		Stride:     stride,
		RegionSize: region,
		slots:      slots,
		allocator:  LinearAllocator{Size: region},
	}
}

// dynamicLayout rounds blockSize up to the offset alignment, and regionSize
// up to a whole number of blocks.
func dynamicLayout(blockSize, regionSize, minAlign uint64) (stride, region uint64) {
	if blockSize == 0 {
		blockSize = DefaultDynamicStride
	}
	stride = makeAlignUp(blockSize, minAlign)
	if regionSize < stride {
		regionSize = stride
	}
	return stride, makeAlignUp(regionSize, stride)
}

func (u *DynamicUniformBuffer) Slots() int {
	return u.slots
}

// SlotInfo covers one block. Every slot binds the start of the buffer and
// selects its region and block through the dynamic offset.
func (u *DynamicUniformBuffer) SlotInfo(slot int) vk.DescriptorBufferInfo {
	return u.Buffer.DescriptorInfo(0, u.Stride)
}

// Allocate reserves a block of at least size bytes in every slot's region.
func (u *DynamicUniformBuffer) Allocate(size uint64) (*Allocation, error) {
	if size > u.Stride {
		return nil, errors.Wrapf(ErrCopyOverflow, "%d byte block exceeds stride %d", size, u.Stride)
	}
	a := u.allocator.Allocate(u.Stride, u.Stride)
	if a == nil {
		return nil, errors.Newf("dynamic uniform region of %d bytes is full", u.RegionSize)
	}
	return a, nil
}

func (u *DynamicUniformBuffer) Free(a *Allocation) {
	u.allocator.Free(a)
}

// Offset is the dynamic offset selecting a in the slot's region.
func (u *DynamicUniformBuffer) Offset(slot int, a *Allocation) uint32 {
	return uint32(uint64(slot)*u.RegionSize + a.Offset)
}

// Write copies data into the block a of the slot's region.
func (u *DynamicUniformBuffer) Write(slot int, a *Allocation, data []byte) error {
	if uint64(len(data)) > a.Size {
		return errors.Wrapf(ErrCopyOverflow, "%d bytes into %d byte block", len(data), a.Size)
	}
	return u.Buffer.CopyData(data, uint64(u.Offset(slot, a)))
}

func (u *DynamicUniformBuffer) Destroy() {
	u.Buffer.Destroy()
}

// SceneUniforms is the per-frame block the camera and light write before
// recording.
type SceneUniforms struct {
	ProjView      mgl32.Mat4
	ViewPosition  mgl32.Vec4
	LightPosition mgl32.Vec4
	LightColor    mgl32.Vec4
}

func (s *SceneUniforms) Bytes() []byte {
	return structBytes(s)
}

// PushConstants carries the model matrix of one draw.
type PushConstants struct {
	Model mgl32.Mat4
}

func (p *PushConstants) Bytes() []byte {
	return structBytes(p)
}

// IndexedPushConstants adds an index into a sampler array.
type IndexedPushConstants struct {
	Model mgl32.Mat4
	Index int32
}

func (p *IndexedPushConstants) Bytes() []byte {
	return structBytes(p)
}
