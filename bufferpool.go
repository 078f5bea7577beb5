package vkrender

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/docker/go-units"
	vk "github.com/vulkan-go/vulkan"
)

// meshAlignment keeps vertex and index ranges aligned for any index type
// and vertex attribute format.
const meshAlignment = 16

// BufferPool sub-allocates ranges of one device local buffer. Vulkan limits
// the number of memory allocations an application may hold, so many small
// resources should share one.
type BufferPool struct {
	Device    *Device
	Name      string
	Buffer    *Buffer
	Allocator Allocator
}

// BufferRegion is a range of a BufferPool.
type BufferRegion struct {
	Pool       *BufferPool
	Allocation *Allocation
}

// CreateBufferPool creates a device local pool of size bytes. Transfer
// destination usage is added so it can be staged into.
func (d *Device) CreateBufferPool(name string, usage vk.BufferUsageFlags, size uint64) (*BufferPool, error) {
	b, err := d.CreateBuffer(usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit), deviceLocal, size)
	if err != nil {
		return nil, errors.Wrapf(err, "creating buffer pool %s", name)
	}
	return newBufferPool(d, name, b), nil
}

func newBufferPool(d *Device, name string, b *Buffer) *BufferPool {
	return &BufferPool{
		Device:    d,
		Name:      name,
		Buffer:    b,
		Allocator: &LinearAllocator{Size: b.Size},
	}
}

// Allocate reserves size bytes aligned to align.
func (p *BufferPool) Allocate(size, align uint64) (*BufferRegion, error) {
	a := p.Allocator.Allocate(size, align)
	if a == nil {
		return nil, errors.Wrapf(ErrPoolExhausted, "pool %s: %d bytes", p.Name, size)
	}
	return &BufferRegion{Pool: p, Allocation: a}, nil
}

// Upload allocates a region for data and copies data into it through a
// transient staging buffer.
func (p *BufferPool) Upload(data []byte, align uint64) (*BufferRegion, error) {
	r, err := p.Allocate(uint64(len(data)), align)
	if err != nil {
		return nil, err
	}
	staging, err := p.Device.CreateBuffer(vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), hostCoherent, uint64(len(data)))
	if err != nil {
		r.Free()
		return nil, err
	}
	defer staging.Destroy()
	if err := staging.MapCopy(data); err != nil {
		r.Free()
		return nil, err
	}
	err = p.Device.SubmitOneShot(func(cmd *CommandBuffer) error {
		cmd.CopyBufferRegion(staging, p.Buffer, 0, r.Offset(), r.Size())
		return nil
	})
	if err != nil {
		r.Free()
		return nil, err
	}
	return r, nil
}

// UploadMesh stages vertices and indices into two regions of the pool. The
// pool needs vertex and index buffer usage.
func (p *BufferPool) UploadMesh(vertices []Vertex, indices []uint32) (*Mesh, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, errors.New("mesh needs at least one vertex and one index")
	}
	vr, err := p.Upload(sliceBytes(vertices), meshAlignment)
	if err != nil {
		return nil, errors.Wrap(err, "uploading vertices")
	}
	ir, err := p.Upload(sliceBytes(indices), meshAlignment)
	if err != nil {
		vr.Free()
		return nil, errors.Wrap(err, "uploading indices")
	}
	return &Mesh{
		Vertices:     p.Buffer,
		Indices:      p.Buffer,
		VertexOffset: vr.Offset(),
		IndexOffset:  ir.Offset(),
		IndexCount:   uint32(len(indices)),
		regions:      []*BufferRegion{vr, ir},
	}, nil
}

// MeshSize is the room a mesh takes in a BufferPool.
func MeshSize(vertices []Vertex, indices []uint32) uint64 {
	v := uint64(len(vertices)) * uint64(Vertex{}.GetBindingDescription().Stride)
	i := uint64(len(indices)) * 4
	return makeAlignUp(v, meshAlignment) + makeAlignUp(i, meshAlignment)
}

func (r *BufferRegion) Offset() uint64 {
	return r.Allocation.Offset
}

func (r *BufferRegion) Size() uint64 {
	return r.Allocation.Size
}

// Free returns the region to its pool. Freeing twice does nothing.
func (r *BufferRegion) Free() {
	if r.Allocation != nil {
		r.Pool.Allocator.Free(r.Allocation)
		r.Allocation = nil
	}
}

func (p *BufferPool) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("name", p.Name),
		slog.String("size", units.BytesSize(float64(p.Buffer.Size))),
	}
	if a, ok := p.Allocator.(*LinearAllocator); ok {
		attrs = append(attrs, slog.String("used", units.BytesSize(float64(a.Used()))))
	}
	return slog.GroupValue(append(attrs, slog.Any("allocations", p.Allocator))...)
}

// Destroy releases the buffer. Regions still allocated become invalid.
func (p *BufferPool) Destroy() {
	if p.Buffer != nil {
		p.Buffer.Destroy()
		p.Buffer = nil
	}
}
