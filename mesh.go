package vkrender

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// IndexInfo is what a draw needs from a mesh: its buffers and how many
// indices to read.
type IndexInfo struct {
	VertexBuffer vk.Buffer
	VertexOffset vk.DeviceSize
	IndexBuffer  vk.Buffer
	IndexOffset  vk.DeviceSize
	IndexCount   uint32
	IndexType    vk.IndexType
}

// Mesh holds device local vertex and index data. A mesh uploaded through a
// BufferPool shares the pool's buffer and owns only its two regions.
type Mesh struct {
	Vertices     *Buffer
	Indices      *Buffer
	VertexOffset uint64
	IndexOffset  uint64
	IndexCount   uint32

	regions []*BufferRegion
}

// UploadMesh copies vertices and indices into device local buffers
// through a staging buffer.
func (d *Device) UploadMesh(vertices []Vertex, indices []uint32) (*Mesh, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, errors.New("mesh needs at least one vertex and one index")
	}
	vb, err := d.CreateStagedBuffer(vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit), sliceBytes(vertices))
	if err != nil {
		return nil, errors.Wrap(err, "uploading vertices")
	}
	ib, err := d.CreateStagedBuffer(vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit), sliceBytes(indices))
	if err != nil {
		vb.Destroy()
		return nil, errors.Wrap(err, "uploading indices")
	}
	return &Mesh{Vertices: vb, Indices: ib, IndexCount: uint32(len(indices))}, nil
}

func (m *Mesh) IndexInfo() IndexInfo {
	return IndexInfo{
		VertexBuffer: m.Vertices.VKBuffer,
		VertexOffset: vk.DeviceSize(m.VertexOffset),
		IndexBuffer:  m.Indices.VKBuffer,
		IndexOffset:  vk.DeviceSize(m.IndexOffset),
		IndexCount:   m.IndexCount,
		IndexType:    vk.IndexTypeUint32,
	}
}

func (m *Mesh) Destroy() {
	if m.regions != nil {
		for _, r := range m.regions {
			r.Free()
		}
		m.regions = nil
		return
	}
	m.Indices.Destroy()
	m.Vertices.Destroy()
}

// CubeVertices returns a unit cube centred on the origin with per face
// normals and uvs, wound counter clockwise.
func CubeVertices() ([]Vertex, []uint32) {
	type face struct{ normal, u, v [3]float32 }
	faces := []face{
		{[3]float32{0, 0, 1}, [3]float32{1, 0, 0}, [3]float32{0, 1, 0}},
		{[3]float32{0, 0, -1}, [3]float32{-1, 0, 0}, [3]float32{0, 1, 0}},
		{[3]float32{1, 0, 0}, [3]float32{0, 0, -1}, [3]float32{0, 1, 0}},
		{[3]float32{-1, 0, 0}, [3]float32{0, 0, 1}, [3]float32{0, 1, 0}},
		{[3]float32{0, 1, 0}, [3]float32{1, 0, 0}, [3]float32{0, 0, -1}},
		{[3]float32{0, -1, 0}, [3]float32{1, 0, 0}, [3]float32{0, 0, 1}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	var vertices []Vertex
	var indices []uint32
	for _, f := range faces {
		base := uint32(len(vertices))
		for _, c := range corners {
			var v Vertex
			for k := 0; k < 3; k++ {
				v.Pos[k] = 0.5 * (f.normal[k] + c[0]*f.u[k] + c[1]*f.v[k])
				v.Normal[k] = f.normal[k]
			}
			v.UV[0] = (c[0] + 1) / 2
			v.UV[1] = 1 - (c[1]+1)/2
			vertices = append(vertices, v)
		}
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}
	return vertices, indices
}
