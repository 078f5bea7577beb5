package asset

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/celer/vkrender"
	"github.com/cockroachdb/errors"
	"github.com/g3n/engine/loader/obj"
	"github.com/go-gl/mathgl/mgl32"
)

// vertexKey identifies a unique combination of OBJ position, uv and normal.
type vertexKey struct {
	pos, uv, normal int
}

type modelBuilder struct {
	decoder  *obj.Decoder
	unique   map[vertexKey]uint32
	vertices []vkrender.Vertex
	indices  []uint32
}

func (b *modelBuilder) add(face obj.Face, i int) {
	key := vertexKey{pos: face.Vertices[i], uv: -1, normal: -1}
	if i < len(face.Uvs) {
		key.uv = face.Uvs[i]
	}
	if i < len(face.Normals) {
		key.normal = face.Normals[i]
	}
	if index, ok := b.unique[key]; ok {
		b.indices = append(b.indices, index)
		return
	}

	d := b.decoder
	var v vkrender.Vertex
	if p := key.pos * 3; key.pos >= 0 && p+2 < len(d.Vertices) {
		v.Pos = mgl32.Vec3{d.Vertices[p], d.Vertices[p+1], d.Vertices[p+2]}
	}
	// OBJ puts v=0 at the bottom of the image, Vulkan samples it at the top
	if t := key.uv * 2; key.uv >= 0 && t+1 < len(d.Uvs) {
		v.UV = mgl32.Vec2{d.Uvs[t], 1 - d.Uvs[t+1]}
	}
	if n := key.normal * 3; key.normal >= 0 && n+2 < len(d.Normals) {
		v.Normal = mgl32.Vec3{d.Normals[n], d.Normals[n+1], d.Normals[n+2]}
	}

	index := uint32(len(b.vertices))
	b.vertices = append(b.vertices, v)
	b.unique[key] = index
	b.indices = append(b.indices, index)
}

// LoadModel decodes an OBJ mesh, triangulating each face as a fan and
// sharing vertices with the same position, uv and normal. mtl may be nil.
func LoadModel(objData, mtl io.Reader) ([]vkrender.Vertex, []uint32, error) {
	if mtl == nil {
		mtl = strings.NewReader("")
	}
	decoder, err := obj.DecodeReader(objData, mtl)
	if err != nil {
		return nil, nil, errors.Wrap(err, "decoding obj")
	}

	b := &modelBuilder{decoder: decoder, unique: map[vertexKey]uint32{}}
	for _, o := range decoder.Objects {
		for _, face := range o.Faces {
			for i := 2; i < len(face.Vertices); i++ {
				b.add(face, 0)
				b.add(face, i-1)
				b.add(face, i)
			}
		}
	}
	if len(b.indices) == 0 {
		return nil, nil, errors.New("obj has no faces")
	}
	return b.vertices, b.indices, nil
}

// LoadModelFile loads path, reading the .mtl next to it when one exists.
func LoadModelFile(path string) ([]vkrender.Vertex, []uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening model %s", path)
	}
	defer f.Close()

	var mtl io.Reader
	if m, err := os.Open(strings.TrimSuffix(path, filepath.Ext(path)) + ".mtl"); err == nil {
		defer m.Close()
		mtl = m
	}
	vertices, indices, err := LoadModel(f, mtl)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "loading %s", path)
	}
	return vertices, indices, nil
}
