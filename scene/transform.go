// Package scene holds the collaborators that feed the renderer each frame:
// transforms and their animation, the camera and the light.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a position, an orientation in degrees and a scale.
type Transform struct {
	Pos   mgl32.Vec3
	Pitch float32
	Yaw   float32
	Roll  float32
	Scale mgl32.Vec3
}

// Identity is the transform with unit scale at the origin.
func Identity() Transform {
	return Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

func (t Transform) Sub(o Transform) Transform {
	return Transform{
		Pos:   t.Pos.Sub(o.Pos),
		Pitch: t.Pitch - o.Pitch,
		Yaw:   t.Yaw - o.Yaw,
		Roll:  t.Roll - o.Roll,
		Scale: t.Scale.Sub(o.Scale),
	}
}

func (t Transform) Add(o Transform) Transform {
	return Transform{
		Pos:   t.Pos.Add(o.Pos),
		Pitch: t.Pitch + o.Pitch,
		Yaw:   t.Yaw + o.Yaw,
		Roll:  t.Roll + o.Roll,
		Scale: t.Scale.Add(o.Scale),
	}
}

// Mul scales every component by s.
func (t Transform) Mul(s float32) Transform {
	return Transform{
		Pos:   t.Pos.Mul(s),
		Pitch: t.Pitch * s,
		Yaw:   t.Yaw * s,
		Roll:  t.Roll * s,
		Scale: t.Scale.Mul(s),
	}
}

// Matrix is translate * yaw * pitch * roll * scale.
func (t Transform) Matrix() mgl32.Mat4 {
	m := mgl32.Translate3D(t.Pos.X(), t.Pos.Y(), t.Pos.Z())
	m = m.Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(t.Yaw)))
	m = m.Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(t.Pitch)))
	m = m.Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(t.Roll)))
	return m.Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}
