package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// lightMarkerScale is the size of the cube drawn at the light.
const lightMarkerScale = 0.05

type Light struct {
	Pos   mgl32.Vec3
	Color mgl32.Vec3
}

func DefaultLight() Light {
	return Light{
		Pos:   mgl32.Vec3{2, 2, 0},
		Color: mgl32.Vec3{0.2, 0.3, 0.7},
	}
}

// MarkerMatrix places a small cube at the light.
func (l Light) MarkerMatrix() mgl32.Mat4 {
	return mgl32.Scale3D(lightMarkerScale, lightMarkerScale, lightMarkerScale).
		Mul4(mgl32.Translate3D(l.Pos.X(), l.Pos.Y(), l.Pos.Z()))
}
