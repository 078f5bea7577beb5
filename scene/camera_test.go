package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestCameraViewMovesWorldToEye(t *testing.T) {
	c := NewCamera()
	c.Position = mgl32.Vec3{1, 2, 3}
	eye := c.View().Mul4x1(c.Position.Vec4(1))
	if !eye.ApproxEqualThreshold(mgl32.Vec4{0, 0, 0, 1}, 1e-5) {
		t.Errorf("eye in view space = %v", eye)
	}

	c.Position = mgl32.Vec3{}
	c.Yaw = 90
	// a quarter turn of yaw brings +x in front of the camera
	got := c.View().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	if !got.ApproxEqualThreshold(mgl32.Vec4{0, 0, -1, 1}, 1e-5) {
		t.Errorf("point on +x = %v", got)
	}
}

func TestCameraPitchClamp(t *testing.T) {
	c := NewCamera()
	c.Rotate(0, 10000)
	if c.Pitch != 89 {
		t.Errorf("pitch = %v, want 89", c.Pitch)
	}
	c.Rotate(0, -100000)
	if c.Pitch != -89 {
		t.Errorf("pitch = %v, want -89", c.Pitch)
	}
}

func TestCameraProjectionFlipsY(t *testing.T) {
	c := NewCamera()
	gl := mgl32.Perspective(mgl32.DegToRad(c.FovY), 1.5, c.Near, c.Far)
	p := c.Projection(1.5)
	if p[5] != -gl[5] || p[0] != gl[0] {
		t.Errorf("projection = %v", p)
	}
}
