package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a free-look camera. Angles are in degrees.
type Camera struct {
	Position mgl32.Vec3
	Yaw      float32
	Pitch    float32
	Roll     float32

	FovY        float32
	Near, Far   float32
	Sensitivity float32
}

func NewCamera() *Camera {
	return &Camera{
		Position:    mgl32.Vec3{-0.8714, 1.431, -0.4454},
		FovY:        45,
		Near:        0.1,
		Far:         10,
		Sensitivity: 0.05,
	}
}

// View rotates by pitch then yaw after translating the world by -Position.
func (c *Camera) View() mgl32.Mat4 {
	pitch := mgl32.QuatRotate(mgl32.DegToRad(c.Pitch), mgl32.Vec3{-1, 0, 0})
	yaw := mgl32.QuatRotate(mgl32.DegToRad(c.Yaw), mgl32.Vec3{0, 1, 0})
	rotate := pitch.Mul(yaw).Normalize().Mat4()
	return rotate.Mul4(mgl32.Translate3D(-c.Position.X(), -c.Position.Y(), -c.Position.Z()))
}

// Rotate turns the camera by mouse deltas scaled by Sensitivity. Pitch
// stays within 89 degrees of level.
func (c *Camera) Rotate(dYaw, dPitch float32) {
	c.Yaw += c.Sensitivity * dYaw
	c.Pitch += c.Sensitivity * dPitch
	if c.Pitch > 89 {
		c.Pitch = 89
	} else if c.Pitch < -89 {
		c.Pitch = -89
	}
}

// Projection is a perspective projection with Y flipped for Vulkan's clip
// space.
func (c *Camera) Projection(aspect float32) mgl32.Mat4 {
	p := mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
	p[5] *= -1
	return p
}

// Transform is the camera's pose, for animating it through an Arena.
func (c *Camera) Transform() Transform {
	return Transform{Pos: c.Position, Pitch: c.Pitch, Yaw: c.Yaw, Roll: c.Roll, Scale: mgl32.Vec3{1, 1, 1}}
}

func (c *Camera) SetTransform(t Transform) {
	c.Position = t.Pos
	c.Pitch, c.Yaw, c.Roll = t.Pitch, t.Yaw, t.Roll
}
