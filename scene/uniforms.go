package scene

import (
	"github.com/celer/vkrender"
)

// Uniforms fills the per-frame scene block from the camera and light.
func Uniforms(c *Camera, l Light, aspect float32) vkrender.SceneUniforms {
	return vkrender.SceneUniforms{
		ProjView:      c.Projection(aspect).Mul4(c.View()),
		ViewPosition:  c.Position.Vec4(1),
		LightPosition: l.Pos.Vec4(1),
		LightColor:    l.Color.Vec4(1),
	}
}
