package vkrender

import (
	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Frame is handed to the recorder once per frame. Its command buffer is
// already begun and is ended by the renderer after the recorder returns.
type Frame struct {
	Renderer      *Renderer
	Slot          int
	ImageIndex    uint32
	CommandBuffer *CommandBuffer
	Extent        vk.Extent2D
}

// RunRenderPass records rp on fb around draw. When rp is the presented
// pass the overlay draws after draw and before the pass ends.
func (f *Frame) RunRenderPass(rp *RenderPass, fb *Framebuffer, draw func(cmd *CommandBuffer) error) error {
	cmd := f.CommandBuffer
	cmd.CmdBeginRenderPass(rp, fb, rp.ClearValues(f.Renderer.Options.ClearColor))
	if draw != nil {
		if err := draw(cmd); err != nil {
			return err
		}
	}
	if o := f.Renderer.overlay; o != nil && rp == f.Renderer.PresentedPass() {
		if err := o.Draw(cmd, f.Slot, fb.Extent); err != nil {
			return errors.Wrap(err, "drawing overlay")
		}
	}
	cmd.CmdEndRenderPass()
	return nil
}

// DrawIndexed binds and draws every mesh in infos.
func (f *Frame) DrawIndexed(infos ...IndexInfo) {
	for _, info := range infos {
		f.CommandBuffer.CmdDrawIndexed(info)
	}
}
