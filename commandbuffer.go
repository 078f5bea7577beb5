package vkrender

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// CommandBuffers describe a sequence of commands that will be executed
// upon being sent to a device queue. Not all available vulkan commands
// are wrapped by this package. It is expected that the calling application
// must call the native vulkan command APIs.
type CommandBuffer struct {
	VKCommandBuffer vk.CommandBuffer
}

// Reset this command buffer
func (c *CommandBuffer) Reset() error {
	return vkErr(vk.ResetCommandBuffer(c.VKCommandBuffer, 0), "vkResetCommandBuffer")
}

// VK is a utility function for accessing the native vulkan command buffer
func (c *CommandBuffer) VK() vk.CommandBuffer {
	return c.VKCommandBuffer
}

// Begin capturing work for this command buffer
func (c *CommandBuffer) Begin() error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}
	return vkErr(vk.BeginCommandBuffer(c.VKCommandBuffer, &beginInfo), "vkBeginCommandBuffer")
}

// BeginOneTime begins capturing work for this command buffer, with the stipulation that it will only be used once (instead of put back in the pool of command buffers)
func (c *CommandBuffer) BeginOneTime() error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	return vkErr(vk.BeginCommandBuffer(c.VKCommandBuffer, &beginInfo), "vkBeginCommandBuffer")
}

// End describing work for this command buffer
func (c *CommandBuffer) End() error {
	return vkErr(vk.EndCommandBuffer(c.VKCommandBuffer), "vkEndCommandBuffer")
}

// CmdBeginRenderPass starts rp on fb covering the whole framebuffer.
func (c *CommandBuffer) CmdBeginRenderPass(rp *RenderPass, fb *Framebuffer, clear []vk.ClearValue) {
	info := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.VKRenderPass,
		Framebuffer: fb.VKFramebuffer,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: fb.Extent,
		},
		ClearValueCount: uint32(len(clear)),
		PClearValues:    clear,
	}
	vk.CmdBeginRenderPass(c.VKCommandBuffer, &info, vk.SubpassContentsInline)
}

func (c *CommandBuffer) CmdEndRenderPass() {
	vk.CmdEndRenderPass(c.VKCommandBuffer)
}

func (c *CommandBuffer) CmdBindPipeline(p *Pipeline) {
	vk.CmdBindPipeline(c.VKCommandBuffer, vk.PipelineBindPointGraphics, p.VKPipeline)
}

// CmdBindDescriptorSet binds the set for one frame slot at firstSet,
// with dynamicOffsets for its dynamic uniform bindings.
func (c *CommandBuffer) CmdBindDescriptorSet(layout *PipelineLayout, firstSet int, ds *DescriptorSet, slot int, dynamicOffsets ...uint32) {
	sets := []vk.DescriptorSet{ds.Set(slot)}
	vk.CmdBindDescriptorSets(c.VKCommandBuffer, vk.PipelineBindPointGraphics,
		layout.VKPipelineLayout, uint32(firstSet), 1, sets, uint32(len(dynamicOffsets)), dynamicOffsets)
}

// CmdPushConstants pushes size bytes at data for the given stages.
func (c *CommandBuffer) CmdPushConstants(layout *PipelineLayout, stages vk.ShaderStageFlags, offset uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	vk.CmdPushConstants(c.VKCommandBuffer, layout.VKPipelineLayout, stages, offset, uint32(len(data)), unsafe.Pointer(&data[0]))
}

func (c *CommandBuffer) CmdDraw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(c.VKCommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance)
}

// CmdDrawIndexed binds the vertex and index buffers of info and draws them.
func (c *CommandBuffer) CmdDrawIndexed(info IndexInfo) {
	vk.CmdBindVertexBuffers(c.VKCommandBuffer, 0, 1, []vk.Buffer{info.VertexBuffer}, []vk.DeviceSize{info.VertexOffset})
	vk.CmdBindIndexBuffer(c.VKCommandBuffer, info.IndexBuffer, info.IndexOffset, info.IndexType)
	vk.CmdDrawIndexed(c.VKCommandBuffer, info.IndexCount, 1, 0, 0, 0)
}

// CopyBuffer records a copy of size bytes from the start of src to the start of dst.
func (c *CommandBuffer) CopyBuffer(src, dst *Buffer, size uint64) {
	c.CopyBufferRegion(src, dst, 0, 0, size)
}

func (c *CommandBuffer) CopyBufferRegion(src, dst *Buffer, srcOffset, dstOffset, size uint64) {
	vk.CmdCopyBuffer(c.VKCommandBuffer, src.VKBuffer, dst.VKBuffer, 1, []vk.BufferCopy{{
		SrcOffset: vk.DeviceSize(srcOffset),
		DstOffset: vk.DeviceSize(dstOffset),
		Size:      vk.DeviceSize(size),
	}})
}

// CopyBufferToImage copies tightly packed pixels from src into mip 0 of dst,
// which must be in TransferDstOptimal.
func (c *CommandBuffer) CopyBufferToImage(src *Buffer, dst *Image) {
	region := vk.BufferImageCopy{
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LayerCount: 1,
		},
		ImageExtent: vk.Extent3D{Width: dst.Extent.Width, Height: dst.Extent.Height, Depth: 1},
	}
	vk.CmdCopyBufferToImage(c.VKCommandBuffer, src.VKBuffer, dst.VKImage,
		vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{region})
}

// ImageBarrier records a single image memory barrier.
func (c *CommandBuffer) ImageBarrier(src, dst vk.PipelineStageFlags, barrier vk.ImageMemoryBarrier) {
	vk.CmdPipelineBarrier(c.VKCommandBuffer, src, dst, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}
