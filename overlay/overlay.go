// Package overlay draws Dear ImGui windows into the presented render pass.
//
// An Overlay is installed with Renderer.SetOverlay. Every frame it starts a
// new ImGui frame, calls Layout to build the windows, and records the
// resulting draw lists after the scene and before the pass ends. Vertex and
// index data are written to host-visible buffers kept per frame slot, so a
// slot's buffers are only rewritten once its fence has signalled.
package overlay

import (
	"image"
	"log/slog"
	"time"
	"unsafe"

	"github.com/celer/vkrender"
	"github.com/cockroachdb/errors"
	imgui "github.com/inkyblackness/imgui-go"
	"github.com/loov/hrtime"
	vk "github.com/vulkan-go/vulkan"
)

// minBufferSize is the smallest per-slot vertex or index buffer.
const minBufferSize = 64 << 10

var hostCoherent = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)

type slotBuffers struct {
	vertices *vkrender.Buffer
	indices  *vkrender.Buffer
}

func (s *slotBuffers) destroy() {
	if s.vertices != nil {
		s.vertices.Destroy()
		s.vertices = nil
	}
	if s.indices != nil {
		s.indices.Destroy()
		s.indices = nil
	}
}

// Overlay renders an ImGui context with its own pipeline, font texture and
// per-slot geometry buffers.
type Overlay struct {
	// Layout builds the windows of one frame. It runs between
	// imgui.NewFrame and imgui.Render.
	Layout func()

	device      *vkrender.Device
	cache       *vkrender.PipelineCache
	context     *imgui.Context
	io          imgui.IO
	shaders     []*vkrender.ShaderModule
	font        *vkrender.Texture
	descriptors *vkrender.DescriptorSet
	layout      *vkrender.PipelineLayout
	pipeline    *vkrender.Pipeline
	slots       []slotBuffers
	last        time.Duration
	log         *slog.Logger
}

// New creates the ImGui context and the device objects the overlay needs.
// shaders are the vertex and fragment stages and stay owned by the caller.
func New(r *vkrender.Renderer, shaders []*vkrender.ShaderModule, layout func()) (_ *Overlay, err error) {
	o := &Overlay{
		Layout:  layout,
		device:  r.Device,
		cache:   r.PipelineCache,
		context: imgui.CreateContext(nil),
		shaders: shaders,
		slots:   make([]slotBuffers, r.FramesInFlight()),
		log:     r.Options.Logger,
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	defer func() {
		if err != nil {
			o.Destroy()
		}
	}()
	o.io = imgui.CurrentIO()

	if o.font, err = o.createFontTexture(); err != nil {
		return nil, errors.Wrap(err, "creating overlay font texture")
	}
	o.descriptors = o.device.NewDescriptorSet(1)
	if _, err = o.descriptors.AddTexture(o.font); err != nil {
		return nil, err
	}
	if err = o.descriptors.Generate(); err != nil {
		return nil, err
	}
	o.layout, err = o.device.CreatePipelineLayout([]*vkrender.DescriptorSet{o.descriptors}, vk.PushConstantRange{
		StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
		Size:       uint32(unsafe.Sizeof(displayTransform{})),
	})
	if err != nil {
		return nil, err
	}
	o.last = hrtime.Now()
	return o, nil
}

func (o *Overlay) createFontTexture() (*vkrender.Texture, error) {
	data := o.io.Fonts().TextureDataRGBA32()
	pix := vkrender.ToBytes(data.Pixels, data.Width*data.Height*4)
	img := &image.RGBA{
		Pix:    append([]byte(nil), pix...),
		Stride: data.Width * 4,
		Rect:   image.Rect(0, 0, data.Width, data.Height),
	}
	return o.device.CreateTexture(img, vkrender.TextureOptions{Format: vk.FormatR8g8b8a8Unorm})
}

// GetBindingDescription describes one ImGui vertex.
func (o *Overlay) GetBindingDescription() vk.VertexInputBindingDescription {
	size, _, _, _ := imgui.VertexBufferLayout()
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    uint32(size),
		InputRate: vk.VertexInputRateVertex,
	}
}

// GetAttributeDescriptions places position, uv and the packed color at the
// offsets ImGui reports.
func (o *Overlay) GetAttributeDescriptions() []vk.VertexInputAttributeDescription {
	_, pos, uv, col := imgui.VertexBufferLayout()
	return []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: uint32(pos)},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: uint32(uv)},
		{Location: 2, Binding: 0, Format: vk.FormatR8g8b8a8Unorm, Offset: uint32(col)},
	}
}

var alphaBlend = vk.PipelineColorBlendAttachmentState{
	BlendEnable:         vk.True,
	SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
	DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
	ColorBlendOp:        vk.BlendOpAdd,
	SrcAlphaBlendFactor: vk.BlendFactorOne,
	DstAlphaBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
	AlphaBlendOp:        vk.BlendOpAdd,
	ColorWriteMask:      vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
}

// Prepare compiles the overlay pipeline against the presented pass. It is
// called again after every swapchain rebuild.
func (o *Overlay) Prepare(rp *vkrender.RenderPass) error {
	if o.pipeline != nil {
		o.pipeline.Destroy()
		o.pipeline = nil
	}
	config := o.device.CreateGraphicsPipelineConfig(o.layout)
	for _, s := range o.shaders {
		config.AddShaderStage(s)
	}
	config.AddVertexDescription(o)
	config.AddBlendAttachment(alphaBlend)
	config.SetDynamicState(vk.DynamicStateViewport, vk.DynamicStateScissor)
	config.SetCullMode(vk.CullModeNone)
	config.DepthTestEnable = false
	config.DepthWriteEnable = false

	p, err := config.Generate(rp, o.cache)
	if err != nil {
		return errors.Wrap(err, "generating overlay pipeline")
	}
	o.pipeline = p
	return nil
}

// ensure grows the buffer in *b to hold size bytes. The old buffer is only
// destroyed once the slot owning it has finished on the device.
func (o *Overlay) ensure(b **vkrender.Buffer, usage vk.BufferUsageFlagBits, size uint64) error {
	if *b != nil && (*b).Size >= size {
		return nil
	}
	capacity := bufferCapacity(size)
	nb, err := o.device.CreateBuffer(vk.BufferUsageFlags(usage), hostCoherent, capacity)
	if err != nil {
		return err
	}
	if err := nb.MapAll(); err != nil {
		nb.Destroy()
		return err
	}
	if *b != nil {
		(*b).Destroy()
	}
	*b = nb
	o.log.Debug("overlay buffer grown", "usage", usage, "bytes", capacity)
	return nil
}

// bufferCapacity rounds size up to a power of two no smaller than
// minBufferSize.
func bufferCapacity(size uint64) uint64 {
	c := uint64(minBufferSize)
	for c < size {
		c <<= 1
	}
	return c
}

// Draw starts and lays out a new ImGui frame, then records its draw lists
// into cmd using slot's buffers.
func (o *Overlay) Draw(cmd *vkrender.CommandBuffer, slot int, extent vk.Extent2D) error {
	if o.pipeline == nil || extent.Width == 0 || extent.Height == 0 {
		return nil
	}
	if err := o.context.SetCurrent(); err != nil {
		return err
	}
	now := hrtime.Now()
	dt := now - o.last
	o.last = now
	if dt <= 0 {
		dt = time.Millisecond
	}
	o.io.SetDisplaySize(imgui.Vec2{X: float32(extent.Width), Y: float32(extent.Height)})
	o.io.SetDeltaTime(float32(dt.Seconds()))

	imgui.NewFrame()
	if o.Layout != nil {
		o.Layout()
	}
	imgui.Render()
	return o.record(cmd, slot, extent, imgui.RenderedDrawData())
}

func (o *Overlay) record(cmd *vkrender.CommandBuffer, slot int, extent vk.Extent2D, data imgui.DrawData) error {
	if !data.Valid() {
		return nil
	}
	lists := data.CommandLists()
	var vertexBytes, indexBytes int
	for _, list := range lists {
		_, vn := list.VertexBuffer()
		_, in := list.IndexBuffer()
		vertexBytes += vn
		indexBytes += in
	}
	if vertexBytes == 0 || indexBytes == 0 {
		return nil
	}

	buffers := &o.slots[slot%len(o.slots)]
	if err := o.ensure(&buffers.vertices, vk.BufferUsageVertexBufferBit, uint64(vertexBytes)); err != nil {
		return errors.Wrap(err, "allocating overlay vertices")
	}
	if err := o.ensure(&buffers.indices, vk.BufferUsageIndexBufferBit, uint64(indexBytes)); err != nil {
		return errors.Wrap(err, "allocating overlay indices")
	}

	var vOffset, iOffset uint64
	for _, list := range lists {
		vp, vn := list.VertexBuffer()
		ip, in := list.IndexBuffer()
		if err := buffers.vertices.CopyData(vkrender.ToBytes(vp, vn), vOffset); err != nil {
			return err
		}
		if err := buffers.indices.CopyData(vkrender.ToBytes(ip, in), iOffset); err != nil {
			return err
		}
		vOffset += uint64(vn)
		iOffset += uint64(in)
	}

	vkCmd := cmd.VK()
	cmd.CmdBindPipeline(o.pipeline)
	cmd.CmdBindDescriptorSet(o.layout, 0, o.descriptors, 0)
	vk.CmdBindVertexBuffers(vkCmd, 0, 1, []vk.Buffer{buffers.vertices.VKBuffer}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(vkCmd, buffers.indices.VKBuffer, 0, indexType(imgui.IndexBufferLayout()))
	vk.CmdSetViewport(vkCmd, 0, 1, []vk.Viewport{{
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}})
	t := newDisplayTransform(extent)
	cmd.CmdPushConstants(o.layout, vk.ShaderStageFlags(vk.ShaderStageVertexBit), 0, t.bytes())

	vertexSize, _, _, _ := imgui.VertexBufferLayout()
	indexSize := imgui.IndexBufferLayout()
	var vertexBase, indexBase int
	for _, list := range lists {
		offset := 0
		for _, c := range list.Commands() {
			if c.HasUserCallback() {
				c.CallUserCallback(list)
				continue
			}
			if scissor, ok := clipScissor(c.ClipRect(), extent); ok {
				vk.CmdSetScissor(vkCmd, 0, 1, []vk.Rect2D{scissor})
				vk.CmdDrawIndexed(vkCmd, uint32(c.ElementCount()), 1, uint32(indexBase+offset), int32(vertexBase), 0)
			}
			offset += c.ElementCount()
		}
		_, vn := list.VertexBuffer()
		_, in := list.IndexBuffer()
		vertexBase += vn / vertexSize
		indexBase += in / indexSize
	}
	return nil
}

func indexType(size int) vk.IndexType {
	if size == 4 {
		return vk.IndexTypeUint32
	}
	return vk.IndexTypeUint16
}

// Destroy releases the device objects and the ImGui context. The device
// must be idle.
func (o *Overlay) Destroy() {
	for i := range o.slots {
		o.slots[i].destroy()
	}
	if o.pipeline != nil {
		o.pipeline.Destroy()
		o.pipeline = nil
	}
	if o.layout != nil {
		o.layout.Destroy()
		o.layout = nil
	}
	if o.descriptors != nil {
		o.descriptors.Destroy()
		o.descriptors = nil
	}
	if o.font != nil {
		o.font.Destroy()
		o.font = nil
	}
	if o.context != nil {
		o.context.Destroy()
		o.context = nil
	}
}
