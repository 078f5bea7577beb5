package vkrender

import (
	"testing"

	vk "github.com/vulkan-go/vulkan"
)

func testPipelineConfig() *GraphicsPipelineConfig {
	g := (&Device{}).CreateGraphicsPipelineConfig(&PipelineLayout{})
	g.AddShaderStage(&ShaderModule{Stage: vk.ShaderStageVertexBit})
	g.AddShaderStage(&ShaderModule{Stage: vk.ShaderStageFragmentBit})
	return g
}

func TestPipelineDefaults(t *testing.T) {
	g := testPipelineConfig().AddVertexDescription(Vertex{})
	extent := vk.Extent2D{Width: 1024, Height: 576}

	info, err := g.VKGraphicsPipelineCreateInfo(extent, vk.SampleCount4Bit)
	if err != nil {
		t.Fatal(err)
	}
	if info.StageCount != 2 || info.PStages[1].Stage != vk.ShaderStageFragmentBit {
		t.Errorf("stages = %+v", info.PStages)
	}
	if info.PInputAssemblyState.Topology != vk.PrimitiveTopologyTriangleList {
		t.Errorf("topology = %d", info.PInputAssemblyState.Topology)
	}
	vp := info.PViewportState.PViewports[0]
	if vp.Width != 1024 || vp.Height != 576 || vp.MaxDepth != 1 {
		t.Errorf("viewport = %+v", vp)
	}
	if info.PViewportState.PScissors[0].Extent != extent {
		t.Errorf("scissor = %+v", info.PViewportState.PScissors[0])
	}
	rs := info.PRasterizationState
	if rs.CullMode != vk.CullModeFlags(vk.CullModeBackBit) || rs.FrontFace != vk.FrontFaceCounterClockwise {
		t.Errorf("raster state cull %d front %d", rs.CullMode, rs.FrontFace)
	}
	if info.PMultisampleState.RasterizationSamples != vk.SampleCount4Bit {
		t.Errorf("samples = %d", info.PMultisampleState.RasterizationSamples)
	}
	ds := info.PDepthStencilState
	if ds.DepthTestEnable != vk.True || ds.DepthCompareOp != vk.CompareOpLess {
		t.Errorf("depth state = %+v", ds)
	}
	blend := info.PColorBlendState.PAttachments
	if len(blend) != 1 || blend[0].BlendEnable != vk.False || blend[0].ColorWriteMask != 0xf {
		t.Errorf("blend attachments = %+v", blend)
	}
	if info.PVertexInputState.VertexAttributeDescriptionCount != 3 {
		t.Errorf("vertex attributes = %d", info.PVertexInputState.VertexAttributeDescriptionCount)
	}
	if info.PDynamicState != nil {
		t.Error("dynamic state set without any dynamic states")
	}
}

func TestFullscreenTriangle(t *testing.T) {
	g := testPipelineConfig().AddVertexDescription(Vertex{}).FullscreenTriangle()
	info, err := g.VKGraphicsPipelineCreateInfo(vk.Extent2D{Width: 800, Height: 600}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if info.PVertexInputState.VertexBindingDescriptionCount != 0 {
		t.Error("fullscreen triangle has vertex input")
	}
	if info.PRasterizationState.CullMode != vk.CullModeFlags(vk.CullModeFrontBit) {
		t.Errorf("cull mode = %d, want front", info.PRasterizationState.CullMode)
	}
	if info.PDepthStencilState.DepthTestEnable != vk.False {
		t.Error("fullscreen triangle depth tests")
	}
	if info.PMultisampleState.RasterizationSamples != vk.SampleCount1Bit {
		t.Errorf("samples = %d, want 1", info.PMultisampleState.RasterizationSamples)
	}
}

func TestPipelineConfigNeedsStages(t *testing.T) {
	g := (&Device{}).CreateGraphicsPipelineConfig(nil)
	if _, err := g.VKGraphicsPipelineCreateInfo(vk.Extent2D{Width: 1, Height: 1}, 0); err == nil {
		t.Error("pipeline without stages accepted")
	}
}

func TestPipelineConfigBindings(t *testing.T) {
	vert := vk.ShaderStageFlags(vk.ShaderStageVertexBit)
	frag := vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	g := (&Device{}).CreateGraphicsPipelineConfig(nil)
	g.AddShaderStage(&ShaderModule{Stage: vk.ShaderStageVertexBit, Bindings: []ShaderBinding{
		{Binding: 0, Type: vk.DescriptorTypeUniformBuffer, Count: 1, Stages: vert},
	}})
	g.AddShaderStage(&ShaderModule{Stage: vk.ShaderStageFragmentBit, Bindings: []ShaderBinding{
		{Binding: 0, Type: vk.DescriptorTypeUniformBuffer, Count: 1, Stages: frag},
		{Binding: 1, Type: vk.DescriptorTypeCombinedImageSampler, Count: 1, Stages: frag},
	}})
	b := g.Bindings()
	if len(b) != 2 || b[0].Stages != vert|frag {
		t.Errorf("bindings = %+v", b)
	}
}
