package vkrender

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/loov/hrtime"
	vk "github.com/vulkan-go/vulkan"
)

// Pipeline is a compiled graphics pipeline bound to the render pass it was
// generated against.
type Pipeline struct {
	Device     *Device
	VKPipeline vk.Pipeline
	Layout     *PipelineLayout
	Extent     vk.Extent2D
}

// Generate validates the layout against the bindings the shader stages
// declare and compiles the pipeline for rp, sized to rp's extent and using
// its sample count. cache may be nil.
func (g *GraphicsPipelineConfig) Generate(rp *RenderPass, cache *PipelineCache) (*Pipeline, error) {
	if g.Layout == nil {
		return nil, errors.New("graphics pipeline has no layout")
	}
	if !rp.Generated() {
		return nil, errors.New("render pass must be generated before its pipelines")
	}
	if err := g.Layout.Validate(g.Bindings()); err != nil {
		return nil, err
	}

	extent := rp.Extent()
	info, err := g.VKGraphicsPipelineCreateInfo(extent, rp.Samples())
	if err != nil {
		return nil, err
	}
	info.RenderPass = rp.VKRenderPass

	vkCache := vk.NullPipelineCache
	log := slog.Default()
	if cache != nil {
		vkCache = cache.VKPipelineCache
		log = cache.log
	}

	start := hrtime.Now()
	pipelines := make([]vk.Pipeline, 1)
	err = vkErr(vk.CreateGraphicsPipelines(g.Device.VKDevice, vkCache, 1, []vk.GraphicsPipelineCreateInfo{info}, nil, pipelines), "vkCreateGraphicsPipelines")
	if err != nil {
		return nil, err
	}
	log.Debug("graphics pipeline compiled", "stages", len(g.Stages), "width", extent.Width, "height", extent.Height, "elapsed", hrtime.Since(start))

	return &Pipeline{
		Device:     g.Device,
		VKPipeline: pipelines[0],
		Layout:     g.Layout,
		Extent:     extent,
	}, nil
}

func (p *Pipeline) Destroy() {
	vk.DestroyPipeline(p.Device.VKDevice, p.VKPipeline, nil)
}
