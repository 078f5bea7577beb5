package vkrender

import (
	"github.com/cockroachdb/errors"
)

// ResolveSource is a pass whose single sampled output a later pass reads.
type ResolveSource interface {
	ResolveView() *ImageView
}

// PostProcess draws a fullscreen triangle sampling Source into the
// swapchain image. The shader modules belong to the caller and must
// outlive it.
type PostProcess struct {
	Source  ResolveSource
	Shaders []*ShaderModule

	RenderPass   *RenderPass
	Framebuffers []*Framebuffer
	Sampler      *Sampler
	Descriptors  *DescriptorSet
	Layout       *PipelineLayout
	Pipeline     *Pipeline
}

func NewPostProcess(source ResolveSource, shaders ...*ShaderModule) *PostProcess {
	return &PostProcess{Source: source, Shaders: shaders}
}

func (p *PostProcess) Create(r *Renderer) (err error) {
	defer func() {
		if err != nil {
			p.Destroy()
		}
	}()

	src := p.Source.ResolveView()
	if src == nil {
		return errors.New("post process source has no resolve attachment")
	}

	p.RenderPass = r.Device.CreateRenderPass()
	if _, err = p.RenderPass.AddAttachment(AttachmentInfo{
		Extent:    r.Extent(),
		Format:    r.Swapchain.Format,
		Presented: true,
	}); err != nil {
		return err
	}
	if err = p.RenderPass.Generate(); err != nil {
		return err
	}
	for _, view := range r.Swapchain.Views {
		fb, err := p.RenderPass.CreateFramebuffer(view)
		if err != nil {
			return err
		}
		p.Framebuffers = append(p.Framebuffers, fb)
	}

	if p.Sampler, err = r.Device.CreateSampler(1, false); err != nil {
		return err
	}
	p.Descriptors = r.Device.NewDescriptorSet(r.FramesInFlight())
	if _, err = p.Descriptors.AddSampler(src, p.Sampler); err != nil {
		return err
	}
	if err = p.Descriptors.Generate(); err != nil {
		return err
	}
	if p.Layout, err = r.Device.CreatePipelineLayout([]*DescriptorSet{p.Descriptors}); err != nil {
		return err
	}

	config := r.Device.CreateGraphicsPipelineConfig(p.Layout)
	for _, s := range p.Shaders {
		config.AddShaderStage(s)
	}
	config.FullscreenTriangle()
	p.Pipeline, err = config.Generate(p.RenderPass, r.PipelineCache)
	return errors.Wrap(err, "post process pipeline")
}

func (p *PostProcess) PresentedPass() *RenderPass {
	return p.RenderPass
}

// Run records the pass into the frame's swapchain image.
func (p *PostProcess) Run(f *Frame) error {
	return f.RunRenderPass(p.RenderPass, p.Framebuffers[f.ImageIndex], func(cmd *CommandBuffer) error {
		cmd.CmdBindPipeline(p.Pipeline)
		cmd.CmdBindDescriptorSet(p.Layout, 0, p.Descriptors, f.Slot)
		cmd.CmdDraw(3, 1, 0, 0)
		return nil
	})
}

func (p *PostProcess) Destroy() {
	if p.Pipeline != nil {
		p.Pipeline.Destroy()
		p.Pipeline = nil
	}
	if p.Layout != nil {
		p.Layout.Destroy()
		p.Layout = nil
	}
	if p.Descriptors != nil {
		p.Descriptors.Destroy()
		p.Descriptors = nil
	}
	if p.Sampler != nil {
		p.Sampler.Destroy()
		p.Sampler = nil
	}
	for _, fb := range p.Framebuffers {
		fb.Destroy()
	}
	p.Framebuffers = nil
	if p.RenderPass != nil {
		p.RenderPass.Destroy()
		p.RenderPass = nil
	}
}
