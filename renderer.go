package vkrender

import (
	"log/slog"
	"unsafe"

	"github.com/cockroachdb/errors"
	vk "github.com/vulkan-go/vulkan"
)

// SurfaceProvider is the window the renderer presents to.
type SurfaceProvider interface {
	// RequiredExtensions lists the instance extensions the window system needs.
	RequiredExtensions() []string
	// ProcAddr is the loader's vkGetInstanceProcAddr.
	ProcAddr() unsafe.Pointer
	CreateSurface(instance vk.Instance) (vk.Surface, error)
	FramebufferSize() (width, height int)
	// WaitEvents blocks until the window system has something to report.
	WaitEvents()
}

// SwapchainDependent is a resource sized by the swapchain. Create is called
// when it is added and again after every swapchain rebuild, Destroy before
// the rebuild.
type SwapchainDependent interface {
	Create(r *Renderer) error
	Destroy()
}

// PresentedPassOwner is a SwapchainDependent whose render pass writes the
// swapchain images.
type PresentedPassOwner interface {
	PresentedPass() *RenderPass
}

// OverlayRenderer draws on top of the presented pass, after the scene and
// before the pass ends.
type OverlayRenderer interface {
	// Prepare is called with the presented pass whenever it was recreated.
	Prepare(rp *RenderPass) error
	// Draw records into cmd for the given frame slot. Resources written
	// per frame must be kept per slot.
	Draw(cmd *CommandBuffer, slot int, extent vk.Extent2D) error
}

// Renderer owns the device, the swapchain and the frame slots, and drives
// the frame loop over them.
type Renderer struct {
	Options       Options
	Instance      *Instance
	Surface       vk.Surface
	Device        *Device
	PipelineCache *PipelineCache
	Swapchain     *Swapchain
	Slots         []*FrameSlot
	Stats         *FrameStats

	provider   SurfaceProvider
	loop       *FrameLoop
	dependents []SwapchainDependent
	recorder   func(f *Frame) error
	overlay    OverlayRenderer
	log        *slog.Logger
}

// NewRenderer brings up everything up to the frame slots: instance,
// surface, physical and logical device, pipeline cache, swapchain.
func NewRenderer(opts Options, provider SurfaceProvider) (*Renderer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	r := &Renderer{Options: opts, provider: provider, log: opts.Logger}
	if err := r.init(); err != nil {
		r.Destroy()
		return nil, err
	}
	return r, nil
}

func (r *Renderer) init() error {
	vk.SetGetInstanceProcAddr(r.provider.ProcAddr())
	if err := vk.Init(); err != nil {
		return errors.Wrap(err, "loading vulkan")
	}

	app := App{
		Name:       r.Options.AppName,
		EngineName: "vkrender",
		Version:    Version{Major: 1},
		APIVersion: Version{Major: 1},
	}
	for _, ext := range r.provider.RequiredExtensions() {
		app.EnableExtension(ext)
	}

	var err error
	if r.Instance, err = CreateInstance(app, r.Options.EnableValidation, r.log); err != nil {
		return err
	}
	if r.Surface, err = r.provider.CreateSurface(r.Instance.VKInstance); err != nil {
		return errors.Wrap(err, "creating window surface")
	}

	physical, families, err := PickPhysicalDevice(r.Instance, r.Surface)
	if err != nil {
		return err
	}
	if r.Device, err = CreateDevice(physical, families, r.Options.MaxSamples, nil); err != nil {
		return err
	}
	r.log.Info("device selected", "device", physical.DeviceName, "samples", r.Device.Samples,
		"graphics", families.Graphics, "present", families.Present)

	if r.PipelineCache, err = r.Device.OpenPipelineCache(r.Options.PipelineCachePath, r.log); err != nil {
		return err
	}
	if err = r.createSwapchain(); err != nil {
		return err
	}
	if r.Slots, err = r.Device.CreateFrameSlots(r.Options.FramesInFlight); err != nil {
		return err
	}
	if r.loop, err = NewFrameLoop(r.Options.FramesInFlight, rendererDriver{r}); err != nil {
		return err
	}

	window := r.Options.StatsInterval
	if window < 1 {
		window = 120
	}
	r.Stats = NewFrameStats(window)
	return nil
}

// framebufferSize waits out a minimised window.
func (r *Renderer) framebufferSize() vk.Extent2D {
	w, h := r.provider.FramebufferSize()
	for w == 0 || h == 0 {
		r.provider.WaitEvents()
		w, h = r.provider.FramebufferSize()
	}
	return vk.Extent2D{Width: uint32(w), Height: uint32(h)}
}

func (r *Renderer) createSwapchain() error {
	support, err := r.Device.PhysicalDevice.QuerySurfaceSupport(r.Surface)
	if err != nil {
		return err
	}
	settings, err := ChooseSwapchainSettings(support, r.framebufferSize(), r.Options.PreferredPresentModes, r.Options.PreferredFormats)
	if err != nil {
		return err
	}

	old := r.Swapchain
	sc, err := r.Device.CreateSwapchain(r.Surface, settings, old)
	if old != nil {
		old.Destroy()
		r.Swapchain = nil
	}
	if err != nil {
		return err
	}
	r.Swapchain = sc
	r.log.Info("swapchain created",
		"width", settings.Extent.Width, "height", settings.Extent.Height,
		"format", settings.Format, "present_mode", settings.PresentMode, "images", sc.ImageCount())
	return nil
}

// AddDependent registers d and creates it against the current swapchain.
func (r *Renderer) AddDependent(d SwapchainDependent) error {
	if err := d.Create(r); err != nil {
		return err
	}
	r.dependents = append(r.dependents, d)
	if _, ok := d.(PresentedPassOwner); ok {
		return r.prepareOverlay()
	}
	return nil
}

// SetRecorder installs the callback recording each frame's commands.
func (r *Renderer) SetRecorder(record func(f *Frame) error) {
	r.recorder = record
}

// SetOverlay installs the overlay drawn into the presented pass.
func (r *Renderer) SetOverlay(o OverlayRenderer) error {
	r.overlay = o
	return r.prepareOverlay()
}

// PresentedPass is the render pass writing the swapchain images, or nil
// when no dependent owns one.
func (r *Renderer) PresentedPass() *RenderPass {
	return presentedPass(r.dependents)
}

func (r *Renderer) prepareOverlay() error {
	return prepareOverlay(r.overlay, r.dependents)
}

// presentedPass picks the newest dependent owning a presented pass.
func presentedPass(deps []SwapchainDependent) *RenderPass {
	for i := len(deps) - 1; i >= 0; i-- {
		if o, ok := deps[i].(PresentedPassOwner); ok {
			return o.PresentedPass()
		}
	}
	return nil
}

func prepareOverlay(overlay OverlayRenderer, deps []SwapchainDependent) error {
	rp := presentedPass(deps)
	if overlay == nil || rp == nil {
		return nil
	}
	return errors.Wrap(overlay.Prepare(rp), "preparing overlay")
}

// rebuildDependents destroys deps newest first, runs recreate, creates deps
// again in registration order and finally prepares the overlay against the
// presented pass. Destroy must tolerate a dependent that was already
// destroyed by an earlier failed cascade.
func rebuildDependents(r *Renderer, deps []SwapchainDependent, overlay OverlayRenderer, recreate func() error) error {
	for i := len(deps) - 1; i >= 0; i-- {
		deps[i].Destroy()
	}
	if err := recreate(); err != nil {
		return err
	}
	for _, d := range deps {
		if err := d.Create(r); err != nil {
			return errors.Wrap(err, "recreating swapchain dependent")
		}
	}
	return prepareOverlay(overlay, deps)
}

// Extent is the size of the swapchain images.
func (r *Renderer) Extent() vk.Extent2D {
	return r.Swapchain.Extent
}

// FramesInFlight is the number of frame slots.
func (r *Renderer) FramesInFlight() int {
	return len(r.Slots)
}

// rebuild recreates the swapchain and cascades through the dependents.
func (r *Renderer) rebuild() error {
	extent := r.framebufferSize()
	if err := r.Device.WaitIdle(); err != nil {
		return err
	}
	if err := rebuildDependents(r, r.dependents, r.overlay, r.createSwapchain); err != nil {
		return err
	}
	r.log.Debug("swapchain rebuilt", "width", extent.Width, "height", extent.Height, "dependents", len(r.dependents))
	return nil
}

// DrawFrame runs one iteration of the frame loop.
func (r *Renderer) DrawFrame(ev FrameEvents) error {
	return r.loop.Step(ev)
}

// CurrentSlot is the frame slot the next DrawFrame records into.
func (r *Renderer) CurrentSlot() int {
	return r.loop.Current()
}

// Destroy waits for the GPU, persists the pipeline cache and releases
// everything in reverse creation order. It is safe on a partly created
// renderer.
func (r *Renderer) Destroy() {
	if r.Device != nil {
		if err := r.Device.WaitIdle(); err != nil {
			r.log.Warn("waiting for device idle", "err", err)
		}
		for i := len(r.dependents) - 1; i >= 0; i-- {
			r.dependents[i].Destroy()
		}
		r.dependents = nil
		for _, s := range r.Slots {
			s.Destroy(r.Device)
		}
		r.Slots = nil
		if r.Swapchain != nil {
			r.Swapchain.Destroy()
		}
		if r.PipelineCache != nil {
			if err := r.PipelineCache.Save(); err != nil {
				r.log.Warn("saving pipeline cache", "err", err)
			}
			r.PipelineCache.Destroy()
		}
		r.Device.Destroy()
		r.Device = nil
	}
	if r.Instance != nil {
		if r.Surface != vk.NullSurface {
			vk.DestroySurface(r.Instance.VKInstance, r.Surface, nil)
		}
		r.Instance.Destroy()
		r.Instance = nil
	}
}

// rendererDriver performs the frame loop steps on the renderer's device.
type rendererDriver struct {
	r *Renderer
}

func (d rendererDriver) WaitForSlot(slot int) error {
	return d.r.Slots[slot].InFlight.Wait(d.r.Options.fenceTimeout())
}

func (d rendererDriver) AcquireImage(slot int) (uint32, SurfaceStatus, error) {
	image, res := d.r.Swapchain.Acquire(d.r.Slots[slot].ImageAvailable, vk.MaxUint64)
	status, err := surfaceStatus(res, "vkAcquireNextImageKHR")
	return image, status, err
}

func (d rendererDriver) RecordSlot(slot int, image uint32) error {
	if d.r.recorder == nil {
		return errors.New("no frame recorder installed")
	}
	cmd := d.r.Slots[slot].CommandBuffer
	if err := cmd.Reset(); err != nil {
		return err
	}
	if err := cmd.Begin(); err != nil {
		return err
	}
	f := &Frame{
		Renderer:      d.r,
		Slot:          slot,
		ImageIndex:    image,
		CommandBuffer: cmd,
		Extent:        d.r.Swapchain.Extent,
	}
	if err := d.r.recorder(f); err != nil {
		return err
	}
	return cmd.End()
}

func (d rendererDriver) ResetSlot(slot int) error {
	return d.r.Slots[slot].InFlight.Reset()
}

func (d rendererDriver) SubmitSlot(slot int, image uint32) error {
	s := d.r.Slots[slot]
	return d.r.Device.GraphicsQueue.SubmitFrame(s.CommandBuffer, s.ImageAvailable, s.RenderFinished, s.InFlight)
}

func (d rendererDriver) PresentImage(slot int, image uint32) (SurfaceStatus, error) {
	res := d.r.Device.PresentQueue.Present(d.r.Swapchain, image, d.r.Slots[slot].RenderFinished)
	status, err := surfaceStatus(res, "vkQueuePresentKHR")
	if err != nil {
		return status, err
	}
	d.r.Stats.Tick()
	if n := d.r.Options.StatsInterval; n > 0 && (d.r.loop.PresentedFrames()+1)%uint64(n) == 0 {
		d.r.log.Info("frame stats", "stats", d.r.Stats)
	}
	return status, nil
}

func (d rendererDriver) Rebuild() error {
	return d.r.rebuild()
}
