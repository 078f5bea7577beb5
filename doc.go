/*
Package vkrender is the resource and frame orchestration layer of a Vulkan renderer written
in go. It sits on top of github.com/vulkan-go/vulkan and owns the objects every frame depends
on: the device, memory backed buffers and images, render passes and their attachments,
framebuffers, descriptor sets, pipelines, the swapchain and the frame loop which ties them
together.

Native Vulkan structures are exposed on every object through fields prefixed with 'VK', so
applications are never limited by what this package wraps.

Objects

	Instance		the vulkan runtime instance, optionally with validation layers
	PhysicalDevice		the hardware device, picked by queue support and device type
	Device			the logical device, its queues and its command pool
	Buffer			a buffer bound to its own device memory, optionally staged
	Image, ImageView	an image bound to device memory and the view shaders read it through
	RenderPass		a single subpass render pass built from a list of attachments
	Framebuffer		the attachment views of a render pass, plus a swapchain image
	DescriptorSet		bindings accumulated in call order, one vk.DescriptorSet per frame slot
	PipelineLayout		descriptor set layouts and push constant ranges
	Pipeline		a graphics pipeline compiled through a PipelineCache
	Swapchain		the presentable images and their views
	FrameLoop		N frame slots cycling acquire, record, submit and present

Lifetime

Every object is destroyed in the reverse order it was created in. Objects sized by the
swapchain implement SwapchainDependent and are registered with the Renderer, which destroys
and recreates them whenever the swapchain is rebuilt:

	r, err := vkrender.NewRenderer(opts, window)
	scene := &vkrender.OffscreenPass{}
	r.AddDependent(scene)
	post := vkrender.NewPostProcess(scene, vert, frag)
	r.AddDependent(post)
	r.SetRecorder(func(f *vkrender.Frame) error {
		if err := scene.Run(f, drawScene); err != nil {
			return err
		}
		return post.Run(f)
	})
	for !quit {
		r.DrawFrame(events)
	}

Frames

A frame slot holds a command buffer, an image available semaphore, a render finished
semaphore and an in flight fence. The fence of a slot is only reset once the frame using it
is certain to be submitted, so a frame abandoned because the swapchain went out of date never
leaves a slot waiting on a fence nothing will signal.
*/
package vkrender
