// Package renderer brings up a Vulkan device for a window surface and draws
// a triangle to it every frame.
//
// Setup runs once, strictly in order: instance and surface, physical device
// selection, logical device and queues, swapchain, render target, pipeline,
// command buffer and synchronization primitives. Each stage is built from the
// previous one and not changed afterwards. The frame loop then runs against
// those objects with a single frame in flight.
package renderer

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Window is everything the renderer needs from the window system.
type Window interface {
	SurfaceFactory
	DrawableSizer
	CloseRequester
}

type Options struct {
	Instance       InstanceOptions
	VertexShader   []byte
	FragmentShader []byte
	Executor       ExecutorOptions
}

// Renderer owns the whole ownership chain and the frame executor.
type Renderer struct {
	log logrus.FieldLogger

	Instance  *Instance
	Device    *Device
	Swapchain *Swapchain
	Target    *RenderTarget
	Pipeline  *Pipeline
	Commands  *Commands
	Sync      FrameSync

	executor *Executor
	teardown []func()
}

// New builds every stage in order. If a stage fails, the stages already
// built are destroyed in reverse order before the error is returned.
func New(log logrus.FieldLogger, globalDriver core1_0.GlobalDriver, window Window, options Options) (r *Renderer, err error) {
	r = &Renderer{log: log}
	defer func() {
		if err != nil {
			r.Destroy()
			r = nil
		}
	}()

	r.Instance, err = CreateInstance(log, globalDriver, window, options.Instance)
	if err != nil {
		return r, err
	}
	r.push(r.Instance.Destroy)

	selection, err := PickPhysicalDevice(log, r.Instance)
	if err != nil {
		return r, err
	}

	r.Device, err = CreateLogicalDevice(log, r.Instance, selection)
	if err != nil {
		return r, err
	}
	r.push(r.Device.Destroy)

	r.Swapchain, err = CreateSwapchain(log, r.Instance, r.Device, window)
	if err != nil {
		return r, err
	}
	r.push(r.Swapchain.Destroy)

	r.Target, err = CreateRenderTarget(r.Device, r.Swapchain)
	if err != nil {
		return r, err
	}
	r.push(r.Target.Destroy)

	r.Pipeline, err = CreatePipeline(r.Device, r.Swapchain, r.Target, options.VertexShader, options.FragmentShader)
	if err != nil {
		return r, err
	}
	r.push(r.Pipeline.Destroy)

	r.Commands, err = CreateCommands(r.Device)
	if err != nil {
		return r, err
	}
	r.push(r.Commands.Destroy)

	r.Sync, err = CreateFrameSync(r.Device)
	if err != nil {
		return r, err
	}
	sync := r.Sync
	r.push(func() { sync.Destroy(r.Device) })

	r.executor = NewExecutor(log, vulkanFrames{device: r.Device, swapchain: r.Swapchain}, FrameResources{
		Sync:          r.Sync,
		CommandBuffer: r.Commands.Buffer,
		RenderPass:    r.Target.RenderPass,
		Framebuffers:  r.Target.Framebuffers,
		Pipeline:      r.Pipeline.Pipeline,
		Extent:        r.Swapchain.Extent,
	}, options.Executor)

	return r, nil
}

func (r *Renderer) push(destroy func()) {
	r.teardown = append(r.teardown, destroy)
}

// Run drives the frame loop until window closes or ctx is done.
func (r *Renderer) Run(ctx context.Context, window CloseRequester) error {
	return r.executor.Run(ctx, window)
}

func (r *Renderer) Stats() FrameStats {
	return r.executor.Stats()
}

// Destroy waits for the device to go idle and then releases every object in
// reverse creation order.
func (r *Renderer) Destroy() {
	if r.Device != nil {
		if err := r.Device.WaitIdle(); err != nil {
			r.log.WithError(err).Error("device did not go idle before teardown")
		}
	}

	for i := len(r.teardown) - 1; i >= 0; i-- {
		r.teardown[i]()
	}
	r.teardown = nil
}
