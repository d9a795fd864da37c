package renderer

import "github.com/vkngwrapper/core/v3/core1_0"

// FrameSync holds the primitives that order a single frame in flight.
type FrameSync struct {
	ImageAvailable core1_0.Semaphore
	RenderFinished core1_0.Semaphore
	// InFlight starts signaled so the first wait returns immediately.
	InFlight core1_0.Fence
}

func CreateFrameSync(device *Device) (FrameSync, error) {
	var sync FrameSync

	semaphore, res, err := device.Driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return sync, pipelineError("vkCreateSemaphore", res, err)
	}
	sync.ImageAvailable = semaphore

	semaphore, res, err = device.Driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		sync.Destroy(device)
		return FrameSync{}, pipelineError("vkCreateSemaphore", res, err)
	}
	sync.RenderFinished = semaphore

	fence, res, err := device.Driver.CreateFence(nil, core1_0.FenceCreateInfo{
		Flags: core1_0.FenceCreateSignaled,
	})
	if err != nil {
		sync.Destroy(device)
		return FrameSync{}, pipelineError("vkCreateFence", res, err)
	}
	sync.InFlight = fence

	return sync, nil
}

func (s FrameSync) Destroy(device *Device) {
	if s.InFlight.Initialized() {
		device.Driver.DestroyFence(s.InFlight, nil)
	}

	if s.RenderFinished.Initialized() {
		device.Driver.DestroySemaphore(s.RenderFinished, nil)
	}

	if s.ImageAvailable.Initialized() {
		device.Driver.DestroySemaphore(s.ImageAvailable, nil)
	}
}
