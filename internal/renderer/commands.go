package renderer

import (
	"time"

	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Commands is the command pool and the one primary command buffer that is
// re-recorded every frame.
type Commands struct {
	device *Device

	Pool   core1_0.CommandPool
	Buffer core1_0.CommandBuffer
}

func CreateCommands(device *Device) (*Commands, error) {
	pool, res, err := device.Driver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: *device.Indices.GraphicsFamily,
	})
	if err != nil {
		return nil, pipelineError("vkCreateCommandPool", res, err)
	}

	buffers, res, err := device.Driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        pool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		device.Driver.DestroyCommandPool(pool, nil)
		return nil, pipelineError("vkAllocateCommandBuffers", res, err)
	}

	return &Commands{
		device: device,
		Pool:   pool,
		Buffer: buffers[0],
	}, nil
}

func (c *Commands) Destroy() {
	if c.Pool.Initialized() {
		c.device.Driver.FreeCommandBuffers(c.Buffer)
		c.device.Driver.DestroyCommandPool(c.Pool, nil)
	}
}

// vulkanFrames is the FrameDevice backed by a live device and swapchain.
type vulkanFrames struct {
	device    *Device
	swapchain *Swapchain
}

func (f vulkanFrames) WaitForFence(fence core1_0.Fence, timeout time.Duration) (common.VkResult, error) {
	return f.device.Driver.WaitForFences(true, timeout, fence)
}

func (f vulkanFrames) ResetFence(fence core1_0.Fence) (common.VkResult, error) {
	return f.device.Driver.ResetFences(fence)
}

func (f vulkanFrames) AcquireNextImage(signal core1_0.Semaphore, timeout time.Duration) (int, common.VkResult, error) {
	return f.swapchain.AcquireNextImage(timeout, signal)
}

func (f vulkanFrames) Record(buffer core1_0.CommandBuffer, commands DrawCommands) (common.VkResult, error) {
	driver := f.device.Driver

	res, err := driver.ResetCommandBuffer(buffer, 0)
	if err != nil {
		return res, err
	}

	res, err = driver.BeginCommandBuffer(buffer, core1_0.CommandBufferBeginInfo{})
	if err != nil {
		return res, err
	}

	renderArea := core1_0.Rect2D{
		Offset: core1_0.Offset2D{X: 0, Y: 0},
		Extent: commands.Extent,
	}

	clear := commands.ClearColor
	err = driver.CmdBeginRenderPass(buffer, core1_0.SubpassContentsInline,
		core1_0.RenderPassBeginInfo{
			RenderPass:  commands.RenderPass,
			Framebuffer: commands.Framebuffer,
			RenderArea:  renderArea,
			ClearValues: []core1_0.ClearValue{
				core1_0.ClearValueFloat{clear[0], clear[1], clear[2], clear[3]},
			},
		})
	if err != nil {
		return core1_0.VKSuccess, err
	}

	driver.CmdBindPipeline(buffer, core1_0.PipelineBindPointGraphics, commands.Pipeline)
	driver.CmdSetViewport(buffer, core1_0.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(commands.Extent.Width),
		Height:   float32(commands.Extent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	})
	driver.CmdSetScissor(buffer, renderArea)
	driver.CmdDraw(buffer, commands.VertexCount, commands.InstanceCount, 0, 0)
	driver.CmdEndRenderPass(buffer)

	return driver.EndCommandBuffer(buffer)
}

func (f vulkanFrames) Submit(submission Submission) (common.VkResult, error) {
	return f.device.Driver.QueueSubmit(f.device.GraphicsQueue, &submission.Fence,
		core1_0.SubmitInfo{
			WaitSemaphores:   []core1_0.Semaphore{submission.WaitSemaphore},
			WaitDstStageMask: []core1_0.PipelineStageFlags{submission.WaitStage},
			CommandBuffers:   []core1_0.CommandBuffer{submission.CommandBuffer},
			SignalSemaphores: []core1_0.Semaphore{submission.SignalSemaphore},
		},
	)
}

func (f vulkanFrames) Present(presentation Presentation) (common.VkResult, error) {
	return f.swapchain.Present(f.device.PresentQueue, presentation.WaitSemaphore, presentation.ImageIndex)
}

func (f vulkanFrames) WaitIdle() (common.VkResult, error) {
	return f.device.Driver.DeviceWaitIdle()
}
