package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/loov/hrtime"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// FrameState is where a frame is in its trip through the executor.
type FrameState int

const (
	StateIdle FrameState = iota
	StateAcquiring
	StateRecording
	StateSubmitted
	StatePresenting
)

func (s FrameState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAcquiring:
		return "acquiring"
	case StateRecording:
		return "recording"
	case StateSubmitted:
		return "submitted"
	case StatePresenting:
		return "presenting"
	}
	return fmt.Sprintf("FrameState(%d)", int(s))
}

// DrawCommands is the full content of the command buffer for one frame.
type DrawCommands struct {
	RenderPass  core1_0.RenderPass
	Framebuffer core1_0.Framebuffer
	Pipeline    core1_0.Pipeline
	Extent      core1_0.Extent2D
	ClearColor  mgl32.Vec4

	VertexCount   int
	InstanceCount int
}

// Submission is one graphics queue submit.
type Submission struct {
	WaitSemaphore   core1_0.Semaphore
	WaitStage       core1_0.PipelineStageFlags
	CommandBuffer   core1_0.CommandBuffer
	SignalSemaphore core1_0.Semaphore
	Fence           core1_0.Fence
}

// Presentation is one present request.
type Presentation struct {
	WaitSemaphore core1_0.Semaphore
	ImageIndex    int
}

// FrameDevice is the set of GPU operations a frame is made of.
type FrameDevice interface {
	WaitForFence(fence core1_0.Fence, timeout time.Duration) (common.VkResult, error)
	ResetFence(fence core1_0.Fence) (common.VkResult, error)
	AcquireNextImage(signal core1_0.Semaphore, timeout time.Duration) (int, common.VkResult, error)
	Record(buffer core1_0.CommandBuffer, commands DrawCommands) (common.VkResult, error)
	Submit(submission Submission) (common.VkResult, error)
	Present(presentation Presentation) (common.VkResult, error)
	WaitIdle() (common.VkResult, error)
}

// CloseRequester is polled once per frame; true ends the loop.
type CloseRequester interface {
	ShouldClose() bool
}

// FrameResources are the already-built objects every frame draws with.
type FrameResources struct {
	Sync          FrameSync
	CommandBuffer core1_0.CommandBuffer
	RenderPass    core1_0.RenderPass
	Framebuffers  []core1_0.Framebuffer
	Pipeline      core1_0.Pipeline
	Extent        core1_0.Extent2D
}

type ExecutorOptions struct {
	// FenceTimeout bounds the wait for the previous frame. Zero waits forever.
	FenceTimeout time.Duration
	ClearColor   mgl32.Vec4
	// MaxFrames stops the loop after that many frames. Zero runs until closed.
	MaxFrames int
	// StatsInterval is how many frames pass between statistics log lines.
	StatsInterval int
}

// FrameStats accumulates host-side frame timings.
type FrameStats struct {
	Frames int
	Total  time.Duration
	Last   time.Duration
}

func (s FrameStats) Mean() time.Duration {
	if s.Frames == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Frames)
}

// Executor drives one frame in flight: wait, acquire, record, submit, present.
// It is not safe for concurrent use; the frame loop owns it.
type Executor struct {
	log       logrus.FieldLogger
	device    FrameDevice
	resources FrameResources
	options   ExecutorOptions

	state FrameState
	stats FrameStats
}

func NewExecutor(log logrus.FieldLogger, device FrameDevice, resources FrameResources, options ExecutorOptions) *Executor {
	if options.StatsInterval <= 0 {
		options.StatsInterval = 600
	}

	return &Executor{
		log:       log,
		device:    device,
		resources: resources,
		options:   options,
	}
}

func (e *Executor) State() FrameState { return e.state }

func (e *Executor) Stats() FrameStats { return e.stats }

func (e *Executor) fenceTimeout() time.Duration {
	if e.options.FenceTimeout <= 0 {
		return common.NoTimeout
	}
	return e.options.FenceTimeout
}

// DrawFrame runs one frame. Any error leaves the executor unusable; there is
// no recovery path.
func (e *Executor) DrawFrame() error {
	start := hrtime.Now()
	sync := e.resources.Sync

	// The single command buffer may still be executing until this fence fires.
	res, err := e.device.WaitForFence(sync.InFlight, e.fenceTimeout())
	if err != nil {
		return frameError("vkWaitForFences", res, err)
	}
	if res == core1_0.VKTimeout {
		return frameError("vkWaitForFences", res, ErrFenceTimeout)
	}

	res, err = e.device.ResetFence(sync.InFlight)
	if err != nil {
		return frameError("vkResetFences", res, err)
	}

	e.state = StateAcquiring
	imageIndex, res, err := e.device.AcquireNextImage(sync.ImageAvailable, common.NoTimeout)
	if err != nil {
		return frameError("vkAcquireNextImageKHR", res, err)
	}
	if imageIndex < 0 || imageIndex >= len(e.resources.Framebuffers) {
		return frameError("vkAcquireNextImageKHR", res, errors.Newf("image index %d out of range [0, %d)", imageIndex, len(e.resources.Framebuffers)))
	}

	e.state = StateRecording
	res, err = e.device.Record(e.resources.CommandBuffer, DrawCommands{
		RenderPass:    e.resources.RenderPass,
		Framebuffer:   e.resources.Framebuffers[imageIndex],
		Pipeline:      e.resources.Pipeline,
		Extent:        e.resources.Extent,
		ClearColor:    e.options.ClearColor,
		VertexCount:   3,
		InstanceCount: 1,
	})
	if err != nil {
		return frameError("record command buffer", res, err)
	}

	e.state = StateSubmitted
	res, err = e.device.Submit(Submission{
		WaitSemaphore:   sync.ImageAvailable,
		WaitStage:       core1_0.PipelineStageColorAttachmentOutput,
		CommandBuffer:   e.resources.CommandBuffer,
		SignalSemaphore: sync.RenderFinished,
		Fence:           sync.InFlight,
	})
	if err != nil {
		return frameError("vkQueueSubmit", res, err)
	}

	e.state = StatePresenting
	res, err = e.device.Present(Presentation{
		WaitSemaphore: sync.RenderFinished,
		ImageIndex:    imageIndex,
	})
	if err != nil {
		return frameError("vkQueuePresentKHR", res, err)
	}
	e.state = StateIdle

	elapsed := hrtime.Since(start)
	e.stats.Frames++
	e.stats.Total += elapsed
	e.stats.Last = elapsed

	if e.stats.Frames%e.options.StatsInterval == 0 {
		e.log.WithFields(logrus.Fields{
			"frame":      e.stats.Frames,
			"mean_frame": e.stats.Mean(),
			"last_frame": elapsed,
		}).Debug("frame statistics")
	}

	return nil
}

// Run draws frames until the window asks to close, ctx is done, MaxFrames is
// reached or a frame fails. It always waits for the device to go idle before
// returning so the caller can tear everything down.
func (e *Executor) Run(ctx context.Context, window CloseRequester) error {
	loopErr := e.loop(ctx, window)

	res, idleErr := e.device.WaitIdle()
	if idleErr != nil {
		idleErr = frameError("vkDeviceWaitIdle", res, idleErr)
		if loopErr != nil {
			e.log.WithError(idleErr).Error("device did not go idle after frame failure")
			return loopErr
		}
		return idleErr
	}

	e.log.WithFields(logrus.Fields{
		"frames":     e.stats.Frames,
		"mean_frame": e.stats.Mean(),
	}).Info("frame loop finished")

	return loopErr
}

func (e *Executor) loop(ctx context.Context, window CloseRequester) error {
	for {
		if window.ShouldClose() {
			e.log.Debug("close requested")
			return nil
		}

		if err := ctx.Err(); err != nil {
			e.log.WithError(err).Debug("frame loop cancelled")
			return nil
		}

		if e.options.MaxFrames > 0 && e.stats.Frames >= e.options.MaxFrames {
			return nil
		}

		if err := e.DrawFrame(); err != nil {
			return err
		}
	}
}
