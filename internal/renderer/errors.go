package renderer

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/common"
)

var (
	// ErrCapabilityMissing is returned when a required instance extension,
	// device extension or validation layer is not advertised.
	ErrCapabilityMissing = errors.New("required capability missing")
	// ErrNoGPU is returned when the instance enumerates no physical devices.
	ErrNoGPU = errors.New("no Vulkan-capable GPU found")
	// ErrNoSuitableDevice is returned when no physical device passes selection.
	ErrNoSuitableDevice = errors.New("failed to find a suitable GPU")
	// ErrChainCreation wraps failures while building the swapchain and its views.
	ErrChainCreation = errors.New("swapchain creation failed")
	// ErrPipelineCreation wraps failures while building the render pass,
	// shader modules, pipeline or framebuffers.
	ErrPipelineCreation = errors.New("pipeline creation failed")
	// ErrFrameExecution wraps failures returned by wait, acquire, submit or present.
	ErrFrameExecution = errors.New("frame execution failed")
	// ErrFenceTimeout marks a frame wait that expired before the previous
	// frame's fence was signaled.
	ErrFenceTimeout = errors.New("timed out waiting for previous frame")
)

// StatusError is a driver failure tagged with the operation that produced it.
type StatusError struct {
	Kind   error
	Op     string
	Status common.VkResult
	Err    error
}

func (e *StatusError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s returned %s", e.Kind, e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %s returned %s: %s", e.Kind, e.Op, e.Status, e.Err)
}

func (e *StatusError) Unwrap() error { return e.Err }

func (e *StatusError) Is(target error) bool { return target == e.Kind }

func statusError(kind error, op string, status common.VkResult, err error) error {
	return errors.WithStack(&StatusError{Kind: kind, Op: op, Status: status, Err: err})
}

func chainError(op string, status common.VkResult, err error) error {
	return statusError(ErrChainCreation, op, status, err)
}

func pipelineError(op string, status common.VkResult, err error) error {
	return statusError(ErrPipelineCreation, op, status, err)
}

func frameError(op string, status common.VkResult, err error) error {
	return statusError(ErrFrameExecution, op, status, err)
}

// CapabilityError lists every name that was required but not advertised.
type CapabilityError struct {
	Kind    string
	Missing []string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s: missing %s %v", ErrCapabilityMissing, e.Kind, e.Missing)
}

func (e *CapabilityError) Is(target error) bool { return target == ErrCapabilityMissing }
