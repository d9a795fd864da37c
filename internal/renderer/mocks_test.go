package renderer

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/core/v3/mocks/mocks1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	mock_surface "github.com/vkngwrapper/extensions/v3/khr_surface/mocks"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
	mock_swapchain "github.com/vkngwrapper/extensions/v3/khr_swapchain/mocks"
)

// mockChain is a full set of mock drivers plus distinct dummy handles for
// everything the renderer creates.
type mockChain struct {
	ctrl *gomock.Controller

	global    *mocks1_0.MockGlobalDriver
	instance  *mocks1_0.MockCoreInstanceDriver
	device    *mocks1_0.MockCoreDeviceDriver
	surface   *mock_surface.MockExtensionDriver
	swapchain *mock_swapchain.MockExtensionDriver

	instanceHandle core1_0.Instance
	physicalDevice core1_0.PhysicalDevice
	deviceHandle   core1_0.Device
	surfaceHandle  khr_surface.Surface
	chainHandle    khr_swapchain.Swapchain
	queue          core1_0.Queue
}

func newMockChain(t *testing.T) *mockChain {
	ctrl := gomock.NewController(t)

	instanceHandle := mocks1_0.NewDummyInstance(common.Vulkan1_2, []string{})
	deviceHandle := mocks1_0.NewDummyDevice(common.Vulkan1_2, []string{})

	return &mockChain{
		ctrl:      ctrl,
		global:    mocks1_0.NewMockGlobalDriver(ctrl),
		instance:  mocks1_0.NewMockCoreInstanceDriver(ctrl),
		device:    mocks1_0.NewMockCoreDeviceDriver(ctrl),
		surface:   mock_surface.NewMockExtensionDriver(ctrl),
		swapchain: mock_swapchain.NewMockExtensionDriver(ctrl),

		instanceHandle: instanceHandle,
		physicalDevice: mocks1_0.NewDummyPhysicalDevice(instanceHandle, common.Vulkan1_2),
		deviceHandle:   deviceHandle,
		surfaceHandle:  mock_surface.NewDummySurface(instanceHandle),
		chainHandle:    mock_swapchain.NewDummySwapchain(deviceHandle),
		queue:          mocks1_0.NewDummyQueue(deviceHandle),
	}
}

func (m *mockChain) semaphore() core1_0.Semaphore {
	return mocks1_0.NewDummySemaphore(m.deviceHandle)
}

func (m *mockChain) fence() core1_0.Fence {
	return mocks1_0.NewDummyFence(m.deviceHandle)
}

func (m *mockChain) commandBuffer() core1_0.CommandBuffer {
	return mocks1_0.NewDummyCommandBuffer(mocks1_0.NewDummyCommandPool(m.deviceHandle), m.deviceHandle)
}

func (m *mockChain) image() core1_0.Image {
	return mocks1_0.NewDummyImage(m.deviceHandle)
}

func (m *mockChain) imageView() core1_0.ImageView {
	return mocks1_0.NewDummyImageView(m.deviceHandle)
}

func (m *mockChain) renderPass() core1_0.RenderPass {
	return mocks1_0.NewDummyRenderPass(m.deviceHandle)
}

func (m *mockChain) framebuffer() core1_0.Framebuffer {
	return mocks1_0.NewDummyFramebuffer(m.deviceHandle)
}

func (m *mockChain) pipeline() core1_0.Pipeline {
	return mocks1_0.NewDummyPipeline(m.deviceHandle)
}

// instanceWithSurface is the Instance CreateInstance would have returned.
func (m *mockChain) instanceWithSurface() *Instance {
	return &Instance{
		Driver:           m.instance,
		Surface:          m.surfaceHandle,
		surfaceExtension: m.surface,
	}
}

// logicalDevice is a Device whose graphics and present family is 0.
func (m *mockChain) logicalDevice() *Device {
	family := 0
	return &Device{
		Driver:         m.device,
		PhysicalDevice: m.physicalDevice,
		Indices:        QueueFamilyIndices{GraphicsFamily: &family, PresentFamily: &family},
		GraphicsQueue:  m.queue,
		PresentQueue:   m.queue,
	}
}

func (m *mockChain) expectSurfaceQueries(times int) {
	m.surface.EXPECT().GetPhysicalDeviceSurfaceCapabilities(m.surfaceHandle, m.physicalDevice).Return(&khr_surface.SurfaceCapabilities{
		MinImageCount:  2,
		MaxImageCount:  0,
		CurrentExtent:  core1_0.Extent2D{Width: 800, Height: 600},
		MinImageExtent: core1_0.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: core1_0.Extent2D{Width: 4096, Height: 4096},
	}, core1_0.VKSuccess, nil).Times(times)

	m.surface.EXPECT().GetPhysicalDeviceSurfaceFormats(m.surfaceHandle, m.physicalDevice).Return([]khr_surface.SurfaceFormat{
		{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
	}, core1_0.VKSuccess, nil).Times(times)

	m.surface.EXPECT().GetPhysicalDeviceSurfacePresentModes(m.surfaceHandle, m.physicalDevice).Return([]khr_surface.PresentMode{
		khr_surface.PresentModeFIFO,
	}, core1_0.VKSuccess, nil).Times(times)
}
