package renderer

import (
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// DrawableSizer reports the window's framebuffer size in pixels.
type DrawableSizer interface {
	DrawableSize() (width, height int)
}

// Swapchain owns the presentable images, one view per image, and the
// negotiated format and extent.
type Swapchain struct {
	extension khr_swapchain.ExtensionDriver
	device    *Device

	Handle      khr_swapchain.Swapchain
	Images      []core1_0.Image
	ImageViews  []core1_0.ImageView
	Format      core1_0.Format
	ColorSpace  khr_surface.ColorSpace
	PresentMode khr_surface.PresentMode
	Extent      core1_0.Extent2D
}

func chooseSwapSurfaceFormat(availableFormats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range availableFormats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}

	return availableFormats[0]
}

func chooseSwapPresentMode(availablePresentModes []khr_surface.PresentMode) khr_surface.PresentMode {
	for _, presentMode := range availablePresentModes {
		if presentMode == khr_surface.PresentModeMailbox {
			return presentMode
		}
	}

	return khr_surface.PresentModeFIFO
}

// extentUndefined reports the "size is decided by the swapchain" sentinel,
// which arrives as either -1 or 0xFFFFFFFF depending on how it was widened.
func extentUndefined(extent core1_0.Extent2D) bool {
	return extent.Width == -1 || int64(extent.Width) == math.MaxUint32
}

func chooseSwapExtent(capabilities *khr_surface.SurfaceCapabilities, window DrawableSizer) core1_0.Extent2D {
	if !extentUndefined(capabilities.CurrentExtent) {
		return capabilities.CurrentExtent
	}

	width, height := window.DrawableSize()

	if width < capabilities.MinImageExtent.Width {
		width = capabilities.MinImageExtent.Width
	}
	if width > capabilities.MaxImageExtent.Width {
		width = capabilities.MaxImageExtent.Width
	}
	if height < capabilities.MinImageExtent.Height {
		height = capabilities.MinImageExtent.Height
	}
	if height > capabilities.MaxImageExtent.Height {
		height = capabilities.MaxImageExtent.Height
	}

	return core1_0.Extent2D{Width: width, Height: height}
}

// chooseImageCount asks for one image more than the minimum, capped by the
// maximum when the surface declares one (0 means no maximum).
func chooseImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	imageCount := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && capabilities.MaxImageCount < imageCount {
		imageCount = capabilities.MaxImageCount
	}
	return imageCount
}

// chooseSharingMode shares images between the graphics and present families
// only when they differ.
func chooseSharingMode(indices QueueFamilyIndices) (core1_0.SharingMode, []int) {
	if *indices.GraphicsFamily != *indices.PresentFamily {
		return core1_0.SharingModeConcurrent, []int{*indices.GraphicsFamily, *indices.PresentFamily}
	}

	return core1_0.SharingModeExclusive, nil
}

func imageViewCreateInfo(image core1_0.Image, format core1_0.Format) core1_0.ImageViewCreateInfo {
	return core1_0.ImageViewCreateInfo{
		Image:    image,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		Components: core1_0.ComponentMapping{
			R: core1_0.ComponentSwizzleIdentity,
			G: core1_0.ComponentSwizzleIdentity,
			B: core1_0.ComponentSwizzleIdentity,
			A: core1_0.ComponentSwizzleIdentity,
		},
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     core1_0.ImageAspectColor,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
}

var swapchainExtensionFor = func(driver core1_0.CoreDeviceDriver) khr_swapchain.ExtensionDriver {
	return khr_swapchain.CreateExtensionDriverFromCoreDriver(driver)
}

// CreateSwapchain negotiates format, present mode, extent and image count
// against freshly queried surface support, then creates the chain and views.
func CreateSwapchain(log logrus.FieldLogger, instance *Instance, device *Device, window DrawableSizer) (*Swapchain, error) {
	swapchainSupport, err := instanceProbe{instance: instance}.SwapChainSupport(device.PhysicalDevice)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "query surface support"), ErrChainCreation)
	}
	if !swapchainSupport.Adequate() {
		return nil, errors.Mark(errors.New("surface reports no formats or present modes"), ErrChainCreation)
	}

	surfaceFormat := chooseSwapSurfaceFormat(swapchainSupport.Formats)
	presentMode := chooseSwapPresentMode(swapchainSupport.PresentModes)
	extent := chooseSwapExtent(swapchainSupport.Capabilities, window)
	imageCount := chooseImageCount(swapchainSupport.Capabilities)
	sharingMode, queueFamilyIndices := chooseSharingMode(device.Indices)

	extension := swapchainExtensionFor(device.Driver)
	handle, res, err := extension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: instance.Surface,

		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   swapchainSupport.Capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,
	})
	if err != nil {
		return nil, chainError("vkCreateSwapchainKHR", res, err)
	}

	swapchain := &Swapchain{
		extension:   extension,
		device:      device,
		Handle:      handle,
		Format:      surfaceFormat.Format,
		ColorSpace:  surfaceFormat.ColorSpace,
		PresentMode: presentMode,
		Extent:      extent,
	}

	images, res, err := extension.GetSwapchainImages(handle)
	if err != nil {
		swapchain.Destroy()
		return nil, chainError("vkGetSwapchainImagesKHR", res, err)
	}
	swapchain.Images = images

	for _, image := range images {
		view, res, err := device.Driver.CreateImageView(nil, imageViewCreateInfo(image, surfaceFormat.Format))
		if err != nil {
			swapchain.Destroy()
			return nil, chainError("vkCreateImageView", res, err)
		}

		swapchain.ImageViews = append(swapchain.ImageViews, view)
	}

	log.WithFields(logrus.Fields{
		"format":       surfaceFormat.Format,
		"color_space":  surfaceFormat.ColorSpace,
		"present_mode": presentMode,
		"extent":       extent,
		"images":       len(images),
		"sharing":      sharingMode,
	}).Info("swapchain created")

	return swapchain, nil
}

// AcquireNextImage asks the presentation engine for the next image; signal
// is raised once the image can be rendered into.
func (s *Swapchain) AcquireNextImage(timeout time.Duration, signal core1_0.Semaphore) (int, common.VkResult, error) {
	return s.extension.AcquireNextImage(s.Handle, timeout, &signal, nil)
}

// Present queues imageIndex for display once wait has been signaled.
func (s *Swapchain) Present(queue core1_0.Queue, wait core1_0.Semaphore, imageIndex int) (common.VkResult, error) {
	return s.extension.QueuePresent(queue, khr_swapchain.PresentInfo{
		WaitSemaphores: []core1_0.Semaphore{wait},
		Swapchains:     []khr_swapchain.Swapchain{s.Handle},
		ImageIndices:   []int{imageIndex},
	})
}

// Destroy releases the views and the chain. The images belong to the chain.
func (s *Swapchain) Destroy() {
	for _, imageView := range s.ImageViews {
		s.device.Driver.DestroyImageView(imageView, nil)
	}
	s.ImageViews = nil

	if s.Handle.Initialized() {
		s.extension.DestroySwapchain(s.Handle, nil)
	}
}
