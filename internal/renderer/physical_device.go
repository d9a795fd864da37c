package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// RequiredDeviceExtensions are the device extensions every selected GPU must advertise.
var RequiredDeviceExtensions = []string{khr_swapchain.ExtensionName}

type QueueFamilyIndices struct {
	GraphicsFamily *int
	PresentFamily  *int
}

func (i *QueueFamilyIndices) IsComplete() bool {
	return i.GraphicsFamily != nil && i.PresentFamily != nil
}

// SwapChainSupportDetails is what a surface offers when paired with one device.
type SwapChainSupportDetails struct {
	Capabilities *khr_surface.SurfaceCapabilities
	Formats      []khr_surface.SurfaceFormat
	PresentModes []khr_surface.PresentMode
}

// Adequate reports whether a swapchain can be negotiated at all.
func (d SwapChainSupportDetails) Adequate() bool {
	return d.Capabilities != nil && len(d.Formats) > 0 && len(d.PresentModes) > 0
}

// DeviceProbe answers the questions device selection asks about a candidate.
// Every answer is queried fresh; nothing is cached between candidates.
type DeviceProbe[D any] interface {
	QueueFamilyFlags(device D) []core1_0.QueueFlags
	SupportsPresent(device D, queueFamily int) (bool, error)
	Extensions(device D) ([]string, error)
	SwapChainSupport(device D) (SwapChainSupportDetails, error)
}

// Selection is the device chosen by SelectDevice along with what was
// resolved for it during selection.
type Selection[D any] struct {
	Device  D
	Ordinal int
	Indices QueueFamilyIndices
	Support SwapChainSupportDetails
}

// FindQueueFamilies scans queue families in index order and stops as soon as
// both a graphics and a present family are known. A family that can do both
// lands in both slots.
func FindQueueFamilies[D any](probe DeviceProbe[D], device D) (QueueFamilyIndices, error) {
	indices := QueueFamilyIndices{}

	for queueFamilyIdx, flags := range probe.QueueFamilyFlags(device) {
		if (flags & core1_0.QueueGraphics) != 0 {
			indices.GraphicsFamily = new(int)
			*indices.GraphicsFamily = queueFamilyIdx
		}

		supported, err := probe.SupportsPresent(device, queueFamilyIdx)
		if err != nil {
			return indices, err
		}

		if supported {
			indices.PresentFamily = new(int)
			*indices.PresentFamily = queueFamilyIdx
		}

		if indices.IsComplete() {
			break
		}
	}

	return indices, nil
}

func checkDeviceExtensionSupport[D any](probe DeviceProbe[D], device D, required []string) (bool, error) {
	extensions, err := probe.Extensions(device)
	if err != nil {
		return false, err
	}

	return len(MissingNames(nameSet(extensions), required)) == 0, nil
}

// SelectDevice returns the first candidate, in enumeration order, whose queue
// families are complete, which supports every required extension and whose
// surface support is adequate. There is no ranking.
func SelectDevice[D any](log logrus.FieldLogger, probe DeviceProbe[D], candidates []D, requiredExtensions []string) (Selection[D], error) {
	if len(candidates) == 0 {
		return Selection[D]{}, errors.WithStack(ErrNoGPU)
	}

	for ordinal, device := range candidates {
		deviceLog := log.WithField("device", ordinal)

		indices, err := FindQueueFamilies(probe, device)
		if err != nil {
			deviceLog.WithError(err).Debug("queue family scan failed")
			continue
		}

		extensionsSupported, err := checkDeviceExtensionSupport(probe, device, requiredExtensions)
		if err != nil {
			deviceLog.WithError(err).Debug("extension query failed")
			continue
		}

		var support SwapChainSupportDetails
		if extensionsSupported {
			support, err = probe.SwapChainSupport(device)
			if err != nil {
				deviceLog.WithError(err).Debug("surface support query failed")
				continue
			}
		}

		if !indices.IsComplete() || !extensionsSupported || !support.Adequate() {
			deviceLog.WithFields(logrus.Fields{
				"queues_complete": indices.IsComplete(),
				"extensions":      extensionsSupported,
				"swapchain":       support.Adequate(),
			}).Debug("device rejected")
			continue
		}

		return Selection[D]{
			Device:  device,
			Ordinal: ordinal,
			Indices: indices,
			Support: support,
		}, nil
	}

	return Selection[D]{}, errors.Wrapf(ErrNoSuitableDevice, "checked %d devices", len(candidates))
}

// instanceProbe answers DeviceProbe questions against a live instance and surface.
type instanceProbe struct {
	instance *Instance
}

func (p instanceProbe) QueueFamilyFlags(device core1_0.PhysicalDevice) []core1_0.QueueFlags {
	queueFamilies := p.instance.Driver.GetPhysicalDeviceQueueFamilyProperties(device)

	flags := make([]core1_0.QueueFlags, 0, len(queueFamilies))
	for _, queueFamily := range queueFamilies {
		flags = append(flags, queueFamily.QueueFlags)
	}
	return flags
}

func (p instanceProbe) SupportsPresent(device core1_0.PhysicalDevice, queueFamily int) (bool, error) {
	supported, _, err := p.instance.surfaceExtension.GetPhysicalDeviceSurfaceSupport(p.instance.Surface, device, queueFamily)
	return supported, err
}

func (p instanceProbe) Extensions(device core1_0.PhysicalDevice) ([]string, error) {
	extensions, _, err := p.instance.Driver.EnumerateDeviceExtensionProperties(device)
	if err != nil {
		return nil, err
	}

	return sortedKeys(extensions), nil
}

func (p instanceProbe) SwapChainSupport(device core1_0.PhysicalDevice) (SwapChainSupportDetails, error) {
	var details SwapChainSupportDetails
	var err error

	details.Capabilities, _, err = p.instance.surfaceExtension.GetPhysicalDeviceSurfaceCapabilities(p.instance.Surface, device)
	if err != nil {
		return details, err
	}

	details.Formats, _, err = p.instance.surfaceExtension.GetPhysicalDeviceSurfaceFormats(p.instance.Surface, device)
	if err != nil {
		return details, err
	}

	details.PresentModes, _, err = p.instance.surfaceExtension.GetPhysicalDeviceSurfacePresentModes(p.instance.Surface, device)
	return details, err
}

// PickPhysicalDevice enumerates the instance's GPUs and selects one for the instance surface.
func PickPhysicalDevice(log logrus.FieldLogger, instance *Instance) (Selection[core1_0.PhysicalDevice], error) {
	physicalDevices, _, err := instance.Driver.EnumeratePhysicalDevices()
	if err != nil {
		return Selection[core1_0.PhysicalDevice]{}, errors.Wrap(err, "enumerate physical devices")
	}

	return SelectDevice[core1_0.PhysicalDevice](log, instanceProbe{instance: instance}, physicalDevices, RequiredDeviceExtensions)
}
