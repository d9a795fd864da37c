package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_portability_subset"
)

// Device is the logical device built for a selected GPU, with the queues it
// renders and presents on.
type Device struct {
	Driver         core1_0.CoreDeviceDriver
	PhysicalDevice core1_0.PhysicalDevice
	Indices        QueueFamilyIndices

	GraphicsQueue core1_0.Queue
	PresentQueue  core1_0.Queue
}

// UniqueQueueFamilies lists each resolved queue family once, graphics first.
func UniqueQueueFamilies(indices QueueFamilyIndices) []int {
	uniqueQueueFamilies := []int{*indices.GraphicsFamily}
	if uniqueQueueFamilies[0] != *indices.PresentFamily {
		uniqueQueueFamilies = append(uniqueQueueFamilies, *indices.PresentFamily)
	}
	return uniqueQueueFamilies
}

func queueCreateInfos(indices QueueFamilyIndices) []core1_0.DeviceQueueCreateInfo {
	var queueFamilyOptions []core1_0.DeviceQueueCreateInfo
	queuePriority := float32(1.0)
	for _, queueFamily := range UniqueQueueFamilies(indices) {
		queueFamilyOptions = append(queueFamilyOptions, core1_0.DeviceQueueCreateInfo{
			QueueFamilyIndex: queueFamily,
			QueuePriorities:  []float32{queuePriority},
		})
	}
	return queueFamilyOptions
}

// CreateLogicalDevice creates the device for selection and fetches its queues.
func CreateLogicalDevice(log logrus.FieldLogger, instance *Instance, selection Selection[core1_0.PhysicalDevice]) (*Device, error) {
	if !selection.Indices.IsComplete() {
		return nil, errors.AssertionFailedf("queue families unresolved for device %d", selection.Ordinal)
	}

	var extensionNames []string
	extensionNames = append(extensionNames, RequiredDeviceExtensions...)

	extensions, _, err := instance.Driver.EnumerateDeviceExtensionProperties(selection.Device)
	if err != nil {
		return nil, errors.Wrap(err, "enumerate device extensions")
	}

	_, supported := extensions[khr_portability_subset.ExtensionName]
	if supported {
		extensionNames = append(extensionNames, khr_portability_subset.ExtensionName)
	}

	deviceDriver, _, err := instance.Driver.CreateDevice(selection.Device, nil, core1_0.DeviceCreateInfo{
		QueueCreateInfos:      queueCreateInfos(selection.Indices),
		EnabledFeatures:       &core1_0.PhysicalDeviceFeatures{},
		EnabledExtensionNames: extensionNames,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create logical device")
	}

	log.WithFields(logrus.Fields{
		"device":          selection.Ordinal,
		"graphics_family": *selection.Indices.GraphicsFamily,
		"present_family":  *selection.Indices.PresentFamily,
		"extensions":      extensionNames,
	}).Info("logical device created")

	return &Device{
		Driver:         deviceDriver,
		PhysicalDevice: selection.Device,
		Indices:        selection.Indices,
		GraphicsQueue:  deviceDriver.GetQueue(*selection.Indices.GraphicsFamily, 0),
		PresentQueue:   deviceDriver.GetQueue(*selection.Indices.PresentFamily, 0),
	}, nil
}

// WaitIdle blocks until every queue of the device has drained.
func (d *Device) WaitIdle() error {
	res, err := d.Driver.DeviceWaitIdle()
	if err != nil {
		return frameError("vkDeviceWaitIdle", res, err)
	}
	return nil
}

func (d *Device) Destroy() {
	if d.Driver != nil {
		d.Driver.DestroyDevice(nil)
	}
}
