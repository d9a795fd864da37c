package renderer

import (
	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_portability_enumeration"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

// SurfaceFactory creates the presentation surface for an instance. The
// window collaborator owns how that happens.
type SurfaceFactory interface {
	CreateSurface(instance core1_0.Instance, extension khr_surface.ExtensionDriver) (khr_surface.Surface, error)
}

type InstanceOptions struct {
	ApplicationName string
	// Extensions are the instance extensions the window system needs.
	Extensions []string
	// ValidationLayers are enabled only when EnableValidation is set, and
	// then all of them must be present.
	ValidationLayers []string
	EnableValidation bool
}

// Instance is the first link of the ownership chain: the Vulkan instance and
// the surface it presents to.
type Instance struct {
	Driver  core1_0.CoreInstanceDriver
	Surface khr_surface.Surface

	surfaceExtension khr_surface.ExtensionDriver
}

// surfaceExtensionFor is replaced in tests with a mock extension driver.
var surfaceExtensionFor = func(driver core1_0.CoreInstanceDriver) khr_surface.ExtensionDriver {
	return khr_surface.CreateExtensionDriverFromCoreDriver(driver)
}

// CreateInstance checks that every required extension and layer is available
// before creating the instance, then creates the presentation surface.
func CreateInstance(log logrus.FieldLogger, globalDriver core1_0.GlobalDriver, surfaces SurfaceFactory, options InstanceOptions) (*Instance, error) {
	instanceOptions := core1_0.InstanceCreateInfo{
		ApplicationName:    options.ApplicationName,
		ApplicationVersion: common.CreateVersion(1, 0, 0),
		EngineName:         "No Engine",
		EngineVersion:      common.CreateVersion(1, 0, 0),
		APIVersion:         common.Vulkan1_2,
	}

	extensions, _, err := globalDriver.AvailableExtensions()
	if err != nil {
		return nil, errors.Wrap(err, "query instance extensions")
	}
	log.WithField("available", len(extensions)).Debug("instance extensions")

	if err := RequireNames("instance extensions", extensions, options.Extensions); err != nil {
		return nil, errors.WithStack(err)
	}
	instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, options.Extensions...)

	_, enumerationSupported := extensions[khr_portability_enumeration.ExtensionName]
	if enumerationSupported {
		instanceOptions.EnabledExtensionNames = append(instanceOptions.EnabledExtensionNames, khr_portability_enumeration.ExtensionName)
		instanceOptions.Flags |= khr_portability_enumeration.InstanceCreateEnumeratePortability
	}

	var layerNames []string
	if options.EnableValidation {
		layers, _, err := globalDriver.AvailableLayers()
		if err != nil {
			return nil, errors.Wrap(err, "query instance layers")
		}

		if err := RequireNames("validation layers", layers, options.ValidationLayers); err != nil {
			return nil, errors.WithStack(err)
		}
		layerNames = append(layerNames, options.ValidationLayers...)
		instanceOptions.EnabledLayerNames = layerNames
	}

	instanceDriver, _, err := globalDriver.CreateInstance(nil, instanceOptions)
	if err != nil {
		return nil, errors.Wrap(err, "create instance")
	}

	surfaceExtension := surfaceExtensionFor(instanceDriver)
	surface, err := surfaces.CreateSurface(instanceDriver.Instance(), surfaceExtension)
	if err != nil {
		instanceDriver.DestroyInstance(nil)
		return nil, errors.Wrap(err, "create surface")
	}

	log.WithFields(logrus.Fields{
		"extensions": instanceOptions.EnabledExtensionNames,
		"layers":     layerNames,
	}).Info("instance created")

	return &Instance{
		Driver:           instanceDriver,
		Surface:          surface,
		surfaceExtension: surfaceExtension,
	}, nil
}

func (i *Instance) Destroy() {
	if i.Surface.Initialized() {
		i.surfaceExtension.DestroySurface(i.Surface, nil)
	}

	if i.Driver != nil {
		i.Driver.DestroyInstance(nil)
	}
}
