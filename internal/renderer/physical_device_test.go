package renderer

import (
	"testing"

	"github.com/cockroachdb/errors"
	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

type fakeDevice struct {
	name       string
	families   []core1_0.QueueFlags
	present    map[int]bool
	extensions []string
	support    SwapChainSupportDetails

	presentErr error
}

// fakeProbe answers from the fakeDevice and records which present queries ran.
type fakeProbe struct {
	presentQueries []int
}

func (p *fakeProbe) QueueFamilyFlags(device *fakeDevice) []core1_0.QueueFlags {
	return device.families
}

func (p *fakeProbe) SupportsPresent(device *fakeDevice, queueFamily int) (bool, error) {
	p.presentQueries = append(p.presentQueries, queueFamily)
	if device.presentErr != nil {
		return false, device.presentErr
	}
	return device.present[queueFamily], nil
}

func (p *fakeProbe) Extensions(device *fakeDevice) ([]string, error) {
	return device.extensions, nil
}

func (p *fakeProbe) SwapChainSupport(device *fakeDevice) (SwapChainSupportDetails, error) {
	return device.support, nil
}

func adequateSupport() SwapChainSupportDetails {
	return SwapChainSupportDetails{
		Capabilities: &khr_surface.SurfaceCapabilities{MinImageCount: 2},
		Formats: []khr_surface.SurfaceFormat{
			{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
		},
		PresentModes: []khr_surface.PresentMode{khr_surface.PresentModeFIFO},
	}
}

func goodDevice(name string) *fakeDevice {
	return &fakeDevice{
		name:       name,
		families:   []core1_0.QueueFlags{core1_0.QueueGraphics | core1_0.QueueTransfer},
		present:    map[int]bool{0: true},
		extensions: []string{khr_swapchain.ExtensionName},
		support:    adequateSupport(),
	}
}

func nullLogger() *logrus.Logger {
	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log
}

func TestSelectDeviceSkipsUnsuitable(t *testing.T) {
	noGraphics := goodDevice("compute-only")
	noGraphics.families = []core1_0.QueueFlags{core1_0.QueueCompute}

	noPresent := goodDevice("headless")
	noPresent.present = nil

	noExtension := goodDevice("no-swapchain")
	noExtension.extensions = []string{"VK_KHR_maintenance1"}

	noFormats := goodDevice("no-formats")
	noFormats.support.Formats = nil

	noPresentModes := goodDevice("no-present-modes")
	noPresentModes.support.PresentModes = nil

	tests := []struct {
		name   string
		reject *fakeDevice
	}{
		{"missing graphics", noGraphics},
		{"missing presentation", noPresent},
		{"missing extension", noExtension},
		{"empty formats", noFormats},
		{"empty present modes", noPresentModes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			selection, err := SelectDevice[*fakeDevice](nullLogger(), &fakeProbe{}, []*fakeDevice{tt.reject}, RequiredDeviceExtensions)
			c.Assert(errors.Is(err, ErrNoSuitableDevice), qt.IsTrue)
			c.Assert(selection.Device, qt.IsNil)

			fallback := goodDevice("fallback")
			selection, err = SelectDevice[*fakeDevice](nullLogger(), &fakeProbe{}, []*fakeDevice{tt.reject, fallback}, RequiredDeviceExtensions)
			c.Assert(err, qt.IsNil)
			c.Assert(selection.Device, qt.Equals, fallback)
			c.Assert(selection.Ordinal, qt.Equals, 1)
		})
	}
}

func TestSelectDeviceIsFirstFit(t *testing.T) {
	c := qt.New(t)

	first := goodDevice("first")
	second := goodDevice("second")
	second.support.PresentModes = []khr_surface.PresentMode{khr_surface.PresentModeMailbox, khr_surface.PresentModeFIFO}

	selection, err := SelectDevice[*fakeDevice](nullLogger(), &fakeProbe{}, []*fakeDevice{first, second}, RequiredDeviceExtensions)
	c.Assert(err, qt.IsNil)
	c.Assert(selection.Device, qt.Equals, first)
	c.Assert(selection.Ordinal, qt.Equals, 0)
	c.Assert(*selection.Indices.GraphicsFamily, qt.Equals, 0)
	c.Assert(*selection.Indices.PresentFamily, qt.Equals, 0)
}

func TestSelectDeviceNoGPU(t *testing.T) {
	c := qt.New(t)

	_, err := SelectDevice[*fakeDevice](nullLogger(), &fakeProbe{}, nil, RequiredDeviceExtensions)
	c.Assert(errors.Is(err, ErrNoGPU), qt.IsTrue)
	c.Assert(errors.Is(err, ErrNoSuitableDevice), qt.IsFalse)
}

func TestSelectDeviceProbeErrorDisqualifiesOnlyThatDevice(t *testing.T) {
	c := qt.New(t)

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	broken := goodDevice("broken")
	broken.presentErr = errors.New("surface lost")
	good := goodDevice("good")

	selection, err := SelectDevice[*fakeDevice](log, &fakeProbe{}, []*fakeDevice{broken, good}, RequiredDeviceExtensions)
	c.Assert(err, qt.IsNil)
	c.Assert(selection.Device, qt.Equals, good)

	c.Assert(hook.Entries, qt.HasLen, 1)
	c.Assert(hook.Entries[0].Data["device"], qt.Equals, 0)
	c.Assert(hook.Entries[0].Data[logrus.ErrorKey], qt.ErrorMatches, "surface lost")
}

func TestFindQueueFamiliesShortCircuits(t *testing.T) {
	c := qt.New(t)

	device := &fakeDevice{
		families: []core1_0.QueueFlags{
			core1_0.QueueTransfer,
			core1_0.QueueGraphics,
			core1_0.QueueGraphics,
			core1_0.QueueGraphics,
		},
		present: map[int]bool{0: true, 3: true},
	}
	probe := &fakeProbe{}

	indices, err := FindQueueFamilies[*fakeDevice](probe, device)
	c.Assert(err, qt.IsNil)
	c.Assert(*indices.GraphicsFamily, qt.Equals, 1)
	c.Assert(*indices.PresentFamily, qt.Equals, 0)
	c.Assert(probe.presentQueries, qt.DeepEquals, []int{0, 1})
}

func TestFindQueueFamiliesSharedFamily(t *testing.T) {
	c := qt.New(t)

	device := &fakeDevice{
		families: []core1_0.QueueFlags{core1_0.QueueCompute, core1_0.QueueGraphics},
		present:  map[int]bool{1: true},
	}

	indices, err := FindQueueFamilies[*fakeDevice](&fakeProbe{}, device)
	c.Assert(err, qt.IsNil)
	c.Assert(indices.IsComplete(), qt.IsTrue)
	c.Assert(*indices.GraphicsFamily, qt.Equals, 1)
	c.Assert(*indices.PresentFamily, qt.Equals, 1)
	c.Assert(UniqueQueueFamilies(indices), qt.DeepEquals, []int{1})
}

func TestFindQueueFamiliesIncomplete(t *testing.T) {
	c := qt.New(t)

	device := &fakeDevice{families: []core1_0.QueueFlags{core1_0.QueueGraphics}}

	indices, err := FindQueueFamilies[*fakeDevice](&fakeProbe{}, device)
	c.Assert(err, qt.IsNil)
	c.Assert(indices.IsComplete(), qt.IsFalse)
	c.Assert(indices.PresentFamily, qt.IsNil)
}

func TestUniqueQueueFamilies(t *testing.T) {
	c := qt.New(t)

	graphics, present := 0, 2
	families := UniqueQueueFamilies(QueueFamilyIndices{GraphicsFamily: &graphics, PresentFamily: &present})
	c.Assert(families, qt.DeepEquals, []int{0, 2})

	infos := queueCreateInfos(QueueFamilyIndices{GraphicsFamily: &graphics, PresentFamily: &present})
	c.Assert(infos, qt.HasLen, 2)
	for i, info := range infos {
		c.Check(info.QueueFamilyIndex, qt.Equals, families[i])
		c.Check(info.QueuePriorities, qt.DeepEquals, []float32{1.0})
	}
}

func TestRequireNames(t *testing.T) {
	c := qt.New(t)

	available := nameSet([]string{"VK_KHR_surface", "VK_KHR_xcb_surface"})

	c.Assert(RequireNames("instance extension", available, []string{"VK_KHR_surface"}), qt.IsNil)

	err := RequireNames("layer", available, []string{"VK_LAYER_a", "VK_KHR_surface", "VK_LAYER_b"})
	c.Assert(errors.Is(err, ErrCapabilityMissing), qt.IsTrue)

	var capErr *CapabilityError
	c.Assert(errors.As(err, &capErr), qt.IsTrue)
	c.Assert(capErr.Kind, qt.Equals, "layer")
	c.Assert(capErr.Missing, qt.DeepEquals, []string{"VK_LAYER_a", "VK_LAYER_b"})
}

func TestSortedKeys(t *testing.T) {
	c := qt.New(t)

	keys := sortedKeys(map[string]int{"b": 1, "a": 2, "c": 3})
	c.Assert(keys, qt.DeepEquals, []string{"a", "b", "c"})
}
