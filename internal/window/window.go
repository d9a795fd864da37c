// Package window is the SDL2 side of the renderer: it owns the native window,
// drains its event queue and hands out the Vulkan entry points SDL loaded.
package window

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	vkng_sdl2 "github.com/vkngwrapper/integrations/sdl2/v3"
)

// Window must be created, polled and destroyed on the main OS thread.
type Window struct {
	log    logrus.FieldLogger
	handle *sdl.Window
	closed bool
}

// Open initializes SDL video and creates a fixed-size Vulkan window.
func Open(log logrus.FieldLogger, title string, width, height int) (*Window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, errors.Wrap(err, "sdl init")
	}

	handle, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, int32(width), int32(height), sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN)
	if err != nil {
		sdl.Quit()
		return nil, errors.Wrap(err, "create window")
	}

	log.WithFields(logrus.Fields{
		"title":  title,
		"width":  width,
		"height": height,
	}).Debug("window opened")

	return &Window{log: log, handle: handle}, nil
}

// ProcAddr is vkGetInstanceProcAddr as loaded by SDL.
func (w *Window) ProcAddr() unsafe.Pointer {
	return sdl.VulkanGetVkGetInstanceProcAddr()
}

// InstanceExtensions are the instance extensions SDL needs to create a
// surface for this window.
func (w *Window) InstanceExtensions() []string {
	return w.handle.VulkanGetInstanceExtensions()
}

func (w *Window) CreateSurface(instance core1_0.Instance, extension khr_surface.ExtensionDriver) (khr_surface.Surface, error) {
	surface, err := vkng_sdl2.CreateSurface(instance, extension, w.handle)
	if err != nil {
		return surface, errors.Wrap(err, "create window surface")
	}
	return surface, nil
}

func (w *Window) DrawableSize() (width, height int) {
	x, y := w.handle.VulkanGetDrawableSize()
	return int(x), int(y)
}

// ShouldClose drains pending events and reports whether a quit was seen,
// now or earlier.
func (w *Window) ShouldClose() bool {
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			w.closed = true
		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_CLOSE {
				w.closed = true
			}
		}
	}

	if w.closed {
		w.log.Debug("window close requested")
	}
	return w.closed
}

func (w *Window) Destroy() {
	if w.handle != nil {
		if err := w.handle.Destroy(); err != nil {
			w.log.WithError(err).Warn("destroying window")
		}
		w.handle = nil
	}
	sdl.Quit()
}
