package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/vkngwrapper/core/v3"

	"github.com/vkngwrapper/triangle/internal/config"
	"github.com/vkngwrapper/triangle/internal/logging"
	"github.com/vkngwrapper/triangle/internal/renderer"
	"github.com/vkngwrapper/triangle/internal/shaders"
	"github.com/vkngwrapper/triangle/internal/window"
)

var validationLayers = []string{"VK_LAYER_KHRONOS_validation"}

func init() {
	// SDL and the Vulkan surface must stay on the main thread.
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stages, err := shaders.Load(ctx, shaders.Box(), cfg.VertexShader, cfg.FragmentShader)
	if err != nil {
		return err
	}

	win, err := window.Open(log, cfg.Title, cfg.Width, cfg.Height)
	if err != nil {
		return err
	}
	defer win.Destroy()

	globalDriver, err := core.CreateDriverFromProcAddr(win.ProcAddr())
	if err != nil {
		return err
	}

	r, err := renderer.New(log, globalDriver, win, renderer.Options{
		Instance: renderer.InstanceOptions{
			ApplicationName:  cfg.Title,
			Extensions:       win.InstanceExtensions(),
			ValidationLayers: validationLayers,
			EnableValidation: cfg.Validation,
		},
		VertexShader:   stages.Vertex,
		FragmentShader: stages.Fragment,
		Executor: renderer.ExecutorOptions{
			FenceTimeout: cfg.FenceTimeout,
			ClearColor:   cfg.ClearColor,
			MaxFrames:    cfg.MaxFrames,
		},
	})
	if err != nil {
		return err
	}
	defer r.Destroy()

	if err := r.Run(ctx, win); err != nil {
		return err
	}

	stats := r.Stats()
	log.WithFields(logrus.Fields{
		"frames":     stats.Frames,
		"mean_frame": stats.Mean(),
	}).Info("shutting down")

	return nil
}
