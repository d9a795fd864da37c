// Package config reads the triangle's settings from the environment,
// optionally seeded from a .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
)

const (
	KeyWidth          = "TRIANGLE_WIDTH"
	KeyHeight         = "TRIANGLE_HEIGHT"
	KeyTitle          = "TRIANGLE_TITLE"
	KeyVertexShader   = "TRIANGLE_VERTEX_SHADER"
	KeyFragmentShader = "TRIANGLE_FRAGMENT_SHADER"
	KeyValidation     = "TRIANGLE_VALIDATION"
	KeyFenceTimeout   = "TRIANGLE_FENCE_TIMEOUT"
	KeyMaxFrames      = "TRIANGLE_MAX_FRAMES"
	KeyClearColor     = "TRIANGLE_CLEAR_COLOR"
	KeyLogLevel       = "TRIANGLE_LOG_LEVEL"
	KeyLogFormat      = "TRIANGLE_LOG_FORMAT"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Width  int
	Height int
	Title  string

	VertexShader   string
	FragmentShader string

	Validation   bool
	FenceTimeout time.Duration
	MaxFrames    int
	ClearColor   mgl32.Vec4

	LogLevel  string
	LogFormat string
}

func Default() Config {
	return Config{
		Width:          800,
		Height:         600,
		Title:          "Vulkan",
		VertexShader:   "vert.spv",
		FragmentShader: "frag.spv",
		ClearColor:     mgl32.Vec4{0, 0, 0, 1},
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load reads envFile into the environment if it exists, then builds a Config
// from the TRIANGLE_* variables. Unset variables keep their defaults.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Config{}, errors.Wrapf(err, "loading %s", envFile)
			}
		}
	}
	// envy snapshots the environment; pick up anything set since.
	envy.Reload()

	cfg := Default()
	var err error

	if cfg.Width, err = intVar(KeyWidth, cfg.Width); err != nil {
		return Config{}, err
	}
	if cfg.Height, err = intVar(KeyHeight, cfg.Height); err != nil {
		return Config{}, err
	}
	if cfg.MaxFrames, err = intVar(KeyMaxFrames, cfg.MaxFrames); err != nil {
		return Config{}, err
	}

	cfg.Title = envy.Get(KeyTitle, cfg.Title)
	cfg.VertexShader = envy.Get(KeyVertexShader, cfg.VertexShader)
	cfg.FragmentShader = envy.Get(KeyFragmentShader, cfg.FragmentShader)
	cfg.LogLevel = envy.Get(KeyLogLevel, cfg.LogLevel)
	cfg.LogFormat = envy.Get(KeyLogFormat, cfg.LogFormat)

	validation := envy.Get(KeyValidation, strconv.FormatBool(cfg.Validation))
	if cfg.Validation, err = strconv.ParseBool(validation); err != nil {
		return Config{}, errors.Mark(errors.Wrapf(err, "%s", KeyValidation), ErrInvalid)
	}

	timeout := envy.Get(KeyFenceTimeout, "0")
	if timeout == "0" {
		cfg.FenceTimeout = 0
	} else if cfg.FenceTimeout, err = time.ParseDuration(timeout); err != nil {
		return Config{}, errors.Mark(errors.Wrapf(err, "%s", KeyFenceTimeout), ErrInvalid)
	}

	if raw := envy.Get(KeyClearColor, ""); raw != "" {
		if cfg.ClearColor, err = ParseColor(raw); err != nil {
			return Config{}, errors.Wrapf(err, "%s", KeyClearColor)
		}
	}

	return cfg, cfg.Validate()
}

func intVar(key string, fallback int) (int, error) {
	raw := envy.Get(key, strconv.Itoa(fallback))
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.Mark(errors.Wrapf(err, "%s", key), ErrInvalid)
	}
	return v, nil
}

// ParseColor reads "r,g,b,a" with each component in [0,1].
func ParseColor(raw string) (mgl32.Vec4, error) {
	var color mgl32.Vec4

	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return color, errors.Mark(errors.Newf("clear color %q needs 4 components, got %d", raw, len(parts)), ErrInvalid)
	}

	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return color, errors.Mark(errors.Wrapf(err, "clear color component %d", i), ErrInvalid)
		}
		color[i] = float32(v)
	}

	return color, nil
}

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Mark(errors.Newf("window size %dx%d must be positive", c.Width, c.Height), ErrInvalid)
	}

	for i, v := range c.ClearColor {
		if v < 0 || v > 1 {
			return errors.Mark(errors.Newf("clear color component %d is %v, outside [0,1]", i, v), ErrInvalid)
		}
	}

	if c.MaxFrames < 0 {
		return errors.Mark(errors.Newf("max frames %d is negative", c.MaxFrames), ErrInvalid)
	}

	if c.FenceTimeout < 0 {
		return errors.Mark(errors.Newf("fence timeout %s is negative", c.FenceTimeout), ErrInvalid)
	}

	if c.VertexShader == "" || c.FragmentShader == "" {
		return errors.Mark(errors.New("shader names must not be empty"), ErrInvalid)
	}

	return nil
}
