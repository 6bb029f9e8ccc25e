package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-splat/common"
	"github.com/Carmen-Shannon/oxy-splat/engine/game_object"
	"github.com/Carmen-Shannon/oxy-splat/engine/renderer"
	"github.com/Carmen-Shannon/oxy-splat/engine/splat"
)

// vec3 is a flag.Value parsed from "x,y,z".
type vec3 [3]float32

func (v *vec3) String() string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g,%g", v[0], v[1], v[2])
}

func (v *vec3) Set(s string) error {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return fmt.Errorf("want three comma separated numbers, got %q", s)
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return fmt.Errorf("component %d: %w", i, err)
		}
		v[i] = float32(f)
	}
	return nil
}

// config holds the viewer's command line.
type config struct {
	src          string
	width        int
	height       int
	radius       vec3
	discard      float64
	effect       string
	tint         vec3
	depthWrite   bool
	pixelRatio   float64
	xrPixelRatio float64
	threshold    int
	logLevel     string
	profile      bool
	vsync        bool
	msaa         int
	distance     float64

	position vec3
	rotation vec3
	scale    vec3
	spin     float64
}

// parseFlags parses args into a config. Defaults mirror splat.DefaultSettings.
func parseFlags(args []string, output io.Writer) (config, error) {
	defaults := splat.DefaultSettings()
	cfg := config{
		radius: vec3(defaults.DisplayRadius),
		tint:   vec3(defaults.Tint),
		scale:  vec3{1, 1, 1},
	}

	fs := flag.NewFlagSet("splatview", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.src, "src", "", "splat source: http(s) URL, file:// URL or path to a .splat or .ply file")
	fs.IntVar(&cfg.width, "width", 1280, "window width in pixels")
	fs.IntVar(&cfg.height, "height", 720, "window height in pixels")
	fs.Var(&cfg.radius, "radius", "display radius as x,y,z half extents")
	fs.Float64Var(&cfg.discard, "discard", float64(defaults.DiscardFilter), "discard fragments below this alpha")
	fs.StringVar(&cfg.effect, "effect", defaults.ColorEffect.String(), "color effect: none, grayscale or tint")
	fs.Var(&cfg.tint, "tint", "tint color as r,g,b in [0, 1]")
	fs.BoolVar(&cfg.depthWrite, "depth-write", defaults.DepthWrite, "write splat depth")
	fs.Float64Var(&cfg.pixelRatio, "pixel-ratio", float64(defaults.PixelRatio), "render resolution scale")
	fs.Float64Var(&cfg.xrPixelRatio, "xr-pixel-ratio", float64(defaults.XRPixelRatio), "render resolution scale in immersive mode")
	fs.IntVar(&cfg.threshold, "threshold", 0, "minimum bytes per ingest batch (0 = loader default)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	fs.BoolVar(&cfg.profile, "profile", false, "log frame and splat statistics every second")
	fs.BoolVar(&cfg.vsync, "vsync", false, "wait for vertical blank instead of presenting immediately")
	fs.IntVar(&cfg.msaa, "msaa", 1, "multisample count: 1, 4, 8 or 16")
	fs.Float64Var(&cfg.distance, "distance", 5, "initial camera distance from the orbit target")
	fs.Var(&cfg.position, "position", "object translation as x,y,z")
	fs.Var(&cfg.rotation, "rotation", "object rotation as x,y,z in degrees")
	fs.Var(&cfg.scale, "scale", "object scale as x,y,z")
	fs.Float64Var(&cfg.spin, "spin", 0, "turntable speed around Y in degrees per second")

	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if fs.NArg() > 0 && cfg.src == "" {
		cfg.src = fs.Arg(0)
	}
	if cfg.width <= 0 || cfg.height <= 0 {
		return config{}, fmt.Errorf("window size %dx%d must be positive", cfg.width, cfg.height)
	}
	if cfg.distance <= 0 {
		return config{}, fmt.Errorf("camera distance %g must be positive", cfg.distance)
	}
	if _, err := renderer.ParseMSAA(cfg.msaa); err != nil {
		return config{}, err
	}
	return cfg, nil
}

// settings converts the flags into the splat engine's runtime configuration.
func (c config) settings() (splat.Settings, error) {
	effect, err := splat.ParseColorEffect(c.effect)
	if err != nil {
		return splat.Settings{}, err
	}
	s := splat.DefaultSettings()
	s.DisplayRadius = [3]float32(c.radius)
	s.DiscardFilter = float32(c.discard)
	s.ColorEffect = effect
	s.Tint = [3]float32(c.tint)
	s.DepthWrite = c.depthWrite
	// Non-positive ratios fall back to the defaults.
	s.PixelRatio = common.Coalesce(float32(max(c.pixelRatio, 0)), s.PixelRatio)
	s.XRPixelRatio = common.Coalesce(float32(max(c.xrPixelRatio, 0)), s.XRPixelRatio)
	return s, nil
}

// object builds the transform that places the splats in the world.
func (c config) object() game_object.GameObject {
	rad := func(deg float32) float32 { return deg * math.Pi / 180 }
	return game_object.NewGameObject(
		game_object.WithPosition(c.position[0], c.position[1], c.position[2]),
		game_object.WithRotation(rad(c.rotation[0]), rad(c.rotation[1]), rad(c.rotation[2])),
		game_object.WithScale(c.scale[0], c.scale[1], c.scale[2]),
		game_object.WithRotationSpeed(0, rad(float32(c.spin)), 0),
	)
}

// presentation returns the present mode and sample count chosen on the command line.
// parseFlags has already validated the sample count.
func (c config) presentation() (renderer.PresentMode, renderer.MSAASampleCount) {
	mode := renderer.PresentModeUncapped
	if c.vsync {
		mode = renderer.PresentModeVSync
	}
	msaa, err := renderer.ParseMSAA(c.msaa)
	if err != nil {
		msaa = renderer.MSAAOff
	}
	return mode, msaa
}

// rendererOptions maps the presentation flags onto renderer options.
func (c config) rendererOptions() []renderer.RendererBuilderOption {
	mode, msaa := c.presentation()
	return []renderer.RendererBuilderOption{
		renderer.WithPresentMode(mode),
		renderer.WithMSAA(msaa),
	}
}

func (c config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.logLevel)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}
