// Command splatview streams a Gaussian splat file into a window and renders it.
//
//	splatview -src https://example.com/scene.splat
//
// -position, -rotation and -scale place the splats in the world and -spin turns them
// around Y. Left drag orbits, right drag pans, the scroll wheel zooms. WASD and Q/E orbit and dolly
// from the keyboard, R reloads the source, Space toggles depth writes and 0/1/2 select the
// color effect. Dropping a .splat or .ply file on the window loads it in place of the current
// source.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-splat/common"
	"github.com/Carmen-Shannon/oxy-splat/engine"
	"github.com/Carmen-Shannon/oxy-splat/engine/camera"
	"github.com/Carmen-Shannon/oxy-splat/engine/game_object"
	"github.com/Carmen-Shannon/oxy-splat/engine/loader"
	"github.com/Carmen-Shannon/oxy-splat/engine/profiler"
	"github.com/Carmen-Shannon/oxy-splat/engine/renderer"
	"github.com/Carmen-Shannon/oxy-splat/engine/splat"
	"github.com/Carmen-Shannon/oxy-splat/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

var _ splat.Renderer = renderer.Renderer(nil)

const (
	keyZoomStep    = 0.25
	titleRefresh   = 250 * time.Millisecond
	viewerTickRate = 60
)

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "splatview:", err)
		os.Exit(2)
	}
	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "splatview:", err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	level, err := cfg.level()
	if err != nil {
		return err
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	log := common.Logger()

	settings, err := cfg.settings()
	if err != nil {
		return err
	}

	win := window.NewWindow(
		window.WithTitle("splatview"),
		window.WithSize(cfg.width, cfg.height),
	)
	defer win.Close()

	r := renderer.NewRenderer(
		renderer.BackendTypeWGPU,
		win,
		append(cfg.rendererOptions(), renderer.WithClearColor(wgpu.Color{R: 0, G: 0, B: 0, A: 1}))...,
	)
	defer r.Release()

	cam := camera.NewCamera(
		camera.WithAspect(float32(win.Width())/float32(win.Height())),
		camera.WithController(camera.NewCameraController(
			camera.WithTarget(0, 0, 0),
			camera.WithOrbit(float32(cfg.distance), 0, 0.3),
		)),
	)

	obj := cfg.object()

	var loaderOptions []loader.LoaderBuilderOption
	if cfg.threshold > 0 {
		loaderOptions = append(loaderOptions, loader.WithThreshold(cfg.threshold))
	}
	splats := splat.NewEngine(r, cam,
		splat.WithSettings(settings),
		splat.WithViewport(win.Width(), win.Height()),
		splat.WithModelMatrix(obj.ModelMatrix()),
		splat.WithLoaderOptions(loaderOptions...),
	)
	defer splats.Close()
	log.Info("splatview: device ready", "max_texture_dimension", r.MaxTextureDimension(), "max_splats", splats.Capacity())

	prof := profiler.NewProfiler(profiler.WithCounters(func() profiler.Counters {
		st := splats.Stats()
		return profiler.Counters{Loaded: st.Loaded, Drawn: st.Drawn, Sorts: st.Sorts, Progress: st.Progress.Fraction()}
	}))

	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithRenderer(r),
		engine.WithScene(0, splats),
		engine.WithProfiler(prof),
		engine.WithProfiling(cfg.profile),
		engine.WithTickRate(viewerTickRate),
	)

	// src is only touched on the window thread: at startup and from input callbacks.
	src := cfg.src
	load := func() {
		if src == "" {
			return
		}
		if err := splats.Load(context.Background(), src); err != nil {
			log.Error("splatview: load", "src", src, "err", err)
		}
	}
	setupInput(win, eng, cam, obj, splats, load)
	win.SetDropCallback(func(paths []string) {
		src = paths[0]
		log.Info("splatview: loading dropped file", "src", src)
		load()
	})
	setupTitle(win, splats, func() string { return src })

	load()
	eng.Run()
	return splats.LoadErr()
}

// setupInput wires camera and settings controls to the window.
func setupInput(win window.Window, eng engine.Engine, cam camera.Camera, obj game_object.GameObject, splats splat.Engine, reload func()) {
	var mu sync.Mutex
	held := make(map[uint32]bool)

	win.SetKeyDownCallback(func(keyCode uint32) {
		mu.Lock()
		repeat := held[keyCode]
		held[keyCode] = true
		mu.Unlock()
		if repeat {
			return
		}

		switch keyCode {
		case common.KeyR:
			reload()
		case common.KeySpace:
			splats.SetDepthWrite(!splats.Settings().DepthWrite)
		case common.Key0:
			splats.SetColorEffect(splat.ColorEffectNone)
		case common.Key1:
			splats.SetColorEffect(splat.ColorEffectGrayscale)
		case common.Key2:
			splats.SetColorEffect(splat.ColorEffectTint)
		}
	})
	win.SetKeyUpCallback(func(keyCode uint32) {
		mu.Lock()
		defer mu.Unlock()
		held[keyCode] = false
	})

	eng.SetTickCallback(func(dt float32) {
		if obj.Update(dt) {
			splats.SetModelMatrix(obj.ModelMatrix())
		}

		mu.Lock()
		pressed := func(k uint32) bool { return held[k] }
		left, right := pressed(common.KeyA), pressed(common.KeyD)
		up, down := pressed(common.KeyE), pressed(common.KeyQ)
		in, out := pressed(common.KeyW), pressed(common.KeyS)
		mu.Unlock()

		ctrl := cam.Controller()
		switch {
		case left && !right:
			ctrl.OrbitLeft()
		case right && !left:
			ctrl.OrbitRight()
		}
		switch {
		case up && !down:
			ctrl.OrbitUp()
		case down && !up:
			ctrl.OrbitDown()
		}
		switch {
		case in && !out:
			ctrl.Zoom(keyZoomStep)
		case out && !in:
			ctrl.Zoom(-keyZoomStep)
		}
	})

	var dragButton = -1
	var lastX, lastY int32
	win.SetMouseButtonCallback(func(button int, pressed bool, x, y int32) {
		switch {
		case pressed && dragButton < 0:
			dragButton = button
			lastX, lastY = x, y
		case !pressed && button == dragButton:
			dragButton = -1
		}
	})
	win.SetMouseMoveCallback(func(x, y int32) {
		if dragButton < 0 {
			return
		}
		dx, dy := float32(x-lastX), float32(y-lastY)
		lastX, lastY = x, y
		switch dragButton {
		case common.MouseButtonLeft:
			cam.Controller().Orbit(dx, dy)
		case common.MouseButtonRight, common.MouseButtonMiddle:
			cam.Controller().Pan(dx, dy)
		}
	})
	win.SetScrollCallback(func(delta float32) {
		cam.Controller().Zoom(delta)
	})
}

// setupTitle shows load progress in the title bar. GLFW requires the title to be set from
// the event loop thread, so it is refreshed from the update callback.
func setupTitle(win window.Window, splats splat.Engine, source func() string) {
	var last time.Time
	var lastTitle string
	win.SetUpdateCallback(func() {
		if time.Since(last) < titleRefresh {
			return
		}
		last = time.Now()

		st := splats.Stats()
		title := "splatview"
		switch {
		case source() == "":
			title += " (no source)"
		case splats.LoadErr() != nil:
			title += " - load failed"
		case st.Loading:
			title += fmt.Sprintf(" - loading %.0f%% (%d splats)", st.Progress.Fraction()*100, st.Loaded)
		default:
			title += fmt.Sprintf(" - %d splats", st.Loaded)
		}
		if title != lastTitle {
			win.SetTitle(title)
			lastTitle = title
		}
	})
}
