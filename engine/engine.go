package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-splat/common"
	"github.com/Carmen-Shannon/oxy-splat/engine/profiler"
	"github.com/Carmen-Shannon/oxy-splat/engine/splat"
)

// Scene is a layer the engine ticks and draws every frame.
// A splat.Engine is a Scene.
type Scene interface {
	// Active reports whether the scene takes part in ticks and frames.
	Active() bool

	// Tick runs the scene's logic update at the engine tick rate.
	Tick(dt float32)

	// Prepare runs once per frame on the render goroutine before any scene draws.
	Prepare(dt float32)

	// Draw records the scene's draw calls into the open frame.
	Draw() error

	// Resize updates the scene to the render target size in pixels.
	Resize(width, height int)

	// RenderScale returns the scene's preferred render resolution scale.
	RenderScale() float32
}

var _ Scene = splat.Engine(nil)

// FrameRenderer owns the per-frame surface lifecycle.
type FrameRenderer interface {
	BeginFrame() error
	EndFrame()
	Present()
	Resize(width, height int)
}

// Window is the part of the platform window the engine drives.
type Window interface {
	SetResizeCallback(callback func(width, height int))
	ProcessMessages()
	Width() int
	Height() int
}

// engine implements the Engine interface.
// Coordinates engine, render, and window threads.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window   Window
	renderer FrameRenderer

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	// mu guards scenes and the pending resize against the tick, render and window threads.
	mu     *sync.RWMutex
	scenes map[int]Scene

	// windowSize is the last framebuffer size reported by the window.
	windowSize [2]int
	// resizePending is set by the window thread and consumed by the render loop.
	resizePending bool
	// renderSize is the scaled size last applied to the renderer and scenes.
	renderSize [2]int

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main entry point for the engine.
// It orchestrates the engine loop, render loop, and window management.
type Engine interface {
	// Window returns the window the engine runs in, or nil when headless.
	//
	// Returns:
	//   - Window: the window instance
	Window() Window

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// Active scenes and the tick callback are called at this rate.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick, before the scenes tick.
	// Use this for input processing and camera motion.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each render frame.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene at the given z-index key.
	// Scenes are drawn in ascending key order during the render loop.
	//
	// Parameters:
	//   - key: the z-index determining draw order (lower draws first)
	//   - s: the Scene to register
	AddScene(key int, s Scene)

	// RemoveScene removes the scene at the given z-index key.
	//
	// Parameters:
	//   - key: the z-index of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given z-index key.
	// Returns nil if no scene exists at that key.
	//
	// Parameters:
	//   - key: the z-index of the scene to retrieve
	//
	// Returns:
	//   - Scene: the scene at the key, or nil if not found
	Scene(key int) Scene

	// Scenes returns a copy of all registered scenes keyed by z-index.
	//
	// Returns:
	//   - map[int]Scene: a copy of the scenes map
	Scenes() map[int]Scene

	// Run starts the engine loops and blocks until the window closes or Quit is called.
	Run()

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
//
// Parameters:
//   - options: functional options for engine configuration (window, renderer, scenes, tick rate)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		mu:              &sync.RWMutex{},
		scenes:          make(map[int]Scene),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler()
	}

	if e.window != nil {
		e.windowSize = [2]int{e.window.Width(), e.window.Height()}
		e.resizePending = true
		e.window.SetResizeCallback(e.onResize)
	}

	return e
}

func (e *engine) Window() Window {
	return e.window
}

func (e *engine) Run() {
	e.running = true
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
	e.running = false
}

func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handle launches the engine, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate tick loop. Fires the tick callback, then ticks every
// active scene. Listens for rate changes via tickRateChannel and exits on quit.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
			for _, s := range e.activeScenes() {
				s.Tick(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Every frame it opens the surface, prepares each active scene in ascending z-index order,
// records their draws into the single render pass and presents.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("engine: render goroutine recovered from panic", "panic", fmt.Sprint(r))
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		scenes := e.activeScenes()
		e.applyResize(scenes)
		e.renderFrame(scenes, dt)

		if e.renderCallback != nil {
			e.renderCallback(dt)
		}

		if e.profilingEnabled && e.profiler != nil {
			e.profiler.Tick()
		}

		if e.renderFrameLimit > 0 {
			elapsed := time.Since(lastRender)
			if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// renderFrame runs one BeginFrame, Prepare, Draw, EndFrame, Present cycle. Scenes are
// prepared even when no surface texture could be acquired so streaming keeps progressing.
func (e *engine) renderFrame(scenes []Scene, dt float32) {
	if len(scenes) == 0 {
		return
	}

	var frameErr error
	if e.renderer != nil {
		frameErr = e.renderer.BeginFrame()
	}
	for _, s := range scenes {
		s.Prepare(dt)
	}
	if e.renderer == nil {
		return
	}
	if frameErr != nil {
		common.Logger().Debug("engine: skipping frame", "err", frameErr)
		return
	}

	for _, s := range scenes {
		if err := s.Draw(); err != nil {
			common.Logger().Warn("engine: scene draw failed", "err", err)
		}
	}
	e.renderer.EndFrame()
	e.renderer.Present()
}

// onResize records a new framebuffer size from the window thread.
func (e *engine) onResize(width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.windowSize = [2]int{width, height}
	e.resizePending = true
}

// applyResize resizes the renderer and scenes on the render goroutine when the window size
// or the leading scene's render scale changed.
func (e *engine) applyResize(scenes []Scene) {
	scale := float32(1)
	if len(scenes) > 0 {
		if s := scenes[0].RenderScale(); s > 0 {
			scale = s
		}
	}

	e.mu.Lock()
	window := e.windowSize
	pending := e.resizePending
	e.resizePending = false
	e.mu.Unlock()

	if window[0] <= 0 || window[1] <= 0 {
		return
	}
	size := [2]int{
		max(1, int(float32(window[0])*scale)),
		max(1, int(float32(window[1])*scale)),
	}
	if !pending && size == e.renderSize {
		return
	}
	e.renderSize = size

	if e.renderer != nil {
		e.renderer.Resize(size[0], size[1])
	}
	for _, s := range e.Scenes() {
		s.Resize(size[0], size[1])
	}
	common.Logger().Debug("engine: render target resized",
		"window", fmt.Sprintf("%dx%d", window[0], window[1]), "scale", scale,
		"render", fmt.Sprintf("%dx%d", size[0], size[1]))
}

// activeScenes returns the active scenes in ascending z-index order.
func (e *engine) activeScenes() []Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()

	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	active := make([]Scene, 0, len(keys))
	for _, k := range keys {
		if s := e.scenes[k]; s.Active() {
			active = append(active, s)
		}
	}
	return active
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if !e.running {
		e.engineTickRate = newRate
		return
	}
	// Replace any pending update so the latest rate wins.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) AddScene(key int, s Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes[key] = s
	e.resizePending = true
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cp := make(map[int]Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}
