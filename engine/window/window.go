package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// Window is the viewer's platform window: a WebGPU surface source plus the input events the
// splat viewer reacts to.
type Window interface {
	// SetUpdateCallback sets the function called once per message loop iteration, on the
	// thread running ProcessMessages.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called with the new framebuffer size in pixels.
	//
	// Parameters:
	//   - callback: function receiving width and height
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the vertical scroll callback. Positive delta scrolls up.
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the key press callback. Held keys repeat.
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the key release callback.
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetMouseButtonCallback sets the callback for mouse button presses and releases.
	//
	// Parameters:
	//   - callback: function receiving the button (common.MouseButtonLeft, Right or Middle),
	//     whether it was pressed and the cursor position
	SetMouseButtonCallback(callback func(button int, pressed bool, x, y int32))

	// SetMouseMoveCallback sets the cursor movement callback.
	SetMouseMoveCallback(callback func(x, y int32))

	// SetDropCallback sets the callback receiving the paths of files dropped on the window.
	SetDropCallback(callback func(paths []string))

	// SetTitle replaces the title bar text. Must be called from the thread running
	// ProcessMessages, typically inside the update callback.
	SetTitle(title string)

	// SurfaceDescriptor returns the platform surface descriptor for WebGPU, or nil before the
	// window exists.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is still open.
	IsRunning() bool

	// Close destroys the window.
	//
	// Returns:
	//   - error: error if the window was never created
	Close() error

	// ProcessMessages polls events until the window closes, calling the update callback after
	// each poll.
	ProcessMessages()

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// sizeLimits bounds interactive resizing. Zero means unbounded.
type sizeLimits struct {
	minWidth, minHeight int
	maxWidth, maxHeight int
}

// normalized drops negative limits and maxima below their minima.
func (l sizeLimits) normalized() sizeLimits {
	l.minWidth, l.minHeight = max(l.minWidth, 0), max(l.minHeight, 0)
	l.maxWidth, l.maxHeight = max(l.maxWidth, 0), max(l.maxHeight, 0)
	if l.maxWidth > 0 && l.maxWidth < l.minWidth {
		l.maxWidth = 0
	}
	if l.maxHeight > 0 && l.maxHeight < l.minHeight {
		l.maxHeight = 0
	}
	return l
}

// callbacks groups the input handlers. Each may be nil.
type callbacks struct {
	update      func()
	resize      func(width, height int)
	scroll      func(delta float32)
	keyDown     func(keyCode uint32)
	keyUp       func(keyCode uint32)
	mouseButton func(button int, pressed bool, x, y int32)
	mouseMove   func(x, y int32)
	drop        func(paths []string)
}

type engineWindow struct {
	title  string
	width  int
	height int
	limits sizeLimits
	on     callbacks

	// internalWindow holds the platform window (*glfwWindow).
	internalWindow any
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window. It panics if the platform window cannot be created.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
func NewWindow(options ...WindowBuilderOption) Window {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	return w
}

// newEngineWindow applies the defaults and options without touching the platform.
func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		title:  "oxy-splat",
		width:  1280,
		height: 720,
		limits: sizeLimits{minWidth: 320, minHeight: 200},
	}
	for _, opt := range options {
		opt(w)
	}
	w.limits = w.limits.normalized()
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) { w.on.update = callback }

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) { w.on.resize = callback }

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) { w.on.scroll = callback }

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) { w.on.keyDown = callback }

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) { w.on.keyUp = callback }

func (w *engineWindow) SetMouseButtonCallback(callback func(button int, pressed bool, x, y int32)) {
	w.on.mouseButton = callback
}

func (w *engineWindow) SetMouseMoveCallback(callback func(x, y int32)) { w.on.mouseMove = callback }

func (w *engineWindow) SetDropCallback(callback func(paths []string)) { w.on.drop = callback }

func (w *engineWindow) SetTitle(title string) {
	w.title = title
	platformSetTitle(w, title)
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if !platformProcessMessages(w) {
			break
		}
		if w.on.update != nil {
			w.on.update()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// framebufferResized records a new framebuffer size and notifies the resize callback.
func (w *engineWindow) framebufferResized(width, height int) {
	if width == w.width && height == w.height {
		return
	}
	w.width, w.height = width, height
	if w.on.resize != nil {
		w.on.resize(width, height)
	}
}
