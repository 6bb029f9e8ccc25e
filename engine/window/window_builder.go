package window

// WindowBuilderOption configures a window before it is created.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the initial title bar text.
//
// Parameters:
//   - title: the window title
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the requested window size. Non-positive values keep the default. On high-DPI
// displays the framebuffer reported by Width and Height may be larger.
//
// Parameters:
//   - width, height: size in screen coordinates
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 {
			w.width = width
		}
		if height > 0 {
			w.height = height
		}
	}
}

// WithMinSize bounds how small the window may be resized. Zero removes the bound.
//
// Parameters:
//   - width, height: the minimum size
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMinSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.limits.minWidth, w.limits.minHeight = width, height
	}
}

// WithMaxSize bounds how large the window may be resized. Zero removes the bound, and a
// maximum below the minimum is ignored.
//
// Parameters:
//   - width, height: the maximum size
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMaxSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.limits.maxWidth, w.limits.maxHeight = width, height
	}
}
