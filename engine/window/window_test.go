package window

import "testing"

func TestNewEngineWindowDefaults(t *testing.T) {
	w := newEngineWindow()
	if w.title != "oxy-splat" || w.width != 1280 || w.height != 720 {
		t.Errorf("defaults = %q %dx%d", w.title, w.width, w.height)
	}
	if w.limits.maxWidth != 0 || w.limits.maxHeight != 0 {
		t.Errorf("default max size = %dx%d, want unbounded", w.limits.maxWidth, w.limits.maxHeight)
	}
}

func TestWindowOptions(t *testing.T) {
	w := newEngineWindow(
		WithTitle("splats"),
		WithSize(800, 0),
		WithMinSize(100, 50),
		WithMaxSize(1920, 1080),
	)
	if w.title != "splats" {
		t.Errorf("title = %q", w.title)
	}
	if w.width != 800 || w.height != 720 {
		t.Errorf("size = %dx%d, want 800x720", w.width, w.height)
	}
	want := sizeLimits{minWidth: 100, minHeight: 50, maxWidth: 1920, maxHeight: 1080}
	if w.limits != want {
		t.Errorf("limits = %+v, want %+v", w.limits, want)
	}
}

func TestSizeLimitsNormalized(t *testing.T) {
	tests := []struct {
		name string
		in   sizeLimits
		want sizeLimits
	}{
		{"unchanged", sizeLimits{10, 20, 30, 40}, sizeLimits{10, 20, 30, 40}},
		{"negative", sizeLimits{-1, -2, -3, -4}, sizeLimits{}},
		{"max below min", sizeLimits{500, 500, 100, 600}, sizeLimits{500, 500, 0, 600}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.normalized(); got != tt.want {
				t.Errorf("normalized = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFramebufferResized(t *testing.T) {
	w := newEngineWindow(WithSize(640, 480))
	var calls [][2]int
	w.SetResizeCallback(func(width, height int) {
		calls = append(calls, [2]int{width, height})
	})

	w.framebufferResized(640, 480)
	w.framebufferResized(1280, 960)
	if w.Width() != 1280 || w.Height() != 960 {
		t.Errorf("size = %dx%d, want 1280x960", w.Width(), w.Height())
	}
	if len(calls) != 1 || calls[0] != [2]int{1280, 960} {
		t.Errorf("resize calls = %v, want one call with 1280x960", calls)
	}
}
