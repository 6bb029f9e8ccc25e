package renderer

import (
	"fmt"
	"strings"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how frames reach the display.
type PresentMode int

const (
	// PresentModeVSync waits for vertical blank (FIFO). No tearing, frame rate capped at the
	// display refresh.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents immediately. Lowest latency, may tear. This is the default.
	PresentModeUncapped
)

// String returns the name accepted by ParsePresentMode.
func (m PresentMode) String() string {
	switch m {
	case PresentModeVSync:
		return "vsync"
	case PresentModeUncapped:
		return "uncapped"
	default:
		return fmt.Sprintf("PresentMode(%d)", int(m))
	}
}

// ParsePresentMode maps "vsync" or "uncapped" (case-insensitive) to a PresentMode.
//
// Parameters:
//   - name: the mode name
//
// Returns:
//   - PresentMode: the parsed mode
//   - error: error if the name is unknown
func ParsePresentMode(name string) (PresentMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "vsync":
		return PresentModeVSync, nil
	case "uncapped":
		return PresentModeUncapped, nil
	}
	return 0, fmt.Errorf("renderer: unknown present mode %q (want vsync or uncapped)", name)
}

// MSAASampleCount is the multisample count of the main render pass. WebGPU guarantees 1 and
// 4; 8 and 16 depend on the adapter.
type MSAASampleCount uint32

const (
	// MSAAOff renders one sample per pixel. Splats are smooth Gaussians, so the viewer runs
	// without MSAA.
	MSAAOff MSAASampleCount = 1

	// MSAA4x is the renderer default.
	MSAA4x MSAASampleCount = 4

	MSAA8x  MSAASampleCount = 8
	MSAA16x MSAASampleCount = 16
)

// ParseMSAA validates a sample count given as a plain number.
//
// Parameters:
//   - samples: 1, 4, 8 or 16; 0 is treated as 1
//
// Returns:
//   - MSAASampleCount: the sample count
//   - error: error for any other value
func ParseMSAA(samples int) (MSAASampleCount, error) {
	switch samples {
	case 0, 1:
		return MSAAOff, nil
	case 4, 8, 16:
		return MSAASampleCount(samples), nil
	}
	return 0, fmt.Errorf("renderer: unsupported MSAA sample count %d (want 1, 4, 8 or 16)", samples)
}

// RendererBackend is the backend interface the Renderer drives.
type RendererBackend interface {
	wgpuRendererBackend
}
