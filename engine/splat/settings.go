package splat

import "fmt"

// ColorEffect selects how the fragment stage recolors splats.
type ColorEffect uint32

const (
	// ColorEffectNone draws the captured colors.
	ColorEffectNone ColorEffect = iota

	// ColorEffectGrayscale replaces each color with its luminance.
	ColorEffectGrayscale

	// ColorEffectTint blends each color halfway to white, then multiplies by the tint.
	ColorEffectTint
)

func (c ColorEffect) String() string {
	switch c {
	case ColorEffectNone:
		return "none"
	case ColorEffectGrayscale:
		return "grayscale"
	case ColorEffectTint:
		return "tint"
	default:
		return fmt.Sprintf("ColorEffect(%d)", uint32(c))
	}
}

// ParseColorEffect maps a name or its numeric value to a ColorEffect.
//
// Parameters:
//   - s: "none", "grayscale", "tint" or "0" through "2"
//
// Returns:
//   - ColorEffect: the parsed effect
//   - error: error if s names no effect
func ParseColorEffect(s string) (ColorEffect, error) {
	switch s {
	case "none", "0":
		return ColorEffectNone, nil
	case "grayscale", "1":
		return ColorEffectGrayscale, nil
	case "tint", "2":
		return ColorEffectTint, nil
	}
	return ColorEffectNone, fmt.Errorf("unknown color effect %q", s)
}

// Settings is the runtime configuration of a splat engine.
type Settings struct {
	// DisplayRadius is the half extent per axis of the box around the origin outside of
	// which splats are not drawn.
	DisplayRadius [3]float32

	// DiscardFilter is the fragment alpha below which splat fragments are discarded.
	DiscardFilter float32

	ColorEffect ColorEffect

	// Tint is the RGB color used by ColorEffectTint.
	Tint [3]float32

	// DepthWrite makes splats write the depth buffer.
	DepthWrite bool

	// PixelRatio scales the render resolution relative to the window framebuffer.
	PixelRatio float32

	// XRPixelRatio replaces PixelRatio while the engine is in immersive mode.
	XRPixelRatio float32
}

// DefaultSettings returns the settings a new engine starts with.
//
// Returns:
//   - Settings: a 10 unit display radius, no discard filter, no color effect, blue tint,
//     depth write off, full resolution and half resolution when immersive
func DefaultSettings() Settings {
	return Settings{
		DisplayRadius: [3]float32{10, 10, 10},
		Tint:          [3]float32{0, 0, 1},
		PixelRatio:    1,
		XRPixelRatio:  0.5,
	}
}
