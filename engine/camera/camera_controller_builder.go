package camera

import (
	"math"

	"github.com/Carmen-Shannon/oxy-splat/common"
)

// maxElevation keeps the orbit just short of the poles, where the look-at basis degenerates.
const maxElevation = float32(math.Pi/2 - 0.01)

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// Speeds scales the controller's response to input. Zero fields keep the defaults.
type Speeds struct {
	// Orbit is radians per keyboard orbit step.
	Orbit float32
	// Mouse is radians per pixel of orbit drag.
	Mouse float32
	// Zoom is the exponent applied per scroll or keyboard zoom step.
	Zoom float32
	// Pan is the fraction of the radius moved per pixel of pan drag.
	Pan float32
}

// WithOrbit places the camera on its orbit around the target.
//
// Parameters:
//   - radius: distance from the target, clamped to the radius bounds
//   - azimuth: angle around Y in radians, 0 looks from +Z
//   - elevation: angle above the horizontal plane in radians, clamped to the elevation bounds
//
// Returns:
//   - CameraControllerOption: functional option to set the orbit
func WithOrbit(radius, azimuth, elevation float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.radius = radius
		cc.azimuth = azimuth
		cc.elevation = elevation
	}
}

// WithTarget sets the pivot the camera orbits and looks at.
//
// Parameters:
//   - x, y, z: world position of the target
//
// Returns:
//   - CameraControllerOption: functional option to set the target
func WithTarget(x, y, z float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.target = [3]float32{x, y, z}
	}
}

// WithRadiusBounds limits how far Zoom can move the camera. Bounds with min <= 0 or max < min
// are ignored.
//
// Parameters:
//   - min: closest distance to the target
//   - max: farthest distance from the target
//
// Returns:
//   - CameraControllerOption: functional option to set the radius bounds
func WithRadiusBounds(min, max float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		if min <= 0 || max < min {
			return
		}
		cc.minRadius, cc.maxRadius = min, max
	}
}

// WithElevationBounds limits the vertical orbit. Both bounds are clamped to just inside
// ±π/2, and min > max is ignored.
//
// Parameters:
//   - min: lowest elevation in radians
//   - max: highest elevation in radians
//
// Returns:
//   - CameraControllerOption: functional option to set the elevation bounds
func WithElevationBounds(min, max float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		if min > max {
			return
		}
		cc.minElevation = common.Clamp(min, -maxElevation, maxElevation)
		cc.maxElevation = common.Clamp(max, -maxElevation, maxElevation)
	}
}

// WithSpeeds overrides the input response. Zero or negative fields keep the current value.
//
// Parameters:
//   - s: the speeds to apply
//
// Returns:
//   - CameraControllerOption: functional option to set the speeds
func WithSpeeds(s Speeds) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.orbitSpeed = common.Coalesce(max(s.Orbit, 0), cc.orbitSpeed)
		cc.mouseSensitivity = common.Coalesce(max(s.Mouse, 0), cc.mouseSensitivity)
		cc.zoomSpeed = common.Coalesce(max(s.Zoom, 0), cc.zoomSpeed)
		cc.panSpeed = common.Coalesce(max(s.Pan, 0), cc.panSpeed)
	}
}
