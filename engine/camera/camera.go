package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-splat/common"
)

type cameraImpl struct {
	mu *sync.Mutex

	up [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix       [16]float32
	projectionMatrix [16]float32

	// version changes whenever viewMatrix or projectionMatrix does.
	version uint64

	controller CameraController
}

// Camera holds perspective settings and computes view/projection matrices from an attached
// CameraController each frame via Update(). It also derives the matrices the splat shader
// and the depth sorter consume, which live in a frame with a mirrored Y axis.
type Camera interface {
	// Up returns the camera's up vector.
	//
	// Returns:
	//   - x, y, z: up vector components
	Up() (x, y, z float32)

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// ViewMatrix returns the current 4x4 view matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the view matrix
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the current 4x4 projection matrix as 16 floats (column-major).
	// Clip-space depth is in [0, 1].
	//
	// Returns:
	//   - [16]float32: the projection matrix
	ProjectionMatrix() [16]float32

	// SplatModelView returns the transform from splat space to the camera's view space,
	// D·View·Model·D with D = diag(1, -1, 1, 1).
	//
	// Parameters:
	//   - model: the splat object's model matrix (column-major)
	//
	// Returns:
	//   - [16]float32: the conjugated model-view matrix
	SplatModelView(model [16]float32) [16]float32

	// SplatProjection returns Projection·D, the projection paired with SplatModelView.
	//
	// Returns:
	//   - [16]float32: the mirrored projection matrix
	SplatProjection() [16]float32

	// SortView returns the view-space z row of SplatModelView, the vector the depth
	// sorter dots splat centers with.
	//
	// Parameters:
	//   - model: the splat object's model matrix (column-major)
	//
	// Returns:
	//   - [4]float32: row 2 of the splat model-view matrix
	SortView(model [16]float32) [4]float32

	// Focal returns the focal length in pixels for a viewport of the given height.
	//
	// Parameters:
	//   - viewportHeight: the render target height in pixels
	//
	// Returns:
	//   - float32: viewportHeight / 2 scaled by the projection's y focal term
	Focal(viewportHeight float32) float32

	// Version returns a counter that changes whenever the view or projection matrix changes.
	//
	// Returns:
	//   - uint64: the matrix version
	Version() uint64

	// Controller returns the attached CameraController.
	// Returns nil if no controller is attached.
	//
	// Returns:
	//   - CameraController: the attached controller or nil
	Controller() CameraController

	// Update reads position/target from controller and recomputes matrices.
	// Should be called once per frame (typically in the tick callback).
	// If no controller is attached, this method does nothing.
	Update()

	// SetUp sets the camera's up vector.
	//
	// Parameters:
	//   - x, y, z: up vector components
	SetUp(x, y, z float32)

	// SetFov sets the field of view in radians and recomputes matrices.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height) and recomputes matrices.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// SetNear sets the near clipping plane distance and recomputes matrices.
	//
	// Parameters:
	//   - near: near plane distance
	SetNear(near float32)

	// SetFar sets the far clipping plane distance and recomputes matrices.
	//
	// Parameters:
	//   - far: far plane distance
	SetFar(far float32)

	// SetController attaches a CameraController to the camera.
	//
	// Parameters:
	//   - ctrl: the controller to attach
	SetController(ctrl CameraController)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with default perspective settings.
// A controller must be attached via SetController or WithController option
// before position/target data is available.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		up:     [3]float32{0, 1, 0},
		fov:    50.0 * (math.Pi / 180.0), // radians
		aspect: 1.0,
		near:   0.01,
		far:    1000.0,
	}
	common.Identity(c.viewMatrix[:])
	common.Identity(c.projectionMatrix[:])
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Up() (x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up[0], c.up[1], c.up[2]
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) SplatModelView(model [16]float32) [16]float32 {
	c.mu.Lock()
	view := c.viewMatrix
	c.mu.Unlock()

	var mv [16]float32
	common.Mul4(mv[:], view[:], model[:])
	common.FlipY(mv[:], mv[:])
	common.FlipYRow(mv[:], mv[:])
	return mv
}

func (c *cameraImpl) SplatProjection() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var p [16]float32
	common.FlipY(p[:], c.projectionMatrix[:])
	return p
}

func (c *cameraImpl) SortView(model [16]float32) [4]float32 {
	mv := c.SplatModelView(model)
	return common.Row(mv[:], 2)
}

func (c *cameraImpl) Focal(viewportHeight float32) float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return viewportHeight / 2 * float32(math.Abs(float64(c.projectionMatrix[5])))
}

func (c *cameraImpl) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

func (c *cameraImpl) SetUp(x, y, z float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = [3]float32{x, y, z}
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	if aspect <= 0 || math.IsNaN(float64(aspect)) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		return
	}
	c.updateMatrices()
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

// updateMatrices recalculates the view and projection matrices and bumps the version when
// either changed. The view matrix is only rebuilt while a controller is attached.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	view := c.viewMatrix
	if c.controller != nil {
		px, py, pz := c.controller.Position()
		tx, ty, tz := c.controller.Target()
		common.LookAt(view[:],
			px, py, pz,
			tx, ty, tz,
			c.up[0], c.up[1], c.up[2],
		)
	}

	var proj [16]float32
	common.Perspective(proj[:], c.fov, c.aspect, c.near, c.far)

	if view != c.viewMatrix || proj != c.projectionMatrix {
		c.viewMatrix = view
		c.projectionMatrix = proj
		c.version++
	}
}
