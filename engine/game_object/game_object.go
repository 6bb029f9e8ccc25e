package game_object

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

type gameObject struct {
	mu *sync.Mutex
	id uint64

	position      [3]float32
	rotation      [3]float32
	rotationSpeed [3]float32
	scale         [3]float32

	version uint64
}

// GameObject places a splat object in the world. It holds a position, Euler rotation and
// per-axis scale, spins at a constant angular speed, and produces the column-major model
// matrix the splat engine draws and sorts with.
type GameObject interface {
	// ID returns the object's identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Position returns the world-space translation.
	//
	// Returns:
	//   - x, y, z: the translation
	Position() (x, y, z float32)

	// Rotation returns the Euler rotation in radians, applied X then Y then Z.
	//
	// Returns:
	//   - rx, ry, rz: the rotation angles
	Rotation() (rx, ry, rz float32)

	// RotationSpeed returns the angular speed in radians per second.
	//
	// Returns:
	//   - rx, ry, rz: the angular speed per axis
	RotationSpeed() (rx, ry, rz float32)

	// Scale returns the per-axis scale.
	//
	// Returns:
	//   - sx, sy, sz: the scale factors
	Scale() (sx, sy, sz float32)

	// SetPosition sets the world-space translation.
	//
	// Parameters:
	//   - x, y, z: the translation
	SetPosition(x, y, z float32)

	// SetRotation sets the Euler rotation in radians.
	//
	// Parameters:
	//   - rx, ry, rz: the rotation angles
	SetRotation(rx, ry, rz float32)

	// SetRotationSpeed sets the angular speed in radians per second.
	//
	// Parameters:
	//   - rx, ry, rz: the angular speed per axis
	SetRotationSpeed(rx, ry, rz float32)

	// SetScale sets the per-axis scale.
	//
	// Parameters:
	//   - sx, sy, sz: the scale factors
	SetScale(sx, sy, sz float32)

	// Update advances the rotation by the angular speed.
	//
	// Parameters:
	//   - dt: seconds since the previous update
	//
	// Returns:
	//   - bool: true if the transform changed
	Update(dt float32) bool

	// ModelMatrix returns translation * rotation * scale as a column-major matrix.
	//
	// Returns:
	//   - [16]float32: the model matrix
	ModelMatrix() [16]float32

	// Version returns a counter bumped by every transform change.
	//
	// Returns:
	//   - uint64: the transform version
	Version() uint64
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new GameObject at the origin with unit scale.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		mu:    &sync.Mutex{},
		scale: [3]float32{1, 1, 1},
	}
	for _, option := range options {
		option(obj)
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Position() (x, y, z float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.position[0], g.position[1], g.position[2]
}

func (g *gameObject) Rotation() (rx, ry, rz float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rotation[0], g.rotation[1], g.rotation[2]
}

func (g *gameObject) RotationSpeed() (rx, ry, rz float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rotationSpeed[0], g.rotationSpeed[1], g.rotationSpeed[2]
}

func (g *gameObject) Scale() (sx, sy, sz float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scale[0], g.scale[1], g.scale[2]
}

func (g *gameObject) SetPosition(x, y, z float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position = [3]float32{x, y, z}
	g.version++
}

func (g *gameObject) SetRotation(rx, ry, rz float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rotation = [3]float32{wrapAngle(rx), wrapAngle(ry), wrapAngle(rz)}
	g.version++
}

func (g *gameObject) SetRotationSpeed(rx, ry, rz float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rotationSpeed = [3]float32{rx, ry, rz}
}

func (g *gameObject) SetScale(sx, sy, sz float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scale = [3]float32{sx, sy, sz}
	g.version++
}

func (g *gameObject) Update(dt float32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rotationSpeed == [3]float32{} || dt <= 0 {
		return false
	}
	for i := range g.rotation {
		g.rotation[i] = wrapAngle(g.rotation[i] + g.rotationSpeed[i]*dt)
	}
	g.version++
	return true
}

func (g *gameObject) ModelMatrix() [16]float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	t := mgl32.Translate3D(g.position[0], g.position[1], g.position[2])
	r := mgl32.AnglesToQuat(g.rotation[0], g.rotation[1], g.rotation[2], mgl32.XYZ).Mat4()
	s := mgl32.Scale3D(g.scale[0], g.scale[1], g.scale[2])
	return [16]float32(t.Mul4(r).Mul4(s))
}

func (g *gameObject) Version() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.version
}

// wrapAngle maps a to [-pi, pi] so a spinning object keeps its precision.
func wrapAngle(a float32) float32 {
	return float32(math.Remainder(float64(a), 2*math.Pi))
}
