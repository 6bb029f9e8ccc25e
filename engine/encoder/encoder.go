package encoder

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-splat/common"
	"github.com/Carmen-Shannon/oxy-splat/engine/wire"

	"github.com/go-gl/mathgl/mgl32"
)

// MatrixStride is the number of floats in one sort transform.
const MatrixStride = 16

const defaultChunkSize = 4096

// Batch describes the splats written by one Encode call.
type Batch struct {
	// Start is the index of the first encoded splat.
	Start int

	// Count is the number of splats encoded.
	Count int

	// Matrices holds Count column-major 4x4 sort transforms: the upper 3x3 is the
	// oriented scale, column 3 is the center and element 15 the sort weight.
	// The slice is freshly allocated and owned by the receiver.
	Matrices []float32

	// Grew reports that the TextureBuffer height changed and the GPU textures must be
	// reallocated before uploading.
	Grew bool
}

// encoder is the implementation of the Encoder interface.
type encoder struct {
	mu *sync.Mutex

	maxDim    uint32
	loaded    int
	buf       TextureBuffer
	chunkSize int
	workers   int
	pool      worker.DynamicWorkerPool
}

// Encoder converts wire rows into the texel layout the splat shader fetches from and
// the transforms the depth sorter consumes. It owns the CPU staging copy of the data
// textures and the count of splats written so far.
type Encoder interface {
	// MaxSplats returns the texture capacity limit, the square of the maximum texture dimension.
	//
	// Returns:
	//   - int: the maximum number of splats the encoder accepts
	MaxSplats() int

	// Loaded returns the number of splats encoded since the last Reset.
	//
	// Returns:
	//   - int: the loaded splat count
	Loaded() int

	// Buffer returns the staging buffer. It is only valid until the next Reserve, Encode or Reset.
	//
	// Returns:
	//   - *TextureBuffer: the staging texel arrays
	Buffer() *TextureBuffer

	// Reserve grows the staging buffer so that count more splats fit after the loaded ones.
	// Growth is geometric and capped at the maximum texture dimension.
	//
	// Parameters:
	//   - count: the number of additional splats to make room for
	//
	// Returns:
	//   - bool: true if the buffer height changed
	Reserve(count int) bool

	// Encode writes count rows into the staging buffer after the loaded splats. A count past
	// the capacity limit is clamped and logged. A clamped count of zero yields an empty batch.
	//
	// Parameters:
	//   - rows: the wire rows, at least count*32 bytes
	//   - count: the number of rows to encode
	//
	// Returns:
	//   - Batch: the written range and its sort transforms
	Encode(rows []byte, count int) Batch

	// Reset forgets every loaded splat and drops the staging storage.
	Reset()
}

var _ Encoder = &encoder{}

// NewEncoder creates a new Encoder for textures maxTextureDimension texels wide.
//
// Parameters:
//   - maxTextureDimension: the device's maximum 2D texture dimension
//   - options: a variadic list of EncoderBuilderOption functions to configure the Encoder
//
// Returns:
//   - Encoder: a new Encoder with an empty staging buffer
func NewEncoder(maxTextureDimension uint32, options ...EncoderBuilderOption) Encoder {
	if maxTextureDimension == 0 {
		panic("encoder: max texture dimension must be positive")
	}
	e := &encoder{
		mu:        &sync.Mutex{},
		maxDim:    maxTextureDimension,
		buf:       TextureBuffer{Width: maxTextureDimension},
		chunkSize: defaultChunkSize,
		workers:   max(runtime.NumCPU()-1, 1),
	}
	for _, option := range options {
		option(e)
	}
	e.pool = worker.NewDynamicWorkerPool(e.workers, 256, 1*time.Second)
	return e
}

func (e *encoder) MaxSplats() int {
	return int(e.maxDim) * int(e.maxDim)
}

func (e *encoder) Loaded() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

func (e *encoder) Buffer() *TextureBuffer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return &e.buf
}

func (e *encoder) Reserve(count int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reserve(count)
}

func (e *encoder) reserve(count int) bool {
	need := min(e.loaded+max(count, 0), e.MaxSplats())
	if need <= e.buf.Capacity() {
		return false
	}
	rows := uint32((need-1)/int(e.maxDim) + 1)
	height := min(max(rows, e.buf.Height*2), e.maxDim)
	e.buf.grow(height)
	common.Logger().Debug("encoder: staging buffer grown",
		"width", e.buf.Width, "height", height, "capacity", e.buf.Capacity())
	return true
}

func (e *encoder) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded = 0
	e.buf.reset()
}

func (e *encoder) Encode(rows []byte, count int) Batch {
	e.mu.Lock()
	defer e.mu.Unlock()

	count = min(count, len(rows)/wire.RowSize)
	if avail := e.MaxSplats() - e.loaded; count > avail {
		common.Logger().Warn("encoder: splat count exceeds texture capacity, truncating",
			"requested", count, "accepted", max(avail, 0), "max", e.MaxSplats())
		count = avail
	}
	if count <= 0 {
		return Batch{Start: e.loaded}
	}

	b := Batch{
		Start:    e.loaded,
		Count:    count,
		Matrices: make([]float32, count*MatrixStride),
		Grew:     e.reserve(count),
	}

	if count <= e.chunkSize {
		e.encodeRange(rows, b.Start, 0, count, b.Matrices)
	} else {
		var wg sync.WaitGroup
		taskID := 0
		for lo := 0; lo < count; lo += e.chunkSize {
			hi := min(lo+e.chunkSize, count)
			wg.Add(1)
			id := taskID
			taskID++
			e.pool.SubmitTask(worker.Task{
				ID: id,
				Do: func() (any, error) {
					defer wg.Done()
					e.encodeRange(rows, b.Start, lo, hi, b.Matrices)
					return nil, nil
				},
			})
		}
		wg.Wait()
	}

	e.loaded += count
	return b
}

// encodeRange encodes rows [lo, hi) of a batch whose first splat lands at start.
// Ranges touch disjoint texels and matrices so they may run concurrently.
func (e *encoder) encodeRange(rows []byte, start, lo, hi int, matrices []float32) {
	for i := lo; i < hi; i++ {
		r := wire.DecodeRow(rows[i*wire.RowSize:])
		idx := start + i
		encodeSplat(r, e.buf.FloatTexel(idx), e.buf.UintTexel(idx), matrices[i*MatrixStride:(i+1)*MatrixStride])
	}
}

// reflectZ mirrors the source frame's z axis into the renderer's frame.
var reflectZ = mgl32.Diag3(mgl32.Vec3{1, 1, -1})

// encodeSplat fills one splat's float texel, uint texel and sort transform.
func encodeSplat(r wire.Row, floats []float32, uints []uint32, mtx []float32) {
	w, x, y, z := r.Quaternion()
	q := mgl32.Quat{W: w, V: mgl32.Vec3{x, y, z}}.Normalize()

	// oriented = F * R * S, covariance = oriented * oriented^T = F * R * S^2 * R^T * F
	rs := q.Mat4().Mat3().Mul3(mgl32.Diag3(mgl32.Vec3{r.Scale[0], r.Scale[1], r.Scale[2]}))
	oriented := reflectZ.Mul3(rs)
	sigma := oriented.Mul3(oriented.Transpose())

	packed, scale := PackCovariance(Covariance(sigma))

	center := mgl32.Vec3{r.Position[0], r.Position[1], -r.Position[2]}
	floats[0], floats[1], floats[2], floats[3] = center[0], center[1], center[2], scale
	uints[0], uints[1], uints[2], uints[3] = packed[0], packed[1], packed[2], PackColor(r.Color)

	m := oriented.Mat4()
	m[12], m[13], m[14] = center[0], center[1], center[2]
	m[15] = max(r.Scale[0], r.Scale[1], r.Scale[2]) * float32(r.Color[3]) / 255
	copy(mtx, m[:])
}

// Covariance extracts m11, m12, m13, m22, m23, m33 from a symmetric 3x3 matrix.
func Covariance(m mgl32.Mat3) [6]float32 {
	return [6]float32{m.At(0, 0), m.At(0, 1), m.At(0, 2), m.At(1, 1), m.At(1, 2), m.At(2, 2)}
}
