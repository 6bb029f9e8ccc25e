// Package wire defines the 32-byte splat row shared by every splat source.
//
// Row layout (little-endian):
//
//	offset  0: float32 x, y, z     position
//	offset 12: float32 sx, sy, sz  per-axis scale
//	offset 24: uint8 r, g, b, a    color
//	offset 28: uint8 qw, qx, qy, qz rotation, each round(c*128)+128 clamped to [0, 255]
package wire

import (
	"encoding/binary"
	"math"
)

// RowSize is the size in bytes of one encoded splat row.
const RowSize = 32

// Row is a decoded splat row. Rows are immutable values once formed.
type Row struct {
	Position [3]float32
	Scale    [3]float32
	// Color is RGBA, 8 bits per channel.
	Color [4]uint8
	// Rotation is the quantized quaternion in (w, x, y, z) order.
	Rotation [4]uint8
}

// Rows returns the number of whole rows in buf.
//
// Parameters:
//   - buf: a raw row buffer
//
// Returns:
//   - int: floor(len(buf) / RowSize)
func Rows(buf []byte) int {
	return len(buf) / RowSize
}

// DecodeRow decodes the first RowSize bytes of b. It panics if b is shorter than RowSize.
//
// Parameters:
//   - b: at least RowSize bytes
//
// Returns:
//   - Row: the decoded row
func DecodeRow(b []byte) Row {
	_ = b[RowSize-1]
	var r Row
	for i := range 3 {
		r.Position[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
		r.Scale[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[12+i*4:]))
	}
	copy(r.Color[:], b[24:28])
	copy(r.Rotation[:], b[28:32])
	return r
}

// EncodeRow writes r into the first RowSize bytes of dst. It panics if dst is shorter than RowSize.
//
// Parameters:
//   - dst: destination, at least RowSize bytes
//   - r: the row to encode
func EncodeRow(dst []byte, r Row) {
	_ = dst[RowSize-1]
	for i := range 3 {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(r.Position[i]))
		binary.LittleEndian.PutUint32(dst[12+i*4:], math.Float32bits(r.Scale[i]))
	}
	copy(dst[24:28], r.Color[:])
	copy(dst[28:32], r.Rotation[:])
}

// AppendRow appends the encoding of r to buf.
//
// Parameters:
//   - buf: the buffer to extend
//   - r: the row to encode
//
// Returns:
//   - []byte: the extended buffer
func AppendRow(buf []byte, r Row) []byte {
	n := len(buf)
	buf = append(buf, make([]byte, RowSize)...)
	EncodeRow(buf[n:], r)
	return buf
}

// Quaternion returns the dequantized rotation as (w, x, y, z), each (b-128)/128.
// The result is not renormalized.
func (r Row) Quaternion() (w, x, y, z float32) {
	return Dequantize(r.Rotation[0]), Dequantize(r.Rotation[1]), Dequantize(r.Rotation[2]), Dequantize(r.Rotation[3])
}

// Quantize maps a unit-range component to a byte as round(v*128)+128 clamped to [0, 255].
//
// Parameters:
//   - v: a component in roughly [-1, 1]
//
// Returns:
//   - uint8: the quantized byte
func Quantize(v float32) uint8 {
	q := math.Round(float64(v)*128) + 128
	if q < 0 {
		return 0
	}
	if q > 255 {
		return 255
	}
	return uint8(q)
}

// Dequantize is the inverse of Quantize, (b-128)/128.
func Dequantize(b uint8) float32 {
	return (float32(b) - 128) / 128
}

// IdentityRotation is the quantized identity quaternion (w=1, x=y=z=0) with w saturated at 255.
var IdentityRotation = [4]uint8{255, 128, 128, 128}
