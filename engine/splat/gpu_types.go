package splat

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// ShaderSource is the WGSL module holding both splat stages and the SplatUniforms layout.
//
//go:embed assets/splat.wgsl
var ShaderSource string

// SplatUniforms is the GPU-aligned per-frame uniform block.
// Matches the WGSL SplatUniforms struct exactly (176 bytes).
type SplatUniforms struct {
	Projection    [16]float32 // offset   0: projection with the Y flip applied
	ModelView     [16]float32 // offset  64: splat space to view space
	Viewport      [2]float32  // offset 128: render target size in pixels
	Focal         float32     // offset 136
	DiscardFilter float32     // offset 140: minimum fragment alpha
	DisplayRadius [3]float32  // offset 144: per-axis clip volume half extents
	ColorEffect   uint32      // offset 156
	Tint          [3]float32  // offset 160
	_pad          float32     // offset 172
}

// Size returns the size of the SplatUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (176)
func (u *SplatUniforms) Size() int {
	return int(unsafe.Sizeof(*u))
}

// Marshal serializes the SplatUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 176-byte buffer ready for GPU upload
func (u *SplatUniforms) Marshal() []byte {
	buf := make([]byte, 0, 176)
	buf = appendFloats(buf, u.Projection[:]...)
	buf = appendFloats(buf, u.ModelView[:]...)
	buf = appendFloats(buf, u.Viewport[0], u.Viewport[1], u.Focal, u.DiscardFilter)
	buf = appendFloats(buf, u.DisplayRadius[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, u.ColorEffect)
	buf = appendFloats(buf, u.Tint[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, 0) // padding
	return buf
}

func appendFloats(buf []byte, v ...float32) []byte {
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}
