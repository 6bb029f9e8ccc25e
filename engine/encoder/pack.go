package encoder

import (
	"math"

	"github.com/Carmen-Shannon/oxy-splat/common"
)

// int16Max is the quantization range of a packed covariance entry.
const int16Max = 32767

// PackCovariance quantizes the six unique entries of a symmetric 3x3 covariance
// (m11, m12, m13, m22, m23, m33) to int16 pairs relative to their largest magnitude.
// Pair k holds entry 2k in the low half and entry 2k+1 in the high half.
//
// Parameters:
//   - cov: the six unique covariance entries
//
// Returns:
//   - [3]uint32: the packed pairs
//   - float32: maxAbs / 32767, the factor that restores an entry from its int16
func PackCovariance(cov [6]float32) ([3]uint32, float32) {
	var maxAbs float32
	for _, v := range cov {
		maxAbs = max(maxAbs, float32(math.Abs(float64(v))))
	}
	if maxAbs == 0 {
		return [3]uint32{}, 0
	}

	var q [6]int16
	for i, v := range cov {
		scaled := math.Round(float64(v) * int16Max / float64(maxAbs))
		q[i] = int16(common.Clamp(scaled, -int16Max, int16Max))
	}
	return [3]uint32{
		packInt16Pair(q[0], q[1]),
		packInt16Pair(q[2], q[3]),
		packInt16Pair(q[4], q[5]),
	}, maxAbs / int16Max
}

// UnpackCovariance reverses PackCovariance up to quantization error (at most scale/2 per entry).
//
// Parameters:
//   - packed: the three packed pairs
//   - scale: the factor returned by PackCovariance
//
// Returns:
//   - [6]float32: m11, m12, m13, m22, m23, m33
func UnpackCovariance(packed [3]uint32, scale float32) [6]float32 {
	var out [6]float32
	for k, p := range packed {
		lo, hi := unpackInt16Pair(p)
		out[2*k] = float32(lo) * scale
		out[2*k+1] = float32(hi) * scale
	}
	return out
}

// PackColor packs RGBA bytes into one little-endian word, red in the low byte.
func PackColor(c [4]uint8) uint32 {
	return uint32(c[0]) | uint32(c[1])<<8 | uint32(c[2])<<16 | uint32(c[3])<<24
}

func packInt16Pair(lo, hi int16) uint32 {
	return uint32(uint16(lo)) | uint32(uint16(hi))<<16
}

func unpackInt16Pair(p uint32) (int16, int16) {
	return int16(uint16(p)), int16(uint16(p >> 16))
}
