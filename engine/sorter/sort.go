package sorter

import "github.com/Carmen-Shannon/oxy-splat/engine/encoder"

const (
	depthBins = 256 * 256

	// cutoutHalfExtent bounds the unit cutout box in its own space.
	cutoutHalfExtent = 0.5

	// weightDepthRatio discards splats whose weight is negligible for their distance.
	weightDepthRatio = -0.0001
)

// SortSplats orders the splats whose transforms are packed in matrices back to front.
// A splat is kept when it lies in front of the camera (depth < 0), its weight
// exceeds -0.0001*depth and, when cutout is non-nil, its position mapped through cutout
// falls inside the [-0.5, 0.5] cube. Kept splats are bucketed into 65536 depth bins
// with a counting sort, farthest first; splats sharing a bin keep index order.
//
// Parameters:
//   - matrices: 16 floats per splat, translation in elements 12-14 and weight in 15
//   - view: the camera's view-space z row; depth = dot(view.xyz, t) + view.w
//   - cutout: an optional column-major 4x4 transform into the cutout box space
//
// Returns:
//   - []uint32: the splat indexes to draw, never nil
func SortSplats(matrices []float32, view [4]float32, cutout []float32) []uint32 {
	n := len(matrices) / encoder.MatrixStride
	indexes := make([]uint32, 0, n)
	depths := make([]float32, 0, n)

	minDepth, maxDepth := float32(0), float32(0)
	for i := range n {
		m := matrices[i*encoder.MatrixStride : (i+1)*encoder.MatrixStride]
		tx, ty, tz := m[12], m[13], m[14]

		if cutout != nil && !insideCutout(cutout, tx, -ty, tz) {
			continue
		}

		depth := view[0]*tx + view[1]*ty + view[2]*tz + view[3]
		// Written positively so NaN depth or weight is dropped.
		if !(depth < 0 && m[15] > weightDepthRatio*depth) {
			continue
		}

		if len(depths) == 0 {
			minDepth, maxDepth = depth, depth
		} else {
			minDepth = min(minDepth, depth)
			maxDepth = max(maxDepth, depth)
		}
		indexes = append(indexes, uint32(i))
		depths = append(depths, depth)
	}
	if len(indexes) == 0 {
		return []uint32{}
	}

	depthInv := float32(1)
	if maxDepth > minDepth {
		depthInv = float32(depthBins-1) / (maxDepth - minDepth)
	}

	bins := make([]uint32, len(depths))
	counts := make([]uint32, depthBins)
	for i, d := range depths {
		b := uint32((d - minDepth) * depthInv)
		b = min(b, depthBins-1)
		bins[i] = b
		counts[b]++
	}
	for i := 1; i < depthBins; i++ {
		counts[i] += counts[i-1]
	}

	out := make([]uint32, len(indexes))
	for i := len(indexes) - 1; i >= 0; i-- {
		b := bins[i]
		counts[b]--
		out[counts[b]] = indexes[i]
	}
	return out
}

// insideCutout maps a point through the column-major transform m with a perspective
// divide and tests it against the cutout cube.
func insideCutout(m []float32, x, y, z float32) bool {
	px := m[0]*x + m[4]*y + m[8]*z + m[12]
	py := m[1]*x + m[5]*y + m[9]*z + m[13]
	pz := m[2]*x + m[6]*y + m[10]*z + m[14]
	pw := m[3]*x + m[7]*y + m[11]*z + m[15]
	if pw == 0 {
		return false
	}
	px, py, pz = px/pw, py/pw, pz/pw
	return px >= -cutoutHalfExtent && px <= cutoutHalfExtent &&
		py >= -cutoutHalfExtent && py <= cutoutHalfExtent &&
		pz >= -cutoutHalfExtent && pz <= cutoutHalfExtent
}
