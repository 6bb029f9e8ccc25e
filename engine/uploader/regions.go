package uploader

import "github.com/Carmen-Shannon/oxy-splat/common"

// PlanRegions splits the texel range [start, start+count) of a texture width texels wide
// into rectangles that never wrap a row: an unaligned head row, a block of whole rows,
// then a tail row.
//
// Parameters:
//   - start: the index of the first texel
//   - count: the number of texels
//   - width: the texture width in texels
//
// Returns:
//   - []common.TextureRegion: the regions in increasing texel order, nil when count <= 0
func PlanRegions(start, count int, width uint32) []common.TextureRegion {
	if count <= 0 || width == 0 {
		return nil
	}
	w := int(width)
	var out []common.TextureRegion
	for count > 0 {
		x, y := start%w, start/w
		var rw, rh int
		switch {
		case x != 0:
			rw, rh = min(w, x+count)-x, 1
		case count/w > 0:
			rw, rh = w, count/w
		default:
			rw, rh = count%w, 1
		}
		out = append(out, common.TextureRegion{X: uint32(x), Y: uint32(y), Width: uint32(rw), Height: uint32(rh)})
		start += rw * rh
		count -= rw * rh
	}
	return out
}
