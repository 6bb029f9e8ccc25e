// package common contains small shared types and helpers used throughout the engine. They are plain structs,
// not interface-wrapped implementations.
package common

// DataTextureFormat identifies the texel layout of a splat data texture.
type DataTextureFormat int

const (
	// DataTextureFloat is four 32-bit floats per texel (center and covariance scale).
	DataTextureFloat DataTextureFormat = iota
	// DataTextureUint is four 32-bit unsigned integers per texel (packed covariance and color).
	DataTextureUint
)

// BytesPerTexel is the size of one data texture texel. Both formats carry four 32-bit lanes.
const BytesPerTexel = 16

// BytesPerTexel returns the size of one texel of f in bytes.
func (f DataTextureFormat) BytesPerTexel() uint32 {
	return BytesPerTexel
}

// DataTextureStagingData describes a data texture pending GPU creation.
// Splat data textures are never sampled with filtering, only fetched by integer coordinate.
type DataTextureStagingData struct {
	// Width is the texture width in texels, fixed to the device's maximum 2D dimension.
	Width uint32
	// Height is the texture height in texels.
	Height uint32
	// Format selects the float or unsigned-integer texel layout.
	Format DataTextureFormat
}

// TextureRegion is an axis-aligned rectangle of texels within a data texture.
type TextureRegion struct {
	X, Y          uint32
	Width, Height uint32
}

// Texels returns the number of texels covered by the region.
func (r TextureRegion) Texels() int {
	return int(r.Width) * int(r.Height)
}
