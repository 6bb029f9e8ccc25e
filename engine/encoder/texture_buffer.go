package encoder

// TextureBuffer is the CPU staging copy of the two splat data textures. Splat i lives at
// texel (i % Width, i / Width) in both. Floats holds the center and covariance scale,
// Uints the packed covariance and color.
type TextureBuffer struct {
	// Width is the texture width in texels, the device's maximum 2D texture dimension.
	Width uint32

	// Height is the number of allocated texel rows.
	Height uint32

	// Floats has 4 lanes per texel: x, y, z and the covariance scale.
	Floats []float32

	// Uints has 4 lanes per texel: three packed int16 covariance pairs and the RGBA word.
	Uints []uint32
}

// Capacity returns the number of splats the buffer can hold at its current height.
func (b *TextureBuffer) Capacity() int {
	return int(b.Width) * int(b.Height)
}

// FloatTexel returns the four float lanes of splat i.
func (b *TextureBuffer) FloatTexel(i int) []float32 {
	return b.Floats[i*4 : i*4+4]
}

// UintTexel returns the four uint lanes of splat i.
func (b *TextureBuffer) UintTexel(i int) []uint32 {
	return b.Uints[i*4 : i*4+4]
}

// grow reallocates the buffer to height rows, keeping existing texels.
func (b *TextureBuffer) grow(height uint32) {
	n := int(b.Width) * int(height) * 4
	floats := make([]float32, n)
	uints := make([]uint32, n)
	copy(floats, b.Floats)
	copy(uints, b.Uints)
	b.Floats, b.Uints, b.Height = floats, uints, height
}

// reset drops all staging storage.
func (b *TextureBuffer) reset() {
	b.Floats, b.Uints, b.Height = nil, nil, 0
}
