package loader

import (
	"github.com/Carmen-Shannon/oxy-splat/common"
	"github.com/Carmen-Shannon/oxy-splat/engine/wire"
)

// loaderBackend defines how a single source format turns buffered bytes into wire rows.
// Concrete implementations handle the binary row format and PLY.
type loaderBackend interface {
	// Format returns the format this backend decodes.
	//
	// Returns:
	//   - Format: the handled format
	Format() Format

	// Streaming reports whether whole rows may be emitted before the stream ends.
	//
	// Returns:
	//   - bool: true if partial emission is allowed
	Streaming() bool

	// Finish converts whatever is still buffered at end of stream into rows.
	//
	// Parameters:
	//   - buf: the unconsumed bytes
	//
	// Returns:
	//   - []byte: row-aligned output
	//   - int: the number of rows
	//   - error: error if the buffer is malformed
	Finish(buf []byte) ([]byte, int, error)
}

// splatLoaderBackend handles the packed 32-byte row format.
type splatLoaderBackend struct{}

var _ loaderBackend = &splatLoaderBackend{}

func newSplatLoaderBackend() loaderBackend {
	return &splatLoaderBackend{}
}

func (b *splatLoaderBackend) Format() Format {
	return FormatSplat
}

func (b *splatLoaderBackend) Streaming() bool {
	return true
}

func (b *splatLoaderBackend) Finish(buf []byte) ([]byte, int, error) {
	n := len(buf) / wire.RowSize
	if rem := len(buf) % wire.RowSize; rem != 0 {
		common.Logger().Warn("loader: dropping trailing partial row", "bytes", rem)
	}
	if n == 0 {
		return nil, 0, nil
	}
	out := make([]byte, n*wire.RowSize)
	copy(out, buf)
	return out, n, nil
}

// plyLoaderBackend buffers the whole PLY file and converts it at end of stream.
type plyLoaderBackend struct{}

var _ loaderBackend = &plyLoaderBackend{}

func newPLYLoaderBackend() loaderBackend {
	return &plyLoaderBackend{}
}

func (b *plyLoaderBackend) Format() Format {
	return FormatPLY
}

func (b *plyLoaderBackend) Streaming() bool {
	return false
}

func (b *plyLoaderBackend) Finish(buf []byte) ([]byte, int, error) {
	return ImportPLY(buf)
}
