package uploader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-splat/common"
	"github.com/Carmen-Shannon/oxy-splat/engine/encoder"

	"honnef.co/go/safeish"
)

const (
	defaultPollInterval = 10 * time.Millisecond
	defaultReadyTimeout = 5 * time.Second
)

// ErrTexturesNotReady is returned when the target's textures do not become usable in time.
var ErrTexturesNotReady = errors.New("uploader: data textures not ready")

// TextureTarget is the GPU side of the splat data textures.
type TextureTarget interface {
	// TexturesReady reports whether both data textures exist and may be written.
	//
	// Returns:
	//   - bool: true once the textures are usable
	TexturesReady() bool

	// CreateDataTextures (re)creates both data textures at the given size.
	//
	// Parameters:
	//   - width: the texture width in texels
	//   - height: the texture height in texels
	//
	// Returns:
	//   - error: error if creation fails
	CreateDataTextures(width, height uint32) error

	// WriteDataRegion copies tightly packed texels into a rectangle of one data texture.
	//
	// Parameters:
	//   - format: selects the float or uint texture
	//   - region: the destination rectangle
	//   - data: region.Texels() texels of format.BytesPerTexel() bytes each
	//
	// Returns:
	//   - error: error if the write fails
	WriteDataRegion(format common.DataTextureFormat, region common.TextureRegion, data []byte) error
}

// uploader is the implementation of the Uploader interface.
type uploader struct {
	mu *sync.Mutex

	target       TextureTarget
	pollInterval time.Duration
	readyTimeout time.Duration
	ready        bool

	regions int
	texels  int
}

// Uploader copies encoded ranges of a TextureBuffer into the GPU data textures.
type Uploader interface {
	// Upload writes splats [start, start+count) of buf to both data textures. The first upload
	// after creation or reallocation waits for the target to report its textures ready.
	//
	// Parameters:
	//   - ctx: cancels the readiness wait
	//   - buf: the staging buffer holding the encoded splats
	//   - start: the first splat index
	//   - count: the number of splats
	//
	// Returns:
	//   - error: ErrTexturesNotReady on timeout, ctx.Err() on cancellation, or a write error
	Upload(ctx context.Context, buf *encoder.TextureBuffer, start, count int) error

	// Reallocate recreates the data textures at buf's current size and uploads [0, loaded).
	//
	// Parameters:
	//   - ctx: cancels the readiness wait
	//   - buf: the resized staging buffer
	//   - loaded: the number of splats already encoded
	//
	// Returns:
	//   - error: a creation, wait or write error
	Reallocate(ctx context.Context, buf *encoder.TextureBuffer, loaded int) error

	// Stats returns the number of regions and texels written so far.
	//
	// Returns:
	//   - int: regions written
	//   - int: texels written per texture
	Stats() (int, int)
}

var _ Uploader = &uploader{}

// NewUploader creates a new Uploader writing to target.
//
// Parameters:
//   - target: the GPU texture target
//   - options: a variadic list of UploaderBuilderOption functions to configure the Uploader
//
// Returns:
//   - Uploader: a new Uploader
func NewUploader(target TextureTarget, options ...UploaderBuilderOption) Uploader {
	u := &uploader{
		mu:           &sync.Mutex{},
		target:       target,
		pollInterval: defaultPollInterval,
		readyTimeout: defaultReadyTimeout,
	}
	for _, option := range options {
		option(u)
	}
	return u
}

func (u *uploader) Upload(ctx context.Context, buf *encoder.TextureBuffer, start, count int) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.upload(ctx, buf, start, count)
}

func (u *uploader) Reallocate(ctx context.Context, buf *encoder.TextureBuffer, loaded int) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := u.target.CreateDataTextures(buf.Width, buf.Height); err != nil {
		return fmt.Errorf("uploader: create %dx%d data textures: %w", buf.Width, buf.Height, err)
	}
	u.ready = false
	common.Logger().Debug("uploader: data textures reallocated",
		"width", buf.Width, "height", buf.Height, "reupload", loaded)
	return u.upload(ctx, buf, 0, loaded)
}

func (u *uploader) Stats() (int, int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.regions, u.texels
}

func (u *uploader) upload(ctx context.Context, buf *encoder.TextureBuffer, start, count int) error {
	if count <= 0 {
		return nil
	}
	if end := start + count; end > buf.Capacity() {
		return fmt.Errorf("uploader: range [%d, %d) exceeds buffer capacity %d", start, end, buf.Capacity())
	}
	if err := u.waitReady(ctx); err != nil {
		return err
	}

	for _, r := range PlanRegions(start, count, buf.Width) {
		lo := int(r.Y)*int(buf.Width) + int(r.X)
		hi := lo + r.Texels()
		if err := u.target.WriteDataRegion(common.DataTextureFloat, r, safeish.SliceCast[[]byte](buf.Floats[lo*4:hi*4])); err != nil {
			return fmt.Errorf("uploader: write float region %+v: %w", r, err)
		}
		if err := u.target.WriteDataRegion(common.DataTextureUint, r, safeish.SliceCast[[]byte](buf.Uints[lo*4:hi*4])); err != nil {
			return fmt.Errorf("uploader: write uint region %+v: %w", r, err)
		}
		u.regions++
		u.texels += r.Texels()
	}
	return nil
}

// waitReady polls the target until its textures are usable, the timeout passes or ctx is done.
func (u *uploader) waitReady(ctx context.Context) error {
	if u.ready {
		return nil
	}
	if u.target.TexturesReady() {
		u.ready = true
		return nil
	}

	ticker := time.NewTicker(u.pollInterval)
	defer ticker.Stop()
	timeout := time.NewTimer(u.readyTimeout)
	defer timeout.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout.C:
			return fmt.Errorf("%w after %s", ErrTexturesNotReady, u.readyTimeout)
		case <-ticker.C:
			if u.target.TexturesReady() {
				u.ready = true
				return nil
			}
		}
	}
}
