package splat

import (
	"github.com/Carmen-Shannon/oxy-splat/engine/encoder"
	"github.com/Carmen-Shannon/oxy-splat/engine/loader"
	"github.com/Carmen-Shannon/oxy-splat/engine/uploader"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithSettings replaces the default runtime settings.
//
// Parameters:
//   - s: the initial settings
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSettings(s Settings) EngineBuilderOption {
	return func(e *engine) {
		e.settings = s
	}
}

// WithModelMatrix sets the initial model matrix of the splat object.
//
// Parameters:
//   - model: the column-major model matrix
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithModelMatrix(model [16]float32) EngineBuilderOption {
	return func(e *engine) {
		e.model = model
	}
}

// WithCutout sets the initial cutout box transform. See Engine.SetCutout.
//
// Parameters:
//   - world: the box's column-major world transform
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCutout(world [16]float32) EngineBuilderOption {
	return func(e *engine) {
		e.cutout = &world
	}
}

// WithViewport sets the initial render target size. The host normally provides it
// through Resize.
//
// Parameters:
//   - width, height: the render target size in pixels
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithViewport(width, height int) EngineBuilderOption {
	return func(e *engine) {
		e.viewport = [2]float32{float32(width), float32(height)}
	}
}

// WithEncodeBudget sets the maximum number of splats encoded per frame.
// Values <= 0 are ignored.
//
// Parameters:
//   - splats: the per-frame encode budget (default 262144)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithEncodeBudget(splats int) EngineBuilderOption {
	return func(e *engine) {
		if splats > 0 {
			e.encodeBudget = splats
		}
	}
}

// WithBatchBuffer sets how many ingest batches may be queued ahead of the render thread
// before the ingestion blocks. Values <= 0 are ignored.
//
// Parameters:
//   - batches: the channel capacity (default 16)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithBatchBuffer(batches int) EngineBuilderOption {
	return func(e *engine) {
		if batches > 0 {
			e.batchBuffer = batches
		}
	}
}

// WithLoader replaces the loader the engine ingests through. WithLoaderOptions is ignored
// when a loader is provided.
//
// Parameters:
//   - l: the loader
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLoader(l loader.Loader) EngineBuilderOption {
	return func(e *engine) {
		e.loader = l
	}
}

// WithLoaderOptions configures the default loader.
//
// Parameters:
//   - options: options passed to loader.NewLoader
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLoaderOptions(options ...loader.LoaderBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.loaderOptions = append(e.loaderOptions, options...)
	}
}

// WithEncoderOptions configures the encoder.
//
// Parameters:
//   - options: options passed to encoder.NewEncoder
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithEncoderOptions(options ...encoder.EncoderBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.encoderOptions = append(e.encoderOptions, options...)
	}
}

// WithUploaderOptions configures the texture uploader.
//
// Parameters:
//   - options: options passed to uploader.NewUploader
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithUploaderOptions(options ...uploader.UploaderBuilderOption) EngineBuilderOption {
	return func(e *engine) {
		e.uploaderOptions = append(e.uploaderOptions, options...)
	}
}
