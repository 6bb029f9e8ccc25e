package encoder

// EncoderBuilderOption is a functional option for configuring an Encoder via NewEncoder.
type EncoderBuilderOption func(*encoder)

// WithWorkers is an option builder that sets how many goroutines encode large batches.
//
// Parameters:
//   - n: the worker count, values below 1 are ignored
//
// Returns:
//   - EncoderBuilderOption: a function that applies the worker option to an encoder
func WithWorkers(n int) EncoderBuilderOption {
	return func(e *encoder) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithChunkSize is an option builder that sets how many splats one encode task covers.
// Batches no larger than one chunk are encoded on the calling goroutine.
//
// Parameters:
//   - n: splats per task, values below 1 are ignored
//
// Returns:
//   - EncoderBuilderOption: a function that applies the chunk size option to an encoder
func WithChunkSize(n int) EncoderBuilderOption {
	return func(e *encoder) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}
