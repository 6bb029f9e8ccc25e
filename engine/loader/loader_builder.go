package loader

import (
	"net/http"
	"time"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithHTTPClient is an option builder that sets the HTTP client used for remote sources.
//
// Parameters:
//   - c: the client; nil keeps http.DefaultClient
//
// Returns:
//   - LoaderBuilderOption: a function that applies the client option to a loader
func WithHTTPClient(c *http.Client) LoaderBuilderOption {
	return func(l *loader) {
		if c != nil {
			l.client = c
		}
	}
}

// WithRetryInterval is an option builder that sets the pause between failed fetch attempts.
//
// Parameters:
//   - d: the retry interval, must be positive
//
// Returns:
//   - LoaderBuilderOption: a function that applies the retry interval option to a loader
func WithRetryInterval(d time.Duration) LoaderBuilderOption {
	return func(l *loader) {
		if d > 0 {
			l.retryInterval = d
		}
	}
}

// WithThreshold is an option builder that sets the streaming emission threshold in bytes.
//
// Parameters:
//   - bytes: buffered bytes that must be exceeded before rows are emitted
//
// Returns:
//   - LoaderBuilderOption: a function that applies the threshold option to a loader
func WithThreshold(bytes int) LoaderBuilderOption {
	return func(l *loader) {
		if bytes >= 0 {
			l.threshold = bytes
		}
	}
}

// WithReadChunkSize is an option builder that sets the size of each read from the source.
//
// Parameters:
//   - bytes: the read buffer size
//
// Returns:
//   - LoaderBuilderOption: a function that applies the chunk size option to a loader
func WithReadChunkSize(bytes int) LoaderBuilderOption {
	return func(l *loader) {
		if bytes > 0 {
			l.chunkSize = bytes
		}
	}
}
