package uploader

import "time"

// UploaderBuilderOption is a functional option for configuring an Uploader via NewUploader.
type UploaderBuilderOption func(*uploader)

// WithPollInterval is an option builder that sets how often texture readiness is checked.
//
// Parameters:
//   - d: the poll interval
//
// Returns:
//   - UploaderBuilderOption: a function that applies the poll interval option to an uploader
func WithPollInterval(d time.Duration) UploaderBuilderOption {
	return func(u *uploader) {
		if d > 0 {
			u.pollInterval = d
		}
	}
}

// WithReadyTimeout is an option builder that bounds the wait for texture readiness.
//
// Parameters:
//   - d: the maximum wait
//
// Returns:
//   - UploaderBuilderOption: a function that applies the timeout option to an uploader
func WithReadyTimeout(d time.Duration) UploaderBuilderOption {
	return func(u *uploader) {
		if d > 0 {
			u.readyTimeout = d
		}
	}
}
