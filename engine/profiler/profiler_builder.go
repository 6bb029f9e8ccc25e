package profiler

import "time"

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often statistics are logged. Values <= 0 are ignored.
//
// Parameters:
//   - d: the logging interval
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithCounters sets the source of the splat counters logged with each report.
//
// Parameters:
//   - fn: called once per report from the render goroutine
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithCounters(fn func() Counters) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.counters = fn
	}
}
