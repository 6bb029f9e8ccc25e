package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-splat/common"
)

// Counters is a snapshot of the splat counters reported alongside frame statistics.
type Counters struct {
	// Loaded is the number of splats encoded so far.
	Loaded int

	// Drawn is the instance count of the last accepted sort.
	Drawn int

	// Sorts is the cumulative number of completed sorts.
	Sorts uint64

	// Progress is the download fraction of the current load in [0, 1].
	Progress float64
}

// Profiler tracks frame rate, memory and splat statistics for performance monitoring.
// Outputs stats to the engine logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	counters  func() Counters
	lastSorts uint64
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed: FPS, heap usage,
// allocation rate, GC count and pause times, and the splat counters when a source is set.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}
	seconds := elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc

	gcCount := p.memStats.NumGC
	var lastPause, maxPause time.Duration
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses.
		lastPause = time.Duration(p.memStats.PauseNs[(gcCount-1)%256])
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPause = max(maxPause, time.Duration(p.memStats.PauseNs[i%256]))
		}
	}

	attrs := []any{
		"fps", round2(float64(p.frameCount) / seconds),
		"heap_mb", round2(float64(p.memStats.Alloc) / 1024 / 1024),
		"alloc_mb_s", round2(float64(allocDelta) / 1024 / 1024 / seconds),
		"gc", gcCount,
		"gc_last", lastPause,
		"gc_max", maxPause,
		"sys_mb", round2(float64(p.memStats.Sys) / 1024 / 1024),
	}
	if p.counters != nil {
		c := p.counters()
		attrs = append(attrs,
			"loaded", c.Loaded,
			"drawn", c.Drawn,
			"sorts_s", round2(float64(c.Sorts-p.lastSorts)/seconds),
			"progress", round2(c.Progress),
		)
		p.lastSorts = c.Sorts
	}
	common.Logger().Info("profiler", attrs...)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
