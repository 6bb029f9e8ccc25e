package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-splat/common"
	"github.com/Carmen-Shannon/oxy-splat/engine/wire"
)

const (
	// DefaultThreshold is the number of buffered bytes a binary stream must exceed
	// before whole rows are handed to the sink.
	DefaultThreshold = 256 * 1024

	// DefaultRetryInterval is the pause between failed fetch attempts.
	DefaultRetryInterval = time.Second

	defaultReadChunkSize = 64 * 1024
)

var (
	// ErrUnsupportedSource is returned when a source string names a scheme the loader cannot open.
	ErrUnsupportedSource = errors.New("loader: unsupported source")
)

// Progress reports how far an ingestion has advanced.
type Progress struct {
	// BytesDownloaded is the number of raw bytes read from the source so far.
	BytesDownloaded int64

	// BytesProcessed is the number of bytes already handed to the sink as rows.
	BytesProcessed int64

	// Total is the source length in bytes, or -1 when unknown.
	Total int64
}

// Fraction returns the download completion in [0, 1], or 0 when the total is unknown.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return common.Clamp(float64(p.BytesDownloaded)/float64(p.Total), 0, 1)
}

// Sink receives the output of an ingestion.
type Sink interface {
	// OnSize announces the number of splats the load is expected to produce. It fires exactly
	// once per load: before any rows when the length is known up front, otherwise at flush.
	//
	// Parameters:
	//   - vertexCount: the expected splat count
	OnSize(vertexCount int)

	// OnRows delivers a row-aligned batch. The slice is owned by the sink.
	// Returning an error aborts the ingestion.
	//
	// Parameters:
	//   - rows: count*32 bytes of wire rows
	//   - count: the number of rows in the batch
	//
	// Returns:
	//   - error: non-nil to stop the load
	OnRows(rows []byte, count int) error

	// OnProgress is called after every chunk read from the source.
	//
	// Parameters:
	//   - p: the current progress snapshot
	OnProgress(p Progress)
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	client        *http.Client
	retryInterval time.Duration
	threshold     int
	chunkSize     int

	backends map[Format]loaderBackend
}

// Loader opens splat sources and streams their rows into a Sink.
// It hides the transport (HTTP or file), compression and the on-disk format
// behind a per-format backend.
type Loader interface {
	// Open resolves a source string to a readable body, its length and its format.
	// HTTP sources are retried at a fixed interval until they succeed or ctx is cancelled.
	//
	// Parameters:
	//   - ctx: cancels the fetch and any pending retry
	//   - src: an http(s) URL, a file:// URL or a local path
	//
	// Returns:
	//   - *Source: the opened source, whose Body the caller must close
	//   - error: error if the source cannot be opened
	Open(ctx context.Context, src string) (*Source, error)

	// Ingest opens src and pushes every row it contains to sink. It blocks until the
	// stream is drained, an error occurs or ctx is cancelled.
	//
	// Parameters:
	//   - ctx: cancels the load
	//   - src: the source string, as accepted by Open
	//   - sink: the receiver of size notifications, row batches and progress
	//
	// Returns:
	//   - error: nil on success, ctx.Err() on cancellation, or a wrapped read or format error
	Ingest(ctx context.Context, src string, sink Sink) error

	// Threshold returns the streaming emission threshold in bytes.
	//
	// Returns:
	//   - int: the threshold
	Threshold() int
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with both the binary and PLY backends registered.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:            sync.RWMutex{},
		client:        http.DefaultClient,
		retryInterval: DefaultRetryInterval,
		threshold:     DefaultThreshold,
		chunkSize:     defaultReadChunkSize,
		backends: map[Format]loaderBackend{
			FormatSplat: newSplatLoaderBackend(),
			FormatPLY:   newPLYLoaderBackend(),
		},
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Threshold() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.threshold
}

func (l *loader) Ingest(ctx context.Context, src string, sink Sink) error {
	source, err := l.Open(ctx, src)
	if err != nil {
		return err
	}
	defer source.Body.Close()

	backend, err := l.resolveBackend(source.Format)
	if err != nil {
		return err
	}

	l.mu.RLock()
	threshold, chunkSize := l.threshold, l.chunkSize
	l.mu.RUnlock()

	common.Logger().Info("loader: ingest started",
		"source", source.Name, "format", source.Format, "length", source.Length)

	ing := newIngestor(backend, source.Length, threshold, sink)
	started := time.Now()
	buf := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, rerr := source.Body.Read(buf)
		if n > 0 {
			if err := ing.Write(buf[:n]); err != nil {
				return err
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("loader: read %s: %w", source.Name, rerr)
		}
	}

	if err := ing.Flush(); err != nil {
		return err
	}

	p := ing.Progress()
	elapsed := time.Since(started)
	common.Logger().Info("loader: ingest finished",
		"source", source.Name,
		"splats", ing.Emitted(),
		"bytes", p.BytesDownloaded,
		"elapsed", elapsed,
		"mb_per_sec", throughput(p.BytesDownloaded, elapsed))
	return nil
}

// resolveBackend selects the backend registered for the given format.
func (l *loader) resolveBackend(format Format) (loaderBackend, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	b, ok := l.backends[format]
	if !ok {
		return nil, fmt.Errorf("%w: no backend for format %s", ErrUnsupportedSource, format)
	}
	return b, nil
}

func throughput(bytes int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(bytes) / (1024 * 1024) / elapsed.Seconds()
}

// rowCount converts a byte length into a whole number of wire rows.
func rowCount(n int64) int {
	if n <= 0 {
		return 0
	}
	return int(n / wire.RowSize)
}
