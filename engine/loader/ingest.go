package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-splat/common"
	"github.com/Carmen-Shannon/oxy-splat/engine/wire"
)

// Ingestor accumulates source chunks and hands row-aligned batches to a Sink.
// It is not safe for concurrent use; one Ingestor serves one load.
type Ingestor struct {
	backend   loaderBackend
	total     int64
	threshold int
	sink      Sink

	pending    []byte
	downloaded int64
	processed  int64
	emitted    int
	sizeSent   bool
	flushed    bool
}

// NewIngestor creates an Ingestor for the given format.
//
// Parameters:
//   - format: the source format, which decides whether rows stream before the end
//   - total: the source length in bytes, or -1 when unknown
//   - threshold: buffered bytes that must be exceeded before a streaming emission
//   - sink: the receiver of size notifications, batches and progress
//
// Returns:
//   - *Ingestor: the new ingestor
func NewIngestor(format Format, total int64, threshold int, sink Sink) *Ingestor {
	var b loaderBackend
	switch format {
	case FormatPLY:
		b = newPLYLoaderBackend()
	default:
		b = newSplatLoaderBackend()
	}
	return newIngestor(b, total, threshold, sink)
}

func newIngestor(backend loaderBackend, total int64, threshold int, sink Sink) *Ingestor {
	ing := &Ingestor{
		backend:   backend,
		total:     total,
		threshold: threshold,
		sink:      sink,
	}
	if ing.streams() {
		ing.sizeSent = true
		sink.OnSize(rowCount(total))
	}
	return ing
}

// streams reports whether rows are emitted before end of stream.
func (i *Ingestor) streams() bool {
	return i.backend.Streaming() && i.total > 0
}

// Write appends a chunk and, for streamable sources, emits every whole row once the
// buffered amount exceeds the threshold. The chunk is copied.
//
// Parameters:
//   - chunk: the bytes just read from the source
//
// Returns:
//   - error: the sink's error, if it rejected a batch
func (i *Ingestor) Write(chunk []byte) error {
	if i.flushed {
		return fmt.Errorf("loader: write after flush")
	}
	i.pending = append(i.pending, chunk...)
	i.downloaded += int64(len(chunk))

	if i.streams() && len(i.pending) > i.threshold {
		if err := i.emitWhole(); err != nil {
			return err
		}
	}
	i.sink.OnProgress(i.Progress())
	return nil
}

// Flush finishes the load: PLY sources are imported in full, binary sources emit their
// remaining whole rows. A trailing partial row is dropped.
//
// Returns:
//   - error: a format error from the backend or the sink's error
func (i *Ingestor) Flush() error {
	if i.flushed {
		return nil
	}
	i.flushed = true

	rows, n, err := i.backend.Finish(i.pending)
	consumed := int64(len(i.pending))
	i.pending = nil
	if err != nil {
		return fmt.Errorf("loader: %s import: %w", i.backend.Format(), err)
	}

	if !i.sizeSent {
		i.sizeSent = true
		i.sink.OnSize(i.emitted + n)
	}
	if n > 0 {
		if err := i.sink.OnRows(rows, n); err != nil {
			return err
		}
		i.emitted += n
	}
	i.processed += consumed
	i.sink.OnProgress(i.Progress())
	return nil
}

// emitWhole hands every whole buffered row to the sink and keeps the partial remainder.
func (i *Ingestor) emitWhole() error {
	n := len(i.pending) / wire.RowSize
	if n == 0 {
		return nil
	}
	size := n * wire.RowSize
	rows := make([]byte, size)
	copy(rows, i.pending[:size])

	rest := len(i.pending) - size
	copy(i.pending, i.pending[size:])
	i.pending = i.pending[:rest]

	common.Logger().Debug("loader: emitting rows", "rows", n, "retained", rest)
	if err := i.sink.OnRows(rows, n); err != nil {
		return err
	}
	i.emitted += n
	i.processed += int64(size)
	return nil
}

// Progress returns the current progress snapshot.
//
// Returns:
//   - Progress: bytes downloaded, bytes processed and the total
func (i *Ingestor) Progress() Progress {
	return Progress{
		BytesDownloaded: i.downloaded,
		BytesProcessed:  i.processed,
		Total:           i.total,
	}
}

// Emitted returns the number of rows handed to the sink so far.
//
// Returns:
//   - int: the emitted row count
func (i *Ingestor) Emitted() int {
	return i.emitted
}

// Pending returns the number of buffered bytes not yet emitted.
//
// Returns:
//   - int: the buffered byte count
func (i *Ingestor) Pending() int {
	return len(i.pending)
}
