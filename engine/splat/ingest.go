package splat

import (
	"context"

	"github.com/Carmen-Shannon/oxy-splat/engine/loader"
)

type batchKind int

const (
	batchSize batchKind = iota
	batchRows
)

// batch is one unit of work handed from an ingestion goroutine to the render thread.
type batch struct {
	epoch uint64
	kind  batchKind
	rows  []byte
	count int
}

// ingestSink forwards loader output onto the engine's bounded batch channel. A full channel
// blocks the ingestion until the render thread catches up or the load is cancelled.
type ingestSink struct {
	ctx    context.Context
	epoch  uint64
	engine *engine
}

var _ loader.Sink = &ingestSink{}

func (s *ingestSink) OnSize(vertexCount int) {
	_ = s.send(batch{kind: batchSize, count: vertexCount})
}

func (s *ingestSink) OnRows(rows []byte, count int) error {
	return s.send(batch{kind: batchRows, rows: rows, count: count})
}

func (s *ingestSink) OnProgress(p loader.Progress) {
	e := s.engine
	e.progressMu.Lock()
	defer e.progressMu.Unlock()
	if e.progressEpoch == s.epoch {
		e.progress = p
	}
}

func (s *ingestSink) send(b batch) error {
	b.epoch = s.epoch
	select {
	case s.engine.batches <- b:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}
