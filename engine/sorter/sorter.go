package sorter

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-splat/common"
	"github.com/Carmen-Shannon/oxy-splat/engine/encoder"
)

// State is the request state of a Sorter.
type State int32

const (
	// StateIdle accepts a new sort request.
	StateIdle State = iota

	// StateSorting has a request in flight whose result has not been polled yet.
	StateSorting
)

func (s State) String() string {
	if s == StateSorting {
		return "sorting"
	}
	return "idle"
}

// Request asks for a back-to-front ordering of the current store.
type Request struct {
	// Epoch is the dataset generation the request was made for.
	Epoch uint64

	// View is the camera's view-space z row.
	View [4]float32

	// Cutout is an optional column-major transform into the cutout box space. It is copied.
	Cutout []float32
}

// Result is the answer to one Request.
type Result struct {
	// Epoch echoes the request epoch. Results from an older epoch must be discarded.
	Epoch uint64

	// Indexes lists the splats to draw back to front. Ownership passes to the receiver.
	Indexes []uint32

	// Splats is the number of splats in the store when the sort ran.
	Splats int

	// Elapsed is the time the sort took.
	Elapsed time.Duration
}

type messageKind int

const (
	messageClear messageKind = iota
	messagePush
	messageSort
)

type message struct {
	kind     messageKind
	epoch    uint64
	matrices []float32
	req      Request
}

// sorter is the implementation of the Sorter interface.
type sorter struct {
	mu     *sync.Mutex
	queue  []message
	wake   chan struct{}
	result chan Result

	state  atomic.Int32
	epoch  atomic.Uint64
	sorts  atomic.Uint64
	closed atomic.Bool

	quit     chan struct{}
	done     chan struct{}
	quitOnce sync.Once

	// owned by the worker goroutine
	store      []float32
	storeEpoch uint64
}

// Sorter orders splats back to front on a dedicated goroutine. It owns the only copy of
// the sort transforms; callers hand matrices over with Push and never touch them again.
// Messages are processed in the order they were sent. At most one sort is in flight.
type Sorter interface {
	// Clear starts a new dataset generation and empties the store.
	//
	// Returns:
	//   - uint64: the new epoch
	Clear() uint64

	// Push appends transforms to the store. Pushes tagged with an epoch other than the
	// current one when the worker reaches them are dropped.
	//
	// Parameters:
	//   - epoch: the generation the matrices belong to
	//   - matrices: 16 floats per splat, ownership passes to the sorter
	Push(epoch uint64, matrices []float32)

	// Sort sends a request if no other sort is in flight.
	//
	// Parameters:
	//   - req: the view and cutout to sort for
	//
	// Returns:
	//   - bool: false if a sort was already in flight and the request was not sent
	Sort(req Request) bool

	// Poll returns the pending result without blocking. Receiving a result makes the
	// sorter idle again.
	//
	// Returns:
	//   - Result: the sort result
	//   - bool: true if a result was available
	Poll() (Result, bool)

	// State returns the request state.
	//
	// Returns:
	//   - State: StateIdle or StateSorting
	State() State

	// Epoch returns the current dataset generation.
	//
	// Returns:
	//   - uint64: the epoch returned by the last Clear
	Epoch() uint64

	// Sorts returns the number of sorts completed.
	//
	// Returns:
	//   - uint64: the completed sort count
	Sorts() uint64

	// Close stops the worker goroutine. Further calls are ignored.
	Close()
}

var _ Sorter = &sorter{}

// NewSorter creates a new Sorter and starts its worker goroutine.
//
// Returns:
//   - Sorter: a running, idle Sorter at epoch 0
func NewSorter() Sorter {
	s := &sorter{
		mu:     &sync.Mutex{},
		wake:   make(chan struct{}, 1),
		result: make(chan Result, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *sorter) Clear() uint64 {
	e := s.epoch.Add(1)
	s.enqueue(message{kind: messageClear, epoch: e})
	return e
}

func (s *sorter) Push(epoch uint64, matrices []float32) {
	if len(matrices) == 0 {
		return
	}
	s.enqueue(message{kind: messagePush, epoch: epoch, matrices: matrices})
}

func (s *sorter) Sort(req Request) bool {
	if s.closed.Load() {
		return false
	}
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateSorting)) {
		return false
	}
	if req.Cutout != nil {
		req.Cutout = append([]float32(nil), req.Cutout...)
	}
	s.enqueue(message{kind: messageSort, epoch: req.Epoch, req: req})
	return true
}

func (s *sorter) Poll() (Result, bool) {
	select {
	case r := <-s.result:
		s.state.Store(int32(StateIdle))
		return r, true
	default:
		return Result{}, false
	}
}

func (s *sorter) State() State {
	return State(s.state.Load())
}

func (s *sorter) Epoch() uint64 {
	return s.epoch.Load()
}

func (s *sorter) Sorts() uint64 {
	return s.sorts.Load()
}

func (s *sorter) Close() {
	s.quitOnce.Do(func() {
		s.closed.Store(true)
		close(s.quit)
	})
	<-s.done
}

// enqueue appends a message and wakes the worker without blocking.
func (s *sorter) enqueue(m message) {
	if s.closed.Load() {
		return
	}
	s.mu.Lock()
	s.queue = append(s.queue, m)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *sorter) drain() []message {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.queue
	s.queue = nil
	return q
}

func (s *sorter) run() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case <-s.wake:
		}
		msgs := s.drain()
		s.reserve(msgs, s.storeEpoch)
		for i, m := range msgs {
			select {
			case <-s.quit:
				return
			default:
			}
			s.handle(m)
			if m.kind == messageClear {
				s.reserve(msgs[i+1:], s.storeEpoch)
			}
		}
	}
}

// pendingPush sums the matrices of the pushes for epoch queued ahead of the next clear.
func pendingPush(msgs []message, epoch uint64) int {
	n := 0
	for _, m := range msgs {
		if m.kind == messageClear {
			break
		}
		if m.kind == messagePush && m.epoch == epoch {
			n += len(m.matrices)
		}
	}
	return n
}

// reserve grows the store once for every push queued in msgs, so a burst of pushes copies
// the store once.
func (s *sorter) reserve(msgs []message, epoch uint64) {
	if n := pendingPush(msgs, epoch); cap(s.store)-len(s.store) < n {
		s.growStore(n)
	}
}

// growStore reallocates the store to fit exactly n more floats.
func (s *sorter) growStore(n int) {
	grown := make([]float32, len(s.store), len(s.store)+n)
	copy(grown, s.store)
	s.store = grown
}

func (s *sorter) handle(m message) {
	switch m.kind {
	case messageClear:
		s.store = nil
		s.storeEpoch = m.epoch
	case messagePush:
		if m.epoch != s.storeEpoch {
			common.Logger().Debug("sorter: dropping stale push", "epoch", m.epoch, "current", s.storeEpoch)
			return
		}
		if cap(s.store)-len(s.store) < len(m.matrices) {
			s.growStore(len(m.matrices))
		}
		s.store = append(s.store, m.matrices...)
	case messageSort:
		start := time.Now()
		indexes := SortSplats(s.store, m.req.View, m.req.Cutout)
		r := Result{
			Epoch:   m.req.Epoch,
			Indexes: indexes,
			Splats:  len(s.store) / encoder.MatrixStride,
			Elapsed: time.Since(start),
		}
		s.sorts.Add(1)
		common.Logger().Debug("sorter: sorted",
			"epoch", r.Epoch, "splats", r.Splats, "drawn", len(indexes), "elapsed", r.Elapsed)
		select {
		case s.result <- r:
		case <-s.quit:
		}
	}
}
