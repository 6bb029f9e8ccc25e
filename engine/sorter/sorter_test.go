package sorter

import (
	"slices"
	"testing"
	"time"
)

// waitResult polls s until a result arrives or the deadline passes.
func waitResult(t *testing.T, s Sorter) Result {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if r, ok := s.Poll(); ok {
			return r
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("no sort result")
	return Result{}
}

func TestSorterEmptyBeforePush(t *testing.T) {
	s := NewSorter()
	defer s.Close()

	if !s.Sort(Request{Epoch: s.Epoch(), View: lookDownNegZ}) {
		t.Fatal("idle sorter refused a request")
	}
	r := waitResult(t, s)
	if r.Indexes == nil || len(r.Indexes) != 0 {
		t.Errorf("indexes = %v, want empty", r.Indexes)
	}
	if s.State() != StateIdle {
		t.Errorf("state = %s after poll, want idle", s.State())
	}
}

func TestSorterPushAndSort(t *testing.T) {
	s := NewSorter()
	defer s.Close()

	epoch := s.Clear()
	s.Push(epoch, transforms([4]float32{0, 0, -1, 1}))
	s.Push(epoch, transforms([4]float32{0, 0, -5, 1}, [4]float32{0, 0, -3, 1}))
	s.Sort(Request{Epoch: epoch, View: lookDownNegZ})

	r := waitResult(t, s)
	if r.Epoch != epoch || r.Splats != 3 {
		t.Errorf("epoch %d splats %d, want %d and 3", r.Epoch, r.Splats, epoch)
	}
	if !slices.Equal(r.Indexes, []uint32{1, 2, 0}) {
		t.Errorf("order = %v, want [1 2 0]", r.Indexes)
	}
	if s.Sorts() != 1 {
		t.Errorf("sorts = %d, want 1", s.Sorts())
	}
}

func TestSorterRefusesSecondRequest(t *testing.T) {
	s := NewSorter()
	defer s.Close()

	if !s.Sort(Request{View: lookDownNegZ}) {
		t.Fatal("first request refused")
	}
	if s.Sort(Request{View: lookDownNegZ}) {
		t.Fatal("second request accepted while the first is unpolled")
	}
	if s.State() != StateSorting {
		t.Errorf("state = %s, want sorting", s.State())
	}
	waitResult(t, s)
	if !s.Sort(Request{View: lookDownNegZ}) {
		t.Error("request refused after poll")
	}
	waitResult(t, s)
}

func TestSorterDropsStalePush(t *testing.T) {
	s := NewSorter()
	defer s.Close()

	old := s.Clear()
	current := s.Clear()
	s.Push(old, transforms([4]float32{0, 0, -1, 1}))
	s.Push(current, transforms([4]float32{0, 0, -2, 1}))
	s.Sort(Request{Epoch: current, View: lookDownNegZ})

	r := waitResult(t, s)
	if r.Splats != 1 || !slices.Equal(r.Indexes, []uint32{0}) {
		t.Errorf("splats %d indexes %v, want only the current push", r.Splats, r.Indexes)
	}
}

func TestSorterClearEmptiesStore(t *testing.T) {
	s := NewSorter()
	defer s.Close()

	e := s.Clear()
	s.Push(e, transforms([4]float32{0, 0, -1, 1}))
	s.Sort(Request{Epoch: e, View: lookDownNegZ})
	waitResult(t, s)

	e2 := s.Clear()
	if e2 != e+1 {
		t.Errorf("epoch = %d, want %d", e2, e+1)
	}
	s.Sort(Request{Epoch: e2, View: lookDownNegZ})
	if r := waitResult(t, s); r.Splats != 0 || len(r.Indexes) != 0 {
		t.Errorf("after clear: splats %d indexes %v", r.Splats, r.Indexes)
	}
}

func TestSorterCloseIdempotent(t *testing.T) {
	s := NewSorter()
	s.Close()
	s.Close()
	if s.Sort(Request{}) {
		t.Error("closed sorter accepted a request")
	}
}

func TestSorterReservesQueuedPushes(t *testing.T) {
	s := &sorter{storeEpoch: 1}
	one := transforms([4]float32{0, 0, -1, 1})
	msgs := []message{
		{kind: messagePush, epoch: 1, matrices: one},
		{kind: messagePush, epoch: 0, matrices: one}, // stale
		{kind: messagePush, epoch: 1, matrices: one},
		{kind: messagePush, epoch: 1, matrices: one},
		{kind: messageClear, epoch: 2},
		{kind: messagePush, epoch: 2, matrices: one},
	}

	s.reserve(msgs, s.storeEpoch)
	if want := 3 * len(one); cap(s.store) != want {
		t.Fatalf("reserved %d floats, want %d", cap(s.store), want)
	}
	s.handle(msgs[0])
	first := &s.store[0]
	for _, m := range msgs[1:4] {
		s.handle(m)
	}
	if len(s.store) != 3*len(one) || cap(s.store) != 3*len(one) {
		t.Errorf("store len %d cap %d, want exactly %d", len(s.store), cap(s.store), 3*len(one))
	}
	if &s.store[0] != first {
		t.Error("store reallocated despite the reservation")
	}

	s.handle(msgs[4])
	s.reserve(msgs[5:], s.storeEpoch)
	if len(s.store) != 0 || cap(s.store) != len(one) {
		t.Errorf("after clear: len %d cap %d, want 0 and %d", len(s.store), cap(s.store), len(one))
	}
}

func TestSorterPushWithoutReservationFitsExactly(t *testing.T) {
	s := &sorter{storeEpoch: 1}
	s.handle(message{kind: messagePush, epoch: 1, matrices: transforms([4]float32{0, 0, -1, 1})})
	s.handle(message{kind: messagePush, epoch: 1, matrices: transforms([4]float32{0, 0, -2, 1}, [4]float32{0, 0, -3, 1})})
	if want := 48; len(s.store) != want || cap(s.store) != want {
		t.Errorf("store len %d cap %d, want %d", len(s.store), cap(s.store), want)
	}
}
