package batch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flushRecorder struct {
	mu      sync.Mutex
	batches [][]int
	signal  chan struct{}
}

func newFlushRecorder() *flushRecorder {
	return &flushRecorder{signal: make(chan struct{}, 16)}
}

func (r *flushRecorder) flush(items []int) {
	r.mu.Lock()
	r.batches = append(r.batches, items)
	r.mu.Unlock()
	r.signal <- struct{}{}
}

func (r *flushRecorder) snapshot() [][]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]int, len(r.batches))
	copy(out, r.batches)
	return out
}

func waitForFlush(t *testing.T, r *flushRecorder) {
	t.Helper()
	select {
	case <-r.signal:
	case <-time.After(2 * time.Second):
		t.Fatal("flush never happened")
	}
}

func TestBatcher_FlushesWhenFull(t *testing.T) {
	rec := newFlushRecorder()
	b := New(3, time.Hour, rec.flush)
	defer b.Stop()

	b.Add(1)
	b.Add(2)
	b.Add(3)

	waitForFlush(t, rec)
	batches := rec.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, []int{1, 2, 3}, batches[0])
}

func TestBatcher_FlushesOnInterval(t *testing.T) {
	rec := newFlushRecorder()
	b := New(100, 20*time.Millisecond, rec.flush)
	defer b.Stop()

	b.Add(42)
	waitForFlush(t, rec)

	batches := rec.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, []int{42}, batches[0])
}

func TestBatcher_ManualFlush(t *testing.T) {
	rec := newFlushRecorder()
	b := New(100, time.Hour, rec.flush)
	defer b.Stop()

	b.Add(1)
	b.Add(2)
	b.Flush()

	batches := rec.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, []int{1, 2}, batches[0])

	// Nothing pending: flush is a no-op.
	b.Flush()
	assert.Len(t, rec.snapshot(), 1)
}

func TestBatcher_StopFlushesRemainder(t *testing.T) {
	rec := newFlushRecorder()
	b := New(100, time.Hour, rec.flush)

	b.Add(7)
	b.Stop()
	b.Stop() // idempotent

	batches := rec.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, []int{7}, batches[0])
}
