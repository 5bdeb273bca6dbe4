package batch

import (
	"sync"
	"time"
)

// Batcher accumulates items and hands them to a flush function either when
// the batch fills or when the interval elapses, whichever comes first.
// Used to coalesce analytics events before they hit the wire.
type Batcher[T any] struct {
	batchSize     int
	batchInterval time.Duration
	flush         func([]T)

	mu        sync.Mutex
	pending   []T
	flushChan chan struct{}
	stopChan  chan struct{}
	stopOnce  sync.Once
}

// New creates and starts a batcher.
func New[T any](batchSize int, batchInterval time.Duration, flush func([]T)) *Batcher[T] {
	b := &Batcher[T]{
		batchSize:     batchSize,
		batchInterval: batchInterval,
		flush:         flush,
		pending:       make([]T, 0, batchSize),
		flushChan:     make(chan struct{}, 1),
		stopChan:      make(chan struct{}),
	}
	go b.run()
	return b
}

// Add queues one item, triggering a flush when the batch is full.
func (b *Batcher[T]) Add(item T) {
	b.mu.Lock()
	b.pending = append(b.pending, item)
	shouldFlush := len(b.pending) >= b.batchSize
	b.mu.Unlock()

	if shouldFlush {
		select {
		case b.flushChan <- struct{}{}:
		default:
		}
	}
}

// Flush hands all pending items to the flush function immediately.
func (b *Batcher[T]) Flush() {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	items := make([]T, len(b.pending))
	copy(items, b.pending)
	b.pending = b.pending[:0]
	b.mu.Unlock()

	b.flush(items)
}

// Stop flushes remaining items and stops the background loop.
func (b *Batcher[T]) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopChan)
		b.Flush()
	})
}

func (b *Batcher[T]) run() {
	ticker := time.NewTicker(b.batchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.Flush()
		case <-b.flushChan:
			b.Flush()
		case <-b.stopChan:
			return
		}
	}
}
