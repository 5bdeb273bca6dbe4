package pubsub

import "sync"

// Value is a latest-value publisher: readers can always get the current
// value synchronously, and subscribers receive the current value on
// subscribe followed by every update. Slow subscribers are conflated to
// the newest value rather than blocking the publisher.
type Value[T any] struct {
	mu      sync.RWMutex
	current T
	set     bool
	subs    map[int]chan T
	nextID  int
}

// NewValue creates a Value seeded with an initial current value.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		current: initial,
		set:     true,
		subs:    make(map[int]chan T),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Set replaces the current value and notifies subscribers.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	v.current = val
	v.set = true
	for _, ch := range v.subs {
		conflate(ch, val)
	}
	v.mu.Unlock()
}

// Subscribe returns a channel that immediately carries the current value,
// then every subsequent update. The returned cancel function must be
// called to release the subscription.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, 1)
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs[id] = ch
	if v.set {
		ch <- v.current
	}
	v.mu.Unlock()

	cancel := func() {
		v.mu.Lock()
		if sub, ok := v.subs[id]; ok {
			delete(v.subs, id)
			close(sub)
		}
		v.mu.Unlock()
	}
	return ch, cancel
}

// conflate delivers val on a capacity-1 channel, replacing any undelivered
// older value.
func conflate[T any](ch chan T, val T) {
	for {
		select {
		case ch <- val:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// Feed is a broadcast event stream with no replay: late subscribers only
// see events published after they subscribed. Events to a full subscriber
// buffer are dropped, never blocked on.
type Feed[T any] struct {
	mu      sync.RWMutex
	subs    map[int]chan T
	nextID  int
	bufSize int
}

// NewFeed creates a Feed whose subscriber channels buffer bufSize events.
func NewFeed[T any](bufSize int) *Feed[T] {
	if bufSize <= 0 {
		bufSize = 16
	}
	return &Feed[T]{
		subs:    make(map[int]chan T),
		bufSize: bufSize,
	}
}

// Publish delivers the event to every current subscriber.
func (f *Feed[T]) Publish(event T) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, ch := range f.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel function must
// be called to release the subscription.
func (f *Feed[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, f.bufSize)
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = ch
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// SubscriberCount returns the number of active subscribers.
func (f *Feed[T]) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}
