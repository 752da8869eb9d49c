package buffer

import (
	"sync"

	"github.com/c360/streamlink/errors"
)

// ring is a thread-safe bounded FIFO buffer. Items live in a slice ordered
// oldest-first; the bound may change at runtime, so modular index
// arithmetic is not worth the bookkeeping here.
type ring[T any] struct {
	mu       sync.RWMutex
	items    []T
	capacity int // 0 = unbounded
	closed   bool
	stats    *Statistics
	metrics  *bufferMetrics
	opts     *settings[T]
}

func newRing[T any](capacity int, opts *settings[T]) (*ring[T], error) {
	if capacity < 0 {
		capacity = 0
	}

	// Stats are always collected; prometheus metrics are opt-in.
	stats := NewStatistics()

	var metrics *bufferMetrics
	if opts.registry != nil && opts.component != "" {
		var err error
		metrics, err = newBufferMetrics(opts.registry, opts.component)
		if err != nil {
			return nil, errors.WrapTransient(err, "buffer", "newRing", "metrics registration")
		}
	}

	return &ring[T]{
		items:    make([]T, 0),
		capacity: capacity,
		stats:    stats,
		metrics:  metrics,
		opts:     opts,
	}, nil
}

// Write adds an item according to the overflow policy.
func (r *ring[T]) Write(item T) error {
	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()
		return errors.WrapInvalid(errors.ErrQueueClosed, "Buffer", "Write", "buffer closed")
	}

	var dropped []T

	if r.capacity > 0 && len(r.items) >= r.capacity {
		r.stats.Overflow()
		r.stats.Drop()
		if r.metrics != nil {
			r.metrics.recordOverflow()
			r.metrics.recordDrop()
		}

		if r.opts.overflowPolicy == DropNewest {
			r.mu.Unlock()
			if r.opts.dropCallback != nil {
				r.opts.dropCallback(item)
			}
			return nil
		}

		// DropOldest: evict from the front until there is room. More than
		// one eviction only happens after the capacity was shrunk.
		evict := len(r.items) - r.capacity + 1
		dropped = append(dropped, r.items[:evict]...)
		r.items = append(r.items[:0], r.items[evict:]...)
	}

	r.items = append(r.items, item)
	r.stats.Write()
	r.stats.UpdateSize(int64(len(r.items)))
	if r.metrics != nil {
		r.metrics.recordWrite(len(r.items), r.capacity)
	}
	r.mu.Unlock()

	// Callback runs outside the lock to avoid deadlock
	if r.opts.dropCallback != nil {
		for _, d := range dropped {
			r.opts.dropCallback(d)
		}
	}

	return nil
}

// Read retrieves and removes the oldest item.
func (r *ring[T]) Read() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	if len(r.items) == 0 {
		return zero, false
	}

	item := r.items[0]
	r.items[0] = zero // Clear for GC
	r.items = r.items[1:]

	r.stats.Read()
	r.stats.UpdateSize(int64(len(r.items)))
	if r.metrics != nil {
		r.metrics.recordRead(len(r.items), r.capacity)
	}

	return item, true
}

// ReadBatch retrieves and removes up to max items in FIFO order.
func (r *ring[T]) ReadBatch(max int) []T {
	if max <= 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.items) == 0 {
		return nil
	}

	n := max
	if n > len(r.items) {
		n = len(r.items)
	}

	result := make([]T, n)
	copy(result, r.items[:n])

	var zero T
	for i := 0; i < n; i++ {
		r.items[i] = zero
	}
	r.items = r.items[n:]

	for i := 0; i < n; i++ {
		r.stats.Read()
	}
	r.stats.UpdateSize(int64(len(r.items)))
	if r.metrics != nil {
		r.metrics.updateSize(len(r.items), r.capacity)
	}

	return result
}

// Drain removes and returns every buffered item in FIFO order.
func (r *ring[T]) Drain() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.items) == 0 {
		return nil
	}

	result := r.items
	r.items = make([]T, 0)

	for range result {
		r.stats.Read()
	}
	r.stats.UpdateSize(0)
	if r.metrics != nil {
		r.metrics.updateSize(0, r.capacity)
	}

	return result
}

// Snapshot returns the buffered items in FIFO order without removing them.
func (r *ring[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]T, len(r.items))
	copy(result, r.items)
	return result
}

// Peek retrieves the oldest item without removing it.
func (r *ring[T]) Peek() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var zero T
	if len(r.items) == 0 {
		return zero, false
	}

	r.stats.Peek()
	if r.metrics != nil {
		r.metrics.recordPeek()
	}

	return r.items[0], true
}

// Size returns the current number of items in the buffer.
func (r *ring[T]) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Capacity returns the configured bound (0 = unbounded).
func (r *ring[T]) Capacity() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.capacity
}

// SetCapacity changes the bound, evicting the oldest items if shrinking
// below the current size.
func (r *ring[T]) SetCapacity(capacity int) {
	if capacity < 0 {
		capacity = 0
	}

	r.mu.Lock()

	var dropped []T
	r.capacity = capacity
	if capacity > 0 && len(r.items) > capacity {
		evict := len(r.items) - capacity
		dropped = append(dropped, r.items[:evict]...)
		r.items = append(r.items[:0], r.items[evict:]...)

		for range dropped {
			r.stats.Drop()
		}
		r.stats.UpdateSize(int64(len(r.items)))
		if r.metrics != nil {
			r.metrics.updateSize(len(r.items), r.capacity)
		}
	}
	r.mu.Unlock()

	if r.opts.dropCallback != nil {
		for _, d := range dropped {
			r.opts.dropCallback(d)
		}
	}
}

// IsEmpty returns true if the buffer contains no items.
func (r *ring[T]) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items) == 0
}

// Clear removes all items from the buffer.
func (r *ring[T]) Clear() {
	r.mu.Lock()
	r.items = make([]T, 0)
	r.stats.UpdateSize(0)
	if r.metrics != nil {
		r.metrics.updateSize(0, r.capacity)
	}
	r.mu.Unlock()
}

// Stats returns buffer statistics.
func (r *ring[T]) Stats() *Statistics {
	return r.stats
}

// Close shuts down the buffer. Buffered items remain readable.
func (r *ring[T]) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
