// Package buffer provides generic, thread-safe bounded FIFO buffers.
//
// This package offers a circular buffer with configurable overflow
// policies. Statistics are always collected for observability; Prometheus
// metrics can be optionally enabled via the WithMetrics functional option.
package buffer

// Buffer represents a bounded FIFO buffer parameterized by item type T.
type Buffer[T any] interface {
	// Write adds an item to the buffer. Behavior at capacity depends on
	// the overflow policy.
	Write(item T) error

	// Read retrieves and removes the oldest item.
	// Returns the zero value and false if the buffer is empty.
	Read() (T, bool)

	// ReadBatch retrieves and removes up to max items in FIFO order.
	ReadBatch(max int) []T

	// Drain removes and returns every buffered item in FIFO order.
	Drain() []T

	// Snapshot returns the buffered items in FIFO order without removing them.
	Snapshot() []T

	// Peek retrieves the oldest item without removing it.
	Peek() (T, bool)

	// Size returns the current number of items in the buffer.
	Size() int

	// Capacity returns the maximum number of items the buffer can hold.
	// Zero means unbounded.
	Capacity() int

	// SetCapacity changes the bound. Shrinking evicts the oldest items;
	// the drop callback observes each eviction.
	SetCapacity(capacity int)

	// IsEmpty returns true if the buffer contains no items.
	IsEmpty() bool

	// Clear removes all items from the buffer.
	Clear()

	// Stats returns buffer statistics (always available for observability).
	Stats() *Statistics

	// Close shuts down the buffer. Subsequent writes fail.
	Close() error
}

// OverflowPolicy defines how the buffer behaves when it reaches capacity.
type OverflowPolicy int

const (
	// DropOldest removes the oldest item to make room for new items, so a
	// full buffer always holds the most recent Capacity() items.
	DropOldest OverflowPolicy = iota

	// DropNewest drops the incoming item when the buffer is full.
	DropNewest
)

// String returns a human-readable representation of the overflow policy.
func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "DropOldest"
	case DropNewest:
		return "DropNewest"
	default:
		return "Unknown"
	}
}

// DropCallback is called with each item dropped due to the overflow policy.
type DropCallback[T any] func(item T)

// NewRing creates a bounded FIFO buffer with the given capacity and
// options. A capacity of zero means unbounded until SetCapacity is called.
// Returns an error if metrics registration fails when metrics are requested.
func NewRing[T any](capacity int, options ...Option[T]) (Buffer[T], error) {
	return newRing(capacity, newSettings(options...))
}
