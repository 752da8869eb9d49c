package buffer

import (
	"sync/atomic"
	"time"
)

// Statistics tracks buffer activity counters. All methods are safe for
// concurrent use.
type Statistics struct {
	writes    atomic.Int64
	reads     atomic.Int64
	peeks     atomic.Int64
	overflows atomic.Int64
	drops     atomic.Int64

	currentSize atomic.Int64
	maxSize     atomic.Int64

	startTime time.Time
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{startTime: time.Now()}
}

// Write records a buffer write operation.
func (s *Statistics) Write() { s.writes.Add(1) }

// Read records a buffer read operation.
func (s *Statistics) Read() { s.reads.Add(1) }

// Peek records a buffer peek operation.
func (s *Statistics) Peek() { s.peeks.Add(1) }

// Overflow records a write that hit the capacity bound.
func (s *Statistics) Overflow() { s.overflows.Add(1) }

// Drop records an item evicted or rejected by the overflow policy.
func (s *Statistics) Drop() { s.drops.Add(1) }

// UpdateSize records the buffer's current length and advances the
// high-water mark when exceeded.
func (s *Statistics) UpdateSize(size int64) {
	s.currentSize.Store(size)
	for {
		max := s.maxSize.Load()
		if size <= max || s.maxSize.CompareAndSwap(max, size) {
			return
		}
	}
}

// Writes returns the total number of write operations.
func (s *Statistics) Writes() int64 { return s.writes.Load() }

// Reads returns the total number of read operations.
func (s *Statistics) Reads() int64 { return s.reads.Load() }

// Peeks returns the total number of peek operations.
func (s *Statistics) Peeks() int64 { return s.peeks.Load() }

// Overflows returns the total number of overflow events.
func (s *Statistics) Overflows() int64 { return s.overflows.Load() }

// Drops returns the total number of dropped items.
func (s *Statistics) Drops() int64 { return s.drops.Load() }

// CurrentSize returns the current number of items in the buffer.
func (s *Statistics) CurrentSize() int64 { return s.currentSize.Load() }

// MaxSize returns the high-water mark of items the buffer has held.
func (s *Statistics) MaxSize() int64 { return s.maxSize.Load() }

// Uptime returns how long the tracker has been collecting.
func (s *Statistics) Uptime() time.Duration { return time.Since(s.startTime) }
