package buffer

import (
	"github.com/c360/streamlink/metric"
)

// Option configures a buffer at construction time.
type Option[T any] func(*settings[T])

// settings is the resolved configuration a ring is built from.
type settings[T any] struct {
	overflowPolicy OverflowPolicy
	dropCallback   DropCallback[T]

	// When registry is set, stats are mirrored as Prometheus metrics
	// labeled with the component name.
	registry  *metric.MetricsRegistry
	component string
}

// WithOverflowPolicy selects what happens to writes at capacity.
// DropOldest is the default.
func WithOverflowPolicy[T any](policy OverflowPolicy) Option[T] {
	return func(s *settings[T]) {
		s.overflowPolicy = policy
	}
}

// WithMetrics mirrors buffer stats into registry under the given
// component label. A nil registry or empty component disables the
// mirror.
func WithMetrics[T any](registry *metric.MetricsRegistry, component string) Option[T] {
	return func(s *settings[T]) {
		if registry != nil && component != "" {
			s.registry = registry
			s.component = component
		}
	}
}

// WithDropCallback sets a callback invoked with each item dropped by the
// overflow policy or a capacity shrink.
func WithDropCallback[T any](callback DropCallback[T]) Option[T] {
	return func(s *settings[T]) {
		s.dropCallback = callback
	}
}

func newSettings[T any](options ...Option[T]) *settings[T] {
	s := &settings[T]{overflowPolicy: DropOldest}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}
