package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/streamlink/errors"
)

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	require.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
	assert.NotNil(t, registry.CoreMetrics())
	assert.NotNil(t, registry.Handler())
}

func TestMetricsRegistry_RegisterCounter(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_events_total",
		Help: "Test events counter",
	})

	err := registry.RegisterCounter("pipeline", "events_total", counter)
	require.NoError(t, err)

	// Same component+name is rejected before hitting prometheus.
	duplicate := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_events_total_2",
		Help: "Another counter",
	})
	err = registry.RegisterCounter("pipeline", "events_total", duplicate)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.Contains(t, err.Error(), "already registered")
}

func TestMetricsRegistry_RegisterGauge(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_queue_depth",
		Help: "Test queue depth",
	})

	err := registry.RegisterGauge("queue", "depth", gauge)
	require.NoError(t, err)
}

func TestMetricsRegistry_RegisterHistogram(t *testing.T) {
	registry := NewMetricsRegistry()

	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_dispatch_duration_seconds",
		Help:    "Test dispatch latency",
		Buckets: prometheus.DefBuckets,
	})

	err := registry.RegisterHistogram("dispatch", "duration", histogram)
	require.NoError(t, err)
}

func TestMetricsRegistry_RegisterCounterVec(t *testing.T) {
	registry := NewMetricsRegistry()

	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_frames_total",
		Help: "Test frames by direction",
	}, []string{"direction"})

	err := registry.RegisterCounterVec("transport", "frames_total", vec)
	require.NoError(t, err)

	vec.WithLabelValues("inbound").Inc()
}

func TestMetricsRegistry_PrometheusNameConflict(t *testing.T) {
	registry := NewMetricsRegistry()

	first := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_shared_name_total",
		Help: "First registration",
	})
	require.NoError(t, registry.RegisterCounter("compA", "shared", first))

	// Different registry key, same prometheus fully-qualified name.
	second := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_shared_name_total",
		Help: "First registration",
	})
	err := registry.RegisterCounter("compB", "shared", second)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestMetricsRegistry_Unregister(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_removable_total",
		Help: "Removable counter",
	})
	require.NoError(t, registry.RegisterCounter("temp", "removable", counter))

	assert.True(t, registry.Unregister("temp", "removable"))
	assert.False(t, registry.Unregister("temp", "removable"))
	assert.False(t, registry.Unregister("temp", "never_registered"))

	// Name is free again after unregistration.
	replacement := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_removable_total",
		Help: "Removable counter",
	})
	require.NoError(t, registry.RegisterCounter("temp", "removable", replacement))
}

func TestMetrics_ConnectionStatusLabels(t *testing.T) {
	registry := NewMetricsRegistry()
	core := registry.CoreMetrics()

	core.ConnectionStatus.WithLabelValues("primary").Set(2)
	core.MessagesSent.WithLabelValues("chat.message").Inc()
	core.ErrorsTotal.WithLabelValues("parse_error").Inc()

	families, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	found := map[string]bool{}
	for _, fam := range families {
		found[fam.GetName()] = true
	}
	assert.True(t, found["streamlink_connection_status"])
	assert.True(t, found["streamlink_messages_sent_total"])
	assert.True(t, found["streamlink_client_errors_total"])
}
