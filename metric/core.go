package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all core client metrics (not payload-specific)
type Metrics struct {
	// Connection metrics
	ConnectionStatus  *prometheus.GaugeVec
	ConnectsTotal     prometheus.Counter
	ReconnectsTotal   prometheus.Counter
	RetryAttempts     prometheus.Gauge
	HeartbeatRTT      prometheus.Gauge
	HeartbeatTimeouts prometheus.Counter

	// Message metrics
	MessagesSent     *prometheus.CounterVec
	MessagesReceived *prometheus.CounterVec
	MessagesQueued   prometheus.Gauge
	BytesSent        prometheus.Counter
	BytesReceived    prometheus.Counter

	// Error metrics
	ErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all core client metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ConnectionStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "streamlink",
				Subsystem: "connection",
				Name:      "status",
				Help: "Connection status (0=disconnected, 1=connecting, 2=connected, " +
					"3=reconnecting, 4=timeout, 5=error, 6=failed)",
			},
			[]string{"client"},
		),

		ConnectsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "streamlink",
				Subsystem: "connection",
				Name:      "connects_total",
				Help:      "Total number of successful connections",
			},
		),

		ReconnectsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "streamlink",
				Subsystem: "connection",
				Name:      "reconnects_total",
				Help:      "Total number of reconnection attempts",
			},
		),

		RetryAttempts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "streamlink",
				Subsystem: "connection",
				Name:      "retry_attempts",
				Help:      "Retry attempts in the current reconnection round",
			},
		),

		HeartbeatRTT: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "streamlink",
				Subsystem: "heartbeat",
				Name:      "rtt_seconds",
				Help:      "Round-trip time of the most recent heartbeat probe",
			},
		),

		HeartbeatTimeouts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "streamlink",
				Subsystem: "heartbeat",
				Name:      "timeouts_total",
				Help:      "Total number of heartbeat timeouts",
			},
		),

		MessagesSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streamlink",
				Subsystem: "messages",
				Name:      "sent_total",
				Help:      "Total number of envelopes sent",
			},
			[]string{"type"},
		),

		MessagesReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streamlink",
				Subsystem: "messages",
				Name:      "received_total",
				Help:      "Total number of envelopes received",
			},
			[]string{"type"},
		),

		MessagesQueued: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "streamlink",
				Subsystem: "messages",
				Name:      "queued",
				Help:      "Envelopes waiting in the outbound queue",
			},
		),

		BytesSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "streamlink",
				Subsystem: "messages",
				Name:      "bytes_sent_total",
				Help:      "Total bytes written to the transport",
			},
		),

		BytesReceived: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "streamlink",
				Subsystem: "messages",
				Name:      "bytes_received_total",
				Help:      "Total bytes read from the transport",
			},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "streamlink",
				Subsystem: "client",
				Name:      "errors_total",
				Help:      "Client errors by failure kind",
			},
			[]string{"kind"},
		),
	}
}
