// Package metric provides Prometheus-based metrics collection for
// StreamLink client observability.
//
// The package offers a centralized metrics registry managing both core
// client metrics (connection status, reconnects, heartbeat RTT, queue
// depth) and custom component-specific metrics registered by name.
//
// # Architecture
//
//  1. Core Metrics: client-level metrics automatically registered (Metrics type)
//  2. Component Registry: extensible registration for component-specific
//     metrics (MetricsRegistrar interface)
//  3. Handler: an http.Handler in Prometheus exposition format for
//     embedding in a host application
//
// StreamLink is a library, so it never opens a listening port itself; the
// host application mounts Handler() wherever it serves diagnostics.
//
// # Usage
//
//	registry := metric.NewMetricsRegistry()
//	c, _ := client.New(client.WithMetricsRegistry(registry))
//	http.Handle("/metrics", registry.Handler())
//
// Component metrics are namespaced by component name to prevent
// collisions; duplicate registration returns a classified invalid error.
package metric
