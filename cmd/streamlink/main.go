// Package main implements the streamlink diagnostic tool: it opens a
// session against a WebSocket endpoint, subscribes to every envelope,
// and prints the stream while keeping the connection alive through
// reconnection and heartbeats. Useful for probing a backend by hand
// and as an end-to-end exercise of the library.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/c360/streamlink/client"
	"github.com/c360/streamlink/dispatch"
	"github.com/c360/streamlink/eventbus"
	"github.com/c360/streamlink/message"
	"github.com/c360/streamlink/metric"
)

const (
	Version = "0.1.0"
	appName = "streamlink"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := parseFlags()

	if cfg.ShowVersion {
		fmt.Printf("%s %s\n", appName, Version)
		return nil
	}
	if cfg.URL == "" {
		return fmt.Errorf("missing -url (or STREAMLINK_URL)")
	}

	opts, registry, err := buildOptions(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.EventBusURL != "" {
		bus, err := eventbus.NewNATSBus(ctx, eventbus.DefaultNATSConfig(cfg.EventBusURL))
		if err != nil {
			return fmt.Errorf("connect event bus: %w", err)
		}
		defer bus.Close()
		opts = append(opts, client.WithEventBus(bus))
	}

	c, err := client.New(opts...)
	if err != nil {
		return err
	}

	if registry != nil && cfg.MetricsPort > 0 {
		go serveMetrics(cfg.MetricsPort, registry)
	}

	c.On(dispatch.Wildcard, func(env message.Envelope) {
		fmt.Printf("%s  %-24s %s\n", time.Now().Format(time.RFC3339), env.Type, env.Data)
	})

	if err := c.Connect(ctx, cfg.URL); err != nil {
		return fmt.Errorf("connect %s: %w", cfg.URL, err)
	}
	log.Printf("Connected to %s, streaming until interrupted", cfg.URL)

	<-ctx.Done()
	return c.Disconnect()
}

func buildOptions(cfg *CLIConfig) ([]client.Option, *metric.MetricsRegistry, error) {
	opts := []client.Option{
		client.WithConnectTimeout(cfg.ConnectTimeout),
		client.WithMaxRetries(cfg.MaxRetries),
		client.WithRetryDelay(cfg.RetryDelay),
		client.WithQueueSize(cfg.QueueSize),
	}
	if cfg.Exponential {
		opts = append(opts, client.WithExponentialBackoff())
	}
	if cfg.RetryJitter {
		opts = append(opts, client.WithRetryJitter())
	}
	if cfg.HeartbeatInterval > 0 {
		opts = append(opts, client.WithHeartbeat(cfg.HeartbeatInterval, cfg.HeartbeatTimeout))
	}
	if cfg.Token != "" {
		opts = append(opts, client.WithAuthentication(client.AuthTypeBearer, cfg.Token))
	}
	if cfg.Protocols != "" {
		protocols := strings.Split(cfg.Protocols, ",")
		opts = append(opts, client.WithProtocols(protocols...), client.WithValidateProtocol())
	}
	if cfg.Debug {
		opts = append(opts, client.WithLogger(&debugLogger{}))
	}

	var registry *metric.MetricsRegistry
	if cfg.MetricsPort > 0 {
		registry = metric.NewMetricsRegistry()
		opts = append(opts, client.WithMetricsRegistry(registry))
	}
	return opts, registry, nil
}

func serveMetrics(port int, registry *metric.MetricsRegistry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	addr := fmt.Sprintf(":%d", port)
	log.Printf("Serving metrics on %s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("Metrics server stopped: %v", err)
	}
}

// debugLogger surfaces the client's debug stream on stderr.
type debugLogger struct{}

func (l *debugLogger) Printf(format string, v ...any) {
	log.Printf("[STREAMLINK] "+format, v...)
}

func (l *debugLogger) Errorf(format string, v ...any) {
	log.Printf("[STREAMLINK ERROR] "+format, v...)
}

func (l *debugLogger) Debugf(format string, v ...any) {
	log.Printf("[STREAMLINK DEBUG] "+format, v...)
}
