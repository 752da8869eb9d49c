package eventbus

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/streamlink/errors"
	"github.com/c360/streamlink/message"
	"github.com/c360/streamlink/pkg/retry"
)

// NATSBus publishes lifecycle events to a NATS server.
type NATSBus struct {
	conn *nats.Conn
}

// NATSConfig configures the NATS connection.
type NATSConfig struct {
	URL           string
	Name          string
	ConnectWait   time.Duration
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns production defaults.
func DefaultNATSConfig(url string) NATSConfig {
	return NATSConfig{
		URL:           url,
		Name:          "streamlink-eventbus",
		ConnectWait:   5 * time.Second,
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// NewNATSBus connects to NATS, retrying transient dial failures with
// backoff until ctx expires.
func NewNATSBus(ctx context.Context, cfg NATSConfig) (*NATSBus, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.Timeout(cfg.ConnectWait),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
	}

	conn, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*nats.Conn, error) {
		return nats.Connect(cfg.URL, opts...)
	})
	if err != nil {
		return nil, errors.WrapTransient(err, "NATSBus", "NewNATSBus", "connect to nats failed")
	}
	return &NATSBus{conn: conn}, nil
}

// Publish sends the envelope to the subject as JSON.
func (b *NATSBus) Publish(subject string, env message.Envelope) error {
	raw, err := env.Encode()
	if err != nil {
		return err
	}
	if err := b.conn.Publish(subject, raw); err != nil {
		return errors.WrapTransient(err, "NATSBus", "Publish", "publish event failed")
	}
	return nil
}

// Close flushes pending publishes and closes the connection.
func (b *NATSBus) Close() error {
	if b.conn == nil || b.conn.IsClosed() {
		return nil
	}
	if err := b.conn.Flush(); err != nil {
		b.conn.Close()
		return errors.Wrap(err, "NATSBus", "Close", "flush pending events failed")
	}
	b.conn.Close()
	return nil
}
