package client

import (
	"fmt"
	"log"
	"time"

	"github.com/c360/streamlink/errors"
	"github.com/c360/streamlink/eventbus"
	"github.com/c360/streamlink/message"
	"github.com/c360/streamlink/metric"
)

// Logger interface for injecting custom loggers
type Logger interface {
	Printf(format string, v ...any)
	Errorf(format string, v ...any)
	Debugf(format string, v ...any)
}

// defaultLogger implements Logger using standard log package
type defaultLogger struct{}

func (l *defaultLogger) Printf(format string, v ...any) {
	log.Printf("[STREAMLINK] "+format, v...)
}

func (l *defaultLogger) Errorf(format string, v ...any) {
	log.Printf("[STREAMLINK ERROR] "+format, v...)
}

func (l *defaultLogger) Debugf(_ string, _ ...any) {
	// Silent by default
}

// AuthTypeBearer is the only authentication scheme currently supported.
const AuthTypeBearer = "bearer"

// Authentication configures the credential envelope sent first after
// the transport opens.
type Authentication struct {
	Type  string
	Token string
}

// Envelope returns the credential envelope for the wire.
func (a *Authentication) Envelope() message.Envelope {
	return message.NewAuth(a.Token)
}

// Option is a functional option for configuring the Client
type Option func(*Client) error

// WithProtocols sets the application sub-protocols offered at handshake,
// in preference order
func WithProtocols(protocols ...string) Option {
	return func(c *Client) error {
		c.protocols = protocols
		return nil
	}
}

// WithConnectTimeout bounds how long Connect waits for the transport
// to report open
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return errors.WrapInvalid(
				fmt.Errorf("connect timeout must be positive, got %v: %w", d, errors.ErrInvalidConfig),
				"Client", "WithConnectTimeout", "option rejected")
		}
		c.connectTimeout = d
		return nil
	}
}

// WithMaxRetries caps automatic reconnection attempts (0 = unlimited)
func WithMaxRetries(n int) Option {
	return func(c *Client) error {
		if n < 0 {
			return errors.WrapInvalid(
				fmt.Errorf("max retries must be >= 0, got %d: %w", n, errors.ErrInvalidConfig),
				"Client", "WithMaxRetries", "option rejected")
		}
		c.maxRetries = n
		return nil
	}
}

// WithRetryDelay sets the base backoff unit between reconnection attempts
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return errors.WrapInvalid(
				fmt.Errorf("retry delay must be positive, got %v: %w", d, errors.ErrInvalidConfig),
				"Client", "WithRetryDelay", "option rejected")
		}
		c.retryDelay = d
		return nil
	}
}

// WithMaxRetryDelay caps the computed backoff delay
func WithMaxRetryDelay(d time.Duration) Option {
	return func(c *Client) error {
		c.maxRetryDelay = d
		return nil
	}
}

// WithExponentialBackoff doubles the backoff delay per attempt instead
// of keeping it flat
func WithExponentialBackoff() Option {
	return func(c *Client) error {
		c.exponentialBackoff = true
		return nil
	}
}

// WithRetryJitter adds up to 25% randomness to each backoff delay so a
// fleet of clients does not reconnect in lockstep
func WithRetryJitter() Option {
	return func(c *Client) error {
		c.retryJitter = true
		return nil
	}
}

// WithAutoReconnect controls whether unplanned connection loss starts
// the backoff loop
func WithAutoReconnect(enabled bool) Option {
	return func(c *Client) error {
		c.autoReconnect = enabled
		return nil
	}
}

// WithHeartbeat enables the liveness monitor: a probe every interval,
// each answered within timeout or the connection is declared dead
func WithHeartbeat(interval, timeout time.Duration) Option {
	return func(c *Client) error {
		if interval <= 0 || timeout <= 0 {
			return errors.WrapInvalid(
				fmt.Errorf("heartbeat interval and timeout must be positive: %w", errors.ErrInvalidConfig),
				"Client", "WithHeartbeat", "option rejected")
		}
		c.enableHeartbeat = true
		c.heartbeatInterval = interval
		c.heartbeatTimeout = timeout
		return nil
	}
}

// WithHeartbeatMessage overrides the default ping probe envelope
func WithHeartbeatMessage(env message.Envelope) Option {
	return func(c *Client) error {
		if err := env.Validate(); err != nil {
			return err
		}
		c.heartbeatMessage = env
		return nil
	}
}

// WithAuthentication sends a credential envelope first after every open
func WithAuthentication(authType, token string) Option {
	return func(c *Client) error {
		if authType != AuthTypeBearer {
			return errors.WrapInvalid(
				fmt.Errorf("unsupported auth type %q: %w", authType, errors.ErrInvalidConfig),
				"Client", "WithAuthentication", "option rejected")
		}
		c.auth = &Authentication{Type: authType, Token: token}
		return nil
	}
}

// WithCompression enables payload compression for outbound frames at
// or above the configured threshold
func WithCompression(cfg message.Compression) Option {
	return func(c *Client) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		c.compression = cfg
		return nil
	}
}

// WithValidateProtocol fails Connect when the negotiated sub-protocol
// is not among the requested ones
func WithValidateProtocol() Option {
	return func(c *Client) error {
		c.validateProtocol = true
		return nil
	}
}

// WithQueueSize bounds the outbound queue (0 = unbounded); once full,
// the oldest entry is evicted to admit the newest
func WithQueueSize(n int) Option {
	return func(c *Client) error {
		if n < 0 {
			return errors.WrapInvalid(
				fmt.Errorf("queue size must be >= 0, got %d: %w", n, errors.ErrInvalidConfig),
				"Client", "WithQueueSize", "option rejected")
		}
		c.queueSize = n
		return nil
	}
}

// WithLogger injects a custom logger
func WithLogger(logger Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			return errors.WrapInvalid(
				fmt.Errorf("logger must not be nil: %w", errors.ErrInvalidConfig),
				"Client", "WithLogger", "option rejected")
		}
		c.logger = logger
		return nil
	}
}

// WithMetricsRegistry enables Prometheus metrics collection
func WithMetricsRegistry(registry *metric.MetricsRegistry) Option {
	return func(c *Client) error {
		c.registry = registry
		return nil
	}
}

// WithSchemaRegistry enables per-type payload validation at the
// pipeline boundary
func WithSchemaRegistry(schemas *message.Registry) Option {
	return func(c *Client) error {
		c.schemas = schemas
		return nil
	}
}

// WithEventBus re-emits lifecycle events to an external coordinator
func WithEventBus(bus eventbus.Bus) Option {
	return func(c *Client) error {
		c.bus = bus
		return nil
	}
}
