package client

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/c360/streamlink/dispatch"
	"github.com/c360/streamlink/errors"
	"github.com/c360/streamlink/eventbus"
	"github.com/c360/streamlink/message"
	"github.com/c360/streamlink/metric"
	"github.com/c360/streamlink/pkg/buffer"
)

// Client is a real-time WebSocket session with reconnection, heartbeat
// liveness detection, outbound queuing, and inbound dispatch. Construct
// with New; the zero value is not usable.
type Client struct {
	// Configuration, fixed after New.
	protocols          []string
	connectTimeout     time.Duration
	maxRetries         int
	retryDelay         time.Duration
	maxRetryDelay      time.Duration
	exponentialBackoff bool
	retryJitter        bool
	autoReconnect      bool
	enableHeartbeat    bool
	heartbeatInterval  time.Duration
	heartbeatTimeout   time.Duration
	heartbeatMessage   message.Envelope
	auth               *Authentication
	compression        message.Compression
	validateProtocol   bool
	queueSize          int
	logger             Logger
	registry           *metric.MetricsRegistry
	schemas            *message.Registry

	id         string
	dispatcher *dispatch.Dispatcher
	pipeline   *dispatch.Pipeline
	queue      buffer.Buffer[message.Envelope]

	status atomic.Value // ConnectionStatus

	// mu guards the transport and everything tied to its lifetime.
	mu              sync.Mutex
	conn            *websocket.Conn
	url             string
	generation      uint64
	inflight        chan struct{}
	inflightErr     error
	manualStop      bool
	reconnectCancel context.CancelFunc
	heartbeatCancel context.CancelFunc
	pongCh          chan time.Time
	bus             eventbus.Bus

	// writeMu serializes frames onto the socket so concurrent sends
	// preserve program order on the wire.
	writeMu sync.Mutex

	retryCount    atomic.Int32
	lastHeartbeat atomic.Value // time.Time
}

// New creates a client with the given options. The client starts
// disconnected; call Connect to open a session.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		connectTimeout:    10 * time.Second,
		retryDelay:        time.Second,
		maxRetryDelay:     30 * time.Second,
		autoReconnect:     true,
		heartbeatInterval: 30 * time.Second,
		heartbeatTimeout:  5 * time.Second,
		heartbeatMessage:  message.NewPing(),
		logger:            &defaultLogger{},
		id:                uuid.NewString(),
	}
	c.status.Store(StatusDisconnected)
	c.lastHeartbeat.Store(time.Time{})

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.schemas == nil {
		c.schemas = message.NewRegistry()
	}
	c.dispatcher = dispatch.NewDispatcher(c.reportHandlerError)
	c.pipeline = dispatch.NewPipeline(c.dispatcher, c.schemas)

	bufOpts := []buffer.Option[message.Envelope]{
		buffer.WithOverflowPolicy[message.Envelope](buffer.DropOldest),
	}
	if c.registry != nil {
		bufOpts = append(bufOpts,
			buffer.WithMetrics[message.Envelope](c.registry, "outbound_queue"))
	}
	queue, err := buffer.NewRing(c.queueSize, bufOpts...)
	if err != nil {
		return nil, err
	}
	c.queue = queue

	c.logger.Debugf("Created client %s", c.id)
	return c, nil
}

// ID returns the unique identifier assigned to this client instance,
// used as the metrics label.
func (c *Client) ID() string { return c.id }

// Status returns the current connection state.
func (c *Client) Status() ConnectionStatus {
	return c.status.Load().(ConnectionStatus)
}

// IsConnected reports whether the transport is open.
func (c *Client) IsConnected() bool {
	return c.Status() == StatusConnected
}

// RetryCount returns the current reconnection attempt counter. It
// resets to zero on a successful connect and on manual Disconnect, and
// holds its final value after the retry budget is exhausted.
func (c *Client) RetryCount() int {
	return int(c.retryCount.Load())
}

// LastHeartbeat returns when the last reply envelope arrived, or the
// zero time if none has.
func (c *Client) LastHeartbeat() time.Time {
	return c.lastHeartbeat.Load().(time.Time)
}

// QueuedMessages returns a snapshot of pending outbound envelopes in
// FIFO order, without removing them.
func (c *Client) QueuedMessages() []message.Envelope {
	return c.queue.Snapshot()
}

// SetMaxQueueSize bounds the outbound queue (0 = unbounded). Shrinking
// below the current depth evicts the oldest entries immediately.
func (c *Client) SetMaxQueueSize(n int) {
	c.queue.SetCapacity(n)
	if m := c.coreMetrics(); m != nil {
		m.MessagesQueued.Set(float64(c.queue.Size()))
	}
}

// On registers a handler for an exact envelope type or the "*"
// wildcard, returning a subscription usable with Off.
func (c *Client) On(msgType string, h dispatch.Handler) dispatch.Subscription {
	return c.dispatcher.On(msgType, h)
}

// Off removes one registration. Removing twice is a no-op.
func (c *Client) Off(sub dispatch.Subscription) bool {
	return c.dispatcher.Off(sub)
}

// AddFilter appends a predicate applied to every inbound envelope
// before dispatch; returning false drops the envelope.
func (c *Client) AddFilter(f dispatch.Filter) {
	c.pipeline.AddFilter(f)
}

// AddTransformer appends a rewrite stage applied to inbound envelopes
// that passed filtering.
func (c *Client) AddTransformer(t dispatch.Transformer) {
	c.pipeline.AddTransformer(t)
}

// RegisterSchema compiles schemaJSON and validates every inbound
// envelope of msgType against it before dispatch. Types without a
// schema pass through unvalidated.
func (c *Client) RegisterSchema(msgType string, schemaJSON []byte) error {
	return c.schemas.Register(msgType, schemaJSON)
}

// SetEventBus installs an external bus that receives lifecycle events.
// Pass nil to stop publishing.
func (c *Client) SetEventBus(bus eventbus.Bus) {
	c.mu.Lock()
	c.bus = bus
	c.mu.Unlock()
}

// Send transmits an envelope immediately when connected, or queues it
// for the next session otherwise. An envelope missing its type or data
// fails synchronously without being queued or sent.
func (c *Client) Send(env message.Envelope) error {
	if err := env.Validate(); err != nil {
		c.recordError(err)
		return err
	}

	c.mu.Lock()
	ws := c.conn
	gen := c.generation
	c.mu.Unlock()

	if ws == nil || c.Status() != StatusConnected {
		if err := c.queue.Write(env); err != nil {
			return err
		}
		if m := c.coreMetrics(); m != nil {
			m.MessagesQueued.Set(float64(c.queue.Size()))
		}
		c.logger.Debugf("Queued %s (%d pending)", env.Type, c.queue.Size())
		return nil
	}

	if err := c.writeEnvelope(ws, env); err != nil {
		c.handleConnectionLoss(gen, StatusError, err)
		return err
	}
	return nil
}

// writeEnvelope serializes, optionally compresses, and writes one
// envelope to the socket.
func (c *Client) writeEnvelope(ws *websocket.Conn, env message.Envelope) error {
	raw, err := env.Encode()
	if err != nil {
		return err
	}
	wire, compressed, err := c.compression.Apply(raw)
	if err != nil {
		return err
	}
	frameType := websocket.TextMessage
	if compressed {
		frameType = websocket.BinaryMessage
	}

	c.writeMu.Lock()
	err = ws.WriteMessage(frameType, wire)
	c.writeMu.Unlock()
	if err != nil {
		return errors.WithKind(
			fmt.Errorf("write %s frame: %w", env.Type, err),
			errors.KindTransportError, "Client", "Send")
	}

	if m := c.coreMetrics(); m != nil {
		m.MessagesSent.WithLabelValues(env.Type).Inc()
		m.BytesSent.Add(float64(len(wire)))
	}
	return nil
}

// setStatus records a state transition and mirrors it to the gauge.
func (c *Client) setStatus(s ConnectionStatus) {
	c.status.Store(s)
	if m := c.coreMetrics(); m != nil {
		m.ConnectionStatus.WithLabelValues(c.id).Set(float64(s))
	}
	c.logger.Debugf("Status: %s", s)
}

// coreMetrics returns the metrics sink, or nil when none is attached.
func (c *Client) coreMetrics() *metric.Metrics {
	if c.registry == nil {
		return nil
	}
	return c.registry.CoreMetrics()
}

// recordError logs and counts a failure without emitting an event.
func (c *Client) recordError(err error) {
	if err == nil {
		return
	}
	c.logger.Errorf("%v", err)
	if m := c.coreMetrics(); m != nil {
		m.ErrorsTotal.WithLabelValues(string(errors.KindOf(err))).Inc()
	}
}

// reportError additionally surfaces the failure on the error channel
// and the event bus, so subscribers never see a silent failure.
func (c *Client) reportError(err error) {
	if err == nil {
		return
	}
	c.recordError(err)
	c.dispatcher.Dispatch(message.NewError(errors.KindOf(err), err.Error()))
	c.publish(eventbus.SubjectError)
}

// reportHandlerError receives panics recovered during dispatch.
func (c *Client) reportHandlerError(err error, env message.Envelope) {
	c.logger.Errorf("Handler failure for %s: %v", env.Type, err)
	if m := c.coreMetrics(); m != nil {
		m.ErrorsTotal.WithLabelValues(string(errors.KindHandlerError)).Inc()
	}
}

// publish emits a lifecycle event to the external bus, if one is set.
func (c *Client) publish(subject string) {
	c.mu.Lock()
	bus := c.bus
	url := c.url
	c.mu.Unlock()
	if bus == nil {
		return
	}

	env, err := message.New("session", map[string]string{
		"client": c.id,
		"url":    url,
		"status": c.Status().String(),
	})
	if err != nil {
		return
	}
	if err := bus.Publish(subject, env); err != nil {
		c.logger.Errorf("Publish %s failed: %v", subject, err)
	}
}
