package client

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/streamlink/errors"
	"github.com/c360/streamlink/eventbus"
	"github.com/c360/streamlink/message"
	"github.com/c360/streamlink/pkg/retry"
)

// Connect opens a session to url. It returns once the transport
// reports open (auth sent, queue drained) or fails with a classified
// error; a handshake that outlives the configured timeout leaves the
// client disconnected, never stuck connecting.
//
// Concurrent Connect calls coalesce: while a handshake is in flight,
// later callers wait for its outcome instead of opening a second
// socket.
func (c *Client) Connect(ctx context.Context, url string) error {
	c.mu.Lock()
	if c.conn != nil && c.Status() == StatusConnected {
		c.mu.Unlock()
		return nil
	}
	if c.inflight != nil {
		wait := c.inflight
		c.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return errors.WithKind(
				fmt.Errorf("awaiting in-flight connect: %w", ctx.Err()),
				errors.KindConnectionTimeout, "Client", "Connect")
		}
		c.mu.Lock()
		err := c.inflightErr
		c.mu.Unlock()
		return err
	}

	// An explicit Connect supersedes any backoff loop in progress.
	if c.reconnectCancel != nil {
		c.reconnectCancel()
		c.reconnectCancel = nil
	}
	done := make(chan struct{})
	c.inflight = done
	c.url = url
	c.manualStop = false
	c.mu.Unlock()

	c.setStatus(StatusConnecting)
	err := c.dial(ctx)

	c.mu.Lock()
	c.inflightErr = err
	c.inflight = nil
	c.mu.Unlock()
	if err != nil {
		c.setStatus(StatusDisconnected)
		c.reportError(err)
	}
	close(done)
	return err
}

// dial performs one handshake attempt and, on success, installs the
// new transport: auth first, then queue drain, then the reader and
// heartbeat goroutines. Status transitions around failure belong to
// the caller, which knows whether this is a first connect or a retry.
func (c *Client) dial(ctx context.Context) error {
	// The context deadline is the single timeout authority so a slow
	// handshake always classifies as connection_timeout.
	dialer := websocket.Dialer{
		Subprotocols: c.protocols,
	}
	dialCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	c.logger.Printf("Connecting to %s", c.url)
	ws, resp, err := dialer.DialContext(dialCtx, c.url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if dialCtx.Err() != nil && ctx.Err() == nil {
			return errors.WithKind(
				fmt.Errorf("handshake exceeded %v: %w", c.connectTimeout, errors.ErrConnectionTimeout),
				errors.KindConnectionTimeout, "Client", "Connect")
		}
		return errors.WithKind(
			fmt.Errorf("dial %s: %w", c.url, err),
			errors.KindTransportError, "Client", "Connect")
	}

	if c.validateProtocol && len(c.protocols) > 0 {
		negotiated := ws.Subprotocol()
		if !slices.Contains(c.protocols, negotiated) {
			ws.Close()
			return errors.WithKind(
				fmt.Errorf("server selected %q, requested %v: %w",
					negotiated, c.protocols, errors.ErrProtocolMismatch),
				errors.KindProtocolMismatch, "Client", "Connect")
		}
	}

	c.mu.Lock()
	if c.manualStop {
		c.mu.Unlock()
		ws.Close()
		return errors.WrapInvalid(errors.ErrClientClosed,
			"Client", "Connect", "disconnected while handshake in flight")
	}
	c.conn = ws
	c.generation++
	gen := c.generation
	c.pongCh = make(chan time.Time, 1)
	pongCh := c.pongCh
	var hbCtx context.Context
	if c.enableHeartbeat {
		hbCtx2, hbCancel := context.WithCancel(context.Background())
		c.heartbeatCancel = hbCancel
		hbCtx = hbCtx2
	}
	c.mu.Unlock()

	c.setStatus(StatusConnected)
	c.retryCount.Store(0)
	if m := c.coreMetrics(); m != nil {
		m.ConnectsTotal.Inc()
		m.RetryAttempts.Set(0)
	}

	if c.auth != nil {
		if err := c.writeEnvelope(ws, c.auth.Envelope()); err != nil {
			c.handleConnectionLoss(gen, StatusError, err)
			return err
		}
	}
	c.drainQueue(ws)

	go c.readLoop(ws, gen, pongCh)
	if c.enableHeartbeat {
		go c.heartbeatLoop(hbCtx, ws, gen, pongCh)
	}

	c.publish(eventbus.SubjectConnected)
	c.logger.Printf("Connected to %s", c.url)
	return nil
}

// drainQueue flushes pending envelopes in FIFO order. On a write
// failure the unflushed tail is requeued; the dead socket surfaces
// through the reader moments later.
func (c *Client) drainQueue(ws *websocket.Conn) {
	pending := c.queue.Drain()
	for i, env := range pending {
		if err := c.writeEnvelope(ws, env); err != nil {
			c.logger.Errorf("Queue drain failed at %d/%d: %v", i, len(pending), err)
			for _, rest := range pending[i:] {
				_ = c.queue.Write(rest)
			}
			break
		}
	}
	if m := c.coreMetrics(); m != nil {
		m.MessagesQueued.Set(float64(c.queue.Size()))
	}
}

// Disconnect closes the session from any state: the transport if open,
// the backoff loop if waiting, and every heartbeat timer. Queued
// messages and handler registrations are cleared and the retry counter
// resets to zero. Always safe to call, including repeatedly.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	c.manualStop = true
	c.generation++
	if c.reconnectCancel != nil {
		c.reconnectCancel()
		c.reconnectCancel = nil
	}
	if c.heartbeatCancel != nil {
		c.heartbeatCancel()
		c.heartbeatCancel = nil
	}
	ws := c.conn
	c.conn = nil
	c.mu.Unlock()

	if ws != nil {
		deadline := time.Now().Add(time.Second)
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		ws.Close()
	}

	c.queue.Clear()
	c.dispatcher.Clear()
	c.pipeline.Reset()
	c.retryCount.Store(0)
	c.setStatus(StatusDisconnected)
	if m := c.coreMetrics(); m != nil {
		m.RetryAttempts.Set(0)
		m.MessagesQueued.Set(0)
	}

	c.publish(eventbus.SubjectDisconnected)
	c.logger.Printf("Disconnected")
	return nil
}

// readLoop pumps inbound frames through the pipeline until the
// transport fails. gen ties the loop to one connection lifetime so a
// stale loop cannot tear down its successor.
func (c *Client) readLoop(ws *websocket.Conn, gen uint64, pongCh chan time.Time) {
	for {
		frameType, raw, err := ws.ReadMessage()
		if err != nil {
			c.handleConnectionLoss(gen, StatusError, errors.WithKind(
				fmt.Errorf("read frame: %w", err),
				errors.KindTransportError, "Client", "readLoop"))
			return
		}
		if m := c.coreMetrics(); m != nil {
			m.BytesReceived.Add(float64(len(raw)))
		}

		switch {
		case frameType == websocket.BinaryMessage && !message.IsCompressed(raw):
			c.pipeline.ProcessBinary(raw)
			if m := c.coreMetrics(); m != nil {
				m.MessagesReceived.WithLabelValues("binary").Inc()
			}
		case frameType == websocket.TextMessage || frameType == websocket.BinaryMessage:
			// Compressed envelopes arrive as binary frames, mirroring
			// the outbound path; the pipeline inflates them.
			env, dispatched, perr := c.pipeline.ProcessText(raw)
			if perr != nil {
				// Non-fatal: the pipeline already emitted the error
				// event; keep reading.
				c.recordError(perr)
				continue
			}
			// Any parsed envelope proves the peer is alive.
			now := time.Now()
			c.lastHeartbeat.Store(now)
			select {
			case pongCh <- now:
			default:
			}
			if dispatched {
				if m := c.coreMetrics(); m != nil {
					m.MessagesReceived.WithLabelValues(env.Type).Inc()
				}
			}
		}
	}
}

// handleConnectionLoss is the single funnel for unplanned loss:
// transport errors, write failures, and heartbeat timeouts all land
// here. The generation check makes the first detected failure
// authoritative; later reports for the same connection are stale and
// ignored.
func (c *Client) handleConnectionLoss(gen uint64, status ConnectionStatus, cause error) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return
	}
	c.generation++
	ws := c.conn
	c.conn = nil
	if c.heartbeatCancel != nil {
		c.heartbeatCancel()
		c.heartbeatCancel = nil
	}
	shouldReconnect := c.autoReconnect && !c.manualStop
	var reconnectCtx context.Context
	if shouldReconnect {
		ctx, cancel := context.WithCancel(context.Background())
		c.reconnectCancel = cancel
		reconnectCtx = ctx
	}
	c.mu.Unlock()

	if ws != nil {
		ws.Close()
	}

	c.setStatus(status)
	if status == StatusTimeout {
		if m := c.coreMetrics(); m != nil {
			m.HeartbeatTimeouts.Inc()
		}
	}
	c.reportError(cause)
	c.publish(eventbus.SubjectDisconnected)

	if shouldReconnect {
		go c.reconnectLoop(reconnectCtx)
	}
}

// reconnectLoop drives backoff attempts until one succeeds, the retry
// budget runs out, or Disconnect cancels the context.
func (c *Client) reconnectLoop(ctx context.Context) {
	policy := retry.Policy{
		BaseDelay:   c.retryDelay,
		Exponential: c.exponentialBackoff,
		MaxDelay:    c.maxRetryDelay,
		AddJitter:   c.retryJitter,
	}

	attempt := 0
	for {
		// Disconnect may have cancelled the context before this
		// goroutine was ever scheduled; its state must stand untouched.
		if ctx.Err() != nil {
			return
		}

		attempt++
		c.retryCount.Store(int32(attempt))
		c.setStatus(StatusReconnecting)
		if m := c.coreMetrics(); m != nil {
			m.RetryAttempts.Set(float64(attempt))
			m.ReconnectsTotal.Inc()
		}
		c.publish(eventbus.SubjectReconnecting)

		delay := policy.DelayFor(attempt - 1)
		c.logger.Printf("Reconnect attempt %d in %v", attempt, delay)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		err := c.dial(ctx)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			// Disconnect raced the attempt; its state wins.
			return
		}
		c.logger.Errorf("Reconnect attempt %d failed: %v", attempt, err)
		c.reportError(err)

		if c.maxRetries > 0 && attempt >= c.maxRetries {
			c.setStatus(StatusFailed)
			c.reportError(errors.WrapFatal(errors.ErrMaxRetriesExceeded,
				"Client", "reconnect", fmt.Sprintf("gave up after %d attempts", attempt)))
			return
		}
	}
}
