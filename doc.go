// Package streamlink provides a real-time WebSocket client framework for
// keeping a session connected to a backend event stream: chat messages,
// workspace and file events, agent-action notifications.
//
// # Philosophy: Transport Discipline, Permissive Payloads
//
// StreamLink owns exactly one concern: the lifecycle of a single logical
// connection and the flow of typed envelopes across it. It is deliberately
// agnostic about what the envelopes mean.
//
// StreamLink MUST NOT contain:
//   - UI rendering or layout code
//   - REST/CRUD API clients
//   - Business interpretation of payloads (chat text, file diffs)
//
// Those belong to the consumers of this library.
//
// # Architecture
//
// The connection state machine is the root component; everything else is
// owned by it or observes it:
//
//	┌─────────────────────────────────────┐
//	│       Connection State Machine      │  connect, retry, backoff,
//	│            (client.Client)          │  status transitions
//	└─────────────────────────────────────┘
//	      owns ↓            owns ↓
//	┌───────────────┐  ┌─────────────────┐
//	│ Outbound Queue│  │Heartbeat Monitor│  bounded FIFO buffering,
//	│ (pkg/buffer)  │  │    (client)     │  liveness probes
//	└───────────────┘  └─────────────────┘
//	           inbound frames ↓
//	┌─────────────────────────────────────┐
//	│         Message Pipeline            │  parse, filter, transform,
//	│          (dispatch.Pipeline)        │  schema validation
//	└─────────────────────────────────────┘
//	                  ↓
//	┌─────────────────────────────────────┐
//	│         Event Dispatcher            │  exact + wildcard handlers,
//	│         (dispatch.Dispatcher)       │  registration order
//	└─────────────────────────────────────┘
//
// # Connection Lifecycle
//
// Status values: disconnected → connecting → connected. Unplanned loss
// moves connected → reconnecting, and from there back to connected or,
// once the retry budget is exhausted, to failed. A handshake that exceeds
// the configured timeout lands back on disconnected. Heartbeat expiry
// moves the client to timeout, which feeds the same reconnection path as
// a transport loss. An explicit Disconnect always wins: it cancels
// pending timers, clears the queue and all handler registrations, and
// resets the retry counter.
//
// # Packages
//
// Core:
//   - client: connection state machine, heartbeat monitor, outbound queue
//   - dispatch: event dispatcher and inbound message pipeline
//   - message: wire envelope, validation, compression, payload schemas
//   - eventbus: lifecycle re-emission to an external coordinator (NATS)
//
// Infrastructure:
//   - errors: classified error taxonomy shared by all packages
//   - metric: Prometheus registry and core client metrics
//   - pkg/retry: backoff engine for reconnection
//   - pkg/buffer: generic circular buffer with overflow policies
//   - testutil: scriptable mock WebSocket endpoints for tests
//
// # Quick Start
//
//	c, err := client.New(
//	    client.WithAutoReconnect(true),
//	    client.WithMaxRetries(5),
//	    client.WithHeartbeat(30*time.Second, 10*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c.On("chat.message", func(env message.Envelope) {
//	    fmt.Println(env.Type)
//	})
//	if err := c.Connect(ctx, "wss://backend.example.com/stream"); err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Disconnect()
package streamlink
