// Package client implements the real-time WebSocket session: an
// explicit connection state machine with automatic reconnection and
// backoff, heartbeat-based liveness detection, a bounded outbound
// queue that survives unplanned connection loss, and the inbound
// filter/transform/dispatch pipeline.
//
// A Client owns exactly one transport at a time. Concurrent Connect
// calls coalesce onto a single in-flight handshake, and every timer
// the client schedules (backoff, heartbeat interval, per-probe
// timeout) is cancelled deterministically by Disconnect: no timer
// callback runs after Disconnect returns.
//
// Status transitions:
//
//	disconnected → connecting → connected
//	connected → reconnecting → connected | failed
//	connecting → timeout → disconnected
//	connected → timeout | error → reconnecting (when auto-reconnect)
//
// Manual Disconnect from any state yields disconnected, clears the
// outbound queue and all handler registrations, and resets the retry
// counter.
package client
