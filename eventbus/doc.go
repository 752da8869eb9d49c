// Package eventbus re-emits client lifecycle events onto an external
// message bus, so other processes can observe a session's connection
// health without holding a reference to the client.
//
// Bus is the seam: the client publishes connected, disconnected,
// reconnecting, and error events to whatever Bus it was given. The
// package ships a NATS-backed implementation; tests use a recording
// bus.
package eventbus
