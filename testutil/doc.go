// Package testutil provides a scriptable mock WebSocket endpoint for
// exercising the client against controlled server behavior: echoing,
// withheld heartbeat replies, forced disconnects, handshake rejection,
// and sub-protocol negotiation.
//
// The server records every envelope it receives, so tests can assert
// on queue drain order and auth-first sequencing without racing the
// client's writer goroutine.
package testutil
