// Package message defines the wire-level envelope exchanged over a
// StreamLink socket and the codecs applied to it.
//
// Every frame on the wire is a JSON object {"type": ..., "data": ...}.
// The type string is the dispatch key; data carries the application
// payload and stays schemaless unless a schema is registered for the
// type (see Registry). Both fields are mandatory: an envelope missing
// either one fails Validate and is rejected before it reaches the
// socket or the outbound queue.
//
// The package also provides the gzip codec used when compression is
// enabled on a client, and well-known envelope constructors for the
// auth handshake and the ping/pong heartbeat convention.
package message
