// Package errors provides standardized error handling patterns for StreamLink
// components.
//
// # Overview
//
// The errors package implements a three-class error classification system:
// Transient (temporary, retryable), Invalid (bad input, non-retryable), and
// Fatal (unrecoverable, stop processing). On top of the classes it carries
// the client-facing failure kind taxonomy: the strings a subscriber of the
// error event observes: connection_timeout, protocol_mismatch, parse_error,
// transport_error, invalid_message, handler_error.
//
// The classification enables intelligent error handling throughout the
// client, letting the reconnection path decide what to retry without
// hardcoded error string matching.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if negotiated != requested {
//	    return errors.ErrProtocolMismatch
//	}
//
// Wrap errors with component context:
//
//	if err := conn.WriteMessage(mt, data); err != nil {
//	    return errors.Wrap(err, "Client", "Send", "write frame")
//	}
//
// Attach the user-visible kind where an error crosses the public surface:
//
//	return errors.WithKind(err, errors.KindTransportError, "Client", "readLoop")
//
// Make retry decisions based on classification:
//
//	if errors.IsTransient(err) {
//	    // feed the reconnection path
//	}
//
// # Integration
//
// The package supports errors.Is(), errors.As(), and standard wrapping
// chains. ClassifiedError unwraps to the original cause.
package errors
