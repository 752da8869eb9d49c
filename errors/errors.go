// Package errors carries the error vocabulary shared by every StreamLink
// package: a retryability classification, the failure kind taxonomy that
// subscribers of the client's error event observe, and wrapping helpers
// that keep error text uniform across components.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorClass says how a caller should react to an error.
type ErrorClass int

const (
	// ErrorTransient errors are safe to retry.
	ErrorTransient ErrorClass = iota
	// ErrorInvalid errors stem from bad input or configuration; retrying
	// the same call will fail the same way.
	ErrorInvalid
	// ErrorFatal errors end the operation for good.
	ErrorFatal
)

func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Kind identifies the user-visible failure category surfaced through the
// client's error event. Every error the client reports carries exactly one.
type Kind string

// Failure kinds surfaced to subscribers of the error event.
const (
	// KindConnectionTimeout means the handshake exceeded the connect timeout.
	KindConnectionTimeout Kind = "connection_timeout"
	// KindProtocolMismatch means the negotiated subprotocol was not requested.
	KindProtocolMismatch Kind = "protocol_mismatch"
	// KindParseError means an inbound frame was not valid JSON. Non-fatal.
	KindParseError Kind = "parse_error"
	// KindTransportError means the underlying socket failed.
	KindTransportError Kind = "transport_error"
	// KindInvalidMessage means an outbound envelope was missing its required
	// shape. Rejected synchronously at Send, never silently dropped.
	KindInvalidMessage Kind = "invalid_message"
	// KindHandlerError means a subscriber panicked. Isolated and reported.
	KindHandlerError Kind = "handler_error"
)

// Sentinel errors matched with errors.Is throughout the module.
var (
	// Connection lifecycle errors
	ErrConnectionTimeout  = errors.New("connection timeout")
	ErrConnectionLost     = errors.New("connection lost")
	ErrProtocolMismatch   = errors.New("negotiated protocol not requested")
	ErrNotConnected       = errors.New("not connected")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
	ErrHeartbeatTimeout   = errors.New("heartbeat timeout")
	ErrClientClosed       = errors.New("client closed")

	// Message errors
	ErrInvalidMessage = errors.New("invalid message shape")
	ErrParsingFailed  = errors.New("parsing failed")
	ErrHandlerPanic   = errors.New("handler panicked")
	ErrSchemaRejected = errors.New("payload failed schema validation")

	// Resource errors
	ErrQueueClosed = errors.New("queue closed")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ClassifiedError pairs an error with its class, its failure kind, and
// the component and operation that produced it.
type ClassifiedError struct {
	Class     ErrorClass
	Kind      Kind
	Err       error
	Message   string
	Component string
	Operation string
}

func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// KindOf extracts the failure kind from an error chain. Returns the empty
// Kind when the error carries no classification.
func KindOf(err error) Kind {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// Substrings that mark an unclassified error as worth retrying.
var transientHints = []string{
	"timeout",
	"connection",
	"network",
	"temporary",
	"unavailable",
	"broken pipe",
}

// IsTransient reports whether err is worth retrying. A ClassifiedError
// answers directly; otherwise known sentinels and common transport
// failure text decide.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	if errors.Is(err, ErrConnectionTimeout) ||
		errors.Is(err, ErrConnectionLost) ||
		errors.Is(err, ErrHeartbeatTimeout) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, hint := range transientHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

// IsFatal reports whether err ends the operation for good.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	return errors.Is(err, ErrMaxRetriesExceeded) ||
		errors.Is(err, ErrClientClosed) ||
		errors.Is(err, ErrProtocolMismatch)
}

// IsInvalid reports whether err stems from bad input or configuration.
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	return errors.Is(err, ErrInvalidMessage) ||
		errors.Is(err, ErrParsingFailed) ||
		errors.Is(err, ErrSchemaRejected) ||
		errors.Is(err, ErrInvalidConfig)
}

// Classify resolves the class of any error. Unrecognized errors come
// back transient so callers err on the side of retrying.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ErrorTransient
	case IsFatal(err):
		return ErrorFatal
	case IsInvalid(err):
		return ErrorInvalid
	default:
		return ErrorTransient
	}
}

// wrapClass is the shared body behind the WrapTransient, WrapInvalid and
// WrapFatal helpers.
func wrapClass(class ErrorClass, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return &ClassifiedError{
		Class:     class,
		Kind:      KindOf(err),
		Err:       wrapped,
		Message:   wrapped.Error(),
		Component: component,
		Operation: method,
	}
}

// Wrap adds uniform context in the form "component.method: action failed: %w"
// without assigning a class.
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as retryable with context.
func WrapTransient(err error, component, method, action string) error {
	return wrapClass(ErrorTransient, err, component, method, action)
}

// WrapFatal wraps an error as unrecoverable with context.
func WrapFatal(err error, component, method, action string) error {
	return wrapClass(ErrorFatal, err, component, method, action)
}

// WrapInvalid wraps an error as caller error with context.
func WrapInvalid(err error, component, method, action string) error {
	return wrapClass(ErrorInvalid, err, component, method, action)
}

// WithKind attaches a failure kind to an error. Kinds with a known class
// pin it; anything else falls back to Classify.
func WithKind(err error, kind Kind, component, operation string) error {
	if err == nil {
		return nil
	}

	class := Classify(err)
	switch kind {
	case KindInvalidMessage, KindParseError, KindHandlerError:
		class = ErrorInvalid
	case KindConnectionTimeout, KindTransportError:
		class = ErrorTransient
	case KindProtocolMismatch:
		class = ErrorFatal
	}

	return &ClassifiedError{
		Class:     class,
		Kind:      kind,
		Err:       err,
		Component: component,
		Operation: operation,
	}
}
