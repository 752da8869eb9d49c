package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/c360/streamlink/errors"
)

// Well-known envelope types used by the client itself. Application
// types share the same namespace; these names are conventions, not
// reserved words.
const (
	TypeAuth   = "auth"
	TypePing   = "ping"
	TypePong   = "pong"
	TypeError  = "error"
	TypeBinary = "binary"
)

// nullLiteral is what encoding/json produces for a nil payload.
var nullLiteral = []byte("null")

// Envelope is the wire-level unit exchanged over the socket. Type is
// the dispatch key; Data carries the application payload untouched
// until a handler or transformer decodes it.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// New builds an envelope from a type string and any JSON-encodable
// payload.
func New(msgType string, data any) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, errors.WithKind(
			fmt.Errorf("marshal %s payload: %w", msgType, err),
			errors.KindInvalidMessage, "Envelope", "New")
	}
	return Envelope{Type: msgType, Data: raw}, nil
}

// Validate checks the mandatory envelope shape. Both fields are
// required; a missing or null data field is a hard failure rather
// than an empty payload.
func (e Envelope) Validate() error {
	if e.Type == "" {
		return errors.WithKind(
			fmt.Errorf("envelope missing type: %w", errors.ErrInvalidMessage),
			errors.KindInvalidMessage, "Envelope", "Validate")
	}
	if len(e.Data) == 0 || bytes.Equal(e.Data, nullLiteral) {
		return errors.WithKind(
			fmt.Errorf("envelope %q missing data: %w", e.Type, errors.ErrInvalidMessage),
			errors.KindInvalidMessage, "Envelope", "Validate")
	}
	return nil
}

// Encode serializes the envelope to its wire form.
func (e Envelope) Encode() ([]byte, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, errors.WithKind(
			fmt.Errorf("encode envelope %q: %w", e.Type, err),
			errors.KindInvalidMessage, "Envelope", "Encode")
	}
	return raw, nil
}

// Decode parses a raw text frame into an envelope. A malformed frame
// is a parse error, which callers report without tearing down the
// connection.
func Decode(raw []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		return Envelope{}, errors.WithKind(
			fmt.Errorf("decode frame: %w", err),
			errors.KindParseError, "Envelope", "Decode")
	}
	return e, nil
}

// DecodeData unmarshals the payload into out.
func (e Envelope) DecodeData(out any) error {
	if err := json.Unmarshal(e.Data, out); err != nil {
		return errors.WithKind(
			fmt.Errorf("decode %s payload: %w", e.Type, err),
			errors.KindParseError, "Envelope", "DecodeData")
	}
	return nil
}

// IsPong reports whether the envelope is a heartbeat reply.
func (e Envelope) IsPong() bool {
	return e.Type == TypePong
}

// authData is the payload of the auth envelope sent immediately after
// the transport opens.
type authData struct {
	Token string `json:"token"`
}

// NewAuth builds the bearer-token auth envelope.
func NewAuth(token string) Envelope {
	raw, _ := json.Marshal(authData{Token: token})
	return Envelope{Type: TypeAuth, Data: raw}
}

// pongData is the conventional heartbeat reply payload.
type pongData struct {
	Timestamp int64 `json:"timestamp"`
}

// NewPing builds the default heartbeat probe.
func NewPing() Envelope {
	return Envelope{Type: TypePing, Data: json.RawMessage(`{}`)}
}

// NewPong builds a heartbeat reply stamped with the given time.
func NewPong(ts time.Time) Envelope {
	raw, _ := json.Marshal(pongData{Timestamp: ts.UnixMilli()})
	return Envelope{Type: TypePong, Data: raw}
}

// NewError builds the envelope dispatched on the error channel for
// failures that must not interrupt the stream, such as inbound parse
// errors.
func NewError(kind errors.Kind, detail string) Envelope {
	raw, _ := json.Marshal(map[string]string{
		"kind":   string(kind),
		"detail": detail,
	})
	return Envelope{Type: TypeError, Data: raw}
}

// NewBinary wraps a raw binary frame for dispatch on the binary
// channel. The payload is carried base64-encoded, which is how
// encoding/json represents []byte.
func NewBinary(frame []byte) Envelope {
	raw, _ := json.Marshal(map[string][]byte{"payload": frame})
	return Envelope{Type: TypeBinary, Data: raw}
}
