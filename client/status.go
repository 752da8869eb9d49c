package client

// ConnectionStatus represents the connection lifecycle state. Exactly
// one value holds at any instant; transitions happen only inside the
// state machine, never from handlers or timers directly.
type ConnectionStatus int32

const (
	// StatusDisconnected is the initial state and the result of a
	// manual Disconnect.
	StatusDisconnected ConnectionStatus = iota
	// StatusConnecting means a handshake is in flight for an explicit
	// Connect call.
	StatusConnecting
	// StatusConnected means the transport is open and frames flow.
	StatusConnected
	// StatusReconnecting means an unplanned loss occurred and the
	// backoff loop is driving new attempts.
	StatusReconnecting
	// StatusTimeout means a heartbeat probe went unanswered.
	StatusTimeout
	// StatusError means the transport reported a failure.
	StatusError
	// StatusFailed means the retry budget is exhausted; only a new
	// explicit Connect leaves this state.
	StatusFailed
)

// String returns the lowercase state name.
func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusTimeout:
		return "timeout"
	case StatusError:
		return "error"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}
