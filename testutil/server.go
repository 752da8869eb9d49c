package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/c360/streamlink/message"
)

// ServerOption configures a mock server before it starts accepting.
type ServerOption func(*Server)

// WithEcho makes the server echo every parsed envelope back to the
// sender.
func WithEcho() ServerOption {
	return func(s *Server) { s.echo = true }
}

// WithSilentHeartbeat suppresses pong replies so heartbeat timeouts
// can be provoked.
func WithSilentHeartbeat() ServerOption {
	return func(s *Server) { s.silentHeartbeat = true }
}

// WithDropAfter closes each connection after it has received n
// envelopes.
func WithDropAfter(n int) ServerOption {
	return func(s *Server) { s.dropAfter = n }
}

// WithRejectHandshake refuses the HTTP upgrade with the given status.
func WithRejectHandshake(status int) ServerOption {
	return func(s *Server) { s.rejectStatus = status }
}

// WithSubprotocols sets the sub-protocols the server is willing to
// negotiate.
func WithSubprotocols(protocols ...string) ServerOption {
	return func(s *Server) { s.upgrader.Subprotocols = protocols }
}

// WithEnvelopeHandler installs a custom per-envelope callback, invoked
// after recording and before the built-in ping/echo behavior.
func WithEnvelopeHandler(fn func(conn *websocket.Conn, env message.Envelope)) ServerOption {
	return func(s *Server) { s.onEnvelope = fn }
}

// Server is a mock WebSocket endpoint backed by httptest.
type Server struct {
	httpServer *httptest.Server
	upgrader   websocket.Upgrader

	echo            bool
	silentHeartbeat bool
	dropAfter       int
	rejectStatus    int
	onEnvelope      func(conn *websocket.Conn, env message.Envelope)

	mu       sync.Mutex
	conns    map[*websocket.Conn]struct{}
	received []message.Envelope

	totalConns atomic.Int32
}

// NewServer starts a mock WebSocket server and registers its shutdown
// with t.Cleanup.
func NewServer(t *testing.T, opts ...ServerOption) *Server {
	t.Helper()

	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.httpServer = httptest.NewServer(http.HandlerFunc(s.handleUpgrade))
	t.Cleanup(s.Close)
	return s
}

// URL returns the ws:// address of the server.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.httpServer.URL, "http")
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	if s.rejectStatus != 0 {
		http.Error(w, "handshake rejected", s.rejectStatus)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.totalConns.Add(1)

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()

	go s.readLoop(conn)
}

func (s *Server) readLoop(conn *websocket.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	seen := 0
	for {
		frameType, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if frameType != websocket.TextMessage && frameType != websocket.BinaryMessage {
			continue
		}

		inflated, err := message.Decompress(raw)
		if err != nil {
			continue
		}
		env, err := message.Decode(inflated)
		if err != nil {
			continue
		}

		s.mu.Lock()
		s.received = append(s.received, env)
		s.mu.Unlock()

		if s.onEnvelope != nil {
			s.onEnvelope(conn, env)
		}

		if env.Type == message.TypePing && !s.silentHeartbeat {
			raw, _ := message.NewPong(time.Now()).Encode()
			_ = conn.WriteMessage(websocket.TextMessage, raw)
		}
		if s.echo {
			out, _ := env.Encode()
			_ = conn.WriteMessage(websocket.TextMessage, out)
		}

		seen++
		if s.dropAfter > 0 && seen >= s.dropAfter {
			return
		}
	}
}

// Received returns a snapshot of every envelope recorded so far, in
// arrival order.
func (s *Server) Received() []message.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]message.Envelope, len(s.received))
	copy(out, s.received)
	return out
}

// ReceivedOfType returns recorded envelopes with the given type.
func (s *Server) ReceivedOfType(msgType string) []message.Envelope {
	var out []message.Envelope
	for _, env := range s.Received() {
		if env.Type == msgType {
			out = append(out, env)
		}
	}
	return out
}

// ConnectionCount returns the number of currently open connections.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// TotalConnections returns how many connections were ever accepted.
func (s *Server) TotalConnections() int {
	return int(s.totalConns.Load())
}

// Broadcast sends an envelope to every open connection.
func (s *Server) Broadcast(env message.Envelope) error {
	raw, err := env.Encode()
	if err != nil {
		return err
	}
	return s.BroadcastRaw(websocket.TextMessage, raw)
}

// BroadcastRaw sends a raw frame to every open connection, for
// malformed-JSON and binary-frame tests.
func (s *Server) BroadcastRaw(frameType int, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		if err := conn.WriteMessage(frameType, raw); err != nil {
			return err
		}
	}
	return nil
}

// DropConnections force-closes every open connection without closing
// the listener, so clients observe a transport loss and reconnect to
// the same address.
func (s *Server) DropConnections() {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}

// Close shuts the server down, dropping all connections.
func (s *Server) Close() {
	s.DropConnections()
	s.httpServer.Close()
}
