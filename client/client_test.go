package client

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/streamlink/errors"
	"github.com/c360/streamlink/message"
	"github.com/c360/streamlink/testutil"
)

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Disconnect() })
	return c
}

func chatEnvelope(t *testing.T, text string) message.Envelope {
	t.Helper()
	env, err := message.New("chat.message", map[string]string{"text": text})
	require.NoError(t, err)
	return env
}

func TestClient_ConnectSuccess(t *testing.T) {
	server := testutil.NewServer(t)
	c := newTestClient(t)

	require.NoError(t, c.Connect(context.Background(), server.URL()))

	assert.True(t, c.IsConnected())
	assert.Equal(t, StatusConnected, c.Status())
	assert.Equal(t, 0, c.RetryCount())
}

func TestClient_ConnectTimeout(t *testing.T) {
	// A listener that accepts but never answers the handshake.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	c := newTestClient(t, WithConnectTimeout(200*time.Millisecond))

	start := time.Now()
	err = c.Connect(context.Background(), "ws://"+ln.Addr().String())
	require.Error(t, err)

	assert.ErrorIs(t, err, errors.ErrConnectionTimeout)
	assert.Equal(t, errors.KindConnectionTimeout, errors.KindOf(err))
	// Rejected connect ends disconnected, never stuck connecting.
	assert.Equal(t, StatusDisconnected, c.Status())
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestClient_ConnectCoalescing(t *testing.T) {
	server := testutil.NewServer(t)
	c := newTestClient(t)

	const callers = 5
	results := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			results <- c.Connect(context.Background(), server.URL())
		}()
	}
	for i := 0; i < callers; i++ {
		require.NoError(t, <-results)
	}

	assert.True(t, c.IsConnected())
	assert.Equal(t, 1, server.TotalConnections())
}

func TestClient_ConnectAlreadyConnected(t *testing.T) {
	server := testutil.NewServer(t)
	c := newTestClient(t)

	require.NoError(t, c.Connect(context.Background(), server.URL()))
	require.NoError(t, c.Connect(context.Background(), server.URL()))

	assert.Equal(t, 1, server.TotalConnections())
}

func TestClient_SendInvalidEnvelope(t *testing.T) {
	c := newTestClient(t)

	err := c.Send(message.Envelope{Type: "chat.message"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidMessage)

	err = c.Send(message.Envelope{Data: []byte(`{}`)})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidMessage)

	// Invalid envelopes are rejected, never queued.
	assert.Empty(t, c.QueuedMessages())
}

func TestClient_QueueFIFOBound(t *testing.T) {
	c := newTestClient(t, WithQueueSize(5), WithAutoReconnect(false))

	for i := 0; i < 10; i++ {
		require.NoError(t, c.Send(chatEnvelope(t, fmt.Sprintf("msg-%d", i))))
	}

	queued := c.QueuedMessages()
	require.Len(t, queued, 5)
	for i, env := range queued {
		var payload struct {
			Text string `json:"text"`
		}
		require.NoError(t, env.DecodeData(&payload))
		// Most recent five survive, in original relative order.
		assert.Equal(t, fmt.Sprintf("msg-%d", i+5), payload.Text)
	}
}

func TestClient_SetMaxQueueSizeEvictsOldest(t *testing.T) {
	c := newTestClient(t, WithAutoReconnect(false))

	for i := 0; i < 8; i++ {
		require.NoError(t, c.Send(chatEnvelope(t, fmt.Sprintf("msg-%d", i))))
	}
	c.SetMaxQueueSize(3)

	queued := c.QueuedMessages()
	require.Len(t, queued, 3)
	var payload struct {
		Text string `json:"text"`
	}
	require.NoError(t, queued[0].DecodeData(&payload))
	assert.Equal(t, "msg-5", payload.Text)
}

func TestClient_ConnectDrainsQueueInOrder(t *testing.T) {
	server := testutil.NewServer(t)
	c := newTestClient(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Send(chatEnvelope(t, fmt.Sprintf("queued-%d", i))))
	}
	require.Len(t, c.QueuedMessages(), 3)

	require.NoError(t, c.Connect(context.Background(), server.URL()))

	require.Eventually(t, func() bool {
		return len(server.ReceivedOfType("chat.message")) == 3
	}, 2*time.Second, 10*time.Millisecond)

	received := server.ReceivedOfType("chat.message")
	for i, env := range received {
		var payload struct {
			Text string `json:"text"`
		}
		require.NoError(t, env.DecodeData(&payload))
		assert.Equal(t, fmt.Sprintf("queued-%d", i), payload.Text)
	}
	assert.Empty(t, c.QueuedMessages())
}

func TestClient_AuthSentFirst(t *testing.T) {
	server := testutil.NewServer(t)
	c := newTestClient(t, WithAuthentication(AuthTypeBearer, "secret-token"))

	require.NoError(t, c.Send(chatEnvelope(t, "queued-before-connect")))
	require.NoError(t, c.Connect(context.Background(), server.URL()))

	require.Eventually(t, func() bool {
		return len(server.Received()) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	received := server.Received()
	require.Equal(t, message.TypeAuth, received[0].Type)
	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, received[0].DecodeData(&auth))
	assert.Equal(t, "secret-token", auth.Token)
	assert.Equal(t, "chat.message", received[1].Type)
}

func TestClient_ReconnectAfterLoss(t *testing.T) {
	server := testutil.NewServer(t)
	c := newTestClient(t, WithRetryDelay(30*time.Millisecond))

	require.NoError(t, c.Connect(context.Background(), server.URL()))
	server.DropConnections()

	require.Eventually(t, func() bool {
		return c.IsConnected() && server.TotalConnections() == 2
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, c.RetryCount())
}

func TestClient_RetryCeiling(t *testing.T) {
	server := testutil.NewServer(t)
	c := newTestClient(t,
		WithMaxRetries(2),
		WithRetryDelay(50*time.Millisecond),
	)

	require.NoError(t, c.Connect(context.Background(), server.URL()))
	server.Close()

	require.Eventually(t, func() bool {
		return c.Status() == StatusFailed
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, 2, c.RetryCount())

	// No further attempts once failed.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, StatusFailed, c.Status())
	assert.Equal(t, 2, c.RetryCount())
}

func TestClient_DisconnectDuringReconnecting(t *testing.T) {
	server := testutil.NewServer(t)
	c := newTestClient(t, WithRetryDelay(300*time.Millisecond))

	require.NoError(t, c.Connect(context.Background(), server.URL()))
	server.Close()

	require.Eventually(t, func() bool {
		return c.Status() == StatusReconnecting
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, c.Disconnect())

	assert.Equal(t, StatusDisconnected, c.Status())
	assert.Equal(t, 0, c.RetryCount())

	// The pending retry timer must never fire.
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, StatusDisconnected, c.Status())
	assert.Equal(t, 0, c.RetryCount())
}

func TestClient_DisconnectBeforeBackoffLoopRuns(t *testing.T) {
	server := testutil.NewServer(t)
	c := newTestClient(t, WithRetryDelay(20*time.Millisecond))

	require.NoError(t, c.Connect(context.Background(), server.URL()))
	require.NoError(t, c.Disconnect())

	// A loss-triggered backoff goroutine may only get scheduled after a
	// Disconnect has already completed. Run one with its context already
	// cancelled: the disconnected state must stand untouched.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.reconnectLoop(ctx)

	assert.Equal(t, StatusDisconnected, c.Status())
	assert.Equal(t, 0, c.RetryCount())
}

func TestClient_DisconnectClearsState(t *testing.T) {
	server := testutil.NewServer(t)
	c := newTestClient(t, WithAutoReconnect(false))

	c.On("chat.message", func(message.Envelope) {})
	require.NoError(t, c.Connect(context.Background(), server.URL()))
	require.NoError(t, c.Disconnect())

	// Queued messages do not survive a manual disconnect.
	require.NoError(t, c.Send(chatEnvelope(t, "before")))
	require.Len(t, c.QueuedMessages(), 1)
	require.NoError(t, c.Disconnect())
	assert.Empty(t, c.QueuedMessages())
	assert.Equal(t, StatusDisconnected, c.Status())
}

func TestClient_DisconnectFromAnyState(t *testing.T) {
	c := newTestClient(t)

	// Never connected.
	require.NoError(t, c.Disconnect())
	assert.Equal(t, StatusDisconnected, c.Status())

	// Repeatedly.
	require.NoError(t, c.Disconnect())
	assert.Equal(t, StatusDisconnected, c.Status())
}

func TestClient_ProtocolValidation(t *testing.T) {
	t.Run("mismatch rejected", func(t *testing.T) {
		server := testutil.NewServer(t, testutil.WithSubprotocols("chat.v2"))
		c := newTestClient(t,
			WithProtocols("chat.v1"),
			WithValidateProtocol(),
			WithAutoReconnect(false),
		)

		err := c.Connect(context.Background(), server.URL())
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrProtocolMismatch)
		assert.Equal(t, StatusDisconnected, c.Status())
		assert.False(t, c.IsConnected())
	})

	t.Run("match accepted", func(t *testing.T) {
		server := testutil.NewServer(t, testutil.WithSubprotocols("chat.v1"))
		c := newTestClient(t,
			WithProtocols("chat.v1"),
			WithValidateProtocol(),
		)

		require.NoError(t, c.Connect(context.Background(), server.URL()))
		assert.True(t, c.IsConnected())
	})
}

func TestClient_RejectedHandshake(t *testing.T) {
	server := testutil.NewServer(t, testutil.WithRejectHandshake(http.StatusUnauthorized))
	c := newTestClient(t, WithAutoReconnect(false))

	err := c.Connect(context.Background(), server.URL())
	require.Error(t, err)
	assert.Equal(t, errors.KindTransportError, errors.KindOf(err))
	assert.Equal(t, StatusDisconnected, c.Status())
}

func TestClient_SendWhileConnected(t *testing.T) {
	server := testutil.NewServer(t)
	c := newTestClient(t)

	require.NoError(t, c.Connect(context.Background(), server.URL()))
	require.NoError(t, c.Send(chatEnvelope(t, "live")))

	require.Eventually(t, func() bool {
		return len(server.ReceivedOfType("chat.message")) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, c.QueuedMessages())
}

func TestClient_CompressedSend(t *testing.T) {
	server := testutil.NewServer(t)
	c := newTestClient(t, WithCompression(message.Compression{
		Enabled:   true,
		Threshold: 64,
		Algorithm: message.AlgorithmGzip,
	}))

	require.NoError(t, c.Connect(context.Background(), server.URL()))

	big := make([]byte, 0, 2048)
	for i := 0; i < 256; i++ {
		big = append(big, "workspace"...)
	}
	env, err := message.New("file.content", map[string]string{"body": string(big)})
	require.NoError(t, err)
	require.NoError(t, c.Send(env))

	require.Eventually(t, func() bool {
		return len(server.ReceivedOfType("file.content")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	var payload struct {
		Body string `json:"body"`
	}
	require.NoError(t, server.ReceivedOfType("file.content")[0].DecodeData(&payload))
	assert.Equal(t, string(big), payload.Body)
}
