package dispatch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/streamlink/errors"
	"github.com/c360/streamlink/message"
)

func chatEnvelope(t *testing.T, text string) message.Envelope {
	t.Helper()
	env, err := message.New("chat.message", map[string]string{"text": text})
	require.NoError(t, err)
	return env
}

func TestDispatcher_ExactType(t *testing.T) {
	d := NewDispatcher(nil)

	var got []string
	d.On("chat.message", func(env message.Envelope) {
		var payload struct {
			Text string `json:"text"`
		}
		require.NoError(t, env.DecodeData(&payload))
		got = append(got, payload.Text)
	})
	d.On("file.saved", func(message.Envelope) {
		t.Fatal("file.saved handler must not fire for chat.message")
	})

	d.Dispatch(chatEnvelope(t, "hello"))
	assert.Equal(t, []string{"hello"}, got)
}

func TestDispatcher_RegistrationOrder(t *testing.T) {
	d := NewDispatcher(nil)

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		d.On("chat.message", func(message.Envelope) {
			order = append(order, i)
		})
	}

	d.Dispatch(chatEnvelope(t, "x"))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestDispatcher_Wildcard(t *testing.T) {
	d := NewDispatcher(nil)

	exact := 0
	wildcard := 0
	d.On("chat.message", func(message.Envelope) { exact++ })
	d.On("chat.message", func(message.Envelope) { exact++ })
	d.On(Wildcard, func(message.Envelope) { wildcard++ })

	d.Dispatch(chatEnvelope(t, "x"))

	assert.Equal(t, 2, exact)
	// One delivery per envelope, no matter how many exact handlers fired.
	assert.Equal(t, 1, wildcard)

	d.Dispatch(message.Envelope{Type: "never.subscribed", Data: json.RawMessage(`{}`)})
	assert.Equal(t, 2, wildcard)
	assert.Equal(t, 2, exact)
}

func TestDispatcher_Off(t *testing.T) {
	d := NewDispatcher(nil)

	first := 0
	second := 0
	sub := d.On("chat.message", func(message.Envelope) { first++ })
	d.On("chat.message", func(message.Envelope) { second++ })

	require.Equal(t, 2, d.HandlerCount("chat.message"))

	assert.True(t, d.Off(sub))
	assert.False(t, d.Off(sub), "second removal is a no-op")
	assert.Equal(t, 1, d.HandlerCount("chat.message"))

	d.Dispatch(chatEnvelope(t, "x"))
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestDispatcher_PanicIsolation(t *testing.T) {
	var reported []error
	d := NewDispatcher(func(err error, _ message.Envelope) {
		reported = append(reported, err)
	})

	ran := []string{}
	d.On("chat.message", func(message.Envelope) { ran = append(ran, "first") })
	d.On("chat.message", func(message.Envelope) { panic("boom") })
	d.On("chat.message", func(message.Envelope) { ran = append(ran, "third") })
	d.On(Wildcard, func(message.Envelope) { ran = append(ran, "wildcard") })

	d.Dispatch(chatEnvelope(t, "x"))

	assert.Equal(t, []string{"first", "third", "wildcard"}, ran)
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], errors.ErrHandlerPanic)
	assert.Equal(t, errors.KindHandlerError, errors.KindOf(reported[0]))
}

func TestDispatcher_PanicWithoutErrorHandler(t *testing.T) {
	d := NewDispatcher(nil)
	d.On("chat.message", func(message.Envelope) { panic("boom") })

	assert.NotPanics(t, func() {
		d.Dispatch(chatEnvelope(t, "x"))
	})
}

func TestDispatcher_Clear(t *testing.T) {
	d := NewDispatcher(nil)

	fired := 0
	d.On("chat.message", func(message.Envelope) { fired++ })
	d.On(Wildcard, func(message.Envelope) { fired++ })

	d.Clear()
	d.Dispatch(chatEnvelope(t, "x"))

	assert.Equal(t, 0, fired)
	assert.Equal(t, 0, d.HandlerCount("chat.message"))
	assert.Equal(t, 0, d.HandlerCount(Wildcard))
}

func TestDispatcher_ManyRegistrations(t *testing.T) {
	d := NewDispatcher(nil)

	const n = 10000
	fired := 0
	for i := 0; i < n; i++ {
		d.On("chat.message", func(message.Envelope) { fired++ })
	}

	d.Dispatch(chatEnvelope(t, "x"))
	assert.Equal(t, n, fired)
}
