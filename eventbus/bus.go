package eventbus

import (
	"sync"

	"github.com/c360/streamlink/message"
)

// Lifecycle subjects published by the client.
const (
	SubjectConnected    = "streamlink.socket.connected"
	SubjectDisconnected = "streamlink.socket.disconnected"
	SubjectReconnecting = "streamlink.socket.reconnecting"
	SubjectError        = "streamlink.socket.error"
)

// Bus publishes client lifecycle events to an external system.
// Publish must be safe for concurrent use; the client calls it from
// its state-transition paths.
type Bus interface {
	Publish(subject string, env message.Envelope) error
	Close() error
}

// Recorder is an in-memory Bus for tests.
type Recorder struct {
	mu     sync.Mutex
	events []RecordedEvent
	closed bool
}

// RecordedEvent is one captured Publish call.
type RecordedEvent struct {
	Subject  string
	Envelope message.Envelope
}

// NewRecorder creates an empty recording bus.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Publish captures the event.
func (r *Recorder) Publish(subject string, env message.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, RecordedEvent{Subject: subject, Envelope: env})
	return nil
}

// Close marks the recorder closed.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Events returns a snapshot of captured events in publish order.
func (r *Recorder) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// EventsFor returns captured events with the given subject.
func (r *Recorder) EventsFor(subject string) []RecordedEvent {
	var out []RecordedEvent
	for _, ev := range r.Events() {
		if ev.Subject == subject {
			out = append(out, ev)
		}
	}
	return out
}

// Closed reports whether Close was called.
func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
