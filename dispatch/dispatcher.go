package dispatch

import (
	"fmt"
	"sync"

	"github.com/c360/streamlink/errors"
	"github.com/c360/streamlink/message"
)

// Wildcard subscribes a handler to every dispatched envelope.
const Wildcard = "*"

// Handler receives a dispatched envelope. Handlers run synchronously
// on the dispatching goroutine, so they must not block on the client
// they were registered with.
type Handler func(message.Envelope)

// ErrorHandler receives handler failures (currently panics recovered
// during dispatch). It must not panic itself.
type ErrorHandler func(err error, env message.Envelope)

// registration pairs a handler with its insertion order so removal by
// subscription leaves the remaining order intact.
type registration struct {
	id uint64
	fn Handler
}

// Subscription identifies a single On registration for later removal.
type Subscription struct {
	msgType string
	id      uint64
}

// Type returns the envelope type the subscription was registered for.
func (s Subscription) Type() string { return s.msgType }

// Dispatcher is an in-memory pub/sub keyed by envelope type. The zero
// value is not usable; construct with NewDispatcher.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]registration
	nextID   uint64
	onError  ErrorHandler
}

// NewDispatcher creates an empty dispatcher. onError may be nil, in
// which case handler panics are swallowed after recovery.
func NewDispatcher(onError ErrorHandler) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]registration),
		onError:  onError,
	}
}

// On registers a handler for an exact envelope type, or for every
// envelope when msgType is Wildcard. Handlers for the same type fire
// in registration order.
func (d *Dispatcher) On(msgType string, h Handler) Subscription {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	sub := Subscription{msgType: msgType, id: d.nextID}
	d.handlers[msgType] = append(d.handlers[msgType], registration{id: sub.id, fn: h})
	return sub
}

// Off removes a single registration, reporting whether it was still
// present. Removing an already-removed subscription is a no-op.
func (d *Dispatcher) Off(sub Subscription) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	regs := d.handlers[sub.msgType]
	for i, reg := range regs {
		if reg.id == sub.id {
			d.handlers[sub.msgType] = append(regs[:i:i], regs[i+1:]...)
			if len(d.handlers[sub.msgType]) == 0 {
				delete(d.handlers, sub.msgType)
			}
			return true
		}
	}
	return false
}

// HandlerCount reports the number of handlers registered for a type.
func (d *Dispatcher) HandlerCount(msgType string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[msgType])
}

// Clear drops every registration.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = make(map[string][]registration)
}

// Dispatch delivers the envelope to every exact-type handler and then
// to every wildcard handler, synchronously and in registration order.
// A panicking handler is reported and skipped; the rest still run.
func (d *Dispatcher) Dispatch(env message.Envelope) {
	d.mu.RLock()
	exact := d.handlers[env.Type]
	wild := d.handlers[Wildcard]
	regs := make([]registration, 0, len(exact)+len(wild))
	regs = append(regs, exact...)
	if env.Type != Wildcard {
		regs = append(regs, wild...)
	}
	d.mu.RUnlock()

	for _, reg := range regs {
		d.invoke(reg.fn, env)
	}
}

// invoke runs one handler with panic isolation.
func (d *Dispatcher) invoke(h Handler, env message.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			if d.onError == nil {
				return
			}
			err := errors.WithKind(
				fmt.Errorf("handler for %q panicked: %v: %w", env.Type, r, errors.ErrHandlerPanic),
				errors.KindHandlerError, "Dispatcher", "Dispatch")
			d.onError(err, env)
		}
	}()
	h(env)
}
