package dispatch

import (
	"sync"

	"github.com/c360/streamlink/errors"
	"github.com/c360/streamlink/message"
)

// Filter inspects an inbound envelope; returning false drops it before
// any handler sees it.
type Filter func(message.Envelope) bool

// Transformer rewrites an inbound envelope that passed filtering.
type Transformer func(message.Envelope) message.Envelope

// Pipeline is the inbound path between raw socket frames and the
// dispatcher: decompress, parse, schema-check, filter, transform,
// dispatch. Stages run in registration order on the reader goroutine.
type Pipeline struct {
	mu           sync.RWMutex
	filters      []Filter
	transformers []Transformer
	schemas      *message.Registry
	dispatcher   *Dispatcher
}

// NewPipeline creates a pipeline feeding the given dispatcher.
// schemas may be nil to skip payload validation.
func NewPipeline(dispatcher *Dispatcher, schemas *message.Registry) *Pipeline {
	return &Pipeline{
		dispatcher: dispatcher,
		schemas:    schemas,
	}
}

// AddFilter appends a filter to the chain.
func (p *Pipeline) AddFilter(f Filter) {
	p.mu.Lock()
	p.filters = append(p.filters, f)
	p.mu.Unlock()
}

// AddTransformer appends a transformer to the chain.
func (p *Pipeline) AddTransformer(t Transformer) {
	p.mu.Lock()
	p.transformers = append(p.transformers, t)
	p.mu.Unlock()
}

// Reset drops all registered filters and transformers.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	p.filters = nil
	p.transformers = nil
	p.mu.Unlock()
}

// ProcessBinary dispatches a raw binary frame on the binary channel,
// bypassing JSON parsing and the filter chain.
func (p *Pipeline) ProcessBinary(frame []byte) {
	p.dispatcher.Dispatch(message.NewBinary(frame))
}

// ProcessText runs one inbound text frame through the full chain. It
// returns the parsed envelope and whether it reached the dispatcher: a
// filtered envelope parses fine but is never dispatched. A parse,
// shape, or schema failure is reported on the error channel and returned; it
// never terminates the stream, so callers log the error and keep
// reading.
func (p *Pipeline) ProcessText(raw []byte) (message.Envelope, bool, error) {
	inflated, err := message.Decompress(raw)
	if err != nil {
		p.reportError(err)
		return message.Envelope{}, false, err
	}

	env, err := message.Decode(inflated)
	if err != nil {
		p.reportError(err)
		return message.Envelope{}, false, err
	}

	if err := env.Validate(); err != nil {
		p.reportError(err)
		return env, false, err
	}

	if p.schemas != nil {
		if err := p.schemas.Validate(env); err != nil {
			p.reportError(err)
			return env, false, err
		}
	}

	p.mu.RLock()
	filters := p.filters
	transformers := p.transformers
	p.mu.RUnlock()

	for _, f := range filters {
		if !f(env) {
			return env, false, nil
		}
	}
	for _, t := range transformers {
		env = t(env)
	}

	p.dispatcher.Dispatch(env)
	return env, true, nil
}

// reportError surfaces a pipeline failure as an error-channel event so
// subscribers see it the same way they see handler failures.
func (p *Pipeline) reportError(err error) {
	p.dispatcher.Dispatch(message.NewError(errors.KindOf(err), err.Error()))
}
