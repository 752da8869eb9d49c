package message

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/streamlink/errors"
)

// Registry holds optional per-type JSON Schemas. Types without a
// registered schema pass through unvalidated, preserving the
// schemaless default while letting callers harden the types they
// care about.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*gojsonschema.Schema
}

// NewRegistry creates an empty schema registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*gojsonschema.Schema)}
}

// Register compiles schemaJSON and associates it with msgType,
// replacing any previous schema for that type.
func (r *Registry) Register(msgType string, schemaJSON []byte) error {
	if msgType == "" {
		return errors.WrapInvalid(
			fmt.Errorf("empty message type: %w", errors.ErrInvalidConfig),
			"Registry", "Register", "schema rejected")
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
	if err != nil {
		return errors.WrapInvalid(err, "Registry", "Register",
			fmt.Sprintf("compile schema for type %s failed", msgType))
	}

	r.mu.Lock()
	r.schemas[msgType] = schema
	r.mu.Unlock()
	return nil
}

// Unregister removes the schema for msgType, reporting whether one
// was present.
func (r *Registry) Unregister(msgType string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.schemas[msgType]
	delete(r.schemas, msgType)
	return ok
}

// Validate checks the envelope payload against the schema registered
// for its type, if any.
func (r *Registry) Validate(e Envelope) error {
	r.mu.RLock()
	schema, ok := r.schemas[e.Type]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(e.Data))
	if err != nil {
		return errors.WithKind(
			fmt.Errorf("validate %s payload: %w", e.Type, err),
			errors.KindParseError, "Registry", "Validate")
	}

	if !result.Valid() {
		detail := ""
		if errs := result.Errors(); len(errs) > 0 {
			detail = errs[0].String()
		}
		return errors.WrapInvalid(
			fmt.Errorf("type %s: %s: %w", e.Type, detail, errors.ErrSchemaRejected),
			"Registry", "Validate", "payload failed schema")
	}
	return nil
}
