package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
)

// Caller is the slice of the bridge a tool handler needs: a correlated
// send to the extension plus the connection probe.
type Caller interface {
	// Send issues a correlated request and waits for the matching reply.
	// A timeout <= 0 applies the bridge default.
	Send(ctx context.Context, msgType string, payload any, timeout time.Duration) (json.RawMessage, error)
	// HasConnection reports whether an extension socket is open.
	HasConnection() bool
}

// Handler executes a tool with schema-validated arguments. It may call
// the agent zero or more times and composes the final Result from the
// agent's replies.
type Handler func(ctx context.Context, agent Caller, args map[string]any) (Result, error)

// Descriptor describes one tool: name, schema and handler.
type Descriptor struct {
	// Name uniquely identifies the tool.
	Name string
	// Description explains the tool for the client.
	Description string
	// InputSchema declares the argument constraints.
	InputSchema *jsonschema.Schema
	// Handler runs the tool.
	Handler Handler

	resolved *jsonschema.Resolved
}

// ValidateArgs checks args against the descriptor's input schema.
func (d *Descriptor) ValidateArgs(args map[string]any) error {
	if d.resolved == nil {
		return nil
	}
	return d.resolved.Validate(args)
}

// Registry is an immutable ordered collection of tool descriptors,
// built once at startup and shared read-only afterwards.
type Registry struct {
	ordered []*Descriptor
	byName  map[string]*Descriptor
}

// NewRegistry resolves every descriptor's schema and indexes them by
// name, rejecting duplicates.
func NewRegistry(descriptors ...*Descriptor) (*Registry, error) {
	registry := &Registry{
		ordered: make([]*Descriptor, 0, len(descriptors)),
		byName:  make(map[string]*Descriptor, len(descriptors)),
	}
	for _, desc := range descriptors {
		if desc.Name == "" {
			return nil, fmt.Errorf("tool descriptor without a name")
		}
		if _, exists := registry.byName[desc.Name]; exists {
			return nil, fmt.Errorf("duplicate tool %q", desc.Name)
		}
		if desc.Handler == nil {
			return nil, fmt.Errorf("tool %s: handler is nil", desc.Name)
		}
		if desc.InputSchema != nil {
			resolved, err := desc.InputSchema.Resolve(nil)
			if err != nil {
				return nil, fmt.Errorf("tool %s: resolve schema: %w", desc.Name, err)
			}
			desc.resolved = resolved
		}
		registry.ordered = append(registry.ordered, desc)
		registry.byName[desc.Name] = desc
	}
	return registry, nil
}

// Lookup finds a descriptor by name.
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	desc, ok := r.byName[name]
	return desc, ok
}

// All returns the descriptors in registration order.
func (r *Registry) All() []*Descriptor {
	return r.ordered
}

// Names returns the tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ordered))
	for _, desc := range r.ordered {
		names = append(names, desc.Name)
	}
	return names
}
